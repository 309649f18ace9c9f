// Package dummydb holds in-memory repositories for DEV without postgres and for tests.
package dummydb

import (
	"sort"
	"strings"
	"sync"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
)

// DB is a set of in-memory tables guarded by a single lock.
type DB struct {
	sync.RWMutex

	users           map[string]identity.User
	sessions        map[string]identity.Session
	profiles        map[string]profile.Tag
	schools         map[string]school.School
	classes         map[string]school.Class
	subjects        map[string]school.Subject
	courses         map[string]school.Course
	teacherSubjects map[string]map[string]bool // {teacher_id: {subject_id}}
	students        map[string]student.Student
	teachers        map[string]teacher.Teacher
}

func Open() *DB {
	return &DB{
		users:           make(map[string]identity.User),
		sessions:        make(map[string]identity.Session),
		profiles:        make(map[string]profile.Tag),
		schools:         make(map[string]school.School),
		classes:         make(map[string]school.Class),
		subjects:        make(map[string]school.Subject),
		courses:         make(map[string]school.Course),
		teacherSubjects: make(map[string]map[string]bool),
		students:        make(map[string]student.Student),
		teachers:        make(map[string]teacher.Teacher),
	}
}

// Repositories

type (
	IdentityRepository struct{ db *DB }
	ProfileRepository  struct{ db *DB }
	SchoolRepository   struct{ db *DB }
	StudentRepository  struct{ db *DB }
	TeacherRepository  struct{ db *DB }
)

var (
	_ identity.UserRepository    = (*IdentityRepository)(nil)
	_ identity.SessionRepository = (*IdentityRepository)(nil)
	_ profile.Repository         = (*ProfileRepository)(nil)
	_ school.Repository          = (*SchoolRepository)(nil)
	_ student.Repository         = (*StudentRepository)(nil)
	_ teacher.Repository         = (*TeacherRepository)(nil)
)

func NewIdentityRepository(db *DB) *IdentityRepository { return &IdentityRepository{db: db} }
func NewProfileRepository(db *DB) *ProfileRepository   { return &ProfileRepository{db: db} }
func NewSchoolRepository(db *DB) *SchoolRepository     { return &SchoolRepository{db: db} }
func NewStudentRepository(db *DB) *StudentRepository   { return &StudentRepository{db: db} }
func NewTeacherRepository(db *DB) *TeacherRepository   { return &TeacherRepository{db: db} }

// sortBy sorts `rows` with the first applicable ordering, using `fields` ({json field: getter}).
// Ties and missing orderings fall back to `fallback`.
func sortBy[T any](rows []T, orderings []core.DBOrdering, fields map[string]func(T) string, fallback core.DBOrdering) {
	ords := make([]core.DBOrdering, 0, len(orderings)+1)
	for _, ord := range orderings {
		if _, ok := fields[ord.Field]; ok {
			ords = append(ords, ord)
		}
	}
	ords = append(ords, fallback)

	sort.SliceStable(rows, func(i, j int) bool {
		for _, ord := range ords {
			get := fields[ord.Field]
			a, b := strings.ToLower(get(rows[i])), strings.ToLower(get(rows[j]))
			if a == b {
				continue
			}
			if ord.Ascending {
				return a < b
			}
			return a > b
		}
		return false
	})
}
