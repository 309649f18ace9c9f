package dummydb

import (
	"context"
	"strings"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
)

var (
	studentFields = map[string]func(student.Student) string{
		"first_name":          func(s student.Student) string { return s.FirstName },
		"last_name":           func(s student.Student) string { return s.LastName },
		"email":               func(s student.Student) string { return s.Email },
		"registration_number": func(s student.Student) string { return s.RegistrationNumber },
		"created_at":          func(s student.Student) string { return s.CreatedAt.Format(timeSortLayout) },
	}
	teacherFields = map[string]func(teacher.Teacher) string{
		"first_name": func(t teacher.Teacher) string { return t.FirstName },
		"last_name":  func(t teacher.Teacher) string { return t.LastName },
		"email":      func(t teacher.Teacher) string { return t.Email },
		"created_at": func(t teacher.Teacher) string { return t.CreatedAt.Format(timeSortLayout) },
	}
)

// Students

func (repo *StudentRepository) emailTaken(s student.Student) bool {
	if s.Email == "" {
		return false
	}
	for _, other := range repo.db.students {
		if other.ID != s.ID && other.SchoolID == s.SchoolID && strings.EqualFold(other.Email, s.Email) {
			return true
		}
	}
	return false
}

func (repo *StudentRepository) List(_ context.Context, schoolID string, ordering []core.DBOrdering) ([]student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	students := make([]student.Student, 0)
	for _, s := range repo.db.students {
		if s.SchoolID == schoolID {
			students = append(students, s)
		}
	}
	sortBy(students, ordering, studentFields, student.DefaultOrdering)
	return students, nil
}

func (repo *StudentRepository) GetByID(_ context.Context, schoolID, id string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.students[id]; ok && s.SchoolID == schoolID {
		return s, nil
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *StudentRepository) GetByEmail(_ context.Context, schoolID, email string) (student.Student, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if email == "" {
		return student.Student{}, student.ErrNotFound
	}
	for _, s := range repo.db.students {
		if s.SchoolID == schoolID && strings.EqualFold(s.Email, email) {
			return s, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

func (repo *StudentRepository) Create(_ context.Context, s student.Student) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if repo.emailTaken(s) {
		return student.ErrEmailExists
	}
	repo.db.students[s.ID] = s
	return nil
}

func (repo *StudentRepository) Update(_ context.Context, s student.Student, fields ...student.Field) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.students[s.ID]
	if !ok || orig.SchoolID != s.SchoolID {
		return student.ErrNotFound
	}
	if len(fields) == 0 {
		fields = student.AllFields
	}
	for _, f := range fields {
		switch f {
		case student.FirstName:
			orig.FirstName = s.FirstName
		case student.LastName:
			orig.LastName = s.LastName
		case student.Email:
			orig.Email = s.Email
		case student.Phone:
			orig.Phone = s.Phone
		case student.RegistrationNumber:
			orig.RegistrationNumber = s.RegistrationNumber
		case student.ClassID:
			orig.ClassID = s.ClassID
		}
	}
	if repo.emailTaken(orig) {
		return student.ErrEmailExists
	}
	orig.UpdatedAt = s.UpdatedAt
	repo.db.students[s.ID] = orig
	return nil
}

func (repo *StudentRepository) LinkUser(_ context.Context, schoolID, id, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	s, ok := repo.db.students[id]
	if !ok || s.SchoolID != schoolID {
		return student.ErrNotFound
	}
	s.UserID.String, s.UserID.Valid = userID, true
	repo.db.students[id] = s
	return nil
}

func (repo *StudentRepository) Delete(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.students[id]; !ok || s.SchoolID != schoolID {
		return student.ErrNotFound
	}
	delete(repo.db.students, id)
	return nil
}

// Teachers

func (repo *TeacherRepository) List(_ context.Context, schoolID string, ordering []core.DBOrdering) ([]teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	teachers := make([]teacher.Teacher, 0)
	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID {
			teachers = append(teachers, t)
		}
	}
	sortBy(teachers, ordering, teacherFields, teacher.DefaultOrdering)
	return teachers, nil
}

func (repo *TeacherRepository) GetByID(_ context.Context, schoolID, id string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if t, ok := repo.db.teachers[id]; ok && t.SchoolID == schoolID {
		return t, nil
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *TeacherRepository) GetByEmail(_ context.Context, schoolID, email string) (teacher.Teacher, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID && strings.EqualFold(t.Email, email) {
			return t, nil
		}
	}
	return teacher.Teacher{}, teacher.ErrNotFound
}

func (repo *TeacherRepository) Create(_ context.Context, t teacher.Teacher) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.teachers {
		if other.SchoolID == t.SchoolID && strings.EqualFold(other.Email, t.Email) {
			return teacher.ErrEmailExists
		}
	}
	repo.db.teachers[t.ID] = t
	return nil
}

func (repo *TeacherRepository) Update(_ context.Context, t teacher.Teacher) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.teachers[t.ID]; !ok || orig.SchoolID != t.SchoolID {
		return teacher.ErrNotFound
	}
	repo.db.teachers[t.ID] = t
	return nil
}

func (repo *TeacherRepository) Delete(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if t, ok := repo.db.teachers[id]; !ok || t.SchoolID != schoolID {
		return teacher.ErrNotFound
	}
	delete(repo.db.teachers, id)
	delete(repo.db.teacherSubjects, id)
	for cid, c := range repo.db.courses {
		if c.TeacherID == id {
			delete(repo.db.courses, cid)
		}
	}
	return nil
}
