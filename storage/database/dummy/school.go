package dummydb

import (
	"context"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/school"
)

var (
	classFields = map[string]func(school.Class) string{
		"name":       func(c school.Class) string { return c.Name },
		"created_at": func(c school.Class) string { return c.CreatedAt.Format(timeSortLayout) },
	}
	subjectFields = map[string]func(school.Subject) string{
		"name":       func(s school.Subject) string { return s.Name },
		"created_at": func(s school.Subject) string { return s.CreatedAt.Format(timeSortLayout) },
	}
	courseFields = map[string]func(school.Course) string{
		"name":       func(c school.Course) string { return c.Name },
		"created_at": func(c school.Course) string { return c.CreatedAt.Format(timeSortLayout) },
	}
)

const timeSortLayout = "2006-01-02T15:04:05.000000"

func (repo *SchoolRepository) CreateSchool(_ context.Context, s school.School) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.schools {
		if other.OwnerID == s.OwnerID {
			return school.ErrOwnerHasSchool
		}
	}
	repo.db.schools[s.ID] = s
	return nil
}

func (repo *SchoolRepository) GetSchoolByOwner(_ context.Context, ownerID string) (school.School, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	for _, s := range repo.db.schools {
		if s.OwnerID == ownerID {
			return s, nil
		}
	}
	return school.School{}, school.ErrNotFound
}

func (repo *SchoolRepository) UpdateSchool(_ context.Context, s school.School) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.schools[s.ID]; !ok {
		return school.ErrNotFound
	}
	repo.db.schools[s.ID] = s
	return nil
}

func (repo *SchoolRepository) GetStats(_ context.Context, schoolID string) (school.Stats, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var stats school.Stats
	for _, s := range repo.db.students {
		if s.SchoolID == schoolID {
			stats.Students++
		}
	}
	for _, t := range repo.db.teachers {
		if t.SchoolID == schoolID {
			stats.Teachers++
		}
	}
	for _, c := range repo.db.classes {
		if c.SchoolID == schoolID {
			stats.Classes++
		}
	}
	return stats, nil
}

// Classes

func (repo *SchoolRepository) withStudentCount(c school.Class) school.Class {
	c.StudentCount = 0
	for _, s := range repo.db.students {
		if s.ClassID.Valid && s.ClassID.String == c.ID {
			c.StudentCount++
		}
	}
	return c
}

func (repo *SchoolRepository) ListClasses(_ context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	classes := make([]school.Class, 0)
	for _, c := range repo.db.classes {
		if c.SchoolID == schoolID {
			classes = append(classes, repo.withStudentCount(c))
		}
	}
	sortBy(classes, ordering, classFields, school.DefaultOrdering)
	return classes, nil
}

func (repo *SchoolRepository) GetClass(_ context.Context, schoolID, id string) (school.Class, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.classes[id]; ok && c.SchoolID == schoolID {
		return repo.withStudentCount(c), nil
	}
	return school.Class{}, school.ErrClassNotFound
}

func (repo *SchoolRepository) CreateClass(_ context.Context, c school.Class) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.classes[c.ID] = c
	return nil
}

func (repo *SchoolRepository) UpdateClass(_ context.Context, c school.Class) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.classes[c.ID]; !ok || orig.SchoolID != c.SchoolID {
		return school.ErrClassNotFound
	}
	repo.db.classes[c.ID] = c
	return nil
}

func (repo *SchoolRepository) DeleteClass(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c, ok := repo.db.classes[id]; !ok || c.SchoolID != schoolID {
		return school.ErrClassNotFound
	}
	delete(repo.db.classes, id)
	// ON DELETE SET NULL / CASCADE
	for sid, s := range repo.db.students {
		if s.ClassID.Valid && s.ClassID.String == id {
			s.ClassID.Valid, s.ClassID.String = false, ""
			repo.db.students[sid] = s
		}
	}
	for cid, c := range repo.db.courses {
		if c.ClassID == id {
			delete(repo.db.courses, cid)
		}
	}
	return nil
}

// Subjects

func (repo *SchoolRepository) ListSubjects(_ context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]school.Subject, 0)
	for _, s := range repo.db.subjects {
		if s.SchoolID == schoolID {
			subjects = append(subjects, s)
		}
	}
	sortBy(subjects, ordering, subjectFields, school.DefaultOrdering)
	return subjects, nil
}

func (repo *SchoolRepository) GetSubject(_ context.Context, schoolID, id string) (school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.subjects[id]; ok && s.SchoolID == schoolID {
		return s, nil
	}
	return school.Subject{}, school.ErrSubjectNotFound
}

func (repo *SchoolRepository) CreateSubject(_ context.Context, s school.Subject) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.subjects[s.ID] = s
	return nil
}

func (repo *SchoolRepository) UpdateSubject(_ context.Context, s school.Subject) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.subjects[s.ID]; !ok || orig.SchoolID != s.SchoolID {
		return school.ErrSubjectNotFound
	}
	repo.db.subjects[s.ID] = s
	return nil
}

func (repo *SchoolRepository) DeleteSubject(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if s, ok := repo.db.subjects[id]; !ok || s.SchoolID != schoolID {
		return school.ErrSubjectNotFound
	}
	delete(repo.db.subjects, id)
	for _, subjects := range repo.db.teacherSubjects {
		delete(subjects, id)
	}
	for cid, c := range repo.db.courses {
		if c.SubjectID == id {
			delete(repo.db.courses, cid)
		}
	}
	return nil
}

// Courses

func (repo *SchoolRepository) ListCourses(_ context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	courses := make([]school.Course, 0)
	for _, c := range repo.db.courses {
		if c.SchoolID == schoolID {
			courses = append(courses, c)
		}
	}
	sortBy(courses, ordering, courseFields, school.DefaultOrdering)
	return courses, nil
}

func (repo *SchoolRepository) GetCourse(_ context.Context, schoolID, id string) (school.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.courses[id]; ok && c.SchoolID == schoolID {
		return c, nil
	}
	return school.Course{}, school.ErrCourseNotFound
}

func (repo *SchoolRepository) CreateCourse(_ context.Context, c school.Course) error {
	repo.db.Lock()
	defer repo.db.Unlock()
	repo.db.courses[c.ID] = c
	return nil
}

func (repo *SchoolRepository) UpdateCourse(_ context.Context, c school.Course) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.courses[c.ID]; !ok || orig.SchoolID != c.SchoolID {
		return school.ErrCourseNotFound
	}
	repo.db.courses[c.ID] = c
	return nil
}

func (repo *SchoolRepository) DeleteCourse(_ context.Context, schoolID, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if c, ok := repo.db.courses[id]; !ok || c.SchoolID != schoolID {
		return school.ErrCourseNotFound
	}
	delete(repo.db.courses, id)
	return nil
}

// Teacher subjects

func (repo *SchoolRepository) SetTeacherSubjects(_ context.Context, teacherID string, subjectIDs []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	subjects := make(map[string]bool, len(subjectIDs))
	for _, id := range subjectIDs {
		subjects[id] = true
	}
	repo.db.teacherSubjects[teacherID] = subjects
	return nil
}

func (repo *SchoolRepository) ListTeacherSubjects(_ context.Context, schoolID, teacherID string) ([]school.Subject, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subjects := make([]school.Subject, 0)
	for id := range repo.db.teacherSubjects[teacherID] {
		if s, ok := repo.db.subjects[id]; ok && s.SchoolID == schoolID {
			subjects = append(subjects, s)
		}
	}
	sortBy(subjects, nil, subjectFields, school.DefaultOrdering)
	return subjects, nil
}
