package school

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/teacher"
)

var (
	// errors
	ErrNotFound        = errors.New("school not found")
	ErrOwnerHasSchool  = errors.New("this account already owns a school")
	ErrClassNotFound   = errors.New("class not found")
	ErrSubjectNotFound = errors.New("subject not found")
	ErrCourseNotFound  = errors.New("course not found")

	NameOrderingColumns = map[string]string{"name": "name", "created_at": "created_at"}
	DefaultOrdering     = core.DBOrdering{Field: "name", Ascending: true}
)

type (
	Repository interface {
		// CreateSchool fails with ErrOwnerHasSchool when the owner already has a school.
		CreateSchool(ctx context.Context, s School) error
		GetSchoolByOwner(ctx context.Context, ownerID string) (School, error)
		UpdateSchool(ctx context.Context, s School) error
		GetStats(ctx context.Context, schoolID string) (Stats, error)

		ListClasses(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]Class, error)
		GetClass(ctx context.Context, schoolID, id string) (Class, error)
		CreateClass(ctx context.Context, c Class) error
		UpdateClass(ctx context.Context, c Class) error
		DeleteClass(ctx context.Context, schoolID, id string) error

		ListSubjects(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]Subject, error)
		GetSubject(ctx context.Context, schoolID, id string) (Subject, error)
		CreateSubject(ctx context.Context, s Subject) error
		UpdateSubject(ctx context.Context, s Subject) error
		DeleteSubject(ctx context.Context, schoolID, id string) error

		ListCourses(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, schoolID, id string) (Course, error)
		CreateCourse(ctx context.Context, c Course) error
		UpdateCourse(ctx context.Context, c Course) error
		DeleteCourse(ctx context.Context, schoolID, id string) error

		// SetTeacherSubjects replaces the subjects taught by a teacher.
		SetTeacherSubjects(ctx context.Context, teacherID string, subjectIDs []string) error
		ListTeacherSubjects(ctx context.Context, schoolID, teacherID string) ([]Subject, error)
	}

	// TeacherFinder finds the teachers courses and subjects are assigned to.
	TeacherFinder interface {
		GetByID(ctx context.Context, schoolID, id string) (teacher.Teacher, error)
	}

	Service struct {
		repo     Repository
		teachers TeacherFinder
	}
)

func NewService(repo Repository, teachers TeacherFinder) *Service {
	return &Service{repo: repo, teachers: teachers}
}

// Create registers the school owned by the identity `ownerID`.
func (svc *Service) Create(ctx context.Context, ownerID, email string, d Details) (School, error) {
	now := core.NowUTC()
	s := School{
		ID:        core.NewID(),
		OwnerID:   ownerID,
		Email:     core.CleanString(email, true /* lower */),
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.apply(&s)
	if err := svc.repo.CreateSchool(ctx, s); err != nil {
		return School{}, err
	}
	return s, nil
}

// GetByOwner returns the school administered by the identity `ownerID`.
func (svc *Service) GetByOwner(ctx context.Context, ownerID string) (School, error) {
	return svc.repo.GetSchoolByOwner(ctx, ownerID)
}

func (svc *Service) Update(ctx context.Context, s School, d Details) (School, error) {
	d.apply(&s)
	s.UpdatedAt = core.NowUTC()
	if err := svc.repo.UpdateSchool(ctx, s); err != nil {
		return School{}, errors.Wrap(err, "updating school")
	}
	return s, nil
}

func (svc *Service) Stats(ctx context.Context, schoolID string) (Stats, error) {
	return svc.repo.GetStats(ctx, schoolID)
}

// Classes

func (svc *Service) ListClasses(ctx context.Context, schoolID string, ordering ...core.DBOrdering) ([]Class, error) {
	return svc.repo.ListClasses(ctx, schoolID, ordering)
}

func (svc *Service) GetClass(ctx context.Context, schoolID, id string) (Class, error) {
	return svc.repo.GetClass(ctx, schoolID, id)
}

func (svc *Service) CreateClass(ctx context.Context, schoolID string, f ClassForm) (Class, error) {
	now := core.NowUTC()
	c := Class{ID: core.NewID(), SchoolID: schoolID, Name: f.Name, CreatedAt: now, UpdatedAt: now}
	if err := svc.repo.CreateClass(ctx, c); err != nil {
		return Class{}, errors.Wrap(err, "creating class")
	}
	return c, nil
}

func (svc *Service) UpdateClass(ctx context.Context, schoolID, id string, f ClassForm) (Class, error) {
	c, err := svc.repo.GetClass(ctx, schoolID, id)
	if err != nil {
		return Class{}, err
	}
	c.Name = f.Name
	c.UpdatedAt = core.NowUTC()
	if err = svc.repo.UpdateClass(ctx, c); err != nil {
		return Class{}, errors.Wrap(err, "updating class")
	}
	return c, nil
}

func (svc *Service) DeleteClass(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteClass(ctx, schoolID, id)
}

// Subjects

func (svc *Service) ListSubjects(ctx context.Context, schoolID string, ordering ...core.DBOrdering) ([]Subject, error) {
	return svc.repo.ListSubjects(ctx, schoolID, ordering)
}

func (svc *Service) CreateSubject(ctx context.Context, schoolID string, f SubjectForm) (Subject, error) {
	now := core.NowUTC()
	s := Subject{
		ID:          core.NewID(),
		SchoolID:    schoolID,
		Name:        f.Name,
		Description: nullString(f.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.repo.CreateSubject(ctx, s); err != nil {
		return Subject{}, errors.Wrap(err, "creating subject")
	}
	return s, nil
}

func (svc *Service) UpdateSubject(ctx context.Context, schoolID, id string, f SubjectForm) (Subject, error) {
	s, err := svc.repo.GetSubject(ctx, schoolID, id)
	if err != nil {
		return Subject{}, err
	}
	s.Name = f.Name
	s.Description = nullString(f.Description)
	s.UpdatedAt = core.NowUTC()
	if err = svc.repo.UpdateSubject(ctx, s); err != nil {
		return Subject{}, errors.Wrap(err, "updating subject")
	}
	return s, nil
}

func (svc *Service) DeleteSubject(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteSubject(ctx, schoolID, id)
}

// Courses

func (svc *Service) ListCourses(ctx context.Context, schoolID string, ordering ...core.DBOrdering) ([]Course, error) {
	return svc.repo.ListCourses(ctx, schoolID, ordering)
}

// checkCourseRefs makes sure the subject, teacher and class of a course belong to the school.
func (svc *Service) checkCourseRefs(ctx context.Context, schoolID string, f CourseForm) error {
	if _, err := svc.repo.GetSubject(ctx, schoolID, f.SubjectID); err != nil {
		if errors.Cause(err) == ErrSubjectNotFound {
			return core.NewFieldValidationError("subject_id", "unknown subject")
		}
		return err
	}
	if _, err := svc.teachers.GetByID(ctx, schoolID, f.TeacherID); err != nil {
		if errors.Cause(err) == teacher.ErrNotFound {
			return core.NewFieldValidationError("teacher_id", "unknown teacher")
		}
		return err
	}
	if _, err := svc.repo.GetClass(ctx, schoolID, f.ClassID); err != nil {
		if errors.Cause(err) == ErrClassNotFound {
			return core.NewFieldValidationError("class_id", "unknown class")
		}
		return err
	}
	return nil
}

func (svc *Service) CreateCourse(ctx context.Context, schoolID string, f CourseForm) (Course, error) {
	if err := svc.checkCourseRefs(ctx, schoolID, f); err != nil {
		return Course{}, err
	}
	now := core.NowUTC()
	c := Course{
		ID:          core.NewID(),
		SchoolID:    schoolID,
		SubjectID:   f.SubjectID,
		TeacherID:   f.TeacherID,
		ClassID:     f.ClassID,
		Name:        f.Name,
		Description: nullString(f.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := svc.repo.CreateCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	return c, nil
}

func (svc *Service) UpdateCourse(ctx context.Context, schoolID, id string, f CourseForm) (Course, error) {
	c, err := svc.repo.GetCourse(ctx, schoolID, id)
	if err != nil {
		return Course{}, err
	}
	if err = svc.checkCourseRefs(ctx, schoolID, f); err != nil {
		return Course{}, err
	}
	c.SubjectID = f.SubjectID
	c.TeacherID = f.TeacherID
	c.ClassID = f.ClassID
	c.Name = f.Name
	c.Description = nullString(f.Description)
	c.UpdatedAt = core.NowUTC()
	if err = svc.repo.UpdateCourse(ctx, c); err != nil {
		return Course{}, errors.Wrap(err, "updating course")
	}
	return c, nil
}

func (svc *Service) DeleteCourse(ctx context.Context, schoolID, id string) error {
	return svc.repo.DeleteCourse(ctx, schoolID, id)
}

// Teacher subjects

// AssignSubjects replaces the subjects taught by the teacher `teacherID`.
func (svc *Service) AssignSubjects(ctx context.Context, schoolID, teacherID string, subjectIDs []string) ([]Subject, error) {
	if _, err := svc.teachers.GetByID(ctx, schoolID, teacherID); err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(subjectIDs))
	ids := make([]string, 0, len(subjectIDs))
	for _, id := range subjectIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, err := svc.repo.GetSubject(ctx, schoolID, id); err != nil {
			if errors.Cause(err) == ErrSubjectNotFound {
				return nil, core.NewFieldValidationError("subject_ids", "unknown subject "+id)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := svc.repo.SetTeacherSubjects(ctx, teacherID, ids); err != nil {
		return nil, errors.Wrap(err, "assigning subjects")
	}
	return svc.repo.ListTeacherSubjects(ctx, schoolID, teacherID)
}

func (svc *Service) TeacherSubjects(ctx context.Context, schoolID, teacherID string) ([]Subject, error) {
	if _, err := svc.teachers.GetByID(ctx, schoolID, teacherID); err != nil {
		return nil, err
	}
	return svc.repo.ListTeacherSubjects(ctx, schoolID, teacherID)
}
