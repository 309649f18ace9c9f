package sqlxrepos

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/school"
)

const (
	schoolColumns  = `id, owner_id, name, type, email, phone, address, city, postal_code, director_name, created_at, updated_at`
	subjectColumns = `id, school_id, name, description, created_at, updated_at`
	courseColumns  = `id, school_id, subject_id, teacher_id, class_id, name, description, created_at, updated_at`
	classSelect    = `SELECT c.id, c.school_id, c.name, c.created_at, c.updated_at,
		(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id) AS student_count
		FROM classes c`
)

type SchoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*SchoolRepository)(nil)

func (repo *SchoolRepository) CreateSchool(ctx context.Context, s school.School) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO schools (`+schoolColumns+`) VALUES (
		:id, :owner_id, :name, :type, :email, :phone, :address, :city, :postal_code, :director_name,
		:created_at, :updated_at)`, s)
	if err != nil {
		if isUniqueViolation(err) {
			return school.ErrOwnerHasSchool
		}
		return errors.Wrap(err, "inserting school")
	}
	return nil
}

func (repo *SchoolRepository) GetSchoolByOwner(ctx context.Context, ownerID string) (school.School, error) {
	var s school.School
	err := repo.db.GetContext(ctx, &s, `SELECT `+schoolColumns+` FROM schools WHERE owner_id = $1`, ownerID)
	return s, getOne(err, school.ErrNotFound, "selecting school")
}

func (repo *SchoolRepository) UpdateSchool(ctx context.Context, s school.School) error {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE schools SET
		name = :name, type = :type, phone = :phone, address = :address, city = :city,
		postal_code = :postal_code, director_name = :director_name, updated_at = :updated_at
		WHERE id = :id`, s)
	if err != nil {
		return errors.Wrap(err, "updating school")
	}
	return mustAffect(res, school.ErrNotFound)
}

func (repo *SchoolRepository) GetStats(ctx context.Context, schoolID string) (school.Stats, error) {
	var stats school.Stats
	err := repo.db.GetContext(ctx, &stats, `SELECT
		(SELECT COUNT(*) FROM students WHERE school_id = $1) AS students,
		(SELECT COUNT(*) FROM teachers WHERE school_id = $1) AS teachers,
		(SELECT COUNT(*) FROM classes WHERE school_id = $1) AS classes`, schoolID)
	if err != nil {
		return school.Stats{}, errors.Wrap(err, "counting school stats")
	}
	return stats, nil
}

// Classes

func (repo *SchoolRepository) ListClasses(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Class, error) {
	orderBy := core.OrderByClause(ordering, school.NameOrderingColumns, school.DefaultOrdering)
	classes := make([]school.Class, 0)
	err := repo.db.SelectContext(ctx, &classes, classSelect+` WHERE c.school_id = $1 ORDER BY `+orderBy+`, id`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting classes")
	}
	return classes, nil
}

func (repo *SchoolRepository) GetClass(ctx context.Context, schoolID, id string) (school.Class, error) {
	var c school.Class
	err := repo.db.GetContext(ctx, &c, classSelect+` WHERE c.school_id = $1 AND c.id = $2`, schoolID, id)
	return c, getOne(err, school.ErrClassNotFound, "selecting class")
}

func (repo *SchoolRepository) CreateClass(ctx context.Context, c school.Class) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO classes (id, school_id, name, created_at, updated_at)
		VALUES (:id, :school_id, :name, :created_at, :updated_at)`, c)
	return errors.Wrap(err, "inserting class")
}

func (repo *SchoolRepository) UpdateClass(ctx context.Context, c school.Class) error {
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE classes SET name = :name, updated_at = :updated_at WHERE school_id = :school_id AND id = :id`, c)
	if err != nil {
		return errors.Wrap(err, "updating class")
	}
	return mustAffect(res, school.ErrClassNotFound)
}

func (repo *SchoolRepository) DeleteClass(ctx context.Context, schoolID, id string) error {
	return repo.deleteScoped(ctx, "classes", schoolID, id, school.ErrClassNotFound)
}

// Subjects

func (repo *SchoolRepository) ListSubjects(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Subject, error) {
	orderBy := core.OrderByClause(ordering, school.NameOrderingColumns, school.DefaultOrdering)
	subjects := make([]school.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects,
		`SELECT `+subjectColumns+` FROM subjects WHERE school_id = $1 ORDER BY `+orderBy+`, id`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting subjects")
	}
	return subjects, nil
}

func (repo *SchoolRepository) GetSubject(ctx context.Context, schoolID, id string) (school.Subject, error) {
	var s school.Subject
	err := repo.db.GetContext(ctx, &s,
		`SELECT `+subjectColumns+` FROM subjects WHERE school_id = $1 AND id = $2`, schoolID, id)
	return s, getOne(err, school.ErrSubjectNotFound, "selecting subject")
}

func (repo *SchoolRepository) CreateSubject(ctx context.Context, s school.Subject) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO subjects (`+subjectColumns+`)
		VALUES (:id, :school_id, :name, :description, :created_at, :updated_at)`, s)
	return errors.Wrap(err, "inserting subject")
}

func (repo *SchoolRepository) UpdateSubject(ctx context.Context, s school.Subject) error {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE subjects SET name = :name, description = :description,
		updated_at = :updated_at WHERE school_id = :school_id AND id = :id`, s)
	if err != nil {
		return errors.Wrap(err, "updating subject")
	}
	return mustAffect(res, school.ErrSubjectNotFound)
}

func (repo *SchoolRepository) DeleteSubject(ctx context.Context, schoolID, id string) error {
	return repo.deleteScoped(ctx, "subjects", schoolID, id, school.ErrSubjectNotFound)
}

// Courses

func (repo *SchoolRepository) ListCourses(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]school.Course, error) {
	orderBy := core.OrderByClause(ordering, school.NameOrderingColumns, school.DefaultOrdering)
	courses := make([]school.Course, 0)
	err := repo.db.SelectContext(ctx, &courses,
		`SELECT `+courseColumns+` FROM courses WHERE school_id = $1 ORDER BY `+orderBy+`, id`, schoolID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting courses")
	}
	return courses, nil
}

func (repo *SchoolRepository) GetCourse(ctx context.Context, schoolID, id string) (school.Course, error) {
	var c school.Course
	err := repo.db.GetContext(ctx, &c,
		`SELECT `+courseColumns+` FROM courses WHERE school_id = $1 AND id = $2`, schoolID, id)
	return c, getOne(err, school.ErrCourseNotFound, "selecting course")
}

func (repo *SchoolRepository) CreateCourse(ctx context.Context, c school.Course) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO courses (`+courseColumns+`) VALUES (
		:id, :school_id, :subject_id, :teacher_id, :class_id, :name, :description, :created_at, :updated_at)`, c)
	return errors.Wrap(err, "inserting course")
}

func (repo *SchoolRepository) UpdateCourse(ctx context.Context, c school.Course) error {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE courses SET subject_id = :subject_id, teacher_id = :teacher_id,
		class_id = :class_id, name = :name, description = :description, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`, c)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return mustAffect(res, school.ErrCourseNotFound)
}

func (repo *SchoolRepository) DeleteCourse(ctx context.Context, schoolID, id string) error {
	return repo.deleteScoped(ctx, "courses", schoolID, id, school.ErrCourseNotFound)
}

// Teacher subjects

func (repo *SchoolRepository) SetTeacherSubjects(ctx context.Context, teacherID string, subjectIDs []string) error {
	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return errors.Wrap(err, "clearing teacher subjects")
	}
	for _, id := range subjectIDs {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2)`, teacherID, id); err != nil {
			return errors.Wrap(err, "inserting teacher subject")
		}
	}
	return errors.Wrap(tx.Commit(), "committing teacher subjects")
}

func (repo *SchoolRepository) ListTeacherSubjects(ctx context.Context, schoolID, teacherID string) ([]school.Subject, error) {
	subjects := make([]school.Subject, 0)
	err := repo.db.SelectContext(ctx, &subjects, `SELECT s.id, s.school_id, s.name, s.description, s.created_at, s.updated_at
		FROM subjects s JOIN teacher_subjects ts ON ts.subject_id = s.id
		WHERE s.school_id = $1 AND ts.teacher_id = $2 ORDER BY s.name, s.id`, schoolID, teacherID)
	if err != nil {
		return nil, errors.Wrap(err, "selecting teacher subjects")
	}
	return subjects, nil
}

// deleteScoped deletes the row `id` of `table` when it belongs to the school.
func (repo *SchoolRepository) deleteScoped(ctx context.Context, table, schoolID, id string, notFound error) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return errors.Wrap(err, "deleting from "+table)
	}
	return mustAffect(res, notFound)
}
