package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
)

const (
	studentColumns = `id, school_id, class_id, user_id, first_name, last_name, email, phone, registration_number, created_at, updated_at`
	teacherColumns = `id, school_id, user_id, first_name, last_name, email, phone, bio, created_at, updated_at`
)

type StudentRepository struct {
	db *sqlx.DB
}

var _ student.Repository = (*StudentRepository)(nil)

func (repo *StudentRepository) List(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]student.Student, error) {
	orderBy := core.OrderByClause(ordering, student.OrderingColumns, student.DefaultOrdering)
	q := `SELECT ` + studentColumns + ` FROM students WHERE school_id = $1 ORDER BY ` + orderBy + `, id`

	students := make([]student.Student, 0)
	if err := repo.db.SelectContext(ctx, &students, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "selecting students")
	}
	return students, nil
}

func (repo *StudentRepository) GetByID(ctx context.Context, schoolID, id string) (student.Student, error) {
	var s student.Student
	err := repo.db.GetContext(ctx, &s,
		`SELECT `+studentColumns+` FROM students WHERE school_id = $1 AND id = $2`, schoolID, id)
	return s, getOne(err, student.ErrNotFound, "selecting student")
}

func (repo *StudentRepository) GetByEmail(ctx context.Context, schoolID, email string) (student.Student, error) {
	if email == "" {
		return student.Student{}, student.ErrNotFound
	}
	var s student.Student
	err := repo.db.GetContext(ctx, &s,
		`SELECT `+studentColumns+` FROM students WHERE school_id = $1 AND LOWER(email) = LOWER($2)`, schoolID, email)
	return s, getOne(err, student.ErrNotFound, "selecting student by email")
}

func (repo *StudentRepository) Create(ctx context.Context, s student.Student) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO students (`+studentColumns+`) VALUES (
		:id, :school_id, :class_id, :user_id, :first_name, :last_name, :email, :phone, :registration_number,
		:created_at, :updated_at)`, s)
	if err != nil {
		if isUniqueViolation(err) {
			return student.ErrEmailExists
		}
		return errors.Wrap(err, "inserting student")
	}
	return nil
}

func (repo *StudentRepository) Update(ctx context.Context, s student.Student, fields ...student.Field) error {
	if len(fields) == 0 {
		fields = student.AllFields
	}
	sets := make([]string, 0, len(fields)+1)
	args := make([]interface{}, 0, len(fields)+3)
	for _, f := range fields {
		args = append(args, s.Value(f))
		sets = append(sets, f.Column()+" = $"+strconv.Itoa(len(args)))
	}
	args = append(args, s.UpdatedAt)
	sets = append(sets, "updated_at = $"+strconv.Itoa(len(args)))
	args = append(args, s.SchoolID, s.ID)

	q := `UPDATE students SET ` + strings.Join(sets, ", ") +
		` WHERE school_id = $` + strconv.Itoa(len(args)-1) + ` AND id = $` + strconv.Itoa(len(args))
	res, err := repo.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return student.ErrEmailExists
		}
		return errors.Wrap(err, "updating student")
	}
	return mustAffect(res, student.ErrNotFound)
}

func (repo *StudentRepository) LinkUser(ctx context.Context, schoolID, id, userID string) error {
	res, err := repo.db.ExecContext(ctx,
		`UPDATE students SET user_id = $1, updated_at = $2 WHERE school_id = $3 AND id = $4`,
		userID, core.NowUTC(), schoolID, id)
	if err != nil {
		return errors.Wrap(err, "linking student to user")
	}
	return mustAffect(res, student.ErrNotFound)
}

func (repo *StudentRepository) Delete(ctx context.Context, schoolID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM students WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return mustAffect(res, student.ErrNotFound)
}

type TeacherRepository struct {
	db *sqlx.DB
}

var _ teacher.Repository = (*TeacherRepository)(nil)

func (repo *TeacherRepository) List(ctx context.Context, schoolID string, ordering []core.DBOrdering) ([]teacher.Teacher, error) {
	orderBy := core.OrderByClause(ordering, teacher.OrderingColumns, teacher.DefaultOrdering)
	q := `SELECT ` + teacherColumns + ` FROM teachers WHERE school_id = $1 ORDER BY ` + orderBy + `, id`

	teachers := make([]teacher.Teacher, 0)
	if err := repo.db.SelectContext(ctx, &teachers, q, schoolID); err != nil {
		return nil, errors.Wrap(err, "selecting teachers")
	}
	return teachers, nil
}

func (repo *TeacherRepository) GetByID(ctx context.Context, schoolID, id string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := repo.db.GetContext(ctx, &t,
		`SELECT `+teacherColumns+` FROM teachers WHERE school_id = $1 AND id = $2`, schoolID, id)
	return t, getOne(err, teacher.ErrNotFound, "selecting teacher")
}

func (repo *TeacherRepository) GetByEmail(ctx context.Context, schoolID, email string) (teacher.Teacher, error) {
	var t teacher.Teacher
	err := repo.db.GetContext(ctx, &t,
		`SELECT `+teacherColumns+` FROM teachers WHERE school_id = $1 AND LOWER(email) = LOWER($2)`, schoolID, email)
	return t, getOne(err, teacher.ErrNotFound, "selecting teacher by email")
}

func (repo *TeacherRepository) Create(ctx context.Context, t teacher.Teacher) error {
	_, err := repo.db.NamedExecContext(ctx, `INSERT INTO teachers (`+teacherColumns+`) VALUES (
		:id, :school_id, :user_id, :first_name, :last_name, :email, :phone, :bio, :created_at, :updated_at)`, t)
	if err != nil {
		if isUniqueViolation(err) {
			return teacher.ErrEmailExists
		}
		return errors.Wrap(err, "inserting teacher")
	}
	return nil
}

func (repo *TeacherRepository) Update(ctx context.Context, t teacher.Teacher) error {
	res, err := repo.db.NamedExecContext(ctx, `UPDATE teachers SET
		first_name = :first_name, last_name = :last_name, phone = :phone, bio = :bio, updated_at = :updated_at
		WHERE school_id = :school_id AND id = :id`, t)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return mustAffect(res, teacher.ErrNotFound)
}

func (repo *TeacherRepository) Delete(ctx context.Context, schoolID, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM teachers WHERE school_id = $1 AND id = $2`, schoolID, id)
	if err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return mustAffect(res, teacher.ErrNotFound)
}
