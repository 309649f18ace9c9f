package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/teacher"
)

type schoolApi struct {
	svc        *school.Service
	teacherSvc *teacher.Service
	validate   *validator.Validate
}

func registerSchoolAPI(g *echo.Group, schoolOnly []echo.MiddlewareFunc, deps ServerDeps) {
	api := schoolApi{svc: deps.SchoolSvc, teacherSvc: deps.TeacherSvc, validate: deps.Validate}

	sg := g.Group("/school", schoolOnly...)
	sg.GET("", api.retrieve)
	sg.PUT("", api.update)
	sg.GET("/stats", api.stats)

	cg := g.Group("/classes", schoolOnly...)
	cg.GET("", api.queryClasses)
	cg.POST("", api.createClass)
	cg.GET("/:id", api.retrieveClass)
	cg.PUT("/:id", api.updateClass)
	cg.DELETE("/:id", api.destroyClass)

	subg := g.Group("/subjects", schoolOnly...)
	subg.GET("", api.querySubjects)
	subg.POST("", api.createSubject)
	subg.PUT("/:id", api.updateSubject)
	subg.DELETE("/:id", api.destroySubject)

	crg := g.Group("/courses", schoolOnly...)
	crg.GET("", api.queryCourses)
	crg.POST("", api.createCourse)
	crg.PUT("/:id", api.updateCourse)
	crg.DELETE("/:id", api.destroyCourse)

	// teachers are created through `/teachers/accounts`
	tg := g.Group("/teachers", schoolOnly...)
	tg.GET("", api.queryTeachers)
	tg.GET("/:id", api.retrieveTeacher)
	tg.PUT("/:id", api.updateTeacher)
	tg.DELETE("/:id", api.destroyTeacher)
	tg.GET("/:id/subjects", api.teacherSubjects)
	tg.PUT("/:id/subjects", api.assignSubjects)
}

// School

func (api *schoolApi) retrieve(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.Details
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to school Details")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	sch, err = api.svc.Update(ctx.Request().Context(), sch, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) stats(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	stats, err := api.svc.Stats(ctx.Request().Context(), sch.ID)
	if err != nil {
		return errors.Wrap(err, "counting school stats")
	}
	return ctx.JSON(http.StatusOK, stats)
}

// Classes

func (api *schoolApi) queryClasses(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, school.NameOrderingColumns)

	classes, err := api.svc.ListClasses(ctx.Request().Context(), sch.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying classes")
	}
	if classes == nil {
		classes = []school.Class{}
	}
	return ctx.JSON(http.StatusOK, classes)
}

func (api *schoolApi) createClass(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.ClassForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateClass(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) retrieveClass(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	c, err := api.svc.GetClass(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) updateClass(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.ClassForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ClassForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateClass(ctx.Request().Context(), sch.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyClass(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteClass(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Subjects

func (api *schoolApi) querySubjects(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, school.NameOrderingColumns)

	subjects, err := api.svc.ListSubjects(ctx.Request().Context(), sch.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying subjects")
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) createSubject(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.SubjectForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.CreateSubject(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *schoolApi) updateSubject(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.SubjectForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	s, err := api.svc.UpdateSubject(ctx.Request().Context(), sch.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *schoolApi) destroySubject(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteSubject(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Courses

func (api *schoolApi) queryCourses(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, school.NameOrderingColumns)

	courses, err := api.svc.ListCourses(ctx.Request().Context(), sch.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []school.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *schoolApi) createCourse(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.CourseForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.CreateCourse(ctx.Request().Context(), sch.ID, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *schoolApi) updateCourse(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.CourseForm
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CourseForm")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.UpdateCourse(ctx.Request().Context(), sch.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *schoolApi) destroyCourse(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.DeleteCourse(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Teachers

func (api *schoolApi) queryTeachers(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, teacher.OrderingColumns)

	teachers, err := api.teacherSvc.List(ctx.Request().Context(), sch.ID, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	if teachers == nil {
		teachers = []teacher.Teacher{}
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *schoolApi) retrieveTeacher(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	t, err := api.teacherSvc.GetByID(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *schoolApi) updateTeacher(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data teacher.UpdateTeacher
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateTeacher")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	t, err := api.teacherSvc.Update(ctx.Request().Context(), sch.ID, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *schoolApi) destroyTeacher(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	if err = api.teacherSvc.Delete(ctx.Request().Context(), sch.ID, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) teacherSubjects(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	subjects, err := api.svc.TeacherSubjects(ctx.Request().Context(), sch.ID, ctx.Param("id"))
	if err != nil {
		return err
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}

func (api *schoolApi) assignSubjects(ctx echo.Context) error {
	sch, err := getContextSchool(ctx)
	if err != nil {
		return err
	}
	var data school.SubjectAssignment
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubjectAssignment")
	}
	if err = data.Validate(api.validate); err != nil {
		return err
	}

	subjects, err := api.svc.AssignSubjects(ctx.Request().Context(), sch.ID, ctx.Param("id"), data.SubjectIDs)
	if err != nil {
		return err
	}
	if subjects == nil {
		subjects = []school.Subject{}
	}
	return ctx.JSON(http.StatusOK, subjects)
}
