package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
	"github.com/trezcool/semillero/core/session"
)

var errInvalidStatus = errors.New("unknown submission status")

type classroomApi struct {
	service *classroom.Service
}

func registerClassroomAPI(g *echo.Group, svc *classroom.Service) {
	api := classroomApi{service: svc}
	staff := roleMiddleware(classroom.RoleTeacher, classroom.RoleCoordinator)

	g.GET("/courses", api.courses)
	g.GET("/courses/:courseId/coursework", api.courseWork)
	g.GET("/courses/:courseId/students", api.students, staff)
	g.GET("/courses/:courseId/coursework/:courseWorkId/submissions", api.workSubmissions)
	g.GET("/progress/:courseId", api.progress)
	g.GET("/progress/:courseId/:studentId", api.progress)
	g.GET("/submissions", api.submissions)
	g.GET("/metrics", api.metrics, roleMiddleware(classroom.RoleCoordinator))
	g.GET("/dashboard", api.dashboard)
}

// Handlers

func (api *classroomApi) courses(ctx echo.Context) error {
	sess, gw, err := contextSessionGateway(ctx)
	if err != nil {
		return err
	}
	courses, err := api.service.Courses(ctx.Request().Context(), gw, sess.Role)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *classroomApi) courseWork(ctx echo.Context) error {
	gw, err := getContextGateway(ctx)
	if err != nil {
		return err
	}
	work, err := gw.ListCourseWork(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing coursework")
	}
	return ctx.JSON(http.StatusOK, nonNil(work))
}

func (api *classroomApi) students(ctx echo.Context) error {
	gw, err := getContextGateway(ctx)
	if err != nil {
		return err
	}
	students, err := gw.ListStudents(ctx.Request().Context(), ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	return ctx.JSON(http.StatusOK, nonNil(students))
}

func (api *classroomApi) workSubmissions(ctx echo.Context) error {
	gw, err := getContextGateway(ctx)
	if err != nil {
		return err
	}
	subs, err := gw.ListSubmissions(ctx.Request().Context(), ctx.Param("courseId"), ctx.Param("courseWorkId"))
	if err != nil {
		return errors.Wrap(err, "listing submissions")
	}
	return ctx.JSON(http.StatusOK, nonNil(subs))
}

// progress defaults to the caller's own progress; students may not look at anyone else's.
func (api *classroomApi) progress(ctx echo.Context) error {
	sess, gw, err := contextSessionGateway(ctx)
	if err != nil {
		return err
	}
	studentID := ctx.Param("studentId")
	if studentID == "" {
		studentID = sess.UserID
	}
	if sess.Role == classroom.RoleStudent && studentID != sess.UserID {
		return errOthersProgress
	}

	progress, err := api.service.StudentProgress(ctx.Request().Context(), gw, ctx.Param("courseId"), studentID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, progress)
}

func (api *classroomApi) submissions(ctx echo.Context) error {
	var filter classroom.SubmissionFilter
	if err := ctx.Bind(&filter); err != nil {
		return err
	}
	filter.CourseID = core.CleanString(filter.CourseID)
	filter.TeacherEmail = core.CleanString(filter.TeacherEmail, true)
	if filter.Status != "" && !filter.Status.Valid() {
		return core.NewValidationError(nil, core.FieldError{Field: "status", Error: errInvalidStatus.Error()})
	}

	sess, gw, err := contextSessionGateway(ctx)
	if err != nil {
		return err
	}
	records, err := api.service.Submissions(ctx.Request().Context(), gw, sess.Viewer(), filter)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *classroomApi) metrics(ctx echo.Context) error {
	gw, err := getContextGateway(ctx)
	if err != nil {
		return err
	}
	metrics, err := api.service.GlobalMetrics(ctx.Request().Context(), gw)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, metrics)
}

func (api *classroomApi) dashboard(ctx echo.Context) error {
	sess, gw, err := contextSessionGateway(ctx)
	if err != nil {
		return err
	}
	dash, err := api.service.Dashboard(ctx.Request().Context(), gw, sess.Viewer())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}

func contextSessionGateway(ctx echo.Context) (sess session.Session, gw classroom.Gateway, err error) {
	if sess, err = getContextSession(ctx); err != nil {
		return
	}
	gw, err = getContextGateway(ctx)
	return
}

// nonNil keeps empty listings encoded as [] rather than null.
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
