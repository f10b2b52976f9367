package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/attendance"
	"github.com/trezcool/academia/core/auth"
)

type attendanceApi struct {
	svc *attendance.Service
}

type markRequest struct {
	Records []attendance.NewRecord `json:"records"`
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := attendanceApi{svc: acad.Attendance}
	staff := requireRole(auth.RoleAdmin, auth.RoleTeacher)

	ag := g.Group("/attendance", jwt)
	ag.POST("", api.mark, staff)
	ag.GET("/divisions/:id", api.queryDivision, staff)
	ag.GET("/students/:id", api.queryStudent)
	ag.GET("/students/:id/summary", api.summary)
}

// studentParam returns the student of the request; students may only look at themselves.
func studentParam(ctx echo.Context) (string, error) {
	studentID := ctx.Param("id")
	if id := contextIdentity(ctx); id.Role == auth.RoleStudent && id.ID != studentID {
		return "", errHttpForbidden
	}
	return studentID, nil
}

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data markRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	markedBy := contextIdentity(ctx).ID
	for i := range data.Records {
		data.Records[i].MarkedBy = markedBy
	}
	records, err := api.svc.Mark(ctx.Request().Context(), data.Records...)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) queryDivision(ctx echo.Context) error {
	date := ctx.QueryParam("date")
	if date == "" {
		date = core.Today()
	}
	records, err := api.svc.ListForDivision(ctx.Request().Context(), ctx.Param("id"), date)
	if err != nil {
		return errors.Wrap(err, "querying division attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) queryStudent(ctx echo.Context) error {
	studentID, err := studentParam(ctx)
	if err != nil {
		return err
	}
	records, err := api.svc.ListForStudent(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "querying student attendance")
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) summary(ctx echo.Context) error {
	studentID, err := studentParam(ctx)
	if err != nil {
		return err
	}
	sum, err := api.svc.Summary(ctx.Request().Context(), studentID)
	if err != nil {
		return errors.Wrap(err, "summarizing attendance")
	}
	return ctx.JSON(http.StatusOK, sum)
}
