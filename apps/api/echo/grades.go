package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/grade"
)

type gradeApi struct {
	acad *academy.Academy
}

func registerGradeAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := gradeApi{acad: acad}
	admin := requireRole(auth.RoleAdmin)

	gg := g.Group("/grades", jwt)
	gg.GET("", api.query)
	gg.POST("", api.create, admin)
	gg.GET("/:id", api.retrieve)
	gg.DELETE("/:id", api.destroy, admin)
	gg.GET("/:id/subdivisions", api.querySubdivisions)
	gg.POST("/:id/subdivisions", api.addSubdivision, admin)

	sg := g.Group("/subdivisions/:id", jwt)
	sg.DELETE("", api.destroySubdivision, admin)
	sg.GET("/live", api.liveStatus)
	sg.GET("/live/join", api.joinLive)
	sg.POST("/live/start", api.startLive, requireRole(auth.RoleAdmin, auth.RoleTeacher))
	sg.POST("/live/stop", api.stopLive, requireRole(auth.RoleAdmin, auth.RoleTeacher))
}

func (api *gradeApi) create(ctx echo.Context) error {
	var data grade.NewGrade
	if err := bind(ctx, &data); err != nil {
		return err
	}
	grd, err := api.acad.Grades.CreateGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating grade")
	}
	return ctx.JSON(http.StatusCreated, grd)
}

func (api *gradeApi) query(ctx echo.Context) error {
	withSubdivisions := ctx.QueryParam("withSubdivisions") == "true"
	grades, err := api.acad.Grades.ListGrades(ctx.Request().Context(), withSubdivisions)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *gradeApi) retrieve(ctx echo.Context) error {
	grd, found, err := api.acad.Grades.GetGrade(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, grd, found, err)
}

func (api *gradeApi) destroy(ctx echo.Context) error {
	if err := api.acad.Grades.DeleteGrade(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting grade")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradeApi) querySubdivisions(ctx echo.Context) error {
	subs, err := api.acad.Grades.ListSubdivisions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying subdivisions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *gradeApi) addSubdivision(ctx echo.Context) error {
	var data grade.NewSubdivision
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, found, err := api.acad.Grades.AddSubdivision(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusCreated, sub, found, err)
}

func (api *gradeApi) destroySubdivision(ctx echo.Context) error {
	if err := api.acad.Grades.DeleteSubdivision(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting subdivision")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Live classes

func (api *gradeApi) liveStatus(ctx echo.Context) error {
	status, found, err := api.acad.Grades.LiveStatus(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, status, found, err)
}

func (api *gradeApi) joinLive(ctx echo.Context) error {
	id := contextIdentity(ctx)
	if id.Role == auth.RoleStudent && id.SubdivisionID != ctx.Param("id") {
		return errHttpForbidden
	}
	info, found, err := api.acad.Grades.JoinInfo(ctx.Request().Context(), ctx.Param("id"), id.Name)
	return render(ctx, http.StatusOK, info, found, err)
}

// canBroadcast reports whether the session may start or stop the live class of the subdivision.
func canBroadcast(id auth.Identity, subdivisionID string) bool {
	return id.Role == auth.RoleAdmin || (id.Role == auth.RoleTeacher && id.SubdivisionID == subdivisionID)
}

func (api *gradeApi) startLive(ctx echo.Context) error {
	if !canBroadcast(contextIdentity(ctx), ctx.Param("id")) {
		return errHttpForbidden
	}
	sub, found, err := api.acad.Grades.StartBroadcast(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, sub, found, err)
}

func (api *gradeApi) stopLive(ctx echo.Context) error {
	if !canBroadcast(contextIdentity(ctx), ctx.Param("id")) {
		return errHttpForbidden
	}
	sub, found, err := api.acad.Grades.StopBroadcast(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, sub, found, err)
}
