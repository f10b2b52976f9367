package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/teacher"
)

type teacherApi struct {
	acad *academy.Academy
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := teacherApi{acad: acad}

	tg := g.Group("/teachers", jwt)
	// students pick the addressee of their queries from the list
	tg.GET("", api.query)
	tg.POST("", api.create, requireRole(auth.RoleAdmin))

	// detail endpoints
	dg := tg.Group("/:id", requireRole(auth.RoleAdmin))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PUT("/status", api.setStatus)
	dg.POST("/reset-password", api.resetPassword)
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data teacher.NewTeacher
	if err := bind(ctx, &data); err != nil {
		return err
	}
	tch, err := api.acad.Teachers.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating teacher")
	}
	return ctx.JSON(http.StatusCreated, tch)
}

// query lists teachers; non-admins only see the active ones.
func (api *teacherApi) query(ctx echo.Context) error {
	var filter teacher.Filter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, teacher.OrderableFields...)
	filter.OrderBy = ordering.Orderings

	if contextIdentity(ctx).Role != auth.RoleAdmin {
		filter.Status = account.StatusActive
	}

	teachers, err := api.acad.Teachers.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying teachers")
	}
	return ctx.JSON(http.StatusOK, teachers)
}

func (api *teacherApi) retrieve(ctx echo.Context) error {
	tch, found, err := api.acad.Teachers.Get(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, tch, found, err)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data teacher.UpdateTeacher
	if err := bind(ctx, &data); err != nil {
		return err
	}
	tch, found, err := api.acad.Teachers.Update(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusOK, tch, found, err)
}

func (api *teacherApi) setStatus(ctx echo.Context) error {
	var data statusRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	tch, found, err := api.acad.Teachers.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	return render(ctx, http.StatusOK, tch, found, err)
}

func (api *teacherApi) resetPassword(ctx echo.Context) error {
	var data account.PasswordReset
	if err := bind(ctx, &data); err != nil {
		return err
	}
	tch, found, err := api.acad.Teachers.ResetPassword(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusOK, tch, found, err)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.acad.Teachers.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}
