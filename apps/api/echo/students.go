package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/student"
)

type studentApi struct {
	acad *academy.Academy
}

type statusRequest struct {
	Status string `json:"status"`
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := studentApi{acad: acad}

	sg := g.Group("/students", jwt)
	sg.GET("", api.query, requireRole(auth.RoleAdmin, auth.RoleTeacher))
	sg.POST("", api.create, requireRole(auth.RoleAdmin))

	// detail endpoints
	dg := sg.Group("/:id", requireRole(auth.RoleAdmin))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
	dg.DELETE("", api.destroy)
	dg.PUT("/status", api.setStatus)
	dg.PUT("/fees-status", api.setFeesStatus)
	dg.POST("/reset-password", api.resetPassword)
}

func (api *studentApi) create(ctx echo.Context) error {
	var data student.NewStudent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	std, err := api.acad.Students.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

// query lists students; teachers only see the students of their class.
func (api *studentApi) query(ctx echo.Context) error {
	var filter student.Filter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx, student.OrderableFields...)
	filter.OrderBy = ordering.Orderings

	if id := contextIdentity(ctx); id.Role == auth.RoleTeacher {
		if id.GradeID == "" {
			return ctx.JSON(http.StatusOK, []student.Student{})
		}
		filter.GradeID = id.GradeID
		if id.SubdivisionID != "" {
			filter.SubdivisionID = id.SubdivisionID
		}
	}

	students, err := api.acad.Students.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	std, found, err := api.acad.Students.Get(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, std, found, err)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data student.UpdateStudent
	if err := bind(ctx, &data); err != nil {
		return err
	}
	std, found, err := api.acad.Students.Update(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusOK, std, found, err)
}

func (api *studentApi) setStatus(ctx echo.Context) error {
	var data statusRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	std, found, err := api.acad.Students.SetStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	return render(ctx, http.StatusOK, std, found, err)
}

func (api *studentApi) setFeesStatus(ctx echo.Context) error {
	var data statusRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	std, found, err := api.acad.Students.SetFeesStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	return render(ctx, http.StatusOK, std, found, err)
}

func (api *studentApi) resetPassword(ctx echo.Context) error {
	var data account.PasswordReset
	if err := bind(ctx, &data); err != nil {
		return err
	}
	std, found, err := api.acad.Students.ResetPassword(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusOK, std, found, err)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	if err := api.acad.Students.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
