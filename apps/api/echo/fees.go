package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/fee"
)

type feeApi struct {
	acad *academy.Academy
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := feeApi{acad: acad}
	admin := requireRole(auth.RoleAdmin)

	fg := g.Group("/fees", jwt)
	fg.GET("", api.query, requireRole(auth.RoleAdmin, auth.RoleStudent))
	fg.POST("", api.submit, requireRole(auth.RoleStudent))
	fg.GET("/:id", api.retrieve, admin)
	fg.POST("/:id/approve", api.approve, admin)
	fg.POST("/:id/reject", api.reject, admin)
}

// submit records the fee payment of the logged in student.
func (api *feeApi) submit(ctx echo.Context) error {
	var data fee.NewSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := contextIdentity(ctx)
	data.StudentID = id.ID
	if data.StudentName == "" {
		data.StudentName = id.Name
	}
	sub, err := api.acad.Fees.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting fees")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

// query lists fee submissions; students only see their own.
func (api *feeApi) query(ctx echo.Context) error {
	var filter fee.Filter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	if id := contextIdentity(ctx); id.Role == auth.RoleStudent {
		filter.StudentID = id.ID
	}
	subs, err := api.acad.Fees.List(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying fee submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	sub, found, err := api.acad.Fees.Get(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, sub, found, err)
}

func (api *feeApi) approve(ctx echo.Context) error {
	sub, found, err := api.acad.Fees.Approve(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, sub, found, err)
}

func (api *feeApi) reject(ctx echo.Context) error {
	sub, found, err := api.acad.Fees.Reject(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, sub, found, err)
}
