package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/notice"
)

type noticeApi struct {
	acad *academy.Academy
}

func registerNoticeAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := noticeApi{acad: acad}

	ng := g.Group("/notices", jwt)
	ng.GET("", api.query)
	ng.POST("", api.create, requireRole(auth.RoleAdmin))
	ng.DELETE("/:id", api.destroy, requireRole(auth.RoleAdmin))
}

func (api *noticeApi) create(ctx echo.Context) error {
	var data notice.NewNotice
	if err := bind(ctx, &data); err != nil {
		return err
	}
	n, err := api.acad.Notices.Create(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating notice")
	}
	return ctx.JSON(http.StatusCreated, n)
}

func (api *noticeApi) query(ctx echo.Context) error {
	notices, err := api.acad.Notices.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying notices")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *noticeApi) destroy(ctx echo.Context) error {
	if err := api.acad.Notices.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting notice")
	}
	return ctx.NoContent(http.StatusNoContent)
}
