package echoapi

import (
	"io/ioutil"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/settings"
)

type adminApi struct {
	acad *academy.Academy
}

func registerAdminAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := adminApi{acad: acad}

	ag := g.Group("/admin", jwt, requireRole(auth.RoleAdmin))
	ag.GET("/stats", api.stats)
	ag.GET("/settings", api.retrieveSettings)
	ag.PUT("/settings", api.saveSettings)
	ag.GET("/enquiries", api.queryEnquiries)
	ag.DELETE("/enquiries/:id", api.destroyEnquiry)
}

func (api *adminApi) stats(ctx echo.Context) error {
	st, err := api.acad.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing stats")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *adminApi) retrieveSettings(ctx echo.Context) error {
	s, err := api.acad.Settings.Get(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "getting settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

// saveSettings replaces the payment gateways; unknown gateway kinds or fields are rejected.
func (api *adminApi) saveSettings(ctx echo.Context) error {
	body, err := ioutil.ReadAll(ctx.Request().Body)
	if err != nil {
		return errors.Wrap(err, "reading settings")
	}
	gateways, err := settings.DecodeGateways(body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, errors.Cause(err).Error())
	}
	s, err := api.acad.Settings.Save(ctx.Request().Context(), gateways)
	if err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *adminApi) queryEnquiries(ctx echo.Context) error {
	enquiries, err := api.acad.Enquiries.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying enquiries")
	}
	return ctx.JSON(http.StatusOK, enquiries)
}

func (api *adminApi) destroyEnquiry(ctx echo.Context) error {
	if err := api.acad.Enquiries.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting enquiry")
	}
	return ctx.NoContent(http.StatusNoContent)
}
