package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
)

type authApi struct {
	iss  *jwtIssuer
	acad *academy.Academy
}

type (
	loginRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	tokenResponse struct {
		Token    string        `json:"token"`
		Identity auth.Identity `json:"identity"`
	}
)

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, iss *jwtIssuer, acad *academy.Academy) {
	api := authApi{iss: iss, acad: acad}

	ag := g.Group("/auth")

	// un-authed endpoints
	ag.POST("/login", api.login)

	// authed endpoints
	ag.GET("/me", api.me, jwt)
	ag.GET("/profile", api.profile, jwt)
	ag.POST("/token-refresh", api.refreshToken, jwt)
	ag.PUT("/password", api.changePassword, jwt, requireRole(auth.RoleTeacher, auth.RoleStudent))
}

func (api *authApi) login(ctx echo.Context) error {
	var data loginRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id, err := api.acad.Auth.Login(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "login")
	}
	if id == nil {
		return errAuthenticationFailed
	}
	token, err := api.iss.GenerateToken(api.iss.Claims(*id))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token, Identity: *id})
}

func (api *authApi) me(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, contextIdentity(ctx))
}

// profile returns the account behind the session.
func (api *authApi) profile(ctx echo.Context) error {
	id := contextIdentity(ctx)
	rctx := ctx.Request().Context()

	switch id.Role {
	case auth.RoleStudent:
		s, found, err := api.acad.Students.Get(rctx, id.ID)
		if err != nil {
			return err
		}
		if !found {
			return errHttpNotFound
		}
		return ctx.JSON(http.StatusOK, s)
	case auth.RoleTeacher:
		t, found, err := api.acad.Teachers.Get(rctx, id.ID)
		if err != nil {
			return err
		}
		if !found {
			return errHttpNotFound
		}
		return ctx.JSON(http.StatusOK, t)
	}
	return ctx.JSON(http.StatusOK, id)
}

func (api *authApi) refreshToken(ctx echo.Context) error {
	token, id, err := api.iss.refreshToken(ctx, api.acad.Auth)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, tokenResponse{Token: token, Identity: id})
}

func (api *authApi) changePassword(ctx echo.Context) error {
	var data account.PasswordChange
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := contextIdentity(ctx)
	rctx := ctx.Request().Context()

	var found bool
	var err error
	if id.Role == auth.RoleStudent {
		found, err = api.acad.Students.ChangePassword(rctx, id.ID, data)
	} else {
		found, err = api.acad.Teachers.ChangePassword(rctx, id.ID, data)
	}
	if err != nil {
		return err
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.NoContent(http.StatusNoContent)
}
