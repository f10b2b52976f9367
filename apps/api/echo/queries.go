package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/query"
)

type queryApi struct {
	svc *query.Service
}

func registerQueryAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := queryApi{svc: acad.Queries}

	qg := g.Group("/queries", jwt)
	qg.GET("", api.query)
	qg.POST("", api.ask, requireRole(auth.RoleStudent))
	qg.GET("/:id", api.retrieve)
	qg.PUT("/:id/answer", api.answer, requireRole(auth.RoleAdmin, auth.RoleTeacher))
}

func (api *queryApi) ask(ctx echo.Context) error {
	var data query.NewQuery
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := contextIdentity(ctx)
	data.StudentID = id.ID
	data.StudentName = id.Name
	q, err := api.svc.Ask(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "asking query")
	}
	return ctx.JSON(http.StatusCreated, q)
}

// query lists the queries of the session: asked by a student, addressed to a teacher, or all for the admin.
func (api *queryApi) query(ctx echo.Context) error {
	id := contextIdentity(ctx)
	rctx := ctx.Request().Context()

	var queries []query.Query
	var err error
	switch id.Role {
	case auth.RoleStudent:
		queries, err = api.svc.ListForStudent(rctx, id.ID)
	case auth.RoleTeacher:
		queries, err = api.svc.ListForTeacher(rctx, id.ID)
	default:
		queries, err = api.svc.ListAll(rctx, ctx.QueryParam("status"))
	}
	if err != nil {
		return errors.Wrap(err, "querying queries")
	}
	return ctx.JSON(http.StatusOK, queries)
}

func (api *queryApi) retrieve(ctx echo.Context) error {
	q, found, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	id := contextIdentity(ctx)
	if found && ((id.Role == auth.RoleStudent && q.StudentID != id.ID) || (id.Role == auth.RoleTeacher && q.TeacherID != id.ID)) {
		found = false
	}
	return render(ctx, http.StatusOK, q, found, err)
}

func (api *queryApi) answer(ctx echo.Context) error {
	var data query.Reply
	if err := bind(ctx, &data); err != nil {
		return err
	}
	var teacherID string
	if id := contextIdentity(ctx); id.Role == auth.RoleTeacher {
		teacherID = id.ID
	}
	q, found, err := api.svc.Answer(ctx.Request().Context(), ctx.Param("id"), teacherID, data)
	return render(ctx, http.StatusOK, q, found, err)
}
