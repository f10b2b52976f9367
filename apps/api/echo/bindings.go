package echoapi

import (
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/strmangle"

	"github.com/trezcool/academia/core"
)

const orderingParam = "ordering"

// Ordering binds `?ordering=name,-createdAt` to storage orderings.
// Fields are given in camelCase and must be in the allowed set (camelCase too).
type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}
	allowedSet := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		allowedSet[f] = true
	}
	ord.Orderings = core.ParseOrdering(val, func(field string) (string, bool) {
		if !allowedSet[field] {
			return "", false
		}
		return strmangle.SnakeCase(field), true
	})
}

// bind binds the request into data, wrapping binding failures in a 400.
func bind(ctx echo.Context, data interface{}) error {
	if err := ctx.Bind(data); err != nil {
		if _, ok := err.(*echo.HTTPError); ok {
			return err
		}
		return echo.NewHTTPError(400, errors.Wrap(err, "binding request").Error())
	}
	return nil
}

// floatParam parses a query parameter as a float, 0 when missing.
func floatParam(ctx echo.Context, name string) (float64, error) {
	val := ctx.QueryParam(name)
	if val == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, core.NewFieldError(name, "enter a valid number")
	}
	return f, nil
}

// render sends v, or the error of the lookup that produced it.
func render(ctx echo.Context, code int, v interface{}, found bool, err error) error {
	if err != nil {
		return err
	}
	if !found {
		return errHttpNotFound
	}
	return ctx.JSON(code, v)
}
