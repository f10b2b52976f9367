package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/shop"
)

type shopApi struct {
	acad *academy.Academy
}

type (
	quoteRequest struct {
		FinalPrice float64 `json:"finalPrice"`
	}

	paymentRequest struct {
		TransactionRef string `json:"transactionRef"`
	}
)

func registerShopAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := shopApi{acad: acad}
	admin := requireRole(auth.RoleAdmin)
	std := requireRole(auth.RoleStudent)

	pg := g.Group("/products", jwt)
	pg.GET("", api.queryProducts)
	pg.POST("", api.createProduct, admin)
	pg.GET("/:id", api.retrieveProduct)
	pg.PUT("/:id", api.updateProduct, admin)
	pg.DELETE("/:id", api.destroyProduct, admin)

	og := g.Group("/orders", jwt)
	og.GET("", api.queryOrders, requireRole(auth.RoleAdmin, auth.RoleStudent))
	og.POST("", api.requestQuote, std)
	og.GET("/:id", api.retrieveOrder, requireRole(auth.RoleAdmin, auth.RoleStudent))
	og.PUT("/:id/quote", api.setQuote, admin)
	og.PUT("/:id/status", api.updateStatus, admin)
	og.POST("/:id/payment", api.submitPayment, std)
}

// Products

func (api *shopApi) createProduct(ctx echo.Context) error {
	var data shop.NewProduct
	if err := bind(ctx, &data); err != nil {
		return err
	}
	prod, err := api.acad.Shop.CreateProduct(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating product")
	}
	return ctx.JSON(http.StatusCreated, prod)
}

func (api *shopApi) queryProducts(ctx echo.Context) error {
	prods, err := api.acad.Shop.ListProducts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying products")
	}
	return ctx.JSON(http.StatusOK, prods)
}

func (api *shopApi) retrieveProduct(ctx echo.Context) error {
	prod, found, err := api.acad.Shop.GetProduct(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, prod, found, err)
}

func (api *shopApi) updateProduct(ctx echo.Context) error {
	var data shop.UpdateProduct
	if err := bind(ctx, &data); err != nil {
		return err
	}
	prod, found, err := api.acad.Shop.UpdateProduct(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusOK, prod, found, err)
}

func (api *shopApi) destroyProduct(ctx echo.Context) error {
	if err := api.acad.Shop.DeleteProduct(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting product")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Orders

func (api *shopApi) requestQuote(ctx echo.Context) error {
	var data shop.NewOrder
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.StudentID = contextIdentity(ctx).ID
	ord, err := api.acad.Shop.RequestQuote(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "requesting quote")
	}
	return ctx.JSON(http.StatusCreated, ord)
}

// queryOrders lists orders; students only see their own.
func (api *shopApi) queryOrders(ctx echo.Context) error {
	var filter shop.OrderFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	if id := contextIdentity(ctx); id.Role == auth.RoleStudent {
		filter.StudentID = id.ID
	}
	orders, err := api.acad.Shop.ListOrders(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying orders")
	}
	return ctx.JSON(http.StatusOK, orders)
}

func (api *shopApi) retrieveOrder(ctx echo.Context) error {
	ord, found, err := api.acad.Shop.GetOrder(ctx.Request().Context(), ctx.Param("id"))
	if id := contextIdentity(ctx); found && id.Role == auth.RoleStudent && ord.StudentID != id.ID {
		found = false
	}
	return render(ctx, http.StatusOK, ord, found, err)
}

func (api *shopApi) setQuote(ctx echo.Context) error {
	var data quoteRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	ord, found, err := api.acad.Shop.SetQuote(ctx.Request().Context(), ctx.Param("id"), data.FinalPrice)
	return render(ctx, http.StatusOK, ord, found, err)
}

func (api *shopApi) updateStatus(ctx echo.Context) error {
	var data statusRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	ord, found, err := api.acad.Shop.UpdateStatus(ctx.Request().Context(), ctx.Param("id"), data.Status)
	return render(ctx, http.StatusOK, ord, found, err)
}

func (api *shopApi) submitPayment(ctx echo.Context) error {
	var data paymentRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	ord, found, err := api.acad.Shop.SubmitPayment(
		ctx.Request().Context(), ctx.Param("id"), contextIdentity(ctx).ID, data.TransactionRef,
	)
	return render(ctx, http.StatusOK, ord, found, err)
}
