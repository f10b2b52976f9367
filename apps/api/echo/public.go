package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/enquiry"
	"github.com/trezcool/academia/core/fee"
)

const qrCodeSize = 256

type publicApi struct {
	acad *academy.Academy
}

// registerPublicAPI registers the un-authed endpoints of the landing page.
func registerPublicAPI(g *echo.Group, acad *academy.Academy) {
	api := publicApi{acad: acad}

	pg := g.Group("/public")
	pg.GET("/notices/ticker", api.ticker)
	pg.GET("/grades", api.grades)
	pg.GET("/products", api.products)
	pg.GET("/payment-options", api.paymentOptions)
	pg.GET("/payment-qr", api.paymentQR)
	pg.POST("/enquiries", api.submitEnquiry)
	pg.POST("/fees", api.submitFees)
}

func (api *publicApi) ticker(ctx echo.Context) error {
	notices, err := api.acad.Notices.Ticker(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying ticker")
	}
	return ctx.JSON(http.StatusOK, notices)
}

func (api *publicApi) grades(ctx echo.Context) error {
	grades, err := api.acad.Grades.ListGrades(ctx.Request().Context(), true)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return ctx.JSON(http.StatusOK, grades)
}

func (api *publicApi) products(ctx echo.Context) error {
	prods, err := api.acad.Shop.ListProducts(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying products")
	}
	return ctx.JSON(http.StatusOK, prods)
}

func (api *publicApi) paymentOptions(ctx echo.Context) error {
	gateways, err := api.acad.Settings.EnabledGateways(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying payment options")
	}
	return ctx.JSON(http.StatusOK, gateways)
}

// paymentQR renders the UPI payment URI of `?amount=&note=` as a PNG QR code.
func (api *publicApi) paymentQR(ctx echo.Context) error {
	amount, err := floatParam(ctx, "amount")
	if err != nil {
		return err
	}
	uri, err := api.acad.Settings.PaymentURI(ctx.Request().Context(), amount, ctx.QueryParam("note"))
	if err != nil {
		return err
	}
	png, err := qrcode.Encode(uri, qrcode.Medium, qrCodeSize)
	if err != nil {
		return errors.Wrap(err, "encoding payment QR code")
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *publicApi) submitEnquiry(ctx echo.Context) error {
	var data enquiry.NewEnquiry
	if err := bind(ctx, &data); err != nil {
		return err
	}
	enq, err := api.acad.Enquiries.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting enquiry")
	}
	return ctx.JSON(http.StatusCreated, enq)
}

// submitFees records a guest payment, not tied to a student account.
func (api *publicApi) submitFees(ctx echo.Context) error {
	var data fee.NewSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	sub, err := api.acad.Fees.Submit(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting fees")
	}
	return ctx.JSON(http.StatusCreated, sub)
}
