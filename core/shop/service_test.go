package shop

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/tests"
)

func setup(t *testing.T) (*Service, Product) {
	db, _ := testutil.NewStore()
	svc := NewService(db, testutil.NewValidator())
	prd, err := svc.CreateProduct(context.Background(), NewProduct{
		Name: "Academy hoodie", BasePrice: 1200, ImageURL: "https://cdn.localhost/hoodie.png", Customizable: true,
	})
	require.NoError(t, err)
	return svc, prd
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to string
		want     bool
	}{
		{StatusPending, StatusAwaitingPayment, true},
		{StatusPending, StatusProcessing, false},
		{StatusAwaitingPayment, StatusPaymentUnderVerification, true},
		{StatusPaymentUnderVerification, StatusProcessing, true},
		{StatusProcessing, StatusCompleted, true},
		{StatusProcessing, StatusPending, false},
		{StatusPaymentUnderVerification, StatusRejected, true},
		{StatusCompleted, StatusRejected, false},
		{StatusRejected, StatusPending, false},
		{"Shipped", StatusCompleted, false},
	}
	for _, tt := range tests {
		t.Run(tt.from+"->"+tt.to, func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
	assert.True(t, IsOpen(StatusProcessing))
	assert.False(t, IsOpen(StatusCompleted))
}

func TestService_Products(t *testing.T) {
	svc, prd := setup(t)
	ctx := context.Background()

	price := 1500.0
	updated, found, err := svc.UpdateProduct(ctx, prd.ID, UpdateProduct{BasePrice: &price})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 1500.0, updated.BasePrice)
	assert.Equal(t, prd.Name, updated.Name)

	_, err = svc.CreateProduct(ctx, NewProduct{Name: "Mug", ImageURL: "not a url"})
	assert.Error(t, err)

	products, err := svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Product{updated}, products)

	require.NoError(t, svc.DeleteProduct(ctx, prd.ID))
	products, err = svc.ListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestService_OrderProgression(t *testing.T) {
	svc, prd := setup(t)
	ctx := context.Background()

	ord, err := svc.RequestQuote(ctx, NewOrder{StudentID: "st1", ProductID: prd.ID, CustomName: "AARAV", ChangeRequest: "navy blue"})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, ord.Status)
	assert.False(t, ord.FinalPrice.Valid)

	_, err = svc.RequestQuote(ctx, NewOrder{StudentID: "st1", ProductID: "missing"})
	assert.True(t, core.IsValidationError(err))

	_, _, err = svc.SubmitPayment(ctx, ord.ID, "st1", "UPI-1")
	assert.True(t, core.IsValidationError(err), "cannot pay before the quote")
	_, _, err = svc.UpdateStatus(ctx, ord.ID, StatusAwaitingPayment)
	assert.True(t, core.IsValidationError(err), "must be priced first")

	ord, found, err := svc.SetQuote(ctx, ord.ID, 1350)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StatusAwaitingPayment, ord.Status)
	assert.Equal(t, null.Float64From(1350), ord.FinalPrice)

	_, found, err = svc.SubmitPayment(ctx, ord.ID, "st2", "UPI-1")
	assert.NoError(t, err)
	assert.False(t, found, "orders of other students are hidden")

	ord, _, err = svc.SubmitPayment(ctx, ord.ID, "st1", " UPI-98765 ")
	require.NoError(t, err)
	assert.Equal(t, StatusPaymentUnderVerification, ord.Status)
	assert.Equal(t, "UPI-98765", ord.TransactionRef)

	ord, _, err = svc.UpdateStatus(ctx, ord.ID, StatusProcessing)
	require.NoError(t, err)
	ord, _, err = svc.UpdateStatus(ctx, ord.ID, StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, ord.Status)

	_, _, err = svc.UpdateStatus(ctx, ord.ID, StatusRejected)
	assert.True(t, core.IsValidationError(err), "completed is terminal")

	orders, err := svc.ListOrders(ctx, OrderFilter{StudentID: "st1"})
	require.NoError(t, err)
	assert.Equal(t, []Order{ord}, orders)
}

func TestService_RejectOrder(t *testing.T) {
	svc, prd := setup(t)
	ctx := context.Background()

	ord, err := svc.RequestQuote(ctx, NewOrder{StudentID: "st1", ProductID: prd.ID})
	require.NoError(t, err)
	ord, _, err = svc.UpdateStatus(ctx, ord.ID, StatusRejected)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, ord.Status)

	_, _, err = svc.SetQuote(ctx, ord.ID, 100)
	assert.True(t, core.IsValidationError(err))
	_, _, err = svc.SetQuote(ctx, ord.ID, 0)
	assert.True(t, core.IsValidationError(err))
}
