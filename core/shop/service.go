package shop

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

var ErrUnknownProduct = errors.New("unknown product")

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

// Products

func (svc *Service) CreateProduct(ctx context.Context, np NewProduct) (Product, error) {
	if err := svc.validate.Struct(np); err != nil {
		return Product{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Products, np.toRow())
	if err != nil {
		return Product{}, errors.Wrap(err, "creating product")
	}
	return productFromRow(row), nil
}

func (svc *Service) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := svc.store.Select(ctx, store.Products, store.Filter{OrderBy: []core.DBOrdering{core.Asc("name")}})
	if err != nil {
		return nil, errors.Wrap(err, "listing products")
	}
	products := make([]Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, productFromRow(r))
	}
	return products, nil
}

func (svc *Service) GetProduct(ctx context.Context, id string) (Product, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Products, id)
	if err != nil || !found {
		return Product{}, false, errors.Wrap(err, "getting product")
	}
	return productFromRow(row), true, nil
}

func (svc *Service) UpdateProduct(ctx context.Context, id string, up UpdateProduct) (Product, bool, error) {
	if err := svc.validate.Struct(up); err != nil {
		return Product{}, false, err
	}
	row, err := svc.store.Update(ctx, store.Products, id, up.toRow())
	if err != nil {
		return Product{}, false, errors.Wrap(err, "updating product")
	}
	if row == nil {
		return Product{}, false, nil
	}
	return productFromRow(row), true, nil
}

// DeleteProduct deletes a product and, by cascade, its orders.
func (svc *Service) DeleteProduct(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Products, id), "deleting product")
}

// Orders

// RequestQuote creates a Pending order for a student.
func (svc *Service) RequestQuote(ctx context.Context, no NewOrder) (Order, error) {
	if err := svc.validate.Struct(no); err != nil {
		return Order{}, err
	}
	if _, found, err := svc.GetProduct(ctx, no.ProductID); err != nil {
		return Order{}, err
	} else if !found {
		return Order{}, core.NewFieldError("productId", ErrUnknownProduct.Error())
	}
	row, err := store.InsertOne(ctx, svc.store, store.Orders, no.toRow())
	if err != nil {
		return Order{}, errors.Wrap(err, "requesting quote")
	}
	return orderFromRow(row), nil
}

func (svc *Service) ListOrders(ctx context.Context, f OrderFilter) ([]Order, error) {
	rows, err := svc.store.Select(ctx, store.Orders, f.toStore())
	if err != nil {
		return nil, errors.Wrap(err, "listing orders")
	}
	orders := make([]Order, 0, len(rows))
	for _, r := range rows {
		orders = append(orders, orderFromRow(r))
	}
	return orders, nil
}

func (svc *Service) GetOrder(ctx context.Context, id string) (Order, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Orders, id)
	if err != nil || !found {
		return Order{}, false, errors.Wrap(err, "getting order")
	}
	return orderFromRow(row), true, nil
}

func (svc *Service) transition(ctx context.Context, ord Order, to string, changes store.Row) (Order, bool, error) {
	if !CanTransition(ord.Status, to) {
		return ord, true, core.NewFieldError("status", fmt.Sprintf("cannot move an order from %q to %q", ord.Status, to))
	}
	if changes == nil {
		changes = make(store.Row)
	}
	changes["status"] = to
	row, err := svc.store.Update(ctx, store.Orders, ord.ID, changes)
	if err != nil {
		return Order{}, true, errors.Wrap(err, "updating order")
	}
	if row == nil {
		return Order{}, false, nil
	}
	return orderFromRow(row), true, nil
}

// SetQuote prices a Pending order, which then awaits payment.
func (svc *Service) SetQuote(ctx context.Context, id string, price float64) (Order, bool, error) {
	if price <= 0 {
		return Order{}, false, core.NewFieldError("finalPrice", "price must be greater than 0")
	}
	ord, found, err := svc.GetOrder(ctx, id)
	if err != nil || !found {
		return Order{}, false, err
	}
	return svc.transition(ctx, ord, StatusAwaitingPayment, store.Row{"final_price": price})
}

// SubmitPayment records the unverified transaction reference of a student's order.
// Orders of other students are reported as not found.
func (svc *Service) SubmitPayment(ctx context.Context, id, studentID, transactionRef string) (Order, bool, error) {
	transactionRef = core.CleanString(transactionRef)
	if transactionRef == "" {
		return Order{}, false, core.NewFieldError("transactionRef", "this field is required")
	}
	ord, found, err := svc.GetOrder(ctx, id)
	if err != nil || !found || ord.StudentID != studentID {
		return Order{}, false, err
	}
	return svc.transition(ctx, ord, StatusPaymentUnderVerification, store.Row{"transaction_ref": transactionRef})
}

// UpdateStatus moves an order along its progression. Pricing goes through SetQuote.
func (svc *Service) UpdateStatus(ctx context.Context, id, status string) (Order, bool, error) {
	ord, found, err := svc.GetOrder(ctx, id)
	if err != nil || !found {
		return Order{}, false, err
	}
	if status == StatusAwaitingPayment && !ord.FinalPrice.Valid {
		return ord, true, core.NewFieldError("finalPrice", "the order must be priced first")
	}
	return svc.transition(ctx, ord, status, nil)
}
