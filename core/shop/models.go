package shop

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

// Order statuses
const (
	StatusPending                  = "Pending"
	StatusAwaitingPayment          = "Awaiting Payment"
	StatusPaymentUnderVerification = "Payment Under Verification"
	StatusProcessing               = "Processing"
	StatusCompleted                = "Completed"
	StatusRejected                 = "Rejected"
)

// transitions lists the statuses an order may move to from each status.
var transitions = map[string][]string{
	StatusPending:                  {StatusAwaitingPayment, StatusRejected},
	StatusAwaitingPayment:          {StatusPaymentUnderVerification, StatusRejected},
	StatusPaymentUnderVerification: {StatusProcessing, StatusRejected},
	StatusProcessing:               {StatusCompleted, StatusRejected},
	StatusCompleted:                {},
	StatusRejected:                 {},
}

// CanTransition tells whether an order may move from one status to another.
func CanTransition(from, to string) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// IsOpen tells whether an order still awaits an action.
func IsOpen(status string) bool {
	return len(transitions[status]) > 0
}

type (
	Product struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Description  string    `json:"description"`
		BasePrice    float64   `json:"basePrice"`
		ImageURL     string    `json:"imageUrl"`
		Customizable bool      `json:"customizable"`
		CreatedAt    time.Time `json:"createdAt"` // UTC
	}

	NewProduct struct {
		Name         string  `json:"name" validate:"required"`
		Description  string  `json:"description"`
		BasePrice    float64 `json:"basePrice" validate:"gte=0"`
		ImageURL     string  `json:"imageUrl" validate:"omitempty,url"`
		Customizable bool    `json:"customizable"`
	}

	UpdateProduct struct {
		Name         *string  `json:"name" validate:"omitempty,min=1"`
		Description  *string  `json:"description"`
		BasePrice    *float64 `json:"basePrice" validate:"omitempty,gte=0"`
		ImageURL     *string  `json:"imageUrl" validate:"omitempty,url"`
		Customizable *bool    `json:"customizable"`
	}

	// Order is a quote request for a product, priced by an admin then paid by the student.
	Order struct {
		ID             string       `json:"id"`
		StudentID      string       `json:"studentId"`
		ProductID      string       `json:"productId"`
		CustomName     string       `json:"customName"`
		ChangeRequest  string       `json:"changeRequest"`
		Status         string       `json:"status"`
		FinalPrice     null.Float64 `json:"finalPrice"`
		TransactionRef string       `json:"transactionRef"`
		CreatedAt      time.Time    `json:"createdAt"` // UTC
	}

	NewOrder struct {
		StudentID     string `json:"-"`
		ProductID     string `json:"productId" validate:"required"`
		CustomName    string `json:"customName"`
		ChangeRequest string `json:"changeRequest"`
	}

	OrderFilter struct {
		StudentID string `query:"studentId"`
		Status    string `query:"status"`
	}
)

func productFromRow(r store.Row) Product {
	return Product{
		ID:           r.String("id"),
		Name:         r.String("name"),
		Description:  r.String("description"),
		BasePrice:    r.Float("base_price"),
		ImageURL:     r.String("image_url"),
		Customizable: r.Bool("customizable"),
		CreatedAt:    r.Time("created_at"),
	}
}

func (np NewProduct) toRow() store.Row {
	return store.Row{
		"name":         core.CleanString(np.Name),
		"description":  np.Description,
		"base_price":   np.BasePrice,
		"image_url":    np.ImageURL,
		"customizable": np.Customizable,
		"created_at":   core.NowFunc(),
	}
}

func (up UpdateProduct) toRow() store.Row {
	r := make(store.Row)
	if up.Name != nil {
		r["name"] = core.CleanString(*up.Name)
	}
	if up.Description != nil {
		r["description"] = *up.Description
	}
	if up.BasePrice != nil {
		r["base_price"] = *up.BasePrice
	}
	if up.ImageURL != nil {
		r["image_url"] = *up.ImageURL
	}
	if up.Customizable != nil {
		r["customizable"] = *up.Customizable
	}
	return r
}

func orderFromRow(r store.Row) Order {
	return Order{
		ID:             r.String("id"),
		StudentID:      r.String("student_id"),
		ProductID:      r.String("product_id"),
		CustomName:     r.String("custom_name"),
		ChangeRequest:  r.String("change_request"),
		Status:         r.String("status"),
		FinalPrice:     r.NullFloat("final_price"),
		TransactionRef: r.String("transaction_ref"),
		CreatedAt:      r.Time("created_at"),
	}
}

func (no NewOrder) toRow() store.Row {
	return store.Row{
		"student_id":     no.StudentID,
		"product_id":     no.ProductID,
		"custom_name":    core.CleanString(no.CustomName),
		"change_request": core.CleanString(no.ChangeRequest),
		"status":         StatusPending,
		"final_price":    nil,
		"created_at":     core.NowFunc(),
	}
}

func (f OrderFilter) toStore() store.Filter {
	var conds []store.Cond
	if f.StudentID != "" {
		conds = append(conds, store.Eq("student_id", f.StudentID))
	}
	if f.Status != "" {
		conds = append(conds, store.Eq("status", f.Status))
	}
	return store.Filter{Where: conds, OrderBy: []core.DBOrdering{core.Desc("created_at")}}
}
