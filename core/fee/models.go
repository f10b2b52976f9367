package fee

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

// Submission statuses. Approved and Rejected are terminal.
const (
	StatusPending  = "Pending"
	StatusApproved = "Approved"
	StatusRejected = "Rejected"
)

const DefaultPaymentMethod = "UPI"

// Submission is a fee payment declared by a student or a guest, pending review.
// TransactionRef is unverified proof of payment.
type Submission struct {
	ID             string      `json:"id"`
	StudentID      null.String `json:"studentId"`
	StudentName    string      `json:"studentName"`
	Amount         float64     `json:"amount"`
	TransactionRef string      `json:"transactionRef"`
	PaymentMethod  string      `json:"paymentMethod"`
	Status         string      `json:"status"`
	Date           string      `json:"date"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
}

// NewSubmission is submitted by students (StudentID set by the API) or guests.
type NewSubmission struct {
	StudentID      string  `json:"-"`
	StudentName    string  `json:"studentName" validate:"required"`
	Amount         float64 `json:"amount" validate:"gt=0"`
	TransactionRef string  `json:"transactionRef" validate:"required"`
	PaymentMethod  string  `json:"paymentMethod"`
}

func (ns *NewSubmission) clean() {
	ns.StudentName = core.CleanString(ns.StudentName)
	ns.TransactionRef = core.CleanString(ns.TransactionRef)
	ns.PaymentMethod = core.CleanString(ns.PaymentMethod)
	if ns.PaymentMethod == "" {
		ns.PaymentMethod = DefaultPaymentMethod
	}
}

type Filter struct {
	StudentID string `query:"studentId"`
	Status    string `query:"status"`
}

func (f Filter) toStore() store.Filter {
	var conds []store.Cond
	if f.StudentID != "" {
		conds = append(conds, store.Eq("student_id", f.StudentID))
	}
	if f.Status != "" {
		conds = append(conds, store.Eq("status", f.Status))
	}
	return store.Filter{Where: conds, OrderBy: []core.DBOrdering{core.Desc("created_at")}}
}

func fromRow(r store.Row) Submission {
	return Submission{
		ID:             r.String("id"),
		StudentID:      r.NullString("student_id"),
		StudentName:    r.String("student_name"),
		Amount:         r.Float("amount"),
		TransactionRef: r.String("transaction_ref"),
		PaymentMethod:  r.String("payment_method"),
		Status:         r.String("status"),
		Date:           r.Date("date"),
		CreatedAt:      r.Time("created_at"),
	}
}

func (ns NewSubmission) toRow() store.Row {
	return store.Row{
		"student_id":      store.Nullable(ns.StudentID),
		"student_name":    ns.StudentName,
		"amount":          ns.Amount,
		"transaction_ref": ns.TransactionRef,
		"payment_method":  ns.PaymentMethod,
		"status":          StatusPending,
		"date":            core.Today(),
		"created_at":      core.NowFunc(),
	}
}
