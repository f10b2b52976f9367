package student

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/store"
)

// Fees statuses
const (
	FeesPending = "Pending"
	FeesPaid    = "Paid"
	FeesOverdue = "Overdue"
)

var FeesStatuses = []string{FeesPending, FeesPaid, FeesOverdue}

type Student struct {
	ID            string      `json:"id"`
	CustomID      string      `json:"customId"`
	Name          string      `json:"name"`
	Mobile        string      `json:"mobile"`
	ParentName    string      `json:"parentName"`
	GradeID       string      `json:"gradeId"`
	SubdivisionID null.String `json:"subdivisionId"`
	JoiningDate   string      `json:"joiningDate"`
	MonthlyFees   float64     `json:"monthlyFees"`
	FeesStatus    string      `json:"feesStatus"`
	Status        string      `json:"status"`
	Password      string      `json:"-"`
	CreatedAt     time.Time   `json:"createdAt"` // UTC
}

func (s Student) IsActive() bool { return account.IsActive(s.Status) }

// NewStudent contains information needed to enroll a Student.
type NewStudent struct {
	Name          string  `json:"name" validate:"required"`
	Mobile        string  `json:"mobile" validate:"required,mobile"`
	ParentName    string  `json:"parentName"`
	GradeID       string  `json:"gradeId" validate:"required"`
	SubdivisionID string  `json:"subdivisionId"`
	JoiningDate   string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	MonthlyFees   float64 `json:"monthlyFees" validate:"gte=0"`
}

func (ns *NewStudent) clean() {
	ns.Name = core.CleanString(ns.Name)
	ns.Mobile = core.CleanString(ns.Mobile)
	ns.ParentName = core.CleanString(ns.ParentName)
	if ns.JoiningDate == "" {
		ns.JoiningDate = core.Today()
	}
}

// UpdateStudent defines what information may be provided to modify an existing Student.
// The custom id is kept as derived at enrollment.
type UpdateStudent struct {
	Name          *string  `json:"name" validate:"omitempty,min=1"`
	Mobile        *string  `json:"mobile" validate:"omitempty,mobile"`
	ParentName    *string  `json:"parentName"`
	GradeID       *string  `json:"gradeId" validate:"omitempty,min=1"`
	SubdivisionID *string  `json:"subdivisionId"`
	JoiningDate   *string  `json:"joiningDate" validate:"omitempty,datetime=2006-01-02"`
	MonthlyFees   *float64 `json:"monthlyFees" validate:"omitempty,gte=0"`
	FeesStatus    *string  `json:"feesStatus" validate:"omitempty,oneof=Pending Paid Overdue"`
	Status        *string  `json:"status" validate:"omitempty,accstatus"`
}

type Filter struct {
	GradeID       string `query:"gradeId"`
	SubdivisionID string `query:"subdivisionId"`
	Status        string `query:"status"`
	FeesStatus    string `query:"feesStatus"`
	OrderBy       []core.DBOrdering
}

// OrderableFields lists the view-model fields a list may be ordered by.
var OrderableFields = []string{"customId", "name", "joiningDate", "monthlyFees", "createdAt"}

func (f Filter) toStore() store.Filter {
	var conds []store.Cond
	if f.GradeID != "" {
		conds = append(conds, store.Eq("grade_id", f.GradeID))
	}
	if f.SubdivisionID != "" {
		conds = append(conds, store.Eq("subdivision_id", f.SubdivisionID))
	}
	if f.Status != "" {
		conds = append(conds, store.Eq("status", f.Status))
	}
	if f.FeesStatus != "" {
		conds = append(conds, store.Eq("fees_status", f.FeesStatus))
	}
	return store.Filter{Where: conds, OrderBy: f.OrderBy}.OrderedBy(core.Desc("created_at"))
}

func fromRow(r store.Row) Student {
	return Student{
		ID:            r.String("id"),
		CustomID:      r.String("custom_id"),
		Name:          r.String("name"),
		Mobile:        r.String("mobile"),
		ParentName:    r.String("parent_name"),
		GradeID:       r.String("grade_id"),
		SubdivisionID: r.NullString("subdivision_id"),
		JoiningDate:   r.Date("joining_date"),
		MonthlyFees:   r.Float("monthly_fees"),
		FeesStatus:    r.String("fees_status"),
		Status:        r.String("status"),
		Password:      r.String("password"),
		CreatedAt:     r.Time("created_at"),
	}
}

func fromRows(rows []store.Row) []Student {
	students := make([]Student, 0, len(rows))
	for _, r := range rows {
		students = append(students, fromRow(r))
	}
	return students
}

func (ns NewStudent) toRow() store.Row {
	return store.Row{
		"custom_id":      account.CustomID(ns.Name, ns.Mobile),
		"name":           ns.Name,
		"mobile":         ns.Mobile,
		"parent_name":    ns.ParentName,
		"grade_id":       ns.GradeID,
		"subdivision_id": store.Nullable(ns.SubdivisionID),
		"joining_date":   ns.JoiningDate,
		"monthly_fees":   ns.MonthlyFees,
		"fees_status":    FeesPending,
		"status":         account.StatusActive,
		"password":       account.DefaultPassword(ns.Mobile),
		"created_at":     core.NowFunc(),
	}
}

func (us UpdateStudent) toRow() store.Row {
	r := make(store.Row)
	if us.Name != nil {
		r["name"] = core.CleanString(*us.Name)
	}
	if us.Mobile != nil {
		r["mobile"] = core.CleanString(*us.Mobile)
	}
	if us.ParentName != nil {
		r["parent_name"] = core.CleanString(*us.ParentName)
	}
	if us.GradeID != nil {
		r["grade_id"] = *us.GradeID
	}
	if us.SubdivisionID != nil {
		r["subdivision_id"] = store.Nullable(*us.SubdivisionID)
	}
	if us.JoiningDate != nil {
		r["joining_date"] = *us.JoiningDate
	}
	if us.MonthlyFees != nil {
		r["monthly_fees"] = *us.MonthlyFees
	}
	if us.FeesStatus != nil {
		r["fees_status"] = *us.FeesStatus
	}
	if us.Status != nil {
		r["status"] = *us.Status
	}
	return r
}
