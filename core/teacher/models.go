package teacher

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/store"
)

type Teacher struct {
	ID             string      `json:"id"`
	CustomID       string      `json:"customId"`
	Name           string      `json:"name"`
	Mobile         string      `json:"mobile"`
	Specialization string      `json:"specialization"`
	GradeID        string      `json:"gradeId"`
	SubdivisionID  null.String `json:"subdivisionId"`
	Status         string      `json:"status"`
	Password       string      `json:"-"`
	CreatedAt      time.Time   `json:"createdAt"` // UTC
}

func (t Teacher) IsActive() bool { return account.IsActive(t.Status) }

// NewTeacher contains information needed to hire a Teacher.
type NewTeacher struct {
	Name           string `json:"name" validate:"required"`
	Mobile         string `json:"mobile" validate:"required,mobile"`
	Specialization string `json:"specialization"`
	GradeID        string `json:"gradeId"`
	SubdivisionID  string `json:"subdivisionId"`
}

func (nt *NewTeacher) clean() {
	nt.Name = core.CleanString(nt.Name)
	nt.Mobile = core.CleanString(nt.Mobile)
	nt.Specialization = core.CleanString(nt.Specialization)
}

// UpdateTeacher defines what information may be provided to modify an existing Teacher.
type UpdateTeacher struct {
	Name           *string `json:"name" validate:"omitempty,min=1"`
	Mobile         *string `json:"mobile" validate:"omitempty,mobile"`
	Specialization *string `json:"specialization"`
	GradeID        *string `json:"gradeId"`
	SubdivisionID  *string `json:"subdivisionId"`
	Status         *string `json:"status" validate:"omitempty,accstatus"`
}

type Filter struct {
	GradeID       string `query:"gradeId"`
	SubdivisionID string `query:"subdivisionId"`
	Status        string `query:"status"`
	OrderBy       []core.DBOrdering
}

// OrderableFields lists the view-model fields a list may be ordered by.
var OrderableFields = []string{"customId", "name", "specialization", "createdAt"}

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
	return store.Filter{Where: conds, OrderBy: f.OrderBy}.OrderedBy(core.Desc("created_at"))
}

func fromRow(r store.Row) Teacher {
	return Teacher{
		ID:             r.String("id"),
		CustomID:       r.String("custom_id"),
		Name:           r.String("name"),
		Mobile:         r.String("mobile"),
		Specialization: r.String("specialization"),
		GradeID:        r.String("grade_id"),
		SubdivisionID:  r.NullString("subdivision_id"),
		Status:         r.String("status"),
		Password:       r.String("password"),
		CreatedAt:      r.Time("created_at"),
	}
}

func fromRows(rows []store.Row) []Teacher {
	teachers := make([]Teacher, 0, len(rows))
	for _, r := range rows {
		teachers = append(teachers, fromRow(r))
	}
	return teachers
}

func (nt NewTeacher) toRow() store.Row {
	return store.Row{
		"custom_id":      account.CustomID(nt.Name, nt.Mobile),
		"name":           nt.Name,
		"mobile":         nt.Mobile,
		"specialization": nt.Specialization,
		"grade_id":       store.Nullable(nt.GradeID),
		"subdivision_id": store.Nullable(nt.SubdivisionID),
		"status":         account.StatusActive,
		"password":       account.DefaultPassword(nt.Mobile),
		"created_at":     core.NowFunc(),
	}
}

func (ut UpdateTeacher) toRow() store.Row {
	r := make(store.Row)
	if ut.Name != nil {
		r["name"] = core.CleanString(*ut.Name)
	}
	if ut.Mobile != nil {
		r["mobile"] = core.CleanString(*ut.Mobile)
	}
	if ut.Specialization != nil {
		r["specialization"] = core.CleanString(*ut.Specialization)
	}
	if ut.GradeID != nil {
		r["grade_id"] = store.Nullable(*ut.GradeID)
	}
	if ut.SubdivisionID != nil {
		r["subdivision_id"] = store.Nullable(*ut.SubdivisionID)
	}
	if ut.Status != nil {
		r["status"] = *ut.Status
	}
	return r
}
