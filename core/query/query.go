// Package query handles the questions students ask their teachers.
package query

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

const (
	StatusOpen     = "Open"
	StatusAnswered = "Answered"
)

type (
	Query struct {
		ID          string    `json:"id"`
		StudentID   string    `json:"studentId"`
		StudentName string    `json:"studentName"`
		TeacherID   string    `json:"teacherId"`
		Subject     string    `json:"subject"`
		Question    string    `json:"question"`
		Answer      string    `json:"answer"`
		Status      string    `json:"status"`
		CreatedAt   time.Time `json:"createdAt"` // UTC
		AnsweredAt  null.Time `json:"answeredAt"`
	}

	NewQuery struct {
		StudentID   string `json:"-" validate:"required"`
		StudentName string `json:"-"`
		TeacherID   string `json:"teacherId" validate:"required"`
		Subject     string `json:"subject" validate:"required"`
		Question    string `json:"question" validate:"required"`
	}

	Reply struct {
		Answer string `json:"answer" validate:"required"`
	}
)

func fromRow(r store.Row) Query {
	q := Query{
		ID:          r.String("id"),
		StudentID:   r.String("student_id"),
		StudentName: r.String("student_name"),
		TeacherID:   r.String("teacher_id"),
		Subject:     r.String("subject"),
		Question:    r.String("question"),
		Answer:      r.String("answer"),
		Status:      r.String("status"),
		CreatedAt:   r.Time("created_at"),
	}
	if r["answered_at"] != nil {
		q.AnsweredAt = null.TimeFrom(r.Time("answered_at"))
	}
	return q
}

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

func (svc *Service) Ask(ctx context.Context, nq NewQuery) (Query, error) {
	nq.Subject = core.CleanString(nq.Subject)
	nq.Question = core.CleanString(nq.Question)
	if err := svc.validate.Struct(nq); err != nil {
		return Query{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Queries, store.Row{
		"student_id":   nq.StudentID,
		"student_name": nq.StudentName,
		"teacher_id":   nq.TeacherID,
		"subject":      nq.Subject,
		"question":     nq.Question,
		"answer":       "",
		"status":       StatusOpen,
		"created_at":   core.NowFunc(),
		"answered_at":  nil,
	})
	if err != nil {
		return Query{}, errors.Wrap(err, "asking query")
	}
	return fromRow(row), nil
}

func (svc *Service) list(ctx context.Context, f store.Filter) ([]Query, error) {
	rows, err := svc.store.Select(ctx, store.Queries, f.OrderedBy(core.Desc("created_at")))
	if err != nil {
		return nil, errors.Wrap(err, "listing queries")
	}
	queries := make([]Query, 0, len(rows))
	for _, r := range rows {
		queries = append(queries, fromRow(r))
	}
	return queries, nil
}

func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Query, error) {
	return svc.list(ctx, store.Where(store.Eq("student_id", studentID)))
}

// ListForTeacher returns the queries addressed to a teacher, open ones first.
func (svc *Service) ListForTeacher(ctx context.Context, teacherID string) ([]Query, error) {
	return svc.list(ctx, store.Filter{
		Where:   []store.Cond{store.Eq("teacher_id", teacherID)},
		OrderBy: []core.DBOrdering{core.Desc("status"), core.Desc("created_at")},
	})
}

// ListAll returns every query; status filters when not empty.
func (svc *Service) ListAll(ctx context.Context, status string) ([]Query, error) {
	var f store.Filter
	if status != "" {
		f = store.Where(store.Eq("status", status))
	}
	return svc.list(ctx, f)
}

func (svc *Service) Get(ctx context.Context, id string) (Query, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Queries, id)
	if err != nil || !found {
		return Query{}, false, errors.Wrap(err, "getting query")
	}
	return fromRow(row), true, nil
}

// Answer replies to a query. teacherID, when not empty, must be the addressee: other teachers see it as not found.
func (svc *Service) Answer(ctx context.Context, id, teacherID string, rep Reply) (Query, bool, error) {
	rep.Answer = core.CleanString(rep.Answer)
	if err := svc.validate.Struct(rep); err != nil {
		return Query{}, false, err
	}
	q, found, err := svc.Get(ctx, id)
	if err != nil || !found || (teacherID != "" && q.TeacherID != teacherID) {
		return Query{}, false, err
	}
	row, err := svc.store.Update(ctx, store.Queries, id, store.Row{
		"answer":      rep.Answer,
		"status":      StatusAnswered,
		"answered_at": core.NowFunc(),
	})
	if err != nil {
		return Query{}, false, errors.Wrap(err, "answering query")
	}
	if row == nil {
		return Query{}, false, nil
	}
	return fromRow(row), true, nil
}
