// Package attendance records daily student presence, one record per student per day.
package attendance

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
	StatusLate    = "Late"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate}

type (
	Record struct {
		ID            string      `json:"id"`
		StudentID     string      `json:"studentId"`
		GradeID       string      `json:"gradeId"`
		SubdivisionID null.String `json:"subdivisionId"`
		Date          string      `json:"date"`
		Status        string      `json:"status"`
		MarkedBy      string      `json:"markedBy"`
	}

	NewRecord struct {
		StudentID     string `json:"studentId" validate:"required"`
		GradeID       string `json:"gradeId" validate:"required"`
		SubdivisionID string `json:"subdivisionId"`
		Date          string `json:"date" validate:"omitempty,datetime=2006-01-02"`
		Status        string `json:"status" validate:"required,oneof=Present Absent Late"`
		MarkedBy      string `json:"-"`
	}

	// Summary counts the records of a student per status.
	Summary struct {
		Present int `json:"present"`
		Absent  int `json:"absent"`
		Late    int `json:"late"`
		Total   int `json:"total"`
	}
)

func fromRow(r store.Row) Record {
	return Record{
		ID:            r.String("id"),
		StudentID:     r.String("student_id"),
		GradeID:       r.String("grade_id"),
		SubdivisionID: r.NullString("subdivision_id"),
		Date:          r.Date("date"),
		Status:        r.String("status"),
		MarkedBy:      r.String("marked_by"),
	}
}

func (nr NewRecord) toRow() store.Row {
	return store.Row{
		"student_id":     nr.StudentID,
		"grade_id":       nr.GradeID,
		"subdivision_id": store.Nullable(nr.SubdivisionID),
		"date":           nr.Date,
		"status":         nr.Status,
		"marked_by":      nr.MarkedBy,
	}
}

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

// Mark upserts records on (student_id, date): marking a student twice the same day replaces the status.
// Every record is validated before anything is written; the writes themselves are not atomic.
func (svc *Service) Mark(ctx context.Context, records ...NewRecord) ([]Record, error) {
	today := core.Today()
	for i := range records {
		if records[i].Date == "" {
			records[i].Date = today
		}
		if err := svc.validate.Struct(records[i]); err != nil {
			return nil, err
		}
	}

	marked := make([]Record, 0, len(records))
	for _, nr := range records {
		row, err := svc.store.Upsert(ctx, store.Attendance, []string{"student_id", "date"}, nr.toRow())
		if err != nil {
			return marked, errors.Wrap(err, "marking attendance")
		}
		marked = append(marked, fromRow(row))
	}
	return marked, nil
}

func (svc *Service) list(ctx context.Context, f store.Filter) ([]Record, error) {
	rows, err := svc.store.Select(ctx, store.Attendance, f)
	if err != nil {
		return nil, errors.Wrap(err, "listing attendance")
	}
	records := make([]Record, 0, len(rows))
	for _, r := range rows {
		records = append(records, fromRow(r))
	}
	return records, nil
}

// ListForStudent returns a student's records, latest first.
func (svc *Service) ListForStudent(ctx context.Context, studentID string) ([]Record, error) {
	return svc.list(ctx, store.Filter{
		Where:   []store.Cond{store.Eq("student_id", studentID)},
		OrderBy: []core.DBOrdering{core.Desc("date")},
	})
}

// ListForDivision returns the records of a subdivision on date.
func (svc *Service) ListForDivision(ctx context.Context, subdivisionID, date string) ([]Record, error) {
	return svc.list(ctx, store.Where(store.Eq("subdivision_id", subdivisionID), store.Eq("date", date)))
}

func (svc *Service) Summary(ctx context.Context, studentID string) (Summary, error) {
	records, err := svc.ListForStudent(ctx, studentID)
	if err != nil {
		return Summary{}, err
	}
	var sum Summary
	for _, rec := range records {
		switch rec.Status {
		case StatusPresent:
			sum.Present++
		case StatusAbsent:
			sum.Absent++
		case StatusLate:
			sum.Late++
		}
	}
	sum.Total = len(records)
	return sum, nil
}
