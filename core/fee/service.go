package fee

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
	"github.com/trezcool/academia/core/student"
)

var (
	// ErrPartialApproval is the cause of the error returned when a submission was approved
	// but the fees status of its student could not be updated.
	ErrPartialApproval = errors.New("fee submission approved but the student fees status was not updated")
	ErrAlreadyReviewed = errors.New("fee submission was already reviewed")
)

type Service struct {
	store    store.Store
	validate *validator.Validate
	logger   core.Logger
}

func NewService(st store.Store, validate *validator.Validate, logger core.Logger) *Service {
	return &Service{store: st, validate: validate, logger: logger}
}

func (svc *Service) Submit(ctx context.Context, ns NewSubmission) (Submission, error) {
	ns.clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Submission{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.FeeSubmissions, ns.toRow())
	if err != nil {
		return Submission{}, errors.Wrap(err, "submitting fee")
	}
	return fromRow(row), nil
}

func (svc *Service) List(ctx context.Context, f Filter) ([]Submission, error) {
	rows, err := svc.store.Select(ctx, store.FeeSubmissions, f.toStore())
	if err != nil {
		return nil, errors.Wrap(err, "listing fee submissions")
	}
	subs := make([]Submission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, fromRow(r))
	}
	return subs, nil
}

func (svc *Service) Get(ctx context.Context, id string) (Submission, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.FeeSubmissions, id)
	if err != nil || !found {
		return Submission{}, false, errors.Wrap(err, "getting fee submission")
	}
	return fromRow(row), true, nil
}

func (svc *Service) review(ctx context.Context, id, status string) (Submission, bool, error) {
	sub, found, err := svc.Get(ctx, id)
	if err != nil || !found {
		return Submission{}, false, err
	}
	if sub.Status != StatusPending {
		return sub, true, core.NewFieldError("status", ErrAlreadyReviewed.Error())
	}
	row, err := svc.store.Update(ctx, store.FeeSubmissions, id, store.Row{"status": status})
	if err != nil {
		return Submission{}, true, errors.Wrapf(err, "setting fee submission %s", status)
	}
	if row == nil {
		return Submission{}, false, nil
	}
	return fromRow(row), true, nil
}

// Approve approves a pending submission then marks its student's fees as paid.
// The two writes are not atomic: when the second one fails the submission stays approved
// and the returned error has ErrPartialApproval as cause.
func (svc *Service) Approve(ctx context.Context, id string) (Submission, bool, error) {
	sub, found, err := svc.review(ctx, id, StatusApproved)
	if err != nil || !found {
		return sub, found, err
	}
	if !sub.StudentID.Valid {
		// guest payment
		return sub, true, nil
	}

	std, err := svc.store.Update(ctx, store.Students, sub.StudentID.String, store.Row{"fees_status": student.FeesPaid})
	if err != nil {
		svc.logger.Error(
			fmt.Sprintf("fee submission %s approved but student %s fees status not updated: %v", sub.ID, sub.StudentID.String, err),
			err,
			map[string]interface{}{"submission_id": sub.ID, "student_id": sub.StudentID.String},
		)
		return sub, true, errors.Wrap(ErrPartialApproval, err.Error())
	}
	if std == nil {
		svc.logger.Warn(fmt.Sprintf("fee submission %s approved for unknown student %s", sub.ID, sub.StudentID.String))
	}
	return sub, true, nil
}

func (svc *Service) Reject(ctx context.Context, id string) (Submission, bool, error) {
	return svc.review(ctx, id, StatusRejected)
}

// ApprovedRevenue sums the approved submissions.
func (svc *Service) ApprovedRevenue(ctx context.Context) (float64, error) {
	subs, err := svc.List(ctx, Filter{Status: StatusApproved})
	if err != nil {
		return 0, err
	}
	var total float64
	for _, s := range subs {
		total += s.Amount
	}
	return total, nil
}
