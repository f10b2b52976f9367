package student

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/store"
)

var (
	ErrWrongPassword = errors.New("wrong password")
	ErrInvalidStatus = errors.New("invalid status")
)

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

// Create enrolls a student. The custom id is derived from name and mobile
// and the password defaults to the mobile number.
func (svc *Service) Create(ctx context.Context, ns NewStudent) (Student, error) {
	ns.clean()
	if err := svc.validate.Struct(ns); err != nil {
		return Student{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Students, ns.toRow())
	if err != nil {
		return Student{}, errors.Wrap(err, "creating student")
	}
	return fromRow(row), nil
}

func (svc *Service) List(ctx context.Context, f Filter) ([]Student, error) {
	rows, err := svc.store.Select(ctx, store.Students, f.toStore())
	if err != nil {
		return nil, errors.Wrap(err, "listing students")
	}
	return fromRows(rows), nil
}

func (svc *Service) Get(ctx context.Context, id string) (Student, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Students, id)
	if err != nil || !found {
		return Student{}, false, errors.Wrap(err, "getting student")
	}
	return fromRow(row), true, nil
}

// FindByLogin returns the students whose custom id or name equals username, oldest first.
func (svc *Service) FindByLogin(ctx context.Context, username string) ([]Student, error) {
	rows, err := svc.store.Select(ctx, store.Students, store.Filter{
		AnyOf:   []store.Cond{store.Eq("custom_id", username), store.Eq("name", username)},
		OrderBy: []core.DBOrdering{core.Asc("created_at")},
	})
	if err != nil {
		return nil, errors.Wrap(err, "finding student")
	}
	return fromRows(rows), nil
}

func (svc *Service) update(ctx context.Context, id string, changes store.Row) (Student, bool, error) {
	row, err := svc.store.Update(ctx, store.Students, id, changes)
	if err != nil {
		return Student{}, false, errors.Wrap(err, "updating student")
	}
	if row == nil {
		return Student{}, false, nil
	}
	return fromRow(row), true, nil
}

func (svc *Service) Update(ctx context.Context, id string, us UpdateStudent) (Student, bool, error) {
	if err := svc.validate.Struct(us); err != nil {
		return Student{}, false, err
	}
	return svc.update(ctx, id, us.toRow())
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) (Student, bool, error) {
	if !validStatus(status, account.Statuses) {
		return Student{}, false, core.NewFieldError("status", ErrInvalidStatus.Error())
	}
	return svc.update(ctx, id, store.Row{"status": status})
}

func (svc *Service) SetFeesStatus(ctx context.Context, id, status string) (Student, bool, error) {
	if !validStatus(status, FeesStatuses) {
		return Student{}, false, core.NewFieldError("feesStatus", ErrInvalidStatus.Error())
	}
	return svc.update(ctx, id, store.Row{"fees_status": status})
}

// ResetPassword sets the password of a student, or resets it to the mobile number when pr.Password is empty.
func (svc *Service) ResetPassword(ctx context.Context, id string, pr account.PasswordReset) (Student, bool, error) {
	std, found, err := svc.Get(ctx, id)
	if err != nil || !found {
		return Student{}, false, err
	}
	if err = svc.validate.Struct(pr.WithAttributes(std.Name, std.CustomID)); err != nil {
		return Student{}, false, err
	}
	pwd := pr.Password
	if pwd == "" {
		pwd = account.DefaultPassword(std.Mobile)
	}
	return svc.update(ctx, id, store.Row{"password": pwd})
}

// ChangePassword lets a student replace its password; the old one may also be the mobile number.
func (svc *Service) ChangePassword(ctx context.Context, id string, pc account.PasswordChange) (bool, error) {
	std, found, err := svc.Get(ctx, id)
	if err != nil || !found {
		return false, err
	}
	if err = svc.validate.Struct(pc.WithAttributes(std.Name, std.CustomID)); err != nil {
		return false, err
	}
	if !account.CheckSecret(std.Password, std.Mobile, pc.OldPassword) {
		return false, core.NewFieldError("oldPassword", ErrWrongPassword.Error())
	}
	_, found, err = svc.update(ctx, id, store.Row{"password": pc.NewPassword})
	return found, err
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Students, id), "deleting student")
}

func validStatus(status string, statuses []string) bool {
	for _, s := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
