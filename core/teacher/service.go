package teacher

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/store"
)

var ErrWrongPassword = errors.New("wrong password")

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

// Create hires a teacher with a derived custom id and the mobile number as password.
func (svc *Service) Create(ctx context.Context, nt NewTeacher) (Teacher, error) {
	nt.clean()
	if err := svc.validate.Struct(nt); err != nil {
		return Teacher{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Teachers, nt.toRow())
	if err != nil {
		return Teacher{}, errors.Wrap(err, "creating teacher")
	}
	return fromRow(row), nil
}

func (svc *Service) List(ctx context.Context, f Filter) ([]Teacher, error) {
	rows, err := svc.store.Select(ctx, store.Teachers, f.toStore())
	if err != nil {
		return nil, errors.Wrap(err, "listing teachers")
	}
	return fromRows(rows), nil
}

func (svc *Service) Get(ctx context.Context, id string) (Teacher, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, store.Teachers, id)
	if err != nil || !found {
		return Teacher{}, false, errors.Wrap(err, "getting teacher")
	}
	return fromRow(row), true, nil
}

// FindByLogin returns the teachers whose custom id or name equals username, oldest first.
func (svc *Service) FindByLogin(ctx context.Context, username string) ([]Teacher, error) {
	rows, err := svc.store.Select(ctx, store.Teachers, store.Filter{
		AnyOf:   []store.Cond{store.Eq("custom_id", username), store.Eq("name", username)},
		OrderBy: []core.DBOrdering{core.Asc("created_at")},
	})
	if err != nil {
		return nil, errors.Wrap(err, "finding teacher")
	}
	return fromRows(rows), nil
}

func (svc *Service) update(ctx context.Context, id string, changes store.Row) (Teacher, bool, error) {
	row, err := svc.store.Update(ctx, store.Teachers, id, changes)
	if err != nil {
		return Teacher{}, false, errors.Wrap(err, "updating teacher")
	}
	if row == nil {
		return Teacher{}, false, nil
	}
	return fromRow(row), true, nil
}

func (svc *Service) Update(ctx context.Context, id string, ut UpdateTeacher) (Teacher, bool, error) {
	if err := svc.validate.Struct(ut); err != nil {
		return Teacher{}, false, err
	}
	return svc.update(ctx, id, ut.toRow())
}

func (svc *Service) SetStatus(ctx context.Context, id, status string) (Teacher, bool, error) {
	if status != account.StatusActive && status != account.StatusSuspended {
		return Teacher{}, false, core.NewFieldError("status", "invalid status")
	}
	return svc.update(ctx, id, store.Row{"status": status})
}

// ResetPassword sets the password of a teacher, or resets it to the mobile number when pr.Password is empty.
func (svc *Service) ResetPassword(ctx context.Context, id string, pr account.PasswordReset) (Teacher, bool, error) {
	tch, found, err := svc.Get(ctx, id)
	if err != nil || !found {
		return Teacher{}, false, err
	}
	if err = svc.validate.Struct(pr.WithAttributes(tch.Name, tch.CustomID)); err != nil {
		return Teacher{}, false, err
	}
	pwd := pr.Password
	if pwd == "" {
		pwd = account.DefaultPassword(tch.Mobile)
	}
	return svc.update(ctx, id, store.Row{"password": pwd})
}

func (svc *Service) ChangePassword(ctx context.Context, id string, pc account.PasswordChange) (bool, error) {
	tch, found, err := svc.Get(ctx, id)
	if err != nil || !found {
		return false, err
	}
	if err = svc.validate.Struct(pc.WithAttributes(tch.Name, tch.CustomID)); err != nil {
		return false, err
	}
	if !account.CheckSecret(tch.Password, tch.Mobile, pc.OldPassword) {
		return false, core.NewFieldError("oldPassword", ErrWrongPassword.Error())
	}
	_, found, err = svc.update(ctx, id, store.Row{"password": pc.NewPassword})
	return found, err
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Teachers, id), "deleting teacher")
}
