package notice

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

type Notice struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Date      string    `json:"date"`
	Important bool      `json:"important"`
	CreatedAt time.Time `json:"createdAt"` // UTC
}

type NewNotice struct {
	Title     string `json:"title" validate:"required"`
	Content   string `json:"content"`
	Date      string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Important bool   `json:"important"`
}

func fromRow(r store.Row) Notice {
	return Notice{
		ID:        r.String("id"),
		Title:     r.String("title"),
		Content:   r.String("content"),
		Date:      r.Date("date"),
		Important: r.Bool("important"),
		CreatedAt: r.Time("created_at"),
	}
}

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nn NewNotice) (Notice, error) {
	nn.Title = core.CleanString(nn.Title)
	if nn.Date == "" {
		nn.Date = core.Today()
	}
	if err := svc.validate.Struct(nn); err != nil {
		return Notice{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Notices, store.Row{
		"title":      nn.Title,
		"content":    nn.Content,
		"date":       nn.Date,
		"important":  nn.Important,
		"created_at": core.NowFunc(),
	})
	if err != nil {
		return Notice{}, errors.Wrap(err, "creating notice")
	}
	return fromRow(row), nil
}

func (svc *Service) list(ctx context.Context, f store.Filter) ([]Notice, error) {
	f.OrderBy = []core.DBOrdering{core.Desc("date"), core.Desc("created_at")}
	rows, err := svc.store.Select(ctx, store.Notices, f)
	if err != nil {
		return nil, errors.Wrap(err, "listing notices")
	}
	notices := make([]Notice, 0, len(rows))
	for _, r := range rows {
		notices = append(notices, fromRow(r))
	}
	return notices, nil
}

// List returns every notice, newest first.
func (svc *Service) List(ctx context.Context) ([]Notice, error) {
	return svc.list(ctx, store.Filter{})
}

// Ticker returns the important notices shown on the public ticker, newest first.
func (svc *Service) Ticker(ctx context.Context) ([]Notice, error) {
	return svc.list(ctx, store.Where(store.Eq("important", true)))
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Notices, id), "deleting notice")
}
