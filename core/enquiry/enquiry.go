// Package enquiry stores the admission enquiries sent from the public site and forwards them to the office.
package enquiry

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

type (
	Enquiry struct {
		ID        string    `json:"id"`
		Name      string    `json:"name"`
		Mobile    string    `json:"mobile"`
		Email     string    `json:"email"`
		Message   string    `json:"message"`
		CreatedAt time.Time `json:"createdAt"` // UTC
	}

	NewEnquiry struct {
		Name    string `json:"name" validate:"required"`
		Mobile  string `json:"mobile" validate:"required,mobile"`
		Email   string `json:"email" validate:"omitempty,email"`
		Message string `json:"message" validate:"required"`
	}
)

func fromRow(r store.Row) Enquiry {
	return Enquiry{
		ID:        r.String("id"),
		Name:      r.String("name"),
		Mobile:    r.String("mobile"),
		Email:     r.String("email"),
		Message:   r.String("message"),
		CreatedAt: r.Time("created_at"),
	}
}

type Service struct {
	store    store.Store
	validate *validator.Validate
	mailer   core.EmailService
	contact  mail.Address
}

func NewService(st store.Store, validate *validator.Validate, mailer core.EmailService, contact mail.Address) *Service {
	return &Service{store: st, validate: validate, mailer: mailer, contact: contact}
}

// Submit stores an enquiry then mails it to the office. Mail delivery is asynchronous and best-effort.
func (svc *Service) Submit(ctx context.Context, ne NewEnquiry) (Enquiry, error) {
	ne.Name = core.CleanString(ne.Name)
	ne.Email = core.CleanString(ne.Email, true)
	ne.Message = strings.TrimSpace(ne.Message)
	if err := svc.validate.Struct(ne); err != nil {
		return Enquiry{}, err
	}
	row, err := store.InsertOne(ctx, svc.store, store.Enquiries, store.Row{
		"name":       ne.Name,
		"mobile":     ne.Mobile,
		"email":      ne.Email,
		"message":    ne.Message,
		"created_at": core.NowFunc(),
	})
	if err != nil {
		return Enquiry{}, errors.Wrap(err, "submitting enquiry")
	}
	enq := fromRow(row)
	if svc.mailer != nil && svc.contact.Address != "" {
		svc.mailer.SendMessages(svc.message(enq))
	}
	return enq, nil
}

func (svc *Service) message(enq Enquiry) *core.EmailMessage {
	msg := &core.EmailMessage{
		To:      []mail.Address{svc.contact},
		Subject: fmt.Sprintf("New enquiry from %s", enq.Name),
		Body: fmt.Sprintf("Name: %s\nMobile: %s\nEmail: %s\nReceived: %s\n\n%s\n",
			enq.Name, enq.Mobile, enq.Email, enq.CreatedAt.Format(time.RFC1123), enq.Message),
	}
	if enq.Email != "" {
		msg.ReplyTo = &mail.Address{Name: enq.Name, Address: enq.Email}
	}
	return msg
}

// List returns every enquiry, newest first.
func (svc *Service) List(ctx context.Context) ([]Enquiry, error) {
	rows, err := svc.store.Select(ctx, store.Enquiries, store.Filter{OrderBy: []core.DBOrdering{core.Desc("created_at")}})
	if err != nil {
		return nil, errors.Wrap(err, "listing enquiries")
	}
	enquiries := make([]Enquiry, 0, len(rows))
	for _, r := range rows {
		enquiries = append(enquiries, fromRow(r))
	}
	return enquiries, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return errors.Wrap(svc.store.Delete(ctx, store.Enquiries, id), "deleting enquiry")
}
