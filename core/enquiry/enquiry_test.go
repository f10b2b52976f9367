package enquiry

import (
	"context"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/services/email"
	"github.com/trezcool/academia/tests"
)

func TestService(t *testing.T) {
	db, _ := testutil.NewStore()
	mailer := emailsvc.NewConsoleServiceMock()
	office := mail.Address{Name: "Office", Address: "office@localhost"}
	svc := NewService(db, testutil.NewValidator(), mailer, office)
	ctx := context.Background()

	enq, err := svc.Submit(ctx, NewEnquiry{Name: " Meera ", Mobile: "9876543210", Email: "Meera@Mail.localhost", Message: "Admission for grade 5?"})
	require.NoError(t, err)
	assert.Equal(t, "Meera", enq.Name)
	assert.Equal(t, "meera@mail.localhost", enq.Email)

	sent := mailer.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, []mail.Address{office}, sent[0].To)
	assert.Equal(t, "New enquiry from Meera", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Admission for grade 5?")
	require.NotNil(t, sent[0].ReplyTo)
	assert.Equal(t, "meera@mail.localhost", sent[0].ReplyTo.Address)

	_, err = svc.Submit(ctx, NewEnquiry{Name: "Ravi", Mobile: "12", Message: "Hi"})
	assert.Error(t, err)
	_, err = svc.Submit(ctx, NewEnquiry{Name: "Ravi", Mobile: "9876500000"})
	assert.Error(t, err)
	assert.Len(t, mailer.SentMessages(), 1)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Enquiry{enq}, all)

	require.NoError(t, svc.Delete(ctx, enq.ID))
	all, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
