package emailsvc

import (
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
)

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock()
	office := mail.Address{Name: "Office", Address: "office@localhost"}

	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{office}, Subject: "Hello", Body: "Hi there"},
		&core.EmailMessage{Subject: "No recipient", Body: "Hi"},
		&core.EmailMessage{To: []mail.Address{office}, Subject: "No content", Body: "  "},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Hello", sent[0].Subject)
}

func TestConsoleService_render(t *testing.T) {
	svc := consoleService{defaultFromEmail: mail.Address{Address: "noreply@localhost"}, subjPrefix: "[Academia] "}
	out := svc.render(core.EmailMessage{
		To:      []mail.Address{{Name: "Office", Address: "office@localhost"}},
		ReplyTo: &mail.Address{Address: "parent@mail.localhost"},
		Subject: "New enquiry",
		Body:    "Admission for grade 5",
	})
	assert.Contains(t, out, "From: <noreply@localhost>\r\n")
	assert.Contains(t, out, "Subject: [Academia] New enquiry\r\n")
	assert.Contains(t, out, `To: "Office" <office@localhost>`)
	assert.Contains(t, out, "Reply-To: <parent@mail.localhost>\r\n")
	assert.Contains(t, out, "Admission for grade 5")
	assert.NotContains(t, out, "CC:")
}

func TestSendgridService_prepare(t *testing.T) {
	conf := core.NewTestConfig()
	conf.SendgridApiKey = "key"
	svc := NewSendgridService(conf, nil).(*sendgridService)

	m := svc.prepare(core.EmailMessage{
		To:      []mail.Address{conf.ContactEmail},
		ReplyTo: &mail.Address{Name: "Parent", Address: "parent@mail.localhost"},
		Subject: "New enquiry",
		Body:    "Admission for grade 5",
	})
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[Academia] New enquiry", m.Personalizations[0].Subject)
	assert.Equal(t, "office@localhost", m.Personalizations[0].To[0].Address)
	assert.Equal(t, "noreply@localhost", m.From.Address)
	assert.Equal(t, "parent@mail.localhost", m.ReplyTo.Address)
	require.Len(t, m.Content, 1)
	assert.Equal(t, "text/plain", m.Content[0].Type)
}
