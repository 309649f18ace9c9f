package emailsvc

import (
	"net/http"
	"net/mail"
	"sync/atomic"
	"testing"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/backend/core"
	logsvc "github.com/eduai/backend/services/logger"
)

func credentialsMessage() *core.EmailMessage {
	return &core.EmailMessage{
		To:           []mail.Address{{Name: "Jean Dupont", Address: "jean.dupont@example.com"}},
		Subject:      "Vos identifiants de connexion enseignant",
		TemplateName: "credentials",
		TemplateData: map[string]string{
			"FirstName":    "Jean",
			"LastName":     "Dupont",
			"AccountLabel": "enseignant",
			"Email":        "jean.dupont@example.com",
			"Password":     "jeAdup7!x#Qz",
		},
	}
}

func TestConsoleServiceMock_SendMessages(t *testing.T) {
	logger := logsvc.NewRecorder()
	svc := NewConsoleServiceMock(core.NewTestConfig(), logger)

	svc.SendMessages(
		credentialsMessage(),
		&core.EmailMessage{Subject: "no recipient", BodyStr: "hi"},
		&core.EmailMessage{To: []mail.Address{{Address: "x@example.com"}}, TemplateName: "missing"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTMLContent, "jeAdup7!x#Qz")
	assert.Contains(t, sent[0].TextContent, "Mot de passe : jeAdup7!x#Qz")
	assert.Len(t, logger.Entries("error"), 1) // missing template

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_sendMessage(t *testing.T) {
	conf := core.NewTestConfig()
	conf.Email.MaxRetries = 2

	defer func() { sendgridAPI = originalAPI }()

	tests := []struct {
		name         string
		responses    []int // status codes; 0 is a transport error
		wantErr      bool
		wantAttempts int32
	}{
		{name: "accepted", responses: []int{http.StatusAccepted}, wantAttempts: 1},
		{name: "retried 5xx", responses: []int{http.StatusBadGateway, http.StatusAccepted}, wantAttempts: 2},
		{name: "retried transport error", responses: []int{0, 0, http.StatusAccepted}, wantAttempts: 3},
		{name: "retried rate limit", responses: []int{http.StatusTooManyRequests, http.StatusAccepted}, wantAttempts: 2},
		{name: "4xx not retried", responses: []int{http.StatusBadRequest}, wantErr: true, wantAttempts: 1},
		{name: "retries exhausted", responses: []int{500, 500, 500, 500}, wantErr: true, wantAttempts: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			sendgridAPI = func(req rest.Request) (*rest.Response, error) {
				i := atomic.AddInt32(&attempts, 1) - 1
				code := tt.responses[int(i)%len(tt.responses)]
				if code == 0 {
					return nil, errors.New("connection reset")
				}
				return &rest.Response{StatusCode: code}, nil
			}

			logger := logsvc.NewRecorder()
			svc := NewSendgridService(conf, logger).(*sendgridService)
			err := svc.sendMessage(t.Context(), credentialsMessage())
			if tt.wantErr {
				assert.Error(t, err)
				assert.Len(t, logger.Entries("error"), 1)
			} else {
				assert.NoError(t, err)
				assert.Empty(t, logger.Entries("error"))
			}
			assert.Equal(t, tt.wantAttempts, atomic.LoadInt32(&attempts))
		})
	}
}

var originalAPI = sendgridAPI

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(core.NewTestConfig(), logsvc.NewRecorder()).(*sendgridService)
	msg := credentialsMessage()
	require.NoError(t, msg.Render())

	m := svc.prepare(*msg)
	require.Len(t, m.Personalizations, 1)
	assert.Equal(t, "[EduAI] Vos identifiants de connexion enseignant", m.Personalizations[0].Subject)
	assert.Equal(t, "noreply@eduai.test", m.From.Address)
	assert.Len(t, m.Content, 2)
}
