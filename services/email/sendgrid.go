package emailsvc

import (
	"context"
	"fmt"
	"net/http"
	"net/mail"

	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sethvargo/go-retry"

	"github.com/eduai/backend/core"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"

	sendgridAPI = sendgrid.API // mockable
)

type sendgridService struct {
	key        string
	from       mail.Address
	subjPrefix string
	logger     core.Logger
	backoff    func() retry.Backoff
}

var _ core.EmailService = (*sendgridService)(nil)

func NewSendgridService(conf *core.Config, logger core.Logger) core.EmailService {
	maxRetries, base := conf.Email.MaxRetries, conf.Email.RetryBase
	return &sendgridService{
		key:        conf.Email.SendgridAPIKey,
		from:       conf.DefaultFromEmail(),
		subjPrefix: "[" + conf.AppName + "] ",
		logger:     logger,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(maxRetries, retry.NewExponential(base))
		},
	}
}

func (svc sendgridService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go func(msg *core.EmailMessage) {
			_ = svc.sendMessage(context.Background(), msg)
		}(msg)
	}
}

func (svc sendgridService) sendMessage(ctx context.Context, msg *core.EmailMessage) error {
	if err := msg.Render(); err != nil {
		svc.logger.Error(fmt.Sprintf("rendering email: %v", err), err)
		emailsSent.WithLabelValues(providerSendgrid, resultFailed).Inc()
		return err
	}
	if !(msg.HasRecipients() && msg.HasContent()) {
		return nil
	}

	err := retry.Do(ctx, svc.backoff(), func(ctx context.Context) error {
		return svc.send(*msg)
	})
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending email %q: %v", msg.Subject, err), err)
		emailsSent.WithLabelValues(providerSendgrid, resultFailed).Inc()
		return err
	}
	emailsSent.WithLabelValues(providerSendgrid, resultSent).Inc()
	return nil
}

func (svc sendgridService) prepare(msg core.EmailMessage) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + msg.Subject

	for _, to := range msg.To {
		p.AddTos(sgEmail(to))
	}
	for _, cc := range msg.Cc {
		p.AddCCs(sgEmail(cc))
	}
	for _, bcc := range msg.Bcc {
		p.AddBCCs(sgEmail(bcc))
	}

	from := svc.from
	if msg.From != nil {
		from = *msg.From
	}

	m := sgmail.NewV3Mail()
	m.SetFrom(sgEmail(from))
	m.AddPersonalizations(p)

	m.AddContent(sgmail.NewContent("text/plain", msg.TextContent))
	if msg.HTMLContent != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTMLContent))
	}
	return m
}

func sgEmail(addr mail.Address) *sgmail.Email {
	return sgmail.NewEmail(addr.Name, addr.Address)
}

// send posts the message once. Transport errors, rate limits and 5xx responses are retryable.
func (svc sendgridService) send(msg core.EmailMessage) error {
	req := sendgrid.GetRequest(svc.key, endpoint, host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(svc.prepare(msg))

	res, err := sendgridAPI(req)
	if err != nil {
		return retry.RetryableError(errors.Wrap(err, "calling sendgrid"))
	}
	return checkResponse(res)
}

func checkResponse(res *rest.Response) error {
	switch {
	case res.StatusCode == http.StatusTooManyRequests || res.StatusCode >= http.StatusInternalServerError:
		return retry.RetryableError(errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body))
	case res.StatusCode >= http.StatusBadRequest:
		return errors.Errorf("sendgrid status %d: %s", res.StatusCode, res.Body)
	}
	return nil
}
