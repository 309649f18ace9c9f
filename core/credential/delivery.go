package credential

import (
	"net/mail"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/profile"
)

const templateName = "credentials"

var (
	ErrNoRecipient = errors.New("credentials have no recipient")

	accountLabels = map[profile.Type]string{
		profile.Student: "étudiant",
		profile.Teacher: "enseignant",
		profile.School:  "école",
	}
)

// Credentials are the sign in credentials of a provisioned account.
type Credentials struct {
	Email     string
	FirstName string
	LastName  string
	Password  string
	Type      profile.Type
}

// Deliverer emails credentials to their owner.
type Deliverer struct {
	mailSvc core.EmailService
}

func NewDeliverer(mailSvc core.EmailService) *Deliverer {
	return &Deliverer{mailSvc: mailSvc}
}

// Subject returns the subject of the credentials email of an account type.
func Subject(typ profile.Type) string {
	return "Vos identifiants de connexion " + accountLabels[typ]
}

// Message builds the credentials email. It is rendered so template errors surface to the caller.
func Message(creds Credentials) (*core.EmailMessage, error) {
	if creds.Email == "" {
		return nil, ErrNoRecipient
	}
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: core.CleanString(creds.FirstName + " " + creds.LastName), Address: creds.Email}},
		Subject:      Subject(creds.Type),
		TemplateName: templateName,
		TemplateData: map[string]string{
			"FirstName":    creds.FirstName,
			"LastName":     creds.LastName,
			"AccountLabel": accountLabels[creds.Type],
			"Email":        creds.Email,
			"Password":     creds.Password,
		},
	}
	if err := msg.Render(); err != nil {
		return nil, errors.Wrap(err, "rendering credentials email")
	}
	return msg, nil
}

// Deliver hands the credentials email to the email service, which sends it in the background.
func (d *Deliverer) Deliver(creds Credentials) error {
	msg, err := Message(creds)
	if err != nil {
		return err
	}
	d.mailSvc.SendMessages(msg)
	return nil
}
