package credential_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/profile"
	emailsvc "github.com/eduai/backend/services/email"
	logsvc "github.com/eduai/backend/services/logger"
)

func TestSubject(t *testing.T) {
	assert.Equal(t, "Vos identifiants de connexion étudiant", credential.Subject(profile.Student))
	assert.Equal(t, "Vos identifiants de connexion enseignant", credential.Subject(profile.Teacher))
	assert.Equal(t, "Vos identifiants de connexion école", credential.Subject(profile.School))
}

func TestMessage(t *testing.T) {
	creds := credential.Credentials{
		Email:     "marie.curie@example.com",
		FirstName: "Marie",
		LastName:  "Curie",
		Password:  "marcur9!Qx#Z",
		Type:      profile.Student,
	}

	msg, err := credential.Message(creds)
	require.NoError(t, err)
	require.Len(t, msg.To, 1)
	assert.Equal(t, "Marie Curie", msg.To[0].Name)
	assert.Equal(t, "marie.curie@example.com", msg.To[0].Address)
	assert.Equal(t, "Vos identifiants de connexion étudiant", msg.Subject)
	assert.Contains(t, msg.TextContent, "Bonjour Marie Curie")
	assert.Contains(t, msg.TextContent, "Votre compte étudiant")
	assert.Contains(t, msg.TextContent, "Mot de passe : marcur9!Qx#Z")
	assert.Contains(t, msg.HTMLContent, "marcur9!Qx#Z")

	creds.Email = ""
	_, err = credential.Message(creds)
	assert.Equal(t, credential.ErrNoRecipient, err)
}

func TestDeliverer_Deliver(t *testing.T) {
	mailSvc := emailsvc.NewConsoleServiceMock(core.NewTestConfig(), logsvc.NewRecorder())
	d := credential.NewDeliverer(mailSvc)

	err := d.Deliver(credential.Credentials{
		Email:     "jean.dupont@example.com",
		FirstName: "Jean",
		LastName:  "Dupont",
		Password:  "jeAdup7!x#Qz",
		Type:      profile.Teacher,
	})
	require.NoError(t, err)

	sent := mailSvc.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "Vos identifiants de connexion enseignant", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "Email : jean.dupont@example.com")

	assert.Equal(t, credential.ErrNoRecipient, d.Deliver(credential.Credentials{FirstName: "Jean"}))
	assert.Len(t, mailSvc.SentMessages(), 1)
}
