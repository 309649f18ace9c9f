package account

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/samber/oops"
)

// error codes, mapped to HTTP statuses by the API
const (
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeSchoolNotFound         = "SCHOOL_NOT_FOUND"
	CodeAccountExists          = "ACCOUNT_EXISTS"
	CodeIdentityCreationFailed = "IDENTITY_CREATION_FAILED"
	CodeDomainRecordFailed     = "DOMAIN_RECORD_FAILED"
	CodeProfileTagFailed       = "PROFILE_TAG_FAILED"
	CodeProfileNotFound        = "PROFILE_NOT_FOUND"
	CodeRoleMismatch           = "ROLE_MISMATCH"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeSignInInProgress       = "SIGN_IN_IN_PROGRESS"
	CodeAlreadySignedIn        = "ALREADY_SIGNED_IN"
	CodeSignInFailed           = "SIGN_IN_FAILED"
	CodeWrongPassword          = "WRONG_PASSWORD"
)

var (
	// errors
	ErrUnauthenticated        = errors.New("not authenticated")
	ErrSchoolNotFound         = errors.New("no school is owned by this account")
	ErrAccountExists          = errors.New("an account already exists for this email")
	ErrIdentityCreationFailed = errors.New("creating identity")
	ErrDomainRecordFailed     = errors.New("creating domain record")
	ErrProfileTagFailed       = errors.New("creating profile tag")
	ErrProfileNotFound        = errors.New("profile not found")
	ErrRoleMismatch           = errors.New("incorrect account type")
	ErrInvalidCredentials     = errors.New("invalid login credentials")
	ErrSignInInProgress       = errors.New("a sign in is already in progress")
	ErrAlreadySignedIn        = errors.New("this sign in already authenticated another form")
	ErrSignInFailed           = errors.New("sign in failed")
	ErrWrongPassword          = errors.New("current password is incorrect")
	ErrNoCredentials          = errors.New("no credentials were created for this student in this session")

	// public messages
	msgUnauthenticated    = "Utilisateur non authentifié"
	msgSchoolNotFound     = "Aucune école n'est associée à ce compte"
	msgAccountExists      = "Un compte existe déjà pour cet email"
	msgCreationFailed     = "Erreur lors de la création du compte"
	msgProfileNotFound    = "Profil non trouvé"
	msgRoleMismatch       = "Type de compte incorrect"
	msgInvalidCredentials = "Email ou mot de passe incorrect"
	msgSignInInProgress   = "Connexion en cours"
	msgAlreadySignedIn    = "Vous êtes déjà connecté"
	msgUnexpected         = "Une erreur est survenue. Veuillez réessayer."
	msgWrongPassword      = "Mot de passe actuel incorrect"
)

// fail returns an error coded `code` matching `kind` (and `cause`, if any) with errors.Is.
func fail(code string, kind error, public string, cause error, attrs ...interface{}) error {
	b := oops.Code(code).Public(public)
	if len(attrs) > 0 {
		b = b.With(attrs...)
	}
	if cause == nil {
		return b.Wrap(kind)
	}
	return b.Wrap(fmt.Errorf("%w: %w", kind, cause))
}

// HasCode reports whether `err` carries the error code `code`.
func HasCode(err error, code string) bool {
	oopsErr, ok := oops.AsOops(err)
	return ok && oopsErr.Code() == code
}

// PublicMessage returns the message of `err` that can be shown to the user.
func PublicMessage(err error) string {
	if oopsErr, ok := oops.AsOops(err); ok && oopsErr.Public() != "" {
		return oopsErr.Public()
	}
	return msgUnexpected
}
