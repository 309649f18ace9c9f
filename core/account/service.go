// Package account provisions the accounts of a school's students and teachers and signs their users in.
package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/credential"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
	"github.com/eduai/backend/core/student"
	"github.com/eduai/backend/core/teacher"
)

type (
	PasswordGenerator interface {
		Generate(firstName, lastName string, discriminator ...string) (string, error)
	}

	CredentialDeliverer interface {
		Deliver(creds credential.Credentials) error
	}

	SchoolStore interface {
		Create(ctx context.Context, ownerID, email string, d school.Details) (school.School, error)
		GetByOwner(ctx context.Context, ownerID string) (school.School, error)
	}

	StudentStore interface {
		GetByEmail(ctx context.Context, schoolID, email string) (student.Student, error)
		Create(ctx context.Context, schoolID, userID string, ns student.NewStudent) (student.Student, error)
		LinkUser(ctx context.Context, schoolID, id, userID string) error
	}

	TeacherStore interface {
		GetByEmail(ctx context.Context, schoolID, email string) (teacher.Teacher, error)
		Create(ctx context.Context, schoolID, userID string, nt teacher.NewTeacher) (teacher.Teacher, error)
	}

	Deps struct {
		Identity  identity.Provider
		Profiles  profile.Repository
		Schools   SchoolStore
		Students  StudentStore
		Teachers  TeacherStore
		Passwords PasswordGenerator
		Deliverer CredentialDeliverer
		Logger    core.Logger
	}

	Service struct {
		Deps
	}

	// provisioning describes the account of one person; lookup and createRecord are role specific.
	provisioning struct {
		typ           profile.Type
		firstName     string
		lastName      string
		email         string
		discriminator string
		created       string // success message

		// lookup returns the domain record matching the email, or ok=false.
		lookup       func(ctx context.Context, schoolID string) (recordID, userID string, ok bool, err error)
		createRecord func(ctx context.Context, schoolID, userID string) (recordID string, err error)
	}
)

const (
	msgStudentCreated = "Compte créé avec succès. Un email a été envoyé avec les informations de connexion."
	msgTeacherCreated = "Compte enseignant créé avec succès. Un email a été envoyé avec les informations de connexion."
)

func NewService(deps Deps) *Service {
	return &Service{Deps: deps}
}

// ActingSchool returns the school owned by the signed in administrator.
func (svc *Service) ActingSchool(ctx context.Context) (school.School, error) {
	sess, err := svc.Identity.GetSession(ctx)
	if err != nil {
		return school.School{}, fail(CodeUnauthenticated, ErrUnauthenticated, msgUnauthenticated, err)
	}
	sch, err := svc.Schools.GetByOwner(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, school.ErrNotFound) {
			return school.School{}, fail(CodeSchoolNotFound, ErrSchoolNotFound, msgSchoolNotFound, nil, "user_id", sess.UserID)
		}
		return school.School{}, errors.Wrap(err, "finding school of session user")
	}
	return sch, nil
}

// ProvisionStudent creates the identity, the domain record and the profile tag of a student of the
// acting school, then emails the credentials. The registration number salts the default password.
func (svc *Service) ProvisionStudent(ctx context.Context, sa StudentAccount) (ProvisionResult, error) {
	sch, err := svc.ActingSchool(ctx)
	if err != nil {
		return ProvisionResult{}, err
	}
	return svc.provision(ctx, sch.ID, provisioning{
		typ:           profile.Student,
		firstName:     sa.FirstName,
		lastName:      sa.LastName,
		email:         sa.Email,
		discriminator: sa.RegistrationNumber,
		created:       msgStudentCreated,
		lookup: func(ctx context.Context, schoolID string) (string, string, bool, error) {
			s, err := svc.Students.GetByEmail(ctx, schoolID, sa.Email)
			if err != nil {
				if errors.Is(err, student.ErrNotFound) {
					return "", "", false, nil
				}
				return "", "", false, err
			}
			return s.ID, s.UserID.String, true, nil
		},
		createRecord: func(ctx context.Context, schoolID, userID string) (string, error) {
			s, err := svc.Students.Create(ctx, schoolID, userID, student.NewStudent{
				FirstName:          sa.FirstName,
				LastName:           sa.LastName,
				Email:              sa.Email,
				Phone:              sa.Phone,
				RegistrationNumber: sa.RegistrationNumber,
				ClassID:            sa.ClassID,
			})
			return s.ID, err
		},
	})
}

// ProvisionTeacher creates the identity, the domain record and the profile tag of a teacher of the
// acting school, then emails the credentials.
func (svc *Service) ProvisionTeacher(ctx context.Context, nt teacher.NewTeacher) (ProvisionResult, error) {
	sch, err := svc.ActingSchool(ctx)
	if err != nil {
		return ProvisionResult{}, err
	}
	return svc.provision(ctx, sch.ID, provisioning{
		typ:       profile.Teacher,
		firstName: nt.FirstName,
		lastName:  nt.LastName,
		email:     nt.Email,
		created:   msgTeacherCreated,
		lookup: func(ctx context.Context, schoolID string) (string, string, bool, error) {
			t, err := svc.Teachers.GetByEmail(ctx, schoolID, nt.Email)
			if err != nil {
				if errors.Is(err, teacher.ErrNotFound) {
					return "", "", false, nil
				}
				return "", "", false, err
			}
			return t.ID, t.UserID.String, true, nil
		},
		createRecord: func(ctx context.Context, schoolID, userID string) (string, error) {
			t, err := svc.Teachers.Create(ctx, schoolID, userID, nt)
			return t.ID, err
		},
	})
}

// ProvisionRosterStudent creates the account of a roster row that already has its domain record.
// Rows already linked to an identity are reported as existing.
func (svc *Service) ProvisionRosterStudent(ctx context.Context, s student.Student) (ProvisionResult, error) {
	return svc.provision(ctx, s.SchoolID, provisioning{
		typ:           profile.Student,
		firstName:     s.FirstName,
		lastName:      s.LastName,
		email:         s.Email,
		discriminator: s.RegistrationNumber,
		created:       msgStudentCreated,
		lookup: func(context.Context, string) (string, string, bool, error) {
			return s.ID, s.UserID.String, s.HasAccount(), nil
		},
		createRecord: func(ctx context.Context, schoolID, userID string) (string, error) {
			return s.ID, svc.Students.LinkUser(ctx, schoolID, s.ID, userID)
		},
	})
}

// provision runs the account creation protocol. Its steps are not transactional: a failure leaves the
// previous steps in place.
func (svc *Service) provision(ctx context.Context, schoolID string, p provisioning) (ProvisionResult, error) {
	typ := string(p.typ)
	if !core.EmailRegex.MatchString(p.email) {
		return ProvisionResult{}, core.NewFieldValidationError("email", "invalid email format")
	}

	recordID, userID, found, err := p.lookup(ctx, schoolID)
	if err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return ProvisionResult{}, errors.Wrapf(err, "looking up %s by email", typ)
	}
	if found {
		provisionedAccounts.WithLabelValues(typ, resultExists).Inc()
		return ProvisionResult{
			UserID:   userID,
			RecordID: recordID,
			Email:    p.email,
			Exists:   true,
			Message:  msgAccountExists,
		}, nil
	}

	pwd, err := svc.Passwords.Generate(p.firstName, p.lastName, p.discriminator)
	if err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return ProvisionResult{}, errors.Wrap(err, "generating default password")
	}

	usr, err := svc.Identity.SignUp(ctx, p.email, pwd, identity.Metadata{
		FirstName:          p.firstName,
		LastName:           p.lastName,
		DefaultPassword:    pwd,
		Discriminator:      p.discriminator,
		AccountType:        typ,
		MustChangePassword: true,
	})
	if err != nil {
		if errors.Is(err, identity.ErrEmailExists) {
			// lost a race with another creation, or the email belongs to another school
			provisionedAccounts.WithLabelValues(typ, resultExists).Inc()
			return ProvisionResult{Email: p.email, Exists: true, Message: msgAccountExists}, nil
		}
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return ProvisionResult{}, fail(CodeIdentityCreationFailed, ErrIdentityCreationFailed, msgCreationFailed, err,
			"type", typ, "school_id", schoolID)
	}

	if recordID, err = p.createRecord(ctx, schoolID, usr.ID); err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return ProvisionResult{}, fail(CodeDomainRecordFailed, ErrDomainRecordFailed, msgCreationFailed, err,
			"type", typ, "school_id", schoolID, "user_id", usr.ID)
	}

	if err = svc.Profiles.CreateTag(ctx, profile.Tag{UserID: usr.ID, Type: p.typ, CreatedAt: core.NowUTC()}); err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return ProvisionResult{}, fail(CodeProfileTagFailed, ErrProfileTagFailed, msgCreationFailed, err,
			"type", typ, "user_id", usr.ID)
	}

	svc.deliver(credential.Credentials{
		Email:     usr.Email,
		FirstName: p.firstName,
		LastName:  p.lastName,
		Password:  pwd,
		Type:      p.typ,
	})

	provisionedAccounts.WithLabelValues(typ, resultCreated).Inc()
	return ProvisionResult{
		UserID:          usr.ID,
		RecordID:        recordID,
		Email:           usr.Email,
		DefaultPassword: pwd,
		Message:         p.created,
	}, nil
}

// deliver emails the credentials. Failures are logged only.
func (svc *Service) deliver(creds credential.Credentials) {
	if err := svc.Deliverer.Deliver(creds); err != nil {
		deliveryFailures.WithLabelValues(string(creds.Type)).Inc()
		svc.Logger.Error("delivering credentials: "+err.Error(), err, map[string]interface{}{
			"email": creds.Email,
			"type":  string(creds.Type),
		})
	}
}

// GeneratePassword returns a default password for a person, without creating anything.
func (svc *Service) GeneratePassword(firstName, lastName, discriminator string) (string, error) {
	return svc.Passwords.Generate(firstName, lastName, discriminator)
}
