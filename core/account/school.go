package account

import (
	"context"

	"github.com/pkg/errors"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/identity"
	"github.com/eduai/backend/core/profile"
	"github.com/eduai/backend/core/school"
)

// RegisterSchool creates the administrator identity of a school, the school it owns and its profile tag.
// Unlike provisioning, an existing email is an error.
func (svc *Service) RegisterSchool(ctx context.Context, sr SchoolRegistration) (school.School, error) {
	typ := string(profile.School)

	usr, err := svc.Identity.SignUp(ctx, sr.Email, sr.Password, identity.Metadata{
		FirstName:   sr.Name,
		AccountType: typ,
	})
	if err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		if errors.Is(err, identity.ErrEmailExists) {
			return school.School{}, fail(CodeAccountExists, ErrAccountExists, msgAccountExists, nil)
		}
		return school.School{}, fail(CodeIdentityCreationFailed, ErrIdentityCreationFailed, msgCreationFailed, err, "type", typ)
	}

	sch, err := svc.Schools.Create(ctx, usr.ID, usr.Email, sr.Details)
	if err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return school.School{}, fail(CodeDomainRecordFailed, ErrDomainRecordFailed, msgCreationFailed, err,
			"type", typ, "user_id", usr.ID)
	}

	if err = svc.Profiles.CreateTag(ctx, profile.Tag{UserID: usr.ID, Type: profile.School, CreatedAt: core.NowUTC()}); err != nil {
		provisionedAccounts.WithLabelValues(typ, resultFailed).Inc()
		return school.School{}, fail(CodeProfileTagFailed, ErrProfileTagFailed, msgCreationFailed, err,
			"type", typ, "user_id", usr.ID)
	}

	provisionedAccounts.WithLabelValues(typ, resultCreated).Inc()
	return sch, nil
}
