package account

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/eduai/backend/core"
	"github.com/eduai/backend/core/profile"
)

var (
	accountTypeTag  = "accounttype"
	accountTypeText = "account type must be one of student, teacher or school"
)

// InitValidators registers the `accounttype` tag.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(accountTypeTag, accountTypeValidation)
	core.RegisterCustomTranslation(validate, translator, accountTypeTag, accountTypeText)
}

func accountTypeValidation(fl validator.FieldLevel) bool {
	return profile.Type(fl.Field().String()).Valid()
}
