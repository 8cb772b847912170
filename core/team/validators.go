package team

import (
	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core/user"
)

// InitValidators registers the team validators.
// Password policy translations are registered by user.InitValidators.
func InitValidators(validate *validator.Validate) {
	validate.RegisterStructValidation(registrationStructValidation, Registration{})
}

func registrationStructValidation(sl validator.StructLevel) {
	if reg, ok := sl.Current().Interface().(Registration); ok {
		if tag := user.PasswordPolicyViolation(reg.Password, reg.LeaderName, reg.Email); tag != "" {
			sl.ReportError(reg.Password, "password", "Password", tag, "")
		}
	}
}
