package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// RegisterBindings installs the custom struct tags used by request DTOs:
// appemail, otp, priority, personname and taskname.
func RegisterBindings(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"appemail": func(fl validator.FieldLevel) bool {
			return IsValidEmail(fl.Field().String())
		},
		"otp": func(fl validator.FieldLevel) bool {
			return IsValidOTP(fl.Field().String())
		},
		"priority": func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s == "" || IsValidPriority(s)
		},
		"personname": func(fl validator.FieldLevel) bool {
			return IsValidName(fl.Field().String())
		},
		"taskname": func(fl validator.FieldLevel) bool {
			return IsValidTaskName(fl.Field().String())
		},
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("register %s validator: %w", tag, err)
		}
	}
	return nil
}

// Describe turns a failed tag into a human readable message.
func Describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "appemail":
		return "invalid email format"
	case "otp":
		return "OTP must be exactly 4 digits"
	case "priority":
		return "priority must be one of low, medium, high"
	case "personname":
		return fmt.Sprintf("name must be between %d and %d characters", MinNameLength, MaxNameLength)
	case "taskname":
		return fmt.Sprintf("task name must be non-empty and at most %d characters", MaxTaskNameLength)
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	case "eqfield":
		return fmt.Sprintf("must match %s", fe.Param())
	default:
		return "is invalid"
	}
}
