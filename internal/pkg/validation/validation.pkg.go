package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"

	"github.com/go-playground/validator/v10"
)

var val *validator.Validate

var validationMessages = map[string]string{
	"e164":     "must be a e164 formatted phone number",
	"required": "is required",
	"datetime": "must be a valid date-time format (2006-01-02T15:04:05Z07:00)",
	"number":   "must be a number",
	"oneof":    "must be one of the allowed values: %s",
	"email":    "must be a valid email address",
	"min":      "must be greater than or equal to %s",
	"max":      "must be less than or equal to %s",
	"len":      "must have the exact length of %s",
	"uuid":     "must be a valid UUID",
	"otp_code": "must be exactly 6 digits",
	"phone":    "must be a valid phone number",
}

var (
	otpCodeRegex = regexp.MustCompile(`^[0-9]{6}$`)
	phoneRegex   = regexp.MustCompile(`^\+?[0-9][0-9 .\-()]{6,18}$`)
)

func Setup() error {
	val = validator.New(validator.WithRequiredStructEnabled())

	if err := registerValidations(val); err != nil {
		return fmt.Errorf("failed to register custom validations: %w", err)
	}

	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := registerValidations(v); err != nil {
			return fmt.Errorf("failed to register custom validations in Gin engine: %w", err)
		}
	} else {
		return fmt.Errorf("failed to get validation engine")
	}

	return nil
}

func registerValidations(v *validator.Validate) error {
	if err := v.RegisterValidation("otp_code", validateOTPCode); err != nil {
		return fmt.Errorf("failed to register otp_code validation: %w", err)
	}
	if err := v.RegisterValidation("phone", validatePhone); err != nil {
		return fmt.Errorf("failed to register phone validation: %w", err)
	}
	return nil
}

// validateOTPCode accepts exactly six digits; anything shorter is rejected locally
// so no network round-trip is wasted on obviously-invalid input.
func validateOTPCode(fl validator.FieldLevel) bool {
	return otpCodeRegex.MatchString(fl.Field().String())
}

// validatePhone accepts numbers that can be normalized to E.164.
func validatePhone(fl validator.FieldLevel) bool {
	return phoneRegex.MatchString(fl.Field().String())
}

func Validate(payload interface{}) error {
	if err := val.Struct(payload); err != nil {
		var errorMessages []string

		validationErrors := parsingErrorValidate(err)
		if validationErrors != "" {
			errorMessages = append(errorMessages, validationErrors)
		}
		message := "Validation failed: " + strings.Join(errorMessages, ", ")
		return errors.New(message)
	}

	return nil
}

// ValidateVar validates a single value against a tag expression, e.g.
// ValidateVar(email, "required,email").
func ValidateVar(value interface{}, tag string) error {
	if err := val.Var(value, tag); err != nil {
		return errors.New("Validation failed: " + parsingErrorValidate(err))
	}
	return nil
}

func parsingErrorValidate(err error) string {
	var errs validator.ValidationErrors
	if errors.As(err, &errs) {
		var sb strings.Builder
		for _, e := range errs {
			field := e.Field()
			tag := e.Tag()
			param := e.Param()

			msg := validationMessages[tag]
			if msg == "" {
				msg = "is invalid"
			}
			if strings.Contains(msg, "%s") {
				msg = fmt.Sprintf(msg, param)
			}
			sb.WriteString(fmt.Sprintf("%s %s", field, msg))
			sb.WriteString(", ")
		}
		return strings.TrimSuffix(sb.String(), ", ")
	}
	return err.Error()
}
