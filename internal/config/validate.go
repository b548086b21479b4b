package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("yaml"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("duration", func(fl validator.FieldLevel) bool {
		d, err := time.ParseDuration(fl.Field().String())
		return err == nil && d > 0
	})
	_ = v.RegisterValidation("schedule", func(fl validator.FieldLevel) bool {
		_, err := cron.ParseStandard(fl.Field().String())
		return err == nil
	})
	return v
}

// Validate checks the config for missing and malformed fields. The returned
// error lists every problem and wraps ErrInvalid.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, describe(fe))
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

func describe(fe validator.FieldError) string {
	// Namespace is "Config.servers[0].name"; drop the root type name.
	_, field, _ := strings.Cut(fe.Namespace(), ".")

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "required_with":
		return field + " is required when smtp.host is set"
	case "excluded_with":
		return field + " cannot be combined with prtg.password"
	case "unique":
		return field + " must not repeat " + fe.Param()
	case "duration":
		return fmt.Sprintf("%s: %q is not a positive duration", field, fe.Value())
	case "schedule":
		return fmt.Sprintf("%s: %q is not a cron expression", field, fe.Value())
	case "oneof":
		return fmt.Sprintf("%s: %q must be one of [%s]", field, fe.Value(), fe.Param())
	case "email", "url":
		return fmt.Sprintf("%s: %q is not a valid %s", field, fe.Value(), fe.Tag())
	default:
		return fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param())
	}
}
