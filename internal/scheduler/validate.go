package scheduler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/five82/cadence/internal/apierror"
)

// ErrInvalidPayload marks a payload rejected before it was sent.
var ErrInvalidPayload = apierror.ErrInvalidPayload

var payloadValidate *validator.Validate

func init() {
	payloadValidate = validator.New(validator.WithRequiredStructEnabled())
	payloadValidate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// validatePayload checks shape only: required fields and the
// duration-iff-window rule. Business rules stay with the service. A
// rejection is an *apierror.Error with no status that wraps ErrInvalidPayload.
func validatePayload(payload any) error {
	err := payloadValidate.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apierror.Rejected(err.Error())
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describeField(fe))
	}
	return apierror.Rejected(strings.Join(problems, "; "))
}

func describeField(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "required_if":
		return fe.Field() + " is required for window schedules"
	case "excluded_if":
		return fe.Field() + " is only allowed for window schedules"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "url":
		return fe.Field() + " must be an absolute URL"
	}
	return fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag())
}
