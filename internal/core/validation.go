package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/wirechat-dm/internal/apperr"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs tag validation and folds failures into one ValidationError.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation("invalid request: %v", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, describe(fe))
	}
	return apperr.Validation("%s", strings.Join(problems, "; "))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch {
	case field == "ConversationID":
		field = "conversationId"
	case field == "Content":
		field = "content"
	case strings.HasPrefix(field, "ParticipantIDs"):
		field = "participants"
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "uuid":
		return field + " is malformed"
	case "min":
		return fmt.Sprintf("%s needs at least %s entries", field, fe.Param())
	case "gt":
		return field + " must contain positive user ids"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
