// Package validation holds the rules a registration submission must pass
// before any inventory check or write happens. It performs no I/O.
package validation

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/gdg-garage/event-tickets/internal/models"
	"github.com/go-playground/validator/v10"
)

// RegistrationInput is the raw form submission.
type RegistrationInput struct {
	FullName      string `json:"fullName" validate:"min=2,max=100"`
	Email         string `json:"email" validate:"required,email"`
	Phone         string `json:"phone" validate:"min=10,max=15"`
	TicketType    string `json:"ticketType,omitempty" validate:"omitempty,oneof=vip regular"`
	PairingChoice string `json:"pairingChoice" validate:"required,oneof=wine juice"`
	HasAllergies  string `json:"hasAllergies" validate:"required,oneof=yes no"`
	Allergies     string `json:"allergies,omitempty"`
	AgreedToTerms bool   `json:"agreedToTerms" validate:"required"`
}

// Submission is an input that passed validation, with typed enums.
type Submission struct {
	FullName      string
	Email         string
	Phone         string
	TicketType    models.TicketType
	PairingChoice models.PairingChoice
	HasAllergies  models.AllergyFlag
	Allergies     string
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors lists at most one message per field, in struct order with
// the cross-field allergies rule last.
type FieldErrors []FieldError

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Get returns the message recorded for field, if any.
func (fe FieldErrors) Get(field string) (string, bool) {
	for _, e := range fe {
		if e.Field == field {
			return e.Message, true
		}
	}
	return "", false
}

const tagAllergiesRequired = "allergies_required"

var messages = map[string]map[string]string{
	"fullName": {
		"min": "Full name must be at least 2 characters",
		"max": "Full name must be less than 100 characters",
	},
	"email": {
		"required": "Please enter a valid email address",
		"email":    "Please enter a valid email address",
	},
	"phone": {
		"min": "Phone number must be at least 10 digits",
		"max": "Phone number must be less than 15 digits",
	},
	"ticketType": {
		"oneof": "Please select a valid ticket type",
	},
	"pairingChoice": {
		"required": "Please select a pairing choice",
		"oneof":    "Please select a pairing choice",
	},
	"hasAllergies": {
		"required": "Please specify if you have allergies",
		"oneof":    "Please specify if you have allergies",
	},
	"allergies": {
		tagAllergiesRequired: "Please specify your allergies or dietary restrictions",
	},
	"agreedToTerms": {
		"required": "You must agree to the terms and conditions",
	},
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	v.RegisterStructValidation(allergiesRule, RegistrationInput{})
	return v
}

// allergiesRule runs after the field rules.
func allergiesRule(sl validator.StructLevel) {
	in := sl.Current().Interface().(RegistrationInput)
	if in.HasAllergies == string(models.AllergiesYes) && strings.TrimSpace(in.Allergies) == "" {
		sl.ReportError(in.Allergies, "allergies", "Allergies", tagAllergiesRequired, "")
	}
}

// Validate checks in and returns the typed submission, or FieldErrors.
func Validate(ctx context.Context, in RegistrationInput) (Submission, error) {
	err := validate.StructCtx(ctx, in)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return Submission{}, err
		}
		return Submission{}, toFieldErrors(verrs)
	}

	ticket := models.TicketType(in.TicketType)
	if ticket == "" {
		ticket = models.TicketRegular
	}

	return Submission{
		FullName:      in.FullName,
		Email:         in.Email,
		Phone:         in.Phone,
		TicketType:    ticket,
		PairingChoice: models.PairingChoice(in.PairingChoice),
		HasAllergies:  models.AllergyFlag(in.HasAllergies),
		Allergies:     in.Allergies,
	}, nil
}

func toFieldErrors(verrs validator.ValidationErrors) FieldErrors {
	out := make(FieldErrors, 0, len(verrs))
	seen := make(map[string]bool, len(verrs))
	for _, ve := range verrs {
		field := ve.Field()
		if seen[field] {
			continue
		}
		seen[field] = true
		msg, ok := messages[field][ve.Tag()]
		if !ok {
			msg = "Invalid value"
		}
		out = append(out, FieldError{Field: field, Message: msg})
	}
	return out
}
