// Package validation checks contact form submissions for structural
// well-formedness and normalizes the accepted fields.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/portfolio/backend/internal/model"
)

// Accepted range for the client-reported form fill time, in milliseconds.
const (
	MinFillTime = 3000
	MaxFillTime = 3600000
)

const (
	msgSpam   = "Spam detected"
	msgHuman  = "Human verification failed. Please confirm you are not a robot."
	msgTiming = "Form submission timing is suspicious"
)

// fieldMessages maps field name and failed tag to the user-facing message.
var fieldMessages = map[string]map[string]string{
	"name": {
		"required":   "Name is required",
		"min":        "Name must be between 2 and 100 characters",
		"max":        "Name must be between 2 and 100 characters",
		"alphaspace": "Name can only contain letters and spaces",
	},
	"email": {
		"required": "Email is required",
		"email":    "Please provide a valid email address",
	},
	"subject": {
		"required": "Subject is required",
		"min":      "Subject must be between 3 and 200 characters",
		"max":      "Subject must be between 3 and 200 characters",
	},
	"message": {
		"required": "Message is required",
		"min":      "Message must be between 10 and 5000 characters",
		"max":      "Message must be between 10 and 5000 characters",
	},
	"website":  {"max": msgSpam},
	"notRobot": {"required": msgHuman},
}

// contactForm is the trimmed view of a ContactRequest that the struct
// validator runs over. Field order is the order errors are reported in.
type contactForm struct {
	Name     string `json:"name" validate:"required,min=2,max=100,alphaspace"`
	Email    string `json:"email" validate:"required,email"`
	Subject  string `json:"subject" validate:"required,min=3,max=200"`
	Message  string `json:"message" validate:"required,min=10,max=5000"`
	Website  string `json:"website" validate:"max=0"`
	NotRobot bool   `json:"notRobot" validate:"required"`
}

// Errors lists the fields that failed validation, at most one entry per field.
type Errors []model.FieldError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validator validates ContactRequests. It is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New builds a Validator with the contact form rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	if err := v.RegisterValidation("alphaspace", isAlphaSpace); err != nil {
		panic(fmt.Sprintf("validation: register alphaspace: %v", err))
	}
	return &Validator{v: v}
}

// Validate returns the normalized submission, or an Errors value describing
// every failed field.
func (val *Validator) Validate(req model.ContactRequest) (model.Submission, error) {
	form := contactForm{
		Name:     strings.TrimSpace(req.Name),
		Email:    strings.TrimSpace(req.Email),
		Subject:  strings.TrimSpace(req.Subject),
		Message:  strings.TrimSpace(req.Message),
		Website:  strings.TrimSpace(req.Website),
		NotRobot: humanAcknowledged(req.NotRobot),
	}

	var errs Errors
	if err := val.v.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return model.Submission{}, fmt.Errorf("validate contact form: %w", err)
		}
		for _, fe := range verrs {
			errs = append(errs, model.FieldError{Field: fe.Field(), Message: messageFor(fe.Field(), fe.Tag())})
		}
	}

	timing, ok := parseFormTiming(req.FormTiming)
	if !ok || (timing != nil && (*timing < MinFillTime || *timing > MaxFillTime)) {
		errs = append(errs, model.FieldError{Field: "_formTiming", Message: msgTiming})
	}

	if len(errs) > 0 {
		return model.Submission{}, errs
	}

	return model.Submission{
		Name:              form.Name,
		Email:             NormalizeEmail(form.Email),
		Subject:           form.Subject,
		Message:           form.Message,
		HumanAcknowledged: true,
		ElapsedFillTime:   timing,
	}, nil
}

func messageFor(field, tag string) string {
	if m, ok := fieldMessages[field][tag]; ok {
		return m
	}
	return "Invalid value"
}

// isAlphaSpace accepts ASCII letters and whitespace only.
func isAlphaSpace(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || unicode.IsSpace(r) {
			continue
		}
		return false
	}
	return true
}

// humanAcknowledged reports whether raw is the JSON literal true or the
// string "true".
func humanAcknowledged(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return bytes.Equal(raw, []byte("true")) || bytes.Equal(raw, []byte(`"true"`))
}

// parseFormTiming decodes the optional fill time. An absent value yields
// (nil, true); a value that is not an integer (JSON null included) yields
// (nil, false).
func parseFormTiming(raw json.RawMessage) (*int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, true
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, false
		}
	} else {
		s = string(raw)
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, false
	}
	return &n, true
}
