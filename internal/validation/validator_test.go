package validation

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/portfolio/backend/internal/model"
)

func validRequest() model.ContactRequest {
	return model.ContactRequest{
		Name:     "Bob",
		Email:    "bob@normal.com",
		Subject:  "Hello there",
		Message:  "This is a perfectly normal inquiry about your services.",
		NotRobot: json.RawMessage(`true`),
	}
}

func fieldErrors(t *testing.T, err error) Errors {
	t.Helper()
	var errs Errors
	require.True(t, errors.As(err, &errs), "expected validation.Errors, got %T: %v", err, err)
	return errs
}

func TestValidate_ValidRequestIsNormalized(t *testing.T) {
	req := validRequest()
	req.Name = "  Bob  "
	req.Email = "  Bob@Normal.COM "
	req.Subject = " Hello there "
	req.Message = "\n" + req.Message + "  "

	sub, err := New().Validate(req)
	require.NoError(t, err)

	assert.Equal(t, "Bob", sub.Name)
	assert.Equal(t, "bob@normal.com", sub.Email)
	assert.Equal(t, "Hello there", sub.Subject)
	assert.Equal(t, "This is a perfectly normal inquiry about your services.", sub.Message)
	assert.True(t, sub.HumanAcknowledged)
	assert.Nil(t, sub.ElapsedFillTime)
}

func TestValidate_FieldBounds(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*model.ContactRequest)
		field   string
		message string
	}{
		{"name too short", func(r *model.ContactRequest) { r.Name = "B" }, "name", "Name must be between 2 and 100 characters"},
		{"name too long", func(r *model.ContactRequest) { r.Name = strings.Repeat("a", 101) }, "name", "Name must be between 2 and 100 characters"},
		{"name missing", func(r *model.ContactRequest) { r.Name = "   " }, "name", "Name is required"},
		{"name with digits", func(r *model.ContactRequest) { r.Name = "Bob3" }, "name", "Name can only contain letters and spaces"},
		{"name with punctuation", func(r *model.ContactRequest) { r.Name = "O'Brien" }, "name", "Name can only contain letters and spaces"},
		{"email missing", func(r *model.ContactRequest) { r.Email = "" }, "email", "Email is required"},
		{"email malformed", func(r *model.ContactRequest) { r.Email = "not-an-email" }, "email", "Please provide a valid email address"},
		{"subject too short", func(r *model.ContactRequest) { r.Subject = "Hi" }, "subject", "Subject must be between 3 and 200 characters"},
		{"subject too long", func(r *model.ContactRequest) { r.Subject = strings.Repeat("s", 201) }, "subject", "Subject must be between 3 and 200 characters"},
		{"message missing", func(r *model.ContactRequest) { r.Message = "" }, "message", "Message is required"},
		{"message too short", func(r *model.ContactRequest) { r.Message = "too short" }, "message", "Message must be between 10 and 5000 characters"},
		{"message far too long", func(r *model.ContactRequest) { r.Message = strings.Repeat("m", 9999) }, "message", "Message must be between 10 and 5000 characters"},
		{"honeypot filled", func(r *model.ContactRequest) { r.Website = "http://spam.example" }, "website", "Spam detected"},
		{"timing too fast", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`2999`) }, "_formTiming", "Form submission timing is suspicious"},
		{"timing too slow", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`3600001`) }, "_formTiming", "Form submission timing is suspicious"},
		{"timing fractional", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`5000.5`) }, "_formTiming", "Form submission timing is suspicious"},
		{"timing not a number", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`"soon"`) }, "_formTiming", "Form submission timing is suspicious"},
		{"timing null", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`null`) }, "_formTiming", "Form submission timing is suspicious"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)

			_, err := v.Validate(req)
			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, tt.field, errs[0].Field)
			assert.Equal(t, tt.message, errs[0].Message)
		})
	}
}

func TestValidate_BoundariesAccepted(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*model.ContactRequest)
	}{
		{"name of 2", func(r *model.ContactRequest) { r.Name = "Al" }},
		{"name of 100", func(r *model.ContactRequest) { r.Name = strings.Repeat("a", 100) }},
		{"subject of 3", func(r *model.ContactRequest) { r.Subject = "Hey" }},
		{"message of 10", func(r *model.ContactRequest) { r.Message = "0123456789" }},
		{"message of 5000", func(r *model.ContactRequest) { r.Message = strings.Repeat("m", 5000) }},
		{"blank honeypot", func(r *model.ContactRequest) { r.Website = "   " }},
		{"timing lower bound", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`3000`) }},
		{"timing upper bound", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`3600000`) }},
		{"timing as string", func(r *model.ContactRequest) { r.FormTiming = json.RawMessage(`"45000"`) }},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			_, err := v.Validate(req)
			assert.NoError(t, err)
		})
	}
}

func TestValidate_FormTimingIsCarried(t *testing.T) {
	req := validRequest()
	req.FormTiming = json.RawMessage(`"45000"`)

	sub, err := New().Validate(req)
	require.NoError(t, err)
	require.NotNil(t, sub.ElapsedFillTime)
	assert.Equal(t, 45000, *sub.ElapsedFillTime)
}

func TestValidate_HumanAcknowledged(t *testing.T) {
	tests := []struct {
		raw  string
		pass bool
	}{
		{`true`, true},
		{`"true"`, true},
		{``, false},
		{`false`, false},
		{`"false"`, false},
		{`"yes"`, false},
		{`"TRUE"`, false},
		{`1`, false},
		{`null`, false},
	}

	v := New()
	for _, tt := range tests {
		t.Run("notRobot="+tt.raw, func(t *testing.T) {
			req := validRequest()
			req.NotRobot = json.RawMessage(tt.raw)

			_, err := v.Validate(req)
			if tt.pass {
				assert.NoError(t, err)
				return
			}
			errs := fieldErrors(t, err)
			require.Len(t, errs, 1)
			assert.Equal(t, "notRobot", errs[0].Field)
			assert.Equal(t, "Human verification failed. Please confirm you are not a robot.", errs[0].Message)
		})
	}
}

func TestValidate_HoneypotRejectsOtherwiseValidRequest(t *testing.T) {
	req := validRequest()
	req.Website = "x"

	_, err := New().Validate(req)
	errs := fieldErrors(t, err)
	assert.Equal(t, Errors{{Field: "website", Message: "Spam detected"}}, errs)
}

func TestValidate_ReportsEveryFailedFieldInOrder(t *testing.T) {
	req := model.ContactRequest{
		Name:       "B",
		Email:      "nope",
		Subject:    "Hi",
		Message:    "short",
		Website:    "filled",
		FormTiming: json.RawMessage(`10`),
	}

	_, err := New().Validate(req)
	errs := fieldErrors(t, err)

	fields := make([]string, 0, len(errs))
	for _, fe := range errs {
		fields = append(fields, fe.Field)
	}
	assert.Equal(t, []string{"name", "email", "subject", "message", "website", "notRobot", "_formTiming"}, fields)
	assert.Contains(t, err.Error(), "name: Name must be between 2 and 100 characters")
}
