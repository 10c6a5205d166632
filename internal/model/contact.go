package model

import "encoding/json"

// ContactRequest is the JSON body accepted by POST /api/contact.
// notRobot and _formTiming are kept raw because browsers send them either as
// JSON literals or as strings.
type ContactRequest struct {
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	Subject    string          `json:"subject"`
	Message    string          `json:"message"`
	Website    string          `json:"website,omitempty"` // honeypot, must stay empty
	NotRobot   json.RawMessage `json:"notRobot,omitempty"`
	FormTiming json.RawMessage `json:"_formTiming,omitempty"`
}

// Submission is a contact request that passed validation. Strings are trimmed
// and the email address is normalized.
type Submission struct {
	Name              string `json:"name"`
	Email             string `json:"email"`
	Subject           string `json:"subject"`
	Message           string `json:"message"`
	HumanAcknowledged bool   `json:"-"`
	// ElapsedFillTime is the client-reported form fill time in milliseconds.
	// nil when the client did not send one.
	ElapsedFillTime *int `json:"-"`
}

// ScoringContext carries request metadata that is not part of the form.
type ScoringContext struct {
	UserAgent string
	Referer   string
	ClientIP  string // logging only
}

// FieldError describes one failed validation rule.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
