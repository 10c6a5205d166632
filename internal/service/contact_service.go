package service

import (
	"context"
	"errors"

	"github.com/portfolio/backend/internal/botscore"
	"github.com/portfolio/backend/internal/model"
)

// ErrDispatchFailed is returned when an accepted submission could not be
// handed to the notification dispatcher.
var ErrDispatchFailed = errors.New("failed to send notification")

// State is the terminal state of a submission.
type State int

const (
	StateRejected State = iota
	StateSuppressed
	StateForwarded
)

func (s State) String() string {
	switch s {
	case StateRejected:
		return "rejected"
	case StateSuppressed:
		return "suppressed"
	case StateForwarded:
		return "forwarded"
	}
	return "unknown"
}

// Decision describes what happened to a submission.
type Decision struct {
	State      State
	Submission model.Submission
	Score      int
	Hits       []botscore.Hit
}

// Dispatcher delivers the notifications for an accepted submission.
type Dispatcher interface {
	SendAdminNotification(ctx context.Context, sub model.Submission) error
	SendAutoReply(ctx context.Context, sub model.Submission) error
}

// ContactService defines the business logic for contact form submissions.
type ContactService interface {
	// Submit validates and scores req. A validation failure returns
	// validation.Errors with a StateRejected decision. A suspected bot gets a
	// StateSuppressed decision and no error, and nothing is dispatched.
	// Otherwise both notifications are sent and any failure is reported as
	// ErrDispatchFailed.
	Submit(ctx context.Context, req model.ContactRequest, sc model.ScoringContext) (Decision, error)
}
