package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/portfolio/backend/internal/botscore"
	"github.com/portfolio/backend/internal/metrics"
	"github.com/portfolio/backend/internal/model"
	"github.com/portfolio/backend/internal/validation"
)

// contactServiceImpl is the production implementation of ContactService.
type contactServiceImpl struct {
	validator  *validation.Validator
	engine     *botscore.Engine
	dispatcher Dispatcher
}

// NewContactService creates a ContactService. All collaborators are required.
func NewContactService(v *validation.Validator, e *botscore.Engine, d Dispatcher) ContactService {
	if v == nil || e == nil || d == nil {
		panic("service: NewContactService requires a validator, an engine and a dispatcher")
	}
	return &contactServiceImpl{validator: v, engine: e, dispatcher: d}
}

func (s *contactServiceImpl) Submit(ctx context.Context, req model.ContactRequest, sc model.ScoringContext) (Decision, error) {
	sub, err := s.validator.Validate(req)
	if err != nil {
		metrics.Submissions.WithLabelValues(metrics.OutcomeRejected).Inc()
		slog.Info("contact submission rejected", "client_ip", sc.ClientIP, "error", err)
		return Decision{State: StateRejected}, err
	}

	report := s.engine.Evaluate(sub, sc)
	metrics.BotScore.Observe(float64(report.Score))
	d := Decision{Submission: sub, Score: report.Score, Hits: report.Hits}

	if report.Bot {
		d.State = StateSuppressed
		metrics.Submissions.WithLabelValues(metrics.OutcomeSuppressed).Inc()
		slog.Warn("bot submission suppressed",
			"client_ip", sc.ClientIP,
			"score", report.Score,
			"rules", ruleNames(report.Hits),
			"user_agent", sc.UserAgent,
		)
		return d, nil
	}

	if err := s.dispatch(ctx, sub); err != nil {
		d.State = StateForwarded
		metrics.Submissions.WithLabelValues(metrics.OutcomeFailed).Inc()
		slog.Error("contact dispatch failed", "client_ip", sc.ClientIP, "score", report.Score, "error", err)
		return d, fmt.Errorf("%w: %w", ErrDispatchFailed, err)
	}

	d.State = StateForwarded
	metrics.Submissions.WithLabelValues(metrics.OutcomeForwarded).Inc()
	slog.Info("contact submission forwarded", "client_ip", sc.ClientIP, "score", report.Score)
	return d, nil
}

// dispatch sends both notifications concurrently and waits for both. The
// sends are detached from caller cancellation so a dropped connection does
// not abort a half-delivered pair.
func (s *contactServiceImpl) dispatch(ctx context.Context, sub model.Submission) error {
	ctx = context.WithoutCancel(ctx)

	var g errgroup.Group
	g.Go(func() error { return s.dispatcher.SendAdminNotification(ctx, sub) })
	g.Go(func() error { return s.dispatcher.SendAutoReply(ctx, sub) })
	return g.Wait()
}

func ruleNames(hits []botscore.Hit) []string {
	names := make([]string, len(hits))
	for i, h := range hits {
		names[i] = h.Rule
	}
	return names
}
