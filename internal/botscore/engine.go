// Package botscore estimates how likely a contact submission was sent by an
// automated client. Scores are the sum of independent weighted rules.
package botscore

import "github.com/portfolio/backend/internal/model"

// DefaultThreshold is the highest score still treated as human.
const DefaultThreshold = 5

// MatchFunc reports whether a rule's signal is present.
type MatchFunc func(model.Submission, model.ScoringContext) bool

// Rule is one weighted signal. A matching rule adds Points once.
type Rule struct {
	Name   string
	Points int
	Match  MatchFunc
}

// Hit records a rule that matched.
type Hit struct {
	Rule   string `json:"rule"`
	Points int    `json:"points"`
}

// Report is the outcome of scoring one submission.
type Report struct {
	Score int   `json:"score"`
	Bot   bool  `json:"bot"`
	Hits  []Hit `json:"hits"`
}

// Engine scores submissions against a fixed rule list. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	rules     []Rule
	threshold int
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(n int) Option {
	return func(e *Engine) { e.threshold = n }
}

// WithRules appends rules to the default set.
func WithRules(rules ...Rule) Option {
	return func(e *Engine) { e.rules = append(e.rules, rules...) }
}

// New returns an Engine using DefaultRules.
func New(opts ...Option) *Engine {
	e := &Engine{rules: DefaultRules(), threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every rule and returns the total along with the matches.
func (e *Engine) Evaluate(sub model.Submission, sc model.ScoringContext) Report {
	var r Report
	for _, rule := range e.rules {
		if rule.Points <= 0 || !rule.Match(sub, sc) {
			continue
		}
		r.Score += rule.Points
		r.Hits = append(r.Hits, Hit{Rule: rule.Name, Points: rule.Points})
	}
	r.Bot = e.IsBot(r.Score)
	return r
}

// Score is Evaluate without the breakdown.
func (e *Engine) Score(sub model.Submission, sc model.ScoringContext) int {
	return e.Evaluate(sub, sc).Score
}

// IsBot reports whether score is above the threshold.
func (e *Engine) IsBot(score int) bool {
	return score > e.threshold
}

// Threshold returns the configured threshold.
func (e *Engine) Threshold() int {
	return e.threshold
}
