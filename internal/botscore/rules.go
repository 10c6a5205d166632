package botscore

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/portfolio/backend/internal/model"
)

// SpamKeywords are matched case-insensitively against the message. Each
// distinct keyword present scores once.
var SpamKeywords = []string{
	"click here",
	"buy now",
	"limited offer",
	"act now",
	"viagra",
	"casino",
	"lottery",
	"prize",
}

// suspiciousEmail matches long digit runs before the '@' and throwaway
// mailbox domains.
var suspiciousEmail = regexp.MustCompile(`[0-9]{5,}@|@(?:temp|disposable|guerrilla)`)

// DefaultRules returns the contact form rule set. The slice is freshly
// allocated on each call.
func DefaultRules() []Rule {
	rules := []Rule{
		{Name: "fill_time_fast", Points: 3, Match: fillTimeBelow(3000)},
		{Name: "fill_time_very_fast", Points: 5, Match: fillTimeBelow(1000)},
		{Name: "ua_missing", Points: 2, Match: func(_ model.Submission, sc model.ScoringContext) bool {
			return sc.UserAgent == ""
		}},
		{Name: "ua_bot", Points: 3, Match: userAgentContains("bot")},
		{Name: "ua_curl", Points: 4, Match: userAgentContains("curl")},
		{Name: "ua_python", Points: 3, Match: userAgentContains("python")},
		{Name: "ua_postman", Points: 2, Match: userAgentContains("postman")},
		{Name: "referer_missing", Points: 1, Match: func(_ model.Submission, sc model.ScoringContext) bool {
			return sc.Referer == ""
		}},
	}

	for _, kw := range SpamKeywords {
		rules = append(rules, Rule{Name: "spam_keyword:" + kw, Points: 2, Match: messageContains(kw)})
	}

	return append(rules,
		Rule{Name: "email_suspicious", Points: 2, Match: func(sub model.Submission, _ model.ScoringContext) bool {
			return suspiciousEmail.MatchString(strings.ToLower(sub.Email))
		}},
		Rule{Name: "name_short", Points: 1, Match: func(sub model.Submission, _ model.ScoringContext) bool {
			return utf8.RuneCountInString(strings.TrimSpace(sub.Name)) < 3
		}},
		Rule{Name: "name_all_caps", Points: 1, Match: func(sub model.Submission, _ model.ScoringContext) bool {
			return sub.Name == strings.ToUpper(sub.Name) && utf8.RuneCountInString(sub.Name) > 3
		}},
		Rule{Name: "message_short", Points: 2, Match: func(sub model.Submission, _ model.ScoringContext) bool {
			return utf8.RuneCountInString(strings.TrimSpace(sub.Message)) < 20
		}},
		Rule{Name: "message_repeated_char", Points: 2, Match: func(sub model.Submission, _ model.ScoringContext) bool {
			return hasRun(sub.Message, 6)
		}},
	)
}

func fillTimeBelow(ms int) MatchFunc {
	return func(sub model.Submission, _ model.ScoringContext) bool {
		return sub.ElapsedFillTime != nil && *sub.ElapsedFillTime < ms
	}
}

func userAgentContains(token string) MatchFunc {
	return func(_ model.Submission, sc model.ScoringContext) bool {
		return strings.Contains(strings.ToLower(sc.UserAgent), token)
	}
}

func messageContains(keyword string) MatchFunc {
	return func(sub model.Submission, _ model.ScoringContext) bool {
		return strings.Contains(strings.ToLower(sub.Message), keyword)
	}
}

// hasRun reports whether s holds n or more consecutive copies of one
// character. Line terminators never count toward a run.
func hasRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if isLineTerminator(r) {
			run = 0
			continue
		}
		if run > 0 && r == prev {
			run++
		} else {
			prev, run = r, 1
		}
		if run >= n {
			return true
		}
	}
	return false
}

func isLineTerminator(r rune) bool {
	return r == '\n' || r == '\r' || r == '\u2028' || r == '\u2029'
}
