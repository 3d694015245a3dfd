package classifier

import (
	"regexp"
	"strings"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// Classifier derives the intent of a natural-language question from an
// ordered list of pattern rules. The first matching rule wins, so a
// question that looks both personal and statistical still classifies by
// the earlier, more specific rule.
type Classifier struct {
	rules []rule
}

type rule struct {
	pattern *regexp.Regexp
	intent  domain.QueryIntent
}

// Note: Go's \b is ASCII-only, so Cyrillic alternatives use explicit
// space-or-end anchors instead of word boundaries.
var (
	nameLookupRe  = regexp.MustCompile(`как меня зовут|мо[её] имя|what is my name|whats my name|\bmy name\b`)
	profileRe     = regexp.MustCompile(`кто я( |$)|обо мне|про меня|мо[йя] (профиль|роль|аккаунт)|расскажи о себе|who am i\b|about me\b|my (profile|role)\b`)
	statisticalRe = regexp.MustCompile(`сколько|количество|статистик|самы[ех] част|чаще всего|топ( |$)|how many|how much|\bcounts?\b|most (frequent|common)|\btop\b|statistics|ranking`)

	punctRe      = regexp.MustCompile(`[?!.,:;"'()«»]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

func New() *Classifier {
	return &Classifier{
		rules: []rule{
			{nameLookupRe, domain.IntentNameLookup},
			{profileRe, domain.IntentPersonalProfile},
			{statisticalRe, domain.IntentStatistical},
		},
	}
}

// Classify returns the intent of the raw question, defaulting to
// analytical when no rule matches.
func (c *Classifier) Classify(question string) domain.QueryIntent {
	q := Normalize(question)
	for _, r := range c.rules {
		if r.pattern.MatchString(q) {
			return r.intent
		}
	}
	return domain.IntentAnalytical
}

// Normalize lowers the question, strips punctuation and collapses
// whitespace runs so the rule patterns see a canonical form.
func Normalize(question string) string {
	q := strings.ToLower(strings.TrimSpace(question))
	q = punctRe.ReplaceAllString(q, "")
	q = whitespaceRe.ReplaceAllString(q, " ")
	return strings.TrimSpace(q)
}
