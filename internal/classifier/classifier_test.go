package classifier

import (
	"testing"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

func TestClassify(t *testing.T) {
	c := New()
	cases := []struct {
		question string
		want     domain.QueryIntent
	}{
		{"Как меня зовут?", domain.IntentNameLookup},
		{"What is my name", domain.IntentNameLookup},
		{"Кто я?", domain.IntentPersonalProfile},
		{"Расскажи обо мне", domain.IntentPersonalProfile},
		{"Tell me about me", domain.IntentPersonalProfile},
		{"Какая у меня роль? Покажи мой профиль", domain.IntentPersonalProfile},
		{"Сколько ошибок Timeout?", domain.IntentStatistical},
		{"How many errors happened today?", domain.IntentStatistical},
		{"Какие самые частые ошибки?", domain.IntentStatistical},
		{"Top services by error count", domain.IntentStatistical},
		{"Почему падает payment сервис?", domain.IntentAnalytical},
		{"Explain the OutOfMemoryError stack trace", domain.IntentAnalytical},
		{"", domain.IntentAnalytical},
	}
	for _, tc := range cases {
		if got := c.Classify(tc.question); got != tc.want {
			t.Errorf("Classify(%q) = %s, want %s", tc.question, got, tc.want)
		}
	}
}

func TestClassifyPrecedence(t *testing.T) {
	c := New()
	// Matches both the name and the statistical rules; the name rule is
	// evaluated first and must win.
	q := "как меня зовут и сколько всего ошибок"
	if got := c.Classify(q); got != domain.IntentNameLookup {
		t.Errorf("Classify(%q) = %s, want name_lookup", q, got)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"  Как   меня ЗОВУТ?!  ", "как меня зовут"},
		{"What's\tmy\nname...", "whats my name"},
		{"«топ» ошибок; сегодня", "топ ошибок сегодня"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
