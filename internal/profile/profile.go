package profile

import (
	"fmt"
	"strings"
	"time"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
)

// Context implements domain.Personalization over an optionally loaded
// profile. A nil profile means depersonalized mode.
type Context struct {
	profile *domain.UserProfile
	now     func() time.Time
}

// NewContext wraps a loaded profile; pass nil for depersonalized mode.
func NewContext(p *domain.UserProfile) *Context {
	return &Context{profile: p, now: time.Now}
}

// WithClock overrides the time source. Used by tests.
func (c *Context) WithClock(now func() time.Time) *Context {
	c.now = now
	return c
}

func (c *Context) Profile() (*domain.UserProfile, bool) {
	if c.profile == nil {
		return nil, false
	}
	return c.profile, true
}

// UserContext renders a short text summary of who the user is, suitable
// for embedding into a system prompt.
func (c *Context) UserContext() string {
	p := c.profile
	if p == nil {
		return "Профиль пользователя не загружен."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Пользователь: %s", p.Name)
	if p.Role != "" {
		fmt.Fprintf(&b, ", роль: %s", p.Role)
	}
	if p.Experience != "" {
		fmt.Fprintf(&b, ", опыт: %s", p.Experience)
	}
	if p.Timezone != "" {
		fmt.Fprintf(&b, ", часовой пояс: %s", p.Timezone)
	}
	b.WriteString(".")
	if len(p.Responsibility.Services) > 0 {
		fmt.Fprintf(&b, " Отвечает за сервисы: %s.", strings.Join(p.Responsibility.Services, ", "))
	}
	if len(p.Responsibility.CriticalErrors) > 0 {
		fmt.Fprintf(&b, " Критичные ошибки: %s.", strings.Join(p.Responsibility.CriticalErrors, ", "))
	}
	return b.String()
}

// IsRelevantToUser reports whether a record matters to the user: its
// service is in the responsibility set or its error type is in the
// critical set. Both comparisons are case-insensitive exact matches.
func (c *Context) IsRelevantToUser(service, errorType string) bool {
	p := c.profile
	if p == nil {
		return false
	}
	for _, s := range p.Responsibility.Services {
		if strings.EqualFold(s, service) {
			return true
		}
	}
	for _, e := range p.Responsibility.CriticalErrors {
		if strings.EqualFold(e, errorType) {
			return true
		}
	}
	return false
}

// Greeting picks a salutation by local hour-of-day bucket.
func (c *Context) Greeting() string {
	hour := c.localNow().Hour()
	var greeting string
	switch {
	case hour >= 5 && hour < 12:
		greeting = "Доброе утро"
	case hour >= 12 && hour < 18:
		greeting = "Добрый день"
	case hour >= 18 && hour < 23:
		greeting = "Добрый вечер"
	default:
		greeting = "Доброй ночи"
	}
	if c.profile != nil && c.profile.Name != "" {
		return greeting + ", " + c.profile.Name + "!"
	}
	return greeting + "!"
}

// IsWorkingHours compares the current HH:MM against the profile window,
// both bounds inclusive. Without a profile it reports false.
func (c *Context) IsWorkingHours() bool {
	p := c.profile
	if p == nil {
		return false
	}
	start, err := time.Parse("15:04", p.WorkingHours.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse("15:04", p.WorkingHours.End)
	if err != nil {
		return false
	}
	now := c.localNow()
	cur := now.Hour()*60 + now.Minute()
	lo := start.Hour()*60 + start.Minute()
	hi := end.Hour()*60 + end.Minute()
	return cur >= lo && cur <= hi
}

func (c *Context) localNow() time.Time {
	now := c.now()
	if c.profile != nil && c.profile.Timezone != "" {
		if loc, err := time.LoadLocation(c.profile.Timezone); err == nil {
			return now.In(loc)
		}
	}
	return now
}
