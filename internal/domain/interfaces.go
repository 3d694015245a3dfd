package domain

import "context"

// Embedder converts free text into a numeric vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// ChatProvider generates an answer for a system/user prompt pair. When
// onToken is non-nil it is invoked once per streamed chunk, in arrival
// order, before the accumulated text is returned.
type ChatProvider interface {
	Chat(ctx context.Context, systemPrompt, userMessage string, onToken func(string)) (string, error)
}

// Personalization supplies the loaded user profile and the relevance
// predicate. An implementation without a profile runs in depersonalized
// mode: Profile reports false and every predicate degrades gracefully.
type Personalization interface {
	Profile() (*UserProfile, bool)
	UserContext() string
	IsRelevantToUser(service, errorType string) bool
	Greeting() string
	IsWorkingHours() bool
}

// Analyzer is the end-to-end question-answering operation exposed to the
// interactive shell.
type Analyzer interface {
	Ask(ctx context.Context, question string, onToken func(string)) (string, error)
}
