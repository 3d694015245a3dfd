package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/nikita-bekish/qwen-analyzer/internal/domain"
	"github.com/nikita-bekish/qwen-analyzer/internal/profile"
)

type fakeEmbedder struct {
	calls int
	fail  bool
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	f.calls++
	if f.fail {
		return nil, errors.New("embed backend down")
	}
	// Deterministic toy vector: length of text in two dimensions.
	return []float64{float64(len(text)), 1}, nil
}

type fakeChat struct {
	lastSystem string
	lastUser   string
	fail       bool
	chunks     []string
}

func (f *fakeChat) Chat(_ context.Context, systemPrompt, userMessage string, onToken func(string)) (string, error) {
	if f.fail {
		return "", errors.New("chat backend down")
	}
	f.lastSystem = systemPrompt
	f.lastUser = userMessage
	chunks := f.chunks
	if chunks == nil {
		chunks = []string{"ответ"}
	}
	var full strings.Builder
	for _, ch := range chunks {
		if onToken != nil {
			onToken(ch)
		}
		full.WriteString(ch)
	}
	return full.String(), nil
}

func testIndex() []domain.EmbeddedRecord {
	records := []domain.LogRecord{
		{Timestamp: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), Service: "payment", ErrorType: "Timeout", Message: "request timed out"},
		{Timestamp: time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC), Service: "payment", ErrorType: "Timeout", Message: "upstream slow"},
		{Timestamp: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC), Service: "auth", ErrorType: "AuthFailed", Message: "bad credentials"},
	}
	index := make([]domain.EmbeddedRecord, len(records))
	for i, rec := range records {
		index[i] = domain.EmbeddedRecord{Record: rec, Vector: []float64{float64(i + 1), 1}}
	}
	return index
}

func newAnalyzer(emb *fakeEmbedder, chat *fakeChat) *Analyzer {
	persona := profile.NewContext(&domain.UserProfile{
		Name:           "Никита",
		Role:           "backend engineer",
		Responsibility: domain.Responsibility{Services: []string{"payment"}},
	})
	return NewAnalyzer(testIndex(), persona, emb, chat, 0, zap.NewNop())
}

func TestAskStatisticalEndToEnd(t *testing.T) {
	emb := &fakeEmbedder{}
	chat := &fakeChat{}
	a := newAnalyzer(emb, chat)

	answer, err := a.Ask(context.Background(), "сколько ошибок Timeout?", nil)
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if answer == "" {
		t.Error("empty answer")
	}
	if emb.calls != 1 {
		t.Errorf("statistical question should embed the query once, got %d calls", emb.calls)
	}
	if !strings.Contains(chat.lastSystem, "Timeout: 2") {
		t.Errorf("assembled prompt missing aggregate Timeout count:\n%s", chat.lastSystem)
	}
	if chat.lastUser != "сколько ошибок Timeout?" {
		t.Errorf("user message = %q", chat.lastUser)
	}
	if strings.Contains(chat.lastSystem, "request timed out") {
		t.Error("statistical prompt leaked individual records")
	}
}

func TestAskNameLookupSkipsRetrieval(t *testing.T) {
	emb := &fakeEmbedder{}
	chat := &fakeChat{}
	a := newAnalyzer(emb, chat)

	if _, err := a.Ask(context.Background(), "как меня зовут?", nil); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("name lookup must bypass retrieval, embed calls = %d", emb.calls)
	}
	if !strings.Contains(chat.lastSystem, "Никита") {
		t.Error("name lookup prompt missing profile name")
	}
}

func TestAskAnalyticalRetrieves(t *testing.T) {
	emb := &fakeEmbedder{}
	chat := &fakeChat{}
	a := newAnalyzer(emb, chat)

	if _, err := a.Ask(context.Background(), "почему падает payment?", nil); err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("analytical question should embed the query, got %d calls", emb.calls)
	}
	if !strings.Contains(chat.lastSystem, "upstream slow") {
		t.Error("analytical prompt missing retrieved record")
	}
}

func TestAskForwardsTokens(t *testing.T) {
	chat := &fakeChat{chunks: []string{"два ", "токена"}}
	a := newAnalyzer(&fakeEmbedder{}, chat)

	var streamed []string
	answer, err := a.Ask(context.Background(), "сколько всего ошибок?", func(chunk string) {
		streamed = append(streamed, chunk)
	})
	if err != nil {
		t.Fatalf("ask failed: %v", err)
	}
	if len(streamed) != 2 || streamed[0] != "два " || streamed[1] != "токена" {
		t.Errorf("token forwarding broken: %v", streamed)
	}
	if answer != "два токена" {
		t.Errorf("accumulated answer = %q", answer)
	}
}

func TestAskPropagatesCollaboratorFailures(t *testing.T) {
	a := newAnalyzer(&fakeEmbedder{fail: true}, &fakeChat{})
	if _, err := a.Ask(context.Background(), "сколько ошибок?", nil); err == nil {
		t.Error("embed failure should propagate")
	}

	a = newAnalyzer(&fakeEmbedder{}, &fakeChat{fail: true})
	if _, err := a.Ask(context.Background(), "как меня зовут?", nil); err == nil {
		t.Error("chat failure should propagate")
	}
}
