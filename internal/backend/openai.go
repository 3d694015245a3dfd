package backend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// EmbeddingError marks a failure of the embedding provider. It is fatal
// to the indexing run or query in progress.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string { return "embedding request failed: " + e.Err.Error() }
func (e *EmbeddingError) Unwrap() error { return e.Err }

// ChatError marks a failure of the chat provider. It is fatal to the
// current question only, not to the session.
type ChatError struct {
	Err error
}

func (e *ChatError) Error() string { return "chat request failed: " + e.Err.Error() }
func (e *ChatError) Unwrap() error { return e.Err }

// Config configures the OpenAI-compatible backend client. The base URL
// makes it work against any compatible endpoint (Qwen via a DashScope
// compatible URL, a local Ollama, or OpenAI itself).
type Config struct {
	BaseURL    string
	APIKeyEnv  string
	EmbedModel string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
}

// Client adapts go-openai to the embed and chat collaborator interfaces.
type Client struct {
	api        *openai.Client
	embedModel string
	chatModel  string
	maxRetries int
	log        *zap.Logger
}

func NewClient(cfg Config, log *zap.Logger) (*Client, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("missing API key in env %s", cfg.APIKeyEnv)
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	clientCfg := openai.DefaultConfig(key)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = 3
	}
	log.Info("backend client initialized",
		zap.String("base_url", clientCfg.BaseURL),
		zap.String("embed_model", cfg.EmbedModel),
		zap.String("chat_model", cfg.ChatModel),
	)
	return &Client{
		api:        openai.NewClientWithConfig(clientCfg),
		embedModel: cfg.EmbedModel,
		chatModel:  cfg.ChatModel,
		maxRetries: retries,
		log:        log,
	}, nil
}

// Embed returns an embedding vector for the text. Transient provider
// failures are retried with exponential backoff; once attempts are
// exhausted the error propagates and the caller aborts its whole run.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Err: errors.New("empty text")}
	}
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, &EmbeddingError{Err: ctx.Err()}
			case <-time.After(retryDelay(attempt)):
			}
			c.log.Debug("retrying embedding request", zap.Int("attempt", attempt+1))
		}
		resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
			Input: []string{text},
			Model: openai.EmbeddingModel(c.embedModel),
		})
		if err != nil {
			lastErr = err
			continue
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			lastErr = errors.New("no embedding returned")
			continue
		}
		src := resp.Data[0].Embedding
		vec := make([]float64, len(src))
		for i, v := range src {
			vec[i] = float64(v)
		}
		return vec, nil
	}
	return nil, &EmbeddingError{Err: lastErr}
}

// Chat streams a completion for the prompt pair. onToken, when non-nil,
// is invoked synchronously for every received chunk in arrival order.
func (c *Client) Chat(ctx context.Context, systemPrompt, userMessage string, onToken func(string)) (string, error) {
	stream, err := c.api.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model: c.chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userMessage},
		},
		Stream: true,
	})
	if err != nil {
		return "", &ChatError{Err: err}
	}
	defer stream.Close()

	var full strings.Builder
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", &ChatError{Err: err}
		}
		if len(resp.Choices) == 0 {
			continue
		}
		chunk := resp.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		if onToken != nil {
			onToken(chunk)
		}
		full.WriteString(chunk)
	}
	return full.String(), nil
}

func retryDelay(attempt int) time.Duration {
	d := 500 * time.Millisecond << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}
