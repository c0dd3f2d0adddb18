package recommend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"github.com/streamscout/streamscout/internal/config"
)

const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
)

var (
	ErrNotConfigured   = errors.New("openai not configured")
	ErrEmptyCompletion = errors.New("completion has no choices")
)

// Completer turns a prompt into model text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	IsConfigured() bool
}

// OpenAICompleter is a Completer backed by the chat completions API.
type OpenAICompleter struct {
	client      *openai.Client
	model       string
	temperature float32
	configured  bool
	logger      zerolog.Logger
}

// NewOpenAICompleter creates a completer from config.
func NewOpenAICompleter(cfg config.OpenAIConfig, logger zerolog.Logger) *OpenAICompleter {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	occ := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		occ.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	occ.HTTPClient = &http.Client{Timeout: timeout}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &OpenAICompleter{
		client:      openai.NewClientWithConfig(occ),
		model:       model,
		temperature: DefaultTemperature,
		configured:  cfg.APIKey != "",
		logger:      logger.With().Str("component", "openai").Logger(),
	}
}

// Name returns the backend name.
func (c *OpenAICompleter) Name() string {
	return "openai"
}

// IsConfigured reports whether an API key is present.
func (c *OpenAICompleter) IsConfigured() bool {
	return c.configured
}

// Complete sends prompt as a single user message and returns the first choice.
func (c *OpenAICompleter) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.configured {
		return "", ErrNotConfigured
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("totalTokens", resp.Usage.TotalTokens).
		Dur("elapsed", time.Since(start)).
		Msg("Completion received")

	return resp.Choices[0].Message.Content, nil
}

// Test checks the key by fetching the configured model.
func (c *OpenAICompleter) Test(ctx context.Context) error {
	if !c.configured {
		return ErrNotConfigured
	}
	if _, err := c.client.GetModel(ctx, c.model); err != nil {
		return fmt.Errorf("get model %s: %w", c.model, err)
	}
	return nil
}
