// Package openai implements the generation.Gateway interface against any
// chat-completions compatible endpoint, including DeepSeek and self-hosted
// gateways exposing the same wire contract.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/darvell/inkmill/internal/config"
	"github.com/darvell/inkmill/internal/generation"
	"github.com/darvell/inkmill/internal/platform/logger"
)

// Base URLs for the known providers. The custom provider supplies its own.
const (
	deepseekBaseURL = "https://api.deepseek.com"
)

// Common errors returned by the gateway.
var (
	// ErrInvalidConfig is returned when the gateway cannot be constructed
	// from the given settings.
	ErrInvalidConfig = errors.New("invalid LLM gateway configuration")

	// ErrAPIFailure is returned when the endpoint keeps failing after the
	// retry budget is spent.
	ErrAPIFailure = errors.New("LLM API request failed")
)

// Gateway sends chat completion requests with bounded retries. The SDK's
// own retry layer is disabled so the backoff policy lives in one place.
type Gateway struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	maxRetries  int
	baseDelay   time.Duration
	logger      *slog.Logger
	rng         *rand.Rand
}

// New creates a Gateway from LLM configuration. The provider selects the
// base URL: deepseek maps to its public endpoint, openai uses the SDK
// default, custom requires an explicit base_url.
func New(cfg config.LLMConfig, log *slog.Logger) (*Gateway, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: api key cannot be empty", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model cannot be empty", ErrInvalidConfig)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}

	switch cfg.Provider {
	case "deepseek":
		opts = append(opts, option.WithBaseURL(deepseekBaseURL))
	case "openai":
		// SDK default endpoint.
	case "custom":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("%w: custom provider requires base_url", ErrInvalidConfig)
		}
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidConfig, cfg.Provider)
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	if log == nil {
		log = slog.Default()
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := cfg.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	return &Gateway{
		client:      openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  maxRetries,
		baseDelay:   time.Duration(baseDelaySeconds) * time.Second,
		logger:      log.With("component", "llm_gateway"),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Generate implements generation.Gateway. Every failed attempt consumes a
// retry, transport errors and malformed responses alike, with exponential
// backoff and jitter between attempts; once the budget is spent it gives
// up with ErrAPIFailure.
func (g *Gateway) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if userPrompt == "" {
		return "", generation.ErrEmptyPrompt
	}

	log := logger.FromContextOrDefault(ctx, g.logger)

	maxRetries := g.maxRetries

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		text, err := g.complete(ctx, systemPrompt, userPrompt)
		if err == nil {
			return generation.StripCodeFence(text), nil
		}
		lastErr = err

		log.WarnContext(ctx, "chat completion request failed",
			"attempt", attempt+1,
			"max_attempts", maxRetries+1,
			"error", err)

		if attempt == maxRetries {
			break
		}

		// delay = base * 2^attempt, scaled by jitter in [0.5, 1.0).
		backoff := float64(g.baseDelay) * math.Pow(2, float64(attempt))
		jitter := 0.5 + g.rng.Float64()*0.5
		delay := time.Duration(backoff * jitter)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", fmt.Errorf("%w: %v", ErrAPIFailure, ctx.Err())
		}
	}

	return "", fmt.Errorf("%w: exhausted %d attempts: %v", ErrAPIFailure, maxRetries+1, lastErr)
}

func (g *Gateway) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if systemPrompt != "" {
		msgs = append(msgs, openai.SystemMessage(systemPrompt))
	}
	msgs = append(msgs, openai.UserMessage(userPrompt))

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(g.model),
		Messages: msgs,
	}
	if g.temperature > 0 {
		params.Temperature = openai.Float(g.temperature)
	}
	if g.maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(g.maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in completion", generation.ErrInvalidResponse)
	}
	content := resp.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("%w: empty message content", generation.ErrInvalidResponse)
	}
	return content, nil
}
