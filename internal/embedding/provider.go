package embedding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

var (
	// ErrNotConfigured indicates the provider has no API key
	ErrNotConfigured = errors.New("embedding provider not configured")
	// ErrEmptyResponse indicates the provider returned no vector
	ErrEmptyResponse = errors.New("embedding provider returned no data")
)

// DefaultModel is used when no embedding model is configured
const DefaultModel = "text-embedding-3-small"

// Provider turns text into a fixed-length vector. Remote calls may fail
// transiently; implementations retry internally within a bounded budget.
type Provider interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// OpenAIProvider generates embeddings through the OpenAI API
type OpenAIProvider struct {
	client openai.Client
	model  string
}

// NewOpenAIProvider creates a provider. baseURL overrides the API
// endpoint for compatible gateways; empty means the default.
func NewOpenAIProvider(apiKey, model, baseURL string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, ErrNotConfigured
	}
	if model == "" {
		model = DefaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAIProvider{
		client: openai.NewClient(opts...),
		model:  model,
	}, nil
}

// Embed requests a vector for the text, retrying rate limits and server
// errors with tiered waits before giving up.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float64, error) {
	const maxRetries = 3
	rateLimitWaits := []time.Duration{20 * time.Second, 45 * time.Second, 90 * time.Second}
	serverErrorWaits := []time.Duration{2 * time.Second, 10 * time.Second, 30 * time.Second}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		resp, err := p.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfString: openai.String(text),
			},
			Model: openai.EmbeddingModel(p.model),
		})
		if err != nil {
			lastErr = err
			var wait time.Duration
			switch {
			case isRateLimitError(err):
				wait = rateLimitWaits[attempt]
			case isServerError(err):
				wait = serverErrorWaits[attempt]
			default:
				return nil, err
			}
			if attempt < maxRetries-1 {
				if err := sleepCtx(ctx, wait); err != nil {
					return nil, err
				}
				continue
			}
			break
		}
		if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
			return nil, ErrEmptyResponse
		}
		return resp.Data[0].Embedding, nil
	}
	return nil, fmt.Errorf("embedding failed after %d attempts: %w", maxRetries, lastErr)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRateLimitError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "429") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "too many requests")
}

func isServerError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "500") ||
		strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") ||
		strings.Contains(msg, "internal server error") ||
		strings.Contains(msg, "server_error")
}
