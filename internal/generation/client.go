// AngelaMos | 2026
// client.go

package generation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
)

const (
	FinishStop      = string(genai.FinishReasonStop)
	FinishMaxTokens = string(genai.FinishReasonMaxTokens)

	mimeJSON = "application/json"
)

// StatusError reports a non-2xx answer from the model API.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("generation api returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return core.ErrUpstream
}

// Completion is a single candidate's text plus why the model stopped.
type Completion struct {
	Text         string
	FinishReason string
}

// Request is one prompt and its output limits.
type Request struct {
	Prompt          string
	MaxOutputTokens int
	Temperature     float64
	JSON            bool
}

// Client wraps the Gemini API client.
type Client struct {
	cfg        config.GenerationConfig
	httpClient *http.Client
	models     *genai.Models
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

func NewClient(ctx context.Context, cfg config.GenerationConfig, opts ...Option) (*Client, error) {
	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
	for _, opt := range opts {
		opt(c)
	}

	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create generation client: %w", err)
	}
	c.models = api.Models

	return c, nil
}

// Complete sends req and returns the first candidate. An empty candidate
// list is reported as ErrEmptyContent.
func (c *Client) Complete(ctx context.Context, req Request) (Completion, error) {
	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxOutputTokens), //nolint:gosec // bounded by config
		Temperature:     genai.Ptr(float32(req.Temperature)),
	}
	if req.JSON {
		genCfg.ResponseMIMEType = mimeJSON
	}

	resp, err := c.models.GenerateContent(ctx, c.cfg.Model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return Completion{}, &StatusError{StatusCode: apiErr.Code, Body: summarize(apiErr.Message)}
		}
		return Completion{}, fmt.Errorf("generate: %w: %w", core.ErrUpstream, err)
	}

	if len(resp.Candidates) == 0 {
		if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" {
			return Completion{}, fmt.Errorf("%w: blocked: %s", ErrEmptyContent, fb.BlockReason)
		}
		return Completion{}, fmt.Errorf("%w: no candidates", ErrEmptyContent)
	}

	first := resp.Candidates[0]
	var text strings.Builder
	if first.Content != nil {
		for _, p := range first.Content.Parts {
			if p != nil && !p.Thought {
				text.WriteString(p.Text)
			}
		}
	}

	return Completion{Text: text.String(), FinishReason: string(first.FinishReason)}, nil
}

func summarize(s string) string {
	clean := strings.Join(strings.Fields(s), " ")
	runes := []rune(clean)
	if len(runes) > 160 {
		return string(runes[:160]) + "..."
	}
	if clean == "" {
		return "<empty>"
	}
	return clean
}
