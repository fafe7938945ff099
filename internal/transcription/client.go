// AngelaMos | 2026
// client.go

package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	assemblyai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/media"
)

var (
	ErrTranscriptionFailed = fmt.Errorf("%w: transcription failed", core.ErrUpstream)
	ErrEmptyTranscript     = fmt.Errorf("%w: transcript is empty", core.ErrUpstream)
	ErrMalformedResponse   = fmt.Errorf("%w: malformed transcription response", core.ErrUpstream)
)

const (
	defaultPollInterval   = 3 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// StatusError reports a non-2xx answer from the transcription API.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: transcription api returned %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return core.ErrUpstream
}

type Result struct {
	ID           string
	Text         string
	LanguageCode string
}

// Client submits media to AssemblyAI and polls the transcript until it
// settles.
type Client struct {
	cfg           config.TranscriptionConfig
	publicBaseURL string
	httpClient    *http.Client
	api           *assemblyai.Client
	logger        *slog.Logger
	sleep         func(context.Context, time.Duration) error
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithSleeper replaces the poll wait, mainly for tests.
func WithSleeper(fn func(context.Context, time.Duration) error) Option {
	return func(cl *Client) {
		if fn != nil {
			cl.sleep = fn
		}
	}
}

// NewClient builds a client. publicBaseURL resolves storage paths that
// arrive without a scheme.
func NewClient(
	cfg config.TranscriptionConfig,
	publicBaseURL string,
	logger *slog.Logger,
	opts ...Option,
) *Client {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	c := &Client{
		cfg:           cfg,
		publicBaseURL: publicBaseURL,
		httpClient:    &http.Client{Timeout: cfg.RequestTimeout},
		logger:        logger,
		sleep:         sleepWithContext,
	}
	for _, opt := range opts {
		opt(c)
	}

	apiOpts := []assemblyai.ClientOption{
		assemblyai.WithAPIKey(cfg.APIKey),
		assemblyai.WithHTTPClient(c.httpClient),
	}
	if cfg.BaseURL != "" {
		apiOpts = append(apiOpts, assemblyai.WithBaseURL(cfg.BaseURL))
	}
	c.api = assemblyai.NewClientWithOptions(apiOpts...)

	return c
}

// Transcribe submits mediaURL once and polls until the transcript
// completes or fails. The overall wait is bounded by ctx and the
// configured timeout.
func (c *Client) Transcribe(ctx context.Context, mediaURL string) (Result, error) {
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	audioURL, err := c.resolveMediaURL(ctx, mediaURL)
	if err != nil {
		return Result{}, err
	}

	created, err := c.api.Transcripts.SubmitFromURL(ctx, audioURL, &assemblyai.TranscriptOptionalParams{
		LanguageDetection: assemblyai.Bool(true),
	})
	current, err := checked(created, err, "submit transcript")
	if err != nil {
		return Result{}, err
	}
	id := assemblyai.ToString(current.ID)
	c.logger.Info("transcript submitted", "transcript_id", id)

	for !isTerminal(current.Status) {
		if err := c.sleep(ctx, c.cfg.PollInterval); err != nil {
			return Result{}, fmt.Errorf("poll transcript %s: %w", id, err)
		}
		polled, err := c.api.Transcripts.Get(ctx, id)
		current, err = checked(polled, err, "poll transcript")
		if err != nil {
			return Result{}, err
		}
	}

	if current.Status == assemblyai.TranscriptStatusError {
		return Result{}, fmt.Errorf("%w: %s", ErrTranscriptionFailed, assemblyai.ToString(current.Error))
	}

	text := strings.TrimSpace(assemblyai.ToString(current.Text))
	if text == "" {
		return Result{}, fmt.Errorf("transcript %s: %w", id, ErrEmptyTranscript)
	}

	return Result{
		ID:           id,
		Text:         text,
		LanguageCode: string(current.LanguageCode),
	}, nil
}

func (c *Client) resolveMediaURL(ctx context.Context, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("media url: %w", core.ErrInvalidInput)
	}

	u, err := url.Parse(raw)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		return raw, nil
	}

	abs, err := url.JoinPath(c.publicBaseURL, strings.TrimPrefix(raw, "/"))
	if err != nil {
		return "", fmt.Errorf("resolve media url %q: %w", raw, core.ErrInvalidInput)
	}

	return media.Probe(ctx, c.httpClient, abs)
}

// checked maps an SDK call result onto the package errors and rejects
// transcripts without an id or with an unknown status.
func checked(t assemblyai.Transcript, err error, op string) (assemblyai.Transcript, error) {
	if err != nil {
		var apiErr assemblyai.APIError
		if errors.As(err, &apiErr) {
			return t, &StatusError{Op: op, StatusCode: apiErr.Status, Body: snippet(apiErr.Message)}
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return t, fmt.Errorf("%s: %w", op, err)
		}
		return t, fmt.Errorf("%s: %w: %w", op, core.ErrUpstream, err)
	}

	if strings.TrimSpace(assemblyai.ToString(t.ID)) == "" {
		return t, fmt.Errorf("%s: %w: missing id", op, ErrMalformedResponse)
	}
	switch t.Status {
	case assemblyai.TranscriptStatusQueued,
		assemblyai.TranscriptStatusProcessing,
		assemblyai.TranscriptStatusCompleted,
		assemblyai.TranscriptStatusError:
	default:
		return t, fmt.Errorf("%s: %w: unknown status %q", op, ErrMalformedResponse, t.Status)
	}

	return t, nil
}

func isTerminal(status assemblyai.TranscriptStatus) bool {
	return status == assemblyai.TranscriptStatusCompleted ||
		status == assemblyai.TranscriptStatusError
}

const snippetRunes = 256

func snippet(s string) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) > snippetRunes {
		return string(runes[:snippetRunes]) + "..."
	}
	return string(runes)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
