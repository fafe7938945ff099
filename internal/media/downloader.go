// AngelaMos | 2026
// downloader.go

package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/storage"
)

var (
	ErrDownloadFailed   = fmt.Errorf("%w: media download failed", core.ErrUpstream)
	ErrMediaUnreachable = fmt.Errorf("%w: stored media is not reachable", core.ErrUpstream)
)

// StatusError reports a non-2xx answer from the fetch proxy.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("media proxy returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	return ErrDownloadFailed
}

// Downloader pulls remote video audio through the fetch proxy and
// re-hosts it in object storage.
type Downloader struct {
	client   *http.Client
	proxyURL string
	uploader *storage.Uploader
	logger   *slog.Logger
}

type Option func(*Downloader)

func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) {
		if c != nil {
			d.client = c
		}
	}
}

func NewDownloader(
	proxyURL string,
	timeout time.Duration,
	uploader *storage.Uploader,
	logger *slog.Logger,
	opts ...Option,
) *Downloader {
	d := &Downloader{
		client:   &http.Client{Timeout: timeout},
		proxyURL: proxyURL,
		uploader: uploader,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Fetch downloads videoURL via the proxy, stores it, and returns the
// stored object once its public URL answers a HEAD request.
func (d *Downloader) Fetch(ctx context.Context, videoURL string) (*storage.Object, error) {
	endpoint, err := url.Parse(d.proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	q := endpoint.Query()
	q.Set("url", videoURL)
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build proxy request: %w", err)
	}

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512)) //nolint:errcheck // best-effort detail
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	obj, err := d.uploader.Store(ctx, storage.KindMedia, storage.Upload{
		Body:         resp.Body,
		Size:         resp.ContentLength,
		DeclaredType: resp.Header.Get("Content-Type"),
	})
	if err != nil {
		return nil, fmt.Errorf("store downloaded media: %w", err)
	}

	if _, err := Probe(ctx, d.client, obj.URL); err != nil {
		return nil, err
	}

	d.logger.Info("remote media stored",
		"path", obj.Path,
		"bytes", obj.Size,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return obj, nil
}

// Probe issues a HEAD request, following redirects, and returns the
// final URL when it answers 200.
func Probe(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("build probe request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", ErrMediaUnreachable, err)
	}
	defer resp.Body.Close() //nolint:errcheck // HEAD has no body

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrMediaUnreachable, resp.StatusCode)
	}

	return resp.Request.URL.String(), nil
}
