// AngelaMos | 2026
// generator.go

package generation

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/carterperez-dev/blogsy/internal/config"
	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/post"
)

var ErrEmptyContent = fmt.Errorf("%w: model returned no content", core.ErrUpstream)

type Completer interface {
	Complete(ctx context.Context, req Request) (Completion, error)
}

type Result struct {
	Title           string
	SEOTitle        string
	MetaDescription string
	Tags            post.Tags
	Content         string
	Truncated       bool
}

type Generator struct {
	model  Completer
	cfg    config.GenerationConfig
	logger *slog.Logger
}

func NewGenerator(
	model Completer,
	cfg config.GenerationConfig,
	logger *slog.Logger,
) *Generator {
	return &Generator{model: model, cfg: cfg, logger: logger}
}

// Generate writes a blog post from transcript and derives its SEO
// metadata. A post cut off by the token ceiling is trimmed back to its
// last complete paragraph and flagged as truncated; if that leaves no
// body under the title the post is rejected.
func (g *Generator) Generate(
	ctx context.Context,
	transcript, styleReference string,
) (Result, error) {
	if strings.TrimSpace(transcript) == "" {
		return Result{}, fmt.Errorf("generate blog: transcript: %w", core.ErrInvalidInput)
	}

	blog, err := g.model.Complete(ctx, Request{
		Prompt:          BlogPrompt(transcript, styleReference),
		MaxOutputTokens: g.cfg.MaxOutputTokens,
		Temperature:     g.cfg.Temperature,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate blog: %w", err)
	}

	content := cleanBoundaries(blog.Text)
	truncated := false
	if blog.FinishReason == FinishMaxTokens {
		content = trimToLastParagraph(content)
		truncated = true
		g.logger.Warn("blog output hit token limit",
			"max_output_tokens", g.cfg.MaxOutputTokens,
			"kept_chars", len(content),
		)
		if !hasBody(content) {
			return Result{}, fmt.Errorf("generate blog: truncated before first paragraph: %w", ErrEmptyContent)
		}
	}
	if strings.TrimSpace(content) == "" {
		return Result{}, fmt.Errorf("generate blog: %w", ErrEmptyContent)
	}

	seoOut, err := g.model.Complete(ctx, Request{
		Prompt:          SEOPrompt(content),
		MaxOutputTokens: g.cfg.SEOMaxTokens,
		Temperature:     g.cfg.Temperature,
		JSON:            true,
	})
	if err != nil {
		return Result{}, fmt.Errorf("generate seo: %w", err)
	}

	seo, err := DecodeSEO(seoOut.Text)
	if err != nil {
		return Result{}, fmt.Errorf("generate seo: %w", err)
	}

	return Result{
		Title:           post.ExtractTitle(content),
		SEOTitle:        seo.SEOTitle,
		MetaDescription: seo.MetaDescription,
		Tags:            seo.Tags,
		Content:         content,
		Truncated:       truncated,
	}, nil
}

// cleanBoundaries removes a wrapping code fence and a lone "markdown"
// line at either end.
func cleanBoundaries(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	}

	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 0 && isMarkdownMarker(lines[0]) {
		lines = lines[1:]
	}
	if n := len(lines); n > 0 && isMarkdownMarker(lines[n-1]) {
		lines = lines[:n-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isMarkdownMarker(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), "markdown")
}

// trimToLastParagraph drops the trailing partial paragraph. Output with
// no paragraph break is returned unchanged.
func trimToLastParagraph(text string) string {
	idx := strings.LastIndex(text, "\n\n")
	if idx <= 0 {
		return text
	}
	return strings.TrimSpace(text[:idx])
}

// hasBody reports whether anything follows the title segment.
func hasBody(text string) bool {
	_, body, found := strings.Cut(text, "\n\n")
	return found && strings.TrimSpace(body) != ""
}
