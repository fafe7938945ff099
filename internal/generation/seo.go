// AngelaMos | 2026
// seo.go

package generation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/post"
)

var ErrSEOParse = fmt.Errorf("%w: seo metadata could not be parsed", core.ErrUpstream)

type SEO struct {
	SEOTitle        string    `json:"seoTitle"`
	MetaDescription string    `json:"metaDescription"`
	Tags            post.Tags `json:"tags"`
}

type seoPayload struct {
	SEOTitle        *string   `json:"seoTitle"`
	MetaDescription *string   `json:"metaDescription"`
	Tags            *[]string `json:"tags"`
}

// DecodeSEO parses the metadata object, tolerating a surrounding code
// fence. Unknown fields, trailing data, a blank title or description and
// an absent tags key are all rejected.
func DecodeSEO(raw string) (SEO, error) {
	body := stripCodeFence(raw)
	if body == "" {
		return SEO{}, fmt.Errorf("%w: empty payload", ErrSEOParse)
	}

	var payload seoPayload
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return SEO{}, fmt.Errorf("%w: %w (payload: %s)", ErrSEOParse, err, summarize(body))
	}
	if dec.More() {
		return SEO{}, fmt.Errorf("%w: trailing data (payload: %s)", ErrSEOParse, summarize(body))
	}

	seo := SEO{
		SEOTitle:        trimmed(payload.SEOTitle),
		MetaDescription: trimmed(payload.MetaDescription),
	}
	switch {
	case seo.SEOTitle == "":
		return SEO{}, fmt.Errorf("%w: missing seoTitle (payload: %s)", ErrSEOParse, summarize(body))
	case seo.MetaDescription == "":
		return SEO{}, fmt.Errorf("%w: missing metaDescription (payload: %s)", ErrSEOParse, summarize(body))
	case payload.Tags == nil:
		return SEO{}, fmt.Errorf("%w: missing tags (payload: %s)", ErrSEOParse, summarize(body))
	}

	seo.Tags = post.NormalizeTags(*payload.Tags)
	return seo, nil
}

func trimmed(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func stripCodeFence(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	body := strings.TrimLeft(trimmed[3:], " \t")
	if len(body) >= 4 && strings.EqualFold(body[:4], "json") {
		body = body[4:]
	}
	if idx := strings.LastIndex(body, "```"); idx >= 0 {
		body = body[:idx]
	}
	return strings.TrimSpace(body)
}
