// AngelaMos | 2026
// entity.go

package post

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Source string

const (
	SourceFile Source = "file"
	SourceURL  Source = "url"
)

func (s Source) Valid() bool {
	return s == SourceFile || s == SourceURL
}

// Tags is stored as a JSONB array. It never encodes as null.
type Tags []string

func (t Tags) Value() (driver.Value, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	b, err := json.Marshal([]string(t))
	if err != nil {
		return nil, fmt.Errorf("encode tags: %w", err)
	}
	return b, nil
}

func (t *Tags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Tags{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*t = out
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(t))
}

type Post struct {
	ID              string    `db:"id"`
	UserID          string    `db:"user_id"`
	Title           string    `db:"title"`
	SEOTitle        string    `db:"seo_title"`
	Content         string    `db:"content"`
	MetaDescription string    `db:"meta_description"`
	Tags            Tags      `db:"tags"`
	Source          Source    `db:"source"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Summary is the listing projection; content is omitted.
type Summary struct {
	ID              string    `db:"id"`
	Title           string    `db:"title"`
	SEOTitle        string    `db:"seo_title"`
	MetaDescription string    `db:"meta_description"`
	Tags            Tags      `db:"tags"`
	Source          Source    `db:"source"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}
