// AngelaMos | 2026
// uploader.go

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/carterperez-dev/blogsy/internal/core"
)

const sniffLen = 3072

var (
	ErrEmptyFile = fmt.Errorf("%w: file is empty", core.ErrInvalidInput)
	ErrTooLarge  = fmt.Errorf("%w: file exceeds size limit", core.ErrInvalidInput)
	ErrBadType   = fmt.Errorf("%w: unsupported file type", core.ErrInvalidInput)
)

// Kind selects which MIME families an upload may belong to.
type Kind struct {
	Prefix   string
	Families []string
}

var (
	KindMedia = Kind{Prefix: "media", Families: []string{"audio/", "video/"}}
	KindImage = Kind{Prefix: "image", Families: []string{"image/"}}
)

func (k Kind) allows(contentType string) bool {
	for _, family := range k.Families {
		if strings.HasPrefix(contentType, family) {
			return true
		}
	}
	return false
}

type Object struct {
	Path        string `json:"path"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
}

// Upload describes one incoming file. Size may be -1 when unknown, in
// which case the limit is enforced while streaming.
type Upload struct {
	Body         io.Reader
	Size         int64
	DeclaredType string
}

type Uploader struct {
	store    ObjectStore
	maxBytes int64
	logger   *slog.Logger
}

func NewUploader(store ObjectStore, maxBytes int64, logger *slog.Logger) *Uploader {
	return &Uploader{store: store, maxBytes: maxBytes, logger: logger}
}

func (u *Uploader) MaxBytes() int64 {
	return u.maxBytes
}

// Validate checks an upload's declared size and type without reading it.
func (u *Uploader) Validate(kind Kind, size int64, declaredType string) error {
	if size == 0 {
		return ErrEmptyFile
	}
	if size > u.maxBytes {
		return ErrTooLarge
	}

	declared := baseType(declaredType)
	if declared != "" && declared != "application/octet-stream" && !kind.allows(declared) {
		return fmt.Errorf("declared %q: %w", declared, ErrBadType)
	}

	return nil
}

// Store validates, sniffs and writes an upload, returning its public URL.
// The sniffed type must belong to the kind regardless of what the
// client declared.
func (u *Uploader) Store(ctx context.Context, kind Kind, up Upload) (*Object, error) {
	if up.Size >= 0 {
		if err := u.Validate(kind, up.Size, up.DeclaredType); err != nil {
			return nil, err
		}
	} else if err := u.Validate(kind, 1, up.DeclaredType); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	head = head[:n]

	detected := mimetype.Detect(head)
	contentType, ok := matchFamily(kind, detected)
	if !ok {
		return nil, fmt.Errorf("detected %q: %w", detected.String(), ErrBadType)
	}

	name, err := core.ObjectName(kind.Prefix, detected.Extension())
	if err != nil {
		return nil, fmt.Errorf("name upload: %w", err)
	}

	counter := &countingReader{
		r:     io.MultiReader(bytes.NewReader(head), up.Body),
		limit: u.maxBytes,
	}

	if err := u.store.Put(ctx, name, counter, contentType); err != nil {
		if errors.Is(counter.err, ErrTooLarge) {
			return nil, ErrTooLarge
		}
		return nil, fmt.Errorf("store upload: %w", err)
	}
	if counter.err != nil {
		return nil, counter.err
	}

	obj := &Object{
		Path:        name,
		URL:         u.store.PublicURL(name),
		ContentType: contentType,
		Size:        counter.n,
	}

	u.logger.Info("upload stored",
		"path", obj.Path,
		"content_type", obj.ContentType,
		"bytes", obj.Size,
	)
	return obj, nil
}

func matchFamily(kind Kind, detected *mimetype.MIME) (string, bool) {
	for m := detected; m != nil; m = m.Parent() {
		if ct := baseType(m.String()); kind.allows(ct) {
			return ct, true
		}
	}
	return "", false
}

func baseType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}

type countingReader struct {
	r     io.Reader
	n     int64
	limit int64
	err   error
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	if c.n > c.limit {
		c.err = ErrTooLarge
		return n, ErrTooLarge
	}
	return n, err
}
