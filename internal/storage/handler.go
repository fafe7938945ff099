// AngelaMos | 2026
// handler.go

package storage

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/carterperez-dev/blogsy/internal/core"
)

const maxImageBytes = 10 << 20

// Handler accepts inline images for the post editor.
type Handler struct {
	uploader *Uploader
}

func NewHandler(uploader *Uploader) *Handler {
	return &Handler{uploader: uploader}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter ...func(http.Handler) http.Handler,
) {
	r.With(authenticator).With(limiter...).Post("/images", h.UploadImage)
}

func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImageBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			core.BadRequest(w, "image exceeds 10 MB")
			return
		}
		core.BadRequest(w, "file is required")
		return
	}
	defer file.Close() //nolint:errcheck // multipart temp file

	if header.Size > maxImageBytes {
		core.BadRequest(w, "image exceeds 10 MB")
		return
	}

	obj, err := h.uploader.Store(r.Context(), KindImage, Upload{
		Body:         file,
		Size:         header.Size,
		DeclaredType: header.Header.Get("Content-Type"),
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrBadType):
			core.BadRequest(w, "only image files are accepted")
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid image")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, obj)
}
