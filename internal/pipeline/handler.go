// AngelaMos | 2026
// handler.go

package pipeline

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/middleware"
	"github.com/carterperez-dev/blogsy/internal/storage"
)

const multipartMemory = 32 << 20

type Handler struct {
	orchestrator *Orchestrator
	maxUpload    int64
	validator    *validator.Validate
}

func NewHandler(orchestrator *Orchestrator, maxUpload int64) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		maxUpload:    maxUpload,
		validator:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the generation endpoints. limiter runs after
// authentication so it can key on the caller.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
	limiter ...func(http.Handler) http.Handler,
) {
	r.Route("/generations", func(r chi.Router) {
		r.Use(authenticator)

		r.Get("/current", h.Current)
		r.With(limiter...).Post("/", h.Submit)
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	sub := Submission{
		UserID: middleware.GetUserID(r.Context()),
		Email:  middleware.GetUserEmail(r.Context()),
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")) //nolint:errcheck // empty on bad header
	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+(1<<20))
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				core.BadRequest(w, UserMessage(StateValidating, storage.ErrTooLarge))
				return
			}
			core.BadRequest(w, "invalid multipart form")
			return
		}
		defer r.MultipartForm.RemoveAll() //nolint:errcheck // temp files

		sub.VideoURL = r.FormValue("video_url")
		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer file.Close() //nolint:errcheck // multipart temp file
			sub.File = &storage.Upload{
				Body:         file,
				Size:         header.Size,
				DeclaredType: header.Header.Get("Content-Type"),
			}
		case !errors.Is(err, http.ErrMissingFile):
			core.BadRequest(w, "invalid file")
			return
		}

	case "application/json":
		var req SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			core.BadRequest(w, "invalid request body")
			return
		}
		if err := h.validator.Struct(req); err != nil {
			core.BadRequest(w, core.FormatValidationError(err))
			return
		}
		sub.VideoURL = req.VideoURL

	default:
		sub.VideoURL = r.FormValue("video_url")
	}

	out, err := h.orchestrator.Submit(r.Context(), sub)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, SubmitResponse{
		PostID:    out.PostID,
		Path:      out.Path,
		Truncated: out.Truncated,
	})
}

func (h *Handler) Current(w http.ResponseWriter, r *http.Request) {
	run, err := h.orchestrator.Current(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "generation")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, ToRunResponse(run))
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrSubmissionInProgress) {
		core.JSONError(w, core.ConflictError("a blog post is already being generated, please wait for it to finish"))
		return
	}

	message := "An unexpected error occurred."
	var stageErr *StageError
	if errors.As(err, &stageErr) {
		message = stageErr.Message
	}

	switch {
	case errors.Is(err, core.ErrQuotaExceeded):
		core.JSONError(w, core.QuotaExceededError(message))
	case errors.Is(err, core.ErrInvalidInput):
		core.BadRequest(w, message)
	case errors.Is(err, core.ErrUpstream):
		core.JSONError(w, core.UpstreamError(message))
	default:
		core.JSONError(w, core.NewAppError(
			err,
			message,
			http.StatusInternalServerError,
			"GENERATION_FAILED",
		))
	}
}
