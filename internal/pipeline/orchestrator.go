// AngelaMos | 2026
// orchestrator.go

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/generation"
	"github.com/carterperez-dev/blogsy/internal/plan"
	"github.com/carterperez-dev/blogsy/internal/post"
	"github.com/carterperez-dev/blogsy/internal/storage"
	"github.com/carterperez-dev/blogsy/internal/transcription"
)

var (
	ErrNoInput         = fmt.Errorf("%w: no file or video url", core.ErrInvalidInput)
	ErrBothInputs      = fmt.Errorf("%w: both file and video url given", core.ErrInvalidInput)
	ErrInvalidVideoURL = fmt.Errorf("%w: unsupported video url", core.ErrInvalidInput)
)

var youtubeURL = regexp.MustCompile(`^(https?://)?(www\.)?(youtube\.com|youtu\.?be)/.+$`)

type MediaStore interface {
	Validate(kind storage.Kind, size int64, declaredType string) error
	Store(ctx context.Context, kind storage.Kind, up storage.Upload) (*storage.Object, error)
}

type Downloader interface {
	Fetch(ctx context.Context, videoURL string) (*storage.Object, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, mediaURL string) (transcription.Result, error)
}

type Writer interface {
	Generate(ctx context.Context, transcript, styleReference string) (generation.Result, error)
}

type PostStore interface {
	Insert(ctx context.Context, p *post.Post) (string, error)
	LatestContentForUser(ctx context.Context, userID string) (string, error)
}

type PlanResolver interface {
	PlanFor(ctx context.Context, identityID, email string) (plan.Plan, error)
}

type QuotaChecker interface {
	CheckSubmission(
		ctx context.Context,
		userID string,
		p plan.Plan,
		source post.Source,
		now time.Time,
	) error
}

// Submission is one request to turn media into a post. Exactly one of
// File and VideoURL must be set.
type Submission struct {
	UserID   string
	Email    string
	File     *storage.Upload
	VideoURL string
}

func (s Submission) hasFile() bool {
	return s.File != nil && s.File.Body != nil && s.File.Size != 0
}

func (s Submission) source() post.Source {
	if strings.TrimSpace(s.VideoURL) != "" && !s.hasFile() {
		return post.SourceURL
	}
	return post.SourceFile
}

type Outcome struct {
	PostID    string
	Path      string
	Truncated bool
}

// StageError is a failed submission: where it failed, the message for the
// user, and the cause.
type StageError struct {
	Stage   State
	Message string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

type Deps struct {
	Media       MediaStore
	Downloader  Downloader
	Transcriber Transcriber
	Writer      Writer
	Posts       PostStore
	Plans       PlanResolver
	Quota       QuotaChecker
	Guard       *Guard
	Tracker     *Tracker
	Logger      *slog.Logger
	Now         func() time.Time
}

// Orchestrator runs a submission through validation, media acquisition,
// transcription, generation and persistence, one stage after another.
type Orchestrator struct {
	Deps
}

func NewOrchestrator(deps Deps) *Orchestrator {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Orchestrator{Deps: deps}
}

func (o *Orchestrator) Submit(ctx context.Context, sub Submission) (*Outcome, error) {
	lease, err := o.Guard.Acquire(ctx, sub.UserID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := o.Guard.Release(context.WithoutCancel(ctx), lease); err != nil {
			o.Logger.Warn("guard release failed", "user_id", sub.UserID, "error", err)
		}
	}()

	run := NewRun(sub.UserID, sub.source(), o.Now())
	logger := o.Logger.With("user_id", sub.UserID, "source", run.Source)

	out, err := o.execute(ctx, run, sub)
	if err != nil {
		var stageErr *StageError
		if !errors.As(err, &stageErr) {
			stageErr = &StageError{Stage: run.Stage, Message: UserMessage(run.Stage, err), Err: err}
		}
		if failErr := run.Fail(stageErr.Message, o.Now()); failErr != nil {
			logger.Error("mark run failed", "error", failErr)
		}
		o.track(ctx, run, logger)
		logger.Warn("generation failed",
			"stage", stageErr.Stage,
			"error", stageErr.Err,
		)
		return nil, stageErr
	}

	if err := run.Complete(out.PostID, o.Now()); err != nil {
		logger.Error("mark run done", "error", err)
	}
	o.track(ctx, run, logger)
	logger.Info("generation completed",
		"post_id", out.PostID,
		"truncated", out.Truncated,
		"duration_ms", run.UpdatedAt.Sub(run.StartedAt).Milliseconds(),
	)
	return out, nil
}

func (o *Orchestrator) execute(ctx context.Context, run *Run, sub Submission) (*Outcome, error) {
	logger := o.Logger.With("user_id", sub.UserID)

	if err := o.enter(ctx, run, StateValidating, logger); err != nil {
		return nil, err
	}
	if err := o.stage(ctx, StateValidating, func(ctx context.Context) error {
		return o.validate(ctx, sub, run.Source)
	}); err != nil {
		return nil, err
	}

	var object *storage.Object
	if run.Source == post.SourceFile {
		if err := o.enter(ctx, run, StateUploading, logger); err != nil {
			return nil, err
		}
		if err := o.stage(ctx, StateUploading, func(ctx context.Context) error {
			var err error
			object, err = o.Media.Store(ctx, storage.KindMedia, *sub.File)
			return err
		}); err != nil {
			return nil, err
		}
	} else {
		if err := o.enter(ctx, run, StateDownloading, logger); err != nil {
			return nil, err
		}
		if err := o.stage(ctx, StateDownloading, func(ctx context.Context) error {
			var err error
			object, err = o.Downloader.Fetch(ctx, strings.TrimSpace(sub.VideoURL))
			return err
		}); err != nil {
			return nil, err
		}
	}

	if err := o.enter(ctx, run, StateTranscribing, logger); err != nil {
		return nil, err
	}
	var transcript transcription.Result
	if err := o.stage(ctx, StateTranscribing, func(ctx context.Context) error {
		var err error
		transcript, err = o.Transcriber.Transcribe(ctx, object.URL)
		if err == nil && strings.TrimSpace(transcript.Text) == "" {
			err = transcription.ErrEmptyTranscript
		}
		return err
	}); err != nil {
		return nil, err
	}

	if err := o.enter(ctx, run, StateGenerating, logger); err != nil {
		return nil, err
	}
	var out *Outcome
	if err := o.stage(ctx, StateGenerating, func(ctx context.Context) error {
		var err error
		out, err = o.generate(ctx, sub.UserID, run.Source, transcript.Text)
		return err
	}); err != nil {
		return nil, err
	}

	return out, nil
}

func (o *Orchestrator) validate(ctx context.Context, sub Submission, source post.Source) error {
	hasURL := strings.TrimSpace(sub.VideoURL) != ""
	switch {
	case !sub.hasFile() && !hasURL:
		return ErrNoInput
	case sub.hasFile() && hasURL:
		return ErrBothInputs
	case hasURL && !youtubeURL.MatchString(strings.TrimSpace(sub.VideoURL)):
		return ErrInvalidVideoURL
	case sub.hasFile():
		if err := o.Media.Validate(storage.KindMedia, sub.File.Size, sub.File.DeclaredType); err != nil {
			return err
		}
	}

	p, err := o.Plans.PlanFor(ctx, sub.UserID, sub.Email)
	if err != nil {
		return fmt.Errorf("resolve plan: %w", err)
	}

	return o.Quota.CheckSubmission(ctx, sub.UserID, p, source, o.Now())
}

func (o *Orchestrator) generate(
	ctx context.Context,
	userID string,
	source post.Source,
	transcript string,
) (*Outcome, error) {
	style, err := o.Posts.LatestContentForUser(ctx, userID)
	if err != nil {
		o.Logger.Warn("style reference unavailable", "user_id", userID, "error", err)
		style = ""
	}

	res, err := o.Writer.Generate(ctx, transcript, style)
	if err != nil {
		return nil, err
	}
	if res.Truncated {
		core.AddSpanEvent(ctx, "generation.truncated",
			attribute.Int("content.length", len(res.Content)),
		)
	}

	id, err := o.Posts.Insert(ctx, &post.Post{
		UserID:          userID,
		Title:           res.Title,
		SEOTitle:        res.SEOTitle,
		Content:         res.Content,
		MetaDescription: res.MetaDescription,
		Tags:            res.Tags,
		Source:          source,
	})
	if err != nil {
		return nil, fmt.Errorf("save post: %w", err)
	}

	return &Outcome{PostID: id, Path: post.Path(id), Truncated: res.Truncated}, nil
}

// enter moves run into a working stage and publishes progress.
func (o *Orchestrator) enter(ctx context.Context, run *Run, to State, logger *slog.Logger) error {
	if err := run.Advance(to, o.Now()); err != nil {
		return err
	}
	o.track(ctx, run, logger)
	return nil
}

func (o *Orchestrator) stage(ctx context.Context, state State, fn func(context.Context) error) error {
	ctx, span := core.StartSpan(ctx, "pipeline."+string(state),
		attribute.String("pipeline.stage", string(state)),
	)
	err := fn(ctx)
	core.EndSpan(span, err)
	if err != nil {
		return &StageError{Stage: state, Message: UserMessage(state, err), Err: err}
	}
	return nil
}

func (o *Orchestrator) track(ctx context.Context, run *Run, logger *slog.Logger) {
	if err := o.Tracker.Save(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("progress update failed", "state", run.State, "error", err)
	}
}

// Current reports the caller's latest run.
func (o *Orchestrator) Current(ctx context.Context, userID string) (*Run, error) {
	return o.Tracker.Get(ctx, userID)
}

func (o *Orchestrator) ActiveCount(ctx context.Context) (int, error) {
	return o.Guard.Active(ctx)
}
