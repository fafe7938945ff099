// AngelaMos | 2026
// state.go

package pipeline

import (
	"fmt"
	"time"

	"github.com/carterperez-dev/blogsy/internal/core"
	"github.com/carterperez-dev/blogsy/internal/post"
)

type State string

const (
	StateIdle         State = "idle"
	StateValidating   State = "validating"
	StateUploading    State = "uploading"
	StateDownloading  State = "downloading"
	StateTranscribing State = "transcribing"
	StateGenerating   State = "generating"
	StateDone         State = "done"
	StateFailed       State = "failed"
)

var transitions = map[State][]State{
	StateIdle:         {StateValidating},
	StateValidating:   {StateUploading, StateDownloading, StateFailed},
	StateUploading:    {StateTranscribing, StateFailed},
	StateDownloading:  {StateTranscribing, StateFailed},
	StateTranscribing: {StateGenerating, StateFailed},
	StateGenerating:   {StateDone, StateFailed},
	StateDone:         {StateIdle},
	StateFailed:       {StateIdle},
}

var ErrInvalidTransition = fmt.Errorf("%w: invalid pipeline transition", core.ErrConflict)

func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}

// Run is the progress record of one submission.
type Run struct {
	UserID    string      `json:"-"`
	State     State       `json:"state"`
	Stage     State       `json:"stage,omitempty"`
	Source    post.Source `json:"source"`
	Message   string      `json:"message,omitempty"`
	PostID    string      `json:"post_id,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func NewRun(userID string, source post.Source, now time.Time) *Run {
	return &Run{
		UserID:    userID,
		State:     StateIdle,
		Source:    source,
		StartedAt: now,
		UpdatedAt: now,
	}
}

// Advance moves the run to a working stage.
func (r *Run) Advance(to State, now time.Time) error {
	if !r.State.CanTransition(to) {
		return fmt.Errorf("%s -> %s: %w", r.State, to, ErrInvalidTransition)
	}
	r.State = to
	if !to.Terminal() {
		r.Stage = to
	}
	r.UpdatedAt = now
	return nil
}

// Fail records message against the stage that was running.
func (r *Run) Fail(message string, now time.Time) error {
	if err := r.Advance(StateFailed, now); err != nil {
		return err
	}
	r.Message = message
	return nil
}

func (r *Run) Complete(postID string, now time.Time) error {
	if err := r.Advance(StateDone, now); err != nil {
		return err
	}
	r.PostID = postID
	r.Message = ""
	return nil
}
