// AngelaMos | 2026
// dto.go

package pipeline

import (
	"time"

	"github.com/carterperez-dev/blogsy/internal/post"
)

type SubmitRequest struct {
	VideoURL string `json:"video_url" validate:"max=2048"`
}

type SubmitResponse struct {
	PostID    string `json:"post_id"`
	Path      string `json:"path"`
	Truncated bool   `json:"truncated"`
}

type RunResponse struct {
	State     State       `json:"state"`
	Stage     State       `json:"stage,omitempty"`
	Source    post.Source `json:"source"`
	Message   string      `json:"message,omitempty"`
	PostID    string      `json:"post_id,omitempty"`
	Path      string      `json:"path,omitempty"`
	StartedAt time.Time   `json:"started_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func ToRunResponse(r *Run) RunResponse {
	resp := RunResponse{
		State:     r.State,
		Stage:     r.Stage,
		Source:    r.Source,
		Message:   r.Message,
		PostID:    r.PostID,
		StartedAt: r.StartedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if r.PostID != "" {
		resp.Path = post.Path(r.PostID)
	}
	return resp
}
