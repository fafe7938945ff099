// AngelaMos | 2026
// messages.go

package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/carterperez-dev/blogsy/internal/plan"
	"github.com/carterperez-dev/blogsy/internal/storage"
)

var stageMessages = map[State]string{
	StateValidating:   "Please check your submission and try again.",
	StateUploading:    "File upload failed. Please use a different file.",
	StateDownloading:  "Failed to process video URL. Please try again.",
	StateTranscribing: "An error occurred during transcription. Please try again.",
	StateGenerating:   "Blog post generation failed, please try again...",
}

var slowMessages = map[State]string{
	StateUploading:    "Upload is taking longer than usual. Please try again.",
	StateDownloading:  "Downloading the video is taking longer than usual. Please try again.",
	StateTranscribing: "Transcription is taking longer than usual. Please try again.",
	StateGenerating:   "Generating your blog post is taking longer than usual. Please try again.",
}

// UserMessage turns a failure at stage into the text shown to the user.
func UserMessage(stage State, err error) string {
	switch {
	case errors.Is(err, ErrNoInput):
		return "Please provide either a file or a video URL."
	case errors.Is(err, ErrBothInputs):
		return "Please provide either a file or a video URL, but not both."
	case errors.Is(err, ErrInvalidVideoURL):
		return "Invalid YouTube URL format."
	case errors.Is(err, storage.ErrTooLarge):
		return "File exceeds the upload size limit."
	case errors.Is(err, storage.ErrBadType), errors.Is(err, storage.ErrEmptyFile):
		return "Please upload an audio or video file."
	case errors.Is(err, plan.ErrURLImportsNotAllowed):
		return "Video URL imports are available on the Pro plan."
	case errors.Is(err, plan.ErrURLImportLimitReached):
		return "You have reached the monthly limit for URL posts."
	case errors.Is(err, plan.ErrPostLimitReached):
		return "You have reached the post limit for your plan. Upgrade to create more posts."
	}

	if isTimeout(err) {
		if msg, ok := slowMessages[stage]; ok {
			return msg
		}
	}
	if msg, ok := stageMessages[stage]; ok {
		return msg
	}
	return "An unexpected error occurred."
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "timeout")
}
