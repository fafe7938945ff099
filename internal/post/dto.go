// AngelaMos | 2026
// dto.go

package post

import (
	"time"
)

type UpdateContentRequest struct {
	Content string `json:"content" validate:"required,max=200000"`
}

type UpdateSEORequest struct {
	SEOTitle        string   `json:"seo_title"        validate:"required,max=200"`
	MetaDescription string   `json:"meta_description" validate:"max=500"`
	Tags            []string `json:"tags"             validate:"max=20,dive,min=1,max=64"`
}

type ListParams struct {
	UserID   string
	Page     int
	PageSize int
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type PostResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SEOTitle        string    `json:"seo_title"`
	Content         string    `json:"content"`
	MetaDescription string    `json:"meta_description"`
	Tags            Tags      `json:"tags"`
	Source          Source    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type SummaryResponse struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	SEOTitle        string    `json:"seo_title"`
	MetaDescription string    `json:"meta_description"`
	Tags            Tags      `json:"tags"`
	Source          Source    `json:"source"`
	Path            string    `json:"path"`
	CreatedAt       time.Time `json:"created_at"`
}

func Path(id string) string {
	return "/posts/" + id
}

func ToPostResponse(p *Post) PostResponse {
	return PostResponse{
		ID:              p.ID,
		Title:           p.Title,
		SEOTitle:        p.SEOTitle,
		Content:         p.Content,
		MetaDescription: p.MetaDescription,
		Tags:            p.Tags,
		Source:          p.Source,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func ToSummaryResponseList(posts []Summary) []SummaryResponse {
	out := make([]SummaryResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, SummaryResponse{
			ID:              p.ID,
			Title:           p.Title,
			SEOTitle:        p.SEOTitle,
			MetaDescription: p.MetaDescription,
			Tags:            p.Tags,
			Source:          p.Source,
			Path:            Path(p.ID),
			CreatedAt:       p.CreatedAt,
		})
	}
	return out
}
