package subscription

import (
	"time"

	"feed-digest/internal/domain/entity"
)

type DTO struct {
	ID              int64     `json:"id"`
	URL             string    `json:"url"`
	Title           string    `json:"title"`
	FetchPeriodDays *int      `json:"fetchPeriodDays"`
	CreatedAt       time.Time `json:"createdAt"`
}

func toDTO(s *entity.Subscription) DTO {
	return DTO{
		ID:              s.ID,
		URL:             s.URL,
		Title:           s.Title,
		FetchPeriodDays: s.FetchPeriodDays,
		CreatedAt:       s.CreatedAt,
	}
}

// SummaryDTO is one ledger entry.
type SummaryDTO struct {
	ID          int64     `json:"id"`
	ArticleGUID string    `json:"articleGuid"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"createdAt"`
}
