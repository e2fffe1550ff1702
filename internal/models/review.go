// internal/models/review.go
package models

type ReviewItem struct {
	AuthorName        string  `json:"authorName"`
	AuthorURL         *string `json:"authorUrl,omitempty"`
	AuthorImage       *string `json:"authorImage,omitempty"`
	Rating            *int    `json:"rating,omitempty"`
	Text              *string `json:"text,omitempty"`
	Date              *string `json:"date,omitempty"`
	OwnerResponse     *string `json:"ownerResponse,omitempty"`
	OwnerResponseDate *string `json:"ownerResponseDate,omitempty"`
	ReviewID          *string `json:"reviewId,omitempty"`
}

// HasText reports whether the review carries a non-blank body.
func (r ReviewItem) HasText() bool {
	return r.Text != nil && *r.Text != ""
}

type ReviewCollection struct {
	Items   []ReviewItem `json:"items"`
	Summary *string      `json:"summary,omitempty"`
}

// AnyText reports whether at least one item has review text.
func (c *ReviewCollection) AnyText() bool {
	if c == nil {
		return false
	}
	for _, item := range c.Items {
		if item.HasText() {
			return true
		}
	}
	return false
}

type ReviewSort string

const (
	ReviewSortQuality    ReviewSort = "qualityScore"
	ReviewSortNewest     ReviewSort = "newestFirst"
	ReviewSortRatingHigh ReviewSort = "ratingHigh"
	ReviewSortRatingLow  ReviewSort = "ratingLow"
)

// Valid reports whether s is one of the sort orders the reviews endpoint accepts.
func (s ReviewSort) Valid() bool {
	switch s {
	case ReviewSortQuality, ReviewSortNewest, ReviewSortRatingHigh, ReviewSortRatingLow:
		return true
	}
	return false
}

// ReviewOptions parameterizes the paginated reviews fetch.
type ReviewOptions struct {
	Sort          ReviewSort `json:"sort"`
	MaxResults    int        `json:"maxResults"`
	Language      string     `json:"language"`
	FilterKeyword string     `json:"filterKeyword,omitempty"`
}
