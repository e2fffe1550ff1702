package reviews

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"business-research/internal/models"
)

var ErrMalformedPayload = errors.New("reviews payload is not a JSON object")

var ratingFraction = regexp.MustCompile(`^\s*(\d+)/\d+`)

// Normalize converts the provider payload into a ReviewCollection. Entries
// that are not objects or have no author are skipped; every other field is
// optional and degrades to nil.
func Normalize(body []byte) (*models.ReviewCollection, error) {
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil || payload == nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return NormalizeEntries(payload["reviews"]), nil
}

// NormalizeEntries normalizes an already decoded reviews array.
func NormalizeEntries(raw interface{}) *models.ReviewCollection {
	entries, _ := raw.([]interface{})
	items := make([]models.ReviewItem, 0, len(entries))
	for _, entry := range entries {
		obj, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		if item, ok := normalizeEntry(obj); ok {
			items = append(items, item)
		}
	}
	return &models.ReviewCollection{Items: items}
}

func normalizeEntry(obj map[string]interface{}) (models.ReviewItem, bool) {
	reviewer, _ := obj["reviewer"].(map[string]interface{})
	author := str(reviewer["display_name"])
	if author == nil {
		return models.ReviewItem{}, false
	}

	return models.ReviewItem{
		AuthorName:        *author,
		AuthorURL:         str(reviewer["link"]),
		AuthorImage:       str(reviewer["profile_photo_url"]),
		Rating:            rating(obj["rating"]),
		Text:              str(obj["comment"]),
		Date:              str(obj["created"]),
		OwnerResponse:     str(obj["review_reply"]),
		OwnerResponseDate: str(obj["review_reply_created"]),
		ReviewID:          str(obj["review_id"]),
	}, true
}

func str(v interface{}) *string {
	s, ok := v.(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// rating reads "4/5" strings or bare numbers, clamped to 0..5.
func rating(v interface{}) *int {
	var n int
	switch t := v.(type) {
	case string:
		m := ratingFraction.FindStringSubmatch(t)
		if m == nil {
			return nil
		}
		parsed, err := strconv.Atoi(m[1])
		if err != nil {
			return nil
		}
		n = parsed
	case float64:
		n = int(math.Round(t))
	default:
		return nil
	}

	if n < 0 {
		n = 0
	}
	if n > 5 {
		n = 5
	}
	return &n
}
