// Package summary turns normalized reviews into a short narrative using the
// decision oracle.
package summary

import (
	"context"
	"fmt"
	"strings"

	"business-research/internal/common/logger"
	"business-research/internal/models"
)

const (
	maxReviews          = 20
	maxReviewChars      = 500
	maxResponseChars    = 300
	maxTranscriptChars  = 8000
	transcriptHeaderFmt = "Google Reviews for %s:\n\n"
)

type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

type Generator struct {
	judge  Judge
	logger logger.Logger
}

func NewGenerator(judge Judge, log logger.Logger) *Generator {
	return &Generator{
		judge:  judge,
		logger: log.With(map[string]interface{}{"component": "summary"}),
	}
}

// Summarize returns ok=false without calling the oracle when there is nothing
// to summarize, and when the oracle answers with blank text.
func (g *Generator) Summarize(ctx context.Context, businessName string, items []models.ReviewItem) (string, bool, error) {
	transcript, ok := BuildTranscript(businessName, items)
	if !ok {
		return "", false, nil
	}

	reply, err := g.judge.Judge(ctx, buildPrompt(businessName, transcript))
	if err != nil {
		return "", false, err
	}

	summary := strings.TrimSpace(reply)
	if summary == "" {
		g.logger.Warn("oracle returned an empty summary", nil)
		return "", false, nil
	}
	return summary, true, nil
}

// BuildTranscript formats up to the first 20 reviews that have text. It
// reports false when none do.
func BuildTranscript(businessName string, items []models.ReviewItem) (string, bool) {
	if len(items) > maxReviews {
		items = items[:maxReviews]
	}

	var b strings.Builder
	fmt.Fprintf(&b, transcriptHeaderFmt, businessName)

	written := 0
	for i, item := range items {
		if !item.HasText() {
			continue
		}
		fmt.Fprintf(&b, "Review %d (%s):\n%s\n", i+1, stars(item.Rating), clip(*item.Text, maxReviewChars))
		if item.OwnerResponse != nil && *item.OwnerResponse != "" {
			fmt.Fprintf(&b, "Owner Response: %s\n", clip(*item.OwnerResponse, maxResponseChars))
		}
		b.WriteString("\n")
		written++
	}
	if written == 0 {
		return "", false
	}

	return clip(b.String(), maxTranscriptChars), true
}

func buildPrompt(businessName, transcript string) string {
	return fmt.Sprintf(`Write a descriptive summary of %s based on the customer reviews below.

Use three short paragraphs: what the business does and what customers use it for, what customers consistently praise, and any recurring concerns together with how the owner responds.
Write in a neutral third-person voice. Do not quote reviewers by name or invent facts.

%s`, businessName, transcript)
}

func stars(rating *int) string {
	if rating == nil {
		return "unrated"
	}
	if *rating == 1 {
		return "1 star"
	}
	return fmt.Sprintf("%d stars", *rating)
}

// clip truncates s to at most n bytes without splitting a UTF-8 sequence.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !isRuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
