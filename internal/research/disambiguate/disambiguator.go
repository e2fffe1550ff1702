// Package disambiguate picks the one search candidate that is the business
// being researched, or declares that none is.
package disambiguate

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/models"
	"business-research/internal/research/identifier"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("business-research/disambiguate")

var (
	selectionTag = regexp.MustCompile(`(?i)<business>(-?\d+)</business>`)
	anyInteger   = regexp.MustCompile(`-?\d+`)
)

// Judge is the decision oracle.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

type Options struct {
	// RequireResult makes Resolve fall back to the first candidate when no
	// oracle is configured and nothing matches exactly.
	RequireResult bool
}

type Disambiguator struct {
	judge   Judge
	options Options
	logger  logger.Logger
}

// New builds a Disambiguator. judge may be nil.
func New(judge Judge, opts Options, log logger.Logger) *Disambiguator {
	return &Disambiguator{
		judge:   judge,
		options: opts,
		logger:  log.With(map[string]interface{}{"component": "disambiguate"}),
	}
}

// Resolve selects a candidate and derives its ResolvedIdentity.
func (d *Disambiguator) Resolve(ctx context.Context, query models.SearchQuery, candidates []models.BusinessCandidate) (*models.ResolvedIdentity, error) {
	selected, err := d.Select(ctx, query, candidates)
	if err != nil {
		return nil, err
	}
	return BuildIdentity(*selected)
}

// Select applies, in order: exact name match, oracle escalation, and the
// RequireResult fallback.
func (d *Disambiguator) Select(ctx context.Context, query models.SearchQuery, candidates []models.BusinessCandidate) (*models.BusinessCandidate, error) {
	if len(candidates) == 0 {
		return nil, apperrors.ErrNoCandidatesFound
	}

	ctx, span := tracer.Start(ctx, "disambiguate.select")
	defer span.End()
	span.SetAttributes(attribute.Int("candidates", len(candidates)))

	target := normalizeName(query.Name)
	for i := range candidates {
		if normalizeName(candidates[i].Name) == target {
			span.SetAttributes(attribute.String("match", "exact"))
			return &candidates[i], nil
		}
	}

	if d.judge == nil {
		if d.options.RequireResult {
			span.SetAttributes(attribute.String("match", "first"))
			return &candidates[0], nil
		}
		return nil, fmt.Errorf("%w: no exact match and no oracle configured", apperrors.ErrNoConfidentMatch)
	}

	reply, err := d.judge.Judge(ctx, BuildPrompt(query.Name, candidates))
	if err != nil {
		if errors.Is(err, apperrors.ErrAllCredentialsExhausted) {
			return nil, err
		}
		d.logger.Warn("oracle selection failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("%w: oracle error: %v", apperrors.ErrNoConfidentMatch, err)
	}

	index, ok := ParseSelection(reply)
	if !ok || index < 0 || index >= len(candidates) {
		d.logger.Info("oracle declined selection", map[string]interface{}{
			"reply":      truncate(reply, 200),
			"candidates": len(candidates),
		})
		return nil, fmt.Errorf("%w: oracle reply %q", apperrors.ErrNoConfidentMatch, truncate(reply, 80))
	}

	span.SetAttributes(attribute.String("match", "oracle"), attribute.Int("index", index))
	d.logger.Info("oracle selected candidate", map[string]interface{}{
		"index": index,
		"name":  candidates[index].Name,
	})
	return &candidates[index], nil
}

// BuildPrompt enumerates candidates for the oracle, one per line.
func BuildPrompt(searchName string, candidates []models.BusinessCandidate) string {
	lines := make([]string, len(candidates))
	for i, c := range candidates {
		lines[i] = fmt.Sprintf("Index %d: %q | Address: %s | Rating: %s | Reviews: %s",
			i, c.Name,
			orDefault(c.Address, "No address"),
			formatRating(c.Rating),
			formatCount(c.ReviewCount),
		)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Identify which search result is the business %q.\n\n", searchName)
	b.WriteString("Candidates:\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\nPrefer an exact name match, then the same name with different formatting, ")
	b.WriteString("then consistent business type and location.\n")
	b.WriteString("Respond with only the index wrapped in tags, for example <business>0</business>.\n")
	b.WriteString("If none of the candidates is a reasonable match respond with <business>-1</business>.")
	return b.String()
}

// ParseSelection prefers a tagged index and otherwise takes the first integer
// in the reply.
func ParseSelection(reply string) (int, bool) {
	if m := selectionTag.FindStringSubmatch(reply); m != nil {
		n, err := strconv.Atoi(m[1])
		return n, err == nil
	}
	if m := anyInteger.FindString(reply); m != "" {
		n, err := strconv.Atoi(m)
		return n, err == nil
	}
	return 0, false
}

// BuildIdentity copies the chosen candidate and derives the translated id,
// address quality and registrable website domain.
func BuildIdentity(c models.BusinessCandidate) (*models.ResolvedIdentity, error) {
	fid, err := identifier.Translate(c.OpaqueID)
	if err != nil {
		return nil, err
	}

	id := &models.ResolvedIdentity{
		OpaqueID:     c.OpaqueID,
		TranslatedID: fid,
		Name:         c.Name,
		Address:      deref(c.Address),
		Phone:        deref(c.Phone),
		Website:      deref(c.Website),
		Category:     deref(c.Category),
		Rating:       c.Rating,
		ReviewCount:  c.ReviewCount,
	}
	id.AddressQuality = AssessAddress(id.Address)
	id.Domain = NormalizeDomain(id.Website)
	return id, nil
}

func normalizeName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orDefault(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}

func formatRating(r *float64) string {
	if r == nil {
		return "No rating"
	}
	return strconv.FormatFloat(*r, 'f', -1, 64)
}

func formatCount(n *int) string {
	if n == nil {
		return "No review count"
	}
	return strconv.Itoa(*n)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
