// Package aggregate fans out the detail, content and reviews fetches for a
// resolved identity and merges whatever succeeded into one record.
package aggregate

import (
	"context"
	"fmt"
	"time"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("business-research/aggregate")

type DetailFetcher interface {
	Fetch(ctx context.Context, translatedID string) (map[string]interface{}, error)
}

type ContentFetcher interface {
	Fetch(ctx context.Context, opaqueID string) (string, error)
}

type ReviewsFetcher interface {
	Fetch(ctx context.Context, translatedID string, opts models.ReviewOptions) (*models.ReviewCollection, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, businessName string, items []models.ReviewItem) (string, bool, error)
}

type Options struct {
	DetailTimeout  time.Duration
	ContentTimeout time.Duration
	ReviewsTimeout time.Duration
	Reviews        models.ReviewOptions
}

// Aggregator is stateless between calls; one instance serves every research.
type Aggregator struct {
	detail     DetailFetcher
	content    ContentFetcher
	reviews    ReviewsFetcher
	summarizer Summarizer
	options    Options
	logger     logger.Logger
}

// New builds an Aggregator. summarizer may be nil to skip review summaries.
func New(detail DetailFetcher, content ContentFetcher, reviews ReviewsFetcher, summarizer Summarizer, opts Options, log logger.Logger) *Aggregator {
	if opts.DetailTimeout <= 0 {
		opts.DetailTimeout = 30 * time.Second
	}
	if opts.ContentTimeout <= 0 {
		opts.ContentTimeout = 60 * time.Second
	}
	if opts.ReviewsTimeout <= 0 {
		opts.ReviewsTimeout = 30 * time.Second
	}
	return &Aggregator{
		detail:     detail,
		content:    content,
		reviews:    reviews,
		summarizer: summarizer,
		options:    opts,
		logger:     log.With(map[string]interface{}{"component": "aggregate"}),
	}
}

// Aggregate always returns a record. Branch failures, including timeouts and
// exhausted transports, leave that field nil and are recorded in Branches.
// A failing branch never cancels its siblings.
func (a *Aggregator) Aggregate(ctx context.Context, identity *models.ResolvedIdentity) *models.BusinessRecord {
	ctx, span := tracer.Start(ctx, "aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("business.fid", identity.TranslatedID))

	var (
		detail  map[string]interface{}
		content *string
		reviews *models.ReviewCollection
	)
	statuses := make([]models.BranchStatus, len(models.Branches))

	// No derived context: a failed branch must not cancel the others.
	var g errgroup.Group
	g.Go(func() error {
		statuses[0] = a.runBranch(ctx, models.BranchDetail, a.options.DetailTimeout, func(ctx context.Context) error {
			data, err := a.detail.Fetch(ctx, identity.TranslatedID)
			if err == nil {
				detail = data
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		statuses[1] = a.runBranch(ctx, models.BranchContent, a.options.ContentTimeout, func(ctx context.Context) error {
			text, err := a.content.Fetch(ctx, identity.OpaqueID)
			if err == nil {
				content = &text
			}
			return err
		})
		return nil
	})
	g.Go(func() error {
		statuses[2] = a.runBranch(ctx, models.BranchReviews, a.options.ReviewsTimeout, func(ctx context.Context) error {
			collection, err := a.reviews.Fetch(ctx, identity.TranslatedID, a.options.Reviews)
			if err != nil {
				return err
			}
			a.summarize(ctx, identity.Name, collection)
			reviews = collection
			return nil
		})
		return nil
	})
	_ = g.Wait()

	record := &models.BusinessRecord{
		Identity:  identity,
		Detail:    detail,
		Content:   content,
		Reviews:   reviews,
		Branches:  make(map[models.Branch]models.BranchStatus, len(models.Branches)),
		FetchedAt: time.Now().UTC(),
	}
	for i, b := range models.Branches {
		record.Branches[b] = statuses[i]
	}

	span.SetAttributes(attribute.Int("branches.populated", record.Populated()))
	a.logger.Info("aggregation finished", map[string]interface{}{
		"fid":       identity.TranslatedID,
		"populated": record.Populated(),
	})
	return record
}

// runBranch bounds fn by its own timeout and converts any error or panic into
// a failed BranchStatus.
func (a *Aggregator) runBranch(parent context.Context, branch models.Branch, timeout time.Duration, fn func(ctx context.Context) error) (status models.BranchStatus) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "aggregate."+string(branch))
	defer span.End()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			status = a.failed(branch, start, fmt.Errorf("panic: %v", r))
			span.SetStatus(codes.Error, "panic")
		}
		metrics.BranchDuration.WithLabelValues(string(branch)).Observe(time.Since(start).Seconds())
	}()

	if err := fn(ctx); err != nil {
		if ctx.Err() != nil && parent.Err() == nil {
			err = fmt.Errorf("branch timed out after %s: %w", timeout, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "branch failed")
		return a.failed(branch, start, err)
	}

	metrics.BranchOutcomes.WithLabelValues(string(branch), "success").Inc()
	return models.BranchStatus{Succeeded: true, DurationMs: time.Since(start).Milliseconds()}
}

func (a *Aggregator) failed(branch models.Branch, start time.Time, cause error) models.BranchStatus {
	failure := &apperrors.BranchFailure{Branch: string(branch), Cause: cause}
	metrics.BranchOutcomes.WithLabelValues(string(branch), "failure").Inc()
	a.logger.Warn("branch failed", map[string]interface{}{
		"branch": string(branch),
		"error":  failure.Error(),
	})
	return models.BranchStatus{
		Succeeded:  false,
		Error:      failure.Error(),
		DurationMs: time.Since(start).Milliseconds(),
	}
}

// summarize attaches a summary when a summarizer is configured. Its failure
// never fails the reviews branch.
func (a *Aggregator) summarize(ctx context.Context, name string, collection *models.ReviewCollection) {
	if a.summarizer == nil || !collection.AnyText() {
		return
	}
	text, ok, err := a.summarizer.Summarize(ctx, name, collection.Items)
	if err != nil {
		a.logger.Warn("review summary failed", map[string]interface{}{"error": err.Error()})
		return
	}
	if ok {
		collection.Summary = &text
	}
}
