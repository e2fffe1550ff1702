// Package research exposes the business research engine: resolve a free-text
// name and location to one identity, then aggregate everything known about it.
package research

import (
	"context"
	"errors"
	"fmt"
	"strings"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/models"
	"business-research/internal/research/search"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

const DefaultBatchConcurrency = 5

var tracer = otel.Tracer("business-research/research")

type Searcher interface {
	Search(ctx context.Context, query models.SearchQuery, mode search.Mode) ([]models.BusinessCandidate, error)
}

type Resolver interface {
	Resolve(ctx context.Context, query models.SearchQuery, candidates []models.BusinessCandidate) (*models.ResolvedIdentity, error)
}

type Aggregator interface {
	Aggregate(ctx context.Context, identity *models.ResolvedIdentity) *models.BusinessRecord
}

type Cache interface {
	Get(ctx context.Context, query models.SearchQuery) (*models.ResolvedIdentity, bool)
	Put(ctx context.Context, query models.SearchQuery, identity *models.ResolvedIdentity)
}

// Dependencies are the collaborators a Service is built from. Cache is optional.
type Dependencies struct {
	Searcher   Searcher
	Resolver   Resolver
	Aggregator Aggregator
	Cache      Cache
}

type Options struct {
	BatchConcurrency int
}

// Service is safe for concurrent use. Resolutions within one call run
// sequentially; separate calls share the underlying clients and credentials.
type Service struct {
	searcher   Searcher
	resolver   Resolver
	aggregator Aggregator
	cache      Cache
	options    Options
	logger     logger.Logger
}

func NewService(deps Dependencies, opts Options, log logger.Logger) (*Service, error) {
	if deps.Searcher == nil || deps.Resolver == nil || deps.Aggregator == nil {
		return nil, fmt.Errorf("research service requires a searcher, resolver and aggregator")
	}
	if opts.BatchConcurrency < 1 {
		opts.BatchConcurrency = DefaultBatchConcurrency
	}
	return &Service{
		searcher:   deps.Searcher,
		resolver:   deps.Resolver,
		aggregator: deps.Aggregator,
		cache:      deps.Cache,
		options:    opts,
		logger:     log.With(map[string]interface{}{"component": "research"}),
	}, nil
}

// ResolveOnly returns nil, nil when the business cannot be resolved. Errors are
// reserved for invalid input, exhausted transports and exhausted credentials.
func (s *Service) ResolveOnly(ctx context.Context, name, location string) (*models.ResolvedIdentity, error) {
	identity, err := s.resolve(ctx, models.SearchQuery{Name: name, Location: location})
	if apperrors.IsNotFound(err) {
		return nil, nil
	}
	return identity, err
}

// ResolveAndAggregate resolves the business and, when found, aggregates its
// detail, content and reviews. Branch failures never produce an error; they
// show up as absent fields and in the record's branch statuses.
func (s *Service) ResolveAndAggregate(ctx context.Context, name, location string) (*models.BusinessRecord, error) {
	runID := uuid.New().String()
	ctx, span := tracer.Start(ctx, "research.resolve_and_aggregate")
	defer span.End()
	span.SetAttributes(attribute.String("research.run_id", runID))

	log := s.logger.With(map[string]interface{}{"runId": runID})

	identity, err := s.ResolveOnly(ctx, name, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "resolution failed")
		return nil, err
	}
	if identity == nil {
		log.Info("business not found", map[string]interface{}{"name": name, "location": location})
		return nil, nil
	}

	record := s.aggregator.Aggregate(ctx, identity)
	record.RunID = runID

	log.Info("research completed", map[string]interface{}{
		"fid":       identity.TranslatedID,
		"populated": record.Populated(),
	})
	return record, nil
}

func (s *Service) resolve(ctx context.Context, query models.SearchQuery) (*models.ResolvedIdentity, error) {
	ctx, span := tracer.Start(ctx, "research.resolve")
	defer span.End()

	if strings.TrimSpace(query.Name) == "" {
		return nil, fmt.Errorf("%w: business name is required", apperrors.ErrInvalidInput)
	}

	if s.cache != nil {
		if identity, ok := s.cache.Get(ctx, query); ok {
			span.SetAttributes(attribute.Bool("research.cache_hit", true))
			metrics.Resolutions.WithLabelValues("cached").Inc()
			return identity, nil
		}
	}

	candidates, err := s.candidates(ctx, query)
	if err != nil {
		metrics.Resolutions.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	identity, err := s.resolver.Resolve(ctx, query, candidates)
	if err != nil {
		metrics.Resolutions.WithLabelValues(outcomeLabel(err)).Inc()
		return nil, err
	}

	metrics.Resolutions.WithLabelValues("resolved").Inc()
	span.SetAttributes(attribute.String("business.fid", identity.TranslatedID))
	if s.cache != nil {
		s.cache.Put(ctx, query, identity)
	}
	return identity, nil
}

// candidates runs the primary search and falls back to the broad search only
// when the primary one comes back empty. A primary search that fails, for
// example with ErrTransportExhausted, is returned as is and the fallback is
// not tried: an unreachable provider will not answer the broad query either.
func (s *Service) candidates(ctx context.Context, query models.SearchQuery) ([]models.BusinessCandidate, error) {
	for _, mode := range []search.Mode{search.ModePrimary, search.ModeFallback} {
		candidates, err := s.searcher.Search(ctx, query, mode)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return candidates, nil
		}
		s.logger.Debug("search returned no candidates", map[string]interface{}{"mode": string(mode)})
	}
	return nil, apperrors.ErrNoCandidatesFound
}

func outcomeLabel(err error) string {
	switch {
	case apperrors.IsNotFound(err):
		return "not_found"
	case errors.Is(err, apperrors.ErrAllCredentialsExhausted):
		return "credentials_exhausted"
	case errors.Is(err, apperrors.ErrTransportExhausted):
		return "transport_exhausted"
	default:
		return "error"
	}
}

// ==========================
// Batch research
// ==========================

type BatchResult struct {
	Query  models.SearchQuery     `json:"query"`
	Record *models.BusinessRecord `json:"record,omitempty"`
	Found  bool                   `json:"found"`
	Error  string                 `json:"error,omitempty"`
}

type BatchReport struct {
	BatchID string        `json:"batchId"`
	Results []BatchResult `json:"results"`
}

// ResearchBatch researches every query with at most BatchConcurrency running
// at once. Results keep the input order and one failure never stops the rest.
func (s *Service) ResearchBatch(ctx context.Context, queries []models.SearchQuery) *BatchReport {
	report := &BatchReport{
		BatchID: uuid.New().String(),
		Results: make([]BatchResult, len(queries)),
	}

	ctx, span := tracer.Start(ctx, "research.batch")
	defer span.End()
	span.SetAttributes(
		attribute.String("research.batch_id", report.BatchID),
		attribute.Int("research.batch_size", len(queries)),
	)

	var g errgroup.Group
	g.SetLimit(s.options.BatchConcurrency)
	for i, q := range queries {
		g.Go(func() error {
			result := BatchResult{Query: q}
			if err := ctx.Err(); err != nil {
				result.Error = err.Error()
				report.Results[i] = result
				return nil
			}

			record, err := s.ResolveAndAggregate(ctx, q.Name, q.Location)
			switch {
			case err != nil:
				result.Error = err.Error()
			case record != nil:
				result.Record = record
				result.Found = true
			}
			report.Results[i] = result
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("batch research completed", map[string]interface{}{
		"batchId": report.BatchID,
		"queries": len(queries),
	})
	return report
}
