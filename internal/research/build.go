package research

import (
	"context"
	"fmt"

	"business-research/internal/common/config"
	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/models"
	"business-research/internal/research/aggregate"
	"business-research/internal/research/cache"
	"business-research/internal/research/content"
	"business-research/internal/research/credentials"
	"business-research/internal/research/detail"
	"business-research/internal/research/disambiguate"
	"business-research/internal/research/oracle"
	"business-research/internal/research/reviews"
	"business-research/internal/research/search"
	"business-research/internal/research/summary"

	"github.com/redis/go-redis/v9"
)

// NewFromConfig wires the production Service. The oracle is only configured
// when at least one Gemini key is present, and the resolution cache only when
// rdb is non-nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, rdb redis.Cmdable, log logger.Logger) (*Service, error) {
	bd := cfg.APIs.BrightData
	fetcher, err := httpclient.NewClient(httpclient.Options{
		MaxAttempts: cfg.Research.FetchAttempts,
		BaseDelay:   config.GetDuration(cfg.Research.FetchBaseDelay),
		Jitter:      true,
		ProxyURL:    bd.ProxyURL(),
		CACertPath:  bd.CACertPath,
	}, log.With(map[string]interface{}{"component": "fetcher"}))
	if err != nil {
		return nil, fmt.Errorf("failed to create fetcher: %w", err)
	}

	var (
		disambiguationJudge disambiguate.Judge
		summarizer          aggregate.Summarizer
	)
	if keys := cfg.APIs.Gemini.APIKeys; len(keys) > 0 {
		pool, err := credentials.NewPool(keys)
		if err != nil {
			return nil, err
		}
		if err := metrics.Replace(pool.Collector()); err != nil {
			log.Warn("credential metrics not registered", map[string]interface{}{"error": err.Error()})
		}
		model, err := oracle.NewGemini(ctx, keys, cfg.APIs.Gemini.Model, cfg.APIs.Gemini.Temperature,
			config.GetDuration(cfg.APIs.Gemini.Timeout))
		if err != nil {
			return nil, err
		}
		disambiguationJudge = oracle.NewRotating(model, pool, "disambiguation", log)
		if cfg.Research.SummarizeReviews {
			summarizer = summary.NewGenerator(oracle.NewRotating(model, pool, "summary", log), log)
		}
	} else {
		log.Warn("no gemini keys configured, disambiguation limited to exact matches", nil)
	}

	searchCfg := cfg.APIs.Search
	aggregator := aggregate.New(
		detail.NewClient(fetcher, searchCfg.MapsBaseURL, log),
		content.NewClient(fetcher, content.Config{
			RequestURL:  bd.RequestURL,
			APIKey:      bd.APIKey,
			Zone:        bd.Zone,
			MapsBaseURL: searchCfg.MapsBaseURL,
			MaxLength:   cfg.Research.MaxContentLength,
		}, log),
		reviews.NewClient(fetcher, searchCfg.ReviewsURL, log),
		summarizer,
		aggregate.Options{
			DetailTimeout:  config.GetDuration(cfg.Research.DetailTimeout),
			ContentTimeout: config.GetDuration(cfg.Research.ContentTimeout),
			ReviewsTimeout: config.GetDuration(cfg.Research.ReviewsTimeout),
			Reviews: models.ReviewOptions{
				Sort:          models.ReviewSort(cfg.Research.ReviewSort),
				MaxResults:    cfg.Research.MaxReviews,
				Language:      searchCfg.Language,
				FilterKeyword: cfg.Research.ReviewFilter,
			},
		},
		log,
	)

	deps := Dependencies{
		Searcher: search.NewClient(fetcher, search.Config{
			BaseURL:  searchCfg.BaseURL,
			Language: searchCfg.Language,
			Country:  searchCfg.Country,
		}, log),
		Resolver:   disambiguate.New(disambiguationJudge, disambiguate.Options{RequireResult: cfg.Research.RequireResult}, log),
		Aggregator: aggregator,
	}
	if rdb != nil {
		deps.Cache = cache.NewResolutionCache(rdb, config.GetDuration(cfg.Research.CacheTTL), log)
	}

	return NewService(deps, Options{BatchConcurrency: cfg.Research.BatchConcurrency}, log)
}
