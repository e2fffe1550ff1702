// Package reviews fetches and normalizes the paginated reviews of a place.
package reviews

import (
	"context"
	"net/url"
	"strconv"

	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"
	"business-research/internal/models"
)

const DefaultMaxResults = 20

type Fetcher interface {
	Fetch(ctx context.Context, req *httpclient.Request) models.FetchOutcome[*httpclient.Response]
}

type Client struct {
	fetcher Fetcher
	baseURL string
	logger  logger.Logger
}

func NewClient(fetcher Fetcher, baseURL string, log logger.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		baseURL: baseURL,
		logger:  log.With(map[string]interface{}{"component": "reviews"}),
	}
}

// Fetch returns the normalized reviews for a translated id.
func (c *Client) Fetch(ctx context.Context, translatedID string, opts models.ReviewOptions) (*models.ReviewCollection, error) {
	outcome := c.fetcher.Fetch(ctx, &httpclient.Request{
		URL:       c.buildURL(translatedID, opts),
		Transport: httpclient.TransportProxy,
	})
	resp, err := outcome.Get()
	if err != nil {
		return nil, err
	}

	collection, err := Normalize(resp.Body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("reviews fetched", map[string]interface{}{
		"items": len(collection.Items),
		"sort":  string(opts.Sort),
	})
	return collection, nil
}

func (c *Client) buildURL(translatedID string, opts models.ReviewOptions) string {
	sort := opts.Sort
	if !sort.Valid() {
		sort = models.ReviewSortQuality
	}
	num := opts.MaxResults
	if num <= 0 {
		num = DefaultMaxResults
	}
	lang := opts.Language
	if lang == "" {
		lang = "en"
	}

	params := url.Values{}
	params.Set("fid", translatedID)
	params.Set("brd_json", "1")
	params.Set("hl", lang)
	params.Set("sort", string(sort))
	params.Set("num", strconv.Itoa(num))
	if opts.FilterKeyword != "" {
		params.Set("filter", opts.FilterKeyword)
	}
	return c.baseURL + "?" + params.Encode()
}
