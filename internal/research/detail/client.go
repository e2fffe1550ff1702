// Package detail fetches the structured place record for a translated id.
package detail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"
	"business-research/internal/models"
)

var ErrNotAnObject = errors.New("place data is not a JSON object")

// mobileHeaders are sent on the first attempt; some place pages only return
// the JSON rendition to a mobile browser.
var mobileHeaders = http.Header{
	"User-Agent":      []string{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.0 Mobile/15E148 Safari/604.1"},
	"Accept":          []string{"application/json, text/plain, */*"},
	"Accept-Language": []string{"en-US,en;q=0.9"},
	"Referer":         []string{"https://www.google.com/maps/"},
}

type Fetcher interface {
	Fetch(ctx context.Context, req *httpclient.Request) models.FetchOutcome[*httpclient.Response]
}

type Client struct {
	fetcher     Fetcher
	mapsBaseURL string
	logger      logger.Logger
}

func NewClient(fetcher Fetcher, mapsBaseURL string, log logger.Logger) *Client {
	return &Client{
		fetcher:     fetcher,
		mapsBaseURL: mapsBaseURL,
		logger:      log.With(map[string]interface{}{"component": "detail"}),
	}
}

// Fetch returns the place JSON as-is. It tries with mobile headers first and
// once more without them.
func (c *Client) Fetch(ctx context.Context, translatedID string) (map[string]interface{}, error) {
	target := fmt.Sprintf("%s/place/data=!3m1!4b1!4m2!3m1!1s%s?brd_json=1", c.mapsBaseURL, translatedID)

	data, err := c.fetch(ctx, target, mobileHeaders)
	if err == nil {
		return data, nil
	}
	if ctx.Err() != nil {
		return nil, err
	}

	c.logger.Warn("place data fetch failed with mobile headers, retrying without", map[string]interface{}{
		"error": err.Error(),
	})
	return c.fetch(ctx, target, nil)
}

func (c *Client) fetch(ctx context.Context, target string, header http.Header) (map[string]interface{}, error) {
	outcome := c.fetcher.Fetch(ctx, &httpclient.Request{
		URL:       target,
		Header:    header,
		Transport: httpclient.TransportProxy,
	})
	resp, err := outcome.Get()
	if err != nil {
		return nil, err
	}

	var data map[string]interface{}
	if err := json.Unmarshal(resp.Body, &data); err != nil || data == nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAnObject, err)
	}
	return data, nil
}
