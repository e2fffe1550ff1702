// Package search queries the SERP endpoint for businesses matching a name and
// location and returns the raw candidate list.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"business-research/internal/common/errors"
	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"
	"business-research/internal/models"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("business-research/search")

// Mode selects how narrow the search is.
type Mode string

const (
	// ModePrimary restricts results to local listings.
	ModePrimary Mode = "primary"
	// ModeFallback runs a broad web search.
	ModeFallback Mode = "fallback"
)

// candidateFields lists the payload arrays that carry business listings.
var candidateFields = []string{"snack_pack", "local_results"}

type Fetcher interface {
	Fetch(ctx context.Context, req *httpclient.Request) models.FetchOutcome[*httpclient.Response]
}

type Config struct {
	BaseURL  string
	Language string
	Country  string
}

type Client struct {
	fetcher Fetcher
	config  Config
	logger  logger.Logger
}

func NewClient(fetcher Fetcher, cfg Config, log logger.Logger) *Client {
	return &Client{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With(map[string]interface{}{"component": "search"}),
	}
}

// Search returns every listing with an id. An empty slice is a valid result;
// an error means the endpoint could not be reached or did not return JSON.
func (c *Client) Search(ctx context.Context, query models.SearchQuery, mode Mode) ([]models.BusinessCandidate, error) {
	ctx, span := tracer.Start(ctx, "search.query")
	defer span.End()
	span.SetAttributes(attribute.String("search.mode", string(mode)))

	outcome := c.fetcher.Fetch(ctx, &httpclient.Request{
		URL:       c.buildURL(query, mode),
		Transport: httpclient.TransportProxy,
	})
	resp, err := outcome.Get()
	if err != nil {
		return nil, err
	}

	candidates, err := ParseCandidates(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: search payload: %v", errors.ErrTransportExhausted, err)
	}

	c.logger.Info("search completed", map[string]interface{}{
		"mode":       string(mode),
		"candidates": len(candidates),
	})
	span.SetAttributes(attribute.Int("search.candidates", len(candidates)))
	return candidates, nil
}

func (c *Client) buildURL(query models.SearchQuery, mode Mode) string {
	params := url.Values{}
	params.Set("q", query.Text())
	params.Set("hl", c.config.Language)
	params.Set("gl", c.config.Country)
	params.Set("brd_json", "1")
	if mode == ModePrimary {
		params.Set("tbm", "lcl")
	}
	return c.config.BaseURL + "?" + params.Encode()
}

// ParseCandidates reads listings defensively: unknown or mistyped fields become
// nil and entries without an id are dropped.
func ParseCandidates(body []byte) ([]models.BusinessCandidate, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var payload map[string]interface{}
	if err := dec.Decode(&payload); err != nil {
		return nil, err
	}

	candidates := []models.BusinessCandidate{}
	seen := make(map[string]bool)
	for _, field := range candidateFields {
		entries, _ := payload[field].([]interface{})
		for _, entry := range entries {
			obj, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			cand, ok := toCandidate(obj)
			if !ok || seen[cand.OpaqueID] {
				continue
			}
			seen[cand.OpaqueID] = true
			candidates = append(candidates, cand)
		}
	}
	return candidates, nil
}

func toCandidate(obj map[string]interface{}) (models.BusinessCandidate, bool) {
	id := asID(obj["cid"])
	if id == "" {
		return models.BusinessCandidate{}, false
	}
	name, _ := obj["name"].(string)
	if name == "" {
		name, _ = obj["title"].(string)
	}

	return models.BusinessCandidate{
		Name:        name,
		OpaqueID:    id,
		Address:     asString(obj["address"]),
		Rating:      asFloat(obj["rating"]),
		ReviewCount: asInt(obj["reviews_cnt"]),
		Website:     asString(obj["site"]),
		Phone:       asString(obj["phone"]),
		Category:    asString(obj["type"]),
	}, true
}

func asID(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	}
	return ""
}

func asString(v interface{}) *string {
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

func asFloat(v interface{}) *float64 {
	var (
		f   float64
		err error
	)
	switch t := v.(type) {
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &f
}

// asInt accepts numbers and strings such as "1,204" or "(87)".
func asInt(v interface{}) *int {
	var raw string
	switch t := v.(type) {
	case json.Number:
		raw = t.String()
	case string:
		raw = strings.Trim(strings.ReplaceAll(strings.TrimSpace(t), ",", ""), "()")
	default:
		return nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		n := int(f)
		return &n
	}
	return nil
}
