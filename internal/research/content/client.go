// Package content fetches the raw listing page through the scraping API and
// reduces it to plain descriptive text.
package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	httpclient "business-research/internal/common/http"
	"business-research/internal/common/logger"
	"business-research/internal/models"
)

var (
	ErrNoHTML       = errors.New("no html in scraping response")
	ErrEmptyContent = errors.New("page had no usable text")
)

var (
	htmlKeys       = []string{"body", "html", "content", "response", "data"}
	nestedHTMLKeys = []string{"body", "html", "content"}
)

type Fetcher interface {
	Fetch(ctx context.Context, req *httpclient.Request) models.FetchOutcome[*httpclient.Response]
}

type Config struct {
	RequestURL  string
	APIKey      string
	Zone        string
	MapsBaseURL string
	// MaxLength caps the cleaned text in bytes. Zero means no cap.
	MaxLength     int
	MaxWordLength int
}

type Client struct {
	fetcher Fetcher
	config  Config
	logger  logger.Logger
}

func NewClient(fetcher Fetcher, cfg Config, log logger.Logger) *Client {
	if cfg.MaxWordLength == 0 {
		cfg.MaxWordLength = defaultMaxWordLength
	}
	return &Client{
		fetcher: fetcher,
		config:  cfg,
		logger:  log.With(map[string]interface{}{"component": "content"}),
	}
}

// Fetch returns the cleaned page text for the business with the given
// untranslated id.
func (c *Client) Fetch(ctx context.Context, opaqueID string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"zone":   c.config.Zone,
		"url":    c.config.MapsBaseURL + "?cid=" + opaqueID,
		"method": http.MethodGet,
		"format": "json",
	})
	if err != nil {
		return "", err
	}

	outcome := c.fetcher.Fetch(ctx, &httpclient.Request{
		Method: http.MethodPost,
		URL:    c.config.RequestURL,
		Header: http.Header{
			"Authorization": []string{"Bearer " + c.config.APIKey},
			"Content-Type":  []string{"application/json"},
		},
		Body:      payload,
		Transport: httpclient.TransportDirect,
	})
	resp, err := outcome.Get()
	if err != nil {
		return "", err
	}

	html, err := ExtractHTML(resp.Body)
	if err != nil {
		return "", err
	}

	text, err := Clean(html, c.config.MaxWordLength)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "", ErrEmptyContent
	}

	if c.config.MaxLength > 0 && len(text) > c.config.MaxLength {
		text = text[:c.config.MaxLength]
		if i := strings.LastIndexByte(text, ' '); i > 0 {
			text = text[:i]
		}
	}

	c.logger.Info("content fetched", map[string]interface{}{
		"htmlBytes":    len(html),
		"contentBytes": len(text),
	})
	return text, nil
}

// ExtractHTML finds the page markup in the scraping API's JSON envelope: a
// top-level string field first, then one level of nesting.
func ExtractHTML(body []byte) (string, error) {
	var data map[string]interface{}
	if err := json.Unmarshal(body, &data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoHTML, err)
	}

	if html, ok := findHTML(data, htmlKeys); ok {
		return html, nil
	}
	for _, v := range data {
		if nested, ok := v.(map[string]interface{}); ok {
			if html, ok := findHTML(nested, nestedHTMLKeys); ok {
				return html, nil
			}
		}
	}
	return "", ErrNoHTML
}

func findHTML(data map[string]interface{}, keys []string) (string, bool) {
	for _, k := range keys {
		if s, ok := data[k].(string); ok && strings.Contains(strings.ToLower(s), "<html") {
			return s, true
		}
	}
	return "", false
}
