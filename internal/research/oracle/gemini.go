package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"business-research/internal/research/credentials"

	"google.golang.org/genai"
)

// Gemini calls generateContent with one client per credential, built up
// front so no client cache has to be shared between goroutines.
type Gemini struct {
	clients     []*genai.Client
	model       string
	temperature float32
	timeout     time.Duration
}

func NewGemini(ctx context.Context, apiKeys []string, model string, temperature float64, timeout time.Duration) (*Gemini, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("gemini requires at least one API key")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	clients := make([]*genai.Client, len(apiKeys))
	for i, key := range apiKeys {
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  key,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create gemini client %d: %w", i, err)
		}
		clients[i] = client
	}

	return &Gemini{
		clients:     clients,
		model:       model,
		temperature: float32(temperature),
		timeout:     timeout,
	}, nil
}

func (g *Gemini) Generate(ctx context.Context, cred credentials.Credential, prompt string) (string, error) {
	if cred.Index < 0 || cred.Index >= len(g.clients) {
		return "", fmt.Errorf("no gemini client for credential %d", cred.Index)
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.clients[cred.Index].Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.temperature),
	})
	if err != nil {
		if isRateLimit(err) {
			return "", fmt.Errorf("%w: %v", ErrRateLimited, err)
		}
		return "", err
	}

	return resp.Text(), nil
}

func isRateLimit(err error) bool {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr.Code == http.StatusTooManyRequests {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED")
}
