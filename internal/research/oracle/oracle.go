// Package oracle wraps the decision oracle behind a single-method Judge and
// spreads calls across the credential pool.
package oracle

import (
	"context"
	"errors"
	"fmt"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/common/metrics"
	"business-research/internal/research/credentials"
)

// ErrRateLimited marks a model error caused by the credential's quota.
var ErrRateLimited = errors.New("oracle rate limited")

// Judge answers a natural-language prompt with free text.
type Judge interface {
	Judge(ctx context.Context, prompt string) (string, error)
}

// Model is one provider call made with an explicit credential.
type Model interface {
	Generate(ctx context.Context, cred credentials.Credential, prompt string) (string, error)
}

// CredentialPool is the slice of credentials.Pool the oracle needs.
type CredentialPool interface {
	Next() credentials.Credential
	ReportExhausted(c credentials.Credential) credentials.Credential
	Size() int
}

// Rotating is a Judge that retries the same prompt on the next credential
// whenever the current one is rate limited, up to the pool size.
type Rotating struct {
	model   Model
	pool    CredentialPool
	purpose string
	logger  logger.Logger
}

func NewRotating(model Model, pool CredentialPool, purpose string, log logger.Logger) *Rotating {
	return &Rotating{
		model:   model,
		pool:    pool,
		purpose: purpose,
		logger:  log.With(map[string]interface{}{"oraclePurpose": purpose}),
	}
}

func (r *Rotating) Judge(ctx context.Context, prompt string) (string, error) {
	attempts := r.pool.Size()
	cred := r.pool.Next()

	for attempt := 1; attempt <= attempts; attempt++ {
		text, err := r.model.Generate(ctx, cred, prompt)
		if err == nil {
			metrics.OracleCalls.WithLabelValues(r.purpose, "success").Inc()
			return text, nil
		}

		if !errors.Is(err, ErrRateLimited) {
			metrics.OracleCalls.WithLabelValues(r.purpose, "error").Inc()
			return "", fmt.Errorf("oracle call failed: %w", err)
		}

		r.logger.Warn("oracle credential rate limited", map[string]interface{}{
			"credential": cred.Index,
			"attempt":    attempt,
			"poolSize":   attempts,
		})
		if attempt == attempts {
			break
		}
		cred = r.pool.ReportExhausted(cred)
	}

	metrics.OracleCalls.WithLabelValues(r.purpose, "exhausted").Inc()
	return "", fmt.Errorf("%w: %d credentials tried", apperrors.ErrAllCredentialsExhausted, attempts)
}
