package oracle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/logger"
	"business-research/internal/research/credentials"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

// scriptedModel returns, per credential index, a queue of results.
type scriptedModel struct {
	mu      sync.Mutex
	replies map[int][]error
	text    string
	used    []int
}

func (m *scriptedModel) Generate(ctx context.Context, cred credentials.Credential, prompt string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.used = append(m.used, cred.Index)
	if q := m.replies[cred.Index]; len(q) > 0 {
		m.replies[cred.Index] = q[1:]
		if q[0] != nil {
			return "", q[0]
		}
	}
	return m.text, nil
}

func newPool(t *testing.T, n int) *credentials.Pool {
	t.Helper()
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("k%d", i)
	}
	p, err := credentials.NewPool(keys)
	require.NoError(t, err)
	return p
}

func TestRotating_SucceedsFirstTry(t *testing.T) {
	model := &scriptedModel{text: "<business>1</business>"}
	j := NewRotating(model, newPool(t, 3), "disambiguate", logger.NewTestLogger(t))

	out, err := j.Judge(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "<business>1</business>", out)
	assert.Equal(t, []int{0}, model.used)
}

func TestRotating_RotatesOnRateLimit(t *testing.T) {
	model := &scriptedModel{
		text:    "ok",
		replies: map[int][]error{0: {ErrRateLimited}, 1: {fmt.Errorf("%w: 429", ErrRateLimited)}},
	}
	pool := newPool(t, 3)
	j := NewRotating(model, pool, "summary", logger.NewTestLogger(t))

	out, err := j.Judge(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.Equal(t, []int{0, 1, 2}, model.used)

	stats := pool.Stats()
	assert.Equal(t, 1, stats[0].Exhausted)
	assert.Equal(t, 1, stats[1].Exhausted)
	assert.Equal(t, 0, stats[2].Exhausted)
}

func TestRotating_AllCredentialsExhausted(t *testing.T) {
	model := &scriptedModel{replies: map[int][]error{
		0: {ErrRateLimited}, 1: {ErrRateLimited},
	}}
	j := NewRotating(model, newPool(t, 2), "disambiguate", logger.NewTestLogger(t))

	_, err := j.Judge(context.Background(), "prompt")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrAllCredentialsExhausted)
	assert.Len(t, model.used, 2, "bounded by pool size")
}

func TestRotating_OtherErrorsDoNotRotate(t *testing.T) {
	boom := errors.New("bad request")
	model := &scriptedModel{replies: map[int][]error{0: {boom}}}
	j := NewRotating(model, newPool(t, 3), "disambiguate", logger.NewTestLogger(t))

	_, err := j.Judge(context.Background(), "prompt")
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, apperrors.ErrAllCredentialsExhausted)
	assert.Equal(t, []int{0}, model.used)
}

func TestIsRateLimit(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"api error 429", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, true},
		{"wrapped api error", fmt.Errorf("call: %w", genai.APIError{Code: 429}), true},
		{"api error 500", genai.APIError{Code: 500, Message: "internal"}, false},
		{"string match", errors.New("Error 429, Message: quota"), true},
		{"resource exhausted text", errors.New("RESOURCE_EXHAUSTED"), true},
		{"other", errors.New("deadline exceeded"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isRateLimit(tt.err))
		})
	}
}

func TestNewGemini_RequiresKeys(t *testing.T) {
	_, err := NewGemini(context.Background(), nil, "", 0.7, 0)
	assert.Error(t, err)
}
