// internal/workers/research/resolve-business/handler_test.go
package resolvebusiness

import (
	"context"
	"fmt"
	"testing"
	"time"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/validation"
	"business-research/internal/models"
	"business-research/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t, fields: map[string]interface{}{}}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v %v", msg, l.fields, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &TestLogger{t: l.t, fields: merged}
}

// ==========================
// Test Helper Functions
// ==========================

type stubResolver struct {
	identity *models.ResolvedIdentity
	err      error
	gotName  string
	gotLoc   string
}

func (s *stubResolver) ResolveOnly(ctx context.Context, name, location string) (*models.ResolvedIdentity, error) {
	s.gotName, s.gotLoc = name, location
	return s.identity, s.err
}

func newValidator(t *testing.T) *validation.JobValidator {
	reg, err := registry.Default()
	require.NoError(t, err)
	return validation.NewJobValidator(reg)
}

func newJob(variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 42, Type: TaskType, Variables: variables, Retries: 3}}
}

func createTestConfig() *Config {
	return &Config{Timeout: 5 * time.Second}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute(t *testing.T) {
	ace := &models.ResolvedIdentity{OpaqueID: "100", TranslatedID: "0x0:0x64", Name: "Ace Plumbing"}

	tests := []struct {
		name      string
		resolver  *stubResolver
		wantFound bool
		wantErr   error
	}{
		{"resolved", &stubResolver{identity: ace}, true, nil},
		{"not found completes", &stubResolver{}, false, nil},
		{"credentials exhausted", &stubResolver{err: fmt.Errorf("disambiguate: %w", apperrors.ErrAllCredentialsExhausted)}, false, apperrors.ErrAllCredentialsExhausted},
		{"transport exhausted", &stubResolver{err: apperrors.ErrTransportExhausted}, false, apperrors.ErrTransportExhausted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), tt.resolver, newValidator(t), nil, NewTestLogger(t))

			output, err := h.Execute(context.Background(), &Input{BusinessName: "Ace Plumbing", Location: "Springfield"})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, output)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFound, output.Found)
			if tt.wantFound {
				assert.Equal(t, "0x0:0x64", output.Identity.TranslatedID)
			} else {
				assert.Nil(t, output.Identity)
			}
			assert.Equal(t, "Ace Plumbing", tt.resolver.gotName)
			assert.Equal(t, "Springfield", tt.resolver.gotLoc)
		})
	}
}

func TestHandler_ParseInput(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubResolver{}, newValidator(t), nil, NewTestLogger(t))

	input, err := h.parseInput(newJob(`{"businessName": "Ace Plumbing", "location": "Springfield, IL"}`))
	require.NoError(t, err)
	assert.Equal(t, "Ace Plumbing", input.BusinessName)
	assert.Equal(t, "Springfield, IL", input.Location)

	for _, vars := range []string{`{}`, `{"businessName": 3}`, `not json`} {
		_, err := h.parseInput(newJob(vars))
		assert.ErrorIs(t, err, apperrors.ErrInvalidInput, vars)
	}
}

func TestHandler_ErrorClassification(t *testing.T) {
	tests := []struct {
		err       error
		wantCode  string
		wantRetry bool
	}{
		{apperrors.ErrAllCredentialsExhausted, "ORACLE_RATE_LIMITED", true},
		{apperrors.ErrTransportExhausted, "PROVIDER_UNAVAILABLE", true},
		{apperrors.ErrMalformedIdentifier, "MALFORMED_IDENTIFIER", false},
		{fmt.Errorf("%w: businessName missing", apperrors.ErrInvalidInput), "INVALID_INPUT", false},
	}
	for _, tt := range tests {
		bpmn := apperrors.ConvertToBPMNError(apperrors.FromError(tt.err))
		assert.Equal(t, tt.wantCode, bpmn.Code)
		assert.Equal(t, tt.wantRetry, bpmn.Retryable)
	}
}
