// internal/workers/research/research-business/handler_test.go
package researchbusiness

import (
	"context"
	"encoding/json"
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
	t *testing.T
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{t: t}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func (l *TestLogger) With(fields map[string]interface{}) Logger { return l }

// ==========================
// Test Helper Functions
// ==========================

type stubResearcher struct {
	record *models.BusinessRecord
	err    error
}

func (s *stubResearcher) ResolveAndAggregate(ctx context.Context, name, location string) (*models.BusinessRecord, error) {
	return s.record, s.err
}

type countingRecorder struct {
	nopRecorder
	populated []int
}

func (r *countingRecorder) RecordResearch(ctx context.Context, populated int) {
	r.populated = append(r.populated, populated)
}

func newValidator(t *testing.T) *validation.JobValidator {
	reg, err := registry.Default()
	require.NoError(t, err)
	return validation.NewJobValidator(reg)
}

func partialRecord() *models.BusinessRecord {
	content := "Family owned plumber"
	return &models.BusinessRecord{
		RunID:    "run-1",
		Identity: &models.ResolvedIdentity{OpaqueID: "100", TranslatedID: "0x0:0x64", Name: "Ace Plumbing"},
		Detail:   map[string]interface{}{"name": "Ace Plumbing"},
		Content:  &content,
		Branches: map[models.Branch]models.BranchStatus{
			models.BranchDetail:  {Succeeded: true},
			models.BranchContent: {Succeeded: true},
			models.BranchReviews: {Succeeded: false, Error: "branch reviews failed: TRANSPORT_EXHAUSTED"},
		},
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_PartialRecordCompletes(t *testing.T) {
	recorder := &countingRecorder{}
	h := NewHandler(&Config{Timeout: time.Second, IncludeContent: true}, &stubResearcher{record: partialRecord()},
		newValidator(t), recorder, NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{BusinessName: "Ace Plumbing"})
	require.NoError(t, err)
	assert.True(t, output.Found)
	assert.Equal(t, 2, output.Populated)
	assert.NotNil(t, output.Record.Content)
	assert.Equal(t, []int{2}, recorder.populated)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"translatedId":"0x0:0x64"`)
	assert.NotContains(t, string(data), `"items":`)
}

func TestHandler_Execute_ExcludeContent(t *testing.T) {
	h := NewHandler(&Config{Timeout: time.Second}, &stubResearcher{record: partialRecord()}, newValidator(t), nil, NewTestLogger(t))

	output, err := h.Execute(context.Background(), &Input{BusinessName: "Ace Plumbing"})
	require.NoError(t, err)
	assert.Nil(t, output.Record.Content)
	assert.Equal(t, 1, output.Populated)

	content := output.Record.Branches[models.BranchContent]
	assert.False(t, content.Succeeded, "content branch must not claim data the record no longer carries")
	assert.True(t, content.Skipped)
	assert.True(t, output.Record.Branches[models.BranchDetail].Succeeded)
	assert.False(t, output.Record.Branches[models.BranchReviews].Skipped)

	data, err := json.Marshal(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"content":{"succeeded":false,"skipped":true`)
}

func TestHandler_Execute_NotFoundAndErrors(t *testing.T) {
	h := NewHandler(LoadConfig(), &stubResearcher{}, newValidator(t), nil, NewTestLogger(t))
	output, err := h.Execute(context.Background(), &Input{BusinessName: "Nobody"})
	require.NoError(t, err)
	assert.False(t, output.Found)
	assert.Nil(t, output.Record)

	h = NewHandler(LoadConfig(), &stubResearcher{err: apperrors.ErrTransportExhausted}, newValidator(t), nil, NewTestLogger(t))
	_, err = h.Execute(context.Background(), &Input{BusinessName: "Ace"})
	assert.ErrorIs(t, err, apperrors.ErrTransportExhausted)
}

func TestHandler_ParseInput(t *testing.T) {
	h := NewHandler(LoadConfig(), &stubResearcher{}, newValidator(t), nil, NewTestLogger(t))

	job := entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 7, Variables: `{"businessName": "Ace Plumbing", "location": "Springfield"}`}}
	input, err := h.parseInput(job)
	require.NoError(t, err)
	assert.Equal(t, &Input{BusinessName: "Ace Plumbing", Location: "Springfield"}, input)

	job = entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 8, Variables: `{"location": "Springfield"}`}}
	_, err = h.parseInput(job)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}
