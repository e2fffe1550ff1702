// internal/workers/research/resolve-business/handler.go
package resolvebusiness

import (
	"context"
	"encoding/json"
	"time"

	apperrors "business-research/internal/common/errors"
	"business-research/internal/common/metrics"
	"business-research/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "resolve-business"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type Resolver interface {
	ResolveOnly(ctx context.Context, name, location string) (*models.ResolvedIdentity, error)
}

type Validator interface {
	Validate(taskType string, variables []byte) error
}

// Recorder receives job and research measurements for the OpenTelemetry meter.
type Recorder interface {
	RecordJobProcessed(ctx context.Context, status string)
	RecordJobDuration(ctx context.Context, duration time.Duration, status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordJobProcessed(context.Context, string)               {}
func (nopRecorder) RecordJobDuration(context.Context, time.Duration, string) {}

type Handler struct {
	config     *Config
	resolver   Resolver
	validator  Validator
	recorder   Recorder
	errHandler *apperrors.ErrorHandler
	logger     Logger
}

// NewHandler builds the handler. recorder may be nil.
func NewHandler(config *Config, resolver Resolver, validator Validator, recorder Recorder, log Logger) *Handler {
	l := log.With(map[string]interface{}{"taskType": TaskType})
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Handler{
		config:     config,
		resolver:   resolver,
		validator:  validator,
		recorder:   recorder,
		errHandler: apperrors.NewErrorHandler(l),
		logger:     l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	input, err := h.parseInput(job)
	if err != nil {
		h.failJob(client, job, err)
		h.record(ctx, start, "failed")
		return
	}

	output, err := h.Execute(ctx, input)
	if err != nil {
		h.failJob(client, job, err)
		h.record(ctx, start, "failed")
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.record(ctx, start, "completed")
}

func (h *Handler) record(ctx context.Context, start time.Time, status string) {
	h.recorder.RecordJobProcessed(ctx, status)
	h.recorder.RecordJobDuration(ctx, time.Since(start), status)
}

func (h *Handler) parseInput(job entities.Job) (*Input, error) {
	variables := []byte(job.Variables)
	if err := h.validator.Validate(TaskType, variables); err != nil {
		return nil, err
	}
	var input Input
	if err := json.Unmarshal(variables, &input); err != nil {
		return nil, apperrors.NewInvalidInputError(err.Error())
	}
	return &input, nil
}

// Execute resolves the business. A business that cannot be resolved is a
// successful job with Found=false.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	identity, err := h.resolver.ResolveOnly(ctx, input.BusinessName, input.Location)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		h.logger.Info("business not resolved", map[string]interface{}{"businessName": input.BusinessName})
		return &Output{Found: false}, nil
	}

	h.logger.Info("business resolved", map[string]interface{}{
		"businessName": input.BusinessName,
		"fid":          identity.TranslatedID,
	})
	return &Output{Found: true, Identity: identity}, nil
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, err error) {
	stdErr := h.errHandler.HandleJobError(context.Background(), client, job, err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		return
	}

	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}
