// internal/common/camunda/worker.go
package camunda

import (
	"sort"
	"sync"
	"time"

	"business-research/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// JobHandler matches the handler signature expected by the Zeebe job worker.
type JobHandler func(client worker.JobClient, job entities.Job)

// Workers tracks the job workers opened by the process so they can be closed
// together on shutdown.
type Workers struct {
	mu      sync.Mutex
	client  zbc.Client
	workers map[string]worker.JobWorker
	logger  *zap.Logger
}

func NewWorkers(client zbc.Client, logger *zap.Logger) *Workers {
	return &Workers{
		client:  client,
		workers: make(map[string]worker.JobWorker),
		logger:  logger,
	}
}

// Start opens a job worker for taskType unless it is disabled in wcfg.
func (w *Workers) Start(taskType string, wcfg config.WorkerConfig, handler JobHandler) {
	if !wcfg.Enabled {
		w.logger.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	jobWorker := w.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	w.mu.Lock()
	w.workers[taskType] = jobWorker
	w.mu.Unlock()

	w.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

// Running returns the task types with an open worker, sorted.
func (w *Workers) Running() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	types := make([]string, 0, len(w.workers))
	for t := range w.workers {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// Close stops every worker and waits for in-flight jobs to finish.
func (w *Workers) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for taskType, jw := range w.workers {
		w.logger.Info("stopping worker", zap.String("taskType", taskType))
		jw.Close()
		jw.AwaitClose()
	}
	w.workers = map[string]worker.JobWorker{}
}
