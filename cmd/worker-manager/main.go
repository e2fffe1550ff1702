// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"business-research/internal/common/camunda"
	"business-research/internal/common/config"
	"business-research/internal/common/database"
	"business-research/internal/common/logger"
	"business-research/internal/common/observability"
	"business-research/internal/common/validation"
	"business-research/internal/research"
	"business-research/pkg/registry"

	rb "business-research/internal/workers/research/research-batch"
	rsb "business-research/internal/workers/research/research-business"
	rvb "business-research/internal/workers/research/resolve-business"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(ctx context.Context, operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}
	if err := config.ValidateForWorkers(cfg); err != nil {
		logger.New("info", "console").Fatal("invalid worker configuration", zap.Error(err))
	}

	zapLog, err := logger.FromConfig(cfg.Logging)
	if err != nil {
		zapLog = logger.New("info", "console")
		zapLog.Warn("logging config rejected, using console logger", zap.Error(err))
	}
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs := observability.New(cfg.App.Name)
	if cfg.Tracing.Enabled {
		tracing, err := observability.NewTracing(cfg.App.Name, cfg.Tracing.JaegerEndpoint, cfg.Tracing.SampleRatio)
		if err != nil {
			zapLog.Warn("tracing disabled", zap.Error(err))
		} else {
			obs.WithTracing(tracing)
			zapLog.Info("Tracing enabled", zap.String("endpoint", cfg.Tracing.JaegerEndpoint))
		}
	}
	defer obs.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Init Zeebe Client with retry ---
	camundaClient, err := camunda.Connect(ctx, camunda.ConfigFrom(cfg.Camunda))
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully", zap.String("gateway", cfg.Camunda.BrokerAddress))

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	if cfg.Database.Redis.Enabled {
		err = retryWithBackoff(ctx, func() error {
			var err error
			redis, err = database.NewRedis(cfg.Database.Redis)
			if err != nil {
				return err
			}
			return redis.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")

		if err != nil {
			zapLog.Fatal("redis failed after retries", zap.Error(err))
		}
		zapLog.Info("Redis connected successfully")
	} else {
		zapLog.Info("Resolution cache disabled")
	}

	// --- Research engine ---
	service, err := newResearchService(ctx, cfg, redis, log)
	if err != nil {
		zapLog.Fatal("failed to build research service", zap.Error(err))
	}

	reg, err := registry.Default()
	if err != nil {
		zapLog.Fatal("failed to load activity registry", zap.Error(err))
	}
	if problems := reg.Problems(); len(problems) > 0 {
		zapLog.Fatal("activity registry is inconsistent", zap.Strings("problems", problems))
	}
	validator := validation.NewJobValidator(reg)

	// --- Register workers ---
	workers := camunda.NewWorkers(camundaClient.Zeebe(), zapLog)

	{
		taskType := rvb.TaskType
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := rvb.NewHandler(
			&rvb.Config{Timeout: workerTimeout(wcfg, reg, taskType, rvb.LoadConfig().Timeout)},
			service, validator, obs, &resolveBusinessLoggerAdapter{log},
		)
		workers.Start(taskType, wcfg, traced(obs, taskType, handler.Handle))
	}
	{
		taskType := rsb.TaskType
		wcfg := config.GetWorkerConfig(cfg, taskType)
		defaults := rsb.LoadConfig()
		handler := rsb.NewHandler(
			&rsb.Config{Timeout: workerTimeout(wcfg, reg, taskType, defaults.Timeout), IncludeContent: defaults.IncludeContent},
			service, validator, obs, &researchBusinessLoggerAdapter{log},
		)
		workers.Start(taskType, wcfg, traced(obs, taskType, handler.Handle))
	}
	{
		taskType := rb.TaskType
		wcfg := config.GetWorkerConfig(cfg, taskType)
		handler := rb.NewHandler(
			&rb.Config{Timeout: workerTimeout(wcfg, reg, taskType, rb.LoadConfig().Timeout)},
			service, validator, obs, &researchBatchLoggerAdapter{log},
		)
		workers.Start(taskType, wcfg, traced(obs, taskType, handler.Handle))
	}
	zapLog.Info("Workers registered", zap.Strings("running", workers.Running()))

	// --- Health & Metrics Server ---
	server := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           newServeMux(camundaClient, redis),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	workers.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := camundaClient.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}
	if redis != nil {
		if err := redis.Close(); err != nil {
			zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func newResearchService(ctx context.Context, cfg *config.Config, redis *database.RedisClient, log logger.Logger) (*research.Service, error) {
	if redis == nil {
		return research.NewFromConfig(ctx, cfg, nil, log)
	}
	return research.NewFromConfig(ctx, cfg, redis.Client, log)
}

func newServeMux(camundaClient *camunda.Client, redis *database.RedisClient) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := camundaClient.HealthCheck(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "zeebe": err.Error()})
			return
		}
		if redis != nil {
			if err := redis.Ping(ctx); err != nil {
				writeStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready", "redis": err.Error()})
				return
			}
		}
		writeStatus(w, http.StatusOK, map[string]string{
			"status": "ready",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeStatus(w http.ResponseWriter, code int, body map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

// traced wraps a job handler in a root span named after the task type.
func traced(obs *observability.Observability, taskType string, handle camunda.JobHandler) camunda.JobHandler {
	return func(client worker.JobClient, job entities.Job) {
		_, span := obs.StartSpan(context.Background(), "job."+taskType,
			attribute.Int64("job.key", job.Key),
			attribute.Int64("job.processInstanceKey", job.ProcessInstanceKey),
		)
		defer span.End()
		handle(client, job)
	}
}

// workerTimeout picks the configured job timeout, then the registry timeout,
// then the handler default.
func workerTimeout(wcfg config.WorkerConfig, reg *registry.ActivityRegistry, taskType string, fallback time.Duration) time.Duration {
	if wcfg.Timeout > 0 {
		return config.GetDuration(wcfg.Timeout)
	}
	if a, ok := reg.Find(taskType); ok {
		if d, err := a.TimeoutDuration(); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}

// Logger adapters for workers that have their own Logger interfaces
type resolveBusinessLoggerAdapter struct {
	logger.Logger
}

func (a *resolveBusinessLoggerAdapter) With(fields map[string]interface{}) rvb.Logger {
	return &resolveBusinessLoggerAdapter{a.Logger.With(fields)}
}

type researchBusinessLoggerAdapter struct {
	logger.Logger
}

func (a *researchBusinessLoggerAdapter) With(fields map[string]interface{}) rsb.Logger {
	return &researchBusinessLoggerAdapter{a.Logger.With(fields)}
}

type researchBatchLoggerAdapter struct {
	logger.Logger
}

func (a *researchBatchLoggerAdapter) With(fields map[string]interface{}) rb.Logger {
	return &researchBatchLoggerAdapter{a.Logger.With(fields)}
}
