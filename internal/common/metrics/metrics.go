// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Research engine metrics.
var (
	FetchAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_fetch_attempts_total",
			Help: "Outbound fetch attempts by transport and outcome",
		},
		[]string{"transport", "outcome"},
	)

	BranchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_branch_outcomes_total",
			Help: "Aggregation branch results",
		},
		[]string{"branch", "outcome"},
	)

	BranchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "research_branch_duration_seconds",
			Help:    "Duration of each aggregation branch",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
		[]string{"branch"},
	)

	OracleCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_oracle_calls_total",
			Help: "Oracle invocations by purpose and outcome",
		},
		[]string{"purpose", "outcome"},
	)

	CredentialRotations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "research_credential_rotations_total",
			Help: "Credential rotations caused by rate limiting",
		},
	)

	ResolutionCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_resolution_cache_total",
			Help: "Resolution cache lookups by result",
		},
		[]string{"result"},
	)

	Resolutions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "research_resolutions_total",
			Help: "Identity resolution outcomes",
		},
		[]string{"outcome"},
	)
)

// Replace registers c with the default registry, dropping any collector
// previously registered under the same descriptors.
func Replace(c prometheus.Collector) error {
	prometheus.Unregister(c)
	return prometheus.Register(c)
}
