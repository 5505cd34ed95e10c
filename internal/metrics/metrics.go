package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_clipper_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Job queue metrics
var (
	QueuePendingJobs = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_queue_pending_jobs",
			Help: "Number of clip jobs currently queued or executing",
		},
	)

	QueueCapacity = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_queue_capacity",
			Help: "Maximum number of clip jobs that may be pending at once",
		},
	)

	QueueRejectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_queue_rejections_total",
			Help: "Total number of clip jobs rejected at admission",
		},
		[]string{"reason"}, // "full", "duplicate", "closed"
	)

	QueueFailureLogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_queue_failure_log_size",
			Help: "Number of entries in the job failure log",
		},
	)
)

// Executor metrics
var (
	ExecutorJobsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_executor_jobs_total",
			Help: "Total number of clip jobs executed",
		},
		[]string{"status"}, // "success", "error_missing_source", "error"
	)

	ExecutorJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_clipper_executor_job_duration_seconds",
			Help:    "Clip job duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"kind"}, // "audio", "video"
	)

	ExecutorRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_executor_running",
			Help: "Whether the executor is currently running a job (1 = running, 0 = idle)",
		},
	)

	TranscoderProcessesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_transcoder_processes_active",
			Help: "Number of ffmpeg processes currently running",
		},
	)

	ProbeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_probe_total",
			Help: "Total number of ffprobe track inspections",
		},
		[]string{"status"},
	)
)

// Search index metrics
var (
	IndexRefreshTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_clipper_index_refresh_total",
			Help: "Total number of search index refreshes",
		},
	)

	IndexRefreshRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_clipper_index_refresh_rejected_total",
			Help: "Total number of refresh requests rejected because one was already running",
		},
	)

	IndexRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_clipper_index_refresh_duration_seconds",
			Help:    "Duration of a search index rebuild in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)

	IndexIsRefreshing = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_index_refreshing",
			Help: "Whether a search index rebuild is running (1 = running, 0 = idle)",
		},
	)

	IndexFilesTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_index_files",
			Help: "Number of files in the current search index",
		},
	)

	IndexWalkErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_clipper_index_walk_errors_total",
			Help: "Total number of directory entries skipped because of walk errors",
		},
	)

	IndexLastRefreshTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "media_clipper_index_last_refresh_timestamp",
			Help: "Unix timestamp of the last completed search index rebuild",
		},
	)

	SearchQueriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_clipper_search_queries_total",
			Help: "Total number of search queries",
		},
	)

	SearchQueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_clipper_search_query_duration_seconds",
			Help:    "Search query duration in seconds",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	SearchResultsReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "media_clipper_search_results_returned",
			Help:    "Number of paths returned by search queries",
			Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)
)

// Clip library metrics
var (
	LibraryClipsTotal = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_clipper_library_clips",
			Help: "Number of finished clips in the output directory by kind",
		},
		[]string{"kind"},
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_thumbnail_generations_total",
			Help: "Total number of clip thumbnail generations",
		},
		[]string{"status"},
	)

	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "media_clipper_thumbnail_cache_hits_total",
			Help: "Total number of clip thumbnail cache hits",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "media_clipper_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"operation"},
	)
)

// Filesystem metrics
var (
	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_filesystem_retry_attempts_total",
			Help: "Total number of filesystem operation retries after stale NFS handles",
		},
		[]string{"operation"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_clipper_filesystem_stale_errors_total",
			Help: "Total number of stale NFS file handle errors",
		},
		[]string{"operation"},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "media_clipper_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
