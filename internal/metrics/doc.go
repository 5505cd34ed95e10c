// Package metrics provides Prometheus instrumentation for the media clipper.
//
// All metrics are prefixed with "media_clipper_" and registered on the
// default registry through promauto.
//
// # Metric Categories
//
// ## HTTP Metrics
//   - HTTPRequestsTotal, HTTPRequestDuration, HTTPRequestsInFlight
//
// ## Job Queue Metrics
//   - QueuePendingJobs: jobs currently queued or executing
//   - QueueCapacity: configured MAX_QUEUE_SIZE
//   - QueueRejectionsTotal: admission rejections by reason (full, duplicate, closed)
//   - QueueFailureLogSize: entries in the failure log
//
// ## Executor Metrics
//   - ExecutorJobsTotal: executed jobs by status
//   - ExecutorJobDuration: job duration by kind (audio, video)
//   - ExecutorRunning: 1 while a job is running
//   - TranscoderProcessesActive, ProbeTotal
//
// ## Search Index Metrics
//   - IndexRefreshTotal, IndexRefreshRejected, IndexRefreshDuration
//   - IndexIsRefreshing, IndexFilesTotal, IndexWalkErrors, IndexLastRefreshTimestamp
//   - SearchQueriesTotal, SearchQueryDuration, SearchResultsReturned
//
// ## Library, Database and Filesystem Metrics
//   - LibraryClipsTotal, ThumbnailGenerationsTotal, ThumbnailCacheHits
//   - DBQueryTotal, DBQueryDuration
//   - FilesystemRetryAttempts, FilesystemRetryFailures, FilesystemStaleErrors
//
// The Collector refreshes the gauge metrics from a StatsProvider on a fixed
// interval. Metrics are served on a separate port (METRICS_PORT) at /metrics.
package metrics
