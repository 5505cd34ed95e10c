package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics(queueCapacity int) {
	QueueCapacity.Set(float64(queueCapacity))

	for _, reason := range []string{"full", "duplicate", "closed"} {
		QueueRejectionsTotal.WithLabelValues(reason)
	}

	for _, status := range []string{"success", "error_missing_source", "error"} {
		ExecutorJobsTotal.WithLabelValues(status)
	}

	for _, kind := range []string{"audio", "video"} {
		ExecutorJobDuration.WithLabelValues(kind)
		LibraryClipsTotal.WithLabelValues(kind)
	}

	for _, status := range []string{"success", "error"} {
		ProbeTotal.WithLabelValues(status)
		ThumbnailGenerationsTotal.WithLabelValues(status)
	}

	for _, op := range []string{"stat", "open"} {
		FilesystemRetryAttempts.WithLabelValues(op)
		FilesystemRetryFailures.WithLabelValues(op)
		FilesystemStaleErrors.WithLabelValues(op)
	}

	for _, op := range []string{"initialize_schema", "record_clip", "get_clip", "list_clips", "delete_clip"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
