package handlers

import (
	"media-clipper/internal/library"
	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
)

var _ metrics.StatsProvider = (*Handlers)(nil)

// GetStats implements metrics.StatsProvider.
func (h *Handlers) GetStats() metrics.Stats {
	pending, failures := h.queue.Counts()
	stats := metrics.Stats{
		PendingJobs: pending,
		Failures:    failures,
	}

	if h.search != nil {
		stats.IndexedFiles = h.search.Size()
	}

	lib, err := library.List(h.config.OutputDir, h.config.PublicLinkPrefix, h.queue.JobsInProgress())
	if err != nil {
		logging.Debug("Stats: listing clips failed: %v", err)
		return stats
	}
	stats.VideoClips = len(lib.Video)
	stats.AudioClips = len(lib.Audio)
	return stats
}
