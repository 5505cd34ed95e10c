package metrics

import (
	"sync"
	"time"

	"media-clipper/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time view of the clipper state.
type Stats struct {
	PendingJobs  int
	Failures     int
	IndexedFiles int
	VideoClips   int
	AudioClips   int
}

// Collector periodically collects and updates gauge metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopChan)
	})
}

func (c *Collector) collectLoop() {
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	QueuePendingJobs.Set(float64(stats.PendingJobs))
	QueueFailureLogSize.Set(float64(stats.Failures))
	IndexFilesTotal.Set(float64(stats.IndexedFiles))
	LibraryClipsTotal.WithLabelValues("video").Set(float64(stats.VideoClips))
	LibraryClipsTotal.WithLabelValues("audio").Set(float64(stats.AudioClips))

	logging.Debug("Metrics collected: pending=%d, failures=%d, indexed=%d, video=%d, audio=%d",
		stats.PendingJobs, stats.Failures, stats.IndexedFiles, stats.VideoClips, stats.AudioClips)
}
