package metrics

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsAreRegistered(t *testing.T) {
	// Touch a labelled series so vectors show up in Gather output.
	HTTPRequestsTotal.WithLabelValues("GET", "/api/clips", "200").Inc()
	ExecutorJobsTotal.WithLabelValues("success").Add(0)

	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}

	names := make(map[string]bool)
	for _, f := range families {
		names[f.GetName()] = true
	}

	expected := []string{
		"media_clipper_http_requests_total",
		"media_clipper_queue_pending_jobs",
		"media_clipper_queue_capacity",
		"media_clipper_executor_running",
		"media_clipper_executor_jobs_total",
		"media_clipper_index_refreshing",
		"media_clipper_index_files",
		"media_clipper_search_queries_total",
	}
	for _, name := range expected {
		if !names[name] {
			t.Errorf("metric %s not registered", name)
		}
	}
}

func TestMetricNamesArePrefixed(t *testing.T) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		t.Fatalf("Gather() failed: %v", err)
	}
	for _, f := range families {
		name := f.GetName()
		if strings.HasPrefix(name, "go_") || strings.HasPrefix(name, "process_") || strings.HasPrefix(name, "promhttp_") {
			continue
		}
		if !strings.HasPrefix(name, "media_clipper_") {
			t.Errorf("metric %s is missing the media_clipper_ prefix", name)
		}
	}
}

func TestQueueRejectionCounter(t *testing.T) {
	before := testutil.ToFloat64(QueueRejectionsTotal.WithLabelValues("duplicate"))
	QueueRejectionsTotal.WithLabelValues("duplicate").Inc()
	after := testutil.ToFloat64(QueueRejectionsTotal.WithLabelValues("duplicate"))
	if after != before+1 {
		t.Errorf("counter = %v, want %v", after, before+1)
	}
}

func TestAppInfoMetric(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	if got := testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")); got != 1 {
		t.Errorf("AppInfo = %v, want 1", got)
	}
}

func TestMetricsConcurrentAccess(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				SearchQueriesTotal.Inc()
				ExecutorRunning.Set(1)
				ExecutorRunning.Set(0)
				IndexRefreshDuration.Observe(0.01)
			}
		}()
	}
	wg.Wait()
}
