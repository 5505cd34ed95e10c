package handlers

import (
	"net/http"
	"runtime"
	"time"

	"media-clipper/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	PendingJobs   int  `json:"pendingJobs"`
	JobFailures   int  `json:"jobFailures"`
	SearchEnabled bool `json:"searchEnabled"`
	Indexing      bool `json:"indexing"`
	IndexedFiles  int  `json:"indexedFiles"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	pending, failures := h.queue.Counts()
	ready := h.queue.Accepting()

	response := HealthResponse{
		Status:        statusHealthy,
		Ready:         ready,
		Version:       startup.Version,
		Uptime:        time.Since(h.startTime).Round(time.Second).String(),
		PendingJobs:   pending,
		JobFailures:   failures,
		SearchEnabled: h.search != nil,
		GoVersion:     runtime.Version(),
		NumCPU:        runtime.NumCPU(),
		NumGoroutine:  runtime.NumGoroutine(),
	}
	if h.search != nil {
		response.Indexing = h.search.IsRefreshing()
		response.IndexedFiles = h.search.Size()
	}

	code := http.StatusOK
	if !ready {
		response.Status = statusDegraded
		code = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, code, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	// For HEAD requests, only send headers (no body)
	if r.Method != http.MethodHead {
		writeJSON(w, map[string]string{"status": "alive"})
	}
}

// ReadinessCheck returns 200 while the job queue accepts work.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	if h.queue.Accepting() {
		writeJSONStatus(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	writeJSONStatus(w, http.StatusServiceUnavailable, map[string]string{"status": "not_ready"})
}
