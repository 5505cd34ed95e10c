package handlers

import "net/http"

// PendingJobs returns the output file names of queued and running jobs.
func (h *Handlers) PendingJobs(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.queue.JobsInProgress())
}

// JobFailures returns the failure log, oldest first.
func (h *Handlers) JobFailures(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, h.queue.Failures())
}

// ClearJobFailures empties the failure log.
func (h *Handlers) ClearJobFailures(w http.ResponseWriter, _ *http.Request) {
	h.queue.ClearFailures()
	w.WriteHeader(http.StatusNoContent)
}
