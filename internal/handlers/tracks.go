package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"media-clipper/internal/filesystem"
)

// TracksRequest is the body of POST /api/tracks.
type TracksRequest struct {
	FilePath string `json:"filePath"`
}

// GetTracks lists the audio and subtitle tracks of a source file.
func (h *Handlers) GetTracks(w http.ResponseWriter, r *http.Request) {
	var req TracksRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	path := strings.TrimSpace(req.FilePath)
	if path == "" {
		writeJSONError(w, "source file path should not be empty", http.StatusBadRequest)
		return
	}

	exists, err := filesystem.Exists(path, filesystem.DefaultRetryConfig())
	if err == nil && !exists {
		err = fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		writeJSONError(w, "failed to extract source file tracks info: "+err.Error(), http.StatusBadRequest)
		return
	}

	tracks, err := h.prober.ProbeTracks(r.Context(), path)
	if err != nil {
		writeJSONError(w, "failed to extract source file tracks info: "+err.Error(), http.StatusBadRequest)
		return
	}

	writeJSONStatus(w, http.StatusOK, tracks)
}
