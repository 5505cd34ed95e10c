package handlers

import (
	"net/http"
	"time"

	"media-clipper/internal/search"
)

const searchDisabledMessage = "Search is disabled because no source directory was specified in the SEARCH_DIRS env variable"

// SearchRequest is the body of POST /api/search.
type SearchRequest struct {
	SearchString string `json:"searchString"`
}

// IndexStatusResponse describes the search index.
type IndexStatusResponse struct {
	Enabled     bool       `json:"enabled"`
	Refreshing  bool       `json:"refreshing"`
	Files       int        `json:"files"`
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
}

// Search returns the indexed paths matching every whitespace-separated term.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		writeJSONError(w, searchDisabledMessage, http.StatusForbidden)
		return
	}

	var req SearchRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	terms := search.SplitTerms(req.SearchString)
	if len(terms) == 0 {
		writeJSONError(w, "search fields should not be left empty", http.StatusBadRequest)
		return
	}

	writeJSONStatus(w, http.StatusOK, h.search.Search(terms))
}

// RefreshIndex starts a background rebuild of the search index.
func (h *Handlers) RefreshIndex(w http.ResponseWriter, _ *http.Request) {
	if h.search == nil {
		writeJSONError(w, searchDisabledMessage, http.StatusForbidden)
		return
	}

	if err := h.search.RefreshIndex(); err != nil {
		writeError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, map[string]string{
		"status":  "started",
		"message": "Index refresh started",
	})
}

// IndexStatus reports whether a refresh is running and how many files are
// indexed.
func (h *Handlers) IndexStatus(w http.ResponseWriter, _ *http.Request) {
	resp := IndexStatusResponse{}
	if h.search != nil {
		resp.Enabled = true
		resp.Refreshing = h.search.IsRefreshing()
		resp.Files = h.search.Size()
		if last := h.search.LastRefresh(); !last.IsZero() {
			resp.LastRefresh = &last
		}
	}
	w.Header().Set("Cache-Control", "no-cache")
	writeJSONStatus(w, http.StatusOK, resp)
}
