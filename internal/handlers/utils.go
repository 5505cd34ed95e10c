package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"media-clipper/internal/clipper"
	"media-clipper/internal/database"
	"media-clipper/internal/library"
	"media-clipper/internal/logging"
	"media-clipper/internal/search"
	"media-clipper/internal/timerange"
	"media-clipper/internal/transcoder"
)

// maxBodySize caps JSON request bodies.
const maxBodySize = 64 << 10

var errBadRequest = errors.New("bad request")

// writeJSON encodes v as JSON and writes it to the response writer.
// Any encoding or write errors are logged since we typically cannot
// recover from them in an HTTP handler context.
func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

// writeJSONStatus writes v with the given status code.
func writeJSONStatus(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, v)
}

// writeJSONError writes an error response as JSON with the given status code.
func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	writeJSONStatus(w, statusCode, map[string]string{"error": message})
}

// writeError maps err to a status code and writes it.
func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	}
	writeJSONError(w, err.Error(), status)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, timerange.ErrInvalidInput),
		errors.Is(err, timerange.ErrStartNotBeforeEnd),
		errors.Is(err, timerange.ErrTooLong),
		errors.Is(err, clipper.ErrInvalidClipName),
		errors.Is(err, transcoder.ErrAudioTrack),
		errors.Is(err, library.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, database.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, clipper.ErrQueueFull):
		return http.StatusTooManyRequests
	case errors.Is(err, clipper.ErrDuplicateJob),
		errors.Is(err, search.ErrRefreshInProgress):
		return http.StatusConflict
	case errors.Is(err, clipper.ErrQueueClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON reads a JSON body into v.
func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodySize))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	return nil
}
