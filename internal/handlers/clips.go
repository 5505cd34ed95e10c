package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"

	"media-clipper/internal/clipper"
	"media-clipper/internal/database"
	"media-clipper/internal/library"
	"media-clipper/internal/logging"
	"media-clipper/internal/media"
	"media-clipper/internal/timerange"
	"media-clipper/internal/transcoder"
)

// CreateClipRequest is the body of POST /api/clips. Time fields are strings
// so that blank inputs from the form count as zero.
type CreateClipRequest struct {
	SourceFile    string `json:"sourceFile"`
	ClipName      string `json:"clipName"`
	AudioTrack    string `json:"audioTrack"`
	SubtitleTrack string `json:"subtitleTrack"`
	StartHour     string `json:"startHour"`
	StartMin      string `json:"startMin"`
	StartSec      string `json:"startSec"`
	EndHour       string `json:"endHour"`
	EndMin        string `json:"endMin"`
	EndSec        string `json:"endSec"`
	AudioOnly     bool   `json:"audioOnly"`
}

// CreateClipResponse acknowledges an admitted job.
type CreateClipResponse struct {
	Status   string `json:"status"`
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

// ListClips returns the finished clips, excluding ones still being written.
func (h *Handlers) ListClips(w http.ResponseWriter, r *http.Request) {
	lib, err := library.List(h.config.OutputDir, h.config.PublicLinkPrefix, h.queue.JobsInProgress())
	if err != nil {
		writeError(w, err)
		return
	}

	sources := make(map[string]string)
	if records, err := h.db.ListClips(r.Context()); err != nil {
		logging.Warn("Failed to load clip history: %v", err)
	} else {
		for _, rec := range records {
			sources[rec.FileName] = rec.SourcePath
		}
	}

	annotate := func(clips []library.ClipInfo) {
		for i := range clips {
			clips[i].Source = sources[clips[i].FileName]
			path := filepath.Join(h.config.OutputDir, clips[i].FileName)
			clips[i].HasThumbnail = h.thumbGen.HasThumbnail(path, clips[i].ModTime)
		}
	}
	annotate(lib.Video)
	annotate(lib.Audio)

	writeJSONStatus(w, http.StatusOK, lib)
}

// CreateClip validates a clip request and hands it to the job queue.
func (h *Handlers) CreateClip(w http.ResponseWriter, r *http.Request) {
	var req CreateClipRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	job, err := h.buildJob(req)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.queue.AddJob(job); err != nil {
		writeError(w, err)
		return
	}

	writeJSONStatus(w, http.StatusAccepted, CreateClipResponse{
		Status:   "queued",
		ID:       job.ID,
		FileName: job.Key,
	})
}

func (h *Handlers) buildJob(req CreateClipRequest) (clipper.Job, error) {
	source := strings.TrimSpace(req.SourceFile)
	if source == "" {
		return clipper.Job{}, fmt.Errorf("%w: source file should not be empty", errBadRequest)
	}

	rng, err := timerange.Validate(h.config.MaxClipDuration,
		req.StartHour, req.StartMin, req.StartSec,
		req.EndHour, req.EndMin, req.EndSec)
	if err != nil {
		return clipper.Job{}, err
	}

	job, err := clipper.NewJob(clipper.JobSpec{
		SourcePath:    source,
		OutputDir:     h.config.OutputDir,
		ClipName:      req.ClipName,
		AudioTrack:    strings.TrimSpace(req.AudioTrack),
		SubtitleTrack: strings.TrimSpace(req.SubtitleTrack),
		Range:         rng,
		AudioOnly:     req.AudioOnly,
	})
	if err != nil {
		return clipper.Job{}, err
	}

	// Reject track selectors ffmpeg would choke on before the job is queued.
	if _, err := transcoder.BuildArgs(job); err != nil {
		return clipper.Job{}, err
	}
	return job, nil
}

// DeleteClip removes a finished clip, its thumbnail and its history record.
func (h *Handlers) DeleteClip(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := library.ValidateName(name); err != nil {
		writeError(w, err)
		return
	}
	if h.queue.IsPending(name) {
		writeJSONError(w, "clip is still being created", http.StatusConflict)
		return
	}

	path := filepath.Join(h.config.OutputDir, name)
	if err := h.thumbGen.Remove(path); err != nil {
		logging.Warn("Failed to remove thumbnail for %s: %v", name, err)
	}

	if err := library.Delete(h.config.OutputDir, name); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			writeJSONError(w, "clip not found", http.StatusNotFound)
			return
		}
		writeError(w, err)
		return
	}

	if err := h.db.DeleteClip(r.Context(), name); err != nil && !errors.Is(err, database.ErrNotFound) {
		logging.Warn("Failed to delete history for %s: %v", name, err)
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetThumbnail serves the poster frame of a video clip.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := library.ValidateName(name); err != nil {
		writeError(w, err)
		return
	}
	if h.queue.IsPending(name) {
		http.Error(w, "Clip not ready", http.StatusNotFound)
		return
	}

	thumb, err := h.thumbGen.GetThumbnail(filepath.Join(h.config.OutputDir, name))
	if err != nil {
		switch {
		case errors.Is(err, media.ErrDisabled), errors.Is(err, media.ErrUnsupported), errors.Is(err, os.ErrNotExist):
			http.Error(w, "Thumbnail not available", http.StatusNotFound)
		default:
			logging.Warn("Thumbnail for %s failed: %v", name, err)
			http.Error(w, "Failed to generate thumbnail", http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(thumb); err != nil {
		logging.Debug("Thumbnail write for %s failed: %v", name, err)
	}
}

// ClearThumbnails empties the thumbnail cache.
func (h *Handlers) ClearThumbnails(w http.ResponseWriter, _ *http.Request) {
	freed, err := h.thumbGen.ClearCache()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, map[string]int64{"freedBytes": freed})
}

// GetHistory returns every recorded clip, newest first.
func (h *Handlers) GetHistory(w http.ResponseWriter, r *http.Request) {
	records, err := h.db.ListClips(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, records)
}

// GetClipHistory returns the history record of one clip.
func (h *Handlers) GetClipHistory(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if err := library.ValidateName(name); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.db.GetClip(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSONStatus(w, http.StatusOK, rec)
}
