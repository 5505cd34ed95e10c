package handlers

import (
	"context"
	"time"

	"media-clipper/internal/clipper"
	"media-clipper/internal/database"
	"media-clipper/internal/media"
	"media-clipper/internal/search"
	"media-clipper/internal/startup"
	"media-clipper/internal/transcoder"
)

// TrackProber lists the audio and subtitle tracks of a source file.
type TrackProber interface {
	ProbeTracks(ctx context.Context, path string) (transcoder.Tracks, error)
}

type Handlers struct {
	config    *startup.Config
	queue     *clipper.Queue
	search    *search.Engine
	prober    TrackProber
	db        *database.Database
	thumbGen  *media.ThumbnailGenerator
	startTime time.Time
}

// New creates the handler set. engine is nil when search is disabled.
func New(config *startup.Config, queue *clipper.Queue, engine *search.Engine, prober TrackProber, db *database.Database, thumbGen *media.ThumbnailGenerator) *Handlers {
	return &Handlers{
		config:    config,
		queue:     queue,
		search:    engine,
		prober:    prober,
		db:        db,
		thumbGen:  thumbGen,
		startTime: time.Now(),
	}
}
