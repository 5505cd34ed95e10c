package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"media-clipper/internal/clipper"
	"media-clipper/internal/database"
	"media-clipper/internal/filesystem"
	"media-clipper/internal/handlers"
	"media-clipper/internal/library"
	"media-clipper/internal/logging"
	"media-clipper/internal/media"
	"media-clipper/internal/memory"
	"media-clipper/internal/metrics"
	"media-clipper/internal/middleware"
	"media-clipper/internal/search"
	"media-clipper/internal/startup"
	"media-clipper/internal/transcoder"
)

const (
	shutdownTimeout   = 30 * time.Second
	collectorInterval = time.Minute
)

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics(config.MaxQueueSize)
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	dbStart := time.Now()
	db, err := database.New(context.Background(), config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	startup.LogTranscoderInit(config.FFmpegPath, config.FFprobePath)
	trans := transcoder.New(config.FFmpegPath)
	prober := transcoder.NewProber(config.FFprobePath)

	thumbGen := media.NewThumbnailGenerator(config.ThumbnailDir, config.ThumbnailsEnabled, media.WithFFmpeg(config.FFmpegPath))
	startup.LogThumbnailInit(config.ThumbnailsEnabled)

	// Jobs run under jobCtx so that a stuck ffmpeg can be killed at shutdown.
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	queue := clipper.New(
		clipper.Config{MaxQueueSize: config.MaxQueueSize},
		trans,
		clipper.WithContext(jobCtx),
		clipper.WithSuccessHook(historyHook(db)),
		clipper.WithSuccessHook(thumbnailHook(thumbGen)),
	)
	startup.LogQueueInit(config.MaxQueueSize, config.MaxClipDuration)

	var engine *search.Engine
	startup.LogSearchInit(config.SearchDirs, config.SearchExts)
	if config.SearchEnabled() {
		searchStart := time.Now()
		engine, err = search.New(
			search.NewSourceSettings(config.SearchDirs, config.SearchExts),
			search.WithOnRefresh(func(files int) {
				logging.Info("Search index refreshed: %d files", files)
			}),
		)
		if err != nil {
			startup.LogFatal("Failed to build search index: %v", err)
		}
		startup.LogSearchReady(engine.Size(), time.Since(searchStart))
	}

	h := handlers.New(config, queue, engine, prober, db, thumbGen)

	collector := metrics.NewCollector(h, collectorInterval)
	collector.Start()

	router := setupRouter(h, config, queue)
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           wrapMiddleware(router, config),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      0, // clip downloads can be large
		IdleTimeout:       60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(config.MetricsPort, h)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	go handleShutdown(srv, metricsSrv, queue, trans, collector, cancelJobs)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		startup.LogFatal("Server error: %v", err)
	}

	// ListenAndServe returns as soon as Shutdown starts; wait for the rest.
	<-shutdownDone
}

var shutdownDone = make(chan struct{})

// historyHook records every finished clip in the database.
func historyHook(db *database.Database) clipper.SuccessHook {
	return func(ctx context.Context, job clipper.Job) error {
		return db.RecordClip(ctx, database.ClipRecord{
			FileName:        job.Key,
			ClipName:        job.ClipName,
			SourcePath:      job.SourcePath,
			Start:           job.Range.Start.String(),
			End:             job.Range.End.String(),
			AudioOnly:       job.AudioOnly,
			DurationSeconds: job.Range.Duration(),
		})
	}
}

// thumbnailHook renders the poster frame of a finished video clip.
func thumbnailHook(thumbGen *media.ThumbnailGenerator) clipper.SuccessHook {
	return func(_ context.Context, job clipper.Job) error {
		return thumbGen.Warm(job.OutputPath)
	}
}

func setupRouter(h *handlers.Handlers, config *startup.Config, queue *clipper.Queue) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	// Health check and version routes
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")
	r.HandleFunc("/version", h.GetVersion).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/config", h.GetConfig).Methods("GET")

	// Clips
	api.HandleFunc("/clips", h.ListClips).Methods("GET")
	api.HandleFunc("/clips", h.CreateClip).Methods("POST")
	api.HandleFunc("/clips/{name}", h.DeleteClip).Methods("DELETE")
	api.HandleFunc("/clips/{name}/thumbnail", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/thumbnails", h.ClearThumbnails).Methods("DELETE")
	api.HandleFunc("/tracks", h.GetTracks).Methods("POST")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/history/{name}", h.GetClipHistory).Methods("GET")

	// Search
	api.HandleFunc("/search", h.Search).Methods("POST")
	api.HandleFunc("/index/refresh", h.RefreshIndex).Methods("POST")
	api.HandleFunc("/index/status", h.IndexStatus).Methods("GET")

	// Jobs
	api.HandleFunc("/jobs/pending", h.PendingJobs).Methods("GET")
	api.HandleFunc("/jobs/failures", h.JobFailures).Methods("GET")
	api.HandleFunc("/jobs/failures", h.ClearJobFailures).Methods("DELETE")

	// Finished clips and the web UI
	r.PathPrefix(library.OutputRoute + "/").Handler(serveOutput(config.OutputDir, queue))
	r.HandleFunc("/", serveStaticFile(filepath.Join(config.StaticDir, "index.html"), "text/html; charset=utf-8"))
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(config.StaticDir)))

	return r
}

func wrapMiddleware(router http.Handler, config *startup.Config) http.Handler {
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks

	logged := middleware.Logger(loggingConfig)(router)
	return middleware.Compression(middleware.DefaultCompressionConfig())(logged)
}

// serveOutput serves finished clips. Files still being written by a pending
// job and anything that is not a plain file name answer 404.
// serveOutput serves finished clips. Pending clips are hidden until the
// executor releases them.
func serveOutput(dir string, queue *clipper.Queue) http.Handler {
	retry := filesystem.DefaultRetryConfig()
	return http.StripPrefix(library.OutputRoute, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/")
		if library.ValidateName(name) != nil || queue.IsPending(name) {
			http.NotFound(w, r)
			return
		}

		f, err := filesystem.OpenWithRetry(filepath.Join(dir, name), retry)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				http.NotFound(w, r)
				return
			}
			logging.Error("Failed to open clip %s: %v", name, err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		defer f.Close()

		info, err := f.Stat()
		if err != nil || !info.Mode().IsRegular() {
			http.NotFound(w, r)
			return
		}
		http.ServeContent(w, r, name, info.ModTime(), f)
	}))
}

func serveStaticFile(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", contentType)
		http.ServeFile(w, r, path)
	}
}

func newMetricsServer(port string, h *handlers.Handlers) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", h.MetricsHandler())
	metricsMux.HandleFunc("/health", h.LivenessCheck)

	return &http.Server{
		Addr:         ":" + port,
		Handler:      metricsMux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}

func handleShutdown(srv, metricsSrv *http.Server, queue *clipper.Queue, trans *transcoder.Transcoder, collector *metrics.Collector, cancelJobs context.CancelFunc) {
	defer close(shutdownDone)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	startup.LogShutdownStep("Waiting for queued clips")
	if err := queue.Shutdown(ctx); err != nil {
		logging.Warn("Clip jobs still running, cancelling: %v", err)
		cancelJobs()
	} else {
		startup.LogShutdownStepComplete("Clip queue drained")
	}

	startup.LogShutdownStep("Cleaning up transcoder")
	trans.Cleanup()
	startup.LogShutdownStepComplete("Transcoder cleanup complete")

	collector.Stop()

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownComplete()
}
