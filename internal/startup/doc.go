// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// All configuration is loaded from environment variables via [LoadConfig].
// The following environment variables are supported:
//
//   - APP_NAME: Display name returned by /api/info (default: Media Server Clipper)
//   - OUTPUT_PATH: Directory clips are written to (default: output)
//   - PUBLIC_LINK_PREFIX: Prefix for shareable clip links (default: /output)
//   - MAX_CLIP_DURATION: Longest accepted clip in seconds (default: 600)
//   - MAX_QUEUE_SIZE: Maximum number of pending jobs (default: 4)
//   - SEARCH_DIRS: Comma-separated source directories; empty disables search
//   - SEARCH_FILE_EXTS: Comma-separated extensions to index; empty indexes all files
//   - CACHE_DIR: Thumbnail cache directory (default: cache)
//   - DATABASE_DIR: Clip history database directory (default: database)
//   - STATIC_DIR: Web UI directory (default: static)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable metrics server (default: true)
//   - FFMPEG_PATH, FFPROBE_PATH: Binaries used for clipping and probing
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_STATIC_FILES: Log static file requests (default: false)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//
// MAX_CLIP_DURATION and MAX_QUEUE_SIZE must be positive integers. Any other
// value makes LoadConfig fail.
//
// # Directory Setup
//
//   - Output directory: Required, created if missing, must be writable
//   - Database directory: Required, must be writable
//   - Cache directory: Optional, enables thumbnails if writable
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//
//	go build -ldflags "-X media-clipper/internal/startup.Version=1.0.0"
package startup
