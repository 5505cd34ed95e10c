// Package main provides the entry point for the media clipper.
//
// The media clipper cuts clips out of video files on a media server with
// ffmpeg. Users pick a source file (optionally through the search index),
// choose audio and subtitle tracks, set a start and end time, and the clip
// is queued. Finished clips are listed, served under /output and can be
// shared through a public link.
//
// # Application Lifecycle
//
//  1. Configuration Loading: Reads environment variables and validates directories
//  2. Database Initialization: Opens the SQLite clip history
//  3. Component Initialization:
//     - Transcoder and track prober (ffmpeg, ffprobe)
//     - Thumbnail generator for video clips
//     - Job queue with its single executor goroutine
//     - Search index (only when SEARCH_DIRS is set; built before serving)
//     - Metrics collector
//  4. HTTP Server Setup: Configures routes, middleware, and starts server
//  5. Graceful Shutdown: Handles SIGINT/SIGTERM, drains the job queue and
//     kills ffmpeg if it does not finish in time
//
// # HTTP Server
//
// The application runs two HTTP servers:
//
//  1. Main Server (default port 8080):
//     - Web UI and JSON API under /api
//     - Finished clips under /output
//     - Health checks (/health, /livez, /readyz) and /version
//
//  2. Metrics Server (default port 9090, optional):
//     - Prometheus metrics endpoint (/metrics)
//     - Health check endpoint (/health)
//
// See package startup for the environment variables.
package main
