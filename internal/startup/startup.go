package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"media-clipper/internal/logging"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// Defaults for the clipper settings.
const (
	DefaultAppName         = "Media Server Clipper"
	DefaultOutputPath      = "output"
	DefaultMaxClipDuration = 600
	DefaultMaxQueueSize    = 4
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	AppName          string
	OutputDir        string
	PublicLinkPrefix string
	MaxClipDuration  int
	MaxQueueSize     int
	SearchDirs       []string
	SearchExts       []string
	CacheDir         string
	DatabaseDir      string
	StaticDir        string
	Port             string
	MetricsPort      string
	FFmpegPath       string
	FFprobePath      string
	LogStaticFiles   bool
	LogHealthChecks  bool
	MetricsEnabled   bool

	// Derived paths
	DatabasePath string
	ThumbnailDir string

	// Feature flags based on directory availability
	ThumbnailsEnabled bool
}

// SearchEnabled reports whether at least one search directory is set.
func (c *Config) SearchEnabled() bool {
	return len(c.SearchDirs) > 0
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	appName := getEnv("APP_NAME", DefaultAppName)
	outputDir := getEnv("OUTPUT_PATH", DefaultOutputPath)
	publicPrefix := getEnv("PUBLIC_LINK_PREFIX", "/output")
	cacheDir := getEnv("CACHE_DIR", "cache")
	databaseDir := getEnv("DATABASE_DIR", "database")
	staticDir := getEnv("STATIC_DIR", "static")
	port := getEnv("PORT", "8080")
	metricsPort := getEnv("METRICS_PORT", "9090")
	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", "ffprobe")
	searchDirs := splitList(os.Getenv("SEARCH_DIRS"))
	searchExts := splitList(os.Getenv("SEARCH_FILE_EXTS"))
	logStaticFiles := getEnvBool("LOG_STATIC_FILES", false)
	logHealthChecks := getEnvBool("LOG_HEALTH_CHECKS", true)
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)

	maxClipDuration, err := getEnvPositiveInt("MAX_CLIP_DURATION", DefaultMaxClipDuration)
	if err != nil {
		return nil, err
	}
	maxQueueSize, err := getEnvPositiveInt("MAX_QUEUE_SIZE", DefaultMaxQueueSize)
	if err != nil {
		return nil, err
	}

	logging.Info("  APP_NAME:            %s", appName)
	logging.Info("  OUTPUT_PATH:         %s", outputDir)
	logging.Info("  PUBLIC_LINK_PREFIX:  %s", publicPrefix)
	logging.Info("  MAX_CLIP_DURATION:   %ds", maxClipDuration)
	logging.Info("  MAX_QUEUE_SIZE:      %d", maxQueueSize)
	logging.Info("  SEARCH_DIRS:         %s", listString(searchDirs))
	logging.Info("  SEARCH_FILE_EXTS:    %s", listString(searchExts))
	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  STATIC_DIR:          %s", staticDir)
	logging.Info("  PORT:                %s", port)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  FFMPEG_PATH:         %s", ffmpegPath)
	logging.Info("  FFPROBE_PATH:        %s", ffprobePath)
	logging.Info("  LOG_STATIC_FILES:    %v", logStaticFiles)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", logHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	outputDir, err = filepath.Abs(outputDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory path: %w", err)
	}
	logging.Info("  Output directory (absolute): %s", outputDir)

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	logging.Info("  Cache directory (absolute): %s", cacheDir)

	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", databaseDir)

	config := &Config{
		AppName:          appName,
		OutputDir:        outputDir,
		PublicLinkPrefix: strings.TrimSuffix(publicPrefix, "/"),
		MaxClipDuration:  maxClipDuration,
		MaxQueueSize:     maxQueueSize,
		SearchDirs:       searchDirs,
		SearchExts:       searchExts,
		CacheDir:         cacheDir,
		DatabaseDir:      databaseDir,
		StaticDir:        staticDir,
		Port:             port,
		MetricsPort:      metricsPort,
		FFmpegPath:       ffmpegPath,
		FFprobePath:      ffprobePath,
		LogStaticFiles:   logStaticFiles,
		LogHealthChecks:  logHealthChecks,
		MetricsEnabled:   metricsEnabled,
		DatabasePath:     filepath.Join(databaseDir, "clips.db"),
		ThumbnailDir:     filepath.Join(cacheDir, "thumbnails"),
	}

	// The output directory is where ffmpeg writes; without it nothing works.
	if err := ensureDirectory(outputDir, "output"); err != nil {
		return nil, fmt.Errorf("output directory error: %w", err)
	}
	if err := testWriteAccess(outputDir); err != nil {
		return nil, fmt.Errorf("output directory is not writable: %w", err)
	}
	logging.Info("  [OK] Output directory is writable")

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	config.ThumbnailsEnabled = setupOptionalDir(config.ThumbnailDir, "thumbnails")

	for _, dir := range searchDirs {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logging.Warn("  Search directory not accessible: %s", dir)
		}
	}

	logging.Info("")
	logging.Info("  Feature availability:")
	logging.Info("    Clip history: ENABLED (required)")
	logging.Info("    Search:       %s", enabledString(config.SearchEnabled()))
	logging.Info("    Thumbnails:   %s", enabledString(config.ThumbnailsEnabled))
	logging.Info("    Metrics:      %s", enabledString(config.MetricsEnabled))

	return config, nil
}

func setupOptionalDir(path, name string) bool {
	logging.Debug("  Setting up %s directory: %s", name, path)

	if err := os.MkdirAll(path, 0o755); err != nil {
		logging.Warn("    Failed to create %s directory: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	if err := testWriteAccess(path); err != nil {
		logging.Warn("    %s directory is not writable: %v", name, err)
		logging.Warn("    %s will be disabled", name)
		return false
	}

	logging.Debug("    [OK] %s directory ready", name)
	return true
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Clip history initialized in %v", duration)
}

// LogTranscoderInit logs transcoder initialization and checks that the
// ffmpeg and ffprobe binaries run.
func LogTranscoderInit(ffmpegPath, ffprobePath string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("TRANSCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	for _, bin := range []string{ffmpegPath, ffprobePath} {
		if err := checkBinary(bin); err != nil {
			logging.Warn("  %s check failed: %v", bin, err)
			logging.Warn("  Clip jobs and track listing may fail")
		} else {
			logging.Info("  [OK] %s is available", bin)
		}
	}
}

// LogQueueInit logs job queue initialization
func LogQueueInit(maxQueueSize, maxClipDuration int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("JOB QUEUE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Queue capacity:     %d", maxQueueSize)
	logging.Info("  Max clip duration:  %ds", maxClipDuration)
	logging.Info("  [OK] Clip executor started")
}

// LogThumbnailInit logs thumbnail generator initialization
func LogThumbnailInit(enabled bool) {
	if !enabled {
		logging.Info("  Thumbnails disabled (cache directory not writable)")
		logging.Info("  Clips will be listed without posters")
	}
}

// LogSearchInit logs search index initialization
func LogSearchInit(dirs, exts []string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SEARCH INDEX INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if len(dirs) == 0 {
		logging.Info("  Search disabled (SEARCH_DIRS is empty)")
		return
	}

	logging.Info("  Directories: %s", listString(dirs))
	logging.Info("  Extensions:  %s", listString(exts))
	logging.Info("  Building initial index...")
}

// LogSearchReady logs the result of the initial index build
func LogSearchReady(files int, duration time.Duration) {
	logging.Info("  [OK] Indexed %d files in %v", files, duration)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			pathPrefix, prefixErr := route.GetPathRegexp()
			if prefixErr != nil {
				return nil
			}
			pathTemplate = pathPrefix
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified (e.g., static file server)
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logStaticFiles, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))
		logging.Debug("")

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
			logging.Debug("")
		}
	}

	logging.Info("  HTTP logging enabled")
	if logStaticFiles {
		logging.Info("    Static file logging: ON")
	} else {
		logging.Info("    Static file logging: OFF (set LOG_STATIC_FILES=true to enable)")
	}
	if logHealthChecks {
		logging.Info("    Health check logging: ON")
	} else {
		logging.Info("    Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    Application:   http://0.0.0.0:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

func printBanner() {
	banner := `
------------------------------------------------------------
    __  ___         ___          _________
   /  |/  /__  ____/ (_)___ _   / ____/ (_)___  ____  ___  _____
  / /|_/ / _ \/ __  / / __ '/  / /   / / / __ \/ __ \/ _ \/ ___/
 / /  / /  __/ /_/ / / /_/ /  / /___/ / / /_/ / /_/ /  __/ /
/_/  /_/\___/\__,_/_/\__,_/   \____/_/_/ .___/ .___/\___/_/
                                      /_/   /_/
------------------------------------------------------------`

	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkBinary(name string) error {
	path, err := exec.LookPath(name)
	if err != nil {
		return fmt.Errorf("%s not found in PATH", name)
	}
	logging.Debug("  %s path: %s", name, path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get %s version: %w", name, err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  %s version: %s", name, strings.TrimSpace(first))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}

	return parsed
}

// getEnvPositiveInt parses key as an integer greater than zero. Unlike the
// other getters an invalid value is an error: a typo in a limit should stop
// the server rather than silently fall back.
func getEnvPositiveInt(key string, defaultValue int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s should be a valid positive number: %q", key, value)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s should be greater than 0, got %d", key, parsed)
	}
	return parsed, nil
}

// splitList splits a comma-separated value, trimming blanks.
func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func listString(values []string) string {
	if len(values) == 0 {
		return "(none)"
	}
	return strings.Join(values, ", ")
}
