package media

import (
	"bytes"
	"context"
	"crypto/md5"
	"errors"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/disintegration/imaging"

	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
)

// Thumbnail bounds. Frames are scaled to fit, keeping the aspect ratio.
const (
	ThumbnailWidth  = 320
	ThumbnailHeight = 180
)

const frameTimeout = 30 * time.Second

var (
	// ErrDisabled is returned when the cache directory is not usable.
	ErrDisabled = errors.New("thumbnails disabled")

	// ErrUnsupported is returned for clips without a video stream.
	ErrUnsupported = errors.New("thumbnails are only available for video clips")
)

// ThumbnailOption configures a ThumbnailGenerator.
type ThumbnailOption func(*ThumbnailGenerator)

// WithFFmpeg sets the ffmpeg binary used to grab frames.
func WithFFmpeg(path string) ThumbnailOption {
	return func(t *ThumbnailGenerator) {
		if path != "" {
			t.ffmpeg = path
		}
	}
}

// ThumbnailGenerator produces and caches poster frames for video clips.
type ThumbnailGenerator struct {
	cacheDir string
	enabled  bool
	ffmpeg   string
	mu       sync.Mutex
}

// NewThumbnailGenerator creates a generator caching JPEGs under cacheDir.
func NewThumbnailGenerator(cacheDir string, enabled bool, opts ...ThumbnailOption) *ThumbnailGenerator {
	t := &ThumbnailGenerator{
		cacheDir: cacheDir,
		enabled:  enabled,
		ffmpeg:   "ffmpeg",
	}
	for _, opt := range opts {
		opt(t)
	}

	if enabled {
		logging.Debug("ThumbnailGenerator: enabled, cache dir: %s", cacheDir)
		if err := os.MkdirAll(cacheDir, 0o755); err != nil {
			logging.Warn("ThumbnailGenerator: failed to create cache dir: %v", err)
		}
	} else {
		logging.Debug("ThumbnailGenerator: disabled")
	}
	return t
}

// IsEnabled returns whether thumbnails are generated.
func (t *ThumbnailGenerator) IsEnabled() bool {
	return t.enabled
}

// Supports reports whether clipPath can have a thumbnail.
func Supports(clipPath string) bool {
	return strings.EqualFold(filepath.Ext(clipPath), ".mp4")
}

// cachePath derives the cache file from the clip path and its modification
// time, so a clip re-created under the same name gets a fresh thumbnail.
func (t *ThumbnailGenerator) cachePath(clipPath string, modTime time.Time) string {
	hash := md5.Sum([]byte(fmt.Sprintf("%s|%d", clipPath, modTime.UnixNano())))
	return filepath.Join(t.cacheDir, fmt.Sprintf("%x.jpg", hash))
}

// GetThumbnail returns a JPEG poster frame for a video clip, generating and
// caching it on first use.
func (t *ThumbnailGenerator) GetThumbnail(clipPath string) ([]byte, error) {
	if !t.enabled {
		return nil, ErrDisabled
	}
	if !Supports(clipPath) {
		return nil, ErrUnsupported
	}

	info, err := os.Stat(clipPath)
	if err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	cachePath := t.cachePath(clipPath, info.ModTime())

	if data, err := os.ReadFile(cachePath); err == nil {
		logging.Debug("Thumbnail cache hit: %s", clipPath)
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if data, err := os.ReadFile(cachePath); err == nil {
		metrics.ThumbnailCacheHits.Inc()
		return data, nil
	}

	data, err := t.generate(clipPath)
	if err != nil {
		metrics.ThumbnailGenerationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("thumbnail generation failed: %w", err)
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	if err := os.WriteFile(cachePath, data, 0o644); err != nil {
		logging.Warn("Failed to cache thumbnail %s: %v", cachePath, err)
	} else {
		logging.Debug("Thumbnail cached: %s", cachePath)
	}

	return data, nil
}

func (t *ThumbnailGenerator) generate(clipPath string) ([]byte, error) {
	img, err := t.extractFrame(clipPath)
	if err != nil {
		return nil, err
	}

	thumb := imaging.Fit(img, ThumbnailWidth, ThumbnailHeight, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

// extractFrame grabs one frame one second in, falling back to the first
// frame for clips shorter than that.
func (t *ThumbnailGenerator) extractFrame(clipPath string) (image.Image, error) {
	logging.Debug("Extracting video frame: %s", clipPath)

	attempts := [][]string{
		{"-ss", "00:00:01", "-i", clipPath, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-"},
		{"-i", clipPath, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-"},
	}

	var lastErr error
	for _, args := range attempts {
		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		cmd := exec.CommandContext(ctx, t.ffmpeg, args...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		cancel()
		if err != nil {
			lastErr = fmt.Errorf("ffmpeg failed: %v, stderr: %s", err, strings.TrimSpace(stderr.String()))
			logging.Debug("Frame extraction attempt failed for %s: %v", clipPath, lastErr)
			continue
		}
		if stdout.Len() == 0 {
			lastErr = fmt.Errorf("ffmpeg produced no output for %s", clipPath)
			continue
		}

		img, err := imaging.Decode(&stdout)
		if err != nil {
			return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
		}
		return img, nil
	}

	return nil, lastErr
}

// Warm generates the thumbnail for a freshly produced clip. Audio clips
// are skipped.
func (t *ThumbnailGenerator) Warm(clipPath string) error {
	if !t.enabled || !Supports(clipPath) {
		return nil
	}
	_, err := t.GetThumbnail(clipPath)
	return err
}

// Remove deletes every cached thumbnail for clipPath. It must be called
// before the clip file itself is removed.
func (t *ThumbnailGenerator) Remove(clipPath string) error {
	if !t.enabled {
		return nil
	}

	info, err := os.Stat(clipPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	cachePath := t.cachePath(clipPath, info.ModTime())
	if err := os.Remove(cachePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove thumbnail: %w", err)
	}
	return nil
}

// HasThumbnail reports whether a cached thumbnail exists for clipPath.
func (t *ThumbnailGenerator) HasThumbnail(clipPath string, modTime time.Time) bool {
	if !t.enabled || !Supports(clipPath) {
		return false
	}
	_, err := os.Stat(t.cachePath(clipPath, modTime))
	return err == nil
}

// ClearCache removes all cached thumbnails and returns the number of bytes
// freed.
func (t *ThumbnailGenerator) ClearCache() (int64, error) {
	if !t.enabled {
		return 0, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := os.ReadDir(t.cacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read thumbnail cache directory: %w", err)
	}

	var freed int64
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".jpg" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if err := os.Remove(filepath.Join(t.cacheDir, entry.Name())); err != nil {
			logging.Warn("failed to remove %s: %v", entry.Name(), err)
			continue
		}
		freed += info.Size()
	}

	logging.Info("Cleared thumbnail cache: freed %d bytes", freed)
	return freed, nil
}
