package search

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
	"media-clipper/internal/workers"
)

var (
	// ErrRefreshInProgress is returned by RefreshIndex while a refresh runs.
	ErrRefreshInProgress = errors.New("file indexing forbidden: another indexing is already in progress")

	// ErrNoRoots is returned by New when no directory is configured.
	ErrNoRoots = errors.New("no source directory configured")
)

// Option configures an Engine.
type Option func(*Engine)

// WithOnRefresh registers a callback invoked with the new index size after
// every completed background refresh.
func WithOnRefresh(fn func(files int)) Option {
	return func(e *Engine) {
		e.onRefresh = fn
	}
}

// Engine is an in-memory index of file paths under a set of roots.
// Searches always see one complete snapshot; refreshes build a new map in
// the background and swap it in whole.
type Engine struct {
	settings  SourceSettings
	onRefresh func(files int)
	walkRoot  func(root string) (map[string]string, bool)

	mu          sync.RWMutex
	index       map[string]string // lower-cased path -> original path
	refreshing  bool
	lastRefresh time.Time
}

// New builds the first index synchronously. It fails when no roots are
// configured or none of them can be read.
func New(settings SourceSettings, opts ...Option) (*Engine, error) {
	if len(settings.roots) == 0 {
		return nil, ErrNoRoots
	}

	e := &Engine{settings: settings}
	e.walkRoot = e.walk
	for _, opt := range opts {
		opt(e)
	}

	start := time.Now()
	index, readable, err := e.build()
	if err != nil {
		return nil, err
	}
	if readable == 0 {
		return nil, fmt.Errorf("none of the source directories could be read: %s",
			strings.Join(settings.roots, ", "))
	}

	e.index = index
	e.lastRefresh = time.Now()
	e.observe(start, len(index))

	logging.Info("Search index built: %d files in %d/%d directories (%v)",
		len(index), readable, len(settings.roots), time.Since(start))
	return e, nil
}

// IsRefreshing reports whether a background refresh is running.
func (e *Engine) IsRefreshing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.refreshing
}

// Size returns the number of indexed files.
func (e *Engine) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.index)
}

// LastRefresh returns when the current snapshot was built.
func (e *Engine) LastRefresh() time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRefresh
}

// RefreshIndex starts a background rebuild and returns immediately. It
// returns ErrRefreshInProgress if a rebuild is already running.
func (e *Engine) RefreshIndex() error {
	if !e.tryStartRefresh() {
		metrics.IndexRefreshRejected.Inc()
		return ErrRefreshInProgress
	}

	logging.Info("Search index refresh started")
	go e.refresh()
	return nil
}

func (e *Engine) tryStartRefresh() bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.refreshing {
		return false
	}
	e.refreshing = true
	metrics.IndexIsRefreshing.Set(1)
	return true
}

func (e *Engine) refresh() {
	start := time.Now()
	var next map[string]string

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Search index refresh panicked: %v", r)
			next = nil
		}

		e.mu.Lock()
		if next != nil {
			e.index = next
			e.lastRefresh = time.Now()
		}
		e.refreshing = false
		e.mu.Unlock()
		metrics.IndexIsRefreshing.Set(0)

		if next != nil {
			e.observe(start, len(next))
			logging.Info("Search index refreshed: %d files (%v)", len(next), time.Since(start))
			if e.onRefresh != nil {
				e.onRefresh(len(next))
			}
		}
	}()

	built, _, err := e.build()
	if err != nil {
		logging.Error("Search index refresh failed, keeping previous index: %v", err)
		return
	}
	next = built
}

func (e *Engine) observe(start time.Time, files int) {
	metrics.IndexRefreshTotal.Inc()
	metrics.IndexRefreshDuration.Observe(time.Since(start).Seconds())
	metrics.IndexFilesTotal.Set(float64(files))
	metrics.IndexLastRefreshTimestamp.SetToCurrentTime()
}

// build walks every root concurrently and merges the results. It also
// returns how many roots could be read. A panicking walker fails the whole
// build.
func (e *Engine) build() (map[string]string, int, error) {
	roots := e.settings.roots
	parts := make([]map[string]string, len(roots))
	ok := make([]bool, len(roots))
	panics := make([]any, len(roots))

	slots := make([]int, len(roots))
	for i := range slots {
		slots[i] = i
	}

	workers.ForEach(slots, workers.ForIO(len(roots)), func(i int) {
		defer func() {
			if r := recover(); r != nil {
				panics[i] = r
			}
		}()
		parts[i], ok[i] = e.walkRoot(roots[i])
	})

	for i, p := range panics {
		if p != nil {
			return nil, 0, fmt.Errorf("walking %s panicked: %v", roots[i], p)
		}
	}

	size := 0
	for _, p := range parts {
		size += len(p)
	}

	index := make(map[string]string, size)
	readable := 0
	for i, p := range parts {
		if ok[i] {
			readable++
		}
		for k, v := range p {
			index[k] = v
		}
	}
	return index, readable, nil
}

// walk collects the regular files under root that pass the extension
// filter. Unreadable entries below the root are skipped.
func (e *Engine) walk(root string) (map[string]string, bool) {
	found := make(map[string]string)
	rootOK := true

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			metrics.IndexWalkErrors.Inc()
			logging.Debug("Skipping %s: %v", path, err)
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !e.settings.Allows(path) {
			return nil
		}
		found[strings.ToLower(path)] = path
		return nil
	})
	if err != nil {
		metrics.IndexWalkErrors.Inc()
		logging.Warn("Cannot index %s: %v", root, err)
		rootOK = false
	}

	return found, rootOK
}

// Search returns the indexed paths that contain every term,
// case-insensitively, sorted. No terms means no results.
func (e *Engine) Search(terms []string) []string {
	if len(terms) == 0 {
		return []string{}
	}

	start := time.Now()
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}

	type hit struct{ key, path string }

	e.mu.RLock()
	var hits []hit
	for key, path := range e.index {
		if strings.Contains(key, lowered[0]) {
			hits = append(hits, hit{key, path})
		}
	}
	e.mu.RUnlock()

	for _, term := range lowered[1:] {
		kept := hits[:0]
		for _, h := range hits {
			if strings.Contains(h.key, term) {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	results := make([]string, len(hits))
	for i, h := range hits {
		results[i] = h.path
	}
	sort.Strings(results)

	metrics.SearchQueriesTotal.Inc()
	metrics.SearchQueryDuration.Observe(time.Since(start).Seconds())
	metrics.SearchResultsReturned.Observe(float64(len(results)))
	return results
}

// SplitTerms splits a query on whitespace.
func SplitTerms(query string) []string {
	return strings.Fields(query)
}
