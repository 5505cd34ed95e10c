package search

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"
	"time"
)

// makeTree creates files under a fresh temp dir and returns the dir.
func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func waitIdle(t *testing.T, e *Engine) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for e.IsRefreshing() {
		if time.Now().After(deadline) {
			t.Fatal("refresh did not finish")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewSourceSettings(t *testing.T) {
	s := NewSourceSettings([]string{" /media/movies ", "", "/media/shows/"}, []string{".MKV", "mp4", " ", "Avi"})

	if got := s.Roots(); !reflect.DeepEqual(got, []string{"/media/movies", "/media/shows"}) {
		t.Errorf("Roots() = %v", got)
	}

	tests := []struct {
		path string
		want bool
	}{
		{"/a/film.mkv", true},
		{"/a/film.MP4", true},
		{"/a/film.avi", true},
		{"/a/film.srt", false},
		{"/a/noext", false},
	}
	for _, tt := range tests {
		if got := s.Allows(tt.path); got != tt.want {
			t.Errorf("Allows(%s) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestAllowsEverythingWithoutExtensions(t *testing.T) {
	s := NewSourceSettings([]string{"/x"}, nil)
	for _, p := range []string{"a.mkv", "b.txt", "noext"} {
		if !s.Allows(p) {
			t.Errorf("Allows(%s) = false, want true", p)
		}
	}
}

func TestNewErrors(t *testing.T) {
	if _, err := New(NewSourceSettings(nil, nil)); !errors.Is(err, ErrNoRoots) {
		t.Errorf("New() with no roots error = %v, want ErrNoRoots", err)
	}

	missing := filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := New(NewSourceSettings([]string{missing}, nil)); err == nil {
		t.Error("New() with only unreadable roots should fail")
	}
}

func TestNewSkipsUnreadableRoot(t *testing.T) {
	good := makeTree(t, "movie.mkv")
	missing := filepath.Join(t.TempDir(), "gone")

	e, err := New(NewSourceSettings([]string{missing, good}, nil))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if e.Size() != 1 {
		t.Errorf("Size() = %d, want 1", e.Size())
	}
	if e.LastRefresh().IsZero() {
		t.Error("LastRefresh() should be set after the initial build")
	}
}

func TestSearchMatchesAllTermsCaseInsensitively(t *testing.T) {
	root := makeTree(t,
		"Movies/The Matrix (1999)/The.Matrix.1999.mkv",
		"Movies/The Matrix Reloaded (2003)/matrix.reloaded.mkv",
		"Movies/Inception (2010)/Inception.mkv",
		"Shows/Matrix Docs/making.of.MP4",
	)
	e, err := New(NewSourceSettings([]string{root}, nil))
	if err != nil {
		t.Fatal(err)
	}

	p := func(rel string) string { return filepath.Join(root, filepath.FromSlash(rel)) }

	tests := []struct {
		name  string
		terms []string
		want  []string
	}{
		{
			name:  "single term",
			terms: []string{"MATRIX"},
			want: []string{
				p("Movies/The Matrix (1999)/The.Matrix.1999.mkv"),
				p("Movies/The Matrix Reloaded (2003)/matrix.reloaded.mkv"),
				p("Shows/Matrix Docs/making.of.MP4"),
			},
		},
		{
			name:  "all terms must match",
			terms: []string{"matrix", "1999"},
			want:  []string{p("Movies/The Matrix (1999)/The.Matrix.1999.mkv")},
		},
		{
			name:  "last term is case-insensitive too",
			terms: []string{"movies", "RELOADED"},
			want:  []string{p("Movies/The Matrix Reloaded (2003)/matrix.reloaded.mkv")},
		},
		{
			name:  "directory names count",
			terms: []string{"shows", "mp4"},
			want:  []string{p("Shows/Matrix Docs/making.of.MP4")},
		},
		{
			name:  "no match",
			terms: []string{"matrix", "inception"},
			want:  []string{},
		},
		{
			name:  "no terms",
			terms: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Search(tt.terms)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Search(%v) = %v, want %v", tt.terms, got, tt.want)
			}
		})
	}
}

func TestSearchEmptyTermsReturnsNonNil(t *testing.T) {
	e, err := New(NewSourceSettings([]string{makeTree(t, "a.mkv")}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if got := e.Search([]string{}); got == nil || len(got) != 0 {
		t.Errorf("Search(empty) = %#v, want empty slice", got)
	}
}

func TestSearchEmptyTermsSkipsIndexLock(t *testing.T) {
	e, err := New(NewSourceSettings([]string{makeTree(t, "a.mkv")}, nil))
	if err != nil {
		t.Fatal(err)
	}

	// A writer holding the lock must not block an empty query.
	e.mu.Lock()
	defer e.mu.Unlock()

	done := make(chan [2][]string, 1)
	go func() {
		done <- [2][]string{e.Search(nil), e.Search([]string{})}
	}()

	select {
	case got := <-done:
		for i, res := range got {
			if res == nil || len(res) != 0 {
				t.Errorf("result %d = %#v, want empty slice", i, res)
			}
		}
	case <-time.After(time.Second):
		t.Fatal("Search with no terms blocked on the index lock")
	}
}

func TestExtensionFilter(t *testing.T) {
	root := makeTree(t, "film.mkv", "film.srt", "film.nfo", "clip.MP4")
	e, err := New(NewSourceSettings([]string{root}, []string{"mkv", ".mp4"}))
	if err != nil {
		t.Fatal(err)
	}

	got := e.Search([]string{"film"})
	if !reflect.DeepEqual(got, []string{filepath.Join(root, "film.mkv")}) {
		t.Errorf("Search(film) = %v", got)
	}
	if e.Size() != 2 {
		t.Errorf("Size() = %d, want 2", e.Size())
	}
}

func TestMultipleRootsAreMerged(t *testing.T) {
	a := makeTree(t, "one.mkv", "nested/two.mkv")
	b := makeTree(t, "three.mkv")

	e, err := New(NewSourceSettings([]string{a, b}, nil))
	if err != nil {
		t.Fatal(err)
	}
	if e.Size() != 3 {
		t.Errorf("Size() = %d, want 3", e.Size())
	}
}

func TestRefreshPicksUpNewFiles(t *testing.T) {
	root := makeTree(t, "old.mkv")
	refreshed := make(chan int, 1)
	e, err := New(NewSourceSettings([]string{root}, nil), WithOnRefresh(func(n int) { refreshed <- n }))
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(root, "new.mkv"), nil, 0o644); err != nil {
		t.Fatal(err)
	}
	if got := e.Search([]string{"new"}); len(got) != 0 {
		t.Errorf("new file visible before refresh: %v", got)
	}

	if err := e.RefreshIndex(); err != nil {
		t.Fatalf("RefreshIndex() error = %v", err)
	}

	select {
	case n := <-refreshed:
		if n != 2 {
			t.Errorf("refreshed with %d files, want 2", n)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("refresh callback not called")
	}
	waitIdle(t, e)

	if got := e.Search([]string{"new"}); len(got) != 1 {
		t.Errorf("Search(new) after refresh = %v", got)
	}
}

func TestRefreshIsSingleFlight(t *testing.T) {
	root := makeTree(t, "a.mkv")
	e, err := New(NewSourceSettings([]string{root}, nil))
	if err != nil {
		t.Fatal(err)
	}

	release := make(chan struct{})
	var walks int
	var mu sync.Mutex
	e.walkRoot = func(root string) (map[string]string, bool) {
		mu.Lock()
		walks++
		mu.Unlock()
		<-release
		return e.walk(root)
	}

	if err := e.RefreshIndex(); err != nil {
		t.Fatalf("first RefreshIndex() error = %v", err)
	}
	if !e.IsRefreshing() {
		t.Error("IsRefreshing() = false during refresh")
	}
	if err := e.RefreshIndex(); !errors.Is(err, ErrRefreshInProgress) {
		t.Errorf("second RefreshIndex() error = %v, want ErrRefreshInProgress", err)
	}

	// Searches keep using the old snapshot while the walk is blocked.
	if got := e.Search([]string{"a.mkv"}); len(got) != 1 {
		t.Errorf("Search during refresh = %v", got)
	}

	close(release)
	waitIdle(t, e)

	mu.Lock()
	defer mu.Unlock()
	if walks != 1 {
		t.Errorf("walked %d times, want 1", walks)
	}

	if err := e.RefreshIndex(); err != nil {
		t.Errorf("RefreshIndex() after completion error = %v", err)
	}
	waitIdle(t, e)
}

func TestRefreshPanicClearsFlagAndKeepsIndex(t *testing.T) {
	root := makeTree(t, "keep.mkv")
	e, err := New(NewSourceSettings([]string{root}, nil))
	if err != nil {
		t.Fatal(err)
	}

	e.walkRoot = func(string) (map[string]string, bool) {
		panic("walk exploded")
	}

	if err := e.RefreshIndex(); err != nil {
		t.Fatal(err)
	}
	waitIdle(t, e)

	if got := e.Search([]string{"keep"}); len(got) != 1 {
		t.Errorf("index lost after failed refresh: %v", got)
	}
}

func TestSplitTerms(t *testing.T) {
	got := SplitTerms("  the\tmatrix \n 1999 ")
	if !reflect.DeepEqual(got, []string{"the", "matrix", "1999"}) {
		t.Errorf("SplitTerms() = %v", got)
	}
	if got := SplitTerms("   "); len(got) != 0 {
		t.Errorf("SplitTerms(blank) = %v", got)
	}
}

func TestConcurrentSearchDuringRefresh(t *testing.T) {
	root := makeTree(t, "a/one.mkv", "b/two.mkv", "c/three.mkv")
	e, err := New(NewSourceSettings([]string{root}, nil))
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := e.Search([]string{"mkv"}); len(got) != 3 {
					t.Errorf("Search(mkv) returned %d results, want 3", len(got))
					return
				}
				_ = e.RefreshIndex()
			}
		}()
	}
	wg.Wait()
	waitIdle(t, e)
}
