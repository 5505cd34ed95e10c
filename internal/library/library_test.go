package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeClip(t *testing.T, dir, name string, mod time.Time) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	writeClip(t, dir, "old scene.mp4", base)
	writeClip(t, dir, "new scene.mp4", base.Add(time.Hour))
	writeClip(t, dir, "theme.mp3", base)
	writeClip(t, dir, "rendering.mp4", base.Add(2*time.Hour))
	writeClip(t, dir, "notes.txt", base)
	if err := os.Mkdir(filepath.Join(dir, "folder.mp4"), 0o755); err != nil {
		t.Fatal(err)
	}

	lib, err := List(dir, "https://clips.example.com/", []string{"rendering.mp4"})
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(lib.Video) != 2 {
		t.Fatalf("Video = %+v, want 2 clips", lib.Video)
	}
	if lib.Video[0].FileName != "new scene.mp4" || lib.Video[1].FileName != "old scene.mp4" {
		t.Errorf("Video order = %s, %s; want newest first", lib.Video[0].FileName, lib.Video[1].FileName)
	}
	if len(lib.Audio) != 1 || lib.Audio[0].FileName != "theme.mp3" {
		t.Errorf("Audio = %+v", lib.Audio)
	}
	if lib.Len() != 3 {
		t.Errorf("Len() = %d, want 3", lib.Len())
	}

	clip := lib.Video[0]
	if clip.ClipName != "new scene" {
		t.Errorf("ClipName = %q", clip.ClipName)
	}
	if clip.URL != "/output/new%20scene.mp4" {
		t.Errorf("URL = %q", clip.URL)
	}
	if clip.PublicURL != "https://clips.example.com/new%20scene.mp4" {
		t.Errorf("PublicURL = %q", clip.PublicURL)
	}
	if clip.Size != 4 {
		t.Errorf("Size = %d, want 4", clip.Size)
	}
}

func TestListEmptyDirectory(t *testing.T) {
	lib, err := List(t.TempDir(), "/output", nil)
	if err != nil {
		t.Fatal(err)
	}
	if lib.Video == nil || lib.Audio == nil {
		t.Error("empty library should have non-nil slices for JSON")
	}
}

func TestListMissingDirectory(t *testing.T) {
	if _, err := List(filepath.Join(t.TempDir(), "missing"), "/", nil); err == nil {
		t.Error("expected an error for a missing directory")
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name  string
		valid bool
	}{
		{"scene.mp4", true},
		{"with space.mp3", true},
		{"", false},
		{".", false},
		{"..", false},
		{"../etc/passwd", false},
		{"sub/clip.mp4", false},
		{`..\clip.mp4`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.name)
			if tt.valid && err != nil {
				t.Errorf("ValidateName(%q) error = %v", tt.name, err)
			}
			if !tt.valid && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error = %v, want ErrInvalidName", tt.name, err)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	dir := t.TempDir()
	writeClip(t, dir, "gone.mp4", time.Now())

	if err := Delete(dir, "gone.mp4"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "gone.mp4")); !os.IsNotExist(err) {
		t.Error("file still exists after Delete")
	}

	if err := Delete(dir, "gone.mp4"); err == nil {
		t.Error("deleting a missing file should fail")
	}
	if err := Delete(dir, "../escape.mp4"); !errors.Is(err, ErrInvalidName) {
		t.Errorf("Delete(traversal) error = %v, want ErrInvalidName", err)
	}
}
