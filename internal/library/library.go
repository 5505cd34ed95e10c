package library

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"media-clipper/internal/clipper"
	"media-clipper/internal/logging"
)

// OutputRoute is the URL path the output directory is served under.
const OutputRoute = "/output"

// ErrInvalidName is returned for file names that are empty or would leave
// the output directory.
var ErrInvalidName = errors.New("invalid clip file name")

// ClipInfo describes one finished clip in the output directory.
type ClipInfo struct {
	ClipName     string    `json:"clipName"`
	FileName     string    `json:"fileName"`
	URL          string    `json:"url"`
	PublicURL    string    `json:"publicUrl"`
	ModTime      time.Time `json:"modTime"`
	Size         int64     `json:"size"`
	Source       string    `json:"source,omitempty"`
	HasThumbnail bool      `json:"hasThumbnail"`
}

// Library lists finished clips by kind.
type Library struct {
	Video []ClipInfo `json:"video"`
	Audio []ClipInfo `json:"audio"`
}

// Len returns the total number of clips.
func (l Library) Len() int {
	return len(l.Video) + len(l.Audio)
}

// List returns the .mp4 and .mp3 files in dir, newest first. Files whose
// name is in pending are still being written and are left out.
func List(dir, publicPrefix string, pending []string) (Library, error) {
	lib := Library{Video: []ClipInfo{}, Audio: []ClipInfo{}}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return lib, fmt.Errorf("failed to read output directory: %w", err)
	}

	skip := make(map[string]struct{}, len(pending))
	for _, key := range pending {
		skip[key] = struct{}{}
	}

	prefix := strings.TrimSuffix(publicPrefix, "/")

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		name := entry.Name()
		if _, busy := skip[name]; busy {
			continue
		}

		ext := strings.ToLower(filepath.Ext(name))
		if ext != clipper.VideoExt && ext != clipper.AudioExt {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			logging.Debug("Skipping %s: %v", name, err)
			continue
		}

		clip := ClipInfo{
			ClipName:  strings.TrimSuffix(name, filepath.Ext(name)),
			FileName:  name,
			URL:       OutputRoute + "/" + url.PathEscape(name),
			PublicURL: prefix + "/" + url.PathEscape(name),
			ModTime:   info.ModTime(),
			Size:      info.Size(),
		}

		if ext == clipper.AudioExt {
			lib.Audio = append(lib.Audio, clip)
		} else {
			lib.Video = append(lib.Video, clip)
		}
	}

	sortNewestFirst(lib.Video)
	sortNewestFirst(lib.Audio)
	return lib, nil
}

func sortNewestFirst(clips []ClipInfo) {
	sort.SliceStable(clips, func(i, j int) bool {
		if !clips[i].ModTime.Equal(clips[j].ModTime) {
			return clips[i].ModTime.After(clips[j].ModTime)
		}
		return clips[i].FileName < clips[j].FileName
	})
}

// ValidateName checks that name is a bare file name.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Delete removes fileName from dir.
func Delete(dir, fileName string) error {
	if err := ValidateName(fileName); err != nil {
		return err
	}

	path := filepath.Join(dir, fileName)
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}

	logging.Info("Deleted clip %s", fileName)
	return nil
}
