package clipper

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"media-clipper/internal/timerange"
)

// Output container extensions.
const (
	VideoExt = ".mp4"
	AudioExt = ".mp3"
)

// ErrInvalidClipName is returned by NewJob when the clip name is empty or
// would escape the output directory.
var ErrInvalidClipName = errors.New("invalid clip name")

// JobSpec describes a requested clip before it becomes a Job.
type JobSpec struct {
	SourcePath    string
	OutputDir     string
	ClipName      string
	AudioTrack    string
	SubtitleTrack string
	Range         timerange.Range
	AudioOnly     bool
}

// Job is one clip request. It is passed by value and never modified after
// NewJob returns.
type Job struct {
	ID            string
	SourcePath    string
	OutputPath    string
	ClipName      string
	Key           string
	AudioTrack    string
	SubtitleTrack string
	Range         timerange.Range
	AudioOnly     bool
}

// NewJob builds a Job from spec. The key is the output file name
// (clip name plus .mp3 or .mp4) and the output path is that name inside
// the output directory.
func NewJob(spec JobSpec) (Job, error) {
	name := strings.TrimSpace(spec.ClipName)
	if err := validateClipName(name); err != nil {
		return Job{}, err
	}

	ext := VideoExt
	if spec.AudioOnly {
		ext = AudioExt
	}
	key := name + ext

	return Job{
		ID:            uuid.NewString(),
		SourcePath:    spec.SourcePath,
		OutputPath:    filepath.Join(spec.OutputDir, key),
		ClipName:      name,
		Key:           key,
		AudioTrack:    spec.AudioTrack,
		SubtitleTrack: spec.SubtitleTrack,
		Range:         spec.Range,
		AudioOnly:     spec.AudioOnly,
	}, nil
}

// Kind returns "audio" or "video".
func (j Job) Kind() string {
	if j.AudioOnly {
		return "audio"
	}
	return "video"
}

func validateClipName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: clip name is empty", ErrInvalidClipName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: clip name is reserved", ErrInvalidClipName)
	case strings.ContainsAny(name, `/\`):
		return fmt.Errorf("%w: clip name must not contain path separators", ErrInvalidClipName)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%w: clip name contains a NUL byte", ErrInvalidClipName)
	}
	return nil
}
