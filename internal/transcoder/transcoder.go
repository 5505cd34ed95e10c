package transcoder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"media-clipper/internal/clipper"
	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
)

// ErrAudioTrack is returned when a job has no usable audio track selector.
var ErrAudioTrack = errors.New("audio_track is missing or invalid")

// stderrTail is how much of ffmpeg's stderr is kept for error messages.
const stderrTail = 2048

// Transcoder cuts clips out of source files with ffmpeg. It implements
// clipper.Runner.
type Transcoder struct {
	binary    string
	processes map[string]*exec.Cmd
	processMu sync.Mutex
}

var _ clipper.Runner = (*Transcoder)(nil)

// New creates a Transcoder that runs the given ffmpeg binary.
func New(binary string) *Transcoder {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Transcoder{
		binary:    binary,
		processes: make(map[string]*exec.Cmd),
	}
}

// BuildArgs returns the ffmpeg arguments for job. The output path is always
// the last argument.
func BuildArgs(job clipper.Job) ([]string, error) {
	audioIdx, ok := trackIndex(job.AudioTrack)
	if !ok {
		return nil, ErrAudioTrack
	}

	args := []string{
		"-y",
		"-i", job.SourcePath,
		"-ss", job.Range.Start.String(),
		"-to", job.Range.End.String(),
		"-map_metadata", "-1",
		"-metadata:g:0", "title=" + job.ClipName,
	}

	if job.AudioOnly {
		args = append(args, "-c:a", "mp3", "-f", "mp3")
	} else {
		args = append(args,
			"-c:v", "libx264",
			"-c:a", "aac",
			"-map", "0:0",
			"-f", "mp4",
			"-crf", "22",
			"-pix_fmt", "yuv420p",
		)
	}

	args = append(args, "-map", "0:"+audioIdx)

	if !job.AudioOnly && job.SubtitleTrack != "" {
		if subIdx, ok := trackIndex(job.SubtitleTrack); ok {
			args = append(args, "-vf", fmt.Sprintf(
				"subtitles='%s':force_style='FontName=DejaVu Sans':si=%s",
				job.SourcePath, subIdx))
		}
	}

	return append(args, job.OutputPath), nil
}

// trackIndex extracts the stream index from a "<index>:<label>" selector.
func trackIndex(selector string) (string, bool) {
	idx, _, found := strings.Cut(selector, ":")
	idx = strings.TrimSpace(idx)
	if !found || idx == "" {
		return "", false
	}
	return idx, true
}

// Run transcodes job and blocks until ffmpeg exits.
func (t *Transcoder) Run(ctx context.Context, job clipper.Job) error {
	args, err := BuildArgs(job)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, t.binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logging.Debug("Running %s %s", t.binary, strings.Join(args, " "))

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", t.binary, err)
	}

	t.track(job.ID, cmd)
	defer t.untrack(job.ID)

	start := time.Now()
	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		tail := lastBytes(stderr.String(), stderrTail)
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			logging.Error("ffmpeg stderr for %s: %s", job.Key, tail)
			return fmt.Errorf("ffmpeg returned status %d: %s", exitErr.ExitCode(), tail)
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	logging.Debug("ffmpeg finished %s in %v", job.Key, time.Since(start))
	return nil
}

func (t *Transcoder) track(id string, cmd *exec.Cmd) {
	t.processMu.Lock()
	t.processes[id] = cmd
	n := len(t.processes)
	t.processMu.Unlock()
	metrics.TranscoderProcessesActive.Set(float64(n))
}

func (t *Transcoder) untrack(id string) {
	t.processMu.Lock()
	delete(t.processes, id)
	n := len(t.processes)
	t.processMu.Unlock()
	metrics.TranscoderProcessesActive.Set(float64(n))
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for id, cmd := range t.processes {
		if cmd.Process != nil {
			logging.Info("Killing ffmpeg process for job %s", id)
			if err := cmd.Process.Kill(); err != nil {
				logging.Warn("failed to kill ffmpeg process for job %s: %v", id, err)
			}
		}
	}
}

// ActiveProcesses returns the number of running ffmpeg processes.
func (t *Transcoder) ActiveProcesses() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

func lastBytes(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
