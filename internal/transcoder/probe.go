package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"

	"media-clipper/internal/logging"
	"media-clipper/internal/metrics"
)

// Tracks lists the selectable streams of a source file. Each entry is
// formatted "<index>:'<title>' (<lang> - <codec>)". Subtitles always start
// with an empty entry meaning "no subtitles".
type Tracks struct {
	Audio     []string `json:"audioTracks"`
	Subtitles []string `json:"subTracks"`
}

// Prober lists audio and subtitle streams with ffprobe.
type Prober struct {
	binary string
}

// NewProber creates a Prober that runs the given ffprobe binary.
func NewProber(binary string) *Prober {
	if binary == "" {
		binary = "ffprobe"
	}
	return &Prober{binary: binary}
}

type probeOutput struct {
	Streams []probeStream `json:"streams"`
}

type probeStream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Tags      struct {
		Language string `json:"language"`
		Title    string `json:"title"`
	} `json:"tags"`
}

// ProbeTracks runs ffprobe on path and returns its audio and subtitle tracks.
func (p *Prober) ProbeTracks(ctx context.Context, path string) (Tracks, error) {
	cmd := exec.CommandContext(ctx, p.binary,
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-show_format",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		return Tracks{}, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}

	tracks, err := parseTracks(stdout.Bytes())
	if err != nil {
		metrics.ProbeTotal.WithLabelValues("error").Inc()
		return Tracks{}, err
	}

	metrics.ProbeTotal.WithLabelValues("success").Inc()
	logging.Debug("Probed %s: %d audio, %d subtitle tracks", path, len(tracks.Audio), len(tracks.Subtitles)-1)
	return tracks, nil
}

func parseTracks(data []byte) (Tracks, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return Tracks{}, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	tracks := Tracks{
		Audio:     []string{},
		Subtitles: []string{""},
	}
	for _, s := range out.Streams {
		label := fmt.Sprintf("%d:'%s' (%s - %s)", s.Index, s.Tags.Title, s.Tags.Language, s.CodecName)
		switch s.CodecType {
		case "audio":
			tracks.Audio = append(tracks.Audio, label)
		case "subtitle":
			tracks.Subtitles = append(tracks.Subtitles, label)
		}
	}
	return tracks, nil
}
