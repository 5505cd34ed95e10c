package memory

import (
	"fmt"
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"media-clipper/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for ffmpeg and ffprobe child processes, which do
// not count against GOMEMLIMIT but do count against the container.
const DefaultMemoryRatio = 0.75

// ConfigResult describes what ConfigureFromEnv did.
type ConfigResult struct {
	// Source is "GOMEMLIMIT", "MEMORY_LIMIT" or "none".
	Source         string
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// Configured reports whether a Go memory limit is in effect.
func (r ConfigResult) Configured() bool {
	return r.GoMemLimit > 0
}

// ConfigureFromEnv sets the Go memory limit from the container limit.
// Call it first thing in main.
//
// Environment variables:
//   - GOMEMLIMIT: honoured by the runtime itself; nothing else is done
//   - MEMORY_LIMIT: container limit in bytes or as a Kubernetes quantity (512Mi, 2G)
//   - MEMORY_RATIO: share of MEMORY_LIMIT for the heap, 0 < ratio <= 1
func ConfigureFromEnv() ConfigResult {
	result := configure(os.Getenv, debug.SetMemoryLimit)

	switch result.Source {
	case "GOMEMLIMIT":
		logging.Info("GOMEMLIMIT set via environment: %s", formatBytes(result.GoMemLimit))
	case "MEMORY_LIMIT":
		logging.Info("Configured GOMEMLIMIT: %s (%.0f%% of %s container limit)",
			formatBytes(result.GoMemLimit), result.Ratio*100, formatBytes(result.ContainerLimit))
	default:
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT not configured")
	}
	return result
}

// configure holds the logic of ConfigureFromEnv with the environment and
// the runtime setter injected.
func configure(getenv func(string) string, setLimit func(int64) int64) ConfigResult {
	if getenv("GOMEMLIMIT") != "" {
		result := ConfigResult{Source: "GOMEMLIMIT"}
		if limit := setLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.GoMemLimit = limit
		}
		return result
	}

	raw := getenv("MEMORY_LIMIT")
	if raw == "" {
		return ConfigResult{Source: "none"}
	}

	limit, err := ParseQuantity(raw)
	if err != nil || limit <= 0 {
		logging.Warn("Ignoring MEMORY_LIMIT %q: %v", raw, err)
		return ConfigResult{Source: "none"}
	}

	ratio := DefaultMemoryRatio
	if rawRatio := getenv("MEMORY_RATIO"); rawRatio != "" {
		parsed, err := strconv.ParseFloat(rawRatio, 64)
		switch {
		case err != nil:
			logging.Warn("Failed to parse MEMORY_RATIO %q, using %.2f", rawRatio, DefaultMemoryRatio)
		case parsed <= 0 || parsed > 1:
			logging.Warn("MEMORY_RATIO %q out of range (0-1], using %.2f", rawRatio, DefaultMemoryRatio)
		default:
			ratio = parsed
		}
	}

	goLimit := int64(float64(limit) * ratio)
	setLimit(goLimit)

	return ConfigResult{
		Source:         "MEMORY_LIMIT",
		ContainerLimit: limit,
		GoMemLimit:     goLimit,
		Ratio:          ratio,
	}
}

var quantitySuffixes = []struct {
	suffix string
	factor int64
}{
	{"Ki", 1 << 10},
	{"Mi", 1 << 20},
	{"Gi", 1 << 30},
	{"Ti", 1 << 40},
	{"K", 1e3},
	{"k", 1e3},
	{"M", 1e6},
	{"G", 1e9},
	{"T", 1e12},
}

// ParseQuantity parses a byte count written as a plain integer or with a
// Kubernetes binary (Ki, Mi, Gi, Ti) or decimal (K, M, G, T) suffix.
func ParseQuantity(s string) (int64, error) {
	s = strings.TrimSpace(s)
	factor := int64(1)
	for _, q := range quantitySuffixes {
		if strings.HasSuffix(s, q.suffix) {
			s = strings.TrimSuffix(s, q.suffix)
			factor = q.factor
			break
		}
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid memory quantity: %w", err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid memory quantity: negative value %d", n)
	}
	if n > math.MaxInt64/factor {
		return 0, fmt.Errorf("invalid memory quantity: %s overflows", s)
	}
	return n * factor, nil
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
