package timerange

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrInvalidInput is returned when a time field is not a non-negative integer.
	ErrInvalidInput = errors.New("invalid time value")

	// ErrStartNotBeforeEnd is returned when the range is empty or inverted.
	ErrStartNotBeforeEnd = errors.New("start time should be before end time")

	// ErrTooLong is returned when the range exceeds the allowed clip duration.
	ErrTooLong = errors.New("clip duration too long")
)

// MaxFieldValue is the largest value accepted for a single hours, minutes or
// seconds field.
const MaxFieldValue = 255

// VideoTime is a position in a media file. Values built with NewVideoTime
// are normalized so that Minutes and Seconds are below 60.
type VideoTime struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
	Seconds int `json:"seconds"`
}

// NewVideoTime carries overflowing seconds into minutes and overflowing
// minutes into hours.
func NewVideoTime(hours, minutes, seconds int) VideoTime {
	if seconds >= 60 {
		minutes += seconds / 60
		seconds %= 60
	}
	if minutes >= 60 {
		hours += minutes / 60
		minutes %= 60
	}
	return VideoTime{Hours: hours, Minutes: minutes, Seconds: seconds}
}

// ParseVideoTime builds a VideoTime from three optional numeric strings.
// An empty string counts as zero. Each field must lie in [0, MaxFieldValue].
func ParseVideoTime(hours, minutes, seconds string) (VideoTime, error) {
	h, err := parseField("hours", hours)
	if err != nil {
		return VideoTime{}, err
	}
	m, err := parseField("minutes", minutes)
	if err != nil {
		return VideoTime{}, err
	}
	s, err := parseField("seconds", seconds)
	if err != nil {
		return VideoTime{}, err
	}
	return NewVideoTime(h, m, s), nil
}

// TotalSeconds returns the position in seconds.
func (v VideoTime) TotalSeconds() int {
	return v.Hours*3600 + v.Minutes*60 + v.Seconds
}

// String formats the position as H:MM:SS, the form ffmpeg accepts for -ss/-to.
func (v VideoTime) String() string {
	return fmt.Sprintf("%d:%02d:%02d", v.Hours, v.Minutes, v.Seconds)
}

// Range is a validated [Start, End) clip window.
type Range struct {
	Start VideoTime `json:"start"`
	End   VideoTime `json:"end"`
}

// Duration returns the length of the range in seconds.
func (r Range) Duration() int {
	return r.End.TotalSeconds() - r.Start.TotalSeconds()
}

// Validate parses both ends of a clip window and checks that the start
// precedes the end and that the duration does not exceed maxSeconds.
func Validate(maxSeconds int, startH, startM, startS, endH, endM, endS string) (Range, error) {
	start, err := ParseVideoTime(startH, startM, startS)
	if err != nil {
		return Range{}, fmt.Errorf("start time: %w", err)
	}
	end, err := ParseVideoTime(endH, endM, endS)
	if err != nil {
		return Range{}, fmt.Errorf("end time: %w", err)
	}

	r := Range{Start: start, End: end}
	duration := r.Duration()
	if duration <= 0 {
		return Range{}, ErrStartNotBeforeEnd
	}
	if duration > maxSeconds {
		return Range{}, fmt.Errorf("%w: clip duration should not exceed %d seconds", ErrTooLong, maxSeconds)
	}
	return r, nil
}

func parseField(name, value string) (int, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q must be a number between 0 and %d", ErrInvalidInput, name, value, MaxFieldValue)
	}
	return int(n), nil
}
