package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ProbeResult represents the parsed output from an ffprobe inspection.
type ProbeResult struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index      int    `json:"index"`
	CodecName  string `json:"codec_name"`
	CodecType  string `json:"codec_type"`
	Duration   string `json:"duration"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	SampleRate string `json:"sample_rate"`
	Channels   int    `json:"channels"`
}

// Format captures container-level metadata extracted by ffprobe.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Inspect executes ffprobe against the provided path and decodes the JSON
// response.
func (t *Toolset) Inspect(ctx context.Context, path string) (ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return ProbeResult{}, errors.New("ffprobe inspect: empty path")
	}

	output, err := t.output(ctx, t.ffprobeBinary,
		"-v", "error",
		"-hide_banner",
		"-show_format",
		"-show_streams",
		"-of", "json",
		"--", path,
	)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: %w", err)
	}

	var result ProbeResult
	if err := json.Unmarshal(output, &result); err != nil {
		return ProbeResult{}, fmt.Errorf("ffprobe inspect: parse output: %w", err)
	}
	return result, nil
}

// Duration returns the container duration in seconds.
func (t *Toolset) Duration(ctx context.Context, path string) (float64, error) {
	result, err := t.Inspect(ctx, path)
	if err != nil {
		return 0, err
	}
	return result.DurationSeconds()
}

// DurationSeconds parses the container duration from the probe result.
func (r ProbeResult) DurationSeconds() (float64, error) {
	value := strings.TrimSpace(r.Format.Duration)
	if value == "" {
		return 0, errors.New("ffprobe: container reports no duration")
	}
	seconds, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", value, err)
	}
	return seconds, nil
}

// HasAudio reports whether the container carries at least one audio stream.
func (r ProbeResult) HasAudio() bool {
	for _, stream := range r.Streams {
		if stream.CodecType == "audio" {
			return true
		}
	}
	return false
}

// HasVideo reports whether the container carries at least one video stream.
func (r ProbeResult) HasVideo() bool {
	for _, stream := range r.Streams {
		if stream.CodecType == "video" {
			return true
		}
	}
	return false
}
