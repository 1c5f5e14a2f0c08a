// Package subtitles writes translated segments as a SubRip sidecar so the
// dubbed output can carry matching text.
package subtitles

import (
	"fmt"
	"os"
	"strings"

	"redub/internal/segment"
	"redub/internal/services"
)

// WriteSRT renders the translated text of every segment, in timeline order,
// to path. Segments without a translation are skipped. Cue times reflect the
// final placement, including any overlap shift.
func WriteSRT(store *segment.Store, path string) error {
	if store == nil {
		return services.Wrap(services.ErrValidation, "subtitles", "write", "segment store is required", nil)
	}
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrValidation, "subtitles", "write", "output path is required", nil)
	}

	var b strings.Builder
	index := 0
	for _, seg := range store.OrderedByStart() {
		text := strings.TrimSpace(seg.TranslatedText)
		if text == "" {
			continue
		}
		index++
		start := seg.Start + seg.Shifted
		end := seg.End + seg.Shifted
		if end <= start {
			end = start + 0.001
		}
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, formatTimestamp(start), formatTimestamp(end), text)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return services.Wrap(services.ErrExternalTool, "subtitles", "write", "write subtitle file", err)
	}
	return nil
}

// formatTimestamp renders seconds in SubRip HH:MM:SS,mmm form.
func formatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(seconds*1000 + 0.5)
	millis := totalMillis % 1000
	totalSeconds := totalMillis / 1000
	secs := totalSeconds % 60
	minutes := (totalSeconds / 60) % 60
	hours := totalSeconds / 3600
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}
