package workdir

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"redub/internal/logging"
)

// CleanStaleResult contains the outcome of a stale directory cleanup.
type CleanStaleResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a directory path with its cleanup error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStale removes run work directories older than maxAge. Locked
// directories belong to live runs and are skipped.
func CleanStale(baseDir string, maxAge time.Duration, logger *slog.Logger) CleanStaleResult {
	result := CleanStaleResult{}

	baseDir = strings.TrimSpace(baseDir)
	if baseDir == "" {
		return result
	}

	entries, err := os.ReadDir(baseDir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: baseDir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		dirPath := filepath.Join(baseDir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if locked(dirPath) {
			continue
		}

		if err := os.RemoveAll(dirPath); err != nil {
			result.Errors = append(result.Errors, CleanupError{Path: dirPath, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale work directory",
					logging.String("path", dirPath),
					logging.Error(err),
					logging.String(logging.FieldEventType, "workdir_cleanup_failed"),
					logging.String(logging.FieldErrorHint, "check work_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
		} else {
			result.Removed = append(result.Removed, dirPath)
			if logger != nil {
				logger.Info("removed stale work directory",
					logging.String("path", dirPath),
					logging.Duration("age", time.Since(info.ModTime())),
					logging.String(logging.FieldEventType, "workdir_cleanup"),
				)
			}
		}
	}

	return result
}

// locked reports whether another process currently holds the run lock.
func locked(dirPath string) bool {
	lockPath := filepath.Join(dirPath, lockFileName)
	if _, err := os.Stat(lockPath); err != nil {
		return false
	}
	lock := flock.New(lockPath)
	held, err := lock.TryLock()
	if err != nil || !held {
		return true
	}
	_ = lock.Unlock()
	return false
}
