// Package workdir manages per-run working directories: creation, artifact
// layout, exclusive locking, and retention cleanup.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Artifact subdirectory names inside a run's work directory. Each pipeline
// stage writes its outputs under its own subdirectory so resume can find them.
const (
	DirExtract    = "extract"
	DirStems      = "stems"
	DirTranscript = "transcript"
	DirTranslate  = "translate"
	DirTTS        = "tts"
	DirFit        = "fit"
	DirMix        = "mix"
	DirVoices     = "voices"
)

var artifactDirs = []string{
	DirExtract,
	DirStems,
	DirTranscript,
	DirTranslate,
	DirTTS,
	DirFit,
	DirMix,
	DirVoices,
}

const lockFileName = "run.lock"

// Dir is one run's working directory, held under an exclusive file lock for
// the lifetime of the run.
type Dir struct {
	root string
	lock *flock.Flock
}

// Open creates (or reopens, on resume) the work directory for a run and takes
// its lock. A second process attempting to open the same run's directory
// fails immediately rather than corrupting artifacts.
func Open(baseDir, runID string) (*Dir, error) {
	root := filepath.Join(baseDir, runID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	for _, sub := range artifactDirs {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, fmt.Errorf("create artifact dir %s: %w", sub, err)
		}
	}

	lock := flock.New(filepath.Join(root, lockFileName))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock work dir: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("work dir %s is locked by another process", root)
	}

	return &Dir{root: root, lock: lock}, nil
}

// Root returns the work directory path.
func (d *Dir) Root() string {
	return d.root
}

// Path returns the path of an artifact subdirectory joined with name.
func (d *Dir) Path(sub string, name string) string {
	return filepath.Join(d.root, sub, name)
}

// SubDir returns the path of an artifact subdirectory.
func (d *Dir) SubDir(sub string) string {
	return filepath.Join(d.root, sub)
}

// Release drops the lock without removing anything. Used when the directory
// must survive for inspection or resume.
func (d *Dir) Release() error {
	if d == nil || d.lock == nil {
		return nil
	}
	return d.lock.Unlock()
}

// Remove releases the lock and deletes the directory tree.
func (d *Dir) Remove() error {
	if err := d.Release(); err != nil {
		return err
	}
	return os.RemoveAll(d.root)
}
