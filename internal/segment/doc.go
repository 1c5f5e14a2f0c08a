// Package segment owns the run's working set of diarized speech segments:
// span-validated entry, stage-ordered field setters, and stable snapshot
// iteration for the fitting and mixing stages.
package segment
