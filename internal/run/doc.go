// Package run persists dubbing run state in SQLite so interrupted runs can
// resume from the last completed stage instead of starting over.
package run
