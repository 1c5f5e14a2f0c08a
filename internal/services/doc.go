// Package services defines the shared error taxonomy and context annotations
// used across pipeline stages and external tool collaborators.
//
// Stage code wraps failures with Wrap, tagging them with one of the sentinel
// markers so the orchestrator and CLI can classify them without string
// matching. Context helpers carry run, stage, segment, and speaker identity
// into logs.
package services
