// Package stage defines the contract every pipeline stage handler satisfies.
package stage

import (
	"context"
	"log/slog"

	"redub/internal/run"
)

// Handler describes the contract the pipeline needs from each stage. Prepare
// validates inputs and rebuilds any state a resumed run is missing; Execute
// does the work and may move the run to a terminal status itself.
type Handler interface {
	Prepare(context.Context, *run.Run) error
	Execute(context.Context, *run.Run) error
}

// LoggerAware lets the executor hand a stage-scoped logger to a handler.
type LoggerAware interface {
	SetLogger(logger *slog.Logger)
}
