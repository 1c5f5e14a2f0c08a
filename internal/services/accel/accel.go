// Package accel implements the hardware-acceleration fallback policy: try a
// collaborator call on the accelerated device once, retry once on CPU, then
// give up. The policy is applied per call site, so one segment falling back
// never forces other segments off the accelerated path.
package accel

import (
	"context"
	"errors"
	"log/slog"

	"redub/internal/logging"
	"redub/internal/services"
)

// CPUDevice is the universal fallback execution device.
const CPUDevice = "cpu"

// Call is a device-parameterized collaborator invocation.
type Call func(ctx context.Context, device string) error

// Policy carries the preferred device for accelerated execution.
type Policy struct {
	Device string
	Logger *slog.Logger
}

// New returns a policy preferring the given device.
func New(device string, logger *slog.Logger) Policy {
	if device == "" {
		device = CPUDevice
	}
	return Policy{Device: device, Logger: logging.NewComponentLogger(logger, "accel")}
}

// Run executes call on the preferred device, falling back to CPU on failure.
// Context cancellation is never retried. The returned error is the CPU
// attempt's when both fail.
func (p Policy) Run(ctx context.Context, operation string, call Call) error {
	device := p.Device
	if device == "" {
		device = CPUDevice
	}

	err := call(ctx, device)
	if err == nil || device == CPUDevice {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	p.Logger.Warn("accelerated path failed, retrying on cpu",
		logging.String("operation", operation),
		logging.String("device", device),
		logging.Error(err),
		logging.String(logging.FieldEventType, "accel_fallback"),
		logging.String(logging.FieldImpact, "slower execution for this call"),
	)

	if err := call(ctx, CPUDevice); err != nil {
		return services.Wrap(services.ErrExternalTool, "accel", operation,
			"failed on both accelerated and cpu paths", err)
	}
	return nil
}
