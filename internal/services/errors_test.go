package services_test

import (
	"errors"
	"strings"
	"testing"

	"redub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "mixing", "duck", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"mixing", "duck", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "fitting", "stretch", "bad ratio", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestKind(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "segments", "add", "span inverted", nil)
	if kind := services.Kind(err); !errors.Is(kind, services.ErrValidation) {
		t.Fatalf("expected validation kind, got %v", kind)
	}
	if kind := services.Kind(errors.New("plain")); kind != nil {
		t.Fatalf("expected nil kind for unwrapped error, got %v", kind)
	}
}

func TestDetails(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "voices", "resolve", "no default voices configured", nil)
	details := services.Details(err)
	if details.Kind != services.ErrConfiguration.Error() {
		t.Fatalf("unexpected kind %q", details.Kind)
	}
	if !strings.Contains(details.Message, "no default voices configured") {
		t.Fatalf("unexpected message %q", details.Message)
	}
	if strings.HasPrefix(details.Message, services.ErrConfiguration.Error()) {
		t.Fatalf("marker prefix should be stripped, got %q", details.Message)
	}

	if details := services.Details(nil); details.Message != "" || details.Cause != nil {
		t.Fatalf("expected empty details for nil error")
	}
}
