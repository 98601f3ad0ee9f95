package lspinstall

import (
	"context"
	"time"
)

//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/settings.go . Settings
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/status.go . StatusSink
//go:generate go run github.com/matryer/moq@latest -pkg mocks -out mocks/telemetry.go . TelemetrySink

// Settings exposes user configuration owned by the host application.
type Settings interface {
	// LocalOverridePath returns a path pinned for server, or "" when none is
	// configured.
	LocalOverridePath(server string) (string, error)
}

// StatusSink receives human-readable progress messages.
type StatusSink interface {
	Status(message string)
}

// TelemetrySink receives one Event per install attempt.
type TelemetrySink interface {
	Record(ctx context.Context, event Event)
}

// Outcome classifies an install attempt.
type Outcome string

const (
	// OutcomeSucceeded means a usable build was returned.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeFailed means the attempt returned an error.
	OutcomeFailed Outcome = "failed"
	// OutcomeCancelled means the caller's context ended the attempt.
	OutcomeCancelled Outcome = "cancelled"
)

// Event describes a completed install attempt.
type Event struct {
	Server        string
	Outcome       Outcome
	Duration      time.Duration
	Version       string
	SchemaVersion string
	Provenance    Provenance
}
