package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// TourRunner is the driving port for transports (HTTP, MCP, CLI) that
// control tours on behalf of a user. It mirrors the session manager's
// surface without binding adapters to its concrete type.
type TourRunner interface {
	// Start begins the named tour, force-ending any tour already running.
	Start(ctx context.Context, tourName string) (domain.Snapshot, error)

	// Next advances one step, completing the tour on the last step.
	Next(ctx context.Context) (domain.Snapshot, error)

	// Previous steps back, a no-op at the first step.
	Previous(ctx context.Context) (domain.Snapshot, error)

	// Skip ends the running tour as skipped.
	Skip(ctx context.Context) (domain.Snapshot, error)

	// JumpTo navigates directly to a step by ID, a no-op if the step has
	// unmet prerequisites.
	JumpTo(ctx context.Context, stepID string) (domain.Snapshot, error)

	// Snapshot reports the running session.
	// Returns domain.ErrNotRunning when no tour is active.
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}
