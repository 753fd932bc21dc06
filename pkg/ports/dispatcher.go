package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// ActionDispatcher defines how step advance actions are executed.
// A step may name a host-side action in OnAdvance; the session manager
// emits it through this interface when the user advances past the step.
// Dispatch errors are logged and swallowed, never surfaced to the user.
type ActionDispatcher interface {
	Dispatch(ctx context.Context, action string, step domain.Step) error
}
