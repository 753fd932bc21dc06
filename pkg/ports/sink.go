package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// AnalyticsSink receives tour outcome beacons. Delivery is best-effort
// and fire-and-forget: the session manager logs a returned error and
// moves on, so an implementation failure can never affect tour state.
type AnalyticsSink interface {
	Publish(ctx context.Context, outcome domain.Outcome) error
}
