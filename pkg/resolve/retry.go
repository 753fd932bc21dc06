package resolve

import "time"

// RetryPolicy bounds the poll-retry loop used while a view settles. It
// is a stateless value consumed by the resolver, so the budget is unit
// testable apart from any surface.
type RetryPolicy struct {
	// MaxAttempts caps how many find passes run, first attempt included.
	MaxAttempts int

	// Interval is the fixed pause between attempts.
	Interval time.Duration
}

// DefaultRetryPolicy is the production budget: 50 attempts on a 100ms
// interval, a 5 second ceiling. Steps that need longer belong behind a
// settle delay on the launch side, not a bigger budget.
var DefaultRetryPolicy = RetryPolicy{
	MaxAttempts: 50,
	Interval:    100 * time.Millisecond,
}

// Budget returns the worst-case wall time the policy allows.
func (p RetryPolicy) Budget() time.Duration {
	if p.MaxAttempts <= 0 {
		return 0
	}
	return time.Duration(p.MaxAttempts) * p.Interval
}

// attempts clamps the configured attempt count to at least one pass.
func (p RetryPolicy) attempts(wait bool) int {
	if !wait || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}
