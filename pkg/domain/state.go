package domain

// SessionStatus defines where a tour session is in its lifecycle.
type SessionStatus string

const (
	StatusRunning   SessionStatus = "running"   // A step is current
	StatusCompleted SessionStatus = "completed" // Finished past the last step
	StatusSkipped   SessionStatus = "skipped"   // User bailed out, or the tour was preempted
)

// Terminal reports whether the status is an end state. Terminal sessions
// never transition again; a new tour requires a new session.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusSkipped
}

// Placement is the solved tooltip position for the current step.
type Placement struct {
	// Position is the tooltip's top-left corner, clamped so the whole
	// tooltip box stays inside the viewport.
	Position Point `json:"position"`

	// Side is the side actually used. It is SideCenter when the step
	// degraded because its target never resolved.
	Side Side `json:"side"`

	// Degraded marks a placement produced by the target-not-found policy:
	// viewport-centered, no highlight.
	Degraded bool `json:"degraded"`
}

// Snapshot captures an observer's view of a session at one instant.
// It is a value copy; mutating it never affects the live session.
type Snapshot struct {
	// SessionID identifies this run of the tour.
	SessionID string `json:"sessionId"`

	TourName string        `json:"tourName"`
	Status   SessionStatus `json:"status"`

	// Index is the current 0-based step index, always within
	// [0, len(steps)). For terminal sessions it is the last index shown.
	Index int `json:"index"`

	// StepID is the ID of the step at Index.
	StepID string `json:"stepId"`

	// TargetID references the resolved element on the surface, empty when
	// the step is centered or degraded. The engine never owns the element.
	TargetID string `json:"targetId,omitempty"`

	// Placement is nil until the current step has been resolved and
	// solved at least once.
	Placement *Placement `json:"placement,omitempty"`
}
