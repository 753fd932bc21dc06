package domain

import "time"

// Outcome summarizes how a tour session ended. It is the payload handed
// to record stores and the analytics sink on every terminal transition.
type Outcome struct {
	TourName  string `json:"tourName"`
	Completed bool   `json:"completed"`
	Skipped   bool   `json:"skipped"`

	// StepsCompleted counts steps the user got through. For a skip at
	// index i this is i+1; for a completion it is the full step count.
	StepsCompleted int `json:"stepsCompleted"`
}

// Record is the durable per-tour trace consulted by the auto-launch
// gate. One record per tour name; terminal writes replace the whole
// record (last write wins, never appended).
type Record struct {
	TourName             string     `json:"tourName"`
	Visited              bool       `json:"visited"`
	Completed            bool       `json:"completed"`
	Skipped              bool       `json:"skipped"`
	StepsCompletedAtExit int        `json:"stepsCompletedAtExit"`
	VisitedAt            *time.Time `json:"visitedAt,omitempty"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
	SkippedAt            *time.Time `json:"skippedAt,omitempty"`
}

// Seen reports whether the tour was ever shown to this user, in any
// form. The auto-launch gate declines to start tours that were seen.
func (r Record) Seen() bool {
	return r.Visited || r.Completed || r.Skipped
}
