package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventTourStart    EventType = "tour_start"
	EventStepShown    EventType = "step_shown"
	EventStepResolved EventType = "step_resolved"
	EventTourEnd      EventType = "tour_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
	TourName  string    `json:"tour_name"`
}

// TourEvent represents a tour starting or ending.
type TourEvent struct {
	EventBase
	// Outcome is set for tour_end events only.
	Outcome *Outcome `json:"outcome,omitempty"`
}

// StepEvent represents a step becoming current or finishing resolution.
type StepEvent struct {
	EventBase
	StepID string `json:"step_id"`
	Index  int    `json:"index"`

	// LocatorIndex is the position of the fallback locator that matched,
	// or -1 when the step degraded to a centered placement.
	LocatorIndex int `json:"locator_index"`

	// Degraded is true when the target never resolved and the step was
	// shown centered with no highlight.
	Degraded bool `json:"degraded,omitempty"`

	// Elapsed is the resolution latency, set on step_resolved events.
	Elapsed time.Duration `json:"elapsed,omitempty"`
}

// Hooks defines callbacks for engine observability. Any field may be
// nil. Callbacks run synchronously on the session's goroutine while no
// internal locks are held; keep them fast and never call back into the
// session from inside one.
type Hooks struct {
	OnTourStart    func(context.Context, *TourEvent)
	OnStepShown    func(context.Context, *StepEvent)
	OnStepResolved func(context.Context, *StepEvent)
	OnTourEnd      func(context.Context, *TourEvent)
}

// MergeHooks fans each event out to every hook set, in argument order.
// Nil callbacks are skipped, so sparse sets compose cleanly with full
// ones (a metrics exporter plus a presenter, for example).
func MergeHooks(hooks ...Hooks) Hooks {
	var merged Hooks
	for _, h := range hooks {
		merged.OnTourStart = chainTour(merged.OnTourStart, h.OnTourStart)
		merged.OnStepShown = chainStep(merged.OnStepShown, h.OnStepShown)
		merged.OnStepResolved = chainStep(merged.OnStepResolved, h.OnStepResolved)
		merged.OnTourEnd = chainTour(merged.OnTourEnd, h.OnTourEnd)
	}
	return merged
}

func chainTour(first, second func(context.Context, *TourEvent)) func(context.Context, *TourEvent) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, e *TourEvent) {
		first(ctx, e)
		second(ctx, e)
	}
}

func chainStep(first, second func(context.Context, *StepEvent)) func(context.Context, *StepEvent) {
	if first == nil {
		return second
	}
	if second == nil {
		return first
	}
	return func(ctx context.Context, e *StepEvent) {
		first(ctx, e)
		second(ctx, e)
	}
}
