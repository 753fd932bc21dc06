package domain

import (
	"fmt"
	"time"
)

// Side identifies where a tooltip sits relative to its target.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
	// SideCenter anchors the tooltip to the viewport center and ignores
	// the target entirely. It is also the degraded placement used when a
	// target cannot be resolved.
	SideCenter Side = "center"
)

// Valid reports whether s is a recognized side.
func (s Side) Valid() bool {
	switch s {
	case SideTop, SideBottom, SideLeft, SideRight, SideCenter:
		return true
	}
	return false
}

// Step describes one stop of a tour. It is author-supplied static data;
// the engine never mutates a step after the tour starts.
type Step struct {
	// ID is unique within the owning tour.
	ID string `json:"id" yaml:"id"`

	// Locators are fallback target queries, tried in order. The first
	// locator that matches wins. Multiple matches for one locator are not
	// disambiguated: the first match in surface traversal order is taken.
	Locators []string `json:"locators" yaml:"locators"`

	Title string `json:"title" yaml:"title"`
	Body  string `json:"body,omitempty" yaml:"body,omitempty"`

	// Side is the preferred tooltip side. Zero value resolves to bottom.
	Side Side `json:"side,omitempty" yaml:"side,omitempty"`

	// WaitForTarget enables the bounded poll-retry loop when no locator
	// matches immediately (the view may still be settling).
	WaitForTarget bool `json:"waitForTarget,omitempty" yaml:"waitForTarget,omitempty"`

	// AppearDelay postpones the first resolution after this step becomes
	// current. Navigating back to an already-shown step never re-applies it.
	AppearDelay time.Duration `json:"appearDelay,omitempty" yaml:"appearDelay,omitempty"`

	// OnAdvance names a host-registered action fired when the user
	// advances past this step. Empty means no action.
	OnAdvance string `json:"onAdvance,omitempty" yaml:"onAdvance,omitempty"`

	// Requires lists step IDs that must have been shown in this session
	// before the step may be reached through JumpTo. Sequential Next
	// navigation is never blocked by prerequisites.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// EffectiveSide returns the side to solve for, defaulting to bottom.
func (s Step) EffectiveSide() Side {
	if s.Side == "" {
		return SideBottom
	}
	return s.Side
}

// Validate checks the step's own invariants. Uniqueness of the ID is
// checked at the tour level.
func (s Step) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("step: missing id")
	}
	if s.Side != "" && !s.Side.Valid() {
		return fmt.Errorf("step %q: invalid side %q", s.ID, s.Side)
	}
	if len(s.Locators) == 0 && s.EffectiveSide() != SideCenter {
		return fmt.Errorf("step %q: at least one locator is required unless side is center", s.ID)
	}
	if s.AppearDelay < 0 {
		return fmt.Errorf("step %q: negative appear delay", s.ID)
	}
	return nil
}

// Tour is an ordered walkthrough of steps shown to a user. Name doubles
// as the persistence key prefix; the step order is significant and fixed
// for a session once started.
type Tour struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title,omitempty" yaml:"title,omitempty"`

	// View is the view identity the catalog maps to this tour. A view
	// maps to at most one tour.
	View string `json:"view,omitempty" yaml:"view,omitempty"`

	Steps []Step `json:"steps" yaml:"steps"`
}

// Validate checks the tour invariants: a non-empty name, at least one
// step, step IDs unique within the tour, and prerequisites that refer to
// earlier steps only.
func (t Tour) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("tour: missing name")
	}
	if len(t.Steps) == 0 {
		return fmt.Errorf("tour %q: at least one step is required", t.Name)
	}
	seen := make(map[string]int, len(t.Steps))
	for i, step := range t.Steps {
		if err := step.Validate(); err != nil {
			return fmt.Errorf("tour %q: %w", t.Name, err)
		}
		if prev, dup := seen[step.ID]; dup {
			return fmt.Errorf("tour %q: duplicate step id %q (steps %d and %d)", t.Name, step.ID, prev, i)
		}
		seen[step.ID] = i
	}
	for i, step := range t.Steps {
		for _, req := range step.Requires {
			at, ok := seen[req]
			if !ok {
				return fmt.Errorf("tour %q: step %q requires unknown step %q", t.Name, step.ID, req)
			}
			if at >= i {
				return fmt.Errorf("tour %q: step %q requires %q which does not precede it", t.Name, step.ID, req)
			}
		}
	}
	return nil
}

// StepIndex returns the position of the step with the given ID, or -1.
func (t Tour) StepIndex(id string) int {
	for i, s := range t.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}
