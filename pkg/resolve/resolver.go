// Package resolve locates the live on-screen element a tour step refers
// to, with bounded retry while the view is still settling and a layout
// coercion escalation for targets that match but cannot be measured.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Result is a successful resolution.
type Result struct {
	// Element is the measurable element the step anchors to. After a
	// parent escalation this is the container, not the original match.
	Element ports.Element

	// Rect is the element's box, re-measured after scroll-into-view.
	Rect domain.Rect

	// LocatorIndex is the position of the fallback locator that matched.
	LocatorIndex int

	// Patches holds the layout coercion patches applied to make the
	// target measurable. Ownership passes to the caller, which must
	// guarantee their revert on every exit path; the highlight controller
	// folds them into its handle for exactly that reason.
	Patches []ports.Patch

	// Attempts counts the find passes that ran, for observability.
	Attempts int
}

// Resolver finds step targets on a surface.
//
// Locators are tried in order and the first match in surface traversal
// order wins. Multiple matches for one locator are not disambiguated;
// that is a documented limitation, kept deliberately so authors see the
// same element a user would.
type Resolver struct {
	surface ports.Surface
	clock   ports.Clock
	policy  RetryPolicy
	logger  *slog.Logger
}

// Option configures the Resolver.
type Option func(*Resolver)

// WithClock substitutes the wait clock, letting tests drive the retry
// loop deterministically.
func WithClock(c ports.Clock) Option {
	return func(r *Resolver) {
		r.clock = c
	}
}

// WithRetryPolicy overrides the bounded retry budget.
func WithRetryPolicy(p RetryPolicy) Option {
	return func(r *Resolver) {
		r.policy = p
	}
}

// WithLogger sets a structured logger for per-locator failures.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver for the given surface.
func New(surface ports.Surface, opts ...Option) *Resolver {
	r := &Resolver{
		surface: surface,
		clock:   ports.SystemClock{},
		policy:  DefaultRetryPolicy,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve finds the live element for a step.
//
// With WaitForTarget unset a miss returns domain.ErrTargetNotFound
// immediately; with it set the locator pass repeats on the policy's
// fixed interval until the attempt ceiling, then reports the same error.
// Cancelling ctx aborts between attempts. On success the target is
// scrolled into view (the resolver is the single place allowed to
// scroll) and re-measured.
func (r *Resolver) Resolve(ctx context.Context, step domain.Step) (*Result, error) {
	if len(step.Locators) == 0 {
		return nil, fmt.Errorf("step %q has no locators: %w", step.ID, domain.ErrTargetNotFound)
	}

	attempts := r.policy.attempts(step.WaitForTarget)
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			if err := r.clock.Sleep(ctx, r.policy.Interval); err != nil {
				return nil, err
			}
		}

		result, err := r.tryLocators(ctx, step)
		if err == nil {
			result.Attempts = attempt
			r.settleTarget(ctx, result)
			return result, nil
		}
		if !errors.Is(err, domain.ErrTargetNotFound) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("step %q: no locator matched after %d attempts: %w",
		step.ID, attempts, domain.ErrTargetNotFound)
}

// tryLocators runs one pass over the step's fallback locators.
func (r *Resolver) tryLocators(ctx context.Context, step domain.Step) (*Result, error) {
	for i, locator := range step.Locators {
		matches, err := r.surface.Find(ctx, locator)
		if err != nil {
			if errors.Is(err, domain.ErrBadLocator) {
				// Author error in one fallback; the rest still get a chance.
				r.logger.Warn("skipping malformed locator",
					"step", step.ID, "locator", locator, "err", err)
				continue
			}
			return nil, err
		}
		if len(matches) == 0 {
			continue
		}

		// First match in traversal order wins, always.
		element := matches[0]
		resolved, patches, err := r.ensureMeasurable(ctx, element)
		if err != nil {
			if errors.Is(err, domain.ErrTargetNotFound) {
				r.logger.Debug("match has no measurable extent",
					"step", step.ID, "locator", locator, "element", element.ID)
				continue
			}
			return nil, err
		}

		return &Result{Element: resolved, Rect: resolved.Rect, LocatorIndex: i, Patches: patches}, nil
	}
	return nil, domain.ErrTargetNotFound
}

// ensureMeasurable returns a measurable element for the match. Zero
// extent matches go through the layout coercion escalation: force the
// element into a minimum visible state, then fall back to its immediate
// container once, then give up. Tour targets are frequently off-screen
// navigation items that only become measurable after styling settles;
// the escalation keeps a single immeasurable target from stalling the
// whole tour. After a container fallback the returned element is the
// parent, so highlight and placement both track the box the user sees.
func (r *Resolver) ensureMeasurable(ctx context.Context, element ports.Element) (ports.Element, []ports.Patch, error) {
	if !element.Rect.Empty() {
		return element, nil, nil
	}

	var patches []ports.Patch
	revert := func() {
		for _, p := range patches {
			if err := p.Revert(ctx); err != nil {
				r.logger.Warn("failed to revert coercion patch", "element", element.ID, "err", err)
			}
		}
	}

	patch, err := r.surface.Apply(ctx, element.ID, ports.PatchForceVisible)
	if err == nil {
		patches = append(patches, patch)
		rect, err := r.surface.Measure(ctx, element.ID)
		if err != nil {
			revert()
			return ports.Element{}, nil, err
		}
		if !rect.Empty() {
			element.Rect = rect
			return element, patches, nil
		}
	} else if !errors.Is(err, domain.ErrTargetNotFound) {
		return ports.Element{}, nil, err
	}

	parent, err := r.surface.Parent(ctx, element.ID)
	if err != nil {
		revert()
		if errors.Is(err, domain.ErrTargetNotFound) {
			return ports.Element{}, nil, domain.ErrTargetNotFound
		}
		return ports.Element{}, nil, err
	}
	rect, err := r.surface.Measure(ctx, parent.ID)
	if err != nil {
		revert()
		return ports.Element{}, nil, err
	}
	if rect.Empty() {
		revert()
		return ports.Element{}, nil, domain.ErrTargetNotFound
	}
	parent.Rect = rect
	return parent, patches, nil
}

// settleTarget scrolls the resolved element into view and refreshes its
// box. Scroll failures degrade silently; the placement still works from
// the last measurement.
func (r *Resolver) settleTarget(ctx context.Context, result *Result) {
	if err := r.surface.ScrollIntoView(ctx, result.Element.ID); err != nil {
		r.logger.Warn("scroll into view failed", "element", result.Element.ID, "err", err)
		return
	}
	rect, err := r.surface.Measure(ctx, result.Element.ID)
	if err != nil || rect.Empty() {
		return
	}
	result.Rect = rect
	result.Element.Rect = rect
}
