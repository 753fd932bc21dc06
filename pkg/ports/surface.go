package ports

import (
	"context"

	"github.com/docentlabs/docent/pkg/domain"
)

// Element is an opaque reference to one node of the host view tree.
// The engine never owns an element's lifecycle; it only holds the
// reference for the duration of the current step.
type Element struct {
	// ID is surface-scoped and stable while the element stays attached.
	ID string

	// Rect is the bounding box measured when the element was found.
	// Callers re-measure through Measure when staleness matters.
	Rect domain.Rect
}

// PatchKind selects a reversible presentation treatment.
type PatchKind string

const (
	// PatchForceVisible coerces a hidden element (display:none or
	// visibility:hidden equivalents) into a minimum visible state so it
	// can be measured.
	PatchForceVisible PatchKind = "force_visible"

	// PatchEmphasis draws the highlight treatment (outline/border) on the
	// element itself.
	PatchEmphasis PatchKind = "emphasis"

	// PatchBackdrop dims everything except the element. The backdrop is
	// purely visual and must not capture pointer input meant for the host
	// view or the tooltip's own controls.
	PatchBackdrop PatchKind = "backdrop"
)

// Patch is a reversible adjustment applied through a Surface. Revert
// restores the element exactly as the surface found it and must be
// idempotent: second and later calls are no-ops.
type Patch interface {
	Kind() PatchKind
	Revert(ctx context.Context) error
}

// Surface is the abstract view-tree capability the engine runs against:
// locate elements by declarative query, measure their boxes, scroll them
// into view, and apply reversible presentation patches. Implementations
// wrap a concrete UI technology (a live browser page, a captured
// snapshot, a scripted fake); the engine core never touches one directly.
type Surface interface {
	// Find returns every element matching the locator, in surface
	// traversal order (document order for DOM-like surfaces). An empty
	// slice means no match. A locator the surface cannot parse returns
	// domain.ErrBadLocator.
	Find(ctx context.Context, locator string) ([]Element, error)

	// Measure returns the element's current bounding box.
	// Returns domain.ErrTargetNotFound if the element is gone.
	Measure(ctx context.Context, id string) (domain.Rect, error)

	// Parent returns the element's immediate container.
	// Returns domain.ErrTargetNotFound at the tree root.
	Parent(ctx context.Context, id string) (Element, error)

	// ScrollIntoView centers the element in the viewport, smoothly when
	// the surface supports it. The target resolver is the single caller.
	ScrollIntoView(ctx context.Context, id string) error

	// Apply attaches a reversible presentation patch to the element.
	Apply(ctx context.Context, id string, kind PatchKind) (Patch, error)

	// Viewport returns the current viewport size.
	Viewport(ctx context.Context) (domain.Size, error)
}

// ResizeNotifier is implemented by surfaces that can report viewport
// resizes. The session manager re-solves the current placement on every
// signal.
type ResizeNotifier interface {
	// ResizeEvents returns a channel that receives the new viewport size
	// after each resize. The channel closes when ctx is done.
	ResizeEvents(ctx context.Context) (<-chan domain.Size, error)
}
