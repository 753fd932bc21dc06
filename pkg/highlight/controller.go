// Package highlight owns the visual emphasis treatment on the active
// tour target: an outline on the element plus a dimmed backdrop over the
// rest of the view, applied as reversible surface patches.
package highlight

import (
	"context"
	"log/slog"
	"sync"

	"github.com/docentlabs/docent/internal/logging"
	"github.com/docentlabs/docent/pkg/ports"
)

// Handle represents one applied highlight. Releasing it restores the
// view exactly as the engine found it: the emphasis and backdrop revert
// together with any layout coercion patches adopted from resolution.
type Handle struct {
	controller *Controller
	elementID  string
	patches    []ports.Patch
	released   bool // guarded by controller.mu
}

// ElementID reports which element the handle emphasizes.
func (h *Handle) ElementID() string { return h.elementID }

// Release undoes the highlight. It is idempotent: second and later calls
// are no-ops. Revert failures are logged and swallowed; a failed revert
// must never block the tour from moving on.
func (h *Handle) Release(ctx context.Context) {
	h.controller.release(ctx, h)
}

// Controller applies at most one highlight system-wide. Acquiring a new
// one first releases the prior handle, so rapid step changes can never
// stack ghost highlights.
type Controller struct {
	surface ports.Surface
	logger  *slog.Logger

	mu     sync.Mutex
	active *Handle
}

// Option configures the Controller.
type Option func(*Controller)

// WithLogger sets a structured logger for revert failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// New creates a Controller for the given surface.
func New(surface ports.Surface, opts ...Option) *Controller {
	c := &Controller{
		surface: surface,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Apply emphasizes the element and dims the rest of the view, releasing
// any prior highlight first. Ownership of the adopted patches (layout
// coercions applied during resolution) transfers to the controller
// unconditionally: they revert with the returned handle, or immediately
// when the highlight itself cannot be applied.
func (c *Controller) Apply(ctx context.Context, elementID string, adopted ...ports.Patch) (*Handle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != nil {
		c.releaseLocked(ctx, c.active)
	}

	patches := make([]ports.Patch, 0, len(adopted)+2)
	patches = append(patches, adopted...)

	emphasis, err := c.surface.Apply(ctx, elementID, ports.PatchEmphasis)
	if err != nil {
		c.revertAll(ctx, patches)
		return nil, err
	}
	patches = append(patches, emphasis)

	backdrop, err := c.surface.Apply(ctx, elementID, ports.PatchBackdrop)
	if err != nil {
		c.revertAll(ctx, patches)
		return nil, err
	}
	patches = append(patches, backdrop)

	handle := &Handle{controller: c, elementID: elementID, patches: patches}
	c.active = handle
	return handle, nil
}

// ReleaseActive releases the current highlight, if any.
func (c *Controller) ReleaseActive(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != nil {
		c.releaseLocked(ctx, c.active)
	}
}

// Active reports whether a highlight is currently applied.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active != nil
}

func (c *Controller) release(ctx context.Context, h *Handle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.releaseLocked(ctx, h)
}

func (c *Controller) releaseLocked(ctx context.Context, h *Handle) {
	if h.released {
		return
	}
	h.released = true
	c.revertAll(ctx, h.patches)
	if c.active == h {
		c.active = nil
	}
}

// revertAll undoes patches in reverse application order, so the backdrop
// lifts before the emphasis and coercions revert last.
func (c *Controller) revertAll(ctx context.Context, patches []ports.Patch) {
	for i := len(patches) - 1; i >= 0; i-- {
		if err := patches[i].Revert(ctx); err != nil {
			c.logger.Warn("failed to revert patch", "kind", patches[i].Kind(), "err", err)
		}
	}
}
