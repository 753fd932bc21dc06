package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Node configures one element of a scripted surface tree. Nodes match
// locators by exact string, which keeps engine tests independent of any
// real query language.
type Node struct {
	ID string

	// Locators are the query strings this node answers to.
	Locators []string

	// Rect is the node's laid-out bounding box.
	Rect domain.Rect

	// Hidden makes the node measure as zero-extent until a force-visible
	// patch is applied, mimicking display:none targets.
	Hidden bool

	// AppearAfter delays the node: it only matches once its locator has
	// been queried more than AppearAfter times. Zero means immediately.
	AppearAfter int

	// ParentID links the node to its container for escalation lookups.
	ParentID string
}

type node struct {
	Node
	forced bool // a force-visible patch is active
}

// Surface implements ports.Surface over a scripted element tree.
// Safe for concurrent use. It records scrolls and active patches so
// tests can assert on engine side effects.
type Surface struct {
	mu       sync.Mutex
	viewport domain.Size
	nodes    []*node // traversal order
	byID     map[string]*node
	bad      map[string]bool
	finds    map[string]int
	scrolled []string
	active   map[*fakePatch]struct{}
	watchers []chan domain.Size
}

// NewSurface creates a scripted surface with the given viewport and
// nodes, in traversal order.
func NewSurface(viewport domain.Size, nodes ...Node) *Surface {
	s := &Surface{
		viewport: viewport,
		byID:     make(map[string]*node),
		bad:      make(map[string]bool),
		finds:    make(map[string]int),
		active:   make(map[*fakePatch]struct{}),
	}
	for _, n := range nodes {
		s.Add(n)
	}
	return s
}

// Add appends a node at the end of the traversal order.
func (s *Surface) Add(n Node) {
	s.mu.Lock()
	defer s.mu.Unlock()
	wrapped := &node{Node: n}
	s.nodes = append(s.nodes, wrapped)
	s.byID[n.ID] = wrapped
}

// Remove detaches a node, as if the host view unmounted it.
func (s *Surface) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	for i, n := range s.nodes {
		if n.ID == id {
			s.nodes = append(s.nodes[:i], s.nodes[i+1:]...)
			break
		}
	}
}

// MarkBad makes the surface reject a locator as unparseable.
func (s *Surface) MarkBad(locator string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bad[locator] = true
}

// Find returns matching nodes in traversal order.
func (s *Surface) Find(ctx context.Context, locator string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if locator == "" || s.bad[locator] {
		return nil, fmt.Errorf("locator %q: %w", locator, domain.ErrBadLocator)
	}
	s.finds[locator]++

	var out []ports.Element
	for _, n := range s.nodes {
		if !matches(n, locator) {
			continue
		}
		if n.AppearAfter >= s.finds[locator] {
			continue // still settling
		}
		out = append(out, ports.Element{ID: n.ID, Rect: s.measureLocked(n)})
	}
	return out, nil
}

func matches(n *node, locator string) bool {
	for _, l := range n.Locators {
		if l == locator {
			return true
		}
	}
	return false
}

// FindCount reports how often a locator has been queried, which retry
// tests use to verify the bounded budget.
func (s *Surface) FindCount(locator string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finds[locator]
}

// Measure returns a node's current box, zero-extent while hidden.
func (s *Surface) Measure(ctx context.Context, id string) (domain.Rect, error) {
	if err := ctx.Err(); err != nil {
		return domain.Rect{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return domain.Rect{}, fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	return s.measureLocked(n), nil
}

func (s *Surface) measureLocked(n *node) domain.Rect {
	if n.Hidden && !n.forced {
		return domain.Rect{X: n.Rect.X, Y: n.Rect.Y}
	}
	return n.Rect
}

// Parent returns the node's container.
func (s *Surface) Parent(ctx context.Context, id string) (ports.Element, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok || n.ParentID == "" {
		return ports.Element{}, fmt.Errorf("parent of %q: %w", id, domain.ErrTargetNotFound)
	}
	p, ok := s.byID[n.ParentID]
	if !ok {
		return ports.Element{}, fmt.Errorf("parent of %q: %w", id, domain.ErrTargetNotFound)
	}
	return ports.Element{ID: p.ID, Rect: s.measureLocked(p)}, nil
}

// ScrollIntoView records the scroll request.
func (s *Surface) ScrollIntoView(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	s.scrolled = append(s.scrolled, id)
	return nil
}

// Scrolled returns the IDs scrolled into view, in order.
func (s *Surface) Scrolled() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.scrolled))
	copy(out, s.scrolled)
	return out
}

// Apply attaches a reversible patch to a node.
func (s *Surface) Apply(ctx context.Context, id string, kind ports.PatchKind) (ports.Patch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, ok := s.byID[id]
	if !ok {
		return nil, fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	p := &fakePatch{surface: s, node: n, kind: kind}
	if kind == ports.PatchForceVisible {
		n.forced = true
	}
	s.active[p] = struct{}{}
	return p, nil
}

// ActivePatches returns the kinds of patches applied and not yet
// reverted, in no particular order.
func (s *Surface) ActivePatches() []ports.PatchKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ports.PatchKind, 0, len(s.active))
	for p := range s.active {
		out = append(out, p.kind)
	}
	return out
}

// Viewport returns the configured viewport size.
func (s *Surface) Viewport(ctx context.Context) (domain.Size, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewport, nil
}

// SetViewport resizes the surface and notifies resize subscribers.
func (s *Surface) SetViewport(size domain.Size) {
	s.mu.Lock()
	s.viewport = size
	watchers := make([]chan domain.Size, len(s.watchers))
	copy(watchers, s.watchers)
	s.mu.Unlock()

	for _, ch := range watchers {
		select {
		case ch <- size:
		default: // subscriber not keeping up; resize events are lossy
		}
	}
}

// ResizeEvents implements ports.ResizeNotifier.
func (s *Surface) ResizeEvents(ctx context.Context) (<-chan domain.Size, error) {
	ch := make(chan domain.Size, 8)
	s.mu.Lock()
	s.watchers = append(s.watchers, ch)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		for i, w := range s.watchers {
			if w == ch {
				s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		close(ch)
	}()
	return ch, nil
}

type fakePatch struct {
	surface  *Surface
	node     *node
	kind     ports.PatchKind
	reverted bool
}

func (p *fakePatch) Kind() ports.PatchKind { return p.kind }

// Revert undoes the patch. Idempotent.
func (p *fakePatch) Revert(ctx context.Context) error {
	p.surface.mu.Lock()
	defer p.surface.mu.Unlock()

	if p.reverted {
		return nil
	}
	p.reverted = true
	if p.kind == ports.PatchForceVisible {
		p.node.forced = false
	}
	delete(p.surface.active, p)
	return nil
}
