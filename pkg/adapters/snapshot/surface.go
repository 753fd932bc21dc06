// Package snapshot implements a read-only Surface over a captured JSON
// description of a UI tree. It exists for offline tour auditing: every
// locator of every step can be resolved against a snapshot of the real
// product without a browser, so CI catches tour rot before users do.
package snapshot

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/docentlabs/docent/pkg/domain"
	"github.com/docentlabs/docent/pkg/ports"
)

// Surface implements ports.Surface over a parsed snapshot document.
//
// The document shape is:
//
//	{
//	  "viewport": {"width": 1280, "height": 800},
//	  "tree": [
//	    {
//	      "id": "sidebar",
//	      "selectors": ["#sidebar", "nav.sidebar"],
//	      "rect": {"x": 0, "y": 56, "width": 220, "height": 744},
//	      "hidden": false,
//	      "children": [ ... ]
//	    }
//	  ]
//	}
//
// Locators match a node when they equal one of its selectors or the
// shorthand "#<id>". Matching is exact string comparison; the snapshot
// carries the selectors the capture tool considered valid, so there is
// no query language to evaluate offline.
type Surface struct {
	viewport domain.Size
	nodes    []*node // depth-first pre-order, i.e. document order
	byID     map[string]*node

	mu     sync.Mutex
	forced map[string]bool
}

type node struct {
	id        string
	selectors []string
	rect      domain.Rect
	hidden    bool
	parentID  string
}

var _ ports.Surface = (*Surface)(nil)

// Load reads and parses a snapshot file.
func Load(path string) (*Surface, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse builds a surface from a snapshot document.
func Parse(raw []byte) (*Surface, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("snapshot: document is not valid JSON")
	}
	doc := gjson.ParseBytes(raw)

	s := &Surface{
		viewport: domain.Size{
			Width:  doc.Get("viewport.width").Float(),
			Height: doc.Get("viewport.height").Float(),
		},
		byID:   make(map[string]*node),
		forced: make(map[string]bool),
	}
	if s.viewport.Width <= 0 || s.viewport.Height <= 0 {
		return nil, fmt.Errorf("snapshot: missing or degenerate viewport")
	}

	var walk func(value gjson.Result, parentID string) error
	walk = func(value gjson.Result, parentID string) error {
		id := value.Get("id").String()
		if id == "" {
			return fmt.Errorf("snapshot: node without id (parent %q)", parentID)
		}
		if _, dup := s.byID[id]; dup {
			return fmt.Errorf("snapshot: duplicate node id %q", id)
		}

		n := &node{
			id:       id,
			hidden:   value.Get("hidden").Bool(),
			parentID: parentID,
			rect: domain.Rect{
				X:      value.Get("rect.x").Float(),
				Y:      value.Get("rect.y").Float(),
				Width:  value.Get("rect.width").Float(),
				Height: value.Get("rect.height").Float(),
			},
		}
		value.Get("selectors").ForEach(func(_, sel gjson.Result) bool {
			n.selectors = append(n.selectors, sel.String())
			return true
		})
		s.nodes = append(s.nodes, n)
		s.byID[id] = n

		var childErr error
		value.Get("children").ForEach(func(_, child gjson.Result) bool {
			childErr = walk(child, id)
			return childErr == nil
		})
		return childErr
	}

	var walkErr error
	doc.Get("tree").ForEach(func(_, root gjson.Result) bool {
		walkErr = walk(root, "")
		return walkErr == nil
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return s, nil
}

// Find returns matching nodes in document order.
func (s *Surface) Find(ctx context.Context, locator string) ([]ports.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(locator) == "" {
		return nil, fmt.Errorf("locator %q: %w", locator, domain.ErrBadLocator)
	}

	var out []ports.Element
	for _, n := range s.nodes {
		if s.matches(n, locator) {
			out = append(out, ports.Element{ID: n.id, Rect: s.measure(n)})
		}
	}
	return out, nil
}

// Measure returns the node's captured box, or zero extent while it is
// hidden and not forced visible.
func (s *Surface) Measure(ctx context.Context, id string) (domain.Rect, error) {
	n, ok := s.byID[id]
	if !ok {
		return domain.Rect{}, fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	return s.measure(n), nil
}

// Parent returns the node's immediate container.
func (s *Surface) Parent(ctx context.Context, id string) (ports.Element, error) {
	n, ok := s.byID[id]
	if !ok || n.parentID == "" {
		return ports.Element{}, fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	parent := s.byID[n.parentID]
	return ports.Element{ID: parent.id, Rect: s.measure(parent)}, nil
}

// ScrollIntoView is a no-op: a snapshot cannot scroll, and the captured
// rects are already final.
func (s *Surface) ScrollIntoView(ctx context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	return nil
}

// Apply simulates patches. Force-visible reveals a hidden node's
// captured rect, mirroring what the coercion escalation would achieve on
// a live page; emphasis and backdrop only record themselves.
func (s *Surface) Apply(ctx context.Context, id string, kind ports.PatchKind) (ports.Patch, error) {
	if _, ok := s.byID[id]; !ok {
		return nil, fmt.Errorf("element %q: %w", id, domain.ErrTargetNotFound)
	}
	if kind == ports.PatchForceVisible {
		s.mu.Lock()
		s.forced[id] = true
		s.mu.Unlock()
	}
	return &patch{surface: s, id: id, kind: kind}, nil
}

// Viewport returns the captured viewport size.
func (s *Surface) Viewport(ctx context.Context) (domain.Size, error) {
	return s.viewport, nil
}

func (s *Surface) matches(n *node, locator string) bool {
	if locator == "#"+n.id {
		return true
	}
	for _, sel := range n.selectors {
		if sel == locator {
			return true
		}
	}
	return false
}

func (s *Surface) measure(n *node) domain.Rect {
	if !n.hidden {
		return n.rect
	}
	s.mu.Lock()
	forced := s.forced[n.id]
	s.mu.Unlock()
	if forced {
		return n.rect
	}
	return domain.Rect{X: n.rect.X, Y: n.rect.Y}
}

type patch struct {
	surface *Surface
	id      string
	kind    ports.PatchKind

	mu       sync.Mutex
	reverted bool
}

func (p *patch) Kind() ports.PatchKind { return p.kind }

func (p *patch) Revert(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.reverted {
		return nil
	}
	p.reverted = true
	if p.kind == ports.PatchForceVisible {
		p.surface.mu.Lock()
		delete(p.surface.forced, p.id)
		p.surface.mu.Unlock()
	}
	return nil
}
