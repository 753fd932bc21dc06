// Package geometry computes tooltip positions. It is pure math over
// domain rects and sizes: no I/O, no surface access, so the clamping
// post-condition can be verified exhaustively in tests.
package geometry

import "github.com/docentlabs/docent/pkg/domain"

// Padding is the fixed gap between the tooltip and its target, and the
// margin preserved against the viewport edges when clamping.
const Padding = 10.0

// Place computes the tooltip's top-left corner for a preferred side.
//
// Top and bottom center the tooltip horizontally over the target, offset
// vertically by Padding. Left and right center it vertically beside the
// target, offset horizontally by Padding. Center ignores the target and
// centers in the viewport.
//
// The result is always clamped so the full tooltip box stays within
// [Padding, viewport-tooltip-Padding] on both axes. This is a hard
// post-condition: Place never returns a position whose box would extend
// outside the viewport, even if that means overlapping the target.
func Place(target domain.Rect, side domain.Side, tooltip, viewport domain.Size) domain.Point {
	var p domain.Point
	switch side {
	case domain.SideTop:
		p.X = target.Center().X - tooltip.Width/2
		p.Y = target.Y - tooltip.Height - Padding
	case domain.SideBottom:
		p.X = target.Center().X - tooltip.Width/2
		p.Y = target.Bottom() + Padding
	case domain.SideLeft:
		p.X = target.X - tooltip.Width - Padding
		p.Y = target.Center().Y - tooltip.Height/2
	case domain.SideRight:
		p.X = target.Right() + Padding
		p.Y = target.Center().Y - tooltip.Height/2
	default: // domain.SideCenter and anything unrecognized
		p.X = (viewport.Width - tooltip.Width) / 2
		p.Y = (viewport.Height - tooltip.Height) / 2
	}
	return Clamp(p, tooltip, viewport)
}

// Clamp constrains p so the box [p, p+size] stays inside the viewport
// with Padding on every edge. When the box cannot fit (size plus both
// paddings exceeds the viewport) the low edge wins and the box is pinned
// at Padding.
func Clamp(p domain.Point, size, viewport domain.Size) domain.Point {
	return domain.Point{
		X: clampAxis(p.X, size.Width, viewport.Width),
		Y: clampAxis(p.Y, size.Height, viewport.Height),
	}
}

func clampAxis(v, size, viewport float64) float64 {
	lo := Padding
	hi := viewport - size - Padding
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
