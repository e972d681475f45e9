// Package view maps between screen space and the complex plane and applies
// the interactive transforms (pan, zoom, reset) to a region.
//
// Screen space is centred on the middle of the window with +y pointing up.
// All functions here are pure; they return new regions and never mutate their
// arguments.
package view

import (
	"math"

	"seehuhn.de/go/geom/vec"

	mandel "github.com/marben/mandelview"
)

const (
	// MaxZoomFraction bounds a single cursor zoom step in either direction.
	MaxZoomFraction = 0.5
	// MaxKeyZoomFraction bounds a symmetric keyboard zoom step. Each end moves
	// by the fraction so the span shrinks by twice that amount.
	MaxKeyZoomFraction = 0.45
	// DefaultMinDrag is the smallest rectangle side, in screen units, that
	// ZoomToRectangle accepts.
	DefaultMinDrag = 4.0
)

// Window is the size of the drawing surface in screen units.
type Window struct {
	W, H float64
}

// WindowOf returns the window matching a pixel resolution.
func WindowOf(res mandel.Resolution) Window {
	return Window{W: float64(res.X), H: float64(res.Y)}
}

func (w Window) size() vec.Vec2 { return vec.Vec2{X: w.W, Y: w.H} }

// FromPixel converts a top-left, y-down pixel position into screen space.
func FromPixel(px, py float64, win Window) vec.Vec2 {
	return vec.Vec2{X: px - win.W/2, Y: win.H/2 - py}
}

// ToPixel is the inverse of FromPixel.
func ToPixel(p vec.Vec2, win Window) (px, py float64) {
	return p.X + win.W/2, win.H/2 - p.Y
}

// ScreenToDomain maps screen point p to the complex plane.
func ScreenToDomain(r mandel.Region, win Window, p vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: toDomain(r.X(), win.W, p.X),
		Y: toDomain(r.Y(), win.H, p.Y),
	}
}

// DomainToScreen maps a point of the complex plane to screen space.
func DomainToScreen(r mandel.Region, win Window, q vec.Vec2) vec.Vec2 {
	return vec.Vec2{
		X: toScreen(r.X(), win.W, q.X),
		Y: toScreen(r.Y(), win.H, q.Y),
	}
}

func toDomain(iv mandel.Interval, size, p float64) float64 {
	return iv.Start + (p+size/2)/size*iv.Span()
}

func toScreen(iv mandel.Interval, size, q float64) float64 {
	return (q-iv.Start)/iv.Span()*size - size/2
}

// Pan moves the region so that the content follows a drag of delta screen
// units. Dragging right moves the window left in the plane.
func Pan(r mandel.Region, win Window, delta vec.Vec2) mandel.Region {
	dx := delta.X / win.W * r.X().Span()
	dy := delta.Y / win.H * r.Y().Span()
	return mandel.Region{
		Xmin: r.Xmin - dx, Xmax: r.Xmax - dx,
		Ymin: r.Ymin - dy, Ymax: r.Ymax - dy,
	}
}

// ZoomAtCursor zooms by step*scroll (positive zooms in) keeping the plane
// point under cursor fixed on screen. The fraction is clamped to
// ±MaxZoomFraction and a zero scroll leaves r unchanged.
func ZoomAtCursor(r mandel.Region, win Window, scroll float64, cursor vec.Vec2, step float64) mandel.Region {
	if scroll == 0 || step == 0 {
		return r
	}
	f := clamp(step*scroll, -MaxZoomFraction, MaxZoomFraction)
	tx := clamp((cursor.X+win.W/2)/win.W, 0, 1)
	ty := clamp((cursor.Y+win.H/2)/win.H, 0, 1)
	return mandel.RegionOf(
		contract(r.X(), f, tx),
		contract(r.Y(), f, ty),
	)
}

// contract removes f*span from the interval, t of it from the start and the
// rest from the end. The point at fraction t stays where it is.
func contract(iv mandel.Interval, f, t float64) mandel.Interval {
	s := iv.Span()
	return mandel.Interval{
		Start: iv.Start + f*s*t,
		End:   iv.End - f*s*(1-t),
	}
}

// ZoomKeyboard contracts both ends of each axis by f*span about the centre.
// Negative f zooms out.
func ZoomKeyboard(r mandel.Region, f float64) mandel.Region {
	f = clamp(f, -MaxKeyZoomFraction, MaxKeyZoomFraction)
	return mandel.RegionOf(
		contract(r.X(), 2*f, 0.5),
		contract(r.Y(), 2*f, 0.5),
	)
}

// ZoomToRectangle zooms to the rectangle spanned by screen points a and b.
// Rectangles narrower than minDrag on either axis are rejected and r is
// returned unchanged with ok == false.
func ZoomToRectangle(r mandel.Region, win Window, a, b vec.Vec2, minDrag float64) (_ mandel.Region, ok bool) {
	if math.Abs(a.X-b.X) < minDrag || math.Abs(a.Y-b.Y) < minDrag {
		return r, false
	}
	da := ScreenToDomain(r, win, a)
	db := ScreenToDomain(r, win, b)
	out := mandel.Region{
		Xmin: min(da.X, db.X), Xmax: max(da.X, db.X),
		Ymin: min(da.Y, db.Y), Ymax: max(da.Y, db.Y),
	}
	if !Valid(out) {
		return r, false
	}
	return out, true
}

// PanKeyboard shifts the region by fx and fy of its span. Positive values
// move the camera right and up.
func PanKeyboard(r mandel.Region, fx, fy float64) mandel.Region {
	dx := fx * r.X().Span()
	dy := fy * r.Y().Span()
	return mandel.Region{
		Xmin: r.Xmin + dx, Xmax: r.Xmax + dx,
		Ymin: r.Ymin + dy, Ymax: r.Ymax + dy,
	}
}

// Reset returns d with its region replaced by def.
func Reset(d mandel.Domain, def mandel.Region) mandel.Domain {
	d.Region = def
	return d
}

// Valid reports whether both axes are finite and strictly increasing.
func Valid(r mandel.Region) bool {
	ok := func(iv mandel.Interval) bool {
		return !math.IsNaN(iv.Start) && !math.IsInf(iv.Start, 0) &&
			!math.IsNaN(iv.End) && !math.IsInf(iv.End, 0) &&
			iv.Start < iv.End
	}
	return ok(r.X()) && ok(r.Y())
}

// smallest normal float64
const minNormal = 0x1p-1022

// Precision returns the number of decimals needed to tell the region's bounds
// apart on screen.
func Precision(r mandel.Region) int {
	d := min(r.X().Span(), r.Y().Span())
	if !(d > minNormal) {
		return 20
	}
	return max(0, 2-int(math.Log10(d)))
}

const (
	maxIterCeiling = 20000
	maxIterFloor   = 32
)

// MoreIterations doubles n while it is below 20000.
func MoreIterations(n int) int {
	if n < maxIterCeiling {
		return n * 2
	}
	return n
}

// FewerIterations halves n while it is above 32.
func FewerIterations(n int) int {
	if n > maxIterFloor {
		return n / 2
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return max(lo, min(hi, v))
}
