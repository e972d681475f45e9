package view

import (
	"seehuhn.de/go/geom/vec"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/palette"
)

// Settings tune the interactive transforms.
type Settings struct {
	// Default is the region restored by ActionReset.
	Default mandel.Region
	// MinDrag is the smallest accepted selection side in screen units.
	MinDrag float64
	// ZoomStep is the zoom fraction per scroll unit.
	ZoomStep float64
	// KeyZoom is the fraction each end moves on a keyboard zoom.
	KeyZoom float64
	// KeyPan is the fraction of the span moved by an arrow key.
	KeyPan float64
}

// DefaultSettings returns the settings used when nothing is configured.
func DefaultSettings() Settings {
	return Settings{
		Default:  mandel.DefaultRegion,
		MinDrag:  DefaultMinDrag,
		ZoomStep: 0.1,
		KeyZoom:  0.25,
		KeyPan:   0.25,
	}
}

// GestureKind says what a pointer drag does when released.
type GestureKind int

const (
	GesturePan GestureKind = iota
	GestureSelect
)

func (k GestureKind) String() string {
	if k == GestureSelect {
		return "select"
	}
	return "pan"
}

// Gesture is a pointer drag in progress, in screen space.
type Gesture struct {
	Kind       GestureKind
	Start, End vec.Vec2
	Active     bool
}

// Delta returns the drag vector so far.
func (g Gesture) Delta() vec.Vec2 { return g.End.Sub(g.Start) }

// State is everything a front end needs to draw a view. It is a value; Reduce
// returns modified copies.
type State struct {
	Domain    mandel.Domain
	Window    Window
	Gesture   Gesture
	Cursor    vec.Vec2
	Precision int
	Scheme    palette.Cycle
	Settings  Settings
}

// NewState starts a view on d with a window matching its resolution.
func NewState(d mandel.Domain, s Settings) State {
	return State{
		Domain:    d,
		Window:    WindowOf(d.Resolution),
		Precision: Precision(d.Region),
		Settings:  s,
	}
}

// CursorDomain returns the plane coordinates under the pointer.
func (s State) CursorDomain() vec.Vec2 {
	return ScreenToDomain(s.Domain.Region, s.Window, s.Cursor)
}

// Event is an input to Reduce.
type Event interface {
	isEvent()
}

// Resize reports a new window size in pixels.
type Resize struct{ W, H int }

// PointerDown starts a drag at At.
type PointerDown struct {
	At   vec.Vec2
	Kind GestureKind
}

// PointerMove moves the pointer, extending any active drag.
type PointerMove struct{ At vec.Vec2 }

// PointerUp finishes a drag at At.
type PointerUp struct{ At vec.Vec2 }

// Scroll zooms at At. Positive Delta zooms in.
type Scroll struct {
	Delta float64
	At    vec.Vec2
}

// KeyAction is a keyboard command.
type KeyAction struct{ Action Action }

func (Resize) isEvent()      {}
func (PointerDown) isEvent() {}
func (PointerMove) isEvent() {}
func (PointerUp) isEvent()   {}
func (Scroll) isEvent()      {}
func (KeyAction) isEvent()   {}

// Action names a keyboard command.
type Action int

const (
	ActionNone Action = iota
	ActionPanUp
	ActionPanDown
	ActionPanLeft
	ActionPanRight
	ActionZoomIn
	ActionZoomOut
	ActionMoreIterations
	ActionFewerIterations
	ActionNextScheme
	ActionReset
)

var actionNames = map[Action]string{
	ActionNone:            "none",
	ActionPanUp:           "pan-up",
	ActionPanDown:         "pan-down",
	ActionPanLeft:         "pan-left",
	ActionPanRight:        "pan-right",
	ActionZoomIn:          "zoom-in",
	ActionZoomOut:         "zoom-out",
	ActionMoreIterations:  "more-iterations",
	ActionFewerIterations: "fewer-iterations",
	ActionNextScheme:      "next-scheme",
	ActionReset:           "reset",
}

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return "unknown"
}

// ParseAction is the inverse of Action.String.
func ParseAction(s string) (Action, bool) {
	for a, n := range actionNames {
		if n == s {
			return a, true
		}
	}
	return ActionNone, false
}

// Reduce applies e to s. The boolean reports whether the domain changed and
// the matrix has to be evaluated again.
func Reduce(s State, e Event) (State, bool) {
	switch e := e.(type) {
	case Resize:
		w, h := max(2, e.W), max(2, e.H)
		if w == s.Domain.Resolution.X && h == s.Domain.Resolution.Y {
			return s, false
		}
		s.Domain.Resolution = mandel.Resolution{X: w, Y: h}
		s.Window = WindowOf(s.Domain.Resolution)
		return s, true

	case PointerDown:
		s.Cursor = e.At
		s.Gesture = Gesture{Kind: e.Kind, Start: e.At, End: e.At, Active: true}
		return s, false

	case PointerMove:
		s.Cursor = e.At
		if s.Gesture.Active {
			s.Gesture.End = e.At
		}
		return s, false

	case PointerUp:
		s.Cursor = e.At
		g := s.Gesture
		s.Gesture = Gesture{}
		if !g.Active {
			return s, false
		}
		g.End = e.At
		switch g.Kind {
		case GestureSelect:
			r, ok := ZoomToRectangle(s.Domain.Region, s.Window, g.Start, g.End, s.Settings.MinDrag)
			if !ok {
				return s, false
			}
			return s.withRegion(r)
		default:
			d := g.Delta()
			if d.X == 0 && d.Y == 0 {
				return s, false
			}
			return s.withRegion(Pan(s.Domain.Region, s.Window, d))
		}

	case Scroll:
		s.Cursor = e.At
		return s.withRegion(ZoomAtCursor(s.Domain.Region, s.Window, e.Delta, e.At, s.Settings.ZoomStep))

	case KeyAction:
		return s.apply(e.Action)
	}
	return s, false
}

func (s State) apply(a Action) (State, bool) {
	r := s.Domain.Region
	f := s.Settings.KeyPan
	switch a {
	case ActionPanUp:
		return s.withRegion(PanKeyboard(r, 0, f))
	case ActionPanDown:
		return s.withRegion(PanKeyboard(r, 0, -f))
	case ActionPanRight:
		return s.withRegion(PanKeyboard(r, f, 0))
	case ActionPanLeft:
		return s.withRegion(PanKeyboard(r, -f, 0))
	case ActionZoomIn:
		return s.withRegion(ZoomKeyboard(r, s.Settings.KeyZoom))
	case ActionZoomOut:
		return s.withRegion(ZoomKeyboard(r, -s.Settings.KeyZoom))
	case ActionMoreIterations:
		return s.withMaxIter(MoreIterations(s.Domain.MaxIter))
	case ActionFewerIterations:
		return s.withMaxIter(FewerIterations(s.Domain.MaxIter))
	case ActionNextScheme:
		// recolouring reuses the current matrix
		s.Scheme = s.Scheme.Next()
		return s, false
	case ActionReset:
		return s.withRegion(Reset(s.Domain, s.Settings.Default).Region)
	}
	return s, false
}

// withRegion installs r if it is usable and differs from the current region.
func (s State) withRegion(r mandel.Region) (State, bool) {
	if !Valid(r) || r == s.Domain.Region {
		return s, false
	}
	s.Domain.Region = r
	s.Precision = Precision(r)
	return s, true
}

func (s State) withMaxIter(n int) (State, bool) {
	if n == s.Domain.MaxIter {
		return s, false
	}
	s.Domain.MaxIter = n
	return s, true
}
