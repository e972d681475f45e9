package server

import (
	"fmt"

	"seehuhn.de/go/geom/vec"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/view"
)

// Input message types sent by clients over /ws.
const (
	MsgResize = "resize"
	MsgDown   = "down"
	MsgMove   = "move"
	MsgUp     = "up"
	MsgScroll = "scroll"
	MsgKey    = "key"
	// MsgFrame asks for a frame of the current view even if nothing changed.
	MsgFrame = "frame"
)

// Input is one client event. Pointer coordinates are pixels with the origin
// in the top left corner of the client's canvas.
type Input struct {
	Type   string  `json:"type"`
	X      float64 `json:"x,omitempty"`
	Y      float64 `json:"y,omitempty"`
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	// Select starts a rectangle selection instead of a pan on "down".
	Select bool    `json:"select,omitempty"`
	Delta  float64 `json:"delta,omitempty"`
	Action string  `json:"action,omitempty"`
}

// Status describes the frame that follows it as a binary PNG message. When
// Error is set no frame follows.
type Status struct {
	// Seq counts the inputs the session had read when this view was current.
	Seq       uint64        `json:"seq"`
	Region    mandel.Region `json:"region"`
	Width     int           `json:"width"`
	Height    int           `json:"height"`
	MaxIter   int           `json:"max_iter"`
	Precision int           `json:"precision"`
	Scheme    string        `json:"scheme"`
	Caption   []string      `json:"caption"`
	ElapsedMs int64         `json:"elapsed_ms"`
	Error     string        `json:"error,omitempty"`
}

func statusOf(s view.State, seq uint64) Status {
	return Status{
		Seq:       seq,
		Region:    s.Domain.Region,
		Width:     s.Domain.Resolution.X,
		Height:    s.Domain.Resolution.Y,
		MaxIter:   s.Domain.MaxIter,
		Precision: s.Precision,
		Scheme:    s.Scheme.Current().Name,
		Caption:   export.Caption(s.Domain, s.Precision),
	}
}

// checkPixels rejects a w x h image that is empty or larger than maxPixels.
// Zero maxPixels disables the upper bound. The product is never formed, so
// huge sides cannot wrap around the limit.
func checkPixels(w, h, maxPixels int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%dx%d is not a positive size", w, h)
	}
	if maxPixels > 0 && w > maxPixels/h {
		return fmt.Errorf("%dx%d exceeds %d pixels", w, h, maxPixels)
	}
	return nil
}

// event converts in to a view event against the current window. maxPixels
// bounds resize requests; zero disables the bound. MsgFrame yields no event.
func (in Input) event(win view.Window, maxPixels int) (view.Event, error) {
	at := func() vec.Vec2 { return view.FromPixel(in.X, in.Y, win) }

	switch in.Type {
	case MsgResize:
		if err := checkPixels(in.Width, in.Height, maxPixels); err != nil {
			return nil, fmt.Errorf("resize: %w", err)
		}
		return view.Resize{W: in.Width, H: in.Height}, nil
	case MsgDown:
		kind := view.GesturePan
		if in.Select {
			kind = view.GestureSelect
		}
		return view.PointerDown{At: at(), Kind: kind}, nil
	case MsgMove:
		return view.PointerMove{At: at()}, nil
	case MsgUp:
		return view.PointerUp{At: at()}, nil
	case MsgScroll:
		return view.Scroll{Delta: in.Delta, At: at()}, nil
	case MsgKey:
		a, ok := view.ParseAction(in.Action)
		if !ok {
			return nil, fmt.Errorf("unknown action %q", in.Action)
		}
		return view.KeyAction{Action: a}, nil
	case MsgFrame:
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown message type %q", in.Type)
	}
}
