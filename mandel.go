package mandel

import (
	"fmt"
	"math"
)

// Interval is a closed range [Start, End] on one axis of the complex plane.
type Interval struct {
	Start, End float64
}

// Span returns End - Start.
func (iv Interval) Span() float64 { return iv.End - iv.Start }

// Mid returns the midpoint of the interval.
func (iv Interval) Mid() float64 { return iv.Start + iv.Span()/2 }

// Region within the Mandelbrot set
type Region struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
}

// X returns the real axis of r.
func (r Region) X() Interval { return Interval{Start: r.Xmin, End: r.Xmax} }

// Y returns the imaginary axis of r.
func (r Region) Y() Interval { return Interval{Start: r.Ymin, End: r.Ymax} }

// RegionOf builds a Region from its two axes.
func RegionOf(x, y Interval) Region {
	return Region{Xmin: x.Start, Xmax: x.End, Ymin: y.Start, Ymax: y.End}
}

func (r Region) String() string {
	return fmt.Sprintf("x[%g, %g] y[%g, %g]", r.Xmin, r.Xmax, r.Ymin, r.Ymax)
}

// Resolution is the pixel size of an evaluation.
type Resolution struct {
	X, Y int
}

// Domain describes one evaluation: where to sample, how densely, and when to
// stop iterating. A Domain is a value; transforms return modified copies.
type Domain struct {
	Region     Region
	Resolution Resolution
	// Threshold is the squared escape radius.
	Threshold float64
	MaxIter   int
}

const (
	DefaultThreshold = 4.0
	DefaultMaxIter   = 128
)

// DefaultResolution is the render size used when nothing else is configured.
var DefaultResolution = Resolution{X: 1920, Y: 1080}

// NewDomain returns a Domain over r with the default threshold and iteration cap.
func NewDomain(r Region, res Resolution) Domain {
	return Domain{
		Region:     r,
		Resolution: res,
		Threshold:  DefaultThreshold,
		MaxIter:    DefaultMaxIter,
	}
}

// Validate reports every problem with d. The returned error, if any, is a
// *ConfigError and matches ErrConfiguration.
func (d Domain) Validate() error {
	var errs []FieldError
	check := func(field string, iv Interval) {
		switch {
		case !finite(iv.Start) || !finite(iv.End):
			errs = append(errs, FieldError{Field: field, Value: iv, Message: "bounds must be finite"})
		case iv.Start >= iv.End:
			errs = append(errs, FieldError{Field: field, Value: iv, Message: "start must be less than end"})
		}
	}
	check("x_interval", d.Region.X())
	check("y_interval", d.Region.Y())

	if d.Resolution.X < 2 {
		errs = append(errs, FieldError{Field: "resolution.x", Value: d.Resolution.X, Message: ErrDegenerateAxis.Error()})
	}
	if d.Resolution.Y < 2 {
		errs = append(errs, FieldError{Field: "resolution.y", Value: d.Resolution.Y, Message: ErrDegenerateAxis.Error()})
	}
	if !(d.Threshold > 0) || math.IsInf(d.Threshold, 0) {
		errs = append(errs, FieldError{Field: "escape_threshold", Value: d.Threshold, Message: "must be a positive finite number"})
	}
	if d.MaxIter <= 0 {
		errs = append(errs, FieldError{Field: "max_iterations", Value: d.MaxIter, Message: "must be positive"})
	}

	if len(errs) > 0 {
		return &ConfigError{Fields: errs}
	}
	return nil
}

// Fingerprint returns a key that is equal for two domains exactly when every
// field is bit-identical.
func (d Domain) Fingerprint() string {
	return fmt.Sprintf("%016x%016x%016x%016x-%dx%d-%016x-%d",
		math.Float64bits(d.Region.Xmin), math.Float64bits(d.Region.Xmax),
		math.Float64bits(d.Region.Ymin), math.Float64bits(d.Region.Ymax),
		d.Resolution.X, d.Resolution.Y,
		math.Float64bits(d.Threshold), d.MaxIter)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
