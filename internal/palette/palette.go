// Package palette maps iteration counts to colours and paints matrices.
package palette

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"slices"
	"strings"

	"github.com/lucasb-eyer/go-colorful"

	mandel "github.com/marben/mandelview"
)

// Scheme is a named colour function.
type Scheme struct {
	Name  string
	Color mandel.ColorFunc
}

// schemes is the registry in cycling order.
var schemes = []Scheme{
	{"bluey", bluey},
	{"greeny", greeny},
	{"purply", purply},
	{"weirdy", weirdy},
	{"greyey-dark", greyeyDark},
	{"greyey-light", greyeyLight},
	{"hulky", hulky},
	{"wiky", wiky},
	{"spectrum", spectrum},
}

// Names returns the registered scheme names in cycling order.
func Names() []string {
	names := make([]string, len(schemes))
	for i, s := range schemes {
		names[i] = s.Name
	}
	return names
}

// Lookup finds a scheme by name, ignoring case.
func Lookup(name string) (Scheme, bool) {
	i := index(name)
	if i < 0 {
		return Scheme{}, false
	}
	return schemes[i], true
}

func index(name string) int {
	name = strings.ToLower(strings.TrimSpace(name))
	return slices.IndexFunc(schemes, func(s Scheme) bool { return s.Name == name })
}

// Cycle is a position in the scheme registry. The zero value is the first
// scheme.
type Cycle struct {
	i int
}

// CycleAt returns a Cycle positioned on name.
func CycleAt(name string) (Cycle, error) {
	i := index(name)
	if i < 0 {
		return Cycle{}, fmt.Errorf("unknown colour scheme %q (want one of %s)", name, strings.Join(Names(), ", "))
	}
	return Cycle{i: i}, nil
}

// Current returns the selected scheme.
func (c Cycle) Current() Scheme { return schemes[c.i%len(schemes)] }

// Next returns the following position, wrapping after the last scheme.
func (c Cycle) Next() Cycle { return Cycle{i: (c.i + 1) % len(schemes)} }

// Paint renders m with f. Row 0 of the matrix (Ymin) becomes the bottom row
// of the image so that +y points up.
func Paint(m *mandel.Matrix, f mandel.ColorFunc) *image.RGBA {
	w, h := m.Width(), m.Height()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	maxIter := m.MaxIter()
	for y := 0; y < h; y++ {
		py := h - 1 - y
		for x := 0; x < w; x++ {
			r, g, b := f(m.At(x, y), maxIter)
			img.SetRGBA(x, py, color.RGBA{R: r, G: g, B: b, A: 255})
		}
	}
	return img
}

// channel truncates v to a colour channel, saturating at both ends.
func channel(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	default:
		return uint8(v)
	}
}

func ratio(c, maxIter int) float64 {
	if maxIter <= 0 {
		return 0
	}
	return float64(c) / float64(maxIter)
}

// soft rises quickly for low counts and flattens towards 255.
func soft(c int) uint8 {
	f := float64(c)
	return channel(255 * f / (f + 8))
}

func bluey(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	return channel(255 * ratio(c, maxIter)), soft(c), 255
}

func greeny(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	return channel(255 * ratio(c, maxIter)), 255, soft(c)
}

func purply(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	q := channel(255 * ratio(c, maxIter))
	return q, q, soft(c)
}

func weirdy(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	q := ratio(c, maxIter)
	return channel(math.Abs(255*(2*q) - 1)), channel(255 * q), soft(c)
}

func greyeyDark(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	v := channel(255 * ratio(c, maxIter))
	return v, v, v
}

func greyeyLight(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 255, 255, 255
	}
	v := channel(255 * math.Abs(2*ratio(c, maxIter)-1))
	return v, v, v
}

func hulky(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	q := ratio(c, maxIter)
	if q > 0.5 {
		v := channel(255 * q)
		return v, 255, v
	}
	return 0, channel(255 * q), 0
}

func wiky(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	switch q := ratio(c, maxIter); {
	case q < 0.16:
		return 0, 7, 100
	case q < 0.42:
		return 32, 107, 203
	case q < 0.64:
		return 237, 255, 255
	case q < 0.86:
		return 255, 170, 0
	default:
		return 0, 2, 0
	}
}

// spectrum walks the hue wheel once between zero and maxIter.
func spectrum(c, maxIter int) (r, g, b uint8) {
	if c >= maxIter {
		return 0, 0, 0
	}
	hue := math.Mod(360*ratio(c, maxIter), 360)
	return colorful.Hsv(hue, 1, 1).RGB255()
}
