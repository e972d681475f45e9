package engine

import (
	"fmt"

	mandel "github.com/marben/mandelview"
)

// Discretize returns n evenly spaced samples covering iv. The first sample is
// iv.Start and the last is iv.End.
func Discretize(iv mandel.Interval, n int) ([]float64, error) {
	if n < 2 {
		return nil, fmt.Errorf("discretize %d samples: %w", n, mandel.ErrDegenerateAxis)
	}

	step := iv.Span() / float64(n-1)
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = iv.Start + float64(i)*step
	}
	samples[n-1] = iv.End
	return samples, nil
}

// Escape iterates z = z*z + c from z = 0 and returns the number of steps
// taken before |z|^2 exceeds threshold, or maxIter if it never does.
func Escape(cr, ci, threshold float64, maxIter int) int {
	var x, y float64
	n := 0
	for x*x+y*y <= threshold && n < maxIter {
		x, y = x*x-y*y+cr, 2*x*y+ci
		n++
	}
	return n
}
