package engine

import (
	"errors"
	"math"
	"testing"

	mandel "github.com/marben/mandelview"
)

func TestDiscretize(t *testing.T) {
	samples, err := Discretize(mandel.Interval{Start: -2.5, End: 1.0}, 8)
	if err != nil {
		t.Fatalf("Discretize: %v", err)
	}
	if len(samples) != 8 {
		t.Fatalf("len = %d, want 8", len(samples))
	}
	if samples[0] != -2.5 {
		t.Errorf("sample 0 = %v, want -2.5", samples[0])
	}
	if samples[7] != 1.0 {
		t.Errorf("sample 7 = %v, want 1.0", samples[7])
	}

	step := 3.5 / 7
	for i := 1; i < len(samples); i++ {
		if d := samples[i] - samples[i-1]; math.Abs(d-step) > 1e-12 {
			t.Errorf("spacing %d = %v, want %v", i, d, step)
		}
	}
}

func TestDiscretizeLastSampleIsExact(t *testing.T) {
	iv := mandel.Interval{Start: 0.1, End: 0.7}
	for n := 2; n < 200; n++ {
		samples, err := Discretize(iv, n)
		if err != nil {
			t.Fatalf("Discretize(%d): %v", n, err)
		}
		if samples[0] != iv.Start || samples[n-1] != iv.End {
			t.Fatalf("n=%d: endpoints %v..%v, want %v..%v", n, samples[0], samples[n-1], iv.Start, iv.End)
		}
		for i := 1; i < n; i++ {
			if samples[i] <= samples[i-1] {
				t.Fatalf("n=%d: samples not increasing at %d", n, i)
			}
		}
	}
}

func TestDiscretizeDegenerate(t *testing.T) {
	for _, n := range []int{-1, 0, 1} {
		if _, err := Discretize(mandel.Interval{Start: 0, End: 1}, n); !errors.Is(err, mandel.ErrDegenerateAxis) {
			t.Errorf("Discretize(n=%d) error = %v, want ErrDegenerateAxis", n, err)
		}
	}
}

func TestEscape(t *testing.T) {
	tests := []struct {
		name    string
		cr, ci  float64
		maxIter int
		want    int
	}{
		{"origin never escapes", 0, 0, 100, 100},
		{"cardioid interior", -0.5, 0, 50, 50},
		{"period two bulb", -1, 0, 80, 80},
		{"far point escapes on first step", 3, 0, 100, 1},
		{"c=1 escapes on third step", 1, 0, 100, 3},
		{"c=i stays bounded", 0, 1, 64, 64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Escape(tt.cr, tt.ci, 4.0, tt.maxIter); got != tt.want {
				t.Errorf("Escape(%v, %v) = %d, want %d", tt.cr, tt.ci, got, tt.want)
			}
		})
	}
}

func TestEscapeRange(t *testing.T) {
	const maxIter = 64
	xs, _ := Discretize(mandel.Interval{Start: -3, End: 3}, 41)
	ys, _ := Discretize(mandel.Interval{Start: -3, End: 3}, 41)
	for _, y := range ys {
		for _, x := range xs {
			if n := Escape(x, y, 4.0, maxIter); n < 0 || n > maxIter {
				t.Fatalf("Escape(%v, %v) = %d outside [0, %d]", x, y, n, maxIter)
			}
		}
	}
	if n := Escape(0, 0, 0, 10); n != 10 {
		t.Errorf("origin with zero threshold = %d, want 10", n)
	}
}
