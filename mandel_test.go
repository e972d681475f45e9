package mandel

import (
	"errors"
	"math"
	"testing"
)

func validDomain() Domain {
	return Domain{
		Region:     DefaultRegion,
		Resolution: Resolution{X: 64, Y: 64},
		Threshold:  4.0,
		MaxIter:    100,
	}
}

func TestDomainValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *Domain)
		field  string
	}{
		{"valid", func(d *Domain) {}, ""},
		{"resolution x of one", func(d *Domain) { d.Resolution.X = 1 }, "resolution.x"},
		{"resolution y of zero", func(d *Domain) { d.Resolution.Y = 0 }, "resolution.y"},
		{"inverted x", func(d *Domain) { d.Region.Xmin, d.Region.Xmax = 1, -2.5 }, "x_interval"},
		{"degenerate y", func(d *Domain) { d.Region.Ymax = d.Region.Ymin }, "y_interval"},
		{"nan bound", func(d *Domain) { d.Region.Xmin = math.NaN() }, "x_interval"},
		{"infinite bound", func(d *Domain) { d.Region.Ymax = math.Inf(1) }, "y_interval"},
		{"zero threshold", func(d *Domain) { d.Threshold = 0 }, "escape_threshold"},
		{"negative threshold", func(d *Domain) { d.Threshold = -4 }, "escape_threshold"},
		{"zero iterations", func(d *Domain) { d.MaxIter = 0 }, "max_iterations"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDomain()
			tt.mutate(&d)
			err := d.Validate()

			if tt.field == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, ErrConfiguration) {
				t.Fatalf("Validate() = %v, want ErrConfiguration", err)
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Validate() error is %T, want *ConfigError", err)
			}
			if !cfgErr.HasField(tt.field) {
				t.Errorf("ConfigError fields = %v, want %q among them", cfgErr.Fields, tt.field)
			}
		})
	}
}

func TestDomainValidateReportsAllFields(t *testing.T) {
	d := Domain{Region: Region{Xmin: 1, Xmax: 0, Ymin: 1, Ymax: 0}}
	var cfgErr *ConfigError
	if !errors.As(d.Validate(), &cfgErr) {
		t.Fatal("expected *ConfigError")
	}
	if len(cfgErr.Fields) != 6 {
		t.Errorf("got %d field errors, want 6: %v", len(cfgErr.Fields), cfgErr)
	}
}

func TestFingerprint(t *testing.T) {
	a := validDomain()
	b := validDomain()
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("equal domains must share a fingerprint")
	}
	b.Region.Xmin = math.Nextafter(b.Region.Xmin, 0)
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("domains one ulp apart must not share a fingerprint")
	}
	c := validDomain()
	c.MaxIter++
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("iteration cap must be part of the fingerprint")
	}
}

func TestNewMatrix(t *testing.T) {
	t.Run("accepts rectangular rows", func(t *testing.T) {
		m, err := NewMatrix([][]int{{0, 1, 2}, {3, 4, 5}}, 5)
		if err != nil {
			t.Fatalf("NewMatrix: %v", err)
		}
		if m.Width() != 3 || m.Height() != 2 {
			t.Errorf("shape = %dx%d, want 3x2", m.Width(), m.Height())
		}
		if m.At(2, 1) != 5 {
			t.Errorf("At(2,1) = %d, want 5", m.At(2, 1))
		}
	})

	t.Run("rejects short rows", func(t *testing.T) {
		if _, err := NewMatrix([][]int{{0, 1, 2}, {3, 4}}, 5); err == nil {
			t.Error("expected error for short row")
		}
	})

	t.Run("rejects counts above the cap", func(t *testing.T) {
		if _, err := NewMatrix([][]int{{0, 6}}, 5); err == nil {
			t.Error("expected error for count above cap")
		}
	})

	t.Run("row is a copy", func(t *testing.T) {
		m, _ := NewMatrix([][]int{{1, 2}}, 5)
		r := m.Row(0)
		r[0] = 4
		if m.At(0, 0) != 1 {
			t.Error("mutating Row result changed the matrix")
		}
	})
}

func TestMatrixEqual(t *testing.T) {
	a, _ := NewMatrix([][]int{{1, 2}, {3, 4}}, 4)
	b, _ := NewMatrix([][]int{{1, 2}, {3, 4}}, 4)
	c, _ := NewMatrix([][]int{{1, 2}, {3, 3}}, 4)
	if !a.Equal(b) {
		t.Error("identical matrices should be equal")
	}
	if a.Equal(c) {
		t.Error("different matrices should not be equal")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := map[string]string{
		"Seahorse Valley":   "seahorse-valley",
		" triple_spiral ":   "triple-spiral",
		"valley-of--dragon": "valley-of-dragon",
	}
	for in, want := range tests {
		if got := NormalizeName(in); got != want {
			t.Errorf("NormalizeName(%q) = %q, want %q", in, got, want)
		}
	}
	for _, n := range LandmarkNames() {
		if NormalizeName(n) != n {
			t.Errorf("landmark %q is not in normalised form", n)
		}
		if err := NewDomain(Landmarks[n], Resolution{X: 2, Y: 2}).Validate(); err != nil {
			t.Errorf("landmark %q invalid: %v", n, err)
		}
	}
}
