// Package landmarks resolves named regions: the built-in set plus any read
// from a YAML catalogue file.
package landmarks

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	mandel "github.com/marben/mandelview"
)

// ErrUnknown is returned by Lookup for names that are not in the catalogue.
var ErrUnknown = errors.New("unknown landmark")

// Entry is one named region as stored in a catalogue file.
type Entry struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Xmin        float64 `yaml:"x_min"`
	Xmax        float64 `yaml:"x_max"`
	Ymin        float64 `yaml:"y_min"`
	Ymax        float64 `yaml:"y_max"`
}

func (e Entry) Region() mandel.Region {
	return mandel.Region{Xmin: e.Xmin, Xmax: e.Xmax, Ymin: e.Ymin, Ymax: e.Ymax}
}

type file struct {
	Landmarks []Entry `yaml:"landmarks"`
}

// Catalog maps normalised names to regions.
type Catalog map[string]mandel.Region

// Builtin returns a fresh copy of the built-in landmarks.
func Builtin() Catalog {
	c := make(Catalog, len(mandel.Landmarks))
	for name, r := range mandel.Landmarks {
		c[name] = r
	}
	return c
}

// Load returns the built-in landmarks overlaid with the entries of the YAML
// file at path. An empty path yields just the built-ins.
func Load(path string) (Catalog, error) {
	c := Builtin()
	if path == "" {
		return c, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open landmarks: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := c.Merge(f); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Merge decodes a catalogue from r and adds its entries to c, replacing
// entries with the same name.
func (c Catalog) Merge(r io.Reader) error {
	var doc file
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode landmarks: %w", err)
	}
	for i, e := range doc.Landmarks {
		name := mandel.NormalizeName(e.Name)
		if name == "" {
			return fmt.Errorf("landmark %d: missing name", i)
		}
		if err := mandel.NewDomain(e.Region(), mandel.Resolution{X: 2, Y: 2}).Validate(); err != nil {
			return fmt.Errorf("landmark %q: %w", e.Name, err)
		}
		c[name] = e.Region()
	}
	return nil
}

// Lookup finds name, ignoring case and separators.
func (c Catalog) Lookup(name string) (mandel.Region, error) {
	r, ok := c[mandel.NormalizeName(name)]
	if !ok {
		return mandel.Region{}, fmt.Errorf("%w: %q", ErrUnknown, name)
	}
	return r, nil
}

// Names returns the catalogue's names in sorted order.
func (c Catalog) Names() []string {
	names := make([]string, 0, len(c))
	for name := range c {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Write encodes c as a catalogue file.
func (c Catalog) Write(w io.Writer) error {
	doc := file{Landmarks: make([]Entry, 0, len(c))}
	for _, name := range c.Names() {
		r := c[name]
		doc.Landmarks = append(doc.Landmarks, Entry{
			Name: name,
			Xmin: r.Xmin, Xmax: r.Xmax,
			Ymin: r.Ymin, Ymax: r.Ymax,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode landmarks: %w", err)
	}
	return enc.Close()
}
