// Package zoom renders a sequence of frames that glide from one region to
// another, decelerating geometrically as they approach the target.
package zoom

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/export"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
)

// DefaultRatio is the step ratio between consecutive frames.
const DefaultRatio = 0.9

// Sequence returns frames regions moving every bound of start towards
// target. Step f moves each bound by d*ratio^f, with d chosen so that the
// last frame lands exactly on target.
func Sequence(start, target mandel.Region, frames int, ratio float64) ([]mandel.Region, error) {
	if frames < 2 {
		return nil, fmt.Errorf("zoom sequence needs at least 2 frames, got %d", frames)
	}
	if !(ratio > 0 && ratio < 1) {
		return nil, fmt.Errorf("zoom ratio must be in (0, 1), got %v", ratio)
	}

	// fraction of the total distance covered after f steps
	total := 1 - math.Pow(ratio, float64(frames-1))
	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }

	out := make([]mandel.Region, frames)
	for f := range out {
		t := (1 - math.Pow(ratio, float64(f))) / total
		out[f] = mandel.Region{
			Xmin: lerp(start.Xmin, target.Xmin, t),
			Xmax: lerp(start.Xmax, target.Xmax, t),
			Ymin: lerp(start.Ymin, target.Ymin, t),
			Ymax: lerp(start.Ymax, target.Ymax, t),
		}
	}
	out[0] = start
	out[frames-1] = target
	return out, nil
}

// FrameName is the file name of frame i.
func FrameName(i int) string {
	return fmt.Sprintf("fractal_%04d.png", i)
}

// Stats summarises a Render call.
type Stats struct {
	Rendered int
	Skipped  int
	Elapsed  time.Duration
}

// Renderer evaluates and writes frames.
type Renderer struct {
	eval     mandel.Evaluator
	color    mandel.ColorFunc
	base     mandel.Domain
	dir      string
	parallel int
	logger   *logging.Logger
}

type Option func(*Renderer)

// WithColor selects the colour function (default: the first palette scheme).
func WithColor(f mandel.ColorFunc) Option {
	return func(r *Renderer) { r.color = f }
}

// WithParallel sets how many frames are rendered at once.
func WithParallel(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.parallel = n
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) { r.logger = l }
}

// NewRenderer renders frames into dir. base supplies the resolution,
// threshold and iteration cap; its region is replaced per frame.
func NewRenderer(eval mandel.Evaluator, base mandel.Domain, dir string, opts ...Option) *Renderer {
	r := &Renderer{
		eval:     eval,
		color:    palette.Cycle{}.Current().Color,
		base:     base,
		dir:      dir,
		parallel: 2,
		logger:   logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes one image per region. Frames whose file already exists are
// skipped so an interrupted run can be resumed. The first failure cancels
// the frames not yet started.
func (r *Renderer) Render(ctx context.Context, regions []mandel.Region) (Stats, error) {
	start := time.Now()
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return Stats{}, fmt.Errorf("create frame directory: %w", err)
	}

	var rendered, skipped atomic.Int64
	p := pool.New().
		WithContext(ctx).
		WithCancelOnError().
		WithMaxGoroutines(r.parallel)

	for i, region := range regions {
		p.Go(func(ctx context.Context) error {
			path := filepath.Join(r.dir, FrameName(i))
			if _, err := os.Stat(path); err == nil {
				skipped.Add(1)
				return nil
			} else if !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if err := ctx.Err(); err != nil {
				return err
			}

			d := r.base
			d.Region = region
			m, err := r.eval.Evaluate(ctx, d)
			if err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			if err := export.WriteFile(path, palette.Paint(m, r.color)); err != nil {
				return fmt.Errorf("frame %d: %w", i, err)
			}
			rendered.Add(1)
			r.logger.Debug("frame written", "frame", i, "path", path)
			return nil
		})
	}

	err := p.Wait()
	stats := Stats{
		Rendered: int(rendered.Load()),
		Skipped:  int(skipped.Load()),
		Elapsed:  time.Since(start),
	}
	r.logger.Info("zoom finished",
		"rendered", stats.Rendered,
		"skipped", stats.Skipped,
		"duration_ms", stats.Elapsed.Milliseconds(),
	)
	return stats, err
}
