package config

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/marben/mandelview/internal/cache"
	"github.com/marben/mandelview/internal/engine"
	"github.com/marben/mandelview/internal/logging"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/view"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "engine.max_iterations")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// maxIterationCap matches the ceiling of the interactive doubling key
const maxIterationCap = 1 << 20

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validateView()...)
	errors = append(errors, c.validateServer()...)
	errors = append(errors, c.validateCache()...)
	errors = append(errors, c.validateZoom()...)
	errors = append(errors, c.validateLogging()...)

	return errors
}

func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError

	if c.Engine.Workers < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.workers",
			Value:   c.Engine.Workers,
			Message: "must be non-negative (0 selects the default)",
		})
	}

	if _, err := engine.ParsePolicy(c.Engine.Policy); err != nil {
		errors = append(errors, ValidationError{
			Field:   "engine.policy",
			Value:   c.Engine.Policy,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(engine.ValidPolicies(), ", ")),
		})
	}

	if c.Engine.MaxIterations > maxIterationCap {
		errors = append(errors, ValidationError{
			Field:   "engine.max_iterations",
			Value:   c.Engine.MaxIterations,
			Message: fmt.Sprintf("exceeds maximum of %d", maxIterationCap),
		})
	}

	if c.Engine.MaxIterations <= 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_iterations",
			Value:   c.Engine.MaxIterations,
			Message: "must be positive",
		})
	}

	if !(c.Engine.Threshold > 0) || math.IsInf(c.Engine.Threshold, 0) {
		errors = append(errors, ValidationError{
			Field:   "engine.threshold",
			Value:   c.Engine.Threshold,
			Message: "must be a positive finite number",
		})
	}

	// an axis needs two samples so that both ends of the interval are hit
	if c.Engine.ResolutionX < 2 {
		errors = append(errors, ValidationError{
			Field:   "engine.resolution_x",
			Value:   c.Engine.ResolutionX,
			Message: "must be at least 2",
		})
	}
	if c.Engine.ResolutionY < 2 {
		errors = append(errors, ValidationError{
			Field:   "engine.resolution_y",
			Value:   c.Engine.ResolutionY,
			Message: "must be at least 2",
		})
	}

	return errors
}

func (c *Config) validateView() []ValidationError {
	var errors []ValidationError

	if !view.Valid(c.View.DefaultRegion.Region()) {
		errors = append(errors, ValidationError{
			Field:   "view.default_region",
			Value:   c.View.DefaultRegion.Region(),
			Message: "bounds must be finite with min < max on both axes",
		})
	}

	if c.View.MinDrag < 0 {
		errors = append(errors, ValidationError{
			Field:   "view.min_drag",
			Value:   c.View.MinDrag,
			Message: "must be non-negative",
		})
	}

	if c.View.ZoomStep <= 0 || c.View.ZoomStep > view.MaxZoomFraction {
		errors = append(errors, ValidationError{
			Field:   "view.zoom_step",
			Value:   c.View.ZoomStep,
			Message: fmt.Sprintf("must be in (0, %g]", view.MaxZoomFraction),
		})
	}

	if c.View.KeyZoom <= 0 || c.View.KeyZoom > view.MaxKeyZoomFraction {
		errors = append(errors, ValidationError{
			Field:   "view.key_zoom",
			Value:   c.View.KeyZoom,
			Message: fmt.Sprintf("must be in (0, %g]", view.MaxKeyZoomFraction),
		})
	}

	if c.View.KeyPan <= 0 || c.View.KeyPan > 1 {
		errors = append(errors, ValidationError{
			Field:   "view.key_pan",
			Value:   c.View.KeyPan,
			Message: "must be in (0, 1]",
		})
	}

	if _, ok := palette.Lookup(c.View.Scheme); !ok {
		errors = append(errors, ValidationError{
			Field:   "view.scheme",
			Value:   c.View.Scheme,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(palette.Names(), ", ")),
		})
	}

	return errors
}

func (c *Config) validateServer() []ValidationError {
	var errors []ValidationError

	if c.Server.Addr == "" {
		errors = append(errors, ValidationError{
			Field:   "server.addr",
			Value:   c.Server.Addr,
			Message: "must not be empty",
		})
	}

	if c.Server.FramesPerSecond <= 0 {
		errors = append(errors, ValidationError{
			Field:   "server.frames_per_second",
			Value:   c.Server.FramesPerSecond,
			Message: "must be positive",
		})
	}

	if c.Server.Burst < 1 {
		errors = append(errors, ValidationError{
			Field:   "server.burst",
			Value:   c.Server.Burst,
			Message: "must be at least 1",
		})
	}

	if c.Server.MaxPixels < 4 {
		errors = append(errors, ValidationError{
			Field:   "server.max_pixels",
			Value:   c.Server.MaxPixels,
			Message: "must be at least 4",
		})
	}

	return errors
}

func (c *Config) validateCache() []ValidationError {
	var errors []ValidationError

	backend, err := cache.ParseBackend(c.Cache.Backend)
	if err != nil {
		errors = append(errors, ValidationError{
			Field:   "cache.backend",
			Value:   c.Cache.Backend,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(cache.ValidBackends(), ", ")),
		})
	}

	if backend == cache.BackendMemory && c.Cache.Size <= 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.size",
			Value:   c.Cache.Size,
			Message: "must be positive for the memory backend",
		})
	}

	if backend == cache.BackendRedis && c.Cache.RedisAddr == "" {
		errors = append(errors, ValidationError{
			Field:   "cache.redis_addr",
			Value:   c.Cache.RedisAddr,
			Message: "is required for the redis backend",
		})
	}

	if c.Cache.RedisDB < 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.redis_db",
			Value:   c.Cache.RedisDB,
			Message: "must be non-negative",
		})
	}

	if c.Cache.TTLSeconds < 0 {
		errors = append(errors, ValidationError{
			Field:   "cache.ttl_seconds",
			Value:   c.Cache.TTLSeconds,
			Message: "must be non-negative",
		})
	}

	return errors
}

func (c *Config) validateZoom() []ValidationError {
	var errors []ValidationError

	if c.Zoom.Frames < 2 {
		errors = append(errors, ValidationError{
			Field:   "zoom.frames",
			Value:   c.Zoom.Frames,
			Message: "must be at least 2",
		})
	}

	if c.Zoom.Ratio <= 0 || c.Zoom.Ratio >= 1 {
		errors = append(errors, ValidationError{
			Field:   "zoom.ratio",
			Value:   c.Zoom.Ratio,
			Message: "must be in (0, 1)",
		})
	}

	if c.Zoom.Parallel < 1 {
		errors = append(errors, ValidationError{
			Field:   "zoom.parallel",
			Value:   c.Zoom.Parallel,
			Message: "must be at least 1",
		})
	}

	return errors
}

func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.ToLower(strings.Join(logging.ValidLevels(), ", "))),
		})
	}

	return errors
}
