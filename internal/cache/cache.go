// Package cache stores evaluated matrices keyed by Domain.Fingerprint and
// wraps an Evaluator so that repeated views are served without recomputation.
package cache

import (
	"context"
	"fmt"
	"strings"

	mandel "github.com/marben/mandelview"
	"github.com/marben/mandelview/internal/logging"
)

// Cache is a matrix store. A miss is reported as (nil, false, nil).
type Cache interface {
	Get(ctx context.Context, key string) (*mandel.Matrix, bool, error)
	Put(ctx context.Context, key string, m *mandel.Matrix) error
}

// Backend names accepted by configuration.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// ValidBackends returns the accepted backend names.
func ValidBackends() []string {
	return []string{BackendNone, BackendMemory, BackendRedis}
}

// ParseBackend normalises a backend name.
func ParseBackend(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "":
		return BackendNone, nil
	case BackendNone, BackendMemory, BackendRedis:
		return s, nil
	}
	return "", fmt.Errorf("unknown cache backend %q (want one of %s)", s, strings.Join(ValidBackends(), ", "))
}

// Evaluator serves evaluations from a Cache and falls through to next on a
// miss. Cache failures are logged and never fail the evaluation.
type Evaluator struct {
	next   mandel.Evaluator
	cache  Cache
	logger *logging.Logger
}

var _ mandel.Evaluator = (*Evaluator)(nil)

// NewEvaluator wraps next with c. A nil logger disables logging.
func NewEvaluator(next mandel.Evaluator, c Cache, logger *logging.Logger) *Evaluator {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Evaluator{next: next, cache: c, logger: logger.WithComponent("cache")}
}

func (e *Evaluator) Evaluate(ctx context.Context, d mandel.Domain) (*mandel.Matrix, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	key := d.Fingerprint()

	m, ok, err := e.cache.Get(ctx, key)
	switch {
	case err != nil:
		e.logger.Warn("cache lookup failed", "key", key, "error", err)
	case ok:
		e.logger.Debug("cache hit", "key", key)
		return m, nil
	}

	m, err = e.next.Evaluate(ctx, d)
	if err != nil {
		return nil, err
	}
	if err := e.cache.Put(ctx, key, m); err != nil {
		e.logger.Warn("cache store failed", "key", key, "error", err)
	}
	return m, nil
}
