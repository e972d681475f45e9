package mandel

import (
	"context"
)

// Evaluator turns a Domain into its iteration matrix.
type Evaluator interface {
	Evaluate(ctx context.Context, d Domain) (*Matrix, error)
}

// ColorFunc maps an iteration count to an RGB triple. It must be defined for
// every count in [0, maxIter] and must be deterministic.
type ColorFunc func(iter, maxIter int) (r, g, b uint8)
