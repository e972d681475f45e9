package engine

import (
	"fmt"
	"runtime"
	"strings"
)

// Span is a half-open range of row indices [Start, End).
type Span struct {
	Start, End int
}

// Len returns the number of rows in s.
func (s Span) Len() int { return s.End - s.Start }

// Partition splits rows into contiguous spans, one per worker. Each span gets
// rows/workers rows and the last one also takes the remainder. workers is
// clamped to [1, rows] so that no span is empty.
func Partition(rows, workers int) []Span {
	if rows <= 0 {
		return nil
	}
	workers = max(1, min(workers, rows))

	base := rows / workers
	spans := make([]Span, workers)
	for i := range spans {
		spans[i] = Span{Start: i * base, End: (i + 1) * base}
	}
	spans[workers-1].End = rows
	return spans
}

// Policy selects how rows are handed to workers.
type Policy string

const (
	// PolicyContiguous gives each worker one contiguous span from Partition.
	PolicyContiguous Policy = "contiguous"
	// PolicyRowPerTask feeds single rows through a bounded pool. Better load
	// balance near the set, where rows cost very different amounts.
	PolicyRowPerTask Policy = "row-per-task"
)

// ValidPolicies returns the accepted policy names.
func ValidPolicies() []string {
	return []string{string(PolicyContiguous), string(PolicyRowPerTask)}
}

// ParsePolicy converts a configuration string into a Policy.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyContiguous, PolicyRowPerTask:
		return p, nil
	case "":
		return PolicyContiguous, nil
	default:
		return "", fmt.Errorf("unknown scheduling policy %q (want one of %s)", s, strings.Join(ValidPolicies(), ", "))
	}
}

// DefaultWorkers is the worker budget used when none is configured.
func DefaultWorkers() int {
	return 4 * runtime.NumCPU()
}
