package mandel

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConfiguration matches every domain validation failure.
	ErrConfiguration = errors.New("invalid domain configuration")
	// ErrDegenerateAxis is returned when an axis has fewer than two samples.
	ErrDegenerateAxis = errors.New("axis needs at least 2 samples")
	// ErrEvaluation matches every failed evaluation.
	ErrEvaluation = errors.New("evaluation failed")
	// ErrRowOwnership indicates a row slot was not returned exactly once.
	ErrRowOwnership = errors.New("row slot ownership violated")
)

// FieldError is a single validation failure.
type FieldError struct {
	Field   string
	Value   any
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ConfigError collects every FieldError found in a Domain.
type ConfigError struct {
	Fields []FieldError
}

func (e *ConfigError) Error() string {
	if len(e.Fields) == 1 {
		return ErrConfiguration.Error() + ": " + e.Fields[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %d errors:", ErrConfiguration, len(e.Fields))
	for i, f := range e.Fields {
		fmt.Fprintf(&sb, "\n  %d. %s", i+1, f.Error())
	}
	return sb.String()
}

func (e *ConfigError) Is(target error) bool { return target == ErrConfiguration }

// HasField reports whether field is among the failures.
func (e *ConfigError) HasField(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// EvaluationError reports a failed evaluation. No partial matrix accompanies it.
type EvaluationError struct {
	Cause error
	// Recovered holds the panic stack when a worker crashed.
	Recovered string
}

func (e *EvaluationError) Error() string {
	if e.Cause == nil {
		return ErrEvaluation.Error()
	}
	return ErrEvaluation.Error() + ": " + e.Cause.Error()
}

func (e *EvaluationError) Is(target error) bool { return target == ErrEvaluation }

func (e *EvaluationError) Unwrap() error { return e.Cause }
