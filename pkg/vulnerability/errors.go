package vulnerability

import (
	"errors"
	"fmt"
)

// Common sentinel errors
var (
	ErrBudgetExceedsNodes = errors.New("removal budget exceeds node count")
	ErrNegativeBudget     = errors.New("removal budget is negative")
)

// ComputationError reports a simulation that cannot run with the given
// parameters. It is scoped to this component: callers abort the simulation
// but keep results from sibling computations.
type ComputationError struct {
	Op    string // operation that failed, e.g. "run"
	Param string // offending parameter name
	Value any    // offending parameter value
	Cause error
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("%s: %s=%v: %v", e.Op, e.Param, e.Value, e.Cause)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Cause)
}

// Unwrap returns the underlying cause for error chain support.
func (e *ComputationError) Unwrap() error {
	return e.Cause
}

// Is reports whether the target error matches this error or its cause.
func (e *ComputationError) Is(target error) bool {
	if target == nil {
		return false
	}
	return errors.Is(e.Cause, target)
}

func budgetError(budget, nodes int) error {
	return &ComputationError{
		Op:    "run",
		Param: "removal_budget",
		Value: budget,
		Cause: fmt.Errorf("%w: budget %d, nodes %d", ErrBudgetExceedsNodes, budget, nodes),
	}
}

func negativeBudgetError(budget int) error {
	return &ComputationError{
		Op:    "run",
		Param: "removal_budget",
		Value: budget,
		Cause: ErrNegativeBudget,
	}
}
