package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPolicy matches every *PolicyError via errors.Is.
	ErrInvalidPolicy = errors.New("invalid ordering policy")
	// ErrNegativeOrder is the cause when a policy returns a quantity below zero.
	ErrNegativeOrder = errors.New("ordering policy returned a negative quantity")
)

// PolicyError aborts a run when the ordering policy fails or returns an
// unusable quantity. No partial result accompanies it.
type PolicyError struct {
	Policy   string
	Node     string
	Step     int64
	Quantity int
	Err      error
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("policy %q at node %q step %d (quantity %d): %v", e.Policy, e.Node, e.Step, e.Quantity, e.Err)
}

func (e *PolicyError) Unwrap() error { return e.Err }

// Is reports ErrInvalidPolicy as a match.
func (e *PolicyError) Is(target error) bool { return target == ErrInvalidPolicy }
