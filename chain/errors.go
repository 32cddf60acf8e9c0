package chain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports an unknown node name.
	ErrNotFound = errors.New("node not found")
	// ErrNoUpstream reports an order placed at a node with no upstream neighbour.
	ErrNoUpstream = errors.New("node has no upstream")
	// ErrInvalidQuantity reports a non-positive order quantity.
	ErrInvalidQuantity = errors.New("order quantity must be positive")
	// ErrDuplicateOrder reports an order whose ID was already placed.
	ErrDuplicateOrder = errors.New("order already placed")
)

// InvariantError is an internal-consistency fault: negative inventory, double
// fulfillment, or a shipment addressed to a node that does not exist.
// It is raised with panic and never recovered by the core.
type InvariantError struct {
	Node    string
	OrderID string
	Step    int
	Detail  string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at step %d (node=%q order=%q): %s", e.Step, e.Node, e.OrderID, e.Detail)
}
