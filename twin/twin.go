// Package twin implements the live Digital Twin of the distribution chain.
//
// The twin is the system of record: it owns every Node and the set of
// shipments in transit, and advances global time one step at a time.
// Unfulfillable orders are backlogged (they stay PENDING until stock
// arrives); the policy simulator in package sim deliberately uses lost-sales
// semantics instead.
package twin

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/beergame/supplytwin/chain"
)

// DefaultTransitDelay is the number of steps a shipment spends in transit.
const DefaultTransitDelay = 2

// Config holds twin construction parameters.
type Config struct {
	TransitDelay int `yaml:"transit_delay"`
}

// DefaultConfig returns the reference configuration.
func DefaultConfig() Config {
	return Config{TransitDelay: DefaultTransitDelay}
}

// DigitalTwin is the authoritative chain state.
// Step and PlaceOrder each run under one write lock; readers observe only
// step boundaries.
type DigitalTwin struct {
	mu sync.RWMutex

	topology    *chain.Topology
	nodes       map[string]*Node
	names       []string // declaration order; fixes the fulfillment sweep order
	inTransit   []*chain.Shipment
	currentStep int
	// placed holds every accepted order ID; an ID is placed at most once.
	placed map[string]bool
}

// New wires a twin from a topology. The composition root constructs exactly
// one per process and passes it to its consumers.
func New(topology *chain.Topology, cfg Config) (*DigitalTwin, error) {
	if topology == nil {
		return nil, fmt.Errorf("twin: nil topology")
	}
	if cfg.TransitDelay < 1 {
		return nil, fmt.Errorf("twin: transit delay must be >= 1, got %d", cfg.TransitDelay)
	}
	t := &DigitalTwin{
		topology: topology,
		nodes:    make(map[string]*Node, topology.Len()),
		names:    topology.Names(),
		placed:   make(map[string]bool),
	}
	for _, spec := range topology.Specs() {
		down, _ := topology.DownstreamOf(spec.Name)
		t.nodes[spec.Name] = NewNode(spec, down, cfg.TransitDelay)
	}
	logrus.Infof("digital twin initialized with %d nodes %v", len(t.names), t.names)
	return t, nil
}

// NewBeerGame returns a twin of the reference 4-echelon chain.
func NewBeerGame() *DigitalTwin {
	t, err := New(chain.BeerGame(), DefaultConfig())
	if err != nil {
		panic(err)
	}
	return t
}

// Topology returns the chain shape the twin was built from.
func (t *DigitalTwin) Topology() *chain.Topology { return t.topology }

// CurrentStep returns the number of completed steps.
func (t *DigitalTwin) CurrentStep() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentStep
}

func (t *DigitalTwin) lookup(name string) *Node {
	if name == "" {
		return nil
	}
	return t.nodes[chain.NormalizeName(name)]
}

// GetNodeState returns a snapshot of the named node; false if unknown.
func (t *DigitalTwin) GetNodeState(name string) (chain.NodeStatus, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	n := t.lookup(name)
	if n == nil {
		return chain.NodeStatus{}, false
	}
	return n.Status(), true
}

// PlaceOrder places order on behalf of order.DestinationNode with that node's
// upstream supplier and returns the destination node's resulting state.
// The twin keeps its own copy of the order; an empty OrderID is assigned and
// can be read back from the returned OutgoingOrders.
func (t *DigitalTwin) PlaceOrder(order chain.Order) (chain.NodeStatus, error) {
	if order.Quantity <= 0 {
		return chain.NodeStatus{}, fmt.Errorf("order %s quantity %d: %w", order.OrderID, order.Quantity, chain.ErrInvalidQuantity)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.lookup(order.DestinationNode)
	if n == nil {
		return chain.NodeStatus{}, fmt.Errorf("order destination %q: %w", order.DestinationNode, chain.ErrNotFound)
	}
	if order.Status == "" {
		order.Status = chain.OrderPending
	}
	if order.Status != chain.OrderPending {
		return chain.NodeStatus{}, fmt.Errorf("order %s has status %s, want %s", order.OrderID, order.Status, chain.OrderPending)
	}
	if order.OrderID == "" {
		order.OrderID = chain.NewID()
	}
	if t.placed[order.OrderID] {
		return chain.NodeStatus{}, fmt.Errorf("order %s: %w", order.OrderID, chain.ErrDuplicateOrder)
	}
	order.DestinationNode = n.name

	owned := order
	if err := n.PlaceOrder(&owned, t.lookup(n.upstream)); err != nil {
		return chain.NodeStatus{}, err
	}
	t.placed[owned.OrderID] = true
	return n.Status(), nil
}

// GetFullState returns a deep-copied snapshot of the chain.
func (t *DigitalTwin) GetFullState() chain.ChainStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.snapshot()
}

func (t *DigitalTwin) snapshot() chain.ChainStatus {
	status := chain.ChainStatus{
		CurrentStep:        t.currentStep,
		Nodes:              make(map[string]chain.NodeStatus, len(t.nodes)),
		ShipmentsInTransit: make([]chain.Shipment, len(t.inTransit)),
	}
	for name, n := range t.nodes {
		status.Nodes[name] = n.Status()
	}
	for i, s := range t.inTransit {
		status.ShipmentsInTransit[i] = *s
	}
	return status
}

// Step advances the chain by one period: shipments count down and arrive,
// then every node attempts to fulfill its PENDING incoming orders.
func (t *DigitalTwin) Step() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.currentStep++
	logrus.Debugf("advancing digital twin to step %d", t.currentStep)

	var arrived []*chain.Shipment
	for _, s := range t.inTransit {
		s.ETA--
		if s.ETA <= 0 {
			arrived = append(arrived, s)
		}
	}

	if len(arrived) > 0 {
		remaining := make([]*chain.Shipment, 0, len(t.inTransit))
		for _, s := range t.inTransit {
			if s.ETA > 0 {
				remaining = append(remaining, s)
			}
		}
		for _, s := range arrived {
			dest := t.lookup(s.DestinationNode)
			if dest == nil {
				panic(&chain.InvariantError{
					Node:    s.DestinationNode,
					OrderID: s.OrderID,
					Step:    t.currentStep,
					Detail:  fmt.Sprintf("shipment %s addressed to unknown node", s.ShipmentID),
				})
			}
			dest.ReceiveShipment(s)
		}
		t.inTransit = remaining
	}

	for _, name := range t.names {
		n := t.nodes[name]
		// Orders received during this sweep wait for the next step.
		queue := append([]*chain.Order{}, n.incoming...)
		for _, o := range queue {
			if o.Status != chain.OrderPending {
				continue
			}
			if s := n.FulfillOrder(o, t.currentStep); s != nil {
				t.inTransit = append(t.inTransit, s)
			}
		}
		t.checkInventory(n)
	}
}

func (t *DigitalTwin) checkInventory(n *Node) {
	for product, qty := range n.inventory {
		if qty < 0 {
			panic(&chain.InvariantError{
				Node:   n.name,
				Step:   t.currentStep,
				Detail: fmt.Sprintf("negative inventory %d of %q", qty, product),
			})
		}
	}
}
