package twin

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/beergame/supplytwin/chain"
)

// Node owns the inventory and order queues of one echelon.
// Neighbours are names; the owning DigitalTwin resolves them.
type Node struct {
	name         string
	nodeType     string
	upstream     string
	downstream   string
	transitDelay int

	inventory map[string]int
	// incoming holds orders received from downstream, in receipt order.
	incoming []*chain.Order
	// outgoing holds orders placed with upstream.
	outgoing []*chain.Order
}

// NewNode builds a node from its spec. The spec's name must already be
// normalised (chain.NewTopology does this).
func NewNode(spec chain.NodeSpec, downstream string, transitDelay int) *Node {
	inv := make(map[string]int, len(spec.Inventory))
	for k, v := range spec.Inventory {
		inv[k] = v
	}
	return &Node{
		name:         spec.Name,
		nodeType:     spec.Type,
		upstream:     spec.Upstream,
		downstream:   downstream,
		transitDelay: transitDelay,
		inventory:    inv,
	}
}

// Name returns the node's key.
func (n *Node) Name() string { return n.name }

// PlaceOrder records order as outgoing and forwards it to upstream.
// upstream must be the node named by this node's upstream edge; nil means the
// node has none and the order is rejected with chain.ErrNoUpstream.
func (n *Node) PlaceOrder(order *chain.Order, upstream *Node) error {
	if upstream == nil {
		logrus.Warnf("node %q has no upstream node to order from", n.name)
		return fmt.Errorf("placing order at %q: %w", n.name, chain.ErrNoUpstream)
	}
	if order.OrderID == "" {
		order.OrderID = chain.NewID()
	}
	n.outgoing = append(n.outgoing, order)
	order.SourceNode = upstream.name
	upstream.ReceiveOrder(order)
	return nil
}

// ReceiveOrder appends an order from downstream to the incoming queue.
func (n *Node) ReceiveOrder(order *chain.Order) {
	n.incoming = append(n.incoming, order)
}

// FulfillOrder ships a PENDING order if inventory allows. step is the
// twin's current step, reported in invariant faults.
// It returns nil when the order is not PENDING or stock is insufficient; an
// unfulfilled order stays PENDING and is retried on later steps.
func (n *Node) FulfillOrder(order *chain.Order, step int) *chain.Shipment {
	if order.Status != chain.OrderPending {
		return nil
	}
	if order.Quantity <= 0 {
		panic(&chain.InvariantError{
			Node:    n.name,
			OrderID: order.OrderID,
			Step:    step,
			Detail:  fmt.Sprintf("non-positive order quantity %d", order.Quantity),
		})
	}
	onHand := n.inventory[order.ProductID]
	if onHand < order.Quantity {
		logrus.Warnf("node %q has insufficient inventory (%d < %d) to fulfill order %s",
			n.name, onHand, order.Quantity, order.OrderID)
		return nil
	}

	n.inventory[order.ProductID] = onHand - order.Quantity
	order.Status = chain.OrderFulfilled

	s := &chain.Shipment{
		ShipmentID:      chain.NewID(),
		OrderID:         order.OrderID,
		ProductID:       order.ProductID,
		Quantity:        order.Quantity,
		SourceNode:      n.name,
		DestinationNode: chain.NormalizeName(order.DestinationNode),
		ETA:             n.transitDelay,
	}
	logrus.Infof("node %q fulfilled order %s and created shipment %s", n.name, order.OrderID, s.ShipmentID)
	return s
}

// ReceiveShipment adds a delivered shipment to inventory.
func (n *Node) ReceiveShipment(s *chain.Shipment) {
	n.inventory[s.ProductID] += s.Quantity
	logrus.Infof("node %q received shipment %s of %d %s", n.name, s.ShipmentID, s.Quantity, s.ProductID)
}

// Status returns a value snapshot of the node.
func (n *Node) Status() chain.NodeStatus {
	inv := make(map[string]int, len(n.inventory))
	for k, v := range n.inventory {
		inv[k] = v
	}
	return chain.NodeStatus{
		Name:           n.name,
		NodeType:       n.nodeType,
		Upstream:       n.upstream,
		Downstream:     n.downstream,
		Inventory:      inv,
		IncomingOrders: copyOrders(n.incoming),
		OutgoingOrders: copyOrders(n.outgoing),
	}
}

func copyOrders(orders []*chain.Order) []chain.Order {
	out := make([]chain.Order, len(orders))
	for i, o := range orders {
		out[i] = *o
	}
	return out
}
