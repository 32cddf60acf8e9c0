package chain

import "github.com/google/uuid"

// OrderStatus is the lifecycle state of an Order.
// The only legal transition is PENDING → FULFILLED, applied once.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderFulfilled OrderStatus = "FULFILLED"
)

// Order is a replenishment request between two adjacent nodes.
// SourceNode is the node that fulfills the order; DestinationNode is the node
// that placed it and will receive the shipment.
type Order struct {
	OrderID         string      `json:"order_id" yaml:"order_id"`
	ProductID       string      `json:"product_id" yaml:"product_id"`
	Quantity        int         `json:"quantity" yaml:"quantity"`
	SourceNode      string      `json:"source_node" yaml:"source_node"`
	DestinationNode string      `json:"destination_node" yaml:"destination_node"`
	Status          OrderStatus `json:"status" yaml:"status"`
}

// NewOrder creates a PENDING order with a freshly generated ID.
func NewOrder(productID string, quantity int, source, destination string) Order {
	return Order{
		OrderID:         NewID(),
		ProductID:       productID,
		Quantity:        quantity,
		SourceNode:      source,
		DestinationNode: destination,
		Status:          OrderPending,
	}
}

// Shipment is goods in transit, created only by fulfilling exactly one Order.
// ETA counts the remaining steps; the shipment is delivered when it reaches 0.
type Shipment struct {
	ShipmentID      string `json:"shipment_id" yaml:"shipment_id"`
	OrderID         string `json:"order_id" yaml:"order_id"`
	ProductID       string `json:"product_id" yaml:"product_id"`
	Quantity        int    `json:"quantity" yaml:"quantity"`
	SourceNode      string `json:"source_node" yaml:"source_node"`
	DestinationNode string `json:"destination_node" yaml:"destination_node"`
	ETA             int    `json:"eta" yaml:"eta"`
}

// NodeStatus is a value snapshot of one node.
type NodeStatus struct {
	Name           string         `json:"name" yaml:"name"`
	NodeType       string         `json:"node_type,omitempty" yaml:"node_type,omitempty"`
	Upstream       string         `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Downstream     string         `json:"downstream,omitempty" yaml:"downstream,omitempty"`
	Inventory      map[string]int `json:"inventory" yaml:"inventory"`
	IncomingOrders []Order        `json:"incoming_orders" yaml:"incoming_orders"`
	OutgoingOrders []Order        `json:"outgoing_orders" yaml:"outgoing_orders"`
}

// Clone returns a deep copy of the status.
func (s NodeStatus) Clone() NodeStatus {
	out := s
	out.Inventory = make(map[string]int, len(s.Inventory))
	for k, v := range s.Inventory {
		out.Inventory[k] = v
	}
	out.IncomingOrders = append([]Order{}, s.IncomingOrders...)
	out.OutgoingOrders = append([]Order{}, s.OutgoingOrders...)
	return out
}

// PendingIncoming sums the quantity of PENDING incoming orders for a product.
func (s NodeStatus) PendingIncoming(productID string) int {
	total := 0
	for _, o := range s.IncomingOrders {
		if o.Status == OrderPending && o.ProductID == productID {
			total += o.Quantity
		}
	}
	return total
}

// ChainStatus is a complete snapshot of the chain at a step boundary.
// It is a value: mutating a snapshot never affects the state it was taken from.
type ChainStatus struct {
	CurrentStep        int                   `json:"current_step" yaml:"current_step"`
	Nodes              map[string]NodeStatus `json:"nodes" yaml:"nodes"`
	ShipmentsInTransit []Shipment            `json:"shipments_in_transit" yaml:"shipments_in_transit"`
}

// Clone returns a deep copy of the snapshot.
func (c ChainStatus) Clone() ChainStatus {
	out := ChainStatus{
		CurrentStep:        c.CurrentStep,
		Nodes:              make(map[string]NodeStatus, len(c.Nodes)),
		ShipmentsInTransit: append([]Shipment{}, c.ShipmentsInTransit...),
	}
	for name, n := range c.Nodes {
		out.Nodes[name] = n.Clone()
	}
	return out
}

// TotalUnits returns on-hand inventory plus in-transit quantity of a product.
func (c ChainStatus) TotalUnits(productID string) int {
	total := 0
	for _, n := range c.Nodes {
		total += n.Inventory[productID]
	}
	for _, s := range c.ShipmentsInTransit {
		if s.ProductID == productID {
			total += s.Quantity
		}
	}
	return total
}

// NewID returns a new unique identifier for orders and shipments.
func NewID() string {
	return uuid.NewString()
}
