// Package trace provides decision-trace recording for ordering-policy analysis.
// It has no dependencies on sim/ and stores plain data types only.
package trace

// DecisionRecord captures one node process activation.
type DecisionRecord struct {
	Step          int64  `json:"step"`
	Node          string `json:"node"`
	Demand        int    `json:"demand"`
	Shipped       int    `json:"shipped"`
	Inventory     int    `json:"inventory"` // after fulfillment
	OrderQuantity int    `json:"order_quantity"`
	Stockout      bool   `json:"stockout"`
}
