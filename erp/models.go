package erp

import "github.com/beergame/supplytwin/chain"

// Product is a catalogue entry.
type Product struct {
	Name     string  `json:"name"`
	Cost     float64 `json:"cost"`
	LeadTime int     `json:"lead_time"`
}

// Supplier is a candidate source for a product.
type Supplier struct {
	Name             string  `json:"name"`
	ReliabilityScore float64 `json:"reliability_score"`
	Price            float64 `json:"price"`
}

// HistoricalRecord is a ChainStatus filed under the period it was taken at.
type HistoricalRecord struct {
	Period             int                         `json:"period"`
	Nodes              map[string]chain.NodeStatus `json:"nodes"`
	ShipmentsInTransit []chain.Shipment            `json:"shipments_in_transit"`
}

// Status converts the record back into a chain snapshot.
func (r HistoricalRecord) Status() chain.ChainStatus {
	return chain.ChainStatus{
		CurrentStep:        r.Period,
		Nodes:              r.Nodes,
		ShipmentsInTransit: r.ShipmentsInTransit,
	}.Clone()
}

// recordFromStatus files a snapshot under its current step.
func recordFromStatus(st chain.ChainStatus) HistoricalRecord {
	c := st.Clone()
	return HistoricalRecord{Period: c.CurrentStep, Nodes: c.Nodes, ShipmentsInTransit: c.ShipmentsInTransit}
}

// StatusResponse acknowledges a write.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)
