package trace

// NodeSummary aggregates one node's decisions.
type NodeSummary struct {
	Decisions    int
	TotalDemand  int
	TotalShipped int
	TotalOrdered int
	Stockouts    int
	MaxOrder     int
	FillRate     float64 // shipped / demand; 1 when there was no demand
}

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TotalDecisions int
	Nodes          map[string]*NodeSummary
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		Nodes: make(map[string]*NodeSummary),
	}
	if st == nil {
		return summary
	}

	summary.TotalDecisions = len(st.Decisions)
	for _, d := range st.Decisions {
		ns, ok := summary.Nodes[d.Node]
		if !ok {
			ns = &NodeSummary{}
			summary.Nodes[d.Node] = ns
		}
		ns.Decisions++
		ns.TotalDemand += d.Demand
		ns.TotalShipped += d.Shipped
		ns.TotalOrdered += d.OrderQuantity
		if d.Stockout {
			ns.Stockouts++
		}
		if d.OrderQuantity > ns.MaxOrder {
			ns.MaxOrder = d.OrderQuantity
		}
	}
	for _, ns := range summary.Nodes {
		if ns.TotalDemand == 0 {
			ns.FillRate = 1
		} else {
			ns.FillRate = float64(ns.TotalShipped) / float64(ns.TotalDemand)
		}
	}
	return summary
}
