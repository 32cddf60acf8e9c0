package sim

import (
	"github.com/beergame/supplytwin/chain"
)

// beerGameState is the reference chain snapshot at step 0.
func beerGameState() chain.ChainStatus {
	st := chain.ChainStatus{Nodes: make(map[string]chain.NodeStatus)}
	for _, spec := range chain.BeerGameSpecs() {
		inv := make(map[string]int, len(spec.Inventory))
		for k, v := range spec.Inventory {
			inv[k] = v
		}
		st.Nodes[spec.Name] = chain.NodeStatus{Name: spec.Name, NodeType: spec.Type, Upstream: spec.Upstream, Inventory: inv}
	}
	return st
}

// mustEngine builds an engine over the reference chain with constant demand.
func mustEngine(demand int) *Engine {
	cfg := DefaultConfig()
	cfg.Demand = ConstantDemand{Quantity: demand}
	e, err := NewEngine(cfg)
	if err != nil {
		panic(err)
	}
	return e
}

type orderEqualsDemand struct{}

func (orderEqualsDemand) Name() string { return "order-equals-demand" }
func (orderEqualsDemand) OrderQuantity(_ string, _ int, demand int) (int, error) {
	return demand, nil
}

type fixedOrder int

func (f fixedOrder) Name() string { return "fixed" }
func (f fixedOrder) OrderQuantity(string, int, int) (int, error) {
	return int(f), nil
}

type funcPolicy func(node string, inventory, demand int) (int, error)

func (f funcPolicy) Name() string { return "func" }
func (f funcPolicy) OrderQuantity(node string, inventory, demand int) (int, error) {
	return f(node, inventory, demand)
}
