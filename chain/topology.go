package chain

import (
	"fmt"
	"strings"
)

// DefaultProductID is the single SKU of the reference Beer Game.
const DefaultProductID = "beer"

// NodeSpec declares one node of a chain. Upstream names the node this node
// orders from; empty for the top of the chain.
type NodeSpec struct {
	Name      string         `yaml:"name" json:"name"`
	Type      string         `yaml:"type" json:"type"`
	Upstream  string         `yaml:"upstream,omitempty" json:"upstream,omitempty"`
	Inventory map[string]int `yaml:"inventory" json:"inventory"`
}

// Topology is a validated directed graph of nodes. Edges are resolved by
// name at construction time; all names are lower case.
type Topology struct {
	specs      []NodeSpec
	index      map[string]int
	downstream map[string]string
	order      []string
}

// NewTopology normalises and validates node specs.
// Only linear chains are accepted: every node has at most one upstream and at
// most one downstream neighbour, and the graph is acyclic.
func NewTopology(specs []NodeSpec) (*Topology, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("topology has no nodes")
	}
	t := &Topology{
		specs:      make([]NodeSpec, len(specs)),
		index:      make(map[string]int, len(specs)),
		downstream: make(map[string]string, len(specs)),
	}
	for i, s := range specs {
		name := NormalizeName(s.Name)
		if name == "" {
			return nil, fmt.Errorf("node %d has an empty name", i)
		}
		if _, dup := t.index[name]; dup {
			return nil, fmt.Errorf("duplicate node %q", name)
		}
		inv := make(map[string]int, len(s.Inventory))
		for product, qty := range s.Inventory {
			if qty < 0 {
				return nil, fmt.Errorf("node %q: negative initial inventory %d for %q", name, qty, product)
			}
			inv[product] = qty
		}
		t.specs[i] = NodeSpec{Name: name, Type: s.Type, Upstream: NormalizeName(s.Upstream), Inventory: inv}
		t.index[name] = i
	}
	for _, s := range t.specs {
		if s.Upstream == "" {
			continue
		}
		if s.Upstream == s.Name {
			return nil, fmt.Errorf("node %q lists itself as upstream", s.Name)
		}
		if _, ok := t.index[s.Upstream]; !ok {
			return nil, fmt.Errorf("node %q: upstream %q: %w", s.Name, s.Upstream, ErrNotFound)
		}
		if other, taken := t.downstream[s.Upstream]; taken {
			return nil, fmt.Errorf("node %q has two downstream nodes (%q, %q); only linear chains are supported", s.Upstream, other, s.Name)
		}
		t.downstream[s.Upstream] = s.Name
	}
	order, err := t.sortDownstreamFirst()
	if err != nil {
		return nil, err
	}
	t.order = order
	return t, nil
}

// sortDownstreamFirst is Kahn's algorithm over downstream→upstream edges:
// a node is emitted once every node ordering from it has been emitted.
// Ties keep declaration order.
func (t *Topology) sortDownstreamFirst() ([]string, error) {
	pending := make(map[string]int, len(t.specs))
	for _, s := range t.specs {
		if _, ok := t.downstream[s.Name]; ok {
			pending[s.Name] = 1
		}
	}
	order := make([]string, 0, len(t.specs))
	emitted := make(map[string]bool, len(t.specs))
	for len(order) < len(t.specs) {
		progressed := false
		for _, s := range t.specs {
			if emitted[s.Name] || pending[s.Name] > 0 {
				continue
			}
			order = append(order, s.Name)
			emitted[s.Name] = true
			progressed = true
			if s.Upstream != "" {
				pending[s.Upstream]--
			}
		}
		if !progressed {
			return nil, fmt.Errorf("topology contains a cycle")
		}
	}
	return order, nil
}

// BeerGame returns the reference 4-echelon chain with seeded inventories.
func BeerGame() *Topology {
	t, err := NewTopology(BeerGameSpecs())
	if err != nil {
		panic(fmt.Sprintf("reference topology is invalid: %v", err))
	}
	return t
}

// BeerGameSpecs returns the node specs of the reference chain.
func BeerGameSpecs() []NodeSpec {
	return []NodeSpec{
		{Name: "retailer", Type: "Retailer", Upstream: "wholesaler", Inventory: map[string]int{DefaultProductID: 100}},
		{Name: "wholesaler", Type: "Wholesaler", Upstream: "distributor", Inventory: map[string]int{DefaultProductID: 200}},
		{Name: "distributor", Type: "Distributor", Upstream: "brewery", Inventory: map[string]int{DefaultProductID: 300}},
		{Name: "brewery", Type: "Brewery", Inventory: map[string]int{DefaultProductID: 500}},
	}
}

// NormalizeName canonicalises a node name for case-insensitive lookup.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Specs returns copies of the node specs in declaration order.
func (t *Topology) Specs() []NodeSpec {
	out := make([]NodeSpec, len(t.specs))
	for i, s := range t.specs {
		s.Inventory = copyInventory(s.Inventory)
		out[i] = s
	}
	return out
}

// Names returns node names in declaration order.
func (t *Topology) Names() []string {
	out := make([]string, len(t.specs))
	for i, s := range t.specs {
		out[i] = s.Name
	}
	return out
}

// Lookup finds a node spec by case-insensitive name.
func (t *Topology) Lookup(name string) (NodeSpec, bool) {
	i, ok := t.index[NormalizeName(name)]
	if !ok {
		return NodeSpec{}, false
	}
	s := t.specs[i]
	s.Inventory = copyInventory(s.Inventory)
	return s, true
}

func copyInventory(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// UpstreamOf returns the upstream neighbour of a node, if any.
func (t *Topology) UpstreamOf(name string) (string, bool) {
	s, ok := t.Lookup(name)
	if !ok || s.Upstream == "" {
		return "", false
	}
	return s.Upstream, true
}

// DownstreamOf returns the downstream neighbour of a node, if any.
func (t *Topology) DownstreamOf(name string) (string, bool) {
	d, ok := t.downstream[NormalizeName(name)]
	return d, ok
}

// ProcessingOrder returns node names downstream-first.
func (t *Topology) ProcessingOrder() []string {
	return append([]string{}, t.order...)
}

// Len returns the number of nodes.
func (t *Topology) Len() int { return len(t.specs) }
