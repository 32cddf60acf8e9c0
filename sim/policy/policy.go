// Package policy provides the closed set of named ordering policies that can
// be evaluated by the simulator. Policies are selected by identifier; the only
// user-authored form is a sandboxed arithmetic expression.
package policy

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Policy decides a node's replenishment quantity.
// This interface matches sim.OrderingPolicy for duck-typing compatibility.
type Policy interface {
	Name() string
	OrderQuantity(node string, inventory, demand int) (int, error)
}

// Policy identifiers.
const (
	NameOrderEqualsDemand = "order-equals-demand"
	NameFixedQuantity     = "fixed-quantity"
	NameOrderUpTo         = "order-up-to"
	NameBaseStock         = "base-stock"
	NameAnchorAndAdjust   = "anchor-and-adjust"
	NameExpression        = "expression"
)

// validPolicies is the set of recognized policy names.
var validPolicies = map[string]bool{
	NameOrderEqualsDemand: true,
	NameFixedQuantity:     true,
	NameOrderUpTo:         true,
	NameBaseStock:         true,
	NameAnchorAndAdjust:   true,
	NameExpression:        true,
}

// IsValidName returns true if name is a recognized policy.
func IsValidName(name string) bool { return validPolicies[name] }

// ValidNames returns the recognized policy names, sorted.
func ValidNames() []string {
	names := make([]string, 0, len(validPolicies))
	for n := range validPolicies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// OrderEqualsDemand reorders exactly what was demanded this step.
type OrderEqualsDemand struct{}

func (OrderEqualsDemand) Name() string { return NameOrderEqualsDemand }

func (OrderEqualsDemand) OrderQuantity(_ string, _ int, demand int) (int, error) {
	return demand, nil
}

// FixedQuantity orders the same quantity every step.
type FixedQuantity struct {
	Quantity int
}

func (p FixedQuantity) Name() string { return NameFixedQuantity }

func (p FixedQuantity) OrderQuantity(_ string, _ int, _ int) (int, error) {
	return p.Quantity, nil
}

// OrderUpTo raises on-hand inventory to Level: max(0, Level - inventory).
type OrderUpTo struct {
	Level int
}

func (p OrderUpTo) Name() string { return NameOrderUpTo }

func (p OrderUpTo) OrderQuantity(_ string, inventory, _ int) (int, error) {
	return max(0, p.Level-inventory), nil
}

// BaseStock replaces this step's demand and closes the gap to Level:
// max(0, demand + Level - inventory).
type BaseStock struct {
	Level int
}

func (p BaseStock) Name() string { return NameBaseStock }

func (p BaseStock) OrderQuantity(_ string, inventory, demand int) (int, error) {
	return max(0, demand+p.Level-inventory), nil
}

// AnchorAndAdjust is the classic Beer Game heuristic: anchor on demand and
// correct a fraction Alpha of the inventory gap each step.
type AnchorAndAdjust struct {
	Target int
	Alpha  float64
}

func (p AnchorAndAdjust) Name() string { return NameAnchorAndAdjust }

func (p AnchorAndAdjust) OrderQuantity(_ string, inventory, demand int) (int, error) {
	q := float64(demand) + p.Alpha*float64(p.Target-inventory)
	return max(0, int(math.Round(q))), nil
}

// PerNode dispatches to a node-specific policy, falling back to Default.
type PerNode struct {
	Default Policy
	ByNode  map[string]Policy
}

func (p *PerNode) Name() string {
	if len(p.ByNode) == 0 {
		return p.Default.Name()
	}
	nodes := make([]string, 0, len(p.ByNode))
	for n := range p.ByNode {
		nodes = append(nodes, n)
	}
	sort.Strings(nodes)
	parts := make([]string, len(nodes))
	for i, n := range nodes {
		parts[i] = n + "=" + p.ByNode[n].Name()
	}
	return fmt.Sprintf("%s[%s]", p.Default.Name(), strings.Join(parts, ","))
}

func (p *PerNode) OrderQuantity(node string, inventory, demand int) (int, error) {
	if sub, ok := p.ByNode[strings.ToLower(node)]; ok {
		return sub.OrderQuantity(node, inventory, demand)
	}
	return p.Default.OrderQuantity(node, inventory, demand)
}

// Spec is the YAML form of a policy.
type Spec struct {
	Policy     string             `yaml:"policy"`
	Params     map[string]float64 `yaml:"params,omitempty"`
	Expression string             `yaml:"expression,omitempty"`
	Nodes      map[string]Spec    `yaml:"nodes,omitempty"`
}

// requireParam checks that all required keys exist in a params map.
func requireParam(policy string, params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("policy %q requires parameter %q", policy, k)
		}
	}
	return nil
}

func intParam(policy string, params map[string]float64, key string) (int, error) {
	if err := requireParam(policy, params, key); err != nil {
		return 0, err
	}
	v := params[key]
	if v < 0 || v != math.Trunc(v) {
		return 0, fmt.Errorf("policy %q parameter %q must be a non-negative integer, got %v", policy, key, v)
	}
	return int(v), nil
}

// New creates a policy from its spec. Per-node overrides in spec.Nodes wrap
// the result in a PerNode.
func New(spec Spec) (Policy, error) {
	base, err := newSingle(spec)
	if err != nil {
		return nil, err
	}
	if len(spec.Nodes) == 0 {
		return base, nil
	}
	pn := &PerNode{Default: base, ByNode: make(map[string]Policy, len(spec.Nodes))}
	for node, sub := range spec.Nodes {
		if len(sub.Nodes) > 0 {
			return nil, fmt.Errorf("node override %q cannot nest further overrides", node)
		}
		p, err := newSingle(sub)
		if err != nil {
			return nil, fmt.Errorf("node override %q: %w", node, err)
		}
		pn.ByNode[strings.ToLower(strings.TrimSpace(node))] = p
	}
	return pn, nil
}

func newSingle(spec Spec) (Policy, error) {
	switch spec.Policy {
	case NameOrderEqualsDemand:
		return OrderEqualsDemand{}, nil
	case NameFixedQuantity:
		q, err := intParam(spec.Policy, spec.Params, "quantity")
		if err != nil {
			return nil, err
		}
		return FixedQuantity{Quantity: q}, nil
	case NameOrderUpTo:
		l, err := intParam(spec.Policy, spec.Params, "level")
		if err != nil {
			return nil, err
		}
		return OrderUpTo{Level: l}, nil
	case NameBaseStock:
		l, err := intParam(spec.Policy, spec.Params, "level")
		if err != nil {
			return nil, err
		}
		return BaseStock{Level: l}, nil
	case NameAnchorAndAdjust:
		target, err := intParam(spec.Policy, spec.Params, "target")
		if err != nil {
			return nil, err
		}
		if err := requireParam(spec.Policy, spec.Params, "alpha"); err != nil {
			return nil, err
		}
		alpha := spec.Params["alpha"]
		if alpha < 0 || alpha > 1 {
			return nil, fmt.Errorf("policy %q alpha must be in [0, 1], got %v", spec.Policy, alpha)
		}
		return AnchorAndAdjust{Target: target, Alpha: alpha}, nil
	case NameExpression:
		return NewExpression(spec.Expression)
	default:
		return nil, fmt.Errorf("unknown ordering policy %q; valid policies: [%s]", spec.Policy, strings.Join(ValidNames(), ", "))
	}
}
