package cmd

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/beergame/supplytwin/chain"
	"github.com/beergame/supplytwin/sim"
	"github.com/beergame/supplytwin/sim/policy"
	"github.com/beergame/supplytwin/twin"
)

// Scenario is the YAML description of a chain and the policies to compare.
// All top-level sections must be listed to satisfy KnownFields(true) strict parsing.
type Scenario struct {
	Seed         int64            `yaml:"seed"`
	Steps        int              `yaml:"steps"`
	Product      string           `yaml:"product"`
	HoldingCost  *float64         `yaml:"holding_cost"` // nil means sim.DefaultHoldingCost
	LeadTime     int64            `yaml:"lead_time"`
	TransitDelay int              `yaml:"transit_delay"`
	Demand       sim.DemandSpec   `yaml:"demand"`
	Topology     []chain.NodeSpec `yaml:"topology"`
	Policies     []PolicyEntry    `yaml:"policies"`
}

// PolicyEntry names one policy to evaluate.
type PolicyEntry struct {
	Name        string `yaml:"name"`
	policy.Spec `yaml:",inline"`
}

// DefaultScenario is the reference Beer Game compared under three policies.
func DefaultScenario() Scenario {
	return Scenario{
		Seed:         42,
		Steps:        sim.DefaultSteps,
		Product:      chain.DefaultProductID,
		LeadTime:     sim.DefaultLeadTime,
		TransitDelay: twin.DefaultTransitDelay,
		Topology:     chain.BeerGameSpecs(),
		Policies: []PolicyEntry{
			{Name: "Order equals demand", Spec: policy.Spec{Policy: policy.NameOrderEqualsDemand}},
			{Name: "Order up to 150", Spec: policy.Spec{Policy: policy.NameOrderUpTo, Params: map[string]float64{"level": 150}}},
			{Name: "Anchor and adjust", Spec: policy.Spec{Policy: policy.NameAnchorAndAdjust, Params: map[string]float64{"target": 120, "alpha": 0.3}}},
		},
	}
}

// LoadScenario parses a scenario file with strict field checking and fills
// omitted sections from DefaultScenario.
func LoadScenario(path string) (Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Scenario{}, fmt.Errorf("reading scenario: %w", err)
	}
	return parseScenario(data)
}

func parseScenario(data []byte) (Scenario, error) {
	var sc Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&sc); err != nil {
		return Scenario{}, fmt.Errorf("parsing scenario YAML: %w", err)
	}
	sc.applyDefaults()
	return sc, nil
}

func (sc *Scenario) applyDefaults() {
	def := DefaultScenario()
	if sc.Steps == 0 {
		sc.Steps = def.Steps
	}
	if sc.Product == "" {
		sc.Product = def.Product
	}
	if sc.LeadTime == 0 {
		sc.LeadTime = def.LeadTime
	}
	if sc.TransitDelay == 0 {
		sc.TransitDelay = def.TransitDelay
	}
	if len(sc.Topology) == 0 {
		sc.Topology = def.Topology
	}
	if len(sc.Policies) == 0 {
		sc.Policies = def.Policies
	}
}

// BuildTopology validates the declared chain.
func (sc Scenario) BuildTopology() (*chain.Topology, error) {
	return chain.NewTopology(sc.Topology)
}

// BuildTwin returns a fresh twin of the declared chain.
func (sc Scenario) BuildTwin() (*twin.DigitalTwin, error) {
	topo, err := sc.BuildTopology()
	if err != nil {
		return nil, err
	}
	return twin.New(topo, twin.Config{TransitDelay: sc.TransitDelay})
}

// EngineConfig returns the simulator model for this scenario.
func (sc Scenario) EngineConfig() (sim.Config, error) {
	topo, err := sc.BuildTopology()
	if err != nil {
		return sim.Config{}, err
	}
	demand, err := sim.NewDemandSampler(sc.Demand)
	if err != nil {
		return sim.Config{}, err
	}
	holding := sim.DefaultHoldingCost
	if sc.HoldingCost != nil {
		holding = *sc.HoldingCost
	}
	return sim.Config{
		Topology:    topo,
		ProductID:   sc.Product,
		HoldingCost: holding,
		LeadTime:    sc.LeadTime,
		Demand:      demand,
	}, nil
}

// BuildPolicies constructs every listed policy, in order. Unnamed entries are
// labelled with the policy's own name.
func (sc Scenario) BuildPolicies() ([]string, []policy.Policy, error) {
	names := make([]string, 0, len(sc.Policies))
	policies := make([]policy.Policy, 0, len(sc.Policies))
	seen := make(map[string]bool, len(sc.Policies))
	for i, entry := range sc.Policies {
		p, err := policy.New(entry.Spec)
		if err != nil {
			return nil, nil, fmt.Errorf("policies[%d]: %w", i, err)
		}
		name := entry.Name
		if name == "" {
			name = p.Name()
		}
		if seen[name] {
			return nil, nil, fmt.Errorf("policies[%d]: duplicate scenario name %q", i, name)
		}
		seen[name] = true
		names = append(names, name)
		policies = append(policies, p)
	}
	return names, policies, nil
}
