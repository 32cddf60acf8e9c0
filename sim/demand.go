package sim

import (
	"fmt"
	"math"
	"math/rand"
)

// DemandSampler draws the bottom node's exogenous customer demand.
// Implementations hold no mutable state; all randomness comes from rng, so a
// sampler may be shared by concurrent runs.
type DemandSampler interface {
	// Sample returns a non-negative demand quantity.
	Sample(rng *rand.Rand) int
}

// UniformDemand draws an integer uniformly from [Min, Max].
type UniformDemand struct {
	Min, Max int
}

func (d UniformDemand) Sample(rng *rand.Rand) int {
	if d.Max <= d.Min {
		return d.Min
	}
	return d.Min + rng.Intn(d.Max-d.Min+1)
}

// ConstantDemand always returns Quantity.
type ConstantDemand struct {
	Quantity int
}

func (d ConstantDemand) Sample(_ *rand.Rand) int {
	return d.Quantity
}

// GaussianDemand produces clamped Gaussian demand.
type GaussianDemand struct {
	Mean, StdDev float64
	Min, Max     int
}

func (d GaussianDemand) Sample(rng *rand.Rand) int {
	if d.Min == d.Max {
		return d.Min
	}
	val := rng.NormFloat64()*d.StdDev + d.Mean
	clamped := math.Min(float64(d.Max), math.Max(float64(d.Min), val))
	return int(math.Round(clamped))
}

// DemandSpec is the YAML form of a demand distribution.
type DemandSpec struct {
	Type   string             `yaml:"type"`
	Params map[string]float64 `yaml:"params"`
}

// requireParam checks that all required keys exist in a params map.
func requireParam(params map[string]float64, keys ...string) error {
	for _, k := range keys {
		if _, ok := params[k]; !ok {
			return fmt.Errorf("demand distribution requires parameter %q", k)
		}
	}
	return nil
}

// NewDemandSampler creates a DemandSampler from a DemandSpec.
// An empty type selects the reference uniform [10, 30] distribution.
func NewDemandSampler(spec DemandSpec) (DemandSampler, error) {
	var d DemandSampler
	switch spec.Type {
	case "":
		d = DefaultDemand()
	case "uniform":
		if err := requireParam(spec.Params, "min", "max"); err != nil {
			return nil, err
		}
		d = UniformDemand{Min: int(spec.Params["min"]), Max: int(spec.Params["max"])}
	case "constant":
		if err := requireParam(spec.Params, "quantity"); err != nil {
			return nil, err
		}
		d = ConstantDemand{Quantity: int(spec.Params["quantity"])}
	case "gaussian":
		if err := requireParam(spec.Params, "mean", "std_dev", "min", "max"); err != nil {
			return nil, err
		}
		d = GaussianDemand{
			Mean:   spec.Params["mean"],
			StdDev: spec.Params["std_dev"],
			Min:    int(spec.Params["min"]),
			Max:    int(spec.Params["max"]),
		}
	default:
		return nil, fmt.Errorf("unknown demand distribution type %q", spec.Type)
	}
	if err := validateDemand(d); err != nil {
		return nil, err
	}
	return d, nil
}

// DefaultDemand is the reference retailer demand: uniform integers in [10, 30].
func DefaultDemand() DemandSampler {
	return UniformDemand{Min: 10, Max: 30}
}

func validateDemand(d DemandSampler) error {
	switch v := d.(type) {
	case UniformDemand:
		if v.Min < 0 || v.Max < v.Min {
			return fmt.Errorf("uniform demand needs 0 <= min <= max, got [%d, %d]", v.Min, v.Max)
		}
	case ConstantDemand:
		if v.Quantity < 0 {
			return fmt.Errorf("constant demand must be non-negative, got %d", v.Quantity)
		}
	case GaussianDemand:
		if v.Min < 0 || v.Max < v.Min || v.StdDev < 0 {
			return fmt.Errorf("gaussian demand needs 0 <= min <= max and std_dev >= 0")
		}
	}
	return nil
}
