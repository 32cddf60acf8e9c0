package sim

import (
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the seed of a run. Identical requests with the same key
// produce identical histories.
type SimulationKey int64

// NewSimulationKey wraps a --seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

const (
	// SubsystemDemand is the RNG subsystem for exogenous customer demand.
	// Uses the master seed directly so --seed maps 1:1 onto the demand stream.
	SubsystemDemand = "demand"
)

// PartitionedRNG hands each stochastic part of a run its own stream, so
// adding draws in one part never shifts the demand sequence.
//
// The demand stream is seeded with the master seed itself so a run's demand
// draws match a plain rand.New(rand.NewSource(seed)); every other stream is
// seeded with the master seed XORed with the FNV-1a hash of its name.
//
// Not safe for concurrent use; each run owns one.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG returns a generator with no streams drawn yet.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns the stream for name, creating it on first use.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}

	var derivedSeed int64
	if name == SubsystemDemand {
		derivedSeed = int64(p.key)
	} else {
		derivedSeed = int64(p.key) ^ fnv1a64(name)
	}

	rng := rand.New(rand.NewSource(derivedSeed))
	p.subsystems[name] = rng
	return rng
}

// Key returns the run's seed.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 hashes a subsystem name into a seed offset.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
