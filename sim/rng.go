package sim

import (
	"fmt"
	"hash/fnv"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// === SimulationKey ===

// SimulationKey uniquely identifies a reproducible simulation run.
// Two simulations with the same SimulationKey and identical configuration
// MUST produce bit-for-bit identical daily snapshots.
type SimulationKey int64

// NewSimulationKey creates a SimulationKey from a seed value.
func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// === Subsystem Constants ===

const (
	// SubsystemPopulation is the RNG subsystem for population construction
	// (age assignment and the age shuffle).
	SubsystemPopulation = "population"

	// SubsystemExposure is the RNG subsystem for infection conversion draws
	// in the exposure merge pass.
	SubsystemExposure = "exposure"

	// SubsystemImports is the RNG subsystem for forced (imported) infections.
	SubsystemImports = "imports"

	// SubsystemSchedule is the RNG subsystem for the daily iteration offset.
	SubsystemSchedule = "schedule"
)

// SubsystemPerson returns the subsystem name for the personal stream of
// agent N. Every agent draws its own dwell times, contact counts and
// exposure targets from its personal stream, so outcomes do not depend on
// how agents are interleaved across workers.
func SubsystemPerson(id int32) string {
	return fmt.Sprintf("person_%d", id)
}

// === Rand ===

const seedGamma = 0x9e3779b97f4a7c15

// Rand is the sampling primitive the simulation draws from: uniform,
// Bernoulli, gamma and log-normal variates over a single deterministic
// source. Gamma and log-normal sampling delegate to gonum's distuv over the
// shared PCG source, so the whole stream is reproducible for a fixed seed
// and call order.
//
// Thread-safety: NOT thread-safe. A Rand must only be used by one goroutine
// at a time; the engine gives every agent its own instance.
type Rand struct {
	src  *rand.PCG
	rand *rand.Rand
}

// NewRand creates a deterministically seeded Rand.
func NewRand(seed int64) *Rand {
	src := rand.NewPCG(uint64(seed), uint64(seed)^seedGamma)
	return &Rand{src: src, rand: rand.New(src)}
}

// Float64 returns a uniform draw in [0, 1).
func (r *Rand) Float64() float64 {
	return r.rand.Float64()
}

// IntN returns a uniform draw in [0, n). Panics if n <= 0.
func (r *Rand) IntN(n int) int {
	return r.rand.IntN(n)
}

// Bernoulli returns true with probability p. Out-of-range p is clamped:
// p >= 1 always succeeds and p <= 0 always fails, without consuming a draw.
func (r *Rand) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	return r.rand.Float64() < p
}

// Gamma returns a gamma variate parameterized by mean and coefficient of
// variation, the form disease duration parameters are given in.
func (r *Rand) Gamma(mean, cv float64) float64 {
	alpha := 1 / (cv * cv)
	g := distuv.Gamma{Alpha: alpha, Beta: alpha / mean, Src: r.src}
	return g.Rand()
}

// LogNormal returns a log-normal variate with parameters mu and sigma of
// the underlying normal. A zero sigma degenerates to exp(mu) exactly, which
// makes deterministic contact counts expressible in scenarios.
func (r *Rand) LogNormal(mu, sigma float64) float64 {
	if sigma == 0 {
		return math.Exp(mu)
	}
	ln := distuv.LogNormal{Mu: mu, Sigma: sigma, Src: r.src}
	return ln.Rand()
}

// === PartitionedRNG ===

// PartitionedRNG provides deterministic, isolated Rand instances per
// subsystem.
//
// Derivation formula: masterSeed XOR fnv1a64(subsystemName). Hash-based
// derivation keeps streams order-independent: drawing from one subsystem
// never perturbs another.
//
// Thread-safety: NOT thread-safe. Subsystem streams must be materialized
// before the concurrent phase starts.
type PartitionedRNG struct {
	key        SimulationKey
	subsystems map[string]*Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a SimulationKey.
func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{
		key:        key,
		subsystems: make(map[string]*Rand),
	}
}

// ForSubsystem returns a deterministically-seeded Rand for the named
// subsystem. The same subsystem name always returns the same instance
// (cached). Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := NewRand(int64(p.key) ^ fnv1a64(name))
	p.subsystems[name] = rng
	return rng
}

// Key returns the SimulationKey used to create this PartitionedRNG.
func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
