package sim

import (
	"fmt"
	"math"
	"sync/atomic"
)

// AgeBucketYears is the width of one population age bucket.
const AgeBucketYears = 10

// PopulationConfig groups the contact-rate model parameters.
type PopulationConfig struct {
	// ContactMeansByAge is the mean daily contact count by age threshold
	// (greatest <= lookup).
	ContactMeansByAge ClassedValues

	// ContactSigma is the log-normal shape of the daily contact draw.
	// Zero makes contact counts deterministic at the classed mean.
	ContactSigma float64

	// IllnessContactFactor scales and IllnessContactLimit caps the contact
	// count of symptomatic agents.
	IllnessContactFactor float64
	IllnessContactLimit  int
}

// Population holds the per-age-bucket aggregate counters and the
// contact-rate model. Counters are atomics so the concurrent phase can
// update them race-free; at every observation point each bucket satisfies
// susceptible + infected + recovered + dead == bucket total.
type Population struct {
	ContactMeansByAge    ClassedValues
	ContactSigma         float64
	IllnessContactFactor float64
	IllnessContactLimit  int

	// mobilityFactor scales every contact draw; 1 means unrestricted.
	// massGatheringLimit caps it; 0 means no cap. Both change only in the
	// sequential phase.
	mobilityFactor     float64
	massGatheringLimit int

	totals      []int64
	susceptible []atomic.Int64
	infected    []atomic.Int64
	detected    []atomic.Int64
	hospitalize []atomic.Int64
	inICU       []atomic.Int64
	recovered   []atomic.Int64
	dead        []atomic.Int64
	allInfected []atomic.Int64
	allDetected []atomic.Int64
}

// NewPopulation builds the aggregate counters for the given per-bucket
// population counts, everyone initially susceptible.
func NewPopulation(bucketCounts []int, cfg PopulationConfig) *Population {
	n := len(bucketCounts)
	p := &Population{
		ContactMeansByAge:    cfg.ContactMeansByAge,
		ContactSigma:         cfg.ContactSigma,
		IllnessContactFactor: cfg.IllnessContactFactor,
		IllnessContactLimit:  cfg.IllnessContactLimit,
		mobilityFactor:       1,
		totals:               make([]int64, n),
		susceptible:          make([]atomic.Int64, n),
		infected:             make([]atomic.Int64, n),
		detected:             make([]atomic.Int64, n),
		hospitalize:          make([]atomic.Int64, n),
		inICU:                make([]atomic.Int64, n),
		recovered:            make([]atomic.Int64, n),
		dead:                 make([]atomic.Int64, n),
		allInfected:          make([]atomic.Int64, n),
		allDetected:          make([]atomic.Int64, n),
	}
	for i, count := range bucketCounts {
		p.totals[i] = int64(count)
		p.susceptible[i].Store(int64(count))
	}
	return p
}

// Buckets returns the number of age buckets.
func (p *Population) Buckets() int { return len(p.totals) }

// bucketFor maps an age to its bucket, clamping ages beyond the last one.
func (p *Population) bucketFor(age int) int {
	b := age / AgeBucketYears
	if b >= len(p.totals) {
		b = len(p.totals) - 1
	}
	return b
}

func (p *Population) AddSusceptible(age int, delta int64) {
	p.susceptible[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddInfected(age int, delta int64) {
	p.infected[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddDetected(age int, delta int64) {
	p.detected[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddHospitalized(age int, delta int64) {
	p.hospitalize[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddInICU(age int, delta int64) {
	p.inICU[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddRecovered(age int, delta int64) {
	p.recovered[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddDead(age int, delta int64) {
	p.dead[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddAllInfected(age int, delta int64) {
	p.allInfected[p.bucketFor(age)].Add(delta)
}
func (p *Population) AddAllDetected(age int, delta int64) {
	p.allDetected[p.bucketFor(age)].Add(delta)
}

// MobilityFactor returns the current global contact multiplier.
func (p *Population) MobilityFactor() float64 { return p.mobilityFactor }

// SetMobilityFactor sets the global contact multiplier (limit-mobility
// intervention). Sequential phase only.
func (p *Population) SetMobilityFactor(f float64) {
	p.mobilityFactor = max(f, 0)
}

// MassGatheringLimit returns the current contact cap, 0 for none.
func (p *Population) MassGatheringLimit() int { return p.massGatheringLimit }

// SetMassGatheringLimit caps daily contact counts (limit-mass-gatherings
// intervention). Sequential phase only.
func (p *Population) SetMassGatheringLimit(n int) {
	p.massGatheringLimit = max(n, 0)
}

// ContactCount draws today's contact count for an agent of the given age:
// a log-normal centered on the age-classed mean, scaled by global mobility
// and the caller's factor, capped by the caller's limit and the
// mass-gathering limit, floored to an integer.
func (p *Population) ContactCount(age int, factor float64, limit int, r *Rand) int {
	mean := p.ContactMeansByAge.GreatestLE(age, 0)
	if mean <= 0 || p.mobilityFactor <= 0 || factor <= 0 {
		return 0
	}
	n := mean
	if p.ContactSigma != 0 {
		n = r.LogNormal(math.Log(mean), p.ContactSigma)
	}
	n *= p.mobilityFactor * factor
	if limit > 0 && n > float64(limit) {
		n = float64(limit)
	}
	if p.massGatheringLimit > 0 && n > float64(p.massGatheringLimit) {
		n = float64(p.massGatheringLimit)
	}
	return int(n)
}

// snapshotOf loads an atomic counter slice into a plain one.
func snapshotOf(counters []atomic.Int64) []int64 {
	out := make([]int64, len(counters))
	for i := range counters {
		out[i] = counters[i].Load()
	}
	return out
}

// CheckConservation verifies that every bucket still accounts for its full
// population: susceptible + infected + recovered + dead == total.
func (p *Population) CheckConservation() error {
	for i := range p.totals {
		sum := p.susceptible[i].Load() + p.infected[i].Load() + p.recovered[i].Load() + p.dead[i].Load()
		if sum != p.totals[i] {
			return fmt.Errorf("age bucket %d leaks population: susceptible+infected+recovered+dead = %d, want %d",
				i, sum, p.totals[i])
		}
	}
	return nil
}
