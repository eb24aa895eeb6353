package sim

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

// ClockConfig groups everything needed to build a simulation run.
type ClockConfig struct {
	// AgeBucketCounts is the population pyramid: one agent per unit count
	// per ten-year bucket.
	AgeBucketCounts []int

	Disease DiseaseParams

	// Tables of the disease model (see DiseaseModel).
	SevereChanceByAge        ClassedValues
	CriticalChanceByAge      ClassedValues
	ICUDeathWithoutCareByAge ClassedValues
	InfectiousnessByDay      ClassedValues

	Healthcare HealthcareConfig
	Population PopulationConfig

	StartDate time.Time
	Seed      int64

	// Workers sizes the concurrent phase's pool; 0 means GOMAXPROCS.
	Workers int
}

// Clock owns the agent array and the simulation subsystems and advances the
// run one simulated day per Iterate call.
type Clock struct {
	Day       int
	StartDate time.Time

	People     []*Person
	RNG        *PartitionedRNG
	Disease    *DiseaseModel
	Healthcare *HealthcareSystem
	Population *Population
	Metrics    *Metrics

	interventions     []Intervention
	crossBorderFactor float64

	workers int
	failed  bool

	// problem is the sticky first-error-wins cell for failures detected
	// inside the concurrent phase.
	problem atomic.Pointer[SimulationError]

	totalInfectors  atomic.Int64
	totalInfections atomic.Int64

	dailyExposures  int64
	dailyInfections int64
	dailyTests      int
}

// NewClock builds the fixed agent population (one agent per unit count per
// bucket, ages shuffled so iteration order does not correlate with age),
// wires the disease, healthcare and population subsystems, and seeds the
// random source.
func NewClock(cfg ClockConfig) (*Clock, error) {
	if len(cfg.AgeBucketCounts) == 0 {
		return nil, fmt.Errorf("no age buckets configured")
	}
	total := 0
	for i, n := range cfg.AgeBucketCounts {
		if n < 0 {
			return nil, fmt.Errorf("age bucket %d has negative count %d", i, n)
		}
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("population is empty")
	}
	if cfg.Healthcare.HospitalBeds < 0 || cfg.Healthcare.ICUUnits < 0 {
		return nil, fmt.Errorf("healthcare capacities must not be negative")
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	c := &Clock{
		StartDate:         cfg.StartDate,
		RNG:               NewPartitionedRNG(NewSimulationKey(cfg.Seed)),
		Disease:           NewDiseaseModel(cfg.Disease, cfg.SevereChanceByAge, cfg.CriticalChanceByAge, cfg.ICUDeathWithoutCareByAge, cfg.InfectiousnessByDay),
		Healthcare:        NewHealthcareSystem(cfg.Healthcare),
		Population:        NewPopulation(cfg.AgeBucketCounts, cfg.Population),
		Metrics:           NewMetrics(),
		crossBorderFactor: 1,
		workers:           workers,
	}

	// Expand the pyramid into concrete ages, then shuffle so index order
	// carries no age signal.
	popRNG := c.RNG.ForSubsystem(SubsystemPopulation)
	ages := make([]int, 0, total)
	for bucket, count := range cfg.AgeBucketCounts {
		for i := 0; i < count; i++ {
			ages = append(ages, bucket*AgeBucketYears+popRNG.IntN(AgeBucketYears))
		}
	}
	for i := len(ages) - 1; i > 0; i-- {
		j := popRNG.IntN(i + 1)
		ages[i], ages[j] = ages[j], ages[i]
	}
	c.People = make([]*Person, total)
	for i, age := range ages {
		id := int32(i)
		c.People[i] = &Person{
			ID:         id,
			Age:        age,
			State:      Susceptible,
			InfectorID: -1,
			rand:       NewRand(cfg.Seed ^ fnv1a64(SubsystemPerson(id))),
		}
	}
	return c, nil
}

// Iterate advances one simulated day. A non-nil error means the run is
// corrupted and the clock is non-resumable.
func (c *Clock) Iterate() error {
	if c.failed {
		return fmt.Errorf("simulation already failed; clock is not resumable")
	}

	// Phase 1: strictly sequential. Interventions and the testing-queue
	// drain mutate shared queue state and resource pools and must not race
	// with agent advancement.
	c.applyInterventions()
	c.resetDailyCounters()
	tests, err := c.Healthcare.RunTests(c)
	if err != nil {
		c.failed = true
		return err
	}
	c.dailyTests = tests

	// Phase 2: concurrent per-agent advancement. Cross-agent effects are
	// collected as proposals, not applied.
	buffers := c.advanceAll()
	if p := c.problem.Load(); p != nil {
		c.failed = true
		return p
	}

	// Merge pass: resolve the day's care claims and exposures in
	// deterministic order.
	c.applyCareRequests(buffers)
	if p := c.problem.Load(); p != nil {
		c.failed = true
		return p
	}
	if err := c.applyExposures(buffers); err != nil {
		c.failed = true
		return err
	}

	state := c.GenerateState()
	c.Metrics.RecordDay(state)
	logrus.Debugf("[day %03d] infected=%d detected=%d hospitalized=%d icu=%d dead=%d r=%.2f",
		c.Day, sumInt64(state.Infected), sumInt64(state.Detected),
		sumInt64(state.Hospitalized), sumInt64(state.InICU), sumInt64(state.Dead), state.R)

	c.Day++
	return nil
}

func (c *Clock) resetDailyCounters() {
	c.dailyExposures = 0
	c.dailyInfections = 0
	c.dailyTests = 0
}

// advanceAll dispatches the per-agent advance across the worker pool. Each
// worker owns a non-overlapping slice of indices starting at a randomized
// offset into the agent array; ordering across agents within a day is not
// guaranteed and nothing may rely on it.
func (c *Clock) advanceAll() []*dayBuffer {
	n := len(c.People)
	offset := c.RNG.ForSubsystem(SubsystemSchedule).IntN(n)
	workers := min(c.workers, n)
	chunk := (n + workers - 1) / workers

	buffers := make([]*dayBuffer, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		buffers[w] = &dayBuffer{}
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					c.recordProblem(&SimulationError{
						Kind:   OtherFailure,
						Person: -1,
						Detail: fmt.Sprintf("worker panic: %v", r),
					})
				}
			}()
			start := w * chunk
			end := min(start+chunk, n)
			for i := start; i < end; i++ {
				c.People[(i+offset)%n].advance(c, buffers[w])
			}
		}(w)
	}
	wg.Wait()
	return buffers
}

// applyCareRequests resolves the day's claims on the contended healthcare
// pools in agent-index order. All of the day's releases happened during
// advancement, so every claimant sees the same pool state no matter how the
// concurrent phase was scheduled.
func (c *Clock) applyCareRequests(buffers []*dayBuffer) {
	var reqs []careRequest
	for _, b := range buffers {
		reqs = append(reqs, b.care...)
	}
	sort.Slice(reqs, func(i, j int) bool {
		return reqs[i].person < reqs[j].person
	})
	for _, req := range reqs {
		p := c.People[req.person]
		if req.icu {
			p.transferToICU(c)
		} else {
			p.hospitalize(c)
		}
	}
}

// applyExposures resolves the day's collected exposure proposals
// sequentially, ordered by source index so outcomes do not depend on worker
// scheduling. A target converts with a single Bernoulli draw at the
// source's recorded infectiousness; non-susceptible targets simply fail to
// convert, they are not re-drawn.
func (c *Clock) applyExposures(buffers []*dayBuffer) error {
	var proposals []exposureProposal
	for _, b := range buffers {
		proposals = append(proposals, b.proposals...)
	}
	// Stable sort keeps each source's draws in the order they were made.
	sort.SliceStable(proposals, func(i, j int) bool {
		return proposals[i].Source < proposals[j].Source
	})

	r := c.RNG.ForSubsystem(SubsystemExposure)
	infections := int64(0)
	for _, prop := range proposals {
		target := c.People[prop.Target]
		if target.IsInfected || target.HasImmunity {
			continue
		}
		if !r.Bernoulli(prop.Infectiousness) {
			continue
		}
		c.infectPerson(target, prop.Source)
		source := c.People[prop.Source]
		source.OtherPeopleInfected++
		if c.Healthcare.ContactTracing() {
			if err := source.addInfectee(target.ID); err != nil {
				return err
			}
		}
		infections++
	}
	c.dailyExposures = int64(len(proposals))
	c.dailyInfections = infections
	return nil
}

// infectPerson converts a susceptible agent: severity and incubation are
// sampled immediately from the target's personal stream, and the
// back-reference to the infector is set.
func (c *Clock) infectPerson(p *Person, infector int32) {
	p.IsInfected = true
	p.State = Incubation
	p.InfectorID = infector
	p.DayOfInfection = 0
	p.DayOfIllness = 0
	p.Severity = c.Disease.SampleSeverity(p.Age, p.rand)
	p.DaysLeft = c.Disease.IncubationDays(p.rand)
	p.DaysFromOnsetToRemoved = c.Disease.OnsetToRemovedHorizon(p.rand)
	c.Population.AddSusceptible(p.Age, -1)
	c.Population.AddInfected(p.Age, 1)
	c.Population.AddAllInfected(p.Age, 1)
}

// InfectPeople force-infects count uniformly random susceptible agents,
// scaled by the cross-border mobility factor. Used for seeding and the
// import-infections intervention. Returns how many infections landed.
func (c *Clock) InfectPeople(count int) int {
	want := int(math.Round(float64(count) * c.crossBorderFactor))
	if want <= 0 {
		return 0
	}
	r := c.RNG.ForSubsystem(SubsystemImports)
	n := len(c.People)
	infected := 0
	// Non-susceptible draws are retried, but bounded so a saturated
	// population cannot spin forever.
	for attempts := 0; infected < want && attempts < n*8; attempts++ {
		p := c.People[r.IntN(n)]
		if p.IsInfected || p.HasImmunity {
			continue
		}
		c.infectPerson(p, -1)
		infected++
	}
	return infected
}

// GetPopulationStat returns the cumulative per-bucket series for "dead" or
// "all_infected". An unknown name is a fatal configuration error.
func (c *Clock) GetPopulationStat(name string) ([]int64, error) {
	switch name {
	case "dead":
		return snapshotOf(c.Population.dead), nil
	case "all_infected":
		return snapshotOf(c.Population.allInfected), nil
	}
	return nil, fmt.Errorf("unknown population stat %q", name)
}

// addToTotals feeds the reproduction-number estimate, once per agent, the
// first time it reaches a removed state.
func (c *Clock) addToTotals(p *Person) {
	c.totalInfectors.Add(1)
	c.totalInfections.Add(int64(p.OtherPeopleInfected))
}

// estimateR is the ratio of cumulative infections to cumulative infectors,
// reported only once more than 5 infectors exist.
func (c *Clock) estimateR() float64 {
	infectors := c.totalInfectors.Load()
	if infectors <= 5 {
		return 0
	}
	return float64(c.totalInfections.Load()) / float64(infectors)
}

// recordProblem records a concurrent-phase failure into the sticky cell;
// the first writer wins and the clock escalates after the phase joins.
func (c *Clock) recordProblem(e *SimulationError) {
	c.problem.CompareAndSwap(nil, e)
}

func sumInt64(xs []int64) int64 {
	var s int64
	for _, x := range xs {
		s += x
	}
	return s
}
