package sim

import (
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
)

// TestingMode selects who self-enqueues for testing.
type TestingMode int

const (
	TestingNone TestingMode = iota
	TestingAllWithSymptoms
	TestingOnlySevere
)

func (m TestingMode) String() string {
	switch m {
	case TestingNone:
		return "none"
	case TestingAllWithSymptoms:
		return "all-with-symptoms"
	case TestingOnlySevere:
		return "only-severe"
	}
	return "unknown"
}

// DefaultTraceDepth is the contact-tracing hop limit from an index case
// when a scenario does not configure one.
const DefaultTraceDepth = 2

// HealthcareConfig sizes the healthcare system at construction.
type HealthcareConfig struct {
	HospitalBeds int64 // total ward beds (must be >= 0)
	ICUUnits     int64 // total intensive-care units (must be >= 0)
	TraceDepth   int   // contact-tracing hop limit (0 = DefaultTraceDepth)

	// PDetectedAnyway is the residual probability that a non-severe
	// symptomatic case still gets tested in only-severe mode.
	PDetectedAnyway float64
}

// testRequest is one queued test: the agent and how many tracing hops away
// from the index case it was enqueued.
type testRequest struct {
	id   int32
	hops int
}

// HealthcareSystem owns the bed/ICU resource pools, the daily testing queue
// and the contact-tracing policy.
//
// Pool admission and release are safe to call from the concurrent phase
// (lock-free CAS counters); the testing queue accepts concurrent enqueues
// behind a mutex but is drained strictly sequentially, once per day.
type HealthcareSystem struct {
	totalBeds     int64
	totalICU      int64
	availableBeds atomic.Int64
	availableICU  atomic.Int64

	mode            TestingMode
	contactTracing  bool
	traceDepth      int
	pDetectedAnyway float64

	mu    sync.Mutex
	queue []testRequest
}

// NewHealthcareSystem builds a healthcare system with full pools, testing
// disabled and contact tracing off.
func NewHealthcareSystem(cfg HealthcareConfig) *HealthcareSystem {
	h := &HealthcareSystem{
		totalBeds:       cfg.HospitalBeds,
		totalICU:        cfg.ICUUnits,
		traceDepth:      cfg.TraceDepth,
		pDetectedAnyway: cfg.PDetectedAnyway,
	}
	if h.traceDepth <= 0 {
		h.traceDepth = DefaultTraceDepth
	}
	h.availableBeds.Store(cfg.HospitalBeds)
	h.availableICU.Store(cfg.ICUUnits)
	return h
}

// Mode returns the active testing mode.
func (h *HealthcareSystem) Mode() TestingMode { return h.mode }

// ContactTracing reports whether detected cases trigger contact traces and
// infectious agents build infectee lists.
func (h *HealthcareSystem) ContactTracing() bool { return h.contactTracing }

// SetMode switches the testing policy. Must only be called from the
// sequential phase (interventions).
func (h *HealthcareSystem) SetMode(mode TestingMode, contactTracing bool) {
	h.mode = mode
	h.contactTracing = contactTracing
}

// SetTraceDepth overrides the contact-tracing hop limit.
func (h *HealthcareSystem) SetTraceDepth(depth int) {
	if depth > 0 {
		h.traceDepth = depth
	}
}

// SetDetectedAnyway sets the residual testing probability for only-severe
// mode.
func (h *HealthcareSystem) SetDetectedAnyway(p float64) {
	h.pDetectedAnyway = p
}

// TotalBeds returns the ward capacity.
func (h *HealthcareSystem) TotalBeds() int64 { return h.totalBeds }

// TotalICU returns the intensive-care capacity.
func (h *HealthcareSystem) TotalICU() int64 { return h.totalICU }

// AvailableBeds returns the free ward beds.
func (h *HealthcareSystem) AvailableBeds() int64 { return h.availableBeds.Load() }

// AvailableICU returns the free intensive-care units.
func (h *HealthcareSystem) AvailableICU() int64 { return h.availableICU.Load() }

// AddBeds grows the ward pool (build-new-hospital-beds intervention).
func (h *HealthcareSystem) AddBeds(n int64) {
	h.totalBeds += n
	h.availableBeds.Add(n)
}

// AddICUUnits grows the intensive-care pool.
func (h *HealthcareSystem) AddICUUnits(n int64) {
	h.totalICU += n
	h.availableICU.Add(n)
}

// AdmitToHospital claims a ward bed. Admission succeeds iff a bed is free.
func (h *HealthcareSystem) AdmitToHospital() bool {
	return acquireUnit(&h.availableBeds)
}

// AdmitToICU claims an intensive-care unit.
func (h *HealthcareSystem) AdmitToICU() bool {
	return acquireUnit(&h.availableICU)
}

// ReleaseHospitalBed returns a ward bed to the pool.
func (h *HealthcareSystem) ReleaseHospitalBed() *SimulationError {
	return releaseUnit(&h.availableBeds, h.totalBeds, "hospital bed")
}

// ReleaseICUUnit returns an intensive-care unit to the pool.
func (h *HealthcareSystem) ReleaseICUUnit() *SimulationError {
	return releaseUnit(&h.availableICU, h.totalICU, "icu unit")
}

func acquireUnit(available *atomic.Int64) bool {
	for {
		v := available.Load()
		if v <= 0 {
			return false
		}
		if available.CompareAndSwap(v, v-1) {
			return true
		}
	}
}

func releaseUnit(available *atomic.Int64, total int64, what string) *SimulationError {
	if v := available.Add(1); v > total {
		return &SimulationError{
			Kind:   HospitalAccountingFailure,
			Person: -1,
			Detail: fmt.Sprintf("released %s beyond pool total (%d > %d)", what, v, total),
		}
	}
	return nil
}

// SeekTesting lets a symptomatic agent self-enqueue for testing according
// to the active mode. In only-severe mode, non-severe cases still enqueue
// with the residual random-anyway probability. Safe to call from the
// concurrent phase.
func (h *HealthcareSystem) SeekTesting(p *Person) {
	switch h.mode {
	case TestingNone:
		return
	case TestingOnlySevere:
		if p.Severity < SeveritySevere && !p.rand.Bernoulli(h.pDetectedAnyway) {
			return
		}
	}
	h.enqueue(p, 0)
}

// enqueue adds p to the testing queue unless it is already queued or
// already detected; re-queueing is a no-op.
func (h *HealthcareSystem) enqueue(p *Person, hops int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if p.QueuedForTesting || p.WasDetected {
		return
	}
	p.QueuedForTesting = true
	h.queue = append(h.queue, testRequest{id: p.ID, hops: hops})
}

// QueueLength returns the number of pending test requests.
func (h *HealthcareSystem) QueueLength() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.queue)
}

// RunTests drains the testing queue, including entries added by contact
// traces along the way, and returns how many tests were run. It must only
// be called from the sequential phase. A queued agent whose flag is not set
// is a programming error and aborts the run immediately.
func (h *HealthcareSystem) RunTests(c *Clock) (int, error) {
	tested := 0
	for {
		h.mu.Lock()
		batch := h.queue
		h.queue = nil
		h.mu.Unlock()
		if len(batch) == 0 {
			return tested, nil
		}
		// Deterministic drain order regardless of enqueue interleaving.
		sort.Slice(batch, func(i, j int) bool {
			if batch[i].hops != batch[j].hops {
				return batch[i].hops < batch[j].hops
			}
			return batch[i].id < batch[j].id
		})
		for _, req := range batch {
			p := c.People[req.id]
			if !p.QueuedForTesting {
				return tested, fmt.Errorf("testing queue invariant violated: person %d not marked as queued", p.ID)
			}
			p.QueuedForTesting = false
			tested++
			if !h.detectable(c, p) {
				continue
			}
			p.WasDetected = true
			c.Population.AddDetected(p.Age, 1)
			c.Population.AddAllDetected(p.Age, 1)
			if h.contactTracing && req.hops < h.traceDepth {
				h.traceContacts(c, p, req.hops+1)
			}
		}
	}
}

// detectable reports whether a test comes back positive: hospitalized and
// ICU patients unconditionally, everyone else iff currently infectious.
func (h *HealthcareSystem) detectable(c *Clock, p *Person) bool {
	if p.State == Hospitalized || p.State == InICU {
		return true
	}
	return c.Disease.SourceInfectiousness(p) > 0
}

// traceContacts enqueues the detected agent's infector and all infectees at
// the given hop distance from the index case.
func (h *HealthcareSystem) traceContacts(c *Clock, p *Person, hops int) {
	if p.InfectorID >= 0 {
		h.enqueue(c.People[p.InfectorID], hops)
	}
	for _, id := range p.infectees {
		h.enqueue(c.People[id], hops)
	}
}
