package sim

// PersonState is the per-agent infection/illness/care state.
type PersonState uint8

const (
	Susceptible PersonState = iota
	Incubation
	Illness
	Hospitalized
	InICU
	Recovered
	Dead
)

func (s PersonState) String() string {
	switch s {
	case Susceptible:
		return "susceptible"
	case Incubation:
		return "incubation"
	case Illness:
		return "illness"
	case Hospitalized:
		return "hospitalized"
	case InICU:
		return "in-icu"
	case Recovered:
		return "recovered"
	case Dead:
		return "dead"
	}
	return "unknown"
}

// MaxInfectees is the fixed capacity of an agent's infectee list. Exceeding
// it is a hard simulation error, never a silent drop.
const MaxInfectees = 64

// Person is one simulated individual. A Person is allocated once at
// population creation with a permanently fixed index and age, mutated in
// place for the whole run, and never removed: death and recovery are
// terminal states, not deallocation.
type Person struct {
	ID  int32
	Age int

	IsInfected       bool
	HasImmunity      bool
	WasDetected      bool
	QueuedForTesting bool
	IncludedInTotals bool

	State    PersonState
	Severity Severity

	// DaysLeft counts down to the next state transition. During incubation
	// it doubles as the (negated) day relative to symptom onset.
	DaysLeft       int
	DayOfIllness   int
	DayOfInfection int

	// DaysFromOnsetToRemoved is the precomputed horizon critical/fatal
	// sub-phase durations are carved from.
	DaysFromOnsetToRemoved float64

	OtherPeopleInfected     int
	OtherPeopleExposedToday int

	// InfectorID is a back-reference to the agent this one caught the
	// infection from, -1 for seeded/imported cases.
	InfectorID int32

	// infectees is only populated in contact-tracing mode; capacity-bounded
	// by MaxInfectees and released once the agent is removed.
	infectees []int32

	rand *Rand
}

// Infectees returns the ordered infectee list built in contact-tracing mode.
func (p *Person) Infectees() []int32 {
	return p.infectees
}

// addInfectee appends a freshly infected contact. The list is allocated on
// first use with its full fixed capacity; overflow is fatal.
func (p *Person) addInfectee(id int32) error {
	if p.infectees == nil {
		p.infectees = make([]int32, 0, MaxInfectees)
	}
	if len(p.infectees) >= MaxInfectees {
		return &SimulationError{
			Kind:   TooManyInfectees,
			Person: p.ID,
			Detail: "infectee list capacity exceeded",
		}
	}
	p.infectees = append(p.infectees, id)
	return nil
}

// exposureProposal is one contact event collected during the concurrent
// phase: source met target while shedding at the recorded infectiousness.
// Whether the contact converts is decided in the sequential merge pass.
type exposureProposal struct {
	Source         int32
	Target         int32
	Infectiousness float64
}

// careRequest is a deferred claim on a contended healthcare pool: a ward
// admission, or a ward-to-ICU transfer for icu requests. Claims are resolved
// in the sequential merge pass so that which agent gets the last unit never
// depends on worker scheduling.
type careRequest struct {
	person int32
	icu    bool
}

// dayBuffer is one worker's private collection of exposure proposals and
// care requests for a single simulated day.
type dayBuffer struct {
	proposals []exposureProposal
	care      []careRequest
}

// advance runs one simulated day of p's state machine. It mutates only p
// itself and the shared atomic aggregates, and releases (never acquires)
// healthcare pool units; contacts with other agents and claims on contended
// pools are collected into buf for the sequential merge pass.
func (p *Person) advance(c *Clock, buf *dayBuffer) {
	p.OtherPeopleExposedToday = 0
	if !p.IsInfected {
		return
	}
	p.DayOfInfection++
	switch p.State {
	case Incubation:
		p.expose(c, buf)
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			p.becomeIll(c)
		}
	case Illness:
		p.expose(c, buf)
		p.DayOfIllness++
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			if p.Severity >= SeveritySevere {
				buf.care = append(buf.care, careRequest{person: p.ID})
			} else {
				p.recover(c)
			}
		}
	case Hospitalized:
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			if p.Severity >= SeverityCritical {
				buf.care = append(buf.care, careRequest{person: p.ID, icu: true})
			} else {
				p.releaseFromHospital(c)
			}
		}
	case InICU:
		p.DaysLeft--
		if p.DaysLeft <= 0 {
			p.releaseFromICU(c)
		}
	}
}

// expose draws today's contacts and records them as proposals. Detected
// agents are quarantined and expose nobody: SourceInfectiousness
// short-circuits them to zero.
func (p *Person) expose(c *Clock, buf *dayBuffer) {
	infectiousness := c.Disease.SourceInfectiousness(p)
	if infectiousness <= 0 {
		return
	}
	factor, limit := 1.0, 0
	if p.State == Illness {
		factor = c.Population.IllnessContactFactor
		limit = c.Population.IllnessContactLimit
	}
	contacts := c.Population.ContactCount(p.Age, factor, limit, p.rand)
	for i := 0; i < contacts; i++ {
		// Target may be anyone, including p itself or an already-immune
		// agent; such draws simply fail to convert.
		target := int32(p.rand.IntN(len(c.People)))
		buf.proposals = append(buf.proposals, exposureProposal{
			Source:         p.ID,
			Target:         target,
			Infectiousness: infectiousness,
		})
	}
	p.OtherPeopleExposedToday = contacts
}

func (p *Person) becomeIll(c *Clock) {
	p.State = Illness
	p.DayOfIllness = 0
	p.DaysLeft = c.Disease.IllnessDays(p)
	if p.Severity != SeverityAsymptomatic && !p.WasDetected {
		c.Healthcare.SeekTesting(p)
	}
}

// hospitalize claims a bed, called from the merge pass in agent-index order.
// Without one, the case resolves immediately through the no-care death roll
// and never counts as hospitalized.
func (p *Person) hospitalize(c *Clock) {
	if !c.Healthcare.AdmitToHospital() {
		p.resolveWithoutCare(c)
		return
	}
	p.State = Hospitalized
	p.DaysLeft = c.Disease.HospitalDays(p)
	c.Population.AddHospitalized(p.Age, 1)
	if !p.WasDetected {
		c.Healthcare.SeekTesting(p)
	}
}

// transferToICU moves a critical case from the ward to intensive care,
// called from the merge pass in agent-index order. The ward bed is freed
// either way; a missing ICU unit resolves the case through the no-care
// death roll.
func (p *Person) transferToICU(c *Clock) {
	if err := c.Healthcare.ReleaseHospitalBed(); err != nil {
		c.recordProblem(err)
	}
	c.Population.AddHospitalized(p.Age, -1)
	if !c.Healthcare.AdmitToICU() {
		p.resolveWithoutCare(c)
		return
	}
	p.State = InICU
	p.DaysLeft = c.Disease.ICUDays(p)
	c.Population.AddInICU(p.Age, 1)
}

func (p *Person) releaseFromHospital(c *Clock) {
	if err := c.Healthcare.ReleaseHospitalBed(); err != nil {
		c.recordProblem(err)
	}
	c.Population.AddHospitalized(p.Age, -1)
	p.resolveWithCare(c)
}

func (p *Person) releaseFromICU(c *Clock) {
	if err := c.Healthcare.ReleaseICUUnit(); err != nil {
		c.recordProblem(err)
	}
	c.Population.AddInICU(p.Age, -1)
	p.resolveWithCare(c)
}

func (p *Person) resolveWithCare(c *Clock) {
	prob := c.Disease.DeathProbability(p.Severity, p.Age, true)
	if p.rand.Bernoulli(prob) {
		p.die(c)
	} else {
		p.recover(c)
	}
}

func (p *Person) resolveWithoutCare(c *Clock) {
	prob := c.Disease.DeathProbability(p.Severity, p.Age, false)
	if p.rand.Bernoulli(prob) {
		p.die(c)
	} else {
		p.recover(c)
	}
}

func (p *Person) die(c *Clock)     { p.remove(c, Dead) }
func (p *Person) recover(c *Clock) { p.remove(c, Recovered) }

// remove finishes p's run through the state machine. Both terminal states
// confer immunity (the dead included, which keeps removed agents out of
// further exposure checks), end infectiousness, release the infectee
// buffer, and feed the reproduction-number totals exactly once.
func (p *Person) remove(c *Clock, final PersonState) {
	p.State = final
	p.IsInfected = false
	p.HasImmunity = true
	if p.WasDetected {
		c.Population.AddDetected(p.Age, -1)
	}
	c.Population.AddInfected(p.Age, -1)
	if final == Dead {
		c.Population.AddDead(p.Age, 1)
	} else {
		c.Population.AddRecovered(p.Age, 1)
	}
	if !p.IncludedInTotals {
		c.addToTotals(p)
		p.IncludedInTotals = true
	}
	p.infectees = nil
}
