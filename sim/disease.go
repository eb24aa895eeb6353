package sim

import "math"

// Severity is the outcome tier sampled once at infection time. It drives
// illness duration, care routing and death probabilities downstream.
type Severity uint8

const (
	SeverityAsymptomatic Severity = iota
	SeverityMild
	SeveritySevere
	SeverityCritical
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityAsymptomatic:
		return "asymptomatic"
	case SeverityMild:
		return "mild"
	case SeveritySevere:
		return "severe"
	case SeverityCritical:
		return "critical"
	case SeverityFatal:
		return "fatal"
	}
	return "unknown"
}

// DiseaseParams are the immutable scalar parameters of the disease model.
// They are fixed for the run; per-agent variation comes only from sampling.
type DiseaseParams struct {
	// PInfection scales the infectiousness-by-day table into a per-contact
	// transmission probability.
	PInfection float64

	// PAsymptomatic is the share of non-severe cases that never develop
	// symptoms.
	PAsymptomatic float64

	// FatalShare is the share of critical cases that die even with full
	// intensive care.
	FatalShare float64

	// PICUDeath is the death probability on ICU release when care was
	// available. FATAL cases die regardless of it.
	PICUDeath float64

	// PWardDeathWithoutBed is the death probability for a severe case that
	// needed a hospital bed and found none.
	PWardDeathWithoutBed float64

	// Incubation period: gamma(mean, cv).
	IncubationMeanDays float64
	IncubationCV       float64

	// Onset-to-removed horizon for critical and fatal cases: gamma(mean, cv).
	// Sub-phase durations are carved out of this horizon as fractions.
	OnsetToRemovedMeanDays float64
	OnsetToRemovedCV       float64

	// PreHospitalFraction and WardFraction are the shares of the horizon a
	// critical/fatal case spends ill at home and on the ward before the ICU;
	// the remainder is the ICU stay.
	PreHospitalFraction float64
	WardFraction        float64

	// Severe cases: gamma(mean, cv) draws for illness and ward stay.
	SevereIllnessMeanDays  float64
	SevereHospitalMeanDays float64
	IllnessCV              float64

	// Mild/asymptomatic cases: log-normal illness duration with the given
	// median and shape.
	MildIllnessMedianDays float64
	MildIllnessSigma      float64
}

// DiseaseModel combines the scalar parameters with the four age/day-classed
// tables of the stochastic disease model.
type DiseaseModel struct {
	Params DiseaseParams

	// SevereChanceByAge is P(severe or worse) by age threshold.
	SevereChanceByAge ClassedValues
	// CriticalChanceByAge is P(critical or worse | severe) by age threshold.
	CriticalChanceByAge ClassedValues
	// ICUDeathWithoutCareByAge is the death probability of a critical case
	// that needed intensive care and found none.
	ICUDeathWithoutCareByAge ClassedValues
	// InfectiousnessByDay maps signed days relative to symptom onset
	// (negative during incubation) to relative infectiousness. Days outside
	// the table contribute zero.
	InfectiousnessByDay ClassedValues
}

// NewDiseaseModel wires params and tables into a model.
func NewDiseaseModel(params DiseaseParams, severe, critical, icuDeath, infectiousness ClassedValues) *DiseaseModel {
	return &DiseaseModel{
		Params:                   params,
		SevereChanceByAge:        severe,
		CriticalChanceByAge:      critical,
		ICUDeathWithoutCareByAge: icuDeath,
		InfectiousnessByDay:      infectiousness,
	}
}

// SampleSeverity draws the outcome tier for a fresh infection at the given
// age. The thresholds nest multiplicatively (fatal below
// severe*critical*fatalShare, and so on), matching the original model's
// formula.
func (d *DiseaseModel) SampleSeverity(age int, r *Rand) Severity {
	u := r.Float64()
	severe := d.SevereChanceByAge.GreatestLE(age, 0)
	critical := d.CriticalChanceByAge.GreatestLE(age, 0)
	switch {
	case u < severe*critical*d.Params.FatalShare:
		return SeverityFatal
	case u < severe*critical:
		return SeverityCritical
	case u < severe:
		return SeveritySevere
	}
	if r.Bernoulli(d.Params.PAsymptomatic) {
		return SeverityAsymptomatic
	}
	return SeverityMild
}

// IncubationDays samples the incubation dwell time, at least one day.
func (d *DiseaseModel) IncubationDays(r *Rand) int {
	return atLeastOneDay(r.Gamma(d.Params.IncubationMeanDays, d.Params.IncubationCV))
}

// OnsetToRemovedHorizon samples the real-valued onset-to-removed horizon
// that critical and fatal sub-phase durations are derived from.
func (d *DiseaseModel) OnsetToRemovedHorizon(r *Rand) float64 {
	return r.Gamma(d.Params.OnsetToRemovedMeanDays, d.Params.OnsetToRemovedCV)
}

// IllnessDays samples the symptomatic (pre-hospital) dwell time for p.
func (d *DiseaseModel) IllnessDays(p *Person) int {
	switch p.Severity {
	case SeverityCritical, SeverityFatal:
		return atLeastOneDay(p.DaysFromOnsetToRemoved * d.Params.PreHospitalFraction)
	case SeveritySevere:
		return atLeastOneDay(p.rand.Gamma(d.Params.SevereIllnessMeanDays, d.Params.IllnessCV))
	default:
		mu := math.Log(d.Params.MildIllnessMedianDays)
		return atLeastOneDay(p.rand.LogNormal(mu, d.Params.MildIllnessSigma))
	}
}

// HospitalDays samples the ward dwell time for p.
func (d *DiseaseModel) HospitalDays(p *Person) int {
	if p.Severity >= SeverityCritical {
		return atLeastOneDay(p.DaysFromOnsetToRemoved * d.Params.WardFraction)
	}
	return atLeastOneDay(p.rand.Gamma(d.Params.SevereHospitalMeanDays, d.Params.IllnessCV))
}

// ICUDays derives the intensive-care dwell time for p as the remainder of
// the onset-to-removed horizon.
func (d *DiseaseModel) ICUDays(p *Person) int {
	rest := 1 - d.Params.PreHospitalFraction - d.Params.WardFraction
	return atLeastOneDay(p.DaysFromOnsetToRemoved * rest)
}

// SourceInfectiousness returns p's current per-contact transmission
// probability: the infectiousness table looked up by signed day relative to
// symptom onset, scaled by the global infection probability. Detected
// agents are assumed quarantined and return zero, as do agents outside the
// incubation/illness window or outside the table's domain.
func (d *DiseaseModel) SourceInfectiousness(p *Person) float64 {
	if p.WasDetected {
		return 0
	}
	var rel int
	switch p.State {
	case Incubation:
		rel = -p.DaysLeft
	case Illness:
		rel = p.DayOfIllness
	default:
		return 0
	}
	return d.InfectiousnessByDay.Get(rel, 0) * d.Params.PInfection
}

// DeathProbability returns the probability that a case of the given
// severity and age dies when leaving care (or failing to obtain it).
// FATAL cases always die. MILD and ASYMPTOMATIC cases never do.
func (d *DiseaseModel) DeathProbability(sev Severity, age int, careAvailable bool) float64 {
	switch sev {
	case SeverityFatal:
		return 1
	case SeverityCritical:
		if careAvailable {
			return d.Params.PICUDeath
		}
		return d.ICUDeathWithoutCareByAge.GreatestLE(age, 1)
	case SeveritySevere:
		if careAvailable {
			return 0
		}
		return d.Params.PWardDeathWithoutBed
	}
	return 0
}

func atLeastOneDay(days float64) int {
	n := int(math.Round(days))
	if n < 1 {
		return 1
	}
	return n
}
