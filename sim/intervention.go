package sim

import "fmt"

// Recognized intervention names, the event ids accepted in scenario files.
const (
	InterventionTestAllWithSymptoms = "test-all-with-symptoms"
	InterventionTestOnlySevere      = "test-only-severe-symptoms"
	InterventionTestContactTracing  = "test-with-contact-tracing"
	InterventionBuildICUUnits       = "build-new-icu-units"
	InterventionBuildHospitalBeds   = "build-new-hospital-beds"
	InterventionImportInfections    = "import-infections"
	InterventionLimitCrossBorder    = "limit-cross-border-mobility"
	InterventionLimitMassGatherings = "limit-mass-gatherings"
	InterventionLimitMobility       = "limit-mobility"
)

var knownInterventions = map[string]bool{
	InterventionTestAllWithSymptoms: true,
	InterventionTestOnlySevere:      true,
	InterventionTestContactTracing:  true,
	InterventionBuildICUUnits:       true,
	InterventionBuildHospitalBeds:   true,
	InterventionImportInfections:    true,
	InterventionLimitCrossBorder:    true,
	InterventionLimitMassGatherings: true,
	InterventionLimitMobility:       true,
}

// Intervention is a one-shot scheduled event, applied exactly once on the
// day whose value equals the clock's current day.
type Intervention struct {
	Day   int
	Name  string
	Value int

	applied bool
}

// AddIntervention schedules a one-shot event. An unrecognized name is a
// configuration error, raised immediately and synchronously.
func (c *Clock) AddIntervention(day int, name string, value int) error {
	if !knownInterventions[name] {
		return fmt.Errorf("unknown intervention %q", name)
	}
	c.interventions = append(c.interventions, Intervention{Day: day, Name: name, Value: value})
	return nil
}

// applyInterventions fires every unapplied intervention due today.
func (c *Clock) applyInterventions() {
	for i := range c.interventions {
		iv := &c.interventions[i]
		if iv.applied || iv.Day != c.Day {
			continue
		}
		iv.applied = true
		c.applyIntervention(iv)
	}
}

func (c *Clock) applyIntervention(iv *Intervention) {
	switch iv.Name {
	case InterventionTestAllWithSymptoms:
		c.Healthcare.SetMode(TestingAllWithSymptoms, false)
	case InterventionTestOnlySevere:
		c.Healthcare.SetMode(TestingOnlySevere, false)
		c.Healthcare.SetDetectedAnyway(float64(iv.Value) / 100)
	case InterventionTestContactTracing:
		c.Healthcare.SetMode(TestingAllWithSymptoms, true)
		c.Healthcare.SetTraceDepth(iv.Value)
	case InterventionBuildICUUnits:
		c.Healthcare.AddICUUnits(int64(iv.Value))
	case InterventionBuildHospitalBeds:
		c.Healthcare.AddBeds(int64(iv.Value))
	case InterventionImportInfections:
		c.InfectPeople(iv.Value)
	case InterventionLimitCrossBorder:
		c.crossBorderFactor = clampFactor(iv.Value)
	case InterventionLimitMassGatherings:
		c.Population.SetMassGatheringLimit(iv.Value)
	case InterventionLimitMobility:
		c.Population.SetMobilityFactor(clampFactor(iv.Value))
	}
}

// clampFactor converts a percentage reduction (0..100) into a multiplier.
func clampFactor(percent int) float64 {
	f := 1 - float64(percent)/100
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
