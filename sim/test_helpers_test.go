package sim

import "time"

// flatTable builds an infectiousness table with the given value on every
// relative day in [from, to].
func flatTable(from, to int, value float64) ClassedValues {
	var cv ClassedValues
	for d := from; d <= to; d++ {
		cv = append(cv, ClassedValue{Class: d, Value: value})
	}
	return cv
}

func testDiseaseParams() DiseaseParams {
	return DiseaseParams{
		PInfection:             0.3,
		PAsymptomatic:          0.4,
		FatalShare:             0.3,
		PICUDeath:              0.2,
		PWardDeathWithoutBed:   0.2,
		IncubationMeanDays:     5.1,
		IncubationCV:           0.86,
		OnsetToRemovedMeanDays: 21,
		OnsetToRemovedCV:       0.45,
		PreHospitalFraction:    0.3,
		WardFraction:           0.25,
		SevereIllnessMeanDays:  10,
		SevereHospitalMeanDays: 8,
		IllnessCV:              0.5,
		MildIllnessMedianDays:  7,
		MildIllnessSigma:       0.4,
	}
}

// testClockConfig builds a single-bucket configuration with deterministic
// contact counts and a wide flat infectiousness profile, the baseline most
// engine tests start from.
func testClockConfig(people int) ClockConfig {
	return ClockConfig{
		AgeBucketCounts:          []int{people},
		Disease:                  testDiseaseParams(),
		SevereChanceByAge:        ClassedValues{{Class: 0, Value: 0.05}},
		CriticalChanceByAge:      ClassedValues{{Class: 0, Value: 0.3}},
		ICUDeathWithoutCareByAge: ClassedValues{{Class: 0, Value: 1}},
		InfectiousnessByDay:      flatTable(-100, 100, 1),
		Healthcare: HealthcareConfig{
			HospitalBeds: 100,
			ICUUnits:     20,
		},
		Population: PopulationConfig{
			ContactMeansByAge:    ClassedValues{{Class: 0, Value: 5}},
			ContactSigma:         0,
			IllnessContactFactor: 1,
			IllnessContactLimit:  0,
		},
		StartDate: time.Date(2020, 2, 20, 0, 0, 0, 0, time.UTC),
		Seed:      42,
	}
}

// advanceAndMerge runs one day of p's state machine including the merge
// step that resolves deferred care claims.
func advanceAndMerge(c *Clock, p *Person) *dayBuffer {
	buf := &dayBuffer{}
	p.advance(c, buf)
	c.applyCareRequests([]*dayBuffer{buf})
	return buf
}

// seedInfected marks p infected in a given state while keeping the
// aggregate counters consistent, bypassing the exposure path.
func seedInfected(c *Clock, p *Person, state PersonState, severity Severity, daysLeft int) {
	p.IsInfected = true
	p.State = state
	p.Severity = severity
	p.DaysLeft = daysLeft
	c.Population.AddSusceptible(p.Age, -1)
	c.Population.AddInfected(p.Age, 1)
	c.Population.AddAllInfected(p.Age, 1)
}
