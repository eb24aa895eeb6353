package cmd

import (
	"time"

	sim "github.com/epi-sim/epi-sim/sim"
)

// Baseline parameter set for a COVID-like pathogen in a large metropolitan
// area. Scenario files and CLI flags override individual pieces; everything
// here is a starting point, not a calibration.

// defaultAgeShares is the population pyramid by ten-year bucket (0-9 up to
// 90+), normalized shares of the total population.
var defaultAgeShares = []float64{
	0.107, 0.104, 0.131, 0.152, 0.131, 0.123, 0.108, 0.081, 0.048, 0.015,
}

// defaultSevereChance is the probability that a symptomatic case turns
// severe, by age threshold.
var defaultSevereChance = sim.ClassedValues{
	{Class: 0, Value: 0.005},
	{Class: 10, Value: 0.007},
	{Class: 20, Value: 0.012},
	{Class: 30, Value: 0.025},
	{Class: 40, Value: 0.040},
	{Class: 50, Value: 0.080},
	{Class: 60, Value: 0.140},
	{Class: 70, Value: 0.250},
	{Class: 80, Value: 0.400},
}

// defaultCriticalChance is the share of severe cases that go critical.
var defaultCriticalChance = sim.ClassedValues{
	{Class: 0, Value: 0.05},
	{Class: 30, Value: 0.10},
	{Class: 50, Value: 0.20},
	{Class: 70, Value: 0.30},
}

// defaultICUDeathWithoutCare is the death probability of a critical case
// that cannot get an intensive-care unit.
var defaultICUDeathWithoutCare = sim.ClassedValues{
	{Class: 0, Value: 0.5},
	{Class: 50, Value: 0.7},
	{Class: 70, Value: 0.9},
}

// defaultInfectiousness is relative shedding by day from symptom onset
// (negative days are pre-symptomatic).
var defaultInfectiousness = sim.ClassedValues{
	{Class: -2, Value: 0.12},
	{Class: -1, Value: 0.29},
	{Class: 0, Value: 0.27},
	{Class: 1, Value: 0.26},
	{Class: 2, Value: 0.17},
	{Class: 3, Value: 0.13},
	{Class: 4, Value: 0.10},
	{Class: 5, Value: 0.07},
	{Class: 6, Value: 0.05},
	{Class: 7, Value: 0.04},
	{Class: 8, Value: 0.03},
	{Class: 9, Value: 0.02},
	{Class: 10, Value: 0.01},
}

// defaultContactMeans is the mean daily contact count by age.
var defaultContactMeans = sim.ClassedValues{
	{Class: 0, Value: 10},
	{Class: 10, Value: 14},
	{Class: 20, Value: 12},
	{Class: 30, Value: 11},
	{Class: 40, Value: 11},
	{Class: 50, Value: 10},
	{Class: 60, Value: 8},
	{Class: 70, Value: 5},
	{Class: 80, Value: 3},
}

func defaultDiseaseParams() sim.DiseaseParams {
	return sim.DiseaseParams{
		PInfection:             0.05,
		PAsymptomatic:          0.5,
		FatalShare:             0.35,
		PICUDeath:              0.26,
		PWardDeathWithoutBed:   0.4,
		IncubationMeanDays:     5.1,
		IncubationCV:           0.86,
		OnsetToRemovedMeanDays: 21,
		OnsetToRemovedCV:       0.45,
		PreHospitalFraction:    0.3,
		WardFraction:           0.25,
		SevereIllnessMeanDays:  14,
		SevereHospitalMeanDays: 8,
		IllnessCV:              0.5,
		MildIllnessMedianDays:  7,
		MildIllnessSigma:       0.4,
	}
}

// ageBucketCounts spreads the total population across the default pyramid,
// putting rounding remainders into the largest bucket.
func ageBucketCounts(population int) []int {
	counts := make([]int, len(defaultAgeShares))
	assigned, largest := 0, 0
	for i, share := range defaultAgeShares {
		counts[i] = int(share * float64(population))
		assigned += counts[i]
		if counts[i] > counts[largest] {
			largest = i
		}
	}
	counts[largest] += population - assigned
	return counts
}

// defaultClockConfig assembles the baseline simulation configuration.
func defaultClockConfig(population int, seed int64) sim.ClockConfig {
	return sim.ClockConfig{
		AgeBucketCounts:          ageBucketCounts(population),
		Disease:                  defaultDiseaseParams(),
		SevereChanceByAge:        defaultSevereChance,
		CriticalChanceByAge:      defaultCriticalChance,
		ICUDeathWithoutCareByAge: defaultICUDeathWithoutCare,
		InfectiousnessByDay:      defaultInfectiousness,
		Healthcare: sim.HealthcareConfig{
			HospitalBeds: 2600,
			ICUUnits:     300,
		},
		Population: sim.PopulationConfig{
			ContactMeansByAge:    defaultContactMeans,
			ContactSigma:         1.15,
			IllnessContactFactor: 0.5,
			IllnessContactLimit:  5,
		},
		StartDate: time.Date(2020, 2, 20, 0, 0, 0, 0, time.UTC),
		Seed:      seed,
	}
}
