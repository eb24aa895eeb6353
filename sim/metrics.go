package sim

import "fmt"

// Metrics accumulates the daily snapshot series across a run for final
// reporting. Useful for evaluating intervention scenarios and debugging
// behavior over time.
type Metrics struct {
	Days []State

	PeakHospitalized int64
	PeakInICU        int64
}

// NewMetrics creates an empty metrics accumulator.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordDay appends a daily snapshot and tracks care-load peaks.
func (m *Metrics) RecordDay(s State) {
	m.Days = append(m.Days, s)
	if h := sumInt64(s.Hospitalized); h > m.PeakHospitalized {
		m.PeakHospitalized = h
	}
	if i := sumInt64(s.InICU); i > m.PeakInICU {
		m.PeakInICU = i
	}
}

// Print displays aggregated metrics at the end of the simulation.
func (m *Metrics) Print() {
	fmt.Println("=== Simulation Metrics ===")
	if len(m.Days) == 0 {
		fmt.Println("No days simulated.")
		return
	}
	last := m.Days[len(m.Days)-1]
	population := sumInt64(last.Susceptible) + sumInt64(last.Infected) +
		sumInt64(last.Recovered) + sumInt64(last.Dead)
	allInfected := sumInt64(last.AllInfected)

	fmt.Printf("Days simulated       : %d\n", len(m.Days))
	fmt.Printf("Population           : %d\n", population)
	fmt.Printf("Cumulative infected  : %d (%.1f%%)\n", allInfected,
		100*float64(allInfected)/float64(population))
	fmt.Printf("Cumulative detected  : %d\n", sumInt64(last.AllDetected))
	fmt.Printf("Deaths               : %d\n", sumInt64(last.Dead))
	fmt.Printf("Peak hospitalized    : %d (of %d beds)\n", m.PeakHospitalized, last.TotalBeds)
	fmt.Printf("Peak in ICU          : %d (of %d units)\n", m.PeakInICU, last.TotalICU)
	fmt.Printf("Final R estimate     : %.2f\n", last.R)
	fmt.Println("Deaths by age bucket :")
	for i, d := range last.Dead {
		fmt.Printf("  %3d-%3d : %d\n", i*AgeBucketYears, i*AgeBucketYears+AgeBucketYears-1, d)
	}
}
