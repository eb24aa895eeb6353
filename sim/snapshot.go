package sim

import "time"

// State is one day's aggregate snapshot: per-age-bucket series, resource
// availability, the reproduction-number estimate and the daily activity
// counters.
type State struct {
	Day  int
	Date time.Time

	Susceptible  []int64
	Infected     []int64
	Recovered    []int64
	Hospitalized []int64
	InICU        []int64
	Detected     []int64
	Dead         []int64
	AllInfected  []int64
	AllDetected  []int64

	AvailableBeds int64
	TotalBeds     int64
	AvailableICU  int64
	TotalICU      int64

	// R is the reproduction-number estimate, 0 until more than 5 infectors
	// have been removed.
	R float64

	Exposures     int64
	NewInfections int64
	TestsRun      int

	// MobilityLimitation is the active mobility reduction in percent.
	MobilityLimitation int
}

// GenerateState snapshots the current aggregates. Safe to call between
// Iterate calls at any point of the run.
func (c *Clock) GenerateState() State {
	p := c.Population
	return State{
		Day:                c.Day,
		Date:               c.StartDate.AddDate(0, 0, c.Day),
		Susceptible:        snapshotOf(p.susceptible),
		Infected:           snapshotOf(p.infected),
		Recovered:          snapshotOf(p.recovered),
		Hospitalized:       snapshotOf(p.hospitalize),
		InICU:              snapshotOf(p.inICU),
		Detected:           snapshotOf(p.detected),
		Dead:               snapshotOf(p.dead),
		AllInfected:        snapshotOf(p.allInfected),
		AllDetected:        snapshotOf(p.allDetected),
		AvailableBeds:      c.Healthcare.AvailableBeds(),
		TotalBeds:          c.Healthcare.TotalBeds(),
		AvailableICU:       c.Healthcare.AvailableICU(),
		TotalICU:           c.Healthcare.TotalICU(),
		R:                  c.estimateR(),
		Exposures:          c.dailyExposures,
		NewInfections:      c.dailyInfections,
		TestsRun:           c.dailyTests,
		MobilityLimitation: int((1 - p.MobilityFactor()) * 100),
	}
}
