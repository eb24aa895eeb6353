package sim

// ClassedValue is one (class threshold, value) pair of a piecewise-constant
// lookup table.
type ClassedValue struct {
	Class int
	Value float64
}

// ClassedValues is an age-bucketed (or day-bucketed) piecewise-constant
// lookup table: an ordered set of (class, value) pairs, ascending by class.
// Tables hold tens of entries at most, so lookups are linear scans.
type ClassedValues []ClassedValue

// Get returns the value stored for exactly class, or def when the class is
// absent. Used for the infectiousness-by-day table, where days outside the
// table's domain contribute nothing.
func (cv ClassedValues) Get(class int, def float64) float64 {
	for _, e := range cv {
		if e.Class == class {
			return e.Value
		}
	}
	return def
}

// GreatestLE returns the value of the greatest class <= the queried class,
// or def when every class exceeds it. Used for age-threshold tables, where
// an entry covers all ages from its threshold to the next.
func (cv ClassedValues) GreatestLE(class int, def float64) float64 {
	val := def
	for _, e := range cv {
		if e.Class > class {
			break
		}
		val = e.Value
	}
	return val
}
