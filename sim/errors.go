package sim

import "fmt"

// ProblemKind classifies failures detected while advancing a simulated day.
type ProblemKind int

const (
	// TooManyInfectees means an agent's infectee list exceeded its fixed
	// capacity. Overflow is a hard error; entries are never dropped.
	TooManyInfectees ProblemKind = iota

	// HospitalAccountingFailure means a bed or ICU pool violated
	// 0 <= available <= total.
	HospitalAccountingFailure

	// AllocationFailure is retained for the error contract. Infectee lists
	// are owned fixed-capacity slices, so it is no longer raised.
	AllocationFailure

	// OtherFailure covers contract violations without a more specific kind,
	// including panics recovered from the concurrent phase.
	OtherFailure
)

func (k ProblemKind) String() string {
	switch k {
	case TooManyInfectees:
		return "too many infectees"
	case HospitalAccountingFailure:
		return "hospital accounting failure"
	case AllocationFailure:
		return "allocation failure"
	case OtherFailure:
		return "other failure"
	}
	return fmt.Sprintf("problem(%d)", int(k))
}

// SimulationError is a fatal, run-terminating failure. Once Iterate returns
// one, the day is considered corrupted and the clock is non-resumable.
type SimulationError struct {
	Kind   ProblemKind
	Person int32 // offending agent index, -1 when not tied to one
	Detail string
}

func (e *SimulationError) Error() string {
	if e.Person >= 0 {
		return fmt.Sprintf("simulation failed: %s (person %d): %s", e.Kind, e.Person, e.Detail)
	}
	return fmt.Sprintf("simulation failed: %s: %s", e.Kind, e.Detail)
}
