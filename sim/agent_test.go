package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance_SusceptibleDoesNothing(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	buf := &dayBuffer{}
	p.advance(c, buf)

	assert.Equal(t, Susceptible, p.State)
	assert.Empty(t, buf.proposals)
	assert.NoError(t, c.Population.CheckConservation())
}

func TestAdvance_IncubationToIllness(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	c.Healthcare.SetMode(TestingAllWithSymptoms, false)

	p := c.People[0]
	seedInfected(c, p, Incubation, SeverityMild, 1)
	p.DaysFromOnsetToRemoved = 20

	buf := &dayBuffer{}
	p.advance(c, buf)

	assert.Equal(t, Illness, p.State)
	assert.GreaterOrEqual(t, p.DaysLeft, 1)
	assert.True(t, p.QueuedForTesting, "symptomatic illness onset seeks testing")
	assert.Len(t, buf.proposals, 5, "deterministic contact count exposes 5")
}

func TestAdvance_AsymptomaticSkipsTesting(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	c.Healthcare.SetMode(TestingAllWithSymptoms, false)

	p := c.People[0]
	seedInfected(c, p, Incubation, SeverityAsymptomatic, 1)

	p.advance(c, &dayBuffer{})

	assert.Equal(t, Illness, p.State)
	assert.False(t, p.QueuedForTesting)
}

func TestAdvance_MildIllnessRecovers(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 1)

	p.advance(c, &dayBuffer{})

	assert.Equal(t, Recovered, p.State)
	assert.False(t, p.IsInfected)
	assert.True(t, p.HasImmunity)
	assert.NoError(t, c.Population.CheckConservation())
	assert.Equal(t, int64(0), c.Population.hospitalize[0].Load())
}

// Severe illness with no beds and a certain no-care death roll must end in
// death without ever counting as hospitalized.
func TestAdvance_SevereWithoutBedsDies(t *testing.T) {
	cfg := testClockConfig(100)
	cfg.Healthcare.HospitalBeds = 0
	cfg.Disease.PWardDeathWithoutBed = 1
	c, err := NewClock(cfg)
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeveritySevere, 1)

	advanceAndMerge(c, p)

	assert.Equal(t, Dead, p.State)
	assert.Equal(t, int64(0), c.Population.hospitalize[0].Load())
	assert.Equal(t, int64(1), c.Population.dead[0].Load())
	assert.NoError(t, c.Population.CheckConservation())
}

func TestAdvance_SevereWithBedsIsAdmitted(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeveritySevere, 1)
	p.DaysFromOnsetToRemoved = 20

	advanceAndMerge(c, p)

	assert.Equal(t, Hospitalized, p.State)
	assert.Equal(t, int64(1), c.Population.hospitalize[0].Load())
	assert.Equal(t, c.Healthcare.TotalBeds()-1, c.Healthcare.AvailableBeds())
}

func TestAdvance_SevereReleaseRecovers(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeveritySevere, 1)
	advanceAndMerge(c, p) // admitted
	require.Equal(t, Hospitalized, p.State)

	p.DaysLeft = 1
	p.advance(c, &dayBuffer{})

	assert.Equal(t, Recovered, p.State, "severe cases never die once care was available")
	assert.Equal(t, c.Healthcare.TotalBeds(), c.Healthcare.AvailableBeds())
	assert.Equal(t, int64(0), c.Population.hospitalize[0].Load())
	assert.NoError(t, c.Population.CheckConservation())
}

func TestAdvance_FatalRunsFullCarePath(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityFatal, 1)
	p.DaysFromOnsetToRemoved = 20

	advanceAndMerge(c, p)
	require.Equal(t, Hospitalized, p.State)

	p.DaysLeft = 1
	advanceAndMerge(c, p)
	require.Equal(t, InICU, p.State, "critical and fatal cases route through the ICU")
	assert.Equal(t, c.Healthcare.TotalBeds(), c.Healthcare.AvailableBeds(), "ward bed freed on transfer")
	assert.Equal(t, c.Healthcare.TotalICU()-1, c.Healthcare.AvailableICU())
	assert.Equal(t, int64(1), c.Population.inICU[0].Load())

	p.DaysLeft = 1
	p.advance(c, &dayBuffer{})
	assert.Equal(t, Dead, p.State, "fatal dies even with care")
	assert.Equal(t, c.Healthcare.TotalICU(), c.Healthcare.AvailableICU())
	assert.Equal(t, int64(0), c.Population.inICU[0].Load())
	assert.NoError(t, c.Population.CheckConservation())
}

func TestAdvance_CriticalWithoutICUDies(t *testing.T) {
	cfg := testClockConfig(100)
	cfg.Healthcare.ICUUnits = 0
	c, err := NewClock(cfg)
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Hospitalized, SeverityCritical, 1)
	require.True(t, c.Healthcare.AdmitToHospital())
	c.Population.AddHospitalized(p.Age, 1)
	p.DaysFromOnsetToRemoved = 20

	advanceAndMerge(c, p)

	// ICUDeathWithoutCareByAge is 1 in the test config.
	assert.Equal(t, Dead, p.State)
	assert.Equal(t, int64(0), c.Population.inICU[0].Load())
	assert.Equal(t, c.Healthcare.TotalBeds(), c.Healthcare.AvailableBeds())
	assert.NoError(t, c.Population.CheckConservation())
}

// Once removed, an agent neither sheds nor can be re-infected, and its
// infectee buffer is gone.
func TestRemove_TerminalClosure(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	c.Healthcare.SetMode(TestingAllWithSymptoms, true)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 5)
	require.NoError(t, p.addInfectee(3))

	p.die(c)

	assert.True(t, p.HasImmunity, "the dead get immunity to stay out of exposure checks")
	assert.False(t, p.IsInfected)
	assert.Nil(t, p.Infectees(), "infectee buffer released on removal")

	buf := &dayBuffer{}
	p.advance(c, buf)
	assert.Empty(t, buf.proposals)
	assert.Equal(t, Dead, p.State)
}

func TestRemove_CountsInfectorTotalsOnce(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 5)
	p.OtherPeopleInfected = 3

	p.recover(c)
	assert.Equal(t, int64(1), c.totalInfectors.Load())
	assert.Equal(t, int64(3), c.totalInfections.Load())

	// A second removal of the same agent must not double-count.
	p.remove(c, Recovered)
	assert.Equal(t, int64(1), c.totalInfectors.Load())
	assert.Equal(t, int64(3), c.totalInfections.Load())
}

func TestAddInfectee_CapacityIsHardError(t *testing.T) {
	p := &Person{ID: 7}
	for i := 0; i < MaxInfectees; i++ {
		require.NoError(t, p.addInfectee(int32(i)))
	}
	err := p.addInfectee(999)
	require.Error(t, err)

	var simErr *SimulationError
	require.ErrorAs(t, err, &simErr)
	assert.Equal(t, TooManyInfectees, simErr.Kind)
	assert.Equal(t, int32(7), simErr.Person)
	assert.Len(t, p.Infectees(), MaxInfectees, "overflow never truncates silently")
}

func TestExpose_DetectedExposesNobody(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 10)
	p.WasDetected = true
	c.Population.AddDetected(p.Age, 1)

	buf := &dayBuffer{}
	p.advance(c, buf)
	assert.Empty(t, buf.proposals)
	assert.Zero(t, p.OtherPeopleExposedToday)
}
