package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourcePool_Bounds(t *testing.T) {
	h := NewHealthcareSystem(HealthcareConfig{HospitalBeds: 2, ICUUnits: 1})

	assert.True(t, h.AdmitToHospital())
	assert.True(t, h.AdmitToHospital())
	assert.False(t, h.AdmitToHospital(), "admission fails once the pool is empty")
	assert.Equal(t, int64(0), h.AvailableBeds())

	require.Nil(t, h.ReleaseHospitalBed())
	assert.Equal(t, int64(1), h.AvailableBeds())

	assert.True(t, h.AdmitToICU())
	assert.False(t, h.AdmitToICU())
	require.Nil(t, h.ReleaseICUUnit())
	assert.Equal(t, int64(1), h.AvailableICU())
}

func TestResourcePool_OverReleaseIsAccountingFailure(t *testing.T) {
	h := NewHealthcareSystem(HealthcareConfig{HospitalBeds: 1, ICUUnits: 1})

	err := h.ReleaseHospitalBed()
	require.NotNil(t, err)
	assert.Equal(t, HospitalAccountingFailure, err.Kind)
}

func TestResourcePool_Expansion(t *testing.T) {
	h := NewHealthcareSystem(HealthcareConfig{HospitalBeds: 1, ICUUnits: 0})
	h.AddBeds(3)
	h.AddICUUnits(2)

	assert.Equal(t, int64(4), h.TotalBeds())
	assert.Equal(t, int64(4), h.AvailableBeds())
	assert.Equal(t, int64(2), h.TotalICU())
	assert.Equal(t, int64(2), h.AvailableICU())
}

func TestSeekTesting_ModeGating(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare

	mild := c.People[0]
	seedInfected(c, mild, Illness, SeverityMild, 5)
	severe := c.People[1]
	seedInfected(c, severe, Illness, SeveritySevere, 5)

	// Mode NONE: nobody enqueues.
	h.SeekTesting(mild)
	h.SeekTesting(severe)
	assert.Equal(t, 0, h.QueueLength())

	// Only-severe without the residual probability: mild cases stay out.
	h.SetMode(TestingOnlySevere, false)
	h.SetDetectedAnyway(0)
	h.SeekTesting(mild)
	h.SeekTesting(severe)
	assert.Equal(t, 1, h.QueueLength())

	// All-with-symptoms: everyone symptomatic enqueues.
	h.SetMode(TestingAllWithSymptoms, false)
	h.SeekTesting(mild)
	assert.Equal(t, 2, h.QueueLength())
}

func TestSeekTesting_IdempotentEnqueue(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare
	h.SetMode(TestingAllWithSymptoms, false)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 5)

	h.SeekTesting(p)
	h.SeekTesting(p)
	assert.Equal(t, 1, h.QueueLength(), "re-queueing the same agent is a no-op")

	// Already-detected agents never re-enter the queue.
	tested, err := h.RunTests(c)
	require.NoError(t, err)
	assert.Equal(t, 1, tested)
	require.True(t, p.WasDetected)
	h.SeekTesting(p)
	assert.Equal(t, 0, h.QueueLength())
}

func TestRunTests_DetectsOnlyDetectable(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare
	h.SetMode(TestingAllWithSymptoms, false)

	infectious := c.People[0]
	seedInfected(c, infectious, Illness, SeverityMild, 5)

	// An agent far past the infectiousness table's domain tests negative.
	cold := c.People[1]
	seedInfected(c, cold, Illness, SeverityMild, 5)
	cold.DayOfIllness = 150

	hospitalized := c.People[2]
	seedInfected(c, hospitalized, Hospitalized, SeveritySevere, 5)
	hospitalized.DayOfIllness = 150

	h.SeekTesting(infectious)
	h.SeekTesting(cold)
	h.SeekTesting(hospitalized)

	tested, err := h.RunTests(c)
	require.NoError(t, err)
	assert.Equal(t, 3, tested)

	assert.True(t, infectious.WasDetected)
	assert.False(t, cold.WasDetected)
	assert.True(t, hospitalized.WasDetected, "hospitalized patients always test positive")
	assert.False(t, cold.QueuedForTesting, "drain clears the queued flag")
	assert.Equal(t, int64(2), c.Population.detected[0].Load())
}

func TestRunTests_QueueInvariantViolationAborts(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare
	h.SetMode(TestingAllWithSymptoms, false)

	p := c.People[0]
	seedInfected(c, p, Illness, SeverityMild, 5)
	h.SeekTesting(p)
	p.QueuedForTesting = false // simulate the corruption

	_, err = h.RunTests(c)
	assert.Error(t, err)
}

// An infection chain Z → A → B → C → D, detection starting at B, must reach
// exactly two hops out (A, C at hop one; Z, D at hop two) and no further.
func TestRunTests_ContactTracingDepth(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare
	h.SetMode(TestingAllWithSymptoms, true)

	chain := make([]*Person, 5) // Z, A, B, C, D
	for i := range chain {
		chain[i] = c.People[i]
		seedInfected(c, chain[i], Illness, SeverityMild, 5)
	}
	w := c.People[5] // infected W, infector of Z, three hops from B
	seedInfected(c, w, Illness, SeverityMild, 5)

	link := func(infector, infectee *Person) {
		infectee.InfectorID = infector.ID
		require.NoError(t, infector.addInfectee(infectee.ID))
	}
	link(w, chain[0])
	link(chain[0], chain[1])
	link(chain[1], chain[2])
	link(chain[2], chain[3])
	link(chain[3], chain[4])

	h.enqueue(chain[2], 0) // index case B
	tested, err := h.RunTests(c)
	require.NoError(t, err)

	assert.True(t, chain[2].WasDetected, "index case")
	assert.True(t, chain[1].WasDetected, "hop one: infector A")
	assert.True(t, chain[3].WasDetected, "hop one: infectee C")
	assert.True(t, chain[0].WasDetected, "hop two: Z")
	assert.True(t, chain[4].WasDetected, "hop two: D")
	assert.False(t, w.WasDetected, "three hops out is beyond the trace depth")
	assert.False(t, w.QueuedForTesting)
	assert.Equal(t, 5, tested)
}

func TestRunTests_ConfigurableTraceDepth(t *testing.T) {
	c, err := NewClock(testClockConfig(100))
	require.NoError(t, err)
	h := c.Healthcare
	h.SetMode(TestingAllWithSymptoms, true)
	h.SetTraceDepth(1)

	a, b, x := c.People[0], c.People[1], c.People[2]
	seedInfected(c, a, Illness, SeverityMild, 5)
	seedInfected(c, b, Illness, SeverityMild, 5)
	seedInfected(c, x, Illness, SeverityMild, 5)
	b.InfectorID = a.ID
	require.NoError(t, a.addInfectee(b.ID))
	a.InfectorID = x.ID
	require.NoError(t, x.addInfectee(a.ID))

	h.enqueue(b, 0)
	_, err = h.RunTests(c)
	require.NoError(t, err)

	assert.True(t, b.WasDetected)
	assert.True(t, a.WasDetected, "one hop is still traced")
	assert.False(t, x.WasDetected, "depth 1 stops after the first hop")
}
