package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	hostID  PlayerID = "p1"
	guestID PlayerID = "p2"
)

var testRoster = []string{"Talon", "Bulwark", "Lancer", "Wasp", "Drifter"}

var testDeck = []string{
	"Pulse Bolt", "Power Siphon", "Recalibrate", "Hull Patch",
	"Shield Surge", "Salvage Run", "Focus Fire", "Nanite Swarm",
}

// testMatch builds a match whose loop is not running; tests drive the
// unexported entry points directly, single-threaded.
func testMatch(t *testing.T) *Match {
	t.Helper()
	return NewMatch(hostID, guestID, WithInterceptTimeout(0))
}

func commitSetup(t *testing.T, m *Match) {
	t.Helper()
	require.NoError(t, m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	require.NoError(t, m.submitCommitment(hostID, PhaseDeckSelection, CommitmentPayload{Deck: testDeck}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDeckSelection, CommitmentPayload{Deck: testDeck}))
	require.Equal(t, PhaseDeployment, m.state.Phase)
}

// toActionPhase commits a standard opening: host fields a Talon left, guest
// a Bulwark and a Drifter in the same lane.
func toActionPhase(t *testing.T, m *Match) {
	t.Helper()
	commitSetup(t, m)
	require.NoError(t, m.submitCommitment(hostID, PhaseDeployment, CommitmentPayload{
		Placements: []Placement{{Drone: "Talon", Lane: LaneLeft}},
	}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDeployment, CommitmentPayload{
		Placements: []Placement{{Drone: "Bulwark", Lane: LaneLeft}, {Drone: "Drifter", Lane: LaneLeft}},
	}))
	require.Equal(t, PhaseAction, m.state.Phase)
}

func laneDrone(m *Match, owner PlayerID, lane Lane, name string) *Drone {
	for _, d := range m.state.Players[owner].Lanes[lane] {
		if d.Template.Name == name {
			return d
		}
	}
	return nil
}

func TestPhaseAdvanceRequiresBothCommitments(t *testing.T) {
	m := testMatch(t)

	require.NoError(t, m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	assert.Equal(t, PhaseDroneSelection, m.state.Phase, "one commitment must not advance the phase")
	assert.True(t, m.commits[hostID].Completed)

	require.NoError(t, m.submitCommitment(guestID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	assert.Equal(t, PhaseDeckSelection, m.state.Phase)
	assert.Empty(t, m.commits, "commitments reset on phase advance")
	assert.Len(t, m.state.Players[hostID].Roster, droneRoster)
}

func TestCommitmentPhaseMismatch(t *testing.T) {
	m := testMatch(t)

	err := m.submitCommitment(hostID, PhaseDeployment, CommitmentPayload{Pass: true})
	assert.Equal(t, CodePhaseMismatch, CodeOf(err))
	assert.Equal(t, PhaseDroneSelection, m.state.Phase)
}

func TestCommitmentStaleAfterAdvance(t *testing.T) {
	m := testMatch(t)
	require.NoError(t, m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))

	// A late duplicate for the phase that just resolved is stale, not a
	// protocol violation.
	err := m.submitCommitment(guestID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster})
	assert.Equal(t, CodeStaleOrOutOfOrder, CodeOf(err))

	// Any other phase is a real mismatch.
	err = m.submitCommitment(guestID, PhaseAllocateShields, CommitmentPayload{})
	assert.Equal(t, CodePhaseMismatch, CodeOf(err))
}

func TestCommitmentIdempotence(t *testing.T) {
	m := testMatch(t)
	require.NoError(t, m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	before := m.state.Fingerprint()

	err := m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster})
	assert.Equal(t, CodeAlreadyCommitted, CodeOf(err))
	assert.Equal(t, before, m.state.Fingerprint(), "rejected resubmission must not touch state")
	assert.Equal(t, PhaseDroneSelection, m.state.Phase)
}

func TestPayloadShapeValidation(t *testing.T) {
	m := testMatch(t)

	err := m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster[:3]})
	assert.Equal(t, CodeInvalidPayload, CodeOf(err))
	assert.Nil(t, m.commits[hostID], "invalid payload must not be stored")

	require.NoError(t, m.submitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))

	err = m.submitCommitment(hostID, PhaseDeckSelection, CommitmentPayload{})
	assert.Equal(t, CodeInvalidPayload, CodeOf(err))
}

func TestUnknownPlayerRejected(t *testing.T) {
	m := testMatch(t)
	err := m.submitCommitment("intruder", PhaseDroneSelection, CommitmentPayload{Drones: testRoster})
	assert.Equal(t, CodeNotEligible, CodeOf(err))
}

func TestHostCommitmentAppliesFirst(t *testing.T) {
	m := testMatch(t)
	commitSetup(t, m)

	// Guest commits first, host second; host's placement must still land
	// first so both peers replay the same board.
	require.NoError(t, m.submitCommitment(guestID, PhaseDeployment, CommitmentPayload{
		Placements: []Placement{{Drone: "Wasp", Lane: LaneCenter}},
	}))
	require.NoError(t, m.submitCommitment(hostID, PhaseDeployment, CommitmentPayload{
		Placements: []Placement{{Drone: "Wasp", Lane: LaneCenter}},
	}))

	hostWasp := laneDrone(m, hostID, LaneCenter, "Wasp")
	guestWasp := laneDrone(m, guestID, LaneCenter, "Wasp")
	require.NotNil(t, hostWasp)
	require.NotNil(t, guestWasp)
	assert.Less(t, hostWasp.DeployOrder, guestWasp.DeployOrder)
}

func TestStartRoundIncomeAndDraw(t *testing.T) {
	m := testMatch(t)
	commitSetup(t, m)

	ps := m.state.Players[hostID]
	assert.Equal(t, 1, m.state.Round)
	assert.Equal(t, startEnergy+roundIncome+2, ps.Energy, "base income plus power cell bonus")
	assert.Len(t, ps.Hand, startHand+1, "opening hand plus drone hub draw")
}

func TestStartRoundCrippledSections(t *testing.T) {
	m := testMatch(t)
	commitSetup(t, m)
	ps := m.state.Players[hostID]
	ps.Sections[SectionPowerCell].Hull = 2
	ps.Sections[SectionDroneHub].Hull = 2
	energy, hand := ps.Energy, len(ps.Hand)

	require.NoError(t, m.submitCommitment(hostID, PhaseDeployment, CommitmentPayload{Pass: true}))
	require.NoError(t, m.submitCommitment(guestID, PhaseDeployment, CommitmentPayload{Pass: true}))
	require.NoError(t, m.submitCommitment(hostID, PhaseAction, CommitmentPayload{Pass: true}))
	require.NoError(t, m.submitCommitment(guestID, PhaseAction, CommitmentPayload{Pass: true}))
	require.NoError(t, m.submitCommitment(hostID, PhaseAllocateShields, CommitmentPayload{Pass: true}))
	require.NoError(t, m.submitCommitment(guestID, PhaseAllocateShields, CommitmentPayload{Pass: true}))

	// Combat resolved with an empty board and the ring cycled to the next
	// deployment. Crippled sections pay no bonus and draw nothing.
	require.Equal(t, PhaseDeployment, m.state.Phase)
	assert.Equal(t, 2, m.state.Round)
	assert.Equal(t, energy+roundIncome, ps.Energy)
	assert.Len(t, ps.Hand, hand)
}

func TestCommitmentCycleThroughRing(t *testing.T) {
	m := testMatch(t)
	commitSetup(t, m)

	phases := []TurnPhase{PhaseDeployment, PhaseAction, PhaseAllocateShields}
	for _, ph := range phases {
		require.Equal(t, ph, m.state.Phase)
		require.NoError(t, m.submitCommitment(hostID, ph, CommitmentPayload{Pass: true}))
		require.NoError(t, m.submitCommitment(guestID, ph, CommitmentPayload{Pass: true}))
	}
	// combatResolution acknowledges itself and lands back at deployment.
	assert.Equal(t, PhaseDeployment, m.state.Phase)
	assert.Equal(t, 2, m.state.Round)
}

func TestMatchLoopRoutesRequests(t *testing.T) {
	m := NewMatch(hostID, guestID, WithInterceptTimeout(0))
	go m.Run()
	defer m.Stop()

	require.NoError(t, m.SubmitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster}))
	err := m.SubmitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster})
	assert.Equal(t, CodeAlreadyCommitted, CodeOf(err))

	snap, err := m.Snapshot(hostID)
	require.NoError(t, err)
	assert.Equal(t, hostID, snap.Viewer)
	assert.True(t, snap.You.Committed)
	assert.False(t, snap.Opponent.Committed)

	over, _ := m.Over()
	assert.False(t, over)
}

func TestStoppedMatchRefusesWork(t *testing.T) {
	m := NewMatch(hostID, guestID)
	go m.Run()
	m.Stop()

	require.Eventually(t, func() bool {
		err := m.SubmitCommitment(hostID, PhaseDroneSelection, CommitmentPayload{Drones: testRoster})
		return CodeOf(err) == CodeTransportFailure
	}, time.Second, 5*time.Millisecond)
}
