package game

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// declareAtDrifter attacks the guest Drifter with the host Talon, which the
// guest Bulwark (guardian, same lane) may intercept.
func declareAtDrifter(t *testing.T, m *Match) {
	t.Helper()
	talon := laneDrone(m, hostID, LaneLeft, "Talon")
	ref := DroneRef(laneDrone(m, guestID, LaneLeft, "Drifter"))
	require.NoError(t, m.handleAction(Action{Type: ActionDeclareAttack, Player: hostID, Drone: talon.ID, Target: &ref}))
}

func TestInterceptionOpensForGuardian(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	declareAtDrifter(t, m)

	require.NotNil(t, m.intercept)
	assert.Equal(t, InterceptAwaitingChoice, m.interceptState())
	assert.Equal(t, guestID, m.intercept.Defender)
	require.Len(t, m.intercept.Eligible, 1)
	assert.Equal(t, laneDrone(m, guestID, LaneLeft, "Bulwark").ID, m.intercept.Eligible[0])

	// No damage lands while the choice is pending.
	assert.Equal(t, 0, laneDrone(m, guestID, LaneLeft, "Drifter").Damage)
}

func TestInterceptionExclusivity(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	declareAtDrifter(t, m)
	ps := m.state.Players[hostID]
	siphon := handCard(t, ps, "Power Siphon")

	// The attacker is locked out entirely.
	err := m.handleAction(Action{Type: ActionPlayCard, Player: hostID, Card: siphon.ID})
	assert.Equal(t, CodeMandatoryActionPending, CodeOf(err))

	// The defender may only answer the interception.
	err = m.handleAction(Action{Type: ActionPass, Player: guestID})
	assert.Equal(t, CodeMandatoryActionPending, CodeOf(err))

	// The phase cannot advance past a pending decision either.
	err = m.submitCommitment(guestID, PhaseAction, CommitmentPayload{Pass: true})
	assert.Equal(t, CodeMandatoryActionPending, CodeOf(err))
	assert.NotNil(t, m.intercept)
}

func TestChooseInterceptorRedirects(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	declareAtDrifter(t, m)
	bulwark := laneDrone(m, guestID, LaneLeft, "Bulwark")
	drifter := laneDrone(m, guestID, LaneLeft, "Drifter")

	require.NoError(t, m.handleAction(Action{Type: ActionChooseInterceptor, Player: guestID, Drone: bulwark.ID}))

	assert.Nil(t, m.intercept)
	assert.Nil(t, m.mandatory)
	// Talon (3 attack, speed 4) strikes the interceptor: two absorbed by
	// shields, one to hull; Bulwark survives and counters for one.
	assert.Equal(t, 0, bulwark.ShieldsLeft)
	assert.Equal(t, 1, bulwark.Damage)
	assert.Equal(t, 0, drifter.Damage, "the original target goes untouched")
	assert.Equal(t, 1, laneDrone(m, hostID, LaneLeft, "Talon").Damage)
}

func TestDeclineResolvesOriginalTarget(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	declareAtDrifter(t, m)
	drifter := laneDrone(m, guestID, LaneLeft, "Drifter")

	require.NoError(t, m.handleAction(Action{Type: ActionDeclineInterception, Player: guestID}))

	assert.Nil(t, m.intercept)
	assert.Equal(t, 0, drifter.ShieldsLeft)
	assert.Equal(t, 2, drifter.Damage)
	assert.Equal(t, 0, laneDrone(m, guestID, LaneLeft, "Bulwark").Damage)
}

func TestInterceptorMustBeEligible(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	stray := m.state.PlaceDrone(guestID, FindDroneTemplate("Wasp"), LaneRight)
	declareAtDrifter(t, m)

	// Wrong lane.
	err := m.handleAction(Action{Type: ActionChooseInterceptor, Player: guestID, Drone: stray.ID})
	assert.Equal(t, CodeInvalidTarget, CodeOf(err))
	assert.NotNil(t, m.intercept, "a rejected choice keeps the window open")

	// The declared target cannot intercept itself.
	err = m.handleAction(Action{Type: ActionChooseInterceptor, Player: guestID, Drone: laneDrone(m, guestID, LaneLeft, "Drifter").ID})
	assert.Equal(t, CodeInvalidTarget, CodeOf(err))

	// Only the defender answers.
	err = m.handleAction(Action{Type: ActionChooseInterceptor, Player: hostID, Drone: stray.ID})
	assert.Equal(t, CodeMandatoryActionPending, CodeOf(err))
}

func TestNoInterceptionWithoutCandidates(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	talon := laneDrone(m, hostID, LaneLeft, "Talon")
	bulwark := laneDrone(m, guestID, LaneLeft, "Bulwark")

	// Attacking the guardian itself leaves only the slower Drifter, which
	// cannot intercept; the attack resolves immediately.
	ref := DroneRef(bulwark)
	require.NoError(t, m.handleAction(Action{Type: ActionDeclareAttack, Player: hostID, Drone: talon.ID, Target: &ref}))
	assert.Nil(t, m.intercept)
	assert.Equal(t, 1, bulwark.Damage)
}

func TestInterceptResponseWithoutPendingChoice(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)

	err := m.handleAction(Action{Type: ActionDeclineInterception, Player: guestID})
	assert.Equal(t, CodeStaleOrOutOfOrder, CodeOf(err))
}

func TestInterceptTimeoutDeclinesByDefault(t *testing.T) {
	m := NewMatch(hostID, guestID, WithInterceptTimeout(20*time.Millisecond))
	toActionPhase(t, m)
	go m.Run()
	defer m.Stop()

	require.NoError(t, m.QueueAction(Action{
		Type:   ActionDeclareAttack,
		Player: hostID,
		Drone:  laneDrone(m, hostID, LaneLeft, "Talon").ID,
		Target: refPtr(DroneRef(laneDrone(m, guestID, LaneLeft, "Drifter"))),
	}))

	require.Eventually(t, func() bool {
		snap, err := m.Snapshot(guestID)
		return err == nil && snap.Interception == nil
	}, time.Second, 10*time.Millisecond)

	snap, err := m.Snapshot(guestID)
	require.NoError(t, err)
	drifter := laneDrone(m, guestID, LaneLeft, "Drifter")
	assert.Equal(t, 2, drifter.Damage, "host declines for a silent defender")
	assert.Nil(t, snap.Interception)
}

func refPtr(r TargetRef) *TargetRef { return &r }
