package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTargetsDeterministicOrder(t *testing.T) {
	m := testMatch(t)
	hostRight := m.state.PlaceDrone(hostID, FindDroneTemplate("Wasp"), LaneRight)
	hostLeft := m.state.PlaceDrone(hostID, FindDroneTemplate("Talon"), LaneLeft)
	guestLeft := m.state.PlaceDrone(guestID, FindDroneTemplate("Bulwark"), LaneLeft)

	got := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityAny})

	// Host side first, lanes left to right, regardless of deploy order.
	require.Len(t, got, 3)
	assert.Equal(t, hostLeft.ID, got[0].Drone)
	assert.Equal(t, hostRight.ID, got[1].Drone)
	assert.Equal(t, guestLeft.ID, got[2].Drone)

	// The same board yields the same slice every time.
	assert.Equal(t, got, ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityAny}))
}

func TestResolveTargetsAffinity(t *testing.T) {
	m := testMatch(t)
	mine := m.state.PlaceDrone(hostID, FindDroneTemplate("Talon"), LaneLeft)
	theirs := m.state.PlaceDrone(guestID, FindDroneTemplate("Bulwark"), LaneLeft)

	friendly := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityFriendly})
	require.Len(t, friendly, 1)
	assert.Equal(t, mine.ID, friendly[0].Drone)

	enemy := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityEnemy})
	require.Len(t, enemy, 1)
	assert.Equal(t, theirs.ID, enemy[0].Drone)

	// Affinity is viewer-relative: the same spec flips for the guest.
	enemyForGuest := ResolveTargets(m.state, guestID, TargetSpec{Type: TargetDrone, Affinity: AffinityEnemy})
	require.Len(t, enemyForGuest, 1)
	assert.Equal(t, mine.ID, enemyForGuest[0].Drone)
}

func TestResolveTargetsFilters(t *testing.T) {
	m := testMatch(t)
	hurt := m.state.PlaceDrone(hostID, FindDroneTemplate("Talon"), LaneLeft)
	hurt.Damage = 1
	m.state.PlaceDrone(hostID, FindDroneTemplate("Wasp"), LaneLeft)

	damaged := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityFriendly, Filter: FilterDamagedDrone})
	require.Len(t, damaged, 1)
	assert.Equal(t, hurt.ID, damaged[0].Drone)

	guardians := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetDrone, Affinity: AffinityFriendly, Filter: FilterKeyword(KeywordGuardian)})
	assert.Empty(t, guardians)
}

func TestResolveLaneAndSectionTargets(t *testing.T) {
	m := testMatch(t)
	m.state.LaneControl[LaneLeft] = hostID

	lanes := ResolveTargets(m.state, hostID, TargetSpec{Type: TargetLane, Affinity: AffinityEnemy, Filter: FilterUncontrolledLane})
	// All three enemy-side lanes remain uncontrolled by the actor except
	// the one it already holds, which the filter removes on both sides.
	require.Len(t, lanes, 2)
	assert.Equal(t, LaneCenter, lanes[0].Lane)
	assert.Equal(t, LaneRight, lanes[1].Lane)

	sections := ResolveTargets(m.state, guestID, TargetSpec{Type: TargetSection, Affinity: AffinityFriendly})
	require.Len(t, sections, 3)
	assert.Equal(t, SectionBridge, sections[0].Section)
	assert.Equal(t, SectionPowerCell, sections[1].Section)
	assert.Equal(t, SectionDroneHub, sections[2].Section)
}

func TestContainsTargetMatchesByIdentity(t *testing.T) {
	m := testMatch(t)
	d := m.state.PlaceDrone(hostID, FindDroneTemplate("Talon"), LaneLeft)
	set := ResolveTargets(m.state, guestID, TargetSpec{Type: TargetDrone, Affinity: AffinityEnemy})

	// A ref built from a stale lane still matches on the instance id.
	stale := TargetRef{Type: TargetDrone, Owner: hostID, Drone: d.ID, Lane: LaneRight}
	assert.True(t, ContainsTarget(set, stale))

	assert.False(t, ContainsTarget(set, SectionRef(hostID, SectionBridge)))
	assert.False(t, ContainsTarget(set, TargetRef{Type: TargetDrone}))
}
