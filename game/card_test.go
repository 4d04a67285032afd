package game

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardParser(t *testing.T) {
	parser := NewCardParser()

	tests := []struct {
		text    string
		cost    int
		effects []Effect
	}{
		{
			text: `Pulse Bolt {2}
			Deal 3 damage to target enemy drone.`,
			cost: 2,
			effects: []Effect{
				DealDamage{Amount: 3, To: TargetClause{Affinity: "enemy", Drone: true}},
			},
		},
		{
			text: `Focus Fire {3}
			Deal 2 damage to target damaged enemy drone.`,
			cost: 3,
			effects: []Effect{
				DealDamage{Amount: 2, To: TargetClause{Damaged: true, Affinity: "enemy", Drone: true}},
			},
		},
		{
			text: `Breaching Charge {4}
			Deal 4 damage to target enemy ship section.`,
			cost: 4,
			effects: []Effect{
				DealDamage{Amount: 4, To: TargetClause{Affinity: "enemy", Section: true}},
			},
		},
		{
			text: `Hull Patch {2}
			Repair 3 damage on target friendly ship section.`,
			cost: 2,
			effects: []Effect{
				Repair{Amount: 3, To: TargetClause{Affinity: "friendly", Section: true}},
			},
		},
		{
			text: `Lane Override {3}
			Seize target enemy lane you do not control.`,
			cost: 3,
			effects: []Effect{
				SeizeLane{To: TargetClause{Affinity: "enemy", LaneWord: true, Uncontrolled: true}},
			},
		},
		{
			text: `Power Siphon {1}
			Gain 3 energy.`,
			cost: 1,
			effects: []Effect{
				GainEnergy{Amount: 3},
			},
		},
		{
			text: `Salvage Run {3}
			Draw a card, and gain 2 energy.`,
			cost: 3,
			effects: []Effect{
				DrawCards{A: true},
				GainEnergy{Amount: 2},
			},
		},
		{
			text: `Recalibrate {2}
			Draw 2 cards.`,
			cost: 2,
			effects: []Effect{
				DrawCards{Number: 2},
			},
		},
	}
	for _, tt := range tests {
		card, err := parser.Parse(tt.text)
		require.NoError(t, err, tt.text)
		assert.Equal(t, tt.cost, card.Cost.Number)
		assert.Equal(t, tt.effects, card.Effects, tt.text)
	}
}

func TestCardParserRejectsUnknownVerbs(t *testing.T) {
	parser := NewCardParser()
	_, err := parser.Parse(`Havoc {1}
	Obliterate every enemy drone.`)
	assert.Error(t, err)
}

func TestBuiltinCardsParse(t *testing.T) {
	cards := BuiltinCards()
	require.Len(t, cards, 11)
	for _, c := range cards {
		assert.NotEmpty(t, c.Name)
		assert.NotEmpty(t, c.Effects, c.Name)
	}
	assert.NotNil(t, FindCard(cards, "pulse bolt"), "lookup is case-insensitive")
	assert.Nil(t, FindCard(cards, "Singularity"))
}

func TestTargetClauseLowering(t *testing.T) {
	parser := NewCardParser()
	card, err := parser.Parse(`Lane Override {3}
	Seize target enemy lane you do not control.`)
	require.NoError(t, err)

	spec, ok := card.TargetSpec()
	require.True(t, ok)
	assert.Equal(t, TargetLane, spec.Type)
	assert.Equal(t, AffinityEnemy, spec.Affinity)
	require.NotNil(t, spec.Filter)

	// The uncontrolled filter keys on the actor's own lane control.
	m := testMatch(t)
	m.state.LaneControl[LaneCenter] = hostID
	refs := ResolveTargets(m.state, hostID, spec)
	for _, r := range refs {
		assert.NotEqual(t, LaneCenter, r.Lane)
	}
	require.Len(t, refs, 2)

	untargeted, err := parser.Parse(`Power Siphon {1}
	Gain 3 energy.`)
	require.NoError(t, err)
	_, ok = untargeted.TargetSpec()
	assert.False(t, ok)
}

func TestSeizeLaneEffect(t *testing.T) {
	m := testMatch(t)
	toActionPhase(t, m)
	ps := m.state.Players[hostID]
	ps.Hand = append(ps.Hand, &CardInstance{ID: ulid.Make(), Card: FindCard(m.cards, "Lane Override")})
	override := handCard(t, ps, "Lane Override")

	ref := LaneRef(guestID, LaneRight)
	require.NoError(t, m.handleAction(Action{Type: ActionPlayCard, Player: hostID, Card: override.ID, Target: &ref}))
	assert.Equal(t, hostID, m.state.LaneControl[LaneRight])

	// A lane the actor already controls is no longer a legal target.
	ps.Hand = append(ps.Hand, &CardInstance{ID: ulid.Make(), Card: FindCard(m.cards, "Lane Override")})
	again := handCard(t, ps, "Lane Override")
	err := m.handleAction(Action{Type: ActionPlayCard, Player: hostID, Card: again.ID, Target: &ref})
	assert.Equal(t, CodeInvalidTarget, CodeOf(err))
}
