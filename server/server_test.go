package server

import (
	"encoding/json"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidrun/dronewars/game"
)

func TestWireActionConversion(t *testing.T) {
	droneID := ulid.Make()
	wire := WireAction{
		Type:  "declare-attack",
		Drone: droneID.String(),
		Target: &game.TargetRef{
			Type:    game.TargetSection,
			Owner:   "bob",
			Section: "bridge",
		},
	}
	action, err := wire.toAction("ada")
	require.NoError(t, err)
	assert.Equal(t, game.ActionDeclareAttack, action.Type)
	assert.Equal(t, game.PlayerID("ada"), action.Player)
	assert.Equal(t, droneID, action.Drone)
	require.NotNil(t, action.Target)
	assert.Equal(t, "bridge", action.Target.Section)
}

func TestWireActionRejectsUnknownType(t *testing.T) {
	_, err := (&WireAction{Type: "self-destruct"}).toAction("ada")
	assert.Error(t, err)
}

func TestWireActionRejectsBadIds(t *testing.T) {
	_, err := (&WireAction{Type: "declare-attack", Drone: "not-a-ulid"}).toAction("ada")
	assert.Error(t, err)

	_, err = (&WireAction{Type: "play-card", Card: "nope"}).toAction("ada")
	assert.Error(t, err)
}

func TestWireCommitmentDecodesPhaseNames(t *testing.T) {
	raw := []byte(`{"phase":"deployment","payload":{"placements":[{"drone":"Talon","lane":0}]}}`)
	var wire WireCommitment
	require.NoError(t, json.Unmarshal(raw, &wire))
	assert.Equal(t, game.PhaseDeployment, wire.Phase)
	require.Len(t, wire.Payload.Placements, 1)
	assert.Equal(t, "Talon", wire.Payload.Placements[0].Drone)

	assert.Error(t, json.Unmarshal([]byte(`{"phase":"warp-drive"}`), &wire))
}

func TestWireErrorCarriesTaxonomyCode(t *testing.T) {
	msg := wireError(&game.RuleError{Code: game.CodePhaseMismatch, Reason: "wrong phase"})
	assert.Equal(t, GameErrorAction, msg.Type)

	var we WireError
	require.NoError(t, json.Unmarshal(msg.Data, &we))
	assert.Equal(t, "PhaseMismatch", we.Code)
	assert.Equal(t, "PhaseMismatch: wrong phase", we.Reason)
}

func TestMessageEncode(t *testing.T) {
	msg := newMessage(RoomJoinedAction, "room-7")
	msg.Sender = "ada"

	var decoded Message
	require.NoError(t, json.Unmarshal(msg.encode(), &decoded))
	assert.Equal(t, RoomJoinedAction, decoded.Type)
	assert.Equal(t, "ada", decoded.Sender)

	var name string
	require.NoError(t, json.Unmarshal(decoded.Data, &name))
	assert.Equal(t, "room-7", name)
}
