package bot

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/voidrun/dronewars/game"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestPolicyAnswersEveryCommitmentPhase(t *testing.T) {
	m := game.NewMatch("ada", "drone-os", game.WithInterceptTimeout(100*time.Millisecond))
	policy := New("drone-os", m, quietLogger())
	go m.Run()
	go policy.Run()
	defer func() {
		policy.Stop()
		m.Stop()
	}()

	// The bot commits its roster unprompted; the human side follows.
	require.Eventually(t, func() bool {
		snap, err := m.Snapshot("ada")
		return err == nil && snap.Opponent.Committed
	}, 2*time.Second, 10*time.Millisecond)

	roster := []string{"Talon", "Bulwark", "Lancer", "Wasp", "Drifter"}
	require.NoError(t, m.SubmitCommitment("ada", game.PhaseDroneSelection, game.CommitmentPayload{Drones: roster}))

	require.Eventually(t, func() bool {
		snap, err := m.Snapshot("ada")
		return err == nil && snap.Phase == game.PhaseDeckSelection && snap.Opponent.Committed
	}, 2*time.Second, 10*time.Millisecond)

	deck := []string{"Pulse Bolt", "Power Siphon", "Recalibrate"}
	require.NoError(t, m.SubmitCommitment("ada", game.PhaseDeckSelection, game.CommitmentPayload{Deck: deck}))

	// Bot deploys drones and keeps the ring moving once the human passes
	// every phase.
	require.Eventually(t, func() bool {
		snap, err := m.Snapshot("ada")
		return err == nil && snap.Phase == game.PhaseDeployment && snap.Opponent.Committed
	}, 2*time.Second, 10*time.Millisecond)
}

func TestTwoPoliciesPlayWholeRounds(t *testing.T) {
	m := game.NewMatch("alpha", "beta", game.WithInterceptTimeout(100*time.Millisecond))
	a := New("alpha", m, quietLogger())
	b := New("beta", m, quietLogger())
	go m.Run()
	go a.Run()
	go b.Run()
	defer func() {
		a.Stop()
		b.Stop()
		m.Stop()
	}()

	// Two full trips around the phase ring, including combat, without a
	// human in the loop.
	require.Eventually(t, func() bool {
		if over, _ := m.Over(); over {
			return true
		}
		snap, err := m.Snapshot("alpha")
		return err == nil && snap.Round >= 3
	}, 10*time.Second, 20*time.Millisecond)
}

func TestPolicyDeploysWithinBudget(t *testing.T) {
	snap := &game.Snapshot{
		You: game.PlayerView{
			Energy: 4,
			Roster: []*game.DroneTemplate{
				{Name: "Hammerhead", Cost: 5},
				{Name: "Talon", Cost: 2},
				{Name: "Wasp", Cost: 1},
			},
		},
	}
	p := &Policy{id: "x", log: quietLogger()}
	payload := p.planDeployment(snap)
	require.Len(t, payload.Placements, 2)
	require.Equal(t, "Talon", payload.Placements[0].Drone)
	require.Equal(t, "Wasp", payload.Placements[1].Drone)
}

func TestPolicyPassesWhenBroke(t *testing.T) {
	snap := &game.Snapshot{
		You: game.PlayerView{
			Energy: 0,
			Roster: []*game.DroneTemplate{{Name: "Talon", Cost: 2}},
		},
	}
	p := &Policy{id: "x", log: quietLogger()}
	payload := p.planDeployment(snap)
	require.True(t, payload.Pass)
	require.Empty(t, payload.Placements)
}
