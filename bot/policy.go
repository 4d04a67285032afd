// Package bot drives one seat of a match with a simple scripted policy,
// good enough to exercise every phase of a solo game.
package bot

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/voidrun/dronewars/game"
)

// Policy reacts to match events through the same exported surface a remote
// peer would use: Snapshot, QueueAction and SubmitCommitment. It holds no
// board state of its own.
type Policy struct {
	id     game.PlayerID
	match  *game.Match
	events chan game.Event
	done   chan struct{}
	once   sync.Once
	log    logrus.FieldLogger
}

// New registers the policy's event handler. Call before the match loop
// starts; handlers cannot be added after Run.
func New(id game.PlayerID, m *game.Match, log logrus.FieldLogger) *Policy {
	p := &Policy{
		id:     id,
		match:  m,
		events: make(chan game.Event, 64),
		done:   make(chan struct{}),
		log:    log.WithField("bot", id),
	}
	m.On(game.AllEvents, func(e *game.Event) {
		select {
		case p.events <- *e:
		default:
		}
	})
	return p
}

func (p *Policy) Run() {
	// The opening phase never announces itself with a phase-changed
	// event, so take the first turn unprompted. The ticker re-checks the
	// board in case a burst of events overflowed the queue.
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	p.act()
	for {
		select {
		case <-ticker.C:
			p.act()
		case e := <-p.events:
			switch e.Type {
			case game.EventPhaseChanged:
				p.act()
			case game.EventInterceptRequested:
				if e.Player == p.id {
					p.respondToInterception()
				}
			case game.EventInterceptResolved:
				// A pending interception blocks commitments; retry now
				// that it cleared.
				p.act()
			}
		case <-p.done:
			return
		}
	}
}

func (p *Policy) Stop() {
	p.once.Do(func() { close(p.done) })
}

func (p *Policy) act() {
	snap, err := p.match.Snapshot(p.id)
	if err != nil || snap.Over {
		return
	}
	if snap.Interception != nil {
		p.respondToInterception()
		return
	}
	switch snap.Phase {
	case game.PhaseDroneSelection:
		p.commit(snap.Phase, game.CommitmentPayload{Drones: p.pickRoster()})
	case game.PhaseDeckSelection:
		p.commit(snap.Phase, game.CommitmentPayload{Deck: p.pickDeck()})
	case game.PhaseDeployment:
		p.commit(snap.Phase, p.planDeployment(snap))
	case game.PhaseAction:
		p.takeActions(snap)
	case game.PhaseAllocateShields:
		p.commit(snap.Phase, p.planAllocations(snap))
	}
}

func (p *Policy) commit(phase game.TurnPhase, payload game.CommitmentPayload) {
	err := p.match.SubmitCommitment(p.id, phase, payload)
	switch game.CodeOf(err) {
	case game.CodeNone, game.CodeAlreadyCommitted, game.CodeStaleOrOutOfOrder,
		game.CodeMandatoryActionPending:
	default:
		p.log.WithError(err).WithField("phase", phase.String()).Warn("commitment rejected")
	}
}

func (p *Policy) pickRoster() []string {
	var names []string
	for _, t := range game.BuiltinDrones() {
		names = append(names, t.Name)
		if len(names) == 5 {
			break
		}
	}
	return names
}

func (p *Policy) pickDeck() []string {
	var names []string
	for _, c := range game.BuiltinCards() {
		names = append(names, c.Name)
	}
	return names
}

// planDeployment spends down the energy budget left to right. Placements
// the board rejects at the transition are skipped there, so overcommitting
// is harmless, but staying inside the budget keeps the log quiet.
func (p *Policy) planDeployment(snap *game.Snapshot) game.CommitmentPayload {
	budget := snap.You.Energy
	lane := game.LaneLeft
	var placements []game.Placement
	for _, t := range snap.You.Roster {
		if t.Cost > budget {
			continue
		}
		if len(snap.You.Lanes[lane])+countInLane(placements, lane) >= 4 {
			lane = (lane + 1) % 3
		}
		placements = append(placements, game.Placement{Drone: t.Name, Lane: lane})
		budget -= t.Cost
		lane = (lane + 1) % 3
		if len(placements) == 3 {
			break
		}
	}
	if len(placements) == 0 {
		return game.CommitmentPayload{Pass: true}
	}
	return game.CommitmentPayload{Placements: placements}
}

func countInLane(placements []game.Placement, lane game.Lane) int {
	n := 0
	for _, pl := range placements {
		if pl.Lane == lane {
			n++
		}
	}
	return n
}

// takeActions sends one attack per ready drone, then passes and commits.
// Each attack may open an interception window for the defender; rejected
// follow-ups are expected and ignored.
func (p *Policy) takeActions(snap *game.Snapshot) {
	for lane, drones := range snap.You.Lanes {
		for _, d := range drones {
			if d.Exhausted {
				continue
			}
			target := p.pickTarget(snap, game.Lane(lane))
			err := p.match.QueueAction(game.Action{
				Type:   game.ActionDeclareAttack,
				Player: p.id,
				Drone:  d.ID,
				Target: &target,
			})
			if err != nil && game.CodeOf(err) != game.CodeMandatoryActionPending {
				p.log.WithError(err).Debug("attack rejected")
			}
		}
	}
	_ = p.match.QueueAction(game.Action{Type: game.ActionPass, Player: p.id})
	p.commit(game.PhaseAction, game.CommitmentPayload{Pass: true})
}

func (p *Policy) pickTarget(snap *game.Snapshot, lane game.Lane) game.TargetRef {
	if enemies := snap.Opponent.Lanes[lane]; len(enemies) > 0 {
		return game.DroneRef(enemies[0])
	}
	return game.SectionRef(snap.Opponent.ID, game.FacingSection(lane))
}

func (p *Policy) planAllocations(snap *game.Snapshot) game.CommitmentPayload {
	alloc := map[string]int{}
	for name, sec := range snap.You.Sections {
		if sec.Shields > 0 {
			alloc[name] = sec.Shields
		}
	}
	return game.CommitmentPayload{Allocations: alloc}
}

// respondToInterception picks the first eligible guard. The engine falls
// back to a decline on timeout, so a failed response is not fatal.
func (p *Policy) respondToInterception() {
	snap, err := p.match.Snapshot(p.id)
	if err != nil || snap.Interception == nil {
		return
	}
	action := game.Action{Type: game.ActionDeclineInterception, Player: p.id}
	if len(snap.Interception.Eligible) > 0 {
		action = game.Action{
			Type:   game.ActionChooseInterceptor,
			Player: p.id,
			Drone:  snap.Interception.Eligible[0],
		}
	}
	if err := p.match.QueueAction(action); err != nil {
		p.log.WithError(err).Debug("interception response rejected")
	}
}
