package game

import (
	"github.com/go-playground/validator/v10"
	"github.com/oklog/ulid/v2"
)

// Placement asks for one drone from the selected roster in one lane.
type Placement struct {
	Drone string `json:"drone" validate:"required"`
	Lane  Lane   `json:"lane" validate:"gte=0,lte=2"`
}

// CommitmentPayload is the per-phase submission body. Which fields are
// required depends on the phase; validatePayload enforces the shape.
// Shape only: semantic legality (energy, capacity) is applied, not checked,
// at the phase transition.
type CommitmentPayload struct {
	Drones      []string       `json:"drones,omitempty" validate:"omitempty,dive,required"`
	Deck        []string       `json:"deck,omitempty" validate:"omitempty,dive,required"`
	Placements  []Placement    `json:"placements,omitempty" validate:"omitempty,dive"`
	Allocations map[string]int `json:"allocations,omitempty" validate:"omitempty,dive,gte=0"`
	Pass        bool           `json:"pass,omitempty"`
}

type Commitment struct {
	Completed bool              `json:"completed"`
	Payload   CommitmentPayload `json:"payload"`
}

var payloadValidator = validator.New()

func validatePayload(phase TurnPhase, p CommitmentPayload) error {
	if err := payloadValidator.Struct(p); err != nil {
		return ruleErr(CodeInvalidPayload, "%v", err)
	}
	switch phase {
	case PhaseDroneSelection:
		if len(p.Drones) != droneRoster {
			return ruleErr(CodeInvalidPayload, "droneSelection requires exactly %d drones, got %d", droneRoster, len(p.Drones))
		}
	case PhaseDeckSelection:
		if len(p.Deck) == 0 {
			return ruleErr(CodeInvalidPayload, "deckSelection requires a deck list")
		}
	case PhaseDeployment:
		if !p.Pass && len(p.Placements) == 0 {
			return ruleErr(CodeInvalidPayload, "deployment requires placements or an explicit pass")
		}
	case PhaseAllocateShields:
		for name := range p.Allocations {
			if name != SectionBridge && name != SectionPowerCell && name != SectionDroneHub {
				return ruleErr(CodeInvalidPayload, "unknown section %q", name)
			}
		}
	}
	return nil
}

// submitCommitment and tryAdvance run on the match loop; see Match.
func (m *Match) submitCommitment(player PlayerID, phase TurnPhase, payload CommitmentPayload) error {
	if m.state.Players[player] == nil {
		return ruleErr(CodeNotEligible, "unknown player %s", player)
	}
	if m.mandatory != nil {
		// The phase cannot move while a decision is owed.
		return ruleErr(CodeMandatoryActionPending, "pending decision for %s", m.mandatory.Player)
	}
	if phase != m.state.Phase {
		if phase == m.lastPhase {
			// Normal latency: the peer committed to a phase the host just
			// advanced past. Dropped at the protocol layer, not surfaced.
			return ruleErr(CodeStaleOrOutOfOrder, "phase %s already resolved", phase)
		}
		return ruleErr(CodePhaseMismatch, "commitment for %s while in %s", phase, m.state.Phase)
	}
	if c, ok := m.commits[player]; ok && c.Completed {
		return ruleErr(CodeAlreadyCommitted, "%s already committed for %s", player, phase)
	}
	if err := validatePayload(phase, payload); err != nil {
		return err
	}
	m.commits[player] = &Commitment{Completed: true, Payload: payload}
	m.emit(Event{Type: EventCommitted, Player: player, Phase: phase})
	m.tryAdvance()
	return nil
}

// tryAdvance moves to the next phase iff both players have completed
// commitments. Payload effects apply host first, then guest, so that
// order-sensitive interactions (simultaneous deployment into one lane)
// resolve deterministically.
func (m *Match) tryAdvance() {
	for _, pid := range m.state.Order() {
		if c, ok := m.commits[pid]; !ok || !c.Completed {
			return
		}
	}
	leaving := m.state.Phase
	for _, pid := range m.state.Order() {
		m.applyCommitment(pid, leaving, m.commits[pid].Payload)
	}
	m.commits = map[PlayerID]*Commitment{}
	m.lastPhase = leaving
	m.state.Phase = leaving.Next()
	m.emit(Event{Type: EventPhaseChanged, Phase: m.state.Phase})

	switch m.state.Phase {
	case PhaseCombatResolution:
		m.resolveCombatPhase()
	case PhaseDeployment:
		m.startRound()
	}
}

func (m *Match) applyCommitment(player PlayerID, phase TurnPhase, p CommitmentPayload) {
	ps := m.state.Players[player]
	switch phase {
	case PhaseDroneSelection:
		ps.Roster = ps.Roster[:0]
		for _, name := range p.Drones {
			if t := FindDroneTemplate(name); t != nil {
				ps.Roster = append(ps.Roster, t)
			}
		}
	case PhaseDeckSelection:
		ps.Deck = ps.Deck[:0]
		for _, name := range p.Deck {
			if c := FindCard(m.cards, name); c != nil {
				ps.Deck = append(ps.Deck, c)
			}
		}
		m.draw(player, startHand)
	case PhaseDeployment:
		if p.Pass {
			return
		}
		for _, pl := range p.Placements {
			m.deployFromRoster(player, pl.Drone, pl.Lane)
		}
	case PhaseAllocateShields:
		for name, n := range p.Allocations {
			if sec := ps.Sections[name]; sec != nil && n <= sec.Shields {
				sec.Allocated = n
				m.emit(Event{Type: EventShieldsAllocated, Player: player, Section: name, Amount: n})
			}
		}
	}
}

// deployFromRoster places a roster drone if energy and lane capacity allow;
// illegal placements inside a commitment are skipped, not errors, because
// shape was already accepted.
func (m *Match) deployFromRoster(player PlayerID, name string, lane Lane) *Drone {
	if !lane.Valid() {
		return nil
	}
	ps := m.state.Players[player]
	t := FindDroneTemplate(name)
	if t == nil || !m.rosterHas(ps, t) {
		return nil
	}
	if ps.Energy < t.Cost || m.state.laneFull(player, lane) {
		return nil
	}
	ps.Energy -= t.Cost
	d := m.state.PlaceDrone(player, t, lane)
	m.emit(Event{Type: EventDroneDeployed, Player: player, Drone: d.ID, Lane: lane})
	return d
}

func (m *Match) rosterHas(ps *PlayerState, t *DroneTemplate) bool {
	for _, r := range ps.Roster {
		if r == t {
			return true
		}
	}
	return false
}

func (m *Match) draw(player PlayerID, n int) {
	ps := m.state.Players[player]
	for i := 0; i < n; i++ {
		if len(ps.Deck) == 0 || len(ps.Hand) >= handLimit {
			return
		}
		card := ps.Deck[0]
		ps.Deck = ps.Deck[1:]
		ps.Hand = append(ps.Hand, &CardInstance{ID: ulid.Make(), Card: card})
		m.emit(Event{Type: EventCardDrawn, Player: player})
	}
}

// startRound resets per-round transient state when play cycles back to
// deployment.
func (m *Match) startRound() {
	m.state.Round++
	for _, pid := range m.state.Order() {
		ps := m.state.Players[pid]
		ps.Passed = false
		income := roundIncome
		if !ps.Sections[SectionPowerCell].Crippled() {
			income += 2
		}
		ps.Energy += income
		if !ps.Sections[SectionDroneHub].Crippled() {
			m.draw(pid, 1)
		}
		for l := range ps.Lanes {
			for _, d := range ps.Lanes[l] {
				d.Exhausted = false
				d.RecentlyHit = false
			}
		}
	}
	m.emit(Event{Type: EventRoundStarted, Amount: m.state.Round})
}
