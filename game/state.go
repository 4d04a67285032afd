package game

import (
	"encoding/json"
	"fmt"

	"github.com/oklog/ulid/v2"
)

type PlayerID string

type Lane int8

type TurnPhase int8

const (
	LaneLeft Lane = iota
	LaneCenter
	LaneRight

	// PhaseNone is the pre-match sentinel for "no phase resolved yet".
	PhaseNone TurnPhase = -1

	PhaseDroneSelection TurnPhase = iota
	PhaseDeckSelection
	PhaseDeployment
	PhaseAction
	PhaseAllocateShields
	PhaseCombatResolution
)

const (
	laneCount    = 3
	laneCapacity = 4
	handLimit    = 8
	droneRoster  = 5
	startHand    = 4
	startEnergy  = 10
	roundIncome  = 5

	SectionBridge    = "bridge"
	SectionPowerCell = "powerCell"
	SectionDroneHub  = "droneControlHub"
)

var sectionNames = []string{SectionBridge, SectionPowerCell, SectionDroneHub}

func (l Lane) Valid() bool { return l >= LaneLeft && l <= LaneRight }

func (l Lane) String() string {
	switch l {
	case LaneLeft:
		return "left"
	case LaneCenter:
		return "center"
	case LaneRight:
		return "right"
	}
	return "unknown"
}

func (p TurnPhase) String() string {
	switch p {
	case PhaseDroneSelection:
		return "droneSelection"
	case PhaseDeckSelection:
		return "deckSelection"
	case PhaseDeployment:
		return "deployment"
	case PhaseAction:
		return "action"
	case PhaseAllocateShields:
		return "allocateShields"
	case PhaseCombatResolution:
		return "combatResolution"
	}
	return "unknown"
}

// Next returns the phase that follows p. The setup phases run once; the
// round phases cycle deployment -> action -> allocateShields ->
// combatResolution -> deployment.
func (p TurnPhase) Next() TurnPhase {
	if p == PhaseCombatResolution {
		return PhaseDeployment
	}
	return p + 1
}

func PhaseFromString(s string) (TurnPhase, bool) {
	for p := PhaseDroneSelection; p <= PhaseCombatResolution; p++ {
		if p.String() == s {
			return p, true
		}
	}
	return PhaseNone, false
}

// Phases go over the wire by name so peers stay readable and stable across
// engine versions.
func (p TurnPhase) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *TurnPhase) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	phase, ok := PhaseFromString(s)
	if !ok {
		return fmt.Errorf("unknown phase %q", s)
	}
	*p = phase
	return nil
}

type DroneTemplate struct {
	Name     string   `json:"name"`
	Attack   int      `json:"attack"`
	Hull     int      `json:"hull"`
	Speed    int      `json:"speed"`
	Shields  int      `json:"shields"`
	Cost     int      `json:"cost"`
	Class    string   `json:"class"`
	Keywords []string `json:"keywords,omitempty"`
}

func (t *DroneTemplate) HasKeyword(k string) bool {
	for _, kw := range t.Keywords {
		if kw == k {
			return true
		}
	}
	return false
}

type Drone struct {
	ID          ulid.ULID      `json:"id"`
	Template    *DroneTemplate `json:"template"`
	Damage      int            `json:"damage"`
	ShieldsLeft int            `json:"shieldsLeft"`
	Owner       PlayerID       `json:"owner"`
	Lane        Lane           `json:"lane"`
	DeployOrder int            `json:"deployOrder"`
	Exhausted   bool           `json:"exhausted"`
	RecentlyHit bool           `json:"recentlyHit"`
}

func (d *Drone) Hull() int      { return d.Template.Hull - d.Damage }
func (d *Drone) IsDamaged() bool { return d.Damage > 0 }

type ShipSection struct {
	Name      string `json:"name"`
	Hull      int    `json:"hull"`
	MaxHull   int    `json:"maxHull"`
	Shields   int    `json:"shields"`
	Allocated int    `json:"allocated"`
	Threshold int    `json:"threshold"`
	// AbilityUses counts remaining activations of the section ability.
	// Disabled while Hull is at or below Threshold.
	AbilityUses int `json:"abilityUses"`
}

func (s *ShipSection) Crippled() bool { return s.Hull <= s.Threshold }

type CardInstance struct {
	ID   ulid.ULID `json:"id"`
	Card *Card     `json:"card"`
}

type PlayerState struct {
	Hand     []*CardInstance  `json:"hand"`
	Deck     []*Card          `json:"-"`
	Energy   int              `json:"energy"`
	Sections map[string]*ShipSection `json:"sections"`
	Lanes    [laneCount][]*Drone     `json:"lanes"`
	Roster   []*DroneTemplate        `json:"roster"`
	Passed   bool                    `json:"passed"`
}

func newPlayerState() *PlayerState {
	ps := &PlayerState{
		Hand:     []*CardInstance{},
		Energy:   startEnergy,
		Sections: map[string]*ShipSection{},
	}
	ps.Sections[SectionBridge] = &ShipSection{Name: SectionBridge, Hull: 12, MaxHull: 12, Shields: 3, Threshold: 4, AbilityUses: 1}
	ps.Sections[SectionPowerCell] = &ShipSection{Name: SectionPowerCell, Hull: 10, MaxHull: 10, Shields: 2, Threshold: 3, AbilityUses: 2}
	ps.Sections[SectionDroneHub] = &ShipSection{Name: SectionDroneHub, Hull: 10, MaxHull: 10, Shields: 2, Threshold: 3, AbilityUses: 2}
	return ps
}

func (ps *PlayerState) FindCard(id ulid.ULID) *CardInstance {
	for _, c := range ps.Hand {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (ps *PlayerState) RemoveCard(card *CardInstance) {
	for i, c := range ps.Hand {
		if c == card {
			ps.Hand = append(ps.Hand[:i], ps.Hand[i+1:]...)
			return
		}
	}
}

// BoardState is the single authoritative root. Only the match run loop
// mutates it; everything else reads snapshots.
type BoardState struct {
	Host    PlayerID                 `json:"host"`
	Guest   PlayerID                 `json:"guest"`
	Players map[PlayerID]*PlayerState `json:"players"`
	Phase   TurnPhase                `json:"phase"`
	Round   int                      `json:"round"`
	// LaneControl records which player currently controls a lane, set and
	// cleared by card effects only. Empty id means uncontested.
	LaneControl [laneCount]PlayerID `json:"laneControl"`

	deployCounter int
}

func NewBoardState(host, guest PlayerID) *BoardState {
	return &BoardState{
		Host:  host,
		Guest: guest,
		Phase: PhaseDroneSelection,
		Round: 0,
		Players: map[PlayerID]*PlayerState{
			host:  newPlayerState(),
			guest: newPlayerState(),
		},
	}
}

// Order returns both player ids, host first. Every iteration over players
// goes through this so that resolution order is deterministic.
func (s *BoardState) Order() [2]PlayerID { return [2]PlayerID{s.Host, s.Guest} }

func (s *BoardState) Player(id PlayerID) *PlayerState { return s.Players[id] }

func (s *BoardState) Opponent(id PlayerID) PlayerID {
	if id == s.Host {
		return s.Guest
	}
	return s.Host
}

func (s *BoardState) FindDrone(id ulid.ULID) *Drone {
	for _, pid := range s.Order() {
		for l := range s.Players[pid].Lanes {
			for _, d := range s.Players[pid].Lanes[l] {
				if d.ID == id {
					return d
				}
			}
		}
	}
	return nil
}

func (s *BoardState) RemoveDrone(d *Drone) {
	ps := s.Players[d.Owner]
	lane := ps.Lanes[d.Lane]
	for i, c := range lane {
		if c == d {
			ps.Lanes[d.Lane] = append(lane[:i], lane[i+1:]...)
			return
		}
	}
}

func (s *BoardState) PlaceDrone(owner PlayerID, t *DroneTemplate, lane Lane) *Drone {
	s.deployCounter++
	d := &Drone{
		ID:          ulid.Make(),
		Template:    t,
		ShieldsLeft: t.Shields,
		Owner:       owner,
		Lane:        lane,
		DeployOrder: s.deployCounter,
	}
	ps := s.Players[owner]
	ps.Lanes[lane] = append(ps.Lanes[lane], d)
	return d
}

func (s *BoardState) laneFull(owner PlayerID, lane Lane) bool {
	return len(s.Players[owner].Lanes[lane]) >= laneCapacity
}

// Clone deep-copies the board state. Used by the no-partial-mutation checks
// and by deterministic replay tests.
func (s *BoardState) Clone() *BoardState {
	c := &BoardState{
		Host:          s.Host,
		Guest:         s.Guest,
		Phase:         s.Phase,
		Round:         s.Round,
		LaneControl:   s.LaneControl,
		deployCounter: s.deployCounter,
		Players:       map[PlayerID]*PlayerState{},
	}
	for id, ps := range s.Players {
		cp := &PlayerState{
			Energy:   ps.Energy,
			Passed:   ps.Passed,
			Sections: map[string]*ShipSection{},
			Hand:     make([]*CardInstance, len(ps.Hand)),
			Deck:     make([]*Card, len(ps.Deck)),
			Roster:   make([]*DroneTemplate, len(ps.Roster)),
		}
		copy(cp.Deck, ps.Deck)
		copy(cp.Roster, ps.Roster)
		for i, card := range ps.Hand {
			cc := *card
			cp.Hand[i] = &cc
		}
		for name, sec := range ps.Sections {
			sc := *sec
			cp.Sections[name] = &sc
		}
		for l := range ps.Lanes {
			cp.Lanes[l] = make([]*Drone, len(ps.Lanes[l]))
			for i, d := range ps.Lanes[l] {
				dc := *d
				cp.Lanes[l][i] = &dc
			}
		}
		c.Players[id] = cp
	}
	return c
}

// Fingerprint summarizes the mutable state for equality checks in tests.
func (s *BoardState) Fingerprint() string {
	out := fmt.Sprintf("phase=%s round=%d ctl=%v", s.Phase, s.Round, s.LaneControl)
	for _, pid := range s.Order() {
		ps := s.Players[pid]
		out += fmt.Sprintf(" [%s e=%d pass=%v hand=%d", pid, ps.Energy, ps.Passed, len(ps.Hand))
		for _, name := range sectionNames {
			sec := ps.Sections[name]
			out += fmt.Sprintf(" %s=%d/%d+%d", name, sec.Hull, sec.MaxHull, sec.Allocated)
		}
		for l := range ps.Lanes {
			for _, d := range ps.Lanes[l] {
				out += fmt.Sprintf(" %s@%d:%d dmg=%d sh=%d ex=%v", d.Template.Name, l, d.DeployOrder, d.Damage, d.ShieldsLeft, d.Exhausted)
			}
		}
		out += "]"
	}
	return out
}
