package game

import "github.com/oklog/ulid/v2"

// Snapshot is one player's view of the match. Hidden information is
// stripped before it leaves the host: the viewer sees their own hand and
// deck count, and only counts for the opponent. Built fresh per broadcast
// so a peer can never observe a half-applied mutation.
type Snapshot struct {
	Match    string     `json:"match"`
	Viewer   PlayerID   `json:"viewer"`
	Phase    TurnPhase  `json:"phase"`
	Round    int        `json:"round"`
	You      PlayerView `json:"you"`
	Opponent PlayerView `json:"opponent"`

	LaneControl [laneCount]PlayerID `json:"laneControl"`

	// Interception is present only while the viewer must answer one.
	Interception *InterceptionChoice `json:"interception,omitempty"`

	Over   bool     `json:"over"`
	Winner PlayerID `json:"winner,omitempty"`
}

type PlayerView struct {
	ID        PlayerID                `json:"id"`
	Energy    int                     `json:"energy"`
	Hand      []*CardInstance         `json:"hand,omitempty"`
	HandCount int                     `json:"handCount"`
	DeckCount int                     `json:"deckCount"`
	Sections  map[string]*ShipSection `json:"sections"`
	Lanes     [laneCount][]*Drone     `json:"lanes"`
	Roster    []*DroneTemplate        `json:"roster,omitempty"`
	Passed    bool                    `json:"passed"`
	Committed bool                    `json:"committed"`
}

func (m *Match) snapshot(viewer PlayerID) *Snapshot {
	opp := m.state.Opponent(viewer)
	snap := &Snapshot{
		Match:       m.ID.String(),
		Viewer:      viewer,
		Phase:       m.state.Phase,
		Round:       m.state.Round,
		You:         m.playerView(viewer, false),
		Opponent:    m.playerView(opp, true),
		LaneControl: m.state.LaneControl,
		Over:        m.over,
		Winner:      m.winner,
	}
	if m.intercept != nil && m.intercept.Defender == viewer {
		c := *m.intercept
		snap.Interception = &c
	}
	return snap
}

func (m *Match) playerView(id PlayerID, hidden bool) PlayerView {
	ps := m.state.Players[id]
	v := PlayerView{
		ID:        id,
		Energy:    ps.Energy,
		HandCount: len(ps.Hand),
		DeckCount: len(ps.Deck),
		Sections:  map[string]*ShipSection{},
		Passed:    ps.Passed,
	}
	if c, ok := m.commits[id]; ok {
		v.Committed = c.Completed
	}
	for _, name := range sectionNames {
		sec := *ps.Sections[name]
		v.Sections[name] = &sec
	}
	for l := range ps.Lanes {
		v.Lanes[l] = make([]*Drone, len(ps.Lanes[l]))
		for i, d := range ps.Lanes[l] {
			dd := *d
			v.Lanes[l][i] = &dd
		}
	}
	if !hidden {
		v.Hand = make([]*CardInstance, len(ps.Hand))
		copy(v.Hand, ps.Hand)
		v.Roster = ps.Roster
	}
	return v
}

// PendingInterceptor reports whether the drone is an eligible interceptor
// in the current pending choice. UI affordance helper.
func (s *Snapshot) PendingInterceptor(id ulid.ULID) bool {
	return s.Interception != nil && s.Interception.eligible(id)
}
