package game

import (
	"time"

	"github.com/oklog/ulid/v2"
)

type InterceptState int8

const (
	InterceptIdle InterceptState = iota
	InterceptAwaitingChoice
)

// InterceptionChoice suspends an attack while the defender decides whether
// to redirect it. Exactly one may exist at a time; while it does, the
// mandatory-action gate rejects everything except the defender's answer.
type InterceptionChoice struct {
	Attacker ulid.ULID   `json:"attacker"`
	Target   TargetRef   `json:"target"`
	Lane     Lane        `json:"lane"`
	Defender PlayerID    `json:"defender"`
	Eligible []ulid.ULID `json:"eligibleInterceptors"`

	gen int
}

func (m *Match) interceptState() InterceptState {
	if m.intercept != nil {
		return InterceptAwaitingChoice
	}
	return InterceptIdle
}

// interceptorEligible is the reactive-defense predicate: same lane as the
// attack, not the declared target itself, alive, unexhausted, and either
// fast enough to cut the attacker off or a guardian.
func interceptorEligible(d *Drone, attacker *Drone, target TargetRef) bool {
	if d.Exhausted || d.Hull() <= 0 {
		return false
	}
	if target.Type == TargetDrone && d.ID == target.Drone {
		return false
	}
	if d.Lane != attacker.Lane {
		return false
	}
	return d.Template.Speed >= attacker.Template.Speed || d.Template.HasKeyword(KeywordGuardian)
}

// eligibleInterceptors runs the friendly-affinity resolver for the defender
// with the eligibility predicate, in deterministic board order.
func (m *Match) eligibleInterceptors(defender PlayerID, attacker *Drone, target TargetRef) []ulid.ULID {
	refs := ResolveTargets(m.state, defender, TargetSpec{
		Type:     TargetDrone,
		Affinity: AffinityFriendly,
		Filter: func(s *BoardState, _ PlayerID, ref TargetRef) bool {
			d := s.FindDrone(ref.Drone)
			return d != nil && interceptorEligible(d, attacker, target)
		},
	})
	ids := make([]ulid.ULID, 0, len(refs))
	for _, r := range refs {
		ids = append(ids, r.Drone)
	}
	return ids
}

// openInterception suspends the attack and arms the host-side decline timer
// so a silent defender can never deadlock the match.
func (m *Match) openInterception(attacker *Drone, target TargetRef, defender PlayerID, eligible []ulid.ULID) {
	m.interceptGen++
	m.intercept = &InterceptionChoice{
		Attacker: attacker.ID,
		Target:   target,
		Lane:     attacker.Lane,
		Defender: defender,
		Eligible: eligible,
		gen:      m.interceptGen,
	}
	m.mandatory = &MandatoryAction{
		Player:    defender,
		Satisfies: []ActionType{ActionChooseInterceptor, ActionDeclineInterception},
	}
	m.emit(Event{Type: EventInterceptRequested, Player: defender, Drone: attacker.ID, Target: &target, Lane: attacker.Lane})
	if m.interceptTimeout > 0 {
		gen := m.interceptGen
		time.AfterFunc(m.interceptTimeout, func() {
			m.expireInterception(gen)
		})
	}
}

// expireInterception posts a host-authored decline if the same choice is
// still pending. The generation counter makes late timers no-ops.
func (m *Match) expireInterception(gen int) {
	m.post(func() {
		if m.intercept == nil || m.intercept.gen != gen || m.over {
			return
		}
		m.resolveInterception(m.intercept.Defender, nil)
	})
}

// resolveInterception finishes the suspended attack. A non-nil interceptor
// id redirects the attack onto that drone; nil declines and the original
// target takes the resolution.
func (m *Match) resolveInterception(defender PlayerID, interceptor *ulid.ULID) {
	choice := m.intercept
	m.intercept = nil
	m.mandatory = nil

	attacker := m.state.FindDrone(choice.Attacker)
	if attacker == nil {
		// Attacker was removed by an effect while the choice was pending;
		// nothing left to resolve.
		m.emit(Event{Type: EventInterceptResolved, Player: defender})
		return
	}
	target := choice.Target
	if interceptor != nil {
		target = TargetRef{Type: TargetDrone, Owner: defender, Drone: *interceptor, Lane: choice.Lane}
	}
	m.emit(Event{Type: EventInterceptResolved, Player: defender, Target: &target})
	m.resolveAttack(attacker, target)
}

func (c *InterceptionChoice) eligible(id ulid.ULID) bool {
	for _, e := range c.Eligible {
		if e == id {
			return true
		}
	}
	return false
}
