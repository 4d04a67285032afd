package game

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

type TargetType int8

type Affinity int8

const (
	TargetDrone TargetType = iota
	TargetLane
	TargetSection

	AffinityFriendly Affinity = iota
	AffinityEnemy
	AffinityAny
)

func (t TargetType) String() string {
	switch t {
	case TargetDrone:
		return "drone"
	case TargetLane:
		return "lane"
	case TargetSection:
		return "shipSection"
	}
	return "unknown"
}

func (a Affinity) String() string {
	switch a {
	case AffinityFriendly:
		return "friendly"
	case AffinityEnemy:
		return "enemy"
	case AffinityAny:
		return "any"
	}
	return "unknown"
}

// TargetRef identifies one board element. Drone refs carry the instance id,
// lane refs the owning side and lane, section refs the side and section name.
type TargetRef struct {
	Type    TargetType `json:"type"`
	Owner   PlayerID   `json:"owner"`
	Drone   ulid.ULID  `json:"drone,omitempty"`
	Lane    Lane       `json:"lane,omitempty"`
	Section string     `json:"section,omitempty"`
}

func DroneRef(d *Drone) TargetRef {
	return TargetRef{Type: TargetDrone, Owner: d.Owner, Drone: d.ID, Lane: d.Lane}
}

func LaneRef(owner PlayerID, lane Lane) TargetRef {
	return TargetRef{Type: TargetLane, Owner: owner, Lane: lane}
}

func SectionRef(owner PlayerID, name string) TargetRef {
	return TargetRef{Type: TargetSection, Owner: owner, Section: name}
}

func (r TargetRef) String() string {
	switch r.Type {
	case TargetDrone:
		return fmt.Sprintf("drone:%s", r.Drone)
	case TargetLane:
		return fmt.Sprintf("lane:%s:%s", r.Owner, r.Lane)
	case TargetSection:
		return fmt.Sprintf("section:%s:%s", r.Owner, r.Section)
	}
	return "invalid"
}

// TargetFilter is the effect-specific predicate slotted into a TargetSpec.
// Filters narrow the affinity/type set; they never widen it.
type TargetFilter func(s *BoardState, actor PlayerID, ref TargetRef) bool

// TargetSpec is a closed description of what an action or effect may affect.
type TargetSpec struct {
	Type     TargetType
	Affinity Affinity
	Filter   TargetFilter
}

func FilterDamagedDrone(s *BoardState, _ PlayerID, ref TargetRef) bool {
	d := s.FindDrone(ref.Drone)
	return d != nil && d.IsDamaged()
}

func FilterUncontrolledLane(s *BoardState, actor PlayerID, ref TargetRef) bool {
	return s.LaneControl[ref.Lane] != actor
}

// FilterInLane restricts drone targets to a single lane.
func FilterInLane(lane Lane) TargetFilter {
	return func(_ *BoardState, _ PlayerID, ref TargetRef) bool {
		return ref.Lane == lane
	}
}

// FilterKeyword restricts drone targets to templates carrying a keyword.
func FilterKeyword(k string) TargetFilter {
	return func(s *BoardState, _ PlayerID, ref TargetRef) bool {
		d := s.FindDrone(ref.Drone)
		return d != nil && d.Template.HasKeyword(k)
	}
}

func (spec TargetSpec) sideEligible(s *BoardState, actor, owner PlayerID) bool {
	switch spec.Affinity {
	case AffinityFriendly:
		return owner == actor
	case AffinityEnemy:
		return owner != actor
	}
	return true
}

// ResolveTargets computes the full legal-target set for an acting player and
// spec. Pure and deterministic: host side first, lanes left to right, drones
// in deployment order. The action processor re-runs this on every submitted
// action; it is never just a UI hint.
func ResolveTargets(s *BoardState, actor PlayerID, spec TargetSpec) []TargetRef {
	var out []TargetRef
	seen := map[TargetRef]bool{}
	add := func(ref TargetRef) {
		if seen[ref] {
			return
		}
		if spec.Filter != nil && !spec.Filter(s, actor, ref) {
			return
		}
		seen[ref] = true
		out = append(out, ref)
	}
	for _, pid := range s.Order() {
		if !spec.sideEligible(s, actor, pid) {
			continue
		}
		switch spec.Type {
		case TargetDrone:
			ps := s.Players[pid]
			for l := range ps.Lanes {
				for _, d := range ps.Lanes[l] {
					add(DroneRef(d))
				}
			}
		case TargetLane:
			for l := Lane(0); l < laneCount; l++ {
				add(LaneRef(pid, l))
			}
		case TargetSection:
			for _, name := range sectionNames {
				add(SectionRef(pid, name))
			}
		}
	}
	return out
}

// ContainsTarget reports whether ref is in the resolved set. Drone refs
// compare by instance id so a ref built from a stale lane still matches.
func ContainsTarget(set []TargetRef, ref TargetRef) bool {
	for _, r := range set {
		if r.Type != ref.Type {
			continue
		}
		switch r.Type {
		case TargetDrone:
			if r.Drone == ref.Drone {
				return true
			}
		case TargetLane:
			if r.Owner == ref.Owner && r.Lane == ref.Lane {
				return true
			}
		case TargetSection:
			if r.Owner == ref.Owner && r.Section == ref.Section {
				return true
			}
		}
	}
	return false
}
