package game

import "github.com/oklog/ulid/v2"

type EventType int8

const (
	EventPhaseChanged EventType = iota
	EventRoundStarted
	EventCommitted
	EventDroneDeployed
	EventCardPlayed
	EventCardDrawn
	EventAbilityActivated
	EventAttackDeclared
	EventInterceptRequested
	EventInterceptResolved
	EventDroneDamaged
	EventDroneRepaired
	EventDroneDestroyed
	EventSectionDamaged
	EventSectionRepaired
	EventShieldsAllocated
	EventShieldsRestored
	EventEnergyChanged
	EventLaneSeized
	EventPlayerPassed
	EventMatchOver

	// AllEvents handlers fire on every emit, after the type-specific ones.
	AllEvents EventType = -1
)

func (e EventType) String() string {
	switch e {
	case EventPhaseChanged:
		return "phase-changed"
	case EventRoundStarted:
		return "round-started"
	case EventCommitted:
		return "committed"
	case EventDroneDeployed:
		return "drone-deployed"
	case EventCardPlayed:
		return "card-played"
	case EventCardDrawn:
		return "card-drawn"
	case EventAbilityActivated:
		return "ability-activated"
	case EventAttackDeclared:
		return "attack-declared"
	case EventInterceptRequested:
		return "intercept-requested"
	case EventInterceptResolved:
		return "intercept-resolved"
	case EventDroneDamaged:
		return "drone-damaged"
	case EventDroneRepaired:
		return "drone-repaired"
	case EventDroneDestroyed:
		return "drone-destroyed"
	case EventSectionDamaged:
		return "section-damaged"
	case EventSectionRepaired:
		return "section-repaired"
	case EventShieldsAllocated:
		return "shields-allocated"
	case EventShieldsRestored:
		return "shields-restored"
	case EventEnergyChanged:
		return "energy-changed"
	case EventLaneSeized:
		return "lane-seized"
	case EventPlayerPassed:
		return "player-passed"
	case EventMatchOver:
		return "match-over"
	}
	return "unknown"
}

// Event is the engine's change notification. The server layer turns these
// into broadcasts; the bot reacts to them in-process.
type Event struct {
	Type    EventType  `json:"type"`
	Player  PlayerID   `json:"player,omitempty"`
	Drone   ulid.ULID  `json:"drone,omitempty"`
	Target  *TargetRef `json:"target,omitempty"`
	Phase   TurnPhase  `json:"phase,omitempty"`
	Lane    Lane       `json:"lane,omitempty"`
	Section string     `json:"section,omitempty"`
	Amount  int        `json:"amount,omitempty"`
}

type EventHandler func(*Event)
