package game

import "github.com/oklog/ulid/v2"

type ActionType int8

const (
	ActionDeclareAttack ActionType = iota
	ActionDeployDrone
	ActionAllocateShield
	ActionActivateAbility
	ActionPlayCard
	ActionPass
	ActionChooseInterceptor
	ActionDeclineInterception
)

func (t ActionType) String() string {
	switch t {
	case ActionDeclareAttack:
		return "declare-attack"
	case ActionDeployDrone:
		return "deploy-drone"
	case ActionAllocateShield:
		return "allocate-shield"
	case ActionActivateAbility:
		return "activate-ability"
	case ActionPlayCard:
		return "play-card"
	case ActionPass:
		return "pass"
	case ActionChooseInterceptor:
		return "choose-interceptor"
	case ActionDeclineInterception:
		return "decline-interception"
	}
	return "unknown"
}

// ActionTypeFromString maps the wire name back to the enum.
func ActionTypeFromString(s string) (ActionType, bool) {
	for t := ActionDeclareAttack; t <= ActionDeclineInterception; t++ {
		if t.String() == s {
			return t, true
		}
	}
	return 0, false
}

// Action is a player's proposed board mutation. Which fields matter depends
// on Type; everything is validated before anything is applied.
type Action struct {
	Type    ActionType `json:"type"`
	Player  PlayerID   `json:"playerId"`
	Drone   ulid.ULID  `json:"drone,omitempty"`    // acting or chosen drone
	Deploy  string     `json:"deploy,omitempty"`   // roster template name
	Lane    Lane       `json:"lane,omitempty"`
	Card    ulid.ULID  `json:"card,omitempty"`     // hand card instance
	Target  *TargetRef `json:"target,omitempty"`
	Section string     `json:"section,omitempty"`
	Amount  int        `json:"amount,omitempty"`
}

// MandatoryAction blocks every submission that is not a satisfying response
// from the named player.
type MandatoryAction struct {
	Player    PlayerID
	Satisfies []ActionType
}

func (ma *MandatoryAction) satisfiedBy(t ActionType) bool {
	for _, s := range ma.Satisfies {
		if s == t {
			return true
		}
	}
	return false
}

func phaseAccepts(phase TurnPhase, t ActionType) bool {
	switch phase {
	case PhaseDeployment:
		return t == ActionDeployDrone || t == ActionPass
	case PhaseAction:
		switch t {
		case ActionDeclareAttack, ActionPlayCard, ActionActivateAbility,
			ActionPass, ActionChooseInterceptor, ActionDeclineInterception:
			return true
		}
	case PhaseAllocateShields:
		return t == ActionAllocateShield || t == ActionPass
	}
	return false
}

// handleAction runs the full validation pipeline, short-circuiting on the
// first failure, and applies the mutation only after every check passed.
// A rejected action leaves the board byte-identical.
func (m *Match) handleAction(a Action) error {
	if m.over {
		return ruleErr(CodeNotEligible, "match is over")
	}
	ps := m.state.Players[a.Player]
	if ps == nil {
		return ruleErr(CodeNotEligible, "unknown player %s", a.Player)
	}
	// 1. Phase gate.
	if !phaseAccepts(m.state.Phase, a.Type) {
		return ruleErr(CodePhaseMismatch, "%s not accepted during %s", a.Type, m.state.Phase)
	}
	// 2. Mandatory action gate.
	if m.mandatory != nil && (a.Player != m.mandatory.Player || !m.mandatory.satisfiedBy(a.Type)) {
		return ruleErr(CodeMandatoryActionPending, "pending decision for %s", m.mandatory.Player)
	}
	// 3. Pass state.
	if ps.Passed && a.Type != ActionChooseInterceptor && a.Type != ActionDeclineInterception {
		return ruleErr(CodeNotEligible, "%s has passed this phase", a.Player)
	}

	switch a.Type {
	case ActionPass:
		ps.Passed = true
		m.emit(Event{Type: EventPlayerPassed, Player: a.Player, Phase: m.state.Phase})
		return nil
	case ActionDeployDrone:
		return m.handleDeploy(a, ps)
	case ActionAllocateShield:
		return m.handleAllocateShield(a, ps)
	case ActionPlayCard:
		return m.handlePlayCard(a, ps)
	case ActionActivateAbility:
		return m.handleActivateAbility(a, ps)
	case ActionDeclareAttack:
		return m.handleDeclareAttack(a, ps)
	case ActionChooseInterceptor, ActionDeclineInterception:
		return m.handleInterceptResponse(a)
	}
	return ruleErr(CodeNotEligible, "unknown action %d", a.Type)
}

func (m *Match) handleDeploy(a Action, ps *PlayerState) error {
	t := FindDroneTemplate(a.Deploy)
	if t == nil || !m.rosterHas(ps, t) {
		return ruleErr(CodeNotEligible, "%q is not in the roster", a.Deploy)
	}
	if ps.Energy < t.Cost {
		return ruleErr(CodeInsufficientEnergy, "deploy %s costs %d, have %d", t.Name, t.Cost, ps.Energy)
	}
	if !a.Lane.Valid() {
		return ruleErr(CodeInvalidTarget, "no such lane %d", a.Lane)
	}
	if m.state.laneFull(a.Player, a.Lane) {
		return ruleErr(CodeNotEligible, "lane %s is at capacity", a.Lane)
	}
	ps.Energy -= t.Cost
	d := m.state.PlaceDrone(a.Player, t, a.Lane)
	m.emit(Event{Type: EventDroneDeployed, Player: a.Player, Drone: d.ID, Lane: a.Lane})
	return nil
}

func (m *Match) handleAllocateShield(a Action, ps *PlayerState) error {
	sec := ps.Sections[a.Section]
	if sec == nil {
		return ruleErr(CodeInvalidTarget, "no such section %q", a.Section)
	}
	if a.Amount < 0 || a.Amount > sec.Shields {
		return ruleErr(CodeNotEligible, "section %s holds at most %d shields", a.Section, sec.Shields)
	}
	sec.Allocated = a.Amount
	m.emit(Event{Type: EventShieldsAllocated, Player: a.Player, Section: a.Section, Amount: a.Amount})
	return nil
}

func (m *Match) handlePlayCard(a Action, ps *PlayerState) error {
	card := ps.FindCard(a.Card)
	if card == nil {
		return ruleErr(CodeNotEligible, "card %s is not in hand", a.Card)
	}
	if ps.Energy < card.Card.Cost.Number {
		return ruleErr(CodeInsufficientEnergy, "%s costs %d, have %d", card.Card.Name, card.Card.Cost.Number, ps.Energy)
	}
	spec, needsTarget := card.Card.TargetSpec()
	if needsTarget {
		if a.Target == nil {
			return ruleErr(CodeInvalidTarget, "%s requires a target", card.Card.Name)
		}
		if !ContainsTarget(ResolveTargets(m.state, a.Player, spec), *a.Target) {
			return ruleErr(CodeInvalidTarget, "%s is not a legal target for %s", a.Target, card.Card.Name)
		}
	}
	ps.Energy -= card.Card.Cost.Number
	ps.RemoveCard(card)
	m.emit(Event{Type: EventCardPlayed, Player: a.Player, Target: a.Target})
	for _, e := range card.Card.Effects {
		e.Resolve(m, a.Player, a.Target)
	}
	return nil
}

// handleActivateAbility fires a ship-section ability. Sections carry one
// fixed ability each; the activation-limit counter gates reuse.
func (m *Match) handleActivateAbility(a Action, ps *PlayerState) error {
	sec := ps.Sections[a.Section]
	if sec == nil {
		return ruleErr(CodeInvalidTarget, "no such section %q", a.Section)
	}
	if sec.Crippled() || sec.AbilityUses <= 0 {
		return ruleErr(CodeNotEligible, "%s ability is offline", a.Section)
	}
	switch a.Section {
	case SectionPowerCell:
		sec.AbilityUses--
		ps.Energy += 2
		m.emit(Event{Type: EventEnergyChanged, Player: a.Player, Amount: 2})
	case SectionDroneHub:
		sec.AbilityUses--
		m.draw(a.Player, 1)
	case SectionBridge:
		// Emergency repair on a damaged friendly drone.
		if a.Target == nil {
			return ruleErr(CodeInvalidTarget, "bridge ability requires a target")
		}
		spec := TargetSpec{Type: TargetDrone, Affinity: AffinityFriendly, Filter: FilterDamagedDrone}
		if !ContainsTarget(ResolveTargets(m.state, a.Player, spec), *a.Target) {
			return ruleErr(CodeInvalidTarget, "%s is not a damaged friendly drone", a.Target)
		}
		sec.AbilityUses--
		if d := m.state.FindDrone(a.Target.Drone); d != nil {
			d.Damage = 0
			m.emit(Event{Type: EventDroneRepaired, Player: a.Player, Drone: d.ID})
		}
	}
	m.emit(Event{Type: EventAbilityActivated, Player: a.Player, Section: a.Section})
	return nil
}

// handleDeclareAttack validates the attack, then either resolves it
// immediately or suspends it on an interception choice for the defender.
func (m *Match) handleDeclareAttack(a Action, ps *PlayerState) error {
	attacker := m.state.FindDrone(a.Drone)
	if attacker == nil || attacker.Owner != a.Player {
		return ruleErr(CodeNotEligible, "no such friendly drone %s", a.Drone)
	}
	if attacker.Exhausted {
		return ruleErr(CodeNotEligible, "%s has already acted", attacker.Template.Name)
	}
	if a.Target == nil {
		return ruleErr(CodeInvalidTarget, "declare-attack requires a target")
	}
	spec, err := m.attackSpec(a.Player, attacker)
	if err != nil {
		return err
	}
	if !ContainsTarget(ResolveTargets(m.state, a.Player, spec), *a.Target) {
		return ruleErr(CodeInvalidTarget, "%s is not a legal attack target", a.Target)
	}
	attacker.Exhausted = true
	m.emit(Event{Type: EventAttackDeclared, Player: a.Player, Drone: attacker.ID, Target: a.Target})

	defender := m.state.Opponent(a.Player)
	eligible := m.eligibleInterceptors(defender, attacker, *a.Target)
	if len(eligible) == 0 {
		m.resolveAttack(attacker, *a.Target)
		return nil
	}
	m.openInterception(attacker, *a.Target, defender, eligible)
	return nil
}

// attackSpec derives what the attacker may hit: enemy drones in its lane,
// or the lane-facing enemy section once the lane is clear of them.
func (m *Match) attackSpec(player PlayerID, attacker *Drone) (TargetSpec, error) {
	opp := m.state.Opponent(player)
	if len(m.state.Players[opp].Lanes[attacker.Lane]) > 0 {
		return TargetSpec{Type: TargetDrone, Affinity: AffinityEnemy, Filter: FilterInLane(attacker.Lane)}, nil
	}
	lane := attacker.Lane
	return TargetSpec{
		Type:     TargetSection,
		Affinity: AffinityEnemy,
		Filter: func(_ *BoardState, _ PlayerID, ref TargetRef) bool {
			return ref.Section == FacingSection(lane)
		},
	}, nil
}

func (m *Match) handleInterceptResponse(a Action) error {
	if m.intercept == nil {
		return ruleErr(CodeStaleOrOutOfOrder, "no interception pending")
	}
	if a.Player != m.intercept.Defender {
		return ruleErr(CodeMandatoryActionPending, "only the defender may respond")
	}
	if a.Type == ActionDeclineInterception {
		m.resolveInterception(a.Player, nil)
		return nil
	}
	if !m.intercept.eligible(a.Drone) {
		return ruleErr(CodeInvalidTarget, "%s is not an eligible interceptor", a.Drone)
	}
	id := a.Drone
	m.resolveInterception(a.Player, &id)
	return nil
}
