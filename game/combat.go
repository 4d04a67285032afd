package game

import "sort"

// applyDamage routes effect or combat damage to whatever the ref names.
// Drone shields absorb before hull; section allocated shields absorb before
// section hull.
func (m *Match) applyDamage(ref TargetRef, amount int) {
	switch ref.Type {
	case TargetDrone:
		if d := m.state.FindDrone(ref.Drone); d != nil {
			m.damageDrone(d, amount, false)
		}
	case TargetSection:
		if sec := m.state.Players[ref.Owner].Sections[ref.Section]; sec != nil {
			m.damageSection(ref.Owner, sec, amount)
		}
	}
}

func (m *Match) damageDrone(d *Drone, amount int, piercing bool) {
	if amount <= 0 {
		return
	}
	if !piercing && d.ShieldsLeft > 0 {
		absorbed := min(d.ShieldsLeft, amount)
		d.ShieldsLeft -= absorbed
		amount -= absorbed
	}
	d.RecentlyHit = true
	if amount > 0 {
		d.Damage += amount
		m.emit(Event{Type: EventDroneDamaged, Player: d.Owner, Drone: d.ID, Amount: amount})
	}
	if d.Hull() <= 0 {
		m.state.RemoveDrone(d)
		m.emit(Event{Type: EventDroneDestroyed, Player: d.Owner, Drone: d.ID})
	}
}

func (m *Match) damageSection(owner PlayerID, sec *ShipSection, amount int) {
	if sec.Allocated > 0 {
		absorbed := min(sec.Allocated, amount)
		sec.Allocated -= absorbed
		amount -= absorbed
	}
	if amount <= 0 {
		return
	}
	wasCrippled := sec.Crippled()
	sec.Hull -= amount
	if sec.Hull < 0 {
		sec.Hull = 0
	}
	m.emit(Event{Type: EventSectionDamaged, Player: owner, Section: sec.Name, Amount: amount})
	if !wasCrippled && sec.Crippled() {
		sec.AbilityUses = 0
	}
	if sec.Name == SectionBridge && sec.Hull == 0 {
		m.finish(m.state.Opponent(owner))
	}
}

// resolveAttack settles one attacker-versus-target exchange. Target may be a
// drone (after any interception redirect) or a ship section. Speed decides
// first strike between drones: the faster side hits first and, if the hit
// destroys the other, takes no return damage. Equal speed strikes land
// simultaneously, deployment order only ordering the emitted events.
func (m *Match) resolveAttack(attacker *Drone, target TargetRef) {
	if target.Type != TargetDrone {
		m.applyDamage(target, attacker.Template.Attack)
		return
	}
	defender := m.state.FindDrone(target.Drone)
	if defender == nil {
		return
	}
	piercing := attacker.Template.HasKeyword(KeywordPiercing)
	switch {
	case attacker.Template.Speed > defender.Template.Speed:
		m.damageDrone(defender, attacker.Template.Attack, piercing)
		if defender.Hull() > 0 && m.state.FindDrone(defender.ID) != nil {
			m.damageDrone(attacker, defender.Template.Attack, false)
		}
	case attacker.Template.Speed < defender.Template.Speed:
		m.damageDrone(attacker, defender.Template.Attack, false)
		if attacker.Hull() > 0 && m.state.FindDrone(attacker.ID) != nil {
			m.damageDrone(defender, attacker.Template.Attack, piercing)
		}
	default:
		// Simultaneous. Both strikes land; only event order follows the
		// deployment-order counter.
		aDmg, dDmg := attacker.Template.Attack, defender.Template.Attack
		if attacker.DeployOrder <= defender.DeployOrder {
			m.damageDrone(defender, aDmg, piercing)
			m.damageDrone(attacker, dDmg, false)
		} else {
			m.damageDrone(attacker, dDmg, false)
			m.damageDrone(defender, aDmg, piercing)
		}
	}
}

// resolveCombatPhase runs on entry to combatResolution: every surviving
// drone that did not act this round strikes across its lane, fastest first,
// deployment order breaking speed ties, host side breaking exact ties.
func (m *Match) resolveCombatPhase() {
	for lane := Lane(0); lane < laneCount; lane++ {
		var strikers []*Drone
		for _, pid := range m.state.Order() {
			for _, d := range m.state.Players[pid].Lanes[lane] {
				if !d.Exhausted {
					strikers = append(strikers, d)
				}
			}
		}
		sort.SliceStable(strikers, func(i, j int) bool {
			if strikers[i].Template.Speed != strikers[j].Template.Speed {
				return strikers[i].Template.Speed > strikers[j].Template.Speed
			}
			return strikers[i].DeployOrder < strikers[j].DeployOrder
		})
		for _, d := range strikers {
			if m.state.FindDrone(d.ID) == nil || d.Hull() <= 0 {
				continue
			}
			target, ok := m.laneStrikeTarget(d)
			if !ok {
				continue
			}
			if target.Type == TargetDrone {
				if td := m.state.FindDrone(target.Drone); td != nil {
					m.damageDrone(td, d.Template.Attack, d.Template.HasKeyword(KeywordPiercing))
				}
			} else {
				m.applyDamage(target, d.Template.Attack)
			}
			if m.over {
				return
			}
		}
	}
	if m.over {
		return
	}
	// Allocated shields not consumed decay at round end.
	for _, pid := range m.state.Order() {
		for _, sec := range m.state.Players[pid].Sections {
			sec.Allocated = 0
		}
	}
	// Resolution needs no decision from either side; acknowledge for both so
	// the ring moves on. The commitments still pass through the normal path.
	m.submitAck(m.state.Host)
	m.submitAck(m.state.Guest)
}

func (m *Match) submitAck(player PlayerID) {
	if m.over {
		return
	}
	_ = m.submitCommitment(player, PhaseCombatResolution, CommitmentPayload{Pass: true})
}

// laneStrikeTarget picks the opposing front of the lane: the oldest enemy
// drone, or the enemy ship section facing the lane when the lane is clear.
func (m *Match) laneStrikeTarget(d *Drone) (TargetRef, bool) {
	opp := m.state.Opponent(d.Owner)
	enemies := m.state.Players[opp].Lanes[d.Lane]
	if len(enemies) > 0 {
		front := enemies[0]
		for _, e := range enemies[1:] {
			if e.DeployOrder < front.DeployOrder {
				front = e
			}
		}
		return DroneRef(front), true
	}
	return SectionRef(opp, FacingSection(d.Lane)), true
}

// FacingSection maps a lane to the ship section it faces.
func FacingSection(l Lane) string {
	switch l {
	case LaneLeft:
		return SectionPowerCell
	case LaneCenter:
		return SectionBridge
	}
	return SectionDroneHub
}

func (m *Match) finish(winner PlayerID) {
	if m.over {
		return
	}
	m.over = true
	m.winner = winner
	m.emit(Event{Type: EventMatchOver, Player: winner})
}
