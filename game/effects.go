package game

type DealDamage struct {
	Amount int          `parser:"'deal' @Int 'damage' 'to'"`
	To     TargetClause `parser:"@@"`
}

func (f DealDamage) Target() (TargetClause, bool) { return f.To, true }
func (f DealDamage) Resolve(m *Match, actor PlayerID, target *TargetRef) {
	if target == nil {
		return
	}
	m.applyDamage(*target, f.Amount)
}

type Repair struct {
	Amount int          `parser:"'repair' @Int 'damage' 'on'"`
	To     TargetClause `parser:"@@"`
}

func (f Repair) Target() (TargetClause, bool) { return f.To, true }
func (f Repair) Resolve(m *Match, actor PlayerID, target *TargetRef) {
	if target == nil {
		return
	}
	switch target.Type {
	case TargetDrone:
		if d := m.state.FindDrone(target.Drone); d != nil {
			d.Damage -= f.Amount
			if d.Damage < 0 {
				d.Damage = 0
			}
			m.emit(Event{Type: EventDroneRepaired, Player: d.Owner, Drone: d.ID, Amount: f.Amount})
		}
	case TargetSection:
		if sec := m.state.Players[target.Owner].Sections[target.Section]; sec != nil {
			sec.Hull += f.Amount
			if sec.Hull > sec.MaxHull {
				sec.Hull = sec.MaxHull
			}
			m.emit(Event{Type: EventSectionRepaired, Player: target.Owner, Section: target.Section, Amount: f.Amount})
		}
	}
}

type RestoreShields struct {
	Amount int          `parser:"'restore' @Int ('shield'|'shields') ('to'|'on')"`
	To     TargetClause `parser:"@@"`
}

func (f RestoreShields) Target() (TargetClause, bool) { return f.To, true }
func (f RestoreShields) Resolve(m *Match, actor PlayerID, target *TargetRef) {
	if target == nil {
		return
	}
	switch target.Type {
	case TargetDrone:
		if d := m.state.FindDrone(target.Drone); d != nil {
			d.ShieldsLeft += f.Amount
			if d.ShieldsLeft > d.Template.Shields {
				d.ShieldsLeft = d.Template.Shields
			}
		}
	case TargetSection:
		if sec := m.state.Players[target.Owner].Sections[target.Section]; sec != nil {
			sec.Allocated += f.Amount
		}
	}
	m.emit(Event{Type: EventShieldsRestored, Player: target.Owner, Amount: f.Amount})
}

type SeizeLane struct {
	To TargetClause `parser:"'seize' @@"`
}

func (f SeizeLane) Target() (TargetClause, bool) { return f.To, true }
func (f SeizeLane) Resolve(m *Match, actor PlayerID, target *TargetRef) {
	if target == nil || target.Type != TargetLane {
		return
	}
	m.state.LaneControl[target.Lane] = actor
	m.emit(Event{Type: EventLaneSeized, Player: actor, Lane: target.Lane})
}

type GainEnergy struct {
	Amount int `parser:"'gain' @Int 'energy'"`
}

func (f GainEnergy) Target() (TargetClause, bool) { return TargetClause{}, false }
func (f GainEnergy) Resolve(m *Match, actor PlayerID, _ *TargetRef) {
	m.state.Players[actor].Energy += f.Amount
	m.emit(Event{Type: EventEnergyChanged, Player: actor, Amount: f.Amount})
}

type DrawCards struct {
	Number int  `parser:"'draw' ( @Int"`
	A      bool `parser:"| @('a'|'an') ) ('card'|'cards')"`
}

func (f DrawCards) count() int {
	if f.A {
		return 1
	}
	return f.Number
}

func (f DrawCards) Target() (TargetClause, bool) { return TargetClause{}, false }
func (f DrawCards) Resolve(m *Match, actor PlayerID, _ *TargetRef) {
	m.draw(actor, f.count())
}
