package game

import "strings"

const (
	KeywordGuardian = "guardian"
	KeywordSwift    = "swift"
	KeywordPiercing = "piercing"
)

var builtinCardText = `
Pulse Bolt {2}
Deal 3 damage to target enemy drone.

Focus Fire {3}
Deal 2 damage to target damaged enemy drone.

Breaching Charge {4}
Deal 4 damage to target enemy ship section.

Nanite Swarm {1}
Repair 2 damage on target damaged friendly drone.

Hull Patch {2}
Repair 3 damage on target friendly ship section.

Shield Surge {2}
Restore 2 shields to target friendly ship section.

Deflector Net {1}
Restore 1 shields on target friendly drone.

Lane Override {3}
Seize target enemy lane you do not control.

Power Siphon {1}
Gain 3 energy.

Recalibrate {2}
Draw 2 cards.

Salvage Run {3}
Draw a card, and gain 2 energy.
`

var builtinDrones = []*DroneTemplate{
	{Name: "Talon", Attack: 3, Hull: 3, Speed: 4, Shields: 0, Cost: 2, Class: "fighter", Keywords: []string{KeywordSwift}},
	{Name: "Bulwark", Attack: 1, Hull: 6, Speed: 1, Shields: 2, Cost: 3, Class: "tank", Keywords: []string{KeywordGuardian}},
	{Name: "Lancer", Attack: 4, Hull: 2, Speed: 3, Shields: 0, Cost: 3, Class: "striker", Keywords: []string{KeywordPiercing}},
	{Name: "Aegis", Attack: 2, Hull: 4, Speed: 2, Shields: 3, Cost: 4, Class: "tank", Keywords: []string{KeywordGuardian}},
	{Name: "Wasp", Attack: 2, Hull: 2, Speed: 5, Shields: 0, Cost: 1, Class: "fighter", Keywords: []string{KeywordSwift}},
	{Name: "Hammerhead", Attack: 5, Hull: 4, Speed: 2, Shields: 1, Cost: 5, Class: "striker"},
	{Name: "Drifter", Attack: 1, Hull: 3, Speed: 3, Shields: 1, Cost: 1, Class: "scout"},
	{Name: "Warden", Attack: 3, Hull: 5, Speed: 3, Shields: 2, Cost: 5, Class: "tank", Keywords: []string{KeywordGuardian}},
}

// BuiltinCards parses the embedded card set. Parse failures are programmer
// errors in the card text, so this panics.
func BuiltinCards() []*Card {
	p := NewCardParser()
	var cards []*Card
	for _, block := range strings.Split(strings.TrimSpace(builtinCardText), "\n\n") {
		cards = append(cards, p.MustParse(block))
	}
	return cards
}

func BuiltinDrones() []*DroneTemplate { return builtinDrones }

func FindDroneTemplate(name string) *DroneTemplate {
	for _, t := range builtinDrones {
		if strings.EqualFold(t.Name, name) {
			return t
		}
	}
	return nil
}

func FindCard(cards []*Card, name string) *Card {
	for _, c := range cards {
		if strings.EqualFold(c.Name, name) {
			return c
		}
	}
	return nil
}
