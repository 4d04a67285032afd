package game

import (
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Card is the parsed form of a card's rules text. The grammar is the
// authoritative definition of what cards can say; anything it rejects is not
// a card.
type Card struct {
	Name    string   `parser:"@Ident"`
	Cost    CostType `parser:"@@"`
	Effects []Effect `parser:"(@@ ((',' ('then'|'and')?|'and') @@)* '.')?"`
	Text    string
}

type CostType struct {
	Number int `parser:"'{' @Int '}'"`
}

// TargetClause is the textual target requirement of an effect, e.g.
// "target damaged friendly drone" or "target enemy lane you do not control".
type TargetClause struct {
	Damaged      bool   `parser:"'target' @'damaged'?"`
	Affinity     string `parser:"@('friendly'|'enemy'|'any')"`
	Drone        bool   `parser:"( @('drone'|'drones')"`
	LaneWord     bool   `parser:"| @('lane'|'lanes')"`
	Section      bool   `parser:"| @('ship' 'section') )"`
	Keyword      string `parser:"('with' @Ident)?"`
	Uncontrolled bool   `parser:"@('you' 'do' 'not' 'control')?"`
}

// Spec lowers the clause into the closed targeting union the resolver and
// action processor consume.
func (c TargetClause) Spec() TargetSpec {
	spec := TargetSpec{}
	switch c.Affinity {
	case "friendly":
		spec.Affinity = AffinityFriendly
	case "enemy":
		spec.Affinity = AffinityEnemy
	default:
		spec.Affinity = AffinityAny
	}
	switch {
	case c.Drone:
		spec.Type = TargetDrone
	case c.LaneWord:
		spec.Type = TargetLane
	case c.Section:
		spec.Type = TargetSection
	}
	var filters []TargetFilter
	if c.Damaged {
		filters = append(filters, FilterDamagedDrone)
	}
	if c.Uncontrolled {
		filters = append(filters, FilterUncontrolledLane)
	}
	if c.Keyword != "" {
		filters = append(filters, FilterKeyword(c.Keyword))
	}
	if len(filters) > 0 {
		spec.Filter = func(s *BoardState, actor PlayerID, ref TargetRef) bool {
			for _, f := range filters {
				if !f(s, actor, ref) {
					return false
				}
			}
			return true
		}
	}
	return spec
}

// Effect is the closed union of card effect verbs.
type Effect interface {
	// Target returns the target clause when the effect requires one.
	Target() (TargetClause, bool)
	// Resolve applies the effect. target is nil for untargeted effects.
	Resolve(m *Match, actor PlayerID, target *TargetRef)
}

// TargetSpec returns the first target requirement of the card, if any.
// At most one effect per card may carry a target clause.
func (c *Card) TargetSpec() (TargetSpec, bool) {
	for _, e := range c.Effects {
		if clause, ok := e.Target(); ok {
			return clause.Spec(), true
		}
	}
	return TargetSpec{}, false
}

type CardParser struct {
	parser *participle.Parser[Card]
}

func NewCardParser() *CardParser {
	parser := participle.MustBuild[Card](
		participle.Lexer(lexer.MustSimple([]lexer.SimpleRule{
			{Name: "whitespace", Pattern: `[\s]+`},
			{Name: "Ident", Pattern: `[a-zA-Z]\w*`},
			{Name: "Punct", Pattern: `[-+,{}/:.]`},
			{Name: "Int", Pattern: `\d+`},
		})),
		participle.Union[Effect](
			DealDamage{},
			Repair{},
			RestoreShields{},
			SeizeLane{},
			GainEnergy{},
			DrawCards{},
		),
		participle.UseLookahead(3),
	)
	return &CardParser{parser}
}

func (p *CardParser) Parse(txt string) (*Card, error) {
	name := strings.TrimSpace(strings.SplitN(strings.SplitN(strings.TrimSpace(txt), "\n", 2)[0], "{", 2)[0])
	input := strings.ReplaceAll(strings.ToLower(txt), strings.ToLower(name), "NAME")
	card, err := p.parser.ParseString("", input)
	if err != nil {
		return nil, err
	}
	card.Name = name
	card.Text = txt
	return card, nil
}

func (p *CardParser) MustParse(txt string) *Card {
	card, err := p.Parse(txt)
	if err != nil {
		panic(err)
	}
	return card
}
