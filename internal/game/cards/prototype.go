package cards

import (
	"errors"
	"fmt"
)

// ID identifies a card prototype in the catalog.
type ID uint32

// Kind distinguishes creature cards from spell cards.
type Kind int

const (
	KindCreature Kind = iota
	KindSpell
)

func (k Kind) String() string {
	switch k {
	case KindCreature:
		return "CREATURE"
	case KindSpell:
		return "SPELL"
	default:
		return fmt.Sprintf("KIND_%d", int(k))
	}
}

// ShieldType selects how a creature's shield mitigates damage.
type ShieldType uint32

const (
	// ShieldNone lets all damage through.
	ShieldNone ShieldType = iota
	// ShieldBlue subtracts the shield from incoming damage.
	ShieldBlue
	// ShieldOrange stops damage that does not exceed the shield.
	ShieldOrange
	// ShieldLegendary stops every non-forced damage.
	ShieldLegendary
)

var shieldTypeNames = map[ShieldType]string{
	ShieldNone:      "NONE",
	ShieldBlue:      "BLUE",
	ShieldOrange:    "ORANGE",
	ShieldLegendary: "LEGENDARY",
}

func (s ShieldType) String() string {
	if name, ok := shieldTypeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SHIELD_%d", uint32(s))
}

// Valid reports whether s is a known shield type.
func (s ShieldType) Valid() bool {
	_, ok := shieldTypeNames[s]
	return ok
}

// EffectParams is one encoded effect: subject, operation, then operands.
type EffectParams []uint32

// MaxEffectParams bounds the length of a single effect parameter list.
const MaxEffectParams = 7

// ErrInvalidPrototype is returned when catalog data is inconsistent.
var ErrInvalidPrototype = errors.New("invalid card prototype")

// Prototype is the immutable catalog data of a card. Prototypes are shared by
// every match and must never be mutated after the catalog is built.
type Prototype struct {
	ID          ID
	Name        string
	Kind        Kind
	Cost        int
	Attack      int
	Health      int
	Shield      int
	ShieldType  ShieldType
	Effects     []EffectParams
	Description string
}

// IsCreature reports whether the prototype describes a creature.
func (p *Prototype) IsCreature() bool {
	return p.Kind == KindCreature
}

// IsSpell reports whether the prototype describes a spell.
func (p *Prototype) IsSpell() bool {
	return p.Kind == KindSpell
}

// Validate checks static consistency of the prototype.
func (p *Prototype) Validate() error {
	if p.Cost < 0 {
		return fmt.Errorf("card %d: negative cost %d: %w", p.ID, p.Cost, ErrInvalidPrototype)
	}
	switch p.Kind {
	case KindCreature:
		if p.Health <= 0 {
			return fmt.Errorf("card %d: creature health %d: %w", p.ID, p.Health, ErrInvalidPrototype)
		}
		if p.Attack < 0 || p.Shield < 0 {
			return fmt.Errorf("card %d: negative attack or shield: %w", p.ID, ErrInvalidPrototype)
		}
		if !p.ShieldType.Valid() {
			return fmt.Errorf("card %d: shield type %d: %w", p.ID, p.ShieldType, ErrInvalidPrototype)
		}
	case KindSpell:
		if p.Attack != 0 || p.Health != 0 || p.Shield != 0 {
			return fmt.Errorf("card %d: spell with creature stats: %w", p.ID, ErrInvalidPrototype)
		}
	default:
		return fmt.Errorf("card %d: kind %s: %w", p.ID, p.Kind, ErrInvalidPrototype)
	}
	for i, params := range p.Effects {
		if len(params) < 2 || len(params) > MaxEffectParams {
			return fmt.Errorf("card %d: effect %d has %d parameters: %w", p.ID, i, len(params), ErrInvalidPrototype)
		}
	}
	return nil
}

// Clone returns a deep copy of the prototype.
func (p *Prototype) Clone() *Prototype {
	clone := *p
	clone.Effects = make([]EffectParams, len(p.Effects))
	for i, params := range p.Effects {
		clone.Effects[i] = append(EffectParams(nil), params...)
	}
	return &clone
}
