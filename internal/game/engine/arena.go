package engine

import (
	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

// Handle is a stable reference to a creature of a match. The zero Handle
// references nothing.
type Handle uint32

// NoHandle is the empty creature reference.
const NoHandle Handle = 0

func (h Handle) caster() constraints.Caster {
	return constraints.Caster(h)
}

// arena stores every creature instantiated for a match. Creatures are never
// removed, so handles stay valid for the whole match and timed values can
// re-check their caster by lookup.
type arena struct {
	creatures []*Creature
}

func (a *arena) add(c *Creature) Handle {
	a.creatures = append(a.creatures, c)
	c.handle = Handle(len(a.creatures))
	return c.handle
}

// get returns the creature behind h, or nil.
func (a *arena) get(h Handle) *Creature {
	if h == NoHandle || int(h) > len(a.creatures) {
		return nil
	}
	return a.creatures[h-1]
}

// OnBoard implements constraints.Liveness.
func (a *arena) OnBoard(c constraints.Caster) bool {
	creature := a.get(Handle(c))
	return creature != nil && creature.onBoard
}

// Paralyzed implements constraints.Liveness. It never mutates tables.
func (a *arena) Paralyzed(c constraints.Caster) bool {
	creature := a.get(Handle(c))
	if creature == nil {
		return true
	}
	return creature.peekConstraint(constraints.CreatureParalyzed) != 0
}
