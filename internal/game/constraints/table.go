package constraints

import (
	"errors"
	"fmt"
)

// ErrOutOfRange is returned for invalid constraint ids or turn counts.
var ErrOutOfRange = errors.New("constraint out of range")

// Caster is a weak reference to the creature that set a timed value. The
// zero Caster means no caster is remembered.
type Caster uint32

// NoCaster marks timed values that do not depend on a creature.
const NoCaster Caster = 0

// Liveness resolves caster references at read time.
type Liveness interface {
	OnBoard(c Caster) bool
	Paralyzed(c Caster) bool
}

// TimedValue is a temporary override of a constraint. Turns is the number of
// turn boundaries the value survives; zero keeps it until its caster leaves
// the board.
type TimedValue struct {
	Value  int
	Turns  int
	Caster Caster
}

// Table stores the timed values of one owner (player, creature or team).
// A Table is not safe for concurrent use; it belongs to its match.
type Table struct {
	defs  []Definition
	timed [][]TimedValue
	live  Liveness
}

// NewTable creates an empty table. live may be nil when no value will ever
// carry a caster.
func NewTable(defs []Definition, live Liveness) *Table {
	return &Table{
		defs:  defs,
		timed: make([][]TimedValue, len(defs)),
		live:  live,
	}
}

// NewPlayerTable creates a table over the player constraint ids.
func NewPlayerTable(live Liveness) *Table {
	return NewTable(PlayerDefinitions(), live)
}

// NewCreatureTable creates a table over the creature constraint ids.
func NewCreatureTable(live Liveness) *Table {
	return NewTable(CreatureDefinitions(), live)
}

// Len returns the number of constraint ids the table accepts.
func (t *Table) Len() int {
	return len(t.defs)
}

// Valid reports whether id belongs to the table.
func (t *Table) Valid(id ID) bool {
	return id >= 0 && int(id) < len(t.defs)
}

// Definition returns the static definition of id.
func (t *Table) Definition(id ID) Definition {
	t.mustBeValid(id)
	return t.defs[id]
}

// Set appends a timed value.
func (t *Table) Set(id ID, value, turns int, caster Caster) error {
	if !t.Valid(id) {
		return fmt.Errorf("set constraint %d: %w", id, ErrOutOfRange)
	}
	if turns < 0 {
		return fmt.Errorf("set constraint %s for %d turns: %w", t.defs[id].Name, turns, ErrOutOfRange)
	}
	t.timed[id] = append(t.timed[id], TimedValue{Value: value, Turns: turns, Caster: caster})
	return nil
}

// Get resolves the effective value of id. Reading a value whose rule is
// ValueGetIncrement or ValueGetDecrement mutates it.
//
// Get panics with an error wrapping ErrOutOfRange for ids outside the table.
func (t *Table) Get(id ID) int {
	t.mustBeValid(id)
	switch t.defs[id].Rule {
	case GetFirst:
		return t.first(id)
	case GetLast:
		return t.last(id)
	default:
		return t.sum(id)
	}
}

// Overall combines this table with a value read from another table sharing
// the same ids (a creature and its team). Sums add up; first/last rules only
// consult this table when other is still the default.
func (t *Table) Overall(id ID, other int) int {
	t.mustBeValid(id)
	def := t.defs[id]
	switch def.Rule {
	case GetFirst:
		if other == def.Default {
			return t.first(id)
		}
		return other
	case GetLast:
		if other == def.Default {
			return t.last(id)
		}
		return other
	default:
		return other + t.sum(id)
	}
}

// Peek resolves id without caster filtering and without read-time
// mutation. It is meant for inspection (views, caster liveness).
func (t *Table) Peek(id ID) int {
	t.mustBeValid(id)
	def := t.defs[id]
	values := t.timed[id]
	switch def.Rule {
	case GetFirst:
		if len(values) > 0 {
			return values[0].Value
		}
		return def.Default
	case GetLast:
		if len(values) > 0 {
			return values[len(values)-1].Value
		}
		return def.Default
	default:
		total := def.Default
		for _, v := range values {
			total += v.Value
		}
		return total
	}
}

// PeekOverall is the non-mutating counterpart of Overall.
func (t *Table) PeekOverall(id ID, other int) int {
	t.mustBeValid(id)
	def := t.defs[id]
	if def.Rule == GetSum {
		return other + t.Peek(id)
	}
	if other == def.Default {
		return t.Peek(id)
	}
	return other
}

// Values returns a copy of the timed values stored for id.
func (t *Table) Values(id ID) []TimedValue {
	t.mustBeValid(id)
	out := make([]TimedValue, len(t.timed[id]))
	copy(out, t.timed[id])
	return out
}

// Clear drops every timed value.
func (t *Table) Clear() {
	for i := range t.timed {
		t.timed[i] = nil
	}
}

// TimeOut advances every timed value by one turn boundary. Values on their
// last turn, and values whose caster left the board, are removed. Survivors
// get their turn-based value rule applied.
func (t *Table) TimeOut() {
	for id := range t.timed {
		def := t.defs[id]
		kept := t.timed[id][:0]
		for _, v := range t.timed[id] {
			if v.Turns == 1 || !t.casterOnBoard(v.Caster) {
				continue
			}
			if v.Turns > 1 {
				v.Turns--
			}
			switch def.Value {
			case ValueTurnIncrement:
				v.Value++
			case ValueTurnDecrement:
				v.Value--
			}
			kept = append(kept, v)
		}
		t.timed[id] = kept
	}
}

func (t *Table) first(id ID) int {
	for i := 0; i < len(t.timed[id]); i++ {
		if t.qualifies(t.timed[id][i]) {
			return t.read(id, i)
		}
	}
	return t.defs[id].Default
}

func (t *Table) last(id ID) int {
	for i := len(t.timed[id]) - 1; i >= 0; i-- {
		if t.qualifies(t.timed[id][i]) {
			return t.read(id, i)
		}
	}
	return t.defs[id].Default
}

func (t *Table) sum(id ID) int {
	total := t.defs[id].Default
	// read may remove entries, so walk backwards
	for i := len(t.timed[id]) - 1; i >= 0; i-- {
		if t.qualifies(t.timed[id][i]) {
			total += t.read(id, i)
		}
	}
	return total
}

// read returns the stored value at index i and applies the read-time rule.
// Decrementing counters that reach zero are dropped.
func (t *Table) read(id ID, i int) int {
	entry := &t.timed[id][i]
	value := entry.Value
	switch t.defs[id].Value {
	case ValueGetIncrement:
		entry.Value++
	case ValueGetDecrement:
		entry.Value--
		if entry.Value <= 0 {
			t.timed[id] = append(t.timed[id][:i], t.timed[id][i+1:]...)
		}
	}
	return value
}

// qualifies skips values whose caster has left the board while paralyzed.
func (t *Table) qualifies(v TimedValue) bool {
	if v.Caster == NoCaster || t.live == nil {
		return true
	}
	return t.live.OnBoard(v.Caster) || !t.live.Paralyzed(v.Caster)
}

func (t *Table) casterOnBoard(c Caster) bool {
	if c == NoCaster || t.live == nil {
		return true
	}
	return t.live.OnBoard(c)
}

func (t *Table) mustBeValid(id ID) {
	if !t.Valid(id) {
		panic(fmt.Errorf("constraint %d of %d: %w", id, len(t.defs), ErrOutOfRange))
	}
}
