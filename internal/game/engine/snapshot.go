package engine

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/wizardpoker/duel-server-go/internal/game/constraints"
)

// Snapshot returns a canonical text form of the whole match state, hidden
// zones and timed values included. Two matches with equal snapshots are in
// the same state.
func (m *Match) Snapshot() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("MATCH:%s|%s|%d|%d|%d\n", m.id, m.state, m.turn, m.active, m.starter))
	if m.outcome != nil {
		buf.WriteString(fmt.Sprintf("OUTCOME:%s|%d\n", m.outcome.Cause, m.outcome.Loser))
	}
	for _, p := range m.players {
		buf.WriteString(fmt.Sprintf("PLAYER:%d|%s|%d|%d|%d|%d|%d|%d|%d|%d|%d\n",
			p.seat,
			p.name,
			p.health,
			p.energy,
			p.turnsPlayed,
			p.emptyDeckStreak,
			p.timeouts,
			p.turn.cardsUsed,
			p.turn.spellsCalled,
			p.turn.creaturesPlaced,
			p.turn.attacks,
		))
		writeZone(&buf, "DECK", p.deck)
		writeZone(&buf, "HAND", p.hand)
		writeZone(&buf, "GRAVEYARD", p.graveyard)
		buf.WriteString("  BOARD:\n")
		for _, c := range p.board {
			writeCreature(&buf, c)
		}
		writeTable(&buf, "  PLAYER_CONSTRAINT", p.constraints)
		writeTable(&buf, "  TEAM_CONSTRAINT", p.team)
	}
	return buf.String()
}

// Checksum is the SHA-256 of the snapshot.
func (m *Match) Checksum() string {
	sum := sha256.Sum256([]byte(m.Snapshot()))
	return hex.EncodeToString(sum[:])
}

func writeZone(buf *bytes.Buffer, name string, zone []Card) {
	buf.WriteString(fmt.Sprintf("  %s:", name))
	for i, c := range zone {
		if i > 0 {
			buf.WriteByte(',')
		}
		if creature, ok := c.(*Creature); ok {
			buf.WriteString(fmt.Sprintf("%d#%d", creature.proto.ID, creature.handle))
			continue
		}
		buf.WriteString(fmt.Sprintf("%d", cardID(c)))
	}
	buf.WriteByte('\n')
	for _, c := range zone {
		if creature, ok := c.(*Creature); ok {
			writeTable(buf, fmt.Sprintf("    CONSTRAINT#%d", creature.handle), creature.constraints)
		}
	}
}

func writeCreature(buf *bytes.Buffer, c *Creature) {
	buf.WriteString(fmt.Sprintf("    CREATURE:%d#%d|%d|%d|%d|%t|%t\n",
		c.proto.ID, c.handle, c.attack, c.health, c.shield, c.onBoard, c.attacked))
	writeTable(buf, "      CONSTRAINT", c.constraints)
}

func writeTable(buf *bytes.Buffer, prefix string, t *constraints.Table) {
	for id := constraints.ID(0); int(id) < t.Len(); id++ {
		for _, v := range t.Values(id) {
			buf.WriteString(fmt.Sprintf("%s:%s=%d/%d/%d\n", prefix, t.Definition(id).Name, v.Value, v.Turns, v.Caster))
		}
	}
}
