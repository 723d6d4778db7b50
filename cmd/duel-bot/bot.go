package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

type phase int

const (
	phaseIdle phase = iota
	phaseUsing
	phaseSelecting
	phaseResolving
	phaseAttacking
)

// opponentPlayer is the attack target addressing the opposing player.
const opponentPlayer = -1

// bot plays one match with a fixed strategy: use the first hand card,
// attack the opponent with every creature, end the turn.
type bot struct {
	logger *zap.Logger

	phase      phase
	remaining  int
	hand       int
	board      int
	nextAttack int

	energy uint32
	health uint32
	over   *protocol.EndGame
}

func newBot(logger *zap.Logger) *bot {
	return &bot{logger: logger}
}

func isReply(t protocol.TransferType) bool {
	switch t {
	case protocol.Acknowledge, protocol.Failure, protocol.GameNotEnoughEnergy,
		protocol.GameCardLimitTurnReached, protocol.GameSendNbOfEffects:
		return true
	}
	return false
}

// handle processes one server packet and returns the packets to answer with.
func (b *bot) handle(packet []byte) ([][]byte, error) {
	r := protocol.NewReader(packet)
	t, err := r.Type()
	if err != nil {
		return nil, err
	}

	if b.phase == phaseSelecting {
		t, list, err := protocol.ParseSelectionRequest(packet)
		if err != nil {
			return nil, err
		}
		if t != protocol.Acknowledge {
			// The turn timed out during the selection.
			b.phase = phaseIdle
			return nil, nil
		}
		b.logger.Debug("selection requested", zap.Int("zones", len(list)))
		indices := make([]uint32, len(list))
		b.remaining--
		if b.remaining == 0 {
			b.phase = phaseResolving
		}
		return [][]byte{protocol.EncodeIndices(indices)}, nil
	}

	if b.phase != phaseIdle && isReply(t) {
		return b.reply(t, r)
	}
	return b.update(packet)
}

func (b *bot) reply(t protocol.TransferType, r *protocol.Reader) ([][]byte, error) {
	switch b.phase {
	case phaseUsing:
		if t != protocol.GameSendNbOfEffects {
			b.logger.Debug("card refused", zap.Stringer("reply", t))
			return b.startAttacks(), nil
		}
		n, err := r.U32()
		if err != nil {
			return nil, err
		}
		if n == 0 {
			b.phase = phaseResolving
			return nil, nil
		}
		b.phase = phaseSelecting
		b.remaining = int(n)
		return nil, nil
	case phaseResolving:
		b.logger.Debug("card resolved", zap.Stringer("reply", t))
		return b.startAttacks(), nil
	case phaseAttacking:
		if t != protocol.Acknowledge {
			b.logger.Debug("attack refused", zap.Stringer("reply", t))
		}
		return b.attackOrEnd(), nil
	}
	return nil, fmt.Errorf("unexpected %s", t)
}

// update applies a state packet.
func (b *bot) update(packet []byte) ([][]byte, error) {
	msgs, err := protocol.ParseServerPacket(packet)
	if err != nil {
		return nil, err
	}
	var out [][]byte
	for _, msg := range msgs {
		switch msg.Type {
		case protocol.GamePlayerEnergyUpdated:
			b.energy = msg.Value
		case protocol.GamePlayerHealthUpdated:
			b.health = msg.Value
		case protocol.GameHandUpdated:
			b.hand = len(msg.Cards)
		case protocol.GameBoardUpdated:
			b.board = len(msg.Cards)
		case protocol.GamePlayerEnterTurn:
			out = append(out, b.startTurn()...)
		case protocol.GamePlayerLeaveTurn:
			b.phase = phaseIdle
		case protocol.GameOver:
			end := msg.EndGame
			b.over = &end
			b.phase = phaseIdle
			return nil, nil
		}
	}
	return out, nil
}

func (b *bot) startTurn() [][]byte {
	b.logger.Debug("turn started",
		zap.Uint32("energy", b.energy),
		zap.Uint32("health", b.health),
		zap.Int("hand", b.hand),
		zap.Int("board", b.board),
	)
	if b.hand == 0 {
		return b.startAttacks()
	}
	b.phase = phaseUsing
	return [][]byte{protocol.EncodeUseCard(0)}
}

func (b *bot) startAttacks() [][]byte {
	b.nextAttack = 0
	return b.attackOrEnd()
}

func (b *bot) attackOrEnd() [][]byte {
	if b.nextAttack < b.board {
		i := b.nextAttack
		b.nextAttack++
		b.phase = phaseAttacking
		return [][]byte{protocol.EncodeAttack(int32(i), opponentPlayer)}
	}
	b.phase = phaseIdle
	return [][]byte{protocol.Header(protocol.GamePlayerLeaveTurn)}
}

// result returns the end of the match once GAME_OVER arrived.
func (b *bot) result() (protocol.EndGame, bool) {
	if b.over == nil {
		return protocol.EndGame{}, false
	}
	return *b.over, true
}
