package protocol

import (
	"fmt"
)

// ClientMessage is a decoded client to server message. Only the fields of
// its Type are set.
type ClientMessage struct {
	Type TransferType

	// GAME_CONNECTION, GAME_REGISTERING
	Name     string
	Password string
	Port     uint16

	// GAME_PLAYER_GIVE_DECK_NAMES
	DeckName string

	// GAME_USE_CARD
	HandIndex int32

	// GAME_ATTACK_WITH_CREATURE
	SelfIndex   int32
	TargetIndex int32

	// PLAYER_CHECK_CONNECTION
	Target string
}

// ParseClientMessage decodes a packet holding exactly one client message.
func ParseClientMessage(payload []byte) (ClientMessage, error) {
	r := NewReader(payload)
	t, err := r.Type()
	if err != nil {
		return ClientMessage{}, err
	}
	msg := ClientMessage{Type: t}
	switch t {
	case GameConnection:
		if msg.Name, err = r.Text(); err != nil {
			break
		}
		if msg.Password, err = r.Text(); err != nil {
			break
		}
		msg.Port, err = r.U16()
	case GameRegistering:
		if msg.Name, err = r.Text(); err != nil {
			break
		}
		msg.Password, err = r.Text()
	case GamePlayerGiveDeckNames:
		msg.DeckName, err = r.Text()
	case GameUseCard:
		msg.HandIndex, err = r.I32()
	case GameAttackWithCreature:
		if msg.SelfIndex, err = r.I32(); err != nil {
			break
		}
		msg.TargetIndex, err = r.I32()
	case PlayerCheckConnection:
		msg.Target, err = r.Text()
	case PlayerDisconnection, GameRequest, GameCancelRequest, GamePlayerLeaveTurn, GameQuitGame:
	default:
		return ClientMessage{}, fmt.Errorf("%s from a client: %w", t, ErrUnexpectedMessage)
	}
	if err != nil {
		return ClientMessage{}, fmt.Errorf("%s: %w", t, err)
	}
	if !r.Done() {
		return ClientMessage{}, fmt.Errorf("%s: %d trailing bytes: %w", t, r.Remaining(), ErrMalformed)
	}
	return msg, nil
}

// ParseIndices decodes the client's answer to a selection request: a bare
// list of indices without a transfer type.
func ParseIndices(payload []byte) ([]uint32, error) {
	r := NewReader(payload)
	list, err := r.U32List()
	if err != nil {
		return nil, err
	}
	if !r.Done() {
		return nil, fmt.Errorf("indices: %d trailing bytes: %w", r.Remaining(), ErrMalformed)
	}
	return list, nil
}

// Header builds a packet made of a single payload-less message.
func Header(t TransferType) []byte {
	w := NewWriter()
	w.Type(t)
	return w.Bytes()
}

// NbOfEffects announces how many selection requests follow.
func NbOfEffects(n int) []byte {
	w := NewWriter()
	w.Type(GameSendNbOfEffects)
	w.U32(uint32(n))
	return w.Bytes()
}

// SelectionRequest asks the client for one index per listed zone.
func SelectionRequest(list []CardToSelect) []byte {
	w := NewWriter()
	w.Type(Acknowledge)
	w.SelectionList(list)
	return w.Bytes()
}

// OpponentFound tells a queued player the name of its opponent. The
// message carries no transfer type.
func OpponentFound(name string) []byte {
	w := NewWriter()
	w.Text(name)
	return w.Bytes()
}

// ConnectionState answers PLAYER_CHECK_CONNECTION.
func ConnectionState(present bool) []byte {
	w := NewWriter()
	w.Type(PlayerCheckConnection)
	w.Bool(present)
	return w.Bytes()
}

// WriteEndGame appends a GAME_OVER message.
func WriteEndGame(w *Writer, e EndGame) {
	w.Type(GameOver)
	w.U32(uint32(e.Cause))
	w.Bool(e.ApplyToSelf)
	if e.Cause == CauseEndingServer {
		return
	}
	if !e.ApplyToSelf {
		w.U32(e.WonCard)
	}
	w.U32List(e.Achievements)
}

func readEndGame(r *Reader) (EndGame, error) {
	var e EndGame
	cause, err := r.U32()
	if err != nil {
		return EndGame{}, err
	}
	e.Cause = EndCause(cause)
	if e.ApplyToSelf, err = r.Bool(); err != nil {
		return EndGame{}, err
	}
	if e.Cause == CauseEndingServer {
		return e, nil
	}
	if !e.ApplyToSelf {
		if e.WonCard, err = r.U32(); err != nil {
			return EndGame{}, err
		}
	}
	if e.Achievements, err = r.U32List(); err != nil {
		return EndGame{}, err
	}
	return e, nil
}

// Client side encoders.

func EncodeConnection(name, password string, port uint16) []byte {
	w := NewWriter()
	w.Type(GameConnection)
	w.Text(name)
	w.Text(password)
	w.U16(port)
	return w.Bytes()
}

func EncodeDeckName(name string) []byte {
	w := NewWriter()
	w.Type(GamePlayerGiveDeckNames)
	w.Text(name)
	return w.Bytes()
}

func EncodeUseCard(handIndex int32) []byte {
	w := NewWriter()
	w.Type(GameUseCard)
	w.I32(handIndex)
	return w.Bytes()
}

func EncodeAttack(selfIndex, targetIndex int32) []byte {
	w := NewWriter()
	w.Type(GameAttackWithCreature)
	w.I32(selfIndex)
	w.I32(targetIndex)
	return w.Bytes()
}

func EncodeIndices(indices []uint32) []byte {
	w := NewWriter()
	w.U32List(indices)
	return w.Bytes()
}
