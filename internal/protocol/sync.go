package protocol

import "fmt"

// WriteValue appends a state update carrying a single counter.
func WriteValue(w *Writer, t TransferType, v uint32) {
	w.Type(t)
	w.U32(v)
}

// WriteCards appends a zone update.
func WriteCards(w *Writer, t TransferType, cards []CardData) {
	w.Type(t)
	w.CardDataList(cards)
}

// Starting builds the packet that follows the initial sync.
func Starting(active bool) []byte {
	w := NewWriter()
	w.Type(GameStarting)
	if active {
		w.Type(GamePlayerEnterTurn)
	} else {
		w.Type(GamePlayerLeaveTurn)
	}
	return w.Bytes()
}

// ServerMessage is one decoded server to client message.
type ServerMessage struct {
	Type    TransferType
	Value   uint32
	Cards   []CardData
	EndGame EndGame
}

func isValueUpdate(t TransferType) bool {
	switch t {
	case GamePlayerEnergyUpdated, GamePlayerHealthUpdated, GameOpponentHealthUpdated,
		GameOpponentHandUpdated, GameDeckUpdated, GameSendNbOfEffects:
		return true
	}
	return false
}

func isCardsUpdate(t TransferType) bool {
	switch t {
	case GameBoardUpdated, GameOpponentBoardUpdated, GameGraveyardUpdated, GameHandUpdated:
		return true
	}
	return false
}

// ParseServerPacket decodes every message of a server packet, the way a
// client reads until the packet ends. Acknowledge is read without payload.
func ParseServerPacket(payload []byte) ([]ServerMessage, error) {
	r := NewReader(payload)
	var out []ServerMessage
	for !r.Done() {
		t, err := r.Type()
		if err != nil {
			return nil, err
		}
		msg := ServerMessage{Type: t}
		switch {
		case isValueUpdate(t):
			msg.Value, err = r.U32()
		case isCardsUpdate(t):
			msg.Cards, err = r.CardDataList()
		case t == GameOver:
			msg.EndGame, err = readEndGame(r)
		case t == PlayerCheckConnection:
			var present bool
			present, err = r.Bool()
			if present {
				msg.Value = 1
			}
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t, err)
		}
		out = append(out, msg)
	}
	return out, nil
}

// ParseSelectionRequest decodes a selection request. A rejection header
// yields its type and no list.
func ParseSelectionRequest(payload []byte) (TransferType, []CardToSelect, error) {
	r := NewReader(payload)
	t, err := r.Type()
	if err != nil {
		return 0, nil, err
	}
	if t != Acknowledge {
		return t, nil, nil
	}
	list, err := r.SelectionList()
	if err != nil {
		return 0, nil, err
	}
	return t, list, nil
}
