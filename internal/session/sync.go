package session

import (
	"slices"

	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

func cardData(views []engine.CardView) []protocol.CardData {
	out := make([]protocol.CardData, len(views))
	for i, v := range views {
		out[i] = protocol.CardData{
			ID:         uint32(v.ID),
			Attack:     uint32(v.Attack),
			Health:     uint32(v.Health),
			Shield:     uint32(v.Shield),
			ShieldType: uint32(v.ShieldType),
		}
	}
	return out
}

// writeDiff appends the messages needed to move a client from prev to next.
// A nil prev writes everything.
func writeDiff(w *protocol.Writer, prev *engine.View, next engine.View) {
	full := prev == nil
	value := func(t protocol.TransferType, before, after int) {
		if full || before != after {
			protocol.WriteValue(w, t, uint32(after))
		}
	}
	zone := func(t protocol.TransferType, before, after []engine.CardView) {
		if full || !slices.Equal(before, after) {
			protocol.WriteCards(w, t, cardData(after))
		}
	}
	if prev == nil {
		prev = &engine.View{}
	}
	value(protocol.GamePlayerEnergyUpdated, prev.Energy, next.Energy)
	value(protocol.GamePlayerHealthUpdated, prev.Health, next.Health)
	value(protocol.GameOpponentHealthUpdated, prev.OpponentHealth, next.OpponentHealth)
	value(protocol.GameDeckUpdated, prev.DeckSize, next.DeckSize)
	value(protocol.GameOpponentHandUpdated, prev.OpponentHandSize, next.OpponentHandSize)
	zone(protocol.GameHandUpdated, prev.Hand, next.Hand)
	zone(protocol.GameBoardUpdated, prev.Board, next.Board)
	zone(protocol.GameOpponentBoardUpdated, prev.OpponentBoard, next.OpponentBoard)
	zone(protocol.GameGraveyardUpdated, prev.Graveyard, next.Graveyard)
}
