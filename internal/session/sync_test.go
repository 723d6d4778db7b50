package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

func sampleView() engine.View {
	return engine.View{
		Energy:           10,
		Health:           20,
		OpponentHealth:   20,
		DeckSize:         3,
		OpponentHandSize: 2,
		Hand:             []engine.CardView{{ID: 1, Attack: 1, Health: 5}},
		Board:            []engine.CardView{},
		OpponentBoard:    []engine.CardView{},
		Graveyard:        []engine.CardView{},
	}
}

func diff(t *testing.T, prev *engine.View, next engine.View) []protocol.ServerMessage {
	t.Helper()
	w := protocol.NewWriter()
	writeDiff(w, prev, next)
	if w.Len() == 0 {
		return nil
	}
	msgs, err := protocol.ParseServerPacket(w.Bytes())
	require.NoError(t, err)
	return msgs
}

func TestWriteDiffFull(t *testing.T) {
	msgs := diff(t, nil, sampleView())
	require.Len(t, msgs, 9)
	assert.Equal(t, protocol.GamePlayerEnergyUpdated, msgs[0].Type)
	assert.Equal(t, uint32(10), msgs[0].Value)
	assert.Equal(t, protocol.GameHandUpdated, msgs[5].Type)
	assert.Equal(t, []protocol.CardData{{ID: 1, Attack: 1, Health: 5}}, msgs[5].Cards)
	assert.Equal(t, protocol.GameGraveyardUpdated, msgs[8].Type)
	assert.Empty(t, msgs[8].Cards)
}

func TestWriteDiffOnlyChanges(t *testing.T) {
	prev := sampleView()
	assert.Empty(t, diff(t, &prev, sampleView()))

	next := sampleView()
	next.Energy = 7
	next.Hand = nil
	next.Board = []engine.CardView{{ID: 1, Attack: 1, Health: 5}}

	msgs := diff(t, &prev, next)
	require.Len(t, msgs, 3)
	assert.Equal(t, protocol.GamePlayerEnergyUpdated, msgs[0].Type)
	assert.Equal(t, uint32(7), msgs[0].Value)
	assert.Equal(t, protocol.GameHandUpdated, msgs[1].Type)
	assert.Empty(t, msgs[1].Cards)
	assert.Equal(t, protocol.GameBoardUpdated, msgs[2].Type)
}

func TestWireCause(t *testing.T) {
	assert.Equal(t, protocol.CauseOutOfHealth, wireCause(engine.CauseOutOfHealth))
	assert.Equal(t, protocol.CauseTenTurnsWithEmptyDeck, wireCause(engine.CauseEmptyDeck))
	assert.Equal(t, protocol.CauseQuitted, wireCause(engine.CauseTimeouts))
	assert.Equal(t, protocol.CauseLostConnection, wireCause(engine.CauseProtocolError))
	assert.Equal(t, protocol.CauseEndingServer, wireCause(engine.CauseInternalError))
}
