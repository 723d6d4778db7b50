package session

import (
	"context"
	"errors"
	"math/rand"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// ErrConnectionLost is returned when a peer went away.
var ErrConnectionLost = errors.New("connection lost")

// Peer is one connected client. Send must be safe for concurrent use.
// Inbound yields one packet per client message and is closed when the
// connection is lost.
type Peer interface {
	ID() string
	Name() string
	Send(packet []byte) error
	Inbound() <-chan []byte
	Close() error
}

// Catalog is the card catalog as the runner needs it: lookups plus a random
// draw for the winner's unlocked card.
type Catalog interface {
	cards.Catalog
	Random(rng *rand.Rand) (cards.ID, bool)
}

// DeckSource resolves a player's named deck to card ids.
type DeckSource interface {
	Deck(ctx context.Context, owner, name string) ([]cards.ID, error)
}

// ResultRecorder persists the summary of a finished match.
type ResultRecorder interface {
	Record(ctx context.Context, summary Summary) error
}
