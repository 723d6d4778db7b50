package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
)

// State is the lifecycle state of a match.
type State int

const (
	StateSetup State = iota
	StateAwaitingDecks
	StateRunning
	StateEnded
)

var stateNames = map[State]string{
	StateSetup:         "SETUP",
	StateAwaitingDecks: "AWAITING_DECKS",
	StateRunning:       "RUNNING",
	StateEnded:         "ENDED",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("STATE_%d", int(s))
}

// EndCause tells why a match ended.
type EndCause int

const (
	CauseNone EndCause = iota
	CauseOutOfHealth
	CauseEmptyDeck
	CauseQuit
	CauseLostConnection
	CauseTimeouts
	CauseInvalidDeck
	CauseProtocolError
	CauseInternalError
	CauseServerShutdown
)

var causeNames = map[EndCause]string{
	CauseNone:           "NONE",
	CauseOutOfHealth:    "OUT_OF_HEALTH",
	CauseEmptyDeck:      "EMPTY_DECK",
	CauseQuit:           "QUIT",
	CauseLostConnection: "LOST_CONNECTION",
	CauseTimeouts:       "TURN_TIMEOUTS",
	CauseInvalidDeck:    "INVALID_DECK",
	CauseProtocolError:  "PROTOCOL_ERROR",
	CauseInternalError:  "INTERNAL_ERROR",
	CauseServerShutdown: "SERVER_SHUTDOWN",
}

func (c EndCause) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("CAUSE_%d", int(c))
}

// NoSeat is used as Outcome.Loser when nobody lost (aborted matches).
const NoSeat = -1

// Outcome is the terminal result of a match.
type Outcome struct {
	Cause  EndCause
	Loser  int
	Winner int
}

// Match is the authoritative state of one game between two players.
//
// A Match is not safe for concurrent use. It is owned by exactly one
// goroutine, which serializes player actions and turn timeouts.
type Match struct {
	id      string
	rules   Rules
	catalog cards.Catalog
	logger  *zap.Logger
	events  *EventBus
	interp  *interpreter
	rng     *rand.Rand

	arena   *arena
	players [2]*Player
	decks   [2]bool

	state     State
	active    int
	starter   int
	turn      int
	startedAt time.Time
	outcome   *Outcome
	fault     error
}

// NewMatch creates a match between two named players and leaves it waiting
// for their decks.
func NewMatch(id string, names [2]string, catalog cards.Catalog, rules Rules, logger *zap.Logger) (*Match, error) {
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	seed := rules.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	m := &Match{
		id:      id,
		rules:   rules,
		catalog: catalog,
		logger:  logger.With(zap.String("match_id", id)),
		events:  NewEventBus(),
		interp:  newInterpreter(),
		rng:     rand.New(rand.NewSource(seed)),
		arena:   &arena{},
		state:   StateSetup,
		active:  NoSeat,
		starter: NoSeat,
	}
	for seat := range m.players {
		m.players[seat] = newPlayer(m, seat, names[seat])
	}
	m.state = StateAwaitingDecks
	return m, nil
}

func (m *Match) ID() string { return m.id }
func (m *Match) State() State { return m.state }
func (m *Match) Turn() int { return m.turn }
func (m *Match) Active() int { return m.active }
func (m *Match) Starter() int { return m.starter }
func (m *Match) Rules() Rules { return m.rules }
func (m *Match) Events() *EventBus { return m.events }
func (m *Match) StartedAt() time.Time { return m.startedAt }

// Player returns the player sitting at seat (0 or 1).
func (m *Match) Player(seat int) *Player {
	return m.players[seat]
}

// Outcome returns the result of an ended match, nil while it runs.
func (m *Match) Outcome() *Outcome {
	return m.outcome
}

// Fault returns the invariant violation that aborted the match, if any.
func (m *Match) Fault() error {
	return m.fault
}

// Rand exposes the match RNG to collaborators that must stay deterministic
// under a fixed seed (such as reward draws).
func (m *Match) Rand() *rand.Rand {
	return m.rng
}

// HasDeck reports whether seat already submitted a valid deck.
func (m *Match) HasDeck(seat int) bool {
	return m.decks[seat]
}

// SubmitDeck installs the deck of seat. Once both decks are in, the match
// starts.
func (m *Match) SubmitDeck(seat int, ids []cards.ID) error {
	if m.state != StateAwaitingDecks {
		return ErrMatchNotRunning
	}
	if seat < 0 || seat > 1 {
		return fmt.Errorf("seat %d: %w", seat, ErrInvalidIndex)
	}
	if m.decks[seat] {
		return fmt.Errorf("seat %d already has a deck: %w", seat, ErrInvalidDeck)
	}
	if len(ids) != m.rules.DeckSize {
		return fmt.Errorf("deck of %d cards, want %d: %w", len(ids), m.rules.DeckSize, ErrInvalidDeck)
	}
	protos, err := cards.Resolve(m.catalog, ids)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDeck, err)
	}

	p := m.players[seat]
	p.deck = make([]Card, 0, len(protos))
	for _, proto := range protos {
		p.deck = append(p.deck, m.instantiate(proto, p))
	}
	m.rng.Shuffle(len(p.deck), func(i, j int) { p.deck[i], p.deck[j] = p.deck[j], p.deck[i] })
	m.decks[seat] = true

	m.logger.Debug("deck submitted", zap.Int("seat", seat), zap.String("player", p.name))
	if m.decks[0] && m.decks[1] {
		m.start()
	}
	return nil
}

func (m *Match) instantiate(proto *cards.Prototype, owner *Player) Card {
	if proto.IsSpell() {
		return &Spell{proto: proto}
	}
	c := newCreature(proto, owner, m.arena)
	m.arena.add(c)
	return c
}

func (m *Match) start() {
	m.starter = m.rng.Intn(2)
	m.active = m.starter
	m.turn = 1
	m.state = StateRunning
	m.startedAt = time.Now()
	for _, p := range m.players {
		p.draw(m.rules.InitialHandSize)
	}
	m.logger.Info("match started",
		zap.String("starter", m.players[m.starter].name),
		zap.String("opponent", m.players[1-m.starter].name),
	)
	m.events.Publish(Event{Type: EventMatchStarted, Turn: m.turn, Seat: m.starter})
	m.enterTurn()
}

func (m *Match) enterTurn() {
	p := m.players[m.active]
	p.enterTurn()
	m.sweep()
	m.events.Publish(Event{Type: EventTurnStarted, Turn: m.turn, Seat: m.active})
	m.checkEnd()
}

// actor validates that seat may act now.
func (m *Match) actor(seat int) (*Player, error) {
	if m.state != StateRunning {
		return nil, ErrMatchNotRunning
	}
	if seat < 0 || seat > 1 {
		return nil, fmt.Errorf("seat %d: %w", seat, ErrInvalidIndex)
	}
	if seat != m.active {
		return nil, ErrNotYourTurn
	}
	return m.players[seat], nil
}

// EndTurn ends the turn of seat and hands it to the opponent.
func (m *Match) EndTurn(seat int) (err error) {
	defer m.guard(&err)
	p, err := m.actor(seat)
	if err != nil {
		return err
	}
	p.timeouts = 0
	m.swapTurn()
	return nil
}

// TimeoutTurn force-ends the active player's turn after the turn timer
// elapsed. Too many consecutive timeouts forfeit the match.
func (m *Match) TimeoutTurn() (err error) {
	defer m.guard(&err)
	if m.state != StateRunning {
		return ErrMatchNotRunning
	}
	p := m.players[m.active]
	p.timeouts++
	m.events.Publish(Event{Type: EventTurnTimedOut, Turn: m.turn, Seat: m.active, Amount: p.timeouts})
	if limit := m.rules.MaxConsecutiveTimeouts; limit > 0 && p.timeouts >= limit {
		m.end(CauseTimeouts, p.seat)
		return nil
	}
	m.swapTurn()
	return nil
}

func (m *Match) swapTurn() {
	m.players[m.active].leaveTurn()
	m.active = 1 - m.active
	m.turn++
	m.enterTurn()
}

// Quit forfeits the match for seat. It is accepted on any turn.
func (m *Match) Quit(seat int) {
	m.Forfeit(seat, CauseQuit)
}

// Forfeit ends the match with seat as the loser.
func (m *Match) Forfeit(seat int, cause EndCause) {
	if m.state == StateEnded {
		return
	}
	m.end(cause, seat)
}

// Abort ends the match without a loser.
func (m *Match) Abort(cause EndCause) {
	if m.state == StateEnded {
		return
	}
	m.end(cause, NoSeat)
}

func (m *Match) end(cause EndCause, loser int) {
	winner := NoSeat
	if loser != NoSeat {
		winner = 1 - loser
	}
	m.outcome = &Outcome{Cause: cause, Loser: loser, Winner: winner}
	m.state = StateEnded
	fields := []zap.Field{zap.String("cause", cause.String()), zap.Int("turn", m.turn)}
	if loser != NoSeat {
		fields = append(fields, zap.String("loser", m.players[loser].name))
	}
	m.logger.Info("match ended", fields...)
	m.events.Publish(Event{Type: EventMatchEnded, Turn: m.turn, Seat: loser, Data: cause.String()})
}

// checkEnd detects terminal conditions after a state change. When both
// players are out of health, the active player loses.
func (m *Match) checkEnd() {
	if m.state != StateRunning {
		return
	}
	active, passive := m.players[m.active], m.players[1-m.active]
	switch {
	case active.health == 0:
		m.end(active.lossCause(), active.seat)
	case passive.health == 0:
		m.end(passive.lossCause(), passive.seat)
	}
}

// guard turns invariant violations raised while mutating the match into a
// fatal end of the match.
func (m *Match) guard(errp *error) {
	r := recover()
	if r == nil {
		if *errp != nil && errors.Is(*errp, ErrOutOfRange) {
			m.fail(*errp)
		}
		return
	}
	err, ok := r.(error)
	if !ok || !errors.Is(err, ErrOutOfRange) {
		panic(r)
	}
	*errp = m.fail(err)
}

func (m *Match) fail(err error) error {
	m.logger.Error("match invariant violated", zap.Error(err))
	m.fault = err
	m.Abort(CauseInternalError)
	return err
}

// sweep moves the dead creatures of both players to their graveyards.
func (m *Match) sweep() {
	for _, p := range m.players {
		for _, c := range p.sweepDead() {
			m.events.Publish(Event{Type: EventCreatureDied, Turn: m.turn, Seat: p.seat, Card: c.proto.ID})
		}
	}
}
