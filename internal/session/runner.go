package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/game/cards"
	"github.com/wizardpoker/duel-server-go/internal/game/effects"
	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

// Config holds the timing of a match.
type Config struct {
	TurnDuration time.Duration
	DeckTimeout  time.Duration
	// ResultTimeout bounds the hand-off of the summary to the recorder.
	ResultTimeout time.Duration
	Rules         engine.Rules
}

// Status is a snapshot of a running match that other goroutines may read.
type Status struct {
	MatchID   string
	Players   [2]string
	State     engine.State
	Turn      int
	Active    int
	StartedAt time.Time
}

type pendingUse struct {
	seat       int
	plan       *engine.Plan
	selections []int
}

// Runner drives one match. Run owns the match and both peers' inbound
// streams until the match ends; every mutation happens on its goroutine.
type Runner struct {
	cfg     Config
	peers   [2]Peer
	gone    [2]bool
	catalog Catalog
	decks   DeckSource
	results ResultRecorder
	logger  *zap.Logger
	match   *engine.Match

	pending   *pendingUse
	stale     [2]bool
	views     [2]*engine.View
	announced int
	turnSeen  int
	turnTimer *time.Timer

	mu     sync.RWMutex
	status Status
}

// NewRunner creates the match between two peers. results may be nil.
func NewRunner(id string, peers [2]Peer, catalog Catalog, decks DeckSource, results ResultRecorder, cfg Config, logger *zap.Logger) (*Runner, error) {
	if cfg.TurnDuration <= 0 || cfg.DeckTimeout <= 0 {
		return nil, fmt.Errorf("turn duration and deck timeout must be positive")
	}
	if cfg.ResultTimeout <= 0 {
		cfg.ResultTimeout = 5 * time.Second
	}
	m, err := engine.NewMatch(id, [2]string{peers[0].Name(), peers[1].Name()}, catalog, cfg.Rules, logger)
	if err != nil {
		return nil, err
	}
	logger = logger.With(zap.String("match_id", id))
	r := &Runner{
		cfg:       cfg,
		peers:     peers,
		catalog:   catalog,
		decks:     decks,
		results:   results,
		logger:    logger,
		match:     m,
		announced: engine.NoSeat,
	}
	m.Events().Subscribe(func(e engine.Event) {
		logger.Debug("match event",
			zap.String("type", string(e.Type)),
			zap.Int("turn", e.Turn),
			zap.Int("seat", e.Seat),
			zap.Uint32("card", uint32(e.Card)),
			zap.Int("amount", e.Amount),
		)
	})
	r.updateStatus()
	return r, nil
}

// ID returns the match id.
func (r *Runner) ID() string { return r.match.ID() }

// Status returns the latest published state of the match.
func (r *Runner) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Runner) updateStatus() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status = Status{
		MatchID:   r.match.ID(),
		Players:   [2]string{r.peers[0].Name(), r.peers[1].Name()},
		State:     r.match.State(),
		Turn:      r.match.Turn(),
		Active:    r.match.Active(),
		StartedAt: r.match.StartedAt(),
	}
}

// Run plays the match to its end and returns its summary. Cancelling ctx
// aborts the match as a server shutdown.
func (r *Runner) Run(ctx context.Context) Summary {
	deckTimer := time.NewTimer(r.cfg.DeckTimeout)
	defer deckTimer.Stop()
	r.turnTimer = time.NewTimer(r.cfg.TurnDuration)
	r.turnTimer.Stop()
	defer r.turnTimer.Stop()

	r.logger.Info("match created",
		zap.String("player_one", r.peers[0].Name()),
		zap.String("player_two", r.peers[1].Name()),
	)

	inbound := [2]<-chan []byte{r.peers[0].Inbound(), r.peers[1].Inbound()}
	for r.match.State() != engine.StateEnded {
		select {
		case <-ctx.Done():
			r.match.Abort(engine.CauseServerShutdown)
		case <-deckTimer.C:
			r.deckTimeout()
		case <-r.turnTimer.C:
			r.turnTimeout()
		case packet, ok := <-inbound[0]:
			if !ok {
				inbound[0] = nil
			}
			r.receive(ctx, 0, packet, ok)
		case packet, ok := <-inbound[1]:
			if !ok {
				inbound[1] = nil
			}
			r.receive(ctx, 1, packet, ok)
		}
		r.afterEvent()
	}
	return r.finish()
}

func (r *Runner) afterEvent() {
	if r.match.State() == engine.StateRunning {
		if turn := r.match.Turn(); turn != r.turnSeen {
			r.turnSeen = turn
			r.turnTimer.Reset(r.cfg.TurnDuration)
		}
		r.sync()
	}
	r.updateStatus()
}

func (r *Runner) send(seat int, packet []byte) {
	if r.gone[seat] || len(packet) == 0 {
		return
	}
	if err := r.peers[seat].Send(packet); err != nil {
		r.logger.Info("send failed", zap.String("player", r.peers[seat].Name()), zap.Error(err))
		r.gone[seat] = true
		r.match.Forfeit(seat, engine.CauseLostConnection)
	}
}

func (r *Runner) receive(ctx context.Context, seat int, packet []byte, ok bool) {
	if !ok {
		r.logger.Info("peer connection lost", zap.String("player", r.peers[seat].Name()))
		r.gone[seat] = true
		r.match.Forfeit(seat, engine.CauseLostConnection)
		return
	}
	if r.stale[seat] {
		r.stale[seat] = false
		if _, err := protocol.ParseIndices(packet); err == nil {
			r.logger.Debug("late selection reply dropped", zap.String("player", r.peers[seat].Name()))
			return
		}
	}
	if r.pending != nil && r.pending.seat == seat {
		r.answerSelection(packet)
		return
	}
	msg, err := protocol.ParseClientMessage(packet)
	if err != nil {
		r.protocolError(seat, err)
		return
	}
	if msg.Type == protocol.GameRequest || msg.Type == protocol.GameCancelRequest {
		// Queue requests racing with the pairing are harmless.
		r.logger.Debug("lobby message ignored", zap.String("player", r.peers[seat].Name()), zap.Stringer("type", msg.Type))
		return
	}
	if msg.Type != protocol.GamePlayerGiveDeckNames && msg.Type != protocol.GameQuitGame &&
		msg.Type != protocol.PlayerDisconnection && r.match.State() != engine.StateRunning {
		r.protocolError(seat, fmt.Errorf("%s before the match started: %w", msg.Type, protocol.ErrUnexpectedMessage))
		return
	}

	switch msg.Type {
	case protocol.GamePlayerGiveDeckNames:
		r.selectDeck(ctx, seat, msg.DeckName)
	case protocol.GameUseCard:
		r.useCard(seat, int(msg.HandIndex))
	case protocol.GameAttackWithCreature:
		r.attack(seat, int(msg.SelfIndex), int(msg.TargetIndex))
	case protocol.GamePlayerLeaveTurn:
		if err := r.match.EndTurn(seat); err != nil {
			r.logger.Debug("end turn rejected", zap.String("player", r.peers[seat].Name()), zap.Error(err))
		}
	case protocol.GameQuitGame:
		r.logger.Info("player quit", zap.String("player", r.peers[seat].Name()))
		r.match.Quit(seat)
	case protocol.PlayerDisconnection:
		r.logger.Info("player disconnected", zap.String("player", r.peers[seat].Name()))
		r.gone[seat] = true
		r.match.Forfeit(seat, engine.CauseQuit)
	default:
		r.protocolError(seat, fmt.Errorf("%s during a match: %w", msg.Type, protocol.ErrUnexpectedMessage))
	}
}

// protocolError drops the offending connection and forfeits its seat.
func (r *Runner) protocolError(seat int, err error) {
	r.logger.Warn("protocol error", zap.String("player", r.peers[seat].Name()), zap.Error(err))
	if r.pending != nil && r.pending.seat == seat {
		r.pending = nil
	}
	r.match.Forfeit(seat, engine.CauseProtocolError)
	r.gone[seat] = true
	if err := r.peers[seat].Close(); err != nil {
		r.logger.Debug("close after protocol error", zap.Error(err))
	}
}

func (r *Runner) selectDeck(ctx context.Context, seat int, name string) {
	if r.match.State() != engine.StateAwaitingDecks || r.match.HasDeck(seat) {
		r.protocolError(seat, fmt.Errorf("second deck selection: %w", protocol.ErrUnexpectedMessage))
		return
	}
	player := r.peers[seat].Name()
	ids, err := r.decks.Deck(ctx, player, name)
	if err == nil {
		err = r.match.SubmitDeck(seat, ids)
	}
	if err != nil {
		r.logger.Info("deck rejected",
			zap.String("player", player),
			zap.String("deck", name),
			zap.Error(err),
		)
		r.match.Forfeit(seat, engine.CauseInvalidDeck)
		return
	}
	if r.match.State() == engine.StateRunning {
		r.startSync()
	}
}

func (r *Runner) deckTimeout() {
	if r.match.State() != engine.StateAwaitingDecks {
		return
	}
	var missing []int
	for seat := range r.peers {
		if !r.match.HasDeck(seat) {
			missing = append(missing, seat)
		}
	}
	r.logger.Info("deck selection timed out", zap.Ints("seats", missing))
	if len(missing) == 1 {
		r.match.Forfeit(missing[0], engine.CauseInvalidDeck)
		return
	}
	r.match.Abort(engine.CauseInvalidDeck)
}

// startSync sends the full initial state followed by the turn ownership.
func (r *Runner) startSync() {
	for seat := range r.peers {
		view := r.match.View(seat)
		w := protocol.NewWriter()
		writeDiff(w, nil, view)
		r.send(seat, w.Bytes())
		r.views[seat] = &view
		r.send(seat, protocol.Starting(view.Active))
	}
	r.announced = r.match.Active()
}

// sync sends each peer what changed since its last update.
func (r *Runner) sync() {
	active := r.match.Active()
	running := r.match.State() == engine.StateRunning
	for seat := range r.peers {
		if r.views[seat] == nil {
			continue
		}
		next := r.match.View(seat)
		w := protocol.NewWriter()
		writeDiff(w, r.views[seat], next)
		if running && active != r.announced {
			if active == seat {
				w.Type(protocol.GamePlayerEnterTurn)
			} else {
				w.Type(protocol.GamePlayerLeaveTurn)
			}
		}
		r.views[seat] = &next
		r.send(seat, w.Bytes())
	}
	if running {
		r.announced = active
	}
}

func resultCode(err error) protocol.TransferType {
	switch {
	case errors.Is(err, engine.ErrNotEnoughEnergy):
		return protocol.GameNotEnoughEnergy
	case errors.Is(err, engine.ErrCardLimitReached):
		return protocol.GameCardLimitTurnReached
	}
	return protocol.Failure
}

func wireSelection(s effects.Selection) protocol.CardToSelect {
	switch s {
	case effects.SelectOppoBoard:
		return protocol.SelectOppoBoard
	case effects.SelectSelfHand:
		return protocol.SelectSelfHand
	}
	return protocol.SelectSelfBoard
}

func (r *Runner) useCard(seat, handIndex int) {
	plan, err := r.match.PlanCard(seat, handIndex)
	if err != nil {
		r.logger.Debug("card use rejected",
			zap.String("player", r.peers[seat].Name()),
			zap.Int("hand_index", handIndex),
			zap.Error(err),
		)
		r.send(seat, protocol.Header(resultCode(err)))
		return
	}
	r.send(seat, protocol.NbOfEffects(len(plan.Requirements)))
	if len(plan.Requirements) == 0 {
		r.resolve(seat, plan, nil)
		return
	}
	r.pending = &pendingUse{seat: seat, plan: plan, selections: make([]int, 0, len(plan.Requirements))}
	r.requestSelection()
}

func (r *Runner) requestSelection() {
	p := r.pending
	zone := p.plan.Requirements[len(p.selections)]
	r.send(p.seat, protocol.SelectionRequest([]protocol.CardToSelect{wireSelection(zone)}))
}

func (r *Runner) answerSelection(packet []byte) {
	p := r.pending
	indices, err := protocol.ParseIndices(packet)
	if err == nil && len(indices) != 1 {
		err = fmt.Errorf("%d indices for one selection: %w", len(indices), protocol.ErrUnexpectedMessage)
	}
	if err != nil {
		r.protocolError(p.seat, err)
		return
	}
	p.selections = append(p.selections, int(indices[0]))
	if len(p.selections) < len(p.plan.Requirements) {
		r.requestSelection()
		return
	}
	r.pending = nil
	r.resolve(p.seat, p.plan, p.selections)
}

// resolve applies a planned card use and sends its final result.
func (r *Runner) resolve(seat int, plan *engine.Plan, selections []int) {
	if err := r.match.UseCard(seat, plan.HandIndex, selections); err != nil {
		r.logger.Debug("card use failed",
			zap.String("player", r.peers[seat].Name()),
			zap.Uint32("card", uint32(plan.Card)),
			zap.Error(err),
		)
		r.send(seat, protocol.Header(protocol.Failure))
		return
	}
	r.send(seat, protocol.Header(protocol.Acknowledge))
}

func (r *Runner) attack(seat, attacker, victim int) {
	if err := r.match.Attack(seat, attacker, victim); err != nil {
		r.logger.Debug("attack rejected",
			zap.String("player", r.peers[seat].Name()),
			zap.Int("attacker", attacker),
			zap.Int("victim", victim),
			zap.Error(err),
		)
		r.send(seat, protocol.Header(resultCode(err)))
		return
	}
	r.send(seat, protocol.Header(protocol.Acknowledge))
}

// turnTimeout force-ends the active turn. A pending card use fails without
// touching the match; the reply to its last selection request may still be
// in flight and is dropped when it arrives.
func (r *Runner) turnTimeout() {
	if r.match.State() != engine.StateRunning {
		return
	}
	if p := r.pending; p != nil {
		r.pending = nil
		r.stale[p.seat] = true
		r.send(p.seat, protocol.Header(protocol.Failure))
	}
	r.logger.Info("turn timed out",
		zap.String("player", r.peers[r.match.Active()].Name()),
		zap.Int("turn", r.match.Turn()),
	)
	if err := r.match.TimeoutTurn(); err != nil {
		r.logger.Error("turn timeout failed", zap.Error(err))
	}
}

// finish sends the final state and GAME_OVER, then hands the summary off.
func (r *Runner) finish() Summary {
	if p := r.pending; p != nil {
		r.pending = nil
		r.send(p.seat, protocol.Header(protocol.Failure))
	}
	out := r.match.Outcome()

	var unlocked cards.ID
	if out.Winner != engine.NoSeat && out.Cause != engine.CauseInternalError {
		if id, ok := r.catalog.Random(r.match.Rand()); ok {
			unlocked = id
		}
	}

	for seat := range r.peers {
		w := protocol.NewWriter()
		if r.views[seat] != nil {
			next := r.match.View(seat)
			writeDiff(w, r.views[seat], next)
			r.views[seat] = &next
		}
		lost := out.Loser == engine.NoSeat || out.Loser == seat
		end := protocol.EndGame{
			Cause:        wireCause(out.Cause),
			ApplyToSelf:  lost,
			Achievements: []uint32{},
		}
		if !lost {
			end.WonCard = uint32(unlocked)
		}
		protocol.WriteEndGame(w, end)
		r.send(seat, w.Bytes())
	}
	r.updateStatus()

	summary := summarize(r.match, unlocked, time.Now())
	fields := []zap.Field{
		zap.String("cause", summary.Cause.String()),
		zap.Int("turns", summary.Turns),
		zap.Duration("duration", summary.Duration),
	}
	if w := summary.Winner(); w != engine.NoSeat {
		fields = append(fields, zap.String("winner", summary.Players[w].Name))
	}
	if fault := r.match.Fault(); fault != nil {
		fields = append(fields, zap.NamedError("fault", fault))
	}
	r.logger.Info("match finished", fields...)

	if r.results != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.ResultTimeout)
		defer cancel()
		if err := r.results.Record(ctx, summary); err != nil {
			r.logger.Error("failed to record match result", zap.Error(err))
		}
	}
	return summary
}
