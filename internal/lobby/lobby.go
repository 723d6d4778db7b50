package lobby

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/protocol"
	"github.com/wizardpoker/duel-server-go/internal/session"
)

// ErrWrongIdentifiers is returned by an Authenticator for unknown names or
// bad passwords.
var ErrWrongIdentifiers = errors.New("wrong identifiers")

// ErrStopped is returned once the lobby stopped.
var ErrStopped = errors.New("lobby stopped")

// Authenticator checks a player's credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, name, password string) error
}

// RunnerFactory creates the runner of a new match.
type RunnerFactory func(id string, peers [2]session.Peer) (*session.Runner, error)

// State is a point-in-time view of the lobby for administration.
type State struct {
	Players int
	Queued  int
	Matches []session.Status
}

type loginRequest struct {
	p     *player
	reply chan bool
}

type checkRequest struct {
	name  string
	reply chan bool
}

type finishedMatch struct {
	id      string
	players [2]*player
	seats   [2]*seat
	summary session.Summary
}

// Lobby owns the registry of connected players and the matchmaking queue.
// All registry state lives on the Run goroutine; connection handlers talk
// to it through channels.
type Lobby struct {
	logger    *zap.Logger
	auth      Authenticator
	newRunner RunnerFactory

	login    chan loginRequest
	leave    chan *player
	enqueue  chan *player
	dequeue  chan *player
	check    chan checkRequest
	state    chan chan State
	finished chan finishedMatch

	started chan struct{}
	stopped chan struct{}
	matches sync.WaitGroup

	// owned by Run
	players map[string]*player
	queue   []*player
	running map[string]*session.Runner
}

// New creates a lobby. Call Run to start it.
func New(auth Authenticator, newRunner RunnerFactory, logger *zap.Logger) *Lobby {
	return &Lobby{
		logger:    logger,
		auth:      auth,
		newRunner: newRunner,
		login:     make(chan loginRequest),
		leave:     make(chan *player),
		enqueue:   make(chan *player),
		dequeue:   make(chan *player),
		check:     make(chan checkRequest),
		state:     make(chan chan State),
		finished:  make(chan finishedMatch),
		started:   make(chan struct{}),
		stopped:   make(chan struct{}),
		players:   make(map[string]*player),
		running:   make(map[string]*session.Runner),
	}
}

// Run serves the registry until ctx is cancelled. Running matches are
// aborted and awaited before it returns.
func (l *Lobby) Run(ctx context.Context) {
	close(l.started)
	l.logger.Info("lobby started")
	for {
		select {
		case <-ctx.Done():
			close(l.stopped)
			l.matches.Wait()
			l.logger.Info("lobby stopped", zap.Int("players", len(l.players)))
			return
		case req := <-l.login:
			req.reply <- l.register(req.p)
		case p := <-l.leave:
			l.unregister(p)
		case p := <-l.enqueue:
			l.queuePlayer(ctx, p)
		case p := <-l.dequeue:
			l.removeFromQueue(p)
		case req := <-l.check:
			_, ok := l.players[req.name]
			req.reply <- ok
		case reply := <-l.state:
			reply <- l.snapshot()
		case f := <-l.finished:
			l.endMatch(f)
		}
	}
}

// Running reports whether Run started and has not stopped yet.
func (l *Lobby) Running() bool {
	select {
	case <-l.started:
	default:
		return false
	}
	select {
	case <-l.stopped:
		return false
	default:
		return true
	}
}

func (l *Lobby) register(p *player) bool {
	if _, taken := l.players[p.name]; taken {
		return false
	}
	l.players[p.name] = p
	l.logger.Info("player connected",
		zap.String("player", p.name),
		zap.String("connection_id", p.conn.ID()),
		zap.String("remote_addr", p.conn.RemoteAddr()),
	)
	return true
}

func (l *Lobby) unregister(p *player) {
	if l.players[p.name] != p {
		return
	}
	l.removeFromQueue(p)
	delete(l.players, p.name)
	l.logger.Info("player disconnected", zap.String("player", p.name))
}

func (l *Lobby) removeFromQueue(p *player) {
	for i, q := range l.queue {
		if q == p {
			l.queue = append(l.queue[:i], l.queue[i+1:]...)
			l.logger.Debug("player left the queue", zap.String("player", p.name))
			return
		}
	}
}

func (l *Lobby) queuePlayer(ctx context.Context, p *player) {
	if l.players[p.name] != p || p.current() != nil {
		return
	}
	for _, q := range l.queue {
		if q == p {
			return
		}
	}
	l.queue = append(l.queue, p)
	l.logger.Debug("player queued", zap.String("player", p.name), zap.Int("queued", len(l.queue)))
	if len(l.queue) < 2 {
		return
	}
	a, b := l.queue[0], l.queue[1]
	l.queue = l.queue[2:]
	l.startMatch(ctx, [2]*player{a, b})
}

// startMatch seats both players before telling them about each other, so
// every packet they send afterwards reaches the match.
func (l *Lobby) startMatch(ctx context.Context, players [2]*player) {
	id := uuid.NewString()
	var seats [2]*seat
	var peers [2]session.Peer
	for i, p := range players {
		seats[i] = &seat{matchID: id, inbound: make(chan []byte, 16), done: make(chan struct{})}
		peers[i] = seatPeer{p: p, seat: seats[i]}
	}
	runner, err := l.newRunner(id, peers)
	if err != nil {
		l.logger.Error("failed to create match", zap.String("match_id", id), zap.Error(err))
		for _, p := range players {
			if err := p.conn.Send(protocol.Header(protocol.Failure)); err != nil {
				l.logger.Debug("send failed", zap.String("player", p.name), zap.Error(err))
			}
		}
		return
	}
	for i, p := range players {
		p.sit(seats[i])
	}
	l.running[id] = runner

	for i, p := range players {
		if err := p.conn.Send(protocol.OpponentFound(players[1-i].name)); err != nil {
			l.logger.Debug("send failed", zap.String("player", p.name), zap.Error(err))
		}
	}
	l.logger.Info("opponents paired",
		zap.String("match_id", id),
		zap.String("player_one", players[0].name),
		zap.String("player_two", players[1].name),
	)

	l.matches.Add(1)
	go func() {
		defer l.matches.Done()
		summary := runner.Run(ctx)
		select {
		case l.finished <- finishedMatch{id: id, players: players, seats: seats, summary: summary}:
		case <-l.stopped:
			for i, p := range players {
				p.sit(nil)
				close(seats[i].done)
			}
		}
	}()
}

func (l *Lobby) endMatch(f finishedMatch) {
	delete(l.running, f.id)
	for i, p := range f.players {
		p.sit(nil)
		close(f.seats[i].done)
	}
	l.logger.Debug("match removed", zap.String("match_id", f.id), zap.String("cause", f.summary.Cause.String()))
}

func (l *Lobby) snapshot() State {
	s := State{Players: len(l.players), Queued: len(l.queue), Matches: make([]session.Status, 0, len(l.running))}
	for _, r := range l.running {
		s.Matches = append(s.Matches, r.Status())
	}
	return s
}

// State returns the current registry state.
func (l *Lobby) State(ctx context.Context) (State, error) {
	reply := make(chan State, 1)
	select {
	case l.state <- reply:
	case <-l.stopped:
		return State{}, ErrStopped
	case <-ctx.Done():
		return State{}, ctx.Err()
	}
	return <-reply, nil
}

// send hands v to the Run goroutine unless the lobby stopped.
func send[T any](l *Lobby, ch chan T, v T) bool {
	select {
	case ch <- v:
		return true
	case <-l.stopped:
		return false
	}
}

func answer(p *player, t protocol.TransferType) error {
	return p.conn.Send(protocol.Header(t))
}

// Serve handles one connection until it closes: the login handshake, the
// lobby requests, and the routing of match packets to the runner the
// player is seated at.
func (l *Lobby) Serve(ctx context.Context, conn Conn) {
	logger := l.logger.With(zap.String("connection_id", conn.ID()))
	p := &player{conn: conn}
	defer func() {
		if p.name != "" {
			send(l, l.leave, p)
		}
		if err := conn.Close(); err != nil {
			logger.Debug("close connection", zap.Error(err))
		}
	}()

	for packet := range conn.Inbound() {
		if s := p.current(); s != nil {
			select {
			case s.inbound <- packet:
				continue
			case <-s.done:
			case <-l.stopped:
				return
			}
		}

		msg, err := protocol.ParseClientMessage(packet)
		if err != nil {
			if _, ierr := protocol.ParseIndices(packet); ierr == nil && p.name != "" {
				logger.Debug("selection reply after match end ignored", zap.String("player", p.name))
				continue
			}
			logger.Warn("protocol error", zap.String("player", p.name), zap.Error(err))
			return
		}
		if p.name == "" {
			if !l.handshake(ctx, logger, p, msg) {
				return
			}
			continue
		}
		if !l.handle(logger, p, msg) {
			return
		}
	}

	if s := p.current(); s != nil {
		close(s.inbound)
	}
}

// handshake processes a message of a connection that is not logged in yet.
// It returns false when the connection must be dropped.
func (l *Lobby) handshake(ctx context.Context, logger *zap.Logger, p *player, msg protocol.ClientMessage) bool {
	switch msg.Type {
	case protocol.GameConnection:
	case protocol.GameRegistering:
		logger.Info("registration refused", zap.String("name", msg.Name))
		return answer(p, protocol.GameFailedToRegister) == nil
	case protocol.PlayerDisconnection:
		return false
	default:
		logger.Warn("protocol error", zap.Error(fmt.Errorf("%s before login: %w", msg.Type, protocol.ErrUnexpectedMessage)))
		return false
	}

	if err := l.auth.Authenticate(ctx, msg.Name, msg.Password); err != nil {
		if !errors.Is(err, ErrWrongIdentifiers) {
			logger.Error("authentication failed", zap.String("name", msg.Name), zap.Error(err))
		} else {
			logger.Info("wrong identifiers", zap.String("name", msg.Name))
		}
		return answer(p, protocol.GameWrongIdentifiers) == nil
	}

	p.name = msg.Name
	req := loginRequest{p: p, reply: make(chan bool, 1)}
	if !send(l, l.login, req) {
		p.name = ""
		return false
	}
	if !<-req.reply {
		p.name = ""
		logger.Info("already connected", zap.String("name", msg.Name))
		return answer(p, protocol.GameAlreadyConnected) == nil
	}
	logger.Debug("login accepted", zap.String("player", p.name), zap.Uint16("port", msg.Port))
	return answer(p, protocol.GameConnectionOrRegisteringOK) == nil
}

// handle processes a lobby message of a logged in player.
func (l *Lobby) handle(logger *zap.Logger, p *player, msg protocol.ClientMessage) bool {
	switch msg.Type {
	case protocol.GameRequest:
		return send(l, l.enqueue, p)
	case protocol.GameCancelRequest:
		return send(l, l.dequeue, p)
	case protocol.PlayerCheckConnection:
		req := checkRequest{name: msg.Target, reply: make(chan bool, 1)}
		if !send(l, l.check, req) {
			return false
		}
		return p.conn.Send(protocol.ConnectionState(<-req.reply)) == nil
	case protocol.PlayerDisconnection:
		return false
	case protocol.GamePlayerGiveDeckNames, protocol.GameUseCard, protocol.GameAttackWithCreature,
		protocol.GamePlayerLeaveTurn, protocol.GameQuitGame:
		// Late messages of a match that already ended.
		logger.Debug("message after match end ignored", zap.String("player", p.name), zap.Stringer("type", msg.Type))
		return true
	default:
		logger.Warn("protocol error",
			zap.String("player", p.name),
			zap.Error(fmt.Errorf("%s outside a match: %w", msg.Type, protocol.ErrUnexpectedMessage)),
		)
		return false
	}
}
