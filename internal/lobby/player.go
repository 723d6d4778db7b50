package lobby

import (
	"sync"
)

// Conn is one client connection as produced by a transport.
type Conn interface {
	ID() string
	RemoteAddr() string
	Send(packet []byte) error
	// Inbound yields one packet per client message and is closed when the
	// connection is gone.
	Inbound() <-chan []byte
	Close() error
}

// seat routes a player's packets to the match it plays in.
type seat struct {
	matchID string
	inbound chan []byte
	done    chan struct{}
}

type player struct {
	conn Conn
	name string

	mu   sync.Mutex
	seat *seat
}

func (p *player) current() *seat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.seat
}

func (p *player) sit(s *seat) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seat = s
}

// seatPeer is the view of a seated player handed to a match runner.
type seatPeer struct {
	p    *player
	seat *seat
}

func (s seatPeer) ID() string               { return s.p.conn.ID() }
func (s seatPeer) Name() string             { return s.p.name }
func (s seatPeer) Send(packet []byte) error { return s.p.conn.Send(packet) }
func (s seatPeer) Inbound() <-chan []byte   { return s.seat.inbound }
func (s seatPeer) Close() error             { return s.p.conn.Close() }
