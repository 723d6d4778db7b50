package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrClosed is returned by Send on a closed connection.
var ErrClosed = errors.New("connection closed")

// ErrSendQueueFull is returned when a client does not keep up with its
// outbound packets. The connection is closed.
var ErrSendQueueFull = errors.New("send queue full")

// link is the framing of one transport.
type link interface {
	ReadPacket() ([]byte, error)
	WritePacket(packet []byte, deadline time.Time) error
	// Ping keeps the link alive; links without keepalive return nil.
	Ping(deadline time.Time) error
	RemoteAddr() string
	Close() error
}

// Conn is a client connection with its own read and write pumps. Packets
// are delivered one per client message on Inbound.
type Conn struct {
	id     string
	link   link
	logger *zap.Logger

	writeTimeout time.Duration
	pingInterval time.Duration

	send    chan []byte
	inbound chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(l link, queueSize int, writeTimeout, pingInterval time.Duration, logger *zap.Logger) *Conn {
	id := uuid.NewString()
	return &Conn{
		id:           id,
		link:         l,
		logger:       logger.With(zap.String("connection_id", id)),
		writeTimeout: writeTimeout,
		pingInterval: pingInterval,
		send:         make(chan []byte, queueSize),
		inbound:      make(chan []byte),
		closed:       make(chan struct{}),
	}
}

func (c *Conn) ID() string             { return c.id }
func (c *Conn) RemoteAddr() string     { return c.link.RemoteAddr() }
func (c *Conn) Inbound() <-chan []byte { return c.inbound }

// Send queues a packet without blocking.
func (c *Conn) Send(packet []byte) error {
	select {
	case <-c.closed:
		return ErrClosed
	default:
	}
	select {
	case c.send <- packet:
		return nil
	case <-c.closed:
		return ErrClosed
	default:
		c.logger.Warn("send queue full, dropping connection")
		c.Close()
		return ErrSendQueueFull
	}
}

// Close shuts the connection down. It is safe to call more than once.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closed)
		err = c.link.Close()
	})
	return err
}

// start launches the pumps.
func (c *Conn) start() {
	go c.writePump()
	go c.readPump()
}

func (c *Conn) readPump() {
	defer func() {
		close(c.inbound)
		c.Close()
	}()

	for {
		packet, err := c.link.ReadPacket()
		if err != nil {
			select {
			case <-c.closed:
			default:
				c.logger.Debug("read failed", zap.Error(err))
			}
			return
		}
		select {
		case c.inbound <- packet:
		case <-c.closed:
			return
		}
	}
}

func (c *Conn) writePump() {
	var tick <-chan time.Time
	if c.pingInterval > 0 {
		ticker := time.NewTicker(c.pingInterval)
		defer ticker.Stop()
		tick = ticker.C
	}
	defer c.Close()

	for {
		select {
		case packet := <-c.send:
			if err := c.link.WritePacket(packet, time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Debug("write failed", zap.Error(err))
				return
			}
		case <-tick:
			if err := c.link.Ping(time.Now().Add(c.writeTimeout)); err != nil {
				c.logger.Debug("ping failed", zap.Error(err))
				return
			}
		case <-c.closed:
			return
		}
	}
}
