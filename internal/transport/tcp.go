package transport

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/config"
)

// ErrPacketTooLarge is returned for frames above the configured limit.
var ErrPacketTooLarge = errors.New("packet too large")

// tcpLink frames packets as a little-endian uint32 length followed by the
// packet bytes.
type tcpLink struct {
	conn        net.Conn
	maxPacket   int
	idleTimeout time.Duration
}

func (l *tcpLink) ReadPacket() ([]byte, error) {
	if l.idleTimeout > 0 {
		if err := l.conn.SetReadDeadline(time.Now().Add(l.idleTimeout)); err != nil {
			return nil, err
		}
	}
	return ReadFrame(l.conn, l.maxPacket)
}

func (l *tcpLink) WritePacket(packet []byte, deadline time.Time) error {
	if err := l.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return WriteFrame(l.conn, packet)
}

func (l *tcpLink) Ping(time.Time) error { return nil }

func (l *tcpLink) RemoteAddr() string { return l.conn.RemoteAddr().String() }

func (l *tcpLink) Close() error { return l.conn.Close() }

// WriteFrame writes one length-prefixed packet, as a TCP client does.
func WriteFrame(w io.Writer, packet []byte) error {
	frame := make([]byte, 4+len(packet))
	binary.LittleEndian.PutUint32(frame, uint32(len(packet)))
	copy(frame[4:], packet)
	_, err := w.Write(frame)
	return err
}

// ReadFrame reads one length-prefixed packet of at most maxPacket bytes.
func ReadFrame(r io.Reader, maxPacket int) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	size := binary.LittleEndian.Uint32(header[:])
	if int64(size) > int64(maxPacket) {
		return nil, fmt.Errorf("%d bytes: %w", size, ErrPacketTooLarge)
	}
	packet := make([]byte, size)
	if _, err := io.ReadFull(r, packet); err != nil {
		return nil, err
	}
	return packet, nil
}

// TCPServer accepts clients over raw TCP.
type TCPServer struct {
	cfg     config.TCPConfig
	handler Handler
	logger  *zap.Logger
}

// NewTCPServer creates the TCP listener.
func NewTCPServer(cfg config.TCPConfig, handler Handler, logger *zap.Logger) *TCPServer {
	return &TCPServer{cfg: cfg, handler: handler, logger: logger.With(zap.String("transport", "tcp"))}
}

// Serve accepts connections on lis until ctx is cancelled.
func (s *TCPServer) Serve(ctx context.Context, lis net.Listener) error {
	go func() {
		<-ctx.Done()
		lis.Close()
	}()

	s.logger.Info("starting tcp server", zap.String("address", lis.Addr().String()))
	for {
		nc, err := lis.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.logger.Warn("accept timeout", zap.Error(err))
				continue
			}
			return fmt.Errorf("tcp accept: %w", err)
		}
		link := &tcpLink{conn: nc, maxPacket: s.cfg.MaxPacketSize, idleTimeout: s.cfg.IdleTimeout}
		conn := newConn(link, s.cfg.SendQueueSize, s.cfg.WriteTimeout, 0, s.logger)
		conn.logger.Debug("connection accepted", zap.String("remote_addr", conn.RemoteAddr()))
		conn.start()
		go s.handler(ctx, conn)
	}
}

// ListenAndServe listens on the configured address and serves until ctx is
// cancelled.
func (s *TCPServer) ListenAndServe(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.cfg.Address)
	if err != nil {
		return fmt.Errorf("tcp listen %s: %w", s.cfg.Address, err)
	}
	return s.Serve(ctx, lis)
}
