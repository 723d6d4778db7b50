package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/config"
)

// Handler serves one connection and returns when the client is gone.
type Handler func(ctx context.Context, conn *Conn)

type wsLink struct {
	ws *websocket.Conn
}

func (l wsLink) ReadPacket() ([]byte, error) {
	for {
		kind, data, err := l.ws.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.BinaryMessage {
			return data, nil
		}
		// Text frames are not part of the protocol.
	}
}

func (l wsLink) WritePacket(packet []byte, deadline time.Time) error {
	if err := l.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return l.ws.WriteMessage(websocket.BinaryMessage, packet)
}

func (l wsLink) Ping(deadline time.Time) error {
	return l.ws.WriteControl(websocket.PingMessage, nil, deadline)
}

func (l wsLink) RemoteAddr() string { return l.ws.RemoteAddr().String() }

func (l wsLink) Close() error { return l.ws.Close() }

// WebSocketServer accepts clients over websocket; each binary frame is one
// packet.
type WebSocketServer struct {
	cfg      config.WebSocketConfig
	handler  Handler
	logger   *zap.Logger
	upgrader websocket.Upgrader
	server   *http.Server
}

// NewWebSocketServer creates the websocket listener.
func NewWebSocketServer(cfg config.WebSocketConfig, handler Handler, logger *zap.Logger) *WebSocketServer {
	s := &WebSocketServer{
		cfg:     cfg,
		handler: handler,
		logger:  logger.With(zap.String("transport", "websocket")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
	return s
}

// Handler returns the upgrade handler. Connections it accepts are served
// with ctx.
func (s *WebSocketServer) Handler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := s.upgrader.Upgrade(w, r, nil)
		if err != nil {
			s.logger.Debug("upgrade failed", zap.String("remote_addr", r.RemoteAddr), zap.Error(err))
			return
		}
		if s.cfg.MaxMessageSize > 0 {
			ws.SetReadLimit(int64(s.cfg.MaxMessageSize))
		}
		if s.cfg.PongTimeout > 0 {
			_ = ws.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
			ws.SetPongHandler(func(string) error {
				return ws.SetReadDeadline(time.Now().Add(s.cfg.PongTimeout))
			})
		}

		conn := newConn(wsLink{ws: ws}, s.cfg.SendQueueSize, s.cfg.WriteTimeout, s.cfg.PongTimeout*9/10, s.logger)
		conn.logger.Debug("connection accepted", zap.String("remote_addr", conn.RemoteAddr()))
		conn.start()
		go s.handler(ctx, conn)
	})
}

// ListenAndServe serves until ctx is cancelled.
func (s *WebSocketServer) ListenAndServe(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle(s.cfg.Path, s.Handler(ctx))
	s.server = &http.Server{
		Addr:              s.cfg.Address,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Warn("websocket shutdown", zap.Error(err))
		}
	}()

	s.logger.Info("starting websocket server", zap.String("address", s.cfg.Address), zap.String("path", s.cfg.Path))
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("websocket server: %w", err)
	}
	return nil
}
