package transport

import (
	"bytes"
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/config"
)

// echo sends every inbound packet back.
func echo(_ context.Context, conn *Conn) {
	for packet := range conn.Inbound() {
		if err := conn.Send(packet); err != nil {
			return
		}
	}
}

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{1, 2, 3}))
	assert.Equal(t, []byte{3, 0, 0, 0, 1, 2, 3}, buf.Bytes())

	packet, err := ReadFrame(&buf, 16)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, packet)

	buf.Reset()
	require.NoError(t, WriteFrame(&buf, make([]byte, 32)))
	_, err = ReadFrame(&buf, 16)
	assert.ErrorIs(t, err, ErrPacketTooLarge)
}

func startTCP(t *testing.T, handler Handler) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	srv := NewTCPServer(config.TCPConfig{MaxPacketSize: 64, WriteTimeout: time.Second, SendQueueSize: 8}, handler, zap.NewNop())
	go func() {
		defer close(done)
		assert.NoError(t, srv.Serve(ctx, lis))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return lis.Addr().String()
}

func TestTCPEcho(t *testing.T) {
	addr := startTCP(t, echo)
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()
	require.NoError(t, client.SetDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, WriteFrame(client, []byte("first")))
	require.NoError(t, WriteFrame(client, []byte("second")))

	got, err := ReadFrame(client, 64)
	require.NoError(t, err)
	assert.Equal(t, "first", string(got))
	got, err = ReadFrame(client, 64)
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestTCPOversizedPacketClosesInbound(t *testing.T) {
	closed := make(chan struct{})
	addr := startTCP(t, func(_ context.Context, conn *Conn) {
		for range conn.Inbound() {
		}
		close(closed)
	})
	client, err := net.Dial("tcp", addr)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, WriteFrame(client, make([]byte, 65)))
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("inbound was not closed")
	}
}

func TestSendAfterClose(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	conn := newConn(&tcpLink{conn: server, maxPacket: 16}, 1, time.Second, 0, zap.NewNop())
	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())
	assert.ErrorIs(t, conn.Send([]byte{1}), ErrClosed)
}

func TestSendQueueFullDropsConnection(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	// No pumps: nothing drains the queue.
	conn := newConn(&tcpLink{conn: server, maxPacket: 16}, 1, time.Second, 0, zap.NewNop())
	require.NoError(t, conn.Send([]byte{1}))
	assert.ErrorIs(t, conn.Send([]byte{2}), ErrSendQueueFull)
	assert.ErrorIs(t, conn.Send([]byte{3}), ErrClosed)
}

func TestWebSocketEcho(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cfg := config.WebSocketConfig{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		MaxMessageSize:  1024,
		PongTimeout:     time.Minute,
		WriteTimeout:    time.Second,
		SendQueueSize:   8,
	}
	srv := NewWebSocketServer(cfg, echo, zap.NewNop())
	hs := httptest.NewServer(srv.Handler(ctx))
	defer hs.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(hs.URL, "http"), nil)
	require.NoError(t, err)
	defer ws.Close()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("ignored")))
	require.NoError(t, ws.WriteMessage(websocket.BinaryMessage, []byte{7, 0, 0, 0}))

	kind, data, err := ws.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, kind)
	assert.Equal(t, []byte{7, 0, 0, 0}, data)
}
