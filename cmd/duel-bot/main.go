package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/wizardpoker/duel-server-go/internal/protocol"
)

var (
	serverURL = flag.String("url", "ws://localhost:8080/ws", "websocket endpoint of the server")
	name      = flag.String("name", "bot", "account login")
	password  = flag.String("password", "", "account password")
	deck      = flag.String("deck", "starter", "deck to play")
	games     = flag.Int("games", 1, "number of matches to play")
	timeout   = flag.Duration("timeout", 5*time.Minute, "maximum wait for a server packet")
	verbose   = flag.Bool("v", false, "debug logging")
)

// client is a websocket connection to the server speaking the binary
// protocol.
type client struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (c *client) send(packet []byte) error {
	_ = c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteMessage(websocket.BinaryMessage, packet)
}

func (c *client) recv() ([]byte, error) {
	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(c.timeout))
		kind, packet, err := c.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if kind == websocket.BinaryMessage {
			return packet, nil
		}
	}
}

func (c *client) expect(want protocol.TransferType) error {
	packet, err := c.recv()
	if err != nil {
		return err
	}
	t, err := protocol.NewReader(packet).Type()
	if err != nil {
		return err
	}
	if t != want {
		return fmt.Errorf("expected %s, got %s", want, t)
	}
	return nil
}

func (c *client) login(name, password string) error {
	if err := c.send(protocol.EncodeConnection(name, password, 0)); err != nil {
		return err
	}
	return c.expect(protocol.GameConnectionOrRegisteringOK)
}

// findOpponent queues and waits for the bare OpponentFound notice.
func (c *client) findOpponent() (string, error) {
	if err := c.send(protocol.Header(protocol.GameRequest)); err != nil {
		return "", err
	}
	packet, err := c.recv()
	if err != nil {
		return "", err
	}
	r := protocol.NewReader(packet)
	opponent, err := r.Text()
	if err != nil {
		return "", err
	}
	if !r.Done() {
		return "", errors.New("trailing bytes after the opponent name")
	}
	return opponent, nil
}

func (c *client) play(b *bot) (protocol.EndGame, error) {
	for {
		packet, err := c.recv()
		if err != nil {
			return protocol.EndGame{}, err
		}
		out, err := b.handle(packet)
		if err != nil {
			return protocol.EndGame{}, err
		}
		for _, p := range out {
			if err := c.send(p); err != nil {
				return protocol.EndGame{}, err
			}
		}
		if end, ok := b.result(); ok {
			return end, nil
		}
	}
}

func main() {
	flag.Parse()

	var logger *zap.Logger
	var err error
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("player", *name))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, *serverURL, nil)
	cancel()
	if err != nil {
		logger.Fatal("failed to connect", zap.String("url", *serverURL), zap.Error(err))
	}
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	c := &client{conn: conn, timeout: *timeout}
	defer func() {
		_ = c.send(protocol.Header(protocol.PlayerDisconnection))
		conn.Close()
	}()

	if err := c.login(*name, *password); err != nil {
		logger.Fatal("login failed", zap.Error(err))
	}
	logger.Info("logged in", zap.String("url", *serverURL))

	wins := 0
	for game := 1; game <= *games; game++ {
		opponent, err := c.findOpponent()
		if err != nil {
			logger.Error("matchmaking failed", zap.Error(err))
			return
		}
		logger.Info("opponent found", zap.String("opponent", opponent), zap.Int("game", game))

		if err := c.send(protocol.EncodeDeckName(*deck)); err != nil {
			logger.Error("deck selection failed", zap.Error(err))
			return
		}
		end, err := c.play(newBot(logger))
		if err != nil {
			logger.Error("match interrupted", zap.Error(err))
			return
		}
		if !end.ApplyToSelf {
			wins++
		}
		logger.Info("match over",
			zap.Int("game", game),
			zap.Stringer("cause", end.Cause),
			zap.Bool("won", !end.ApplyToSelf),
			zap.Uint32("won_card", end.WonCard),
		)
	}
	logger.Info("done", zap.Int("games", *games), zap.Int("wins", wins))
}
