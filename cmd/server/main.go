package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/wizardpoker/duel-server-go/internal/config"
	"github.com/wizardpoker/duel-server-go/internal/lobby"
	"github.com/wizardpoker/duel-server-go/internal/repository"
	"github.com/wizardpoker/duel-server-go/internal/server"
	"github.com/wizardpoker/duel-server-go/internal/session"
	"github.com/wizardpoker/duel-server-go/internal/transport"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting duel server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Initialize database
	db, err := repository.NewDB(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	stats := db.Stats()
	logger.Info("database connection pool initialized",
		zap.Int32("total_conns", stats.TotalConns()),
		zap.Int32("idle_conns", stats.IdleConns()),
	)

	// Initialize repositories
	catalog, err := repository.NewCardRepository(db).LoadCatalog(ctx)
	if err != nil {
		logger.Fatal("failed to load card catalog", zap.Error(err))
	}
	accounts := repository.NewAccountRepository(db)
	decks := repository.NewDeckRepository(db)
	results := repository.NewResultRepository(db)

	matchCfg := session.Config{
		TurnDuration:  cfg.Match.TurnDuration,
		DeckTimeout:   cfg.Match.DeckSelectionTimeout,
		ResultTimeout: cfg.Match.ResultTimeout,
		Rules:         cfg.Match.Rules(),
	}

	// Initialize lobby
	lb := lobby.New(accounts, func(id string, peers [2]session.Peer) (*session.Runner, error) {
		return session.NewRunner(id, peers, catalog, decks, results, matchCfg, logger)
	}, logger)
	lobbyDone := make(chan struct{})
	go func() {
		defer close(lobbyDone)
		lb.Run(ctx)
	}()

	serve := func(ctx context.Context, c *transport.Conn) { lb.Serve(ctx, c) }

	if cfg.Server.TCP.Address != "" {
		tcpServer := transport.NewTCPServer(cfg.Server.TCP, serve, logger)
		go func() {
			if tcpErr := tcpServer.ListenAndServe(ctx); tcpErr != nil {
				logger.Error("TCP server error", zap.Error(tcpErr))
			}
		}()
	}

	if cfg.Server.WebSocket.Address != "" {
		wsServer := transport.NewWebSocketServer(cfg.Server.WebSocket, serve, logger)
		go func() {
			if wsErr := wsServer.ListenAndServe(ctx); wsErr != nil {
				logger.Error("WebSocket server error", zap.Error(wsErr))
			}
		}()
	}

	grpcServer, health := server.NewGRPCServer(cfg.Server.GRPC, server.NewAdminServer(lb, version, logger), logger)
	lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
	if err != nil {
		logger.Fatal("failed to listen", zap.Error(err))
	}

	go func() {
		logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
		if serveErr := grpcServer.Serve(lis); serveErr != nil {
			logger.Error("gRPC server error", zap.Error(serveErr))
		}
	}()
	server.SetServing(health, true)

	logger.Info("duel server initialized",
		zap.String("version", version),
		zap.String("tcp_address", cfg.Server.TCP.Address),
		zap.String("websocket_address", cfg.Server.WebSocket.Address),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
	)

	// Wait for termination signal
	sig := <-sigChan
	logger.Info("received shutdown signal", zap.String("signal", sig.String()))

	logger.Info("shutting down gracefully...")
	server.SetServing(health, false)
	cancel()

	// Running matches end as a server shutdown and record their results
	// before the pool closes.
	<-lobbyDone

	grpcServer.GracefulStop()

	logger.Info("duel server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
