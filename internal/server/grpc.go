package server

import (
	"context"
	"net"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/timestamppb"

	"github.com/wizardpoker/duel-server-go/internal/lobby"
	"github.com/wizardpoker/duel-server-go/internal/session"
)

// LobbyState is the part of the lobby the admin service reads.
type LobbyState interface {
	State(ctx context.Context) (lobby.State, error)
	Running() bool
}

// adminServer implements the Admin gRPC service
type adminServer struct {
	lobby         LobbyState
	serverVersion string
	startedAt     time.Time
	logger        *zap.Logger
}

// NewAdminServer creates the admin service.
func NewAdminServer(l LobbyState, serverVersion string, logger *zap.Logger) AdminServer {
	return &adminServer{
		lobby:         l,
		serverVersion: serverVersion,
		startedAt:     time.Now(),
		logger:        logger,
	}
}

func (s *adminServer) state(ctx context.Context) (lobby.State, error) {
	st, err := s.lobby.State(ctx)
	if err != nil {
		s.logger.Warn("lobby state unavailable", zap.Error(err))
		return lobby.State{}, status.Errorf(codes.Unavailable, "lobby unavailable: %v", err)
	}
	return st, nil
}

// ServerState returns server state information
func (s *adminServer) ServerState(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := s.state(ctx)
	if err != nil {
		return nil, err
	}
	out, err := structpb.NewStruct(map[string]any{
		"active_players": st.Players,
		"queued_players": st.Queued,
		"active_matches": len(st.Matches),
		"goroutines":     runtime.NumGoroutine(),
		"server_version": s.serverVersion,
		"server_time":    timestamppb.Now().AsTime().Format(time.RFC3339),
		"uptime_seconds": int(time.Since(s.startedAt).Seconds()),
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode server state: %v", err)
	}
	return out, nil
}

func matchValue(m session.Status) map[string]any {
	v := map[string]any{
		"match_id": m.MatchID,
		"players":  []any{m.Players[0], m.Players[1]},
		"state":    m.State.String(),
		"turn":     m.Turn,
	}
	if !m.StartedAt.IsZero() {
		v["started_at"] = timestamppb.New(m.StartedAt).AsTime().Format(time.RFC3339)
	}
	return v
}

// ListMatches returns the running matches ordered by id
func (s *adminServer) ListMatches(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	st, err := s.state(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(st.Matches, func(i, j int) bool { return st.Matches[i].MatchID < st.Matches[j].MatchID })
	list := make([]any, 0, len(st.Matches))
	for _, m := range st.Matches {
		list = append(list, matchValue(m))
	}
	out, err := structpb.NewStruct(map[string]any{"matches": list})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode matches: %v", err)
	}
	return out, nil
}

// GetMatch returns one running match
func (s *adminServer) GetMatch(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	id := req.GetFields()["match_id"].GetStringValue()
	if id == "" {
		return nil, status.Errorf(codes.InvalidArgument, "match_id is required")
	}
	st, err := s.state(ctx)
	if err != nil {
		return nil, err
	}
	for _, m := range st.Matches {
		if m.MatchID == id {
			out, err := structpb.NewStruct(matchValue(m))
			if err != nil {
				return nil, status.Errorf(codes.Internal, "encode match: %v", err)
			}
			return out, nil
		}
	}
	return nil, status.Errorf(codes.NotFound, "match %s not found", id)
}

func extractHostFromContext(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok && p.Addr != net.Addr(nil) {
		if host, _, err := net.SplitHostPort(p.Addr.String()); err == nil {
			return host
		}
		return p.Addr.String()
	}
	return "unknown"
}
