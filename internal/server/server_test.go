package server

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/wizardpoker/duel-server-go/internal/config"
	"github.com/wizardpoker/duel-server-go/internal/game/engine"
	"github.com/wizardpoker/duel-server-go/internal/lobby"
	"github.com/wizardpoker/duel-server-go/internal/session"
)

type fakeLobby struct {
	state lobby.State
	err   error
}

func (f *fakeLobby) State(context.Context) (lobby.State, error) { return f.state, f.err }
func (f *fakeLobby) Running() bool                              { return f.err == nil }

func newClient(t *testing.T, l LobbyState) (*AdminClient, *grpc.ClientConn, func(bool)) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	s, hs := NewGRPCServer(config.GRPCConfig{MaxConcurrentStreams: 10}, NewAdminServer(l, "test", logger), logger)

	lis := bufconn.Listen(1 << 20)
	go func() { _ = s.Serve(lis) }()
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewAdminClient(conn), conn, func(serving bool) { SetServing(hs, serving) }
}

func sampleState() lobby.State {
	return lobby.State{
		Players: 3,
		Queued:  1,
		Matches: []session.Status{
			{MatchID: "m-2", Players: [2]string{"carol", "dave"}, State: engine.StateAwaitingDecks},
			{MatchID: "m-1", Players: [2]string{"alice", "bob"}, State: engine.StateRunning, Turn: 4, StartedAt: time.Now()},
		},
	}
}

func TestServerState(t *testing.T) {
	client, _, _ := newClient(t, &fakeLobby{state: sampleState()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	st, err := client.ServerState(ctx)
	require.NoError(t, err)
	fields := st.GetFields()
	assert.Equal(t, float64(3), fields["active_players"].GetNumberValue())
	assert.Equal(t, float64(1), fields["queued_players"].GetNumberValue())
	assert.Equal(t, float64(2), fields["active_matches"].GetNumberValue())
	assert.Equal(t, "test", fields["server_version"].GetStringValue())
	assert.NotEmpty(t, fields["server_time"].GetStringValue())
}

func TestListAndGetMatches(t *testing.T) {
	client, _, _ := newClient(t, &fakeLobby{state: sampleState()})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	list, err := client.ListMatches(ctx)
	require.NoError(t, err)
	matches := list.GetFields()["matches"].GetListValue().GetValues()
	require.Len(t, matches, 2)
	first := matches[0].GetStructValue().GetFields()
	assert.Equal(t, "m-1", first["match_id"].GetStringValue())
	assert.Equal(t, "RUNNING", first["state"].GetStringValue())
	assert.Equal(t, float64(4), first["turn"].GetNumberValue())
	assert.NotEmpty(t, first["started_at"].GetStringValue())

	m, err := client.GetMatch(ctx, "m-2")
	require.NoError(t, err)
	assert.Equal(t, "AWAITING_DECKS", m.GetFields()["state"].GetStringValue())
	_, hasStart := m.GetFields()["started_at"]
	assert.False(t, hasStart)

	_, err = client.GetMatch(ctx, "missing")
	assert.Equal(t, codes.NotFound, status.Code(err))
	_, err = client.GetMatch(ctx, "")
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestLobbyUnavailable(t *testing.T) {
	client, _, _ := newClient(t, &fakeLobby{err: lobby.ErrStopped})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := client.ServerState(ctx)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestHealth(t *testing.T) {
	_, conn, setServing := newClient(t, &fakeLobby{})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	hc := healthpb.NewHealthClient(conn)

	resp, err := hc.Check(ctx, &healthpb.HealthCheckRequest{Service: AdminServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.GetStatus())

	setServing(true)
	resp, err = hc.Check(ctx, &healthpb.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_SERVING, resp.GetStatus())
}

func TestRecoveryInterceptor(t *testing.T) {
	intercept := RecoveryInterceptor(zaptest.NewLogger(t))
	info := &grpc.UnaryServerInfo{FullMethod: "/test/Panic"}
	_, err := intercept(context.Background(), nil, info, func(context.Context, any) (any, error) {
		panic("boom")
	})
	assert.Equal(t, codes.Internal, status.Code(err))
}

func TestChainUnaryInterceptorsOrder(t *testing.T) {
	var calls []string
	mark := func(name string) grpc.UnaryServerInterceptor {
		return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
			calls = append(calls, name)
			return handler(ctx, req)
		}
	}
	chain := ChainUnaryInterceptors(mark("outer"), mark("inner"))
	resp, err := chain(context.Background(), "req", &grpc.UnaryServerInfo{}, func(_ context.Context, req any) (any, error) {
		calls = append(calls, "handler")
		return req, errors.New("done")
	})
	assert.Equal(t, "req", resp)
	assert.EqualError(t, err, "done")
	assert.Equal(t, []string{"outer", "inner", "handler"}, calls)
}
