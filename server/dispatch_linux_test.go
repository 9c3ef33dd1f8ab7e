//go:build linux

package server

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"syscall"
	"testing"

	"github.com/eapache/queue"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/control"
	"github.com/momentics/hioload-calc/fake"
	"github.com/momentics/hioload-calc/pool"
	"github.com/momentics/hioload-calc/protocol"
	"github.com/momentics/hioload-calc/reactor"
	"github.com/momentics/hioload-calc/shutdown"
)

func newFakeServer(cfg *Config, listeners ...api.Listener) *Server {
	return &Server{
		cfg:       cfg.withDefaults(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:   control.NewMetrics(),
		ctrl:      shutdown.NewController(),
		listeners: listeners,
		events:    make([]reactor.Event, 8),
		pending:   queue.New(),
		bufs:      pool.NewBufferPool(protocol.RecordSize),
	}
}

func conns(prefix string, n int) []*fake.Conn {
	out := make([]*fake.Conn, n)
	for i := range out {
		out[i] = fake.NewConn(prefix+string(rune('1'+i)), nil)
	}
	return out
}

func drainPending(s *Server) []string {
	var ids []string
	for s.pending.Length() > 0 {
		p := s.pending.Remove().(pendingExchange)
		ids = append(ids, p.conn.(*fake.Conn).ID)
	}
	return ids
}

func TestAcceptReadyFairness(t *testing.T) {
	cases := []struct {
		name  string
		drain bool
		batch int
		want  []string
	}{
		{"once per listener", false, 0, []string{"a1", "b1"}},
		{"drain capped", true, 2, []string{"a1", "b1", "a2", "b2"}},
		{"drain until would-block", true, 64, []string{"a1", "b1", "a2", "b2", "a3", "b3", "b4", "b5"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tcp := &fake.Listener{KindValue: api.TransportTCP, Queue: conns("a", 3)}
			local := &fake.Listener{KindValue: api.TransportLocal, Queue: conns("b", 5)}
			cfg := DefaultConfig()
			cfg.DrainPending = tc.drain
			cfg.AcceptBatch = tc.batch
			s := newFakeServer(cfg, tcp, local)

			s.ready = append(s.ready[:0], tcp, local)
			s.acceptReady()
			assert.Equal(t, tc.want, drainPending(s))
		})
	}
}

func TestAcceptErrorRetiresOnlyThatListener(t *testing.T) {
	broken := &fake.Listener{KindValue: api.TransportTCP, Err: api.NewError(api.ErrCodeConnection, "accept").WithCause(syscall.EMFILE)}
	local := &fake.Listener{KindValue: api.TransportLocal, Queue: conns("b", 3)}
	cfg := DefaultConfig()
	cfg.DrainPending = true
	s := newFakeServer(cfg, broken, local)

	s.ready = append(s.ready[:0], broken, local)
	s.acceptReady()
	assert.Equal(t, 1, broken.Accepts)
	assert.Equal(t, []string{"b1", "b2", "b3"}, drainPending(s))
}

func TestDispatchServesEveryConnection(t *testing.T) {
	full := protocol.NewRequest(50, 8, protocol.OpAdd).Encode()
	good := fake.NewConn("good", full[:])
	short := fake.NewConn("short", full[:12])
	divZero := protocol.NewRequest(50, 0, protocol.OpDiv).Encode()
	broken := fake.NewConn("broken", divZero[:])
	broken.WriteErr = syscall.EPIPE

	tcp := &fake.Listener{KindValue: api.TransportTCP, Queue: []*fake.Conn{good, broken}}
	local := &fake.Listener{KindValue: api.TransportLocal, Queue: []*fake.Conn{short}}
	cfg := DefaultConfig()
	cfg.DrainPending = true
	s := newFakeServer(cfg, tcp, local)

	s.dispatch([]reactor.Event{{UserData: 1}, {UserData: 0}, {UserData: 7}})

	assert.Zero(t, s.pending.Length())
	for _, c := range []*fake.Conn{good, short, broken} {
		assert.True(t, c.Closed, c.ID)
		assert.Equal(t, cfg.ReadTimeout, c.ReadTimeout, c.ID)
	}
	resp, err := protocol.Decode(good.Out.Bytes())
	require.NoError(t, err)
	assert.Equal(t, int32(58), resp.Result)
	assert.Zero(t, short.Out.Len(), "no reply to a short record")

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ExchangeCount("tcp", control.OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ExchangeCount("tcp", control.OutcomeWriteError)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.ExchangeCount("local", control.OutcomeShortRead)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.WakeupCount(control.WakeEvents)))
}

func TestDispatchCountsListenerHangup(t *testing.T) {
	full := protocol.NewRequest(2, 3, protocol.OpAdd).Encode()
	c := fake.NewConn("c", full[:])
	tcp := &fake.Listener{KindValue: api.TransportTCP, Queue: []*fake.Conn{c}}
	local := &fake.Listener{KindValue: api.TransportLocal}
	s := newFakeServer(DefaultConfig(), tcp, local)

	s.dispatch([]reactor.Event{{UserData: 0, Hangup: true}, {UserData: 1}})

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.HangupCount("tcp")))
	assert.Zero(t, testutil.ToFloat64(s.metrics.HangupCount("local")))
	assert.True(t, c.Closed, "a hung-up listener is still accepted from")
	assert.Equal(t, 1, tcp.Accepts)
}

func TestRunRetriesInterruptedWaitAndStopsOnFacilityError(t *testing.T) {
	req := protocol.NewRequest(6, 7, protocol.OpMul).Encode()
	c := fake.NewConn("c", req[:])
	tcp := &fake.Listener{KindValue: api.TransportTCP, Queue: []*fake.Conn{c}}
	local := &fake.Listener{KindValue: api.TransportLocal}
	s := newFakeServer(DefaultConfig(), tcp, local)

	broken := api.NewError(api.ErrCodeFacility, "epoll_wait").WithCause(syscall.EBADF)
	r := fake.NewReactor(
		fake.Step{Err: api.ErrInterrupted},
		fake.Step{Events: []reactor.Event{{UserData: wakeToken}}},
		fake.Step{Events: []reactor.Event{{UserData: 0}}},
		fake.Step{Err: broken},
	)
	var err error
	s.reactor = r
	s.waker, err = reactor.NewWaker()
	require.NoError(t, err)

	err = s.Run(context.Background())
	assert.True(t, errors.Is(err, syscall.EBADF), "facility error is returned: %v", err)
	assert.Equal(t, 4, r.Waits)
	assert.Len(t, r.Registered, 2, "listeners share fd 0 in the fake plus the waker")

	assert.True(t, c.Closed)
	resp, derr := protocol.Decode(c.Out.Bytes())
	require.NoError(t, derr)
	assert.Equal(t, int32(42), resp.Result)

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.WakeupCount(control.WakeInterrupted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.WakeupCount(control.WakeShutdown)))
	assert.True(t, tcp.Closed)
	assert.True(t, local.Closed)
	assert.Equal(t, api.StateTerminated, s.State())
}

func TestRunReturnsImmediatelyWhenAlreadyStopped(t *testing.T) {
	tcp := &fake.Listener{KindValue: api.TransportTCP}
	local := &fake.Listener{KindValue: api.TransportLocal}
	s := newFakeServer(DefaultConfig(), tcp, local)
	r := fake.NewReactor()
	var err error
	s.reactor = r
	s.waker, err = reactor.NewWaker()
	require.NoError(t, err)

	s.Shutdown()
	require.NoError(t, s.Run(context.Background()))
	assert.Zero(t, r.Waits)
	assert.True(t, tcp.Closed)
	assert.Equal(t, "shutdown requested", s.ctrl.Reason())
}
