package server

import (
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/control"
	"github.com/momentics/hioload-calc/protocol"
	"github.com/momentics/hioload-calc/transport"
)

// pendingExchange is one accepted connection waiting to be served in the
// current batch. It never outlives the iteration that accepted it.
type pendingExchange struct {
	conn     api.Conn
	kind     api.TransportKind
	accepted time.Time
}

// exchange runs read -> compute -> write -> close for one connection.
// The connection is closed on every path, panics included.
func (s *Server) exchange(p pendingExchange) {
	log := s.log.With("conn_id", uuid.NewString(), "transport", p.kind.String())
	outcome := control.OutcomeReadError
	defer func() {
		if r := recover(); r != nil {
			log.Error("exchange panicked", "panic", r)
		}
		if err := p.conn.Close(); err != nil {
			log.Warn("close failed", "error", err)
		}
		s.metrics.Exchange(p.kind.String(), outcome, time.Since(p.accepted))
	}()
	outcome = s.serve(p.conn, log)
}

func (s *Server) serve(conn api.Conn, log *slog.Logger) string {
	if err := conn.SetDeadline(s.cfg.ReadTimeout, s.cfg.WriteTimeout); err != nil {
		log.Warn("set deadline failed", "error", err)
	}

	buf := s.bufs.Get()
	defer s.bufs.Put(buf)

	n, err := transport.BulkRead(conn, *buf)
	if err != nil {
		log.Warn("read failed", "error", connectionError("read", err), "bytes", n)
		return control.OutcomeReadError
	}
	req, err := protocol.Decode((*buf)[:n])
	if err != nil {
		log.Warn("received partial message, abandoning",
			"error", api.NewError(api.ErrCodeProtocol, "decode").WithCause(err),
			"bytes", n)
		return control.OutcomeShortRead
	}
	resp := protocol.Compute(req)
	log.Debug("request computed",
		"operand1", resp.Operand1,
		"operand2", resp.Operand2,
		"operation", resp.Operation.String(),
		"status", resp.Status,
		"result", resp.Result)

	wire := resp.Encode()
	if _, err := transport.BulkWrite(conn, wire[:]); err != nil {
		log.Warn("write failed", "error", connectionError("write", err))
		return control.OutcomeWriteError
	}
	if resp.Status != protocol.StatusOK {
		return control.OutcomeStatusError
	}
	return control.OutcomeOK
}

func connectionError(op string, err error) error {
	return api.NewError(api.ErrCodeConnection, op).WithCause(err)
}
