// control/http.go
// Author: momentics <momentics@gmail.com>
//
// HTTP side-channel exposing metrics and debug probes.

package control

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler builds the side-channel mux: /metrics and /debug/probes.
func Handler(m *Metrics, probes *DebugProbes) http.Handler {
	mux := http.NewServeMux()
	if m != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	}
	if probes != nil {
		mux.Handle("/debug/probes", probes)
	}
	return mux
}

// Serve runs the side-channel on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, m *Metrics, probes *DebugProbes) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, m, probes)
}

// ServeListener is Serve over an existing listener.
func ServeListener(ctx context.Context, ln net.Listener, m *Metrics, probes *DebugProbes) error {
	srv := &http.Server{
		Handler:           Handler(m, probes),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
