// File: cmd/calcd/main.go
// Command calcd serves calculator requests on a TCP port and a local socket.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/control"
	"github.com/momentics/hioload-calc/internal/config"
	"github.com/momentics/hioload-calc/internal/logging"
	"github.com/momentics/hioload-calc/server"
	"github.com/momentics/hioload-calc/shutdown"
)

type options struct {
	configPath   string
	backlog      int
	readTimeout  time.Duration
	writeTimeout time.Duration
	drain        bool
	metricsAddr  string
	cpus         []int
	logLevel     string
	logFormat    string
}

func newRootCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "calcd <local-socket-path> <port>",
		Short: "Calculator server over TCP and a Unix-domain socket",
		Long: `calcd listens on a TCP port (all interfaces) and a Unix-domain socket path.
Each connection carries exactly one 20-byte request and receives one reply.
SIGINT or SIGTERM stops the server and removes the socket file.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, o, args)
		},
	}
	f := cmd.Flags()
	f.StringVar(&o.configPath, "config", "", "YAML configuration file")
	f.IntVar(&o.backlog, "backlog", 0, "listen backlog (0 = system maximum)")
	f.DurationVar(&o.readTimeout, "read-timeout", 10*time.Second, "per-connection read timeout")
	f.DurationVar(&o.writeTimeout, "write-timeout", 10*time.Second, "per-connection write timeout")
	f.BoolVar(&o.drain, "drain", false, "accept every pending connection per wakeup")
	f.StringVar(&o.metricsAddr, "metrics-addr", "", "serve /metrics and /debug/probes on this address")
	f.IntSliceVar(&o.cpus, "cpu-affinity", nil, "pin the event loop thread to these CPUs")
	f.StringVar(&o.logLevel, "log-level", "info", "debug, info, warn or error")
	f.StringVar(&o.logFormat, "log-format", "text", "text or json")
	return cmd
}

func parsePort(s string) (int, error) {
	port, err := strconv.Atoi(s)
	if err != nil || port < 1 || port > 65535 {
		return 0, api.NewError(api.ErrCodeUsage, "port number must be in 1-65535").WithContext("port", s)
	}
	return port, nil
}

// loadConfig layers flags that were set explicitly over file and env values.
func loadConfig(cmd *cobra.Command, o *options, args []string) (*server.Config, error) {
	port, err := parsePort(args[1])
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg.LocalPath = args[0]
	cfg.Port = port

	f := cmd.Flags()
	if f.Changed("backlog") {
		cfg.Backlog = o.backlog
	}
	if f.Changed("read-timeout") {
		cfg.ReadTimeout = o.readTimeout
	}
	if f.Changed("write-timeout") {
		cfg.WriteTimeout = o.writeTimeout
	}
	if f.Changed("drain") {
		cfg.DrainPending = o.drain
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = o.metricsAddr
	}
	if f.Changed("cpu-affinity") {
		cfg.CPUAffinity = o.cpus
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if f.Changed("log-format") {
		cfg.LogFormat = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, o *options, args []string) error {
	cfg, err := loadConfig(cmd, o, args)
	if err != nil {
		return err
	}
	log, err := logging.New(cmd.ErrOrStderr(), cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return api.NewError(api.ErrCodeUsage, "logging").WithCause(err)
	}
	// Arguments are fine from here on; failures are runtime errors.
	cmd.SilenceUsage = true

	ctrl := shutdown.NewController()
	stop := ctrl.Notify(os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics := control.NewMetrics()
	probes := control.NewDebugProbes()
	control.RegisterPlatformProbes(probes)

	srv, err := server.New(cfg, ctrl,
		server.WithLogger(log),
		server.WithMetrics(metrics),
		server.WithDebugProbes(probes))
	if err != nil {
		log.Error("setup failed", "error", err, "code", api.CodeOf(err).String())
		return err
	}
	log.Info(fmt.Sprintf("Listening on port %d", cfg.Port))
	log.Info(fmt.Sprintf("Listening on local socket %s", cfg.LocalPath))

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return srv.Run(gctx)
	})
	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			log.Info("metrics endpoint enabled", "addr", cfg.MetricsAddr)
			return control.Serve(gctx, cfg.MetricsAddr, metrics, probes)
		})
	}
	err = g.Wait()
	if err != nil {
		log.Error("server failed", "error", err, "reason", ctrl.Reason())
	}
	log.Info("Server finished")
	return err
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
