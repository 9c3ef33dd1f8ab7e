package server

import (
	"fmt"
	"time"

	"github.com/momentics/hioload-calc/api"
)

// Config holds all server-side configuration parameters.
// Field tags drive the YAML file and CALCD_* environment overrides.
type Config struct {
	LocalPath    string        `yaml:"local_path" env:"CALCD_LOCAL_PATH"`       // Unix-domain socket path
	Port         int           `yaml:"port" env:"CALCD_PORT"`                   // TCP port on INADDR_ANY (0 = ephemeral)
	Backlog      int           `yaml:"backlog" env:"CALCD_BACKLOG"`             // listen(2) backlog (0 = SOMAXCONN)
	MaxEvents    int           `yaml:"max_events" env:"CALCD_MAX_EVENTS"`       // events returned per readiness wait
	DrainPending bool          `yaml:"drain_pending" env:"CALCD_DRAIN_PENDING"` // accept until would-block instead of once per wakeup
	AcceptBatch  int           `yaml:"accept_batch" env:"CALCD_ACCEPT_BATCH"`   // per-listener accept cap per iteration when draining
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"CALCD_READ_TIMEOUT"`   // per-connection read bound (0 = none)
	WriteTimeout time.Duration `yaml:"write_timeout" env:"CALCD_WRITE_TIMEOUT"` // per-connection write bound (0 = none)
	MetricsAddr  string        `yaml:"metrics_addr" env:"CALCD_METRICS_ADDR"`   // optional /metrics + /debug/probes listener
	CPUAffinity  []int         `yaml:"cpu_affinity" env:"CALCD_CPU_AFFINITY"`   // pin the loop thread to these CPUs (empty = no pinning)
	LogLevel     string        `yaml:"log_level" env:"CALCD_LOG_LEVEL"`
	LogFormat    string        `yaml:"log_format" env:"CALCD_LOG_FORMAT"` // text | json
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Backlog:      0,
		MaxEvents:    100,
		DrainPending: false,
		AcceptBatch:  64,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// Validate enforces the command-line contract: a socket path and a port
// in 1..65535. Failures are usage errors.
func (c *Config) Validate() error {
	if c.LocalPath == "" {
		return usageError("local socket path is required")
	}
	if c.Port < 1 || c.Port > 65535 {
		return usageError("port number must be in 1-65535").WithContext("port", c.Port)
	}
	if c.Backlog < 0 {
		return usageError("backlog must not be negative")
	}
	if c.MaxEvents < 0 || c.AcceptBatch < 0 {
		return usageError("max_events and accept_batch must not be negative")
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return usageError("timeouts must not be negative")
	}
	for _, cpu := range c.CPUAffinity {
		if cpu < 0 {
			return usageError("cpu_affinity entries must not be negative").WithContext("cpu", cpu)
		}
	}
	return nil
}

// withDefaults fills zero sizing fields so a partially built Config still runs.
func (c Config) withDefaults() *Config {
	def := DefaultConfig()
	if c.MaxEvents <= 0 {
		c.MaxEvents = def.MaxEvents
	}
	if c.AcceptBatch <= 0 {
		c.AcceptBatch = def.AcceptBatch
	}
	return &c
}

func usageError(msg string) *api.Error {
	return api.NewError(api.ErrCodeUsage, msg)
}

func (c *Config) String() string {
	return fmt.Sprintf("local=%q port=%d backlog=%d max_events=%d drain=%t",
		c.LocalPath, c.Port, c.Backlog, c.MaxEvents, c.DrainPending)
}
