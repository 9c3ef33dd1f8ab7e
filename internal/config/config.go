// Package config loads server configuration: defaults, then an optional YAML
// file, then CALCD_* environment variables. Command-line arguments are applied
// by the caller on top of the result.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/momentics/hioload-calc/api"
	"github.com/momentics/hioload-calc/server"
)

// Load builds a server.Config. An empty path skips the file stage.
func Load(path string) (*server.Config, error) {
	cfg := server.DefaultConfig()
	if path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}
	if err := ParseEnv(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *server.Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return api.NewError(api.ErrCodeUsage, "read config").WithCause(err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return api.NewError(api.ErrCodeUsage, "parse config").
			WithCause(err).
			WithContext("path", path)
	}
	return nil
}

// ParseEnv overlays environment variables onto target. Unset variables keep
// the current field values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return api.NewError(api.ErrCodeUsage, "parse env").WithCause(fmt.Errorf("parse env: %w", err))
	}
	return nil
}
