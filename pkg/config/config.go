// Package config loads kuiperdb's startup configuration: the datastore
// directory path spec.md §6 calls out as the one setting in the core's
// contract, plus the ambient listen-address and logging settings every
// cmd/kuiperdb entrypoint needs, following the teacher's
// cmd/warren/apply.go yaml-struct-tag style (scaled down from a
// multi-resource manifest to a single flat startup document).
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/log"
)

// Config is kuiperdb's top-level startup configuration.
type Config struct {
	// DataDir is the directory the datastore opens (created if missing).
	// This is the only setting spec.md §6 places in the core's contract.
	DataDir string `yaml:"dataDir"`

	// ListenAddr is the address the front end's HTTP server binds, and
	// where /metrics is also exposed.
	ListenAddr string `yaml:"listenAddr"`

	// LogLevel and LogJSON configure pkg/log the way the teacher's
	// --log-level/--log-json root flags do.
	LogLevel string `yaml:"logLevel"`
	LogJSON  bool   `yaml:"logJson"`
}

// Default returns a Config with the values every cmd/kuiperdb subcommand
// falls back to absent an explicit file or flag.
func Default() Config {
	return Config{
		DataDir:    "./kuiperdb-data",
		ListenAddr: "127.0.0.1:8099",
		LogLevel:   "info",
		LogJSON:    false,
	}
}

// Load reads and parses a YAML config file at path, filling in Default()
// values for any field the file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, kerrors.Value(fmt.Sprintf("config: read %s: %v", path, err))
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, kerrors.Value(fmt.Sprintf("config: parse %s: %v", path, err))
	}
	if cfg.DataDir == "" {
		return Config{}, kerrors.Value("config: dataDir must not be empty")
	}
	return cfg, nil
}

// InitLogging wires cfg's logging settings into the global pkg/log logger,
// the way cmd/warren's initLogging cobra.OnInitialize hook does.
func (c Config) InitLogging() {
	log.Init(log.Config{
		Level:      log.Level(c.LogLevel),
		JSONOutput: c.LogJSON,
	})
}
