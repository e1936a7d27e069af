package main

import (
	"github.com/spf13/cobra"

	"github.com/cuemby/kuiperdb/pkg/config"
)

// loadConfig resolves a Config for cmd, preferring --config if set, and
// applying --data-dir/--listen-addr flag overrides on top. When a config
// file is loaded it calls Config.InitLogging, so that file's logging settings
// take effect; otherwise the logging set up from the --log-level/--log-json
// flags by the root command's initLogging stays in place.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()

	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath, _ = cmd.Root().PersistentFlags().GetString("config")
	}
	if configPath != "" {
		loaded, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
		cfg.InitLogging()
	}

	if dataDir, _ := cmd.Flags().GetString("data-dir"); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if listenAddr, _ := cmd.Flags().GetString("listen-addr"); listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}

	return cfg, nil
}
