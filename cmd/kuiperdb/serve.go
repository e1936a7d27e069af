package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cuemby/kuiperdb/pkg/exec"
	"github.com/cuemby/kuiperdb/pkg/frontend"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the datastore and serve the query front end",
	Long: `serve opens the datastore at the configured data directory and starts
the HTTP front end (POST / for queries, GET /health, GET /metrics).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ds, err := store.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open datastore: %w", err)
		}
		defer ds.Close()

		front := frontend.New(exec.New(ds))

		errCh := make(chan error, 1)
		go func() {
			log.Info("front end listening on " + cfg.ListenAddr)
			errCh <- front.Start(cfg.ListenAddr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case <-sigCh:
			log.Info("shutting down")
		case err := <-errCh:
			return fmt.Errorf("front end: %w", err)
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().String("config", "", "Path to a kuiperdb.yaml config file")
	serveCmd.Flags().String("data-dir", "", "Datastore directory (overrides config)")
	serveCmd.Flags().String("listen-addr", "", "Front-end listen address (overrides config)")
}
