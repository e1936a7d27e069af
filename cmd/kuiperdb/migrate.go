package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cuemby/kuiperdb/pkg/exec"
	"github.com/cuemby/kuiperdb/pkg/log"
	"github.com/cuemby/kuiperdb/pkg/store"
)

// migrateCmd is a standalone schema/collection bootstrap tool, mirroring
// cmd/warren-migrate's backup-then-migrate shape: back up the datastore
// file, then register collections into information_schema::table without
// going through the front end.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Back up the datastore and register collections",
	Long: `migrate backs up the datastore file, then registers each named
collection into information_schema::table via CreateCollection. It is a
standalone bootstrap tool, not a schema-versioning migrator: kuiperdb has
no secondary-index maintenance or schema versioning to migrate (spec
Non-goals).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		collections, _ := cmd.Flags().GetStringArray("collection")
		dryRun, _ := cmd.Flags().GetBool("dry-run")
		backupPath, _ := cmd.Flags().GetString("backup")

		dbPath := filepath.Join(cfg.DataDir, "kuiper.db")
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return fmt.Errorf("no datastore found at %s", dbPath)
		}

		if !dryRun {
			if backupPath == "" {
				backupPath = dbPath + ".backup"
			}
			log.Info("backing up datastore to " + backupPath)
			if err := copyFile(dbPath, backupPath); err != nil {
				return fmt.Errorf("backup: %w", err)
			}
		}

		if len(collections) == 0 {
			log.Info("no --collection flags given, nothing to register")
			return nil
		}

		if dryRun {
			for _, c := range collections {
				fmt.Printf("would register collection %q\n", c)
			}
			return nil
		}

		ds, err := store.Open(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("open datastore: %w", err)
		}
		defer ds.Close()

		e := exec.New(ds)
		for _, c := range collections {
			if err := e.CreateCollection(c); err != nil {
				return fmt.Errorf("register collection %q: %w", c, err)
			}
			fmt.Printf("registered collection %q\n", c)
		}

		return nil
	},
}

func init() {
	migrateCmd.Flags().String("config", "", "Path to a kuiperdb.yaml config file")
	migrateCmd.Flags().String("data-dir", "", "Datastore directory (overrides config)")
	migrateCmd.Flags().StringArray("collection", nil, "Collection name to register (repeatable)")
	migrateCmd.Flags().Bool("dry-run", false, "Show what would be registered without making changes")
	migrateCmd.Flags().String("backup", "", "Path to back up the database before migrating (default: <data-dir>/kuiper.db.backup)")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
