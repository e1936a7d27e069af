package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cuemby/kuiperdb/pkg/ast"
	"github.com/cuemby/kuiperdb/pkg/exec"
	"github.com/cuemby/kuiperdb/pkg/kerrors"
	"github.com/cuemby/kuiperdb/pkg/lang"
	"github.com/cuemby/kuiperdb/pkg/plan"
	"github.com/cuemby/kuiperdb/pkg/store"
)

// queryCmd opens the datastore, parses and executes one query line, and
// prints the decoded result as JSON. This is a single-shot command, not an
// interactive REPL: the query-language benchmark harness is out of scope
// (spec.md §1 Non-goals).
var queryCmd = &cobra.Command{
	Use:   "query [query text]",
	Short: "Run one query and print the result as JSON",
	Args:  cobra.ExactArgs(1),
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

		nodes, err := lang.Parse(args[0])
		if err != nil {
			return err
		}
		if len(nodes) == 0 || nodes[0].Kind != ast.NodeQuery {
			return kerrors.Value("top-level statement is not a query")
		}

		p := plan.FromAST(nodes[0].Query)
		result, err := exec.New(ds).ExecuteSelect(p)
		if err != nil {
			return err
		}

		rows := make([]map[string]interface{}, len(result.Records))
		for i, doc := range result.Records {
			rows[i] = doc.ToJSON()
		}

		out, err := json.MarshalIndent(rows, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	queryCmd.Flags().String("config", "", "Path to a kuiperdb.yaml config file")
	queryCmd.Flags().String("data-dir", "", "Datastore directory (overrides config)")
}
