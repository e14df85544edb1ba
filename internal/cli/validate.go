package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/havocd/havoc/internal/catalog"
	"github.com/havocd/havoc/internal/control"
	"github.com/havocd/havoc/internal/playbook"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config, playbook, catalog, and test specs without running",
	Run:   runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	cat, err := catalog.Load(ctx, cfg.Catalog.Source)
	if err != nil {
		slog.Error("Catalog invalid", "error", err)
		os.Exit(1)
	}

	pb, err := playbook.Load(cfg.Playbook.Path, playbook.Defaults{
		MaxRetries:     cfg.Retry.MaxRetries,
		BackoffSeconds: cfg.Retry.BackoffBaseSeconds,
	})
	if err != nil {
		slog.Error("Playbook invalid", "error", err)
		os.Exit(1)
	}

	specs, err := control.LoadSpecs(cfg.Suite.Specs)
	if err != nil {
		slog.Error("Test specs invalid", "error", err)
		os.Exit(1)
	}

	// Tests referencing unknown operations fail only at run time;
	// flag them here.
	unknown := 0
	for _, spec := range specs {
		if _, ok := cat.Lookup(spec.Operation); !ok {
			slog.Warn("Test references unknown operation",
				"test_id", spec.TestID, "operation", spec.Operation)
			unknown++
		}
	}

	fmt.Printf("catalog:  %d operations\n", cat.Len())
	fmt.Printf("playbook: %d entries (+default)\n", pb.Len())
	fmt.Printf("specs:    %d tests, %d referencing unknown operations\n", len(specs), unknown)
}
