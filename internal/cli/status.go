package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	redisclient "github.com/havocd/havoc/internal/infra/redis"
	"github.com/havocd/havoc/internal/infra/storage/postgres"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show recent runs and the rerun queue depth",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	ctx := context.Background()

	if cfg.Database.URL == "" {
		slog.Error("No database configured, nothing to report")
		os.Exit(1)
	}

	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = db.Close()
	}()

	repo := postgres.NewResultRepo(db)
	runs, err := repo.RecentRuns(ctx, 10)
	if err != nil {
		slog.Error("Failed to query runs", "error", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "RUN\tSTARTED\tTOTAL\tPASSED\tFAILED\tATTEMPTS")
	for _, run := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%d\n",
			run.ID[:8], run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Total, run.Passed, run.Failed, run.TotalAttempts)
	}
	_ = w.Flush()

	if cfg.Redis.URL != "" {
		rc, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			slog.Warn("Failed to connect to redis", "error", err)
			return
		}
		defer func() {
			_ = rc.Close()
		}()

		depth, err := rc.QueueDepth(ctx, cfg.Suite.Name)
		if err != nil {
			slog.Warn("Failed to read rerun queue", "error", err)
			return
		}
		fmt.Printf("\nrerun queue (%s): %d tests\n", cfg.Suite.Name, depth)
	}
}
