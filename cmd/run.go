package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/datadrift/sqlsentinel/internal/check"
	"github.com/datadrift/sqlsentinel/internal/config"
	"github.com/datadrift/sqlsentinel/internal/executor"
	"github.com/datadrift/sqlsentinel/internal/suite"
)

var runCmd = &cobra.Command{
	Use:   "run [suite file]",
	Short: "Run a check suite",
	Long: `Run every check declared in a suite file against the configured
database connection.

The suite file groups column checks, table checks, interval checks,
threshold checks, value checks and row checks. All checks in the suite
are evaluated before failing, so the final report names every failing
check, not only the first one.

Examples:
  sqlsentinel run checks.yaml
  LOG_LEVEL=debug sqlsentinel run suites/orders.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		s, err := suite.Load(Logger, args[0])
		if err != nil {
			return fmt.Errorf("loading suite: %w", err)
		}

		client, err := executor.Open(Logger, cfg.Connection)
		if err != nil {
			return fmt.Errorf("opening connection: %w", err)
		}
		defer func() {
			if err := client.Close(); err != nil {
				Logger.WithError(err).Warn("failed to close connection")
			}
		}()

		reports, err := suite.NewRunner(Logger, client).Run(context.Background(), s)

		for _, report := range reports {
			printReport(report)
		}

		if err != nil {
			var failure *check.FailureError
			if errors.As(err, &failure) {
				return fmt.Errorf("check suite failed:\n%w", err)
			}
			return err
		}

		fmt.Printf("\n✅ All %d checks passed\n", countResults(reports))
		return nil
	},
}

func printReport(report *check.Report) {
	for _, res := range report.Results {
		marker := "✅"
		if !res.Passed {
			marker = "❌"
		}
		fmt.Printf("%s %s\n", marker, res.Detail)
	}
}

func countResults(reports []*check.Report) int {
	total := 0
	for _, r := range reports {
		total += len(r.Results)
	}
	return total
}

func init() {
	rootCmd.AddCommand(runCmd)
}
