package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/datadrift/sqlsentinel/internal/branch"
	"github.com/datadrift/sqlsentinel/internal/config"
	"github.com/datadrift/sqlsentinel/internal/executor"
	"github.com/datadrift/sqlsentinel/internal/suite"
)

var branchCmd = &cobra.Command{
	Use:   "branch [suite file]",
	Short: "Evaluate a suite's branch decision",
	Long: `Evaluate the branch block of a suite file: run its query, interpret
the result as a boolean, and print which follow identifiers are selected
and which are to be skipped.

Example:
  sqlsentinel branch checks.yaml`,
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

		if s.Branch == nil {
			return fmt.Errorf("suite %s declares no branch block", args[0])
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

		decision, err := branch.NewDecider(Logger, client).Decide(
			context.Background(), s.Branch.SQL, s.Branch.FollowIfTrue, s.Branch.FollowIfFalse)
		if err != nil {
			return fmt.Errorf("deciding branch: %w", err)
		}

		fmt.Printf("branch value: %t\nfollow: %s\nskip:   %s\n",
			decision.Value,
			strings.Join(decision.Follow, ", "),
			strings.Join(decision.Skip, ", "))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(branchCmd)
}
