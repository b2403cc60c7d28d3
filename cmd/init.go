package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/datadrift/sqlsentinel/internal/suite"
)

var initCmd = &cobra.Command{
	Use:   "init [output file]",
	Short: "Scaffold a starter check suite",
	Long: `Interactively scaffold a starter suite file with one column check
section and one table check section for a table of your choice.

Example:
  sqlsentinel init checks.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		output := args[0]

		if _, err := os.Stat(output); err == nil {
			return fmt.Errorf("%s already exists, refusing to overwrite", output)
		}

		answers := struct {
			Table  string
			Column string
		}{}

		questions := []*survey.Question{
			{
				Name:     "table",
				Prompt:   &survey.Input{Message: "Table to check:"},
				Validate: survey.Required,
			},
			{
				Name:     "column",
				Prompt:   &survey.Input{Message: "Column for the starter checks:"},
				Validate: survey.Required,
			},
		}

		if err := survey.Ask(questions, &answers); err != nil {
			return fmt.Errorf("prompting: %w", err)
		}

		zero := 0.0
		s := suite.Suite{
			ColumnChecks: []suite.ColumnSection{{
				Table: answers.Table,
				Columns: []suite.ColumnChecks{{
					Column: answers.Column,
					Checks: []suite.ColumnRule{{Name: "null_check", EqualTo: &zero}},
				}},
			}},
			TableChecks: []suite.TableSection{{
				Table: answers.Table,
				Checks: []suite.TableRule{{
					Name:      "row_count_check",
					Statement: "COUNT(*) > 0",
				}},
			}},
		}

		data, err := yaml.Marshal(&s)
		if err != nil {
			return fmt.Errorf("rendering suite: %w", err)
		}

		if err := os.WriteFile(output, data, 0o600); err != nil {
			return fmt.Errorf("writing %s: %w", output, err)
		}

		fmt.Printf("✅ Wrote starter suite to %s\n", output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
