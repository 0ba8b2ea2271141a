package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/baflo/kanbn-sub002/internal/clierr"
	"github.com/baflo/kanbn-sub002/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the index and task documents for errors",
	Long: `Decodes the index and every task document and reports each one that
fails. Exits with status 1 when any problem is found.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	r, err := openRepo()
	if err != nil {
		return err
	}

	problems, err := r.Validate()
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		if err := output.JSON(os.Stdout, map[string]any{
			"valid":    len(problems) == 0,
			"problems": problems,
		}); err != nil {
			return err
		}
	} else {
		output.ProblemsTable(os.Stdout, problems)
	}

	if len(problems) > 0 {
		return &clierr.SilentError{Code: 1}
	}
	return nil
}
