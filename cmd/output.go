package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/eligibility-cli/internal/adapters/render/outcome"
)

type outputFlags struct {
	asJSON       bool
	quiet        bool
	maxProviders int
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "Render JSON output")
	cmd.Flags().BoolVar(&f.quiet, "quiet", false, "Hide the progress spinner")
	cmd.Flags().IntVar(&f.maxProviders, "max-providers", 20, "Maximum providers to list (0 shows all)")
}

func (f outputFlags) showProgress() bool {
	return !f.asJSON && !f.quiet
}

func writeOutcome(cmd *cobra.Command, app *app, out outcome.Outcome, flags outputFlags) error {
	if flags.asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	rendered, err := app.renderOutcome(out, outcome.RenderOptions{MaxProviders: flags.maxProviders})
	if err != nil {
		return fmt.Errorf("render outcome: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}
