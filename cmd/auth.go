package cmd

import (
	"github.com/spf13/cobra"
)

func newAuthCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage eligibility API keys",
	}

	cmd.AddCommand(newAuthSetKeyCmd(app), newAuthRemoveKeyCmd(app))

	return cmd
}

func newAuthSetKeyCmd(app *app) *cobra.Command {
	var environment string
	var apiKey string

	cmd := &cobra.Command{
		Use:   "set-key",
		Short: "Store the API key for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.profiles.SetAPIKey(cmd.Context(), resolveEnvironment(app, environment), apiKey)
		},
	}

	cmd.Flags().StringVar(&environment, "env", "", "Environment name (default from api.environment)")
	cmd.Flags().StringVar(&apiKey, "key", "", "API key")
	_ = cmd.MarkFlagRequired("key")

	return cmd
}

func newAuthRemoveKeyCmd(app *app) *cobra.Command {
	var environment string

	cmd := &cobra.Command{
		Use:   "remove-key",
		Short: "Remove the stored API key for an environment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.profiles.RemoveAPIKey(cmd.Context(), resolveEnvironment(app, environment))
		},
	}

	cmd.Flags().StringVar(&environment, "env", "", "Environment name (default from api.environment)")

	return cmd
}

func resolveEnvironment(app *app, environment string) string {
	if environment != "" {
		return environment
	}
	return app.environment
}
