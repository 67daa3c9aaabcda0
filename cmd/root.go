package cmd

import (
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "elig",
		Short:         "Eligibility CLI (elig): check insurance eligibility and in-network providers",
		Long:          "elig runs soft in-network checks and hard insurance eligibility checks against the eligibility API, manages saved session profiles and stores API keys per environment.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		if cmd.Flags().Changed("log-level") {
			return app.logger.SetLevel(logLevel)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, _ []string) error {
		return app.close(cmd.Context())
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newSoftCmd(app),
		newHardCmd(app),
		newProfileCmd(app),
		newAuthCmd(app),
	)

	return rootCmd
}
