package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bnema/eligibility-cli/internal/adapters/render/outcome"
	"github.com/bnema/eligibility-cli/internal/application"
	"github.com/bnema/eligibility-cli/internal/domain"
)

type softFlags struct {
	payerID     string
	state       string
	categories  []string
	merge       string
	date        string
	profileName string
	output      outputFlags
}

func newSoftCmd(app *app) *cobra.Command {
	var flags softFlags

	cmd := &cobra.Command{
		Use:   "soft",
		Short: "Check whether a payer plan has in-network providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSoft(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.payerID, "payer", "", "Payer ID")
	cmd.Flags().StringVar(&flags.state, "state", "", "US state or territory code")
	cmd.Flags().StringSliceVar(&flags.categories, "category", nil, "Service category ID (repeatable)")
	cmd.Flags().StringVar(&flags.merge, "merge", "", "Provider merge strategy (union|intersection)")
	cmd.Flags().StringVar(&flags.date, "date", "", "Date of service (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&flags.profileName, "profile", "", "Saved profile to start from")
	flags.output.register(cmd)

	return cmd
}

func runSoft(cmd *cobra.Command, app *app, flags softFlags) error {
	ctx := cmd.Context()

	cfg := application.SoftSessionConfig{}
	submission := application.SoftSubmission{PayerID: flags.payerID, State: domain.USState(flags.state)}
	if flags.profileName != "" {
		profile, err := app.profiles.Profile(ctx, flags.profileName)
		if err != nil {
			return err
		}
		cfg = application.SoftConfigFromProfile(profile)
		if submission.PayerID == "" {
			submission.PayerID = profile.PayerID
		}
		if submission.State == "" {
			submission.State = profile.State
		}
	}

	if cmd.Flags().Changed("category") {
		cfg.ServiceCategoryIDs = parseCategories(flags.categories)
	}
	if cmd.Flags().Changed("merge") {
		strategy, err := domain.ParseMergeStrategy(flags.merge)
		if err != nil {
			return err
		}
		cfg.MergeStrategy = strategy
	}
	if flags.date != "" {
		day, err := domain.ParseDate(flags.date)
		if err != nil {
			return err
		}
		cfg.DateOfService = day
	}

	service, err := app.eligibilityService(ctx)
	if err != nil {
		return err
	}
	session, err := service.NewSoftSession(cfg)
	if err != nil {
		return err
	}

	var state application.SoftSessionState
	submit := func(ctx context.Context) error {
		var submitErr error
		state, submitErr = session.Submit(ctx, submission)
		return submitErr
	}
	subscribe := func(report func(string)) func() {
		return session.OnUpdate(func(s application.SoftSessionState) {
			report(string(s.Status))
		})
	}

	if flags.output.showProgress() {
		err = runWithProgress(ctx, cmd.ErrOrStderr(), "Checking in-network providers...", subscribe, submit)
	} else {
		err = submit(ctx)
	}
	if err != nil {
		return fmt.Errorf("submit soft check: %w", err)
	}

	return writeOutcome(cmd, app, outcome.FromSoft(session.ID(), state), flags.output)
}

func parseCategories(raw []string) []domain.ServiceCategoryID {
	ids := make([]domain.ServiceCategoryID, 0, len(raw))
	for _, value := range raw {
		ids = append(ids, domain.ServiceCategoryID(value))
	}
	return domain.NormalizeCategories(ids)
}
