package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/eligibility-cli/internal/adapters/render/outcome"
	"github.com/bnema/eligibility-cli/internal/application"
	"github.com/bnema/eligibility-cli/internal/domain"
)

type hardFlags struct {
	payerID            string
	state              string
	firstName          string
	lastName           string
	dateOfBirth        string
	memberID           string
	policyID           string
	categories         []string
	merge              string
	estimate           string
	date               string
	optimistic         bool
	policyTimeout      time.Duration
	eligibilityTimeout time.Duration
	pollInterval       time.Duration
	diagnosisCodes     []string
	procedureCodes     []string
	profileName        string
	output             outputFlags
}

func newHardCmd(app *app) *cobra.Command {
	var flags hardFlags

	cmd := &cobra.Command{
		Use:   "hard",
		Short: "Check a patient's insurance eligibility and estimated cost",
		Long:  "hard resolves the patient's insurance policy (or uses --policy-id), checks service eligibility for each category and prints the merged providers and the estimated patient responsibility.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHard(cmd, app, flags)
		},
	}

	cmd.Flags().StringVar(&flags.payerID, "payer", "", "Payer ID")
	cmd.Flags().StringVar(&flags.state, "state", "", "US state or territory code")
	cmd.Flags().StringVar(&flags.firstName, "first-name", "", "Patient first name")
	cmd.Flags().StringVar(&flags.lastName, "last-name", "", "Patient last name")
	cmd.Flags().StringVar(&flags.dateOfBirth, "dob", "", "Patient date of birth (YYYY-MM-DD)")
	cmd.Flags().StringVar(&flags.memberID, "member-id", "", "Insurance member ID")
	cmd.Flags().StringVar(&flags.policyID, "policy-id", "", "Existing confirmed policy ID (skips identity lookup)")
	cmd.Flags().StringSliceVar(&flags.categories, "category", nil, "Service category ID (repeatable)")
	cmd.Flags().StringVar(&flags.merge, "merge", "", "Provider merge strategy (union|intersection)")
	cmd.Flags().StringVar(&flags.estimate, "estimate", "", "Estimate selection (highest|lowest|service-type:ID)")
	cmd.Flags().StringVar(&flags.date, "date", "", "Date of service (YYYY-MM-DD, default today)")
	cmd.Flags().BoolVar(&flags.optimistic, "optimistic", false, "Race a soft in-network check against policy resolution")
	cmd.Flags().DurationVar(&flags.policyTimeout, "policy-timeout", 0, "Policy resolution timeout (default 20s)")
	cmd.Flags().DurationVar(&flags.eligibilityTimeout, "eligibility-timeout", 0, "Per-category eligibility timeout (default 20s)")
	cmd.Flags().DurationVar(&flags.pollInterval, "poll-interval", 0, "Polling interval (default 1s)")
	cmd.Flags().StringSliceVar(&flags.diagnosisCodes, "diagnosis-code", nil, "Diagnosis code (repeatable)")
	cmd.Flags().StringSliceVar(&flags.procedureCodes, "procedure-code", nil, "Procedure code (repeatable)")
	cmd.Flags().StringVar(&flags.profileName, "profile", "", "Saved profile to start from")
	flags.output.register(cmd)

	return cmd
}

func runHard(cmd *cobra.Command, app *app, flags hardFlags) error {
	ctx := cmd.Context()

	cfg := application.HardSessionConfig{}
	submission := application.HardSubmission{PayerID: flags.payerID, State: domain.USState(flags.state)}
	if flags.profileName != "" {
		profile, err := app.profiles.Profile(ctx, flags.profileName)
		if err != nil {
			return err
		}
		cfg = application.HardConfigFromProfile(profile)
		if submission.PayerID == "" {
			submission.PayerID = profile.PayerID
		}
		if submission.State == "" {
			submission.State = profile.State
		}
	}

	if err := applyHardFlags(cmd, flags, &cfg); err != nil {
		return err
	}

	patient, err := patientFromFlags(flags)
	if err != nil {
		return err
	}
	submission.Patient = patient
	if len(flags.diagnosisCodes) > 0 || len(flags.procedureCodes) > 0 {
		submission.ClinicalInfo = &domain.ClinicalInfo{
			DiagnosisCodes: flags.diagnosisCodes,
			ProcedureCodes: flags.procedureCodes,
		}
	}

	service, err := app.eligibilityService(ctx)
	if err != nil {
		return err
	}
	session, err := service.NewHardSession(cfg)
	if err != nil {
		return err
	}

	var state application.HardSessionState
	submit := func(ctx context.Context) error {
		var submitErr error
		state, submitErr = session.Submit(ctx, submission)
		return submitErr
	}
	subscribe := func(report func(string)) func() {
		return session.OnUpdate(func(s application.HardSessionState) {
			report(string(s.Status))
		})
	}

	if flags.output.showProgress() {
		err = runWithProgress(ctx, cmd.ErrOrStderr(), "Checking insurance eligibility...", subscribe, submit)
	} else {
		err = submit(ctx)
	}
	if err != nil {
		return fmt.Errorf("submit hard check: %w", err)
	}

	return writeOutcome(cmd, app, outcome.FromHard(session.ID(), state), flags.output)
}

// applyHardFlags layers explicitly set flags over the profile config.
func applyHardFlags(cmd *cobra.Command, flags hardFlags, cfg *application.HardSessionConfig) error {
	changed := cmd.Flags().Changed

	if changed("category") {
		cfg.ServiceCategoryIDs = parseCategories(flags.categories)
	}
	if changed("merge") {
		strategy, err := domain.ParseMergeStrategy(flags.merge)
		if err != nil {
			return err
		}
		cfg.MergeStrategy = strategy
	}
	if changed("estimate") {
		selection, err := domain.ParseEstimateSelection(flags.estimate)
		if err != nil {
			return err
		}
		cfg.EstimateSelection = selection
	}
	if flags.date != "" {
		day, err := domain.ParseDate(flags.date)
		if err != nil {
			return err
		}
		cfg.DateOfService = day
	}
	if changed("optimistic") {
		cfg.OptimisticSoftCheck = flags.optimistic
	}
	if changed("policy-timeout") {
		cfg.PolicyTimeout = flags.policyTimeout
	}
	if changed("eligibility-timeout") {
		cfg.EligibilityTimeout = flags.eligibilityTimeout
	}
	if changed("poll-interval") {
		cfg.PollingInterval = flags.pollInterval
	}
	cfg.PolicyID = flags.policyID

	return nil
}

func patientFromFlags(flags hardFlags) (*application.Patient, error) {
	if flags.firstName == "" && flags.lastName == "" && flags.dateOfBirth == "" && flags.memberID == "" {
		return nil, nil
	}

	patient := &application.Patient{
		FirstName: flags.firstName,
		LastName:  flags.lastName,
		MemberID:  flags.memberID,
	}
	if flags.dateOfBirth != "" {
		dob, err := domain.ParseDate(flags.dateOfBirth)
		if err != nil {
			return nil, fmt.Errorf("parse date of birth: %w", err)
		}
		patient.DateOfBirth = dob
	}
	return patient, nil
}
