package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/bnema/eligibility-cli/internal/domain"
)

func newProfileCmd(app *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage saved session profiles",
	}

	cmd.AddCommand(
		newProfileSaveCmd(app),
		newProfileListCmd(app),
		newProfileShowCmd(app),
		newProfileDeleteCmd(app),
	)

	return cmd
}

func newProfileSaveCmd(app *app) *cobra.Command {
	var categories []string
	var merge string
	var estimate string
	var payerID string
	var state string
	var policyTimeout time.Duration
	var eligibilityTimeout time.Duration
	var pollInterval time.Duration
	var optimistic bool

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Create or replace a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			strategy, err := domain.ParseMergeStrategy(merge)
			if err != nil {
				return err
			}
			selection, err := domain.ParseEstimateSelection(estimate)
			if err != nil {
				return err
			}

			saved, err := app.profiles.SaveProfile(cmd.Context(), domain.Profile{
				Name:                args[0],
				ServiceCategoryIDs:  parseCategories(categories),
				MergeStrategy:       strategy,
				EstimateSelection:   selection,
				PayerID:             payerID,
				State:               domain.USState(state),
				PolicyTimeout:       policyTimeout,
				EligibilityTimeout:  eligibilityTimeout,
				PollingInterval:     pollInterval,
				OptimisticSoftCheck: optimistic,
			})
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "saved profile %s\n", saved.Name)
			return err
		},
	}

	cmd.Flags().StringSliceVar(&categories, "category", nil, "Service category ID (repeatable)")
	cmd.Flags().StringVar(&merge, "merge", "", "Provider merge strategy (union|intersection)")
	cmd.Flags().StringVar(&estimate, "estimate", "", "Estimate selection (highest|lowest|service-type:ID)")
	cmd.Flags().StringVar(&payerID, "payer", "", "Default payer ID")
	cmd.Flags().StringVar(&state, "state", "", "Default US state or territory code")
	cmd.Flags().DurationVar(&policyTimeout, "policy-timeout", 0, "Policy resolution timeout")
	cmd.Flags().DurationVar(&eligibilityTimeout, "eligibility-timeout", 0, "Per-category eligibility timeout")
	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 0, "Polling interval")
	cmd.Flags().BoolVar(&optimistic, "optimistic", false, "Race a soft in-network check against policy resolution")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func newProfileListCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			profiles, err := app.profiles.Profiles(cmd.Context())
			if err != nil {
				return err
			}

			for _, profile := range profiles {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n",
					profile.Name,
					strings.Join(categoryNames(profile.ServiceCategoryIDs), ","),
					profile.MergeStrategy,
				)
			}

			return nil
		},
	}
}

type profileView struct {
	Name                string                     `json:"name"`
	ServiceCategoryIDs  []domain.ServiceCategoryID `json:"serviceCategoryIds"`
	MergeStrategy       domain.MergeStrategy       `json:"mergeStrategy"`
	EstimateSelection   domain.EstimateSelection   `json:"estimateSelection"`
	PayerID             string                     `json:"payerId,omitempty"`
	State               domain.USState             `json:"state,omitempty"`
	PolicyTimeout       string                     `json:"policyTimeout,omitempty"`
	EligibilityTimeout  string                     `json:"eligibilityTimeout,omitempty"`
	PollingInterval     string                     `json:"pollingInterval,omitempty"`
	OptimisticSoftCheck bool                       `json:"optimisticSoftCheck"`
	UpdatedAt           time.Time                  `json:"updatedAt"`
}

func newProfileView(profile domain.Profile) profileView {
	return profileView{
		Name:                profile.Name,
		ServiceCategoryIDs:  profile.ServiceCategoryIDs,
		MergeStrategy:       profile.MergeStrategy,
		EstimateSelection:   profile.EstimateSelection,
		PayerID:             profile.PayerID,
		State:               profile.State,
		PolicyTimeout:       durationString(profile.PolicyTimeout),
		EligibilityTimeout:  durationString(profile.EligibilityTimeout),
		PollingInterval:     durationString(profile.PollingInterval),
		OptimisticSoftCheck: profile.OptimisticSoftCheck,
		UpdatedAt:           profile.UpdatedAt,
	}
}

func newProfileShowCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show NAME",
		Short: "Show a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			profile, err := app.profiles.Profile(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			view := newProfileView(profile)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(view)
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "name: %s\n", view.Name)
			_, _ = fmt.Fprintf(out, "categories: %s\n", strings.Join(categoryNames(view.ServiceCategoryIDs), ", "))
			_, _ = fmt.Fprintf(out, "merge: %s\n", view.MergeStrategy)
			_, _ = fmt.Fprintf(out, "estimate: %s\n", view.EstimateSelection)
			if view.PayerID != "" {
				_, _ = fmt.Fprintf(out, "payer: %s\n", view.PayerID)
			}
			if view.State != "" {
				_, _ = fmt.Fprintf(out, "state: %s\n", view.State)
			}
			if view.PolicyTimeout != "" {
				_, _ = fmt.Fprintf(out, "policy timeout: %s\n", view.PolicyTimeout)
			}
			if view.EligibilityTimeout != "" {
				_, _ = fmt.Fprintf(out, "eligibility timeout: %s\n", view.EligibilityTimeout)
			}
			if view.PollingInterval != "" {
				_, _ = fmt.Fprintf(out, "poll interval: %s\n", view.PollingInterval)
			}
			_, err = fmt.Fprintf(out, "optimistic: %t\n", view.OptimisticSoftCheck)
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render JSON output")

	return cmd
}

func newProfileDeleteCmd(app *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a saved profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.profiles.DeleteProfile(cmd.Context(), args[0])
		},
	}
}

func categoryNames(ids []domain.ServiceCategoryID) []string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return names
}

func durationString(value time.Duration) string {
	if value == 0 {
		return ""
	}
	return value.String()
}
