package outcome

import (
	"sort"

	"github.com/bnema/eligibility-cli/internal/application"
	"github.com/bnema/eligibility-cli/internal/domain"
)

type Kind string

const (
	KindSoft Kind = "soft"
	KindHard Kind = "hard"
)

// Outcome is the printable summary of a session state, shared by the
// styled and JSON renderers.
type Outcome struct {
	Kind                Kind                        `json:"kind"`
	SessionID           string                      `json:"sessionId"`
	Status              string                      `json:"status"`
	Terminal            bool                        `json:"terminal"`
	Error               *domain.SessionError        `json:"error,omitempty"`
	NextAction          string                      `json:"nextAction,omitempty"`
	IneligibilityReason *domain.IneligibilityReason `json:"ineligibilityReason,omitempty"`
	Policy              *PolicySummary              `json:"policy,omitempty"`
	Categories          []CategorySummary           `json:"categories,omitempty"`
	Providers           []domain.ResolvedProvider   `json:"providers"`
	Estimate            *domain.Estimate            `json:"estimate,omitempty"`
	Submissions         int                         `json:"submissions"`
}

type PolicySummary struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type CategorySummary struct {
	ServiceCategoryID string   `json:"serviceCategoryId"`
	Status            string   `json:"status"`
	Providers         int      `json:"providers"`
	Messages          []string `json:"messages,omitempty"`
}

func FromSoft(sessionID string, state application.SoftSessionState) Outcome {
	return Outcome{
		Kind:                KindSoft,
		SessionID:           sessionID,
		Status:              string(state.Status),
		Terminal:            state.Status.IsTerminal(),
		Error:               state.Error,
		IneligibilityReason: state.IneligibilityReason,
		Categories:          summarizeCategories(state.ProviderEligibility),
		Providers:           nonNilProviders(state.Providers),
		Submissions:         state.Submissions.Count,
	}
}

func FromHard(sessionID string, state application.HardSessionState) Outcome {
	out := Outcome{
		Kind:                KindHard,
		SessionID:           sessionID,
		Status:              string(state.Status),
		Terminal:            state.Status.IsTerminal(),
		Error:               state.Error,
		NextAction:          string(state.NextAction),
		IneligibilityReason: state.IneligibilityReason,
		Categories:          summarizeCategories(state.ServiceEligibility),
		Providers:           nonNilProviders(state.Providers),
		Estimate:            state.Estimate,
		Submissions:         state.Submissions.Count,
	}
	if state.Policy != nil {
		out.Policy = &PolicySummary{ID: state.Policy.ID, Status: string(state.Policy.Status)}
	}
	return out
}

func summarizeCategories(results map[domain.ServiceCategoryID]domain.Eligibility) []CategorySummary {
	if len(results) == 0 {
		return nil
	}

	summaries := make([]CategorySummary, 0, len(results))
	for id, result := range results {
		summaries = append(summaries, CategorySummary{
			ServiceCategoryID: string(id),
			Status:            string(result.Status),
			Providers:         len(result.Providers),
			Messages:          result.Messages,
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ServiceCategoryID < summaries[j].ServiceCategoryID
	})
	return summaries
}

func nonNilProviders(providers []domain.ResolvedProvider) []domain.ResolvedProvider {
	if providers == nil {
		return []domain.ResolvedProvider{}
	}
	return providers
}
