package outcome

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bnema/eligibility-cli/internal/domain"
)

type RenderOptions struct {
	// MaxProviders caps the provider list; zero shows all.
	MaxProviders int
}

func renderView(out Outcome, opts RenderOptions, s styles) string {
	lines := []string{
		s.title.Render(title(out.Kind)),
		s.header.Render(fmt.Sprintf("session: %s  attempts: %d", out.SessionID, out.Submissions)),
		statusLine(out, s),
	}

	if out.Error != nil {
		lines = append(lines, s.failure.Render(fmt.Sprintf("%s: %s", out.Error.Code, out.Error.Message)))
	}
	if hint := nextActionHint(out.NextAction); hint != "" {
		lines = append(lines, s.hint.Render(hint))
	}
	if out.IneligibilityReason != nil {
		lines = append(lines, s.detail.Render(fmt.Sprintf("reason: %s (%s)", out.IneligibilityReason.Message, out.IneligibilityReason.Code)))
	}
	if out.Policy != nil {
		lines = append(lines, s.label.Render("policy: ")+s.detail.Render(fmt.Sprintf("%s %s", out.Policy.ID, out.Policy.Status)))
	}

	if len(out.Categories) > 0 {
		lines = append(lines, s.section.Render(renderCategories(out.Categories, s)))
	}
	if out.Estimate != nil {
		lines = append(lines, s.section.Render(renderEstimate(*out.Estimate, s)))
	}
	if out.Terminal && out.Status == "ELIGIBLE" {
		lines = append(lines, s.section.Render(renderProviders(out.Providers, opts, s)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func title(kind Kind) string {
	if kind == KindHard {
		return "Insurance Eligibility"
	}
	return "In-Network Check"
}

func statusLine(out Outcome, s styles) string {
	style := s.pending
	switch {
	case out.Status == "ELIGIBLE":
		style = s.eligible
	case out.Status == "INELIGIBLE":
		style = s.ineligible
	case out.Terminal:
		style = s.failure
	}
	return s.label.Render("status: ") + style.Render(out.Status)
}

func nextActionHint(action string) string {
	switch action {
	case "RETRY":
		return "retry the same request"
	case "INPUT":
		return "check the patient details and submit again"
	case "INPUT_MEMBER_ID":
		return "add the member id (--member-id) and submit again"
	default:
		return ""
	}
}

func renderCategories(categories []CategorySummary, s styles) string {
	parts := []string{s.title.Render("Service categories")}
	for _, category := range categories {
		line := fmt.Sprintf("%s: %s, %d provider(s)", category.ServiceCategoryID, category.Status, category.Providers)
		if len(category.Messages) > 0 {
			line += " - " + strings.Join(category.Messages, "; ")
		}
		parts = append(parts, s.detail.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderEstimate(estimate domain.Estimate, s styles) string {
	primary := estimate.Primary
	parts := []string{
		s.title.Render("Estimated patient responsibility"),
		s.label.Render("category: ") + s.detail.Render(string(estimate.ServiceCategoryID)),
		s.label.Render("total: ") + s.detail.Render(formatMoney(primary.Total, primary.Currency)),
	}
	if primary.Copay != 0 || primary.Coinsurance != 0 || primary.Deductible != 0 {
		parts = append(parts, s.detail.Render(fmt.Sprintf("copay %s, coinsurance %s, deductible %s",
			formatMoney(primary.Copay, primary.Currency),
			formatMoney(primary.Coinsurance, primary.Currency),
			formatMoney(primary.Deductible, primary.Currency))))
	}
	if estimate.Conditional != nil {
		conditional := estimate.Conditional
		line := "alternative: " + formatMoney(conditional.Total, conditional.Currency)
		if len(conditional.Conditions) > 0 {
			line += " when " + strings.Join(conditional.Conditions, ", ")
		}
		parts = append(parts, s.hint.Render(line))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderProviders(providers []domain.ResolvedProvider, opts RenderOptions, s styles) string {
	parts := []string{s.title.Render(fmt.Sprintf("Providers (%d)", len(providers)))}
	if len(providers) == 0 {
		parts = append(parts, s.empty.Render("No providers available."))
		return lipgloss.JoinVertical(lipgloss.Left, parts...)
	}

	shown := providers
	if opts.MaxProviders > 0 && len(shown) > opts.MaxProviders {
		shown = shown[:opts.MaxProviders]
	}
	for _, provider := range shown {
		categories := make([]string, len(provider.ServiceCategoryIDs))
		for i, id := range provider.ServiceCategoryIDs {
			categories[i] = string(id)
		}
		line := s.provider.Render(providerName(provider.Provider))
		if provider.NPI != "" {
			line += " " + s.header.Render("NPI "+provider.NPI)
		}
		line += " " + s.detail.Render("["+strings.Join(categories, ", ")+"]")
		parts = append(parts, line)
	}
	if hidden := len(providers) - len(shown); hidden > 0 {
		parts = append(parts, s.empty.Render(fmt.Sprintf("... and %d more", hidden)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func providerName(provider domain.Provider) string {
	if name := strings.TrimSpace(provider.Name); name != "" {
		return name
	}
	return provider.ID
}

// formatMoney prints minor units. USD gets a dollar sign; other currencies
// keep their code as a suffix.
func formatMoney(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	value := fmt.Sprintf("%d.%02d", amount/100, amount%100)

	switch strings.ToUpper(currency) {
	case "", "USD":
		return sign + "$" + value
	default:
		return sign + value + " " + strings.ToUpper(currency)
	}
}
