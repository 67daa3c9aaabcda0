package domain

type IneligibilityCode string

const (
	// IneligibilityDenied carries a payer denial message verbatim.
	IneligibilityDenied IneligibilityCode = "DENIED"
	// IneligibilityProviders means the plan is active but no usable
	// providers are enrolled for it.
	IneligibilityProviders IneligibilityCode = "PROVIDERS"
	// IneligibilityOutOfNetwork is reported by soft checks and the
	// optimistic short circuit of the hard flow.
	IneligibilityOutOfNetwork IneligibilityCode = "OUT_OF_NETWORK"
)

type IneligibilityReason struct {
	Code    IneligibilityCode `json:"code"`
	Message string            `json:"message"`
}

func NoProvidersReason() IneligibilityReason {
	return IneligibilityReason{Code: IneligibilityProviders, Message: MessageNoProviders}
}

func OutOfNetworkReason() IneligibilityReason {
	return IneligibilityReason{Code: IneligibilityOutOfNetwork, Message: MessageNoProviders}
}

// ClassifyIneligibility derives one reason from a set of terminal results of
// which at least one is INELIGIBLE.
func ClassifyIneligibility(results []Eligibility) (IneligibilityReason, error) {
	ineligible := make([]Eligibility, 0, len(results))
	for _, result := range results {
		if result.Status == EligibilityIneligible {
			ineligible = append(ineligible, result)
		}
	}
	if len(ineligible) == 0 {
		return IneligibilityReason{}, ErrNoIneligibleResults
	}

	for _, result := range ineligible {
		for _, message := range result.Messages {
			if message != "" {
				return IneligibilityReason{Code: IneligibilityDenied, Message: message}, nil
			}
		}
	}

	for _, result := range ineligible {
		if len(result.Providers) > 0 {
			return IneligibilityReason{}, ErrInconsistentIneligibility
		}
	}

	return NoProvidersReason(), nil
}
