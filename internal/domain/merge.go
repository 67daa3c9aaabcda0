package domain

// MergeProviders combines the providers of per-category results. Only
// ELIGIBLE results contribute; each provider records the categories that
// attested it, in first-seen order. Output follows first-seen provider order.
func MergeProviders(results []Eligibility, strategy MergeStrategy) []ResolvedProvider {
	if len(results) == 0 {
		return []ResolvedProvider{}
	}
	if strategy == MergeIntersection && !allEligible(results) {
		return []ResolvedProvider{}
	}

	type accumulated struct {
		provider    ResolvedProvider
		appearances int
	}

	order := make([]string, 0)
	byID := make(map[string]*accumulated)
	eligibleResults := 0
	for _, result := range results {
		if result.Status != EligibilityEligible {
			continue
		}
		eligibleResults++

		seenInResult := make(map[string]struct{}, len(result.Providers))
		for _, provider := range result.Providers {
			if _, dup := seenInResult[provider.ID]; dup {
				continue
			}
			seenInResult[provider.ID] = struct{}{}

			entry, ok := byID[provider.ID]
			if !ok {
				entry = &accumulated{provider: ResolvedProvider{Provider: provider}}
				byID[provider.ID] = entry
				order = append(order, provider.ID)
			}
			entry.appearances++
			if !containsCategory(entry.provider.ServiceCategoryIDs, result.ServiceCategoryID) {
				entry.provider.ServiceCategoryIDs = append(entry.provider.ServiceCategoryIDs, result.ServiceCategoryID)
			}
		}
	}

	out := make([]ResolvedProvider, 0, len(order))
	for _, id := range order {
		entry := byID[id]
		if strategy == MergeIntersection && entry.appearances < eligibleResults {
			continue
		}
		out = append(out, entry.provider)
	}

	return out
}

func allEligible(results []Eligibility) bool {
	for _, result := range results {
		if result.Status != EligibilityEligible {
			return false
		}
	}
	return true
}

func anyIneligible(results []Eligibility) bool {
	for _, result := range results {
		if result.Status == EligibilityIneligible {
			return true
		}
	}
	return false
}

func containsCategory(ids []ServiceCategoryID, id ServiceCategoryID) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IsIneligible applies the attempt-level rule: UNION is ineligible only when
// every category is INELIGIBLE, INTERSECTION as soon as one is.
func IsIneligible(results []Eligibility, strategy MergeStrategy) bool {
	if len(results) == 0 {
		return false
	}
	if strategy == MergeIntersection {
		return anyIneligible(results)
	}
	for _, result := range results {
		if result.Status != EligibilityIneligible {
			return false
		}
	}
	return true
}
