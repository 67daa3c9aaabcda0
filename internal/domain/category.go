package domain

import (
	"fmt"
	"strings"
)

type ServiceCategoryID string

// MergeStrategy decides how results of several service categories combine.
// UNION needs one eligible category and pools its providers; INTERSECTION
// needs every category eligible and keeps providers common to all of them.
type MergeStrategy string

const (
	MergeUnion        MergeStrategy = "UNION"
	MergeIntersection MergeStrategy = "INTERSECTION"
)

func (m MergeStrategy) Valid() bool {
	switch m {
	case MergeUnion, MergeIntersection:
		return true
	default:
		return false
	}
}

func ParseMergeStrategy(raw string) (MergeStrategy, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "", string(MergeUnion):
		return MergeUnion, nil
	case string(MergeIntersection):
		return MergeIntersection, nil
	default:
		return "", fmt.Errorf("unsupported merge strategy %q", raw)
	}
}

type EstimateMode string

const (
	EstimateHighest     EstimateMode = "HIGHEST"
	EstimateLowest      EstimateMode = "LOWEST"
	EstimateServiceType EstimateMode = "SERVICE_TYPE"
)

type EstimateSelection struct {
	Mode              EstimateMode      `json:"mode" toml:"mode"`
	ServiceCategoryID ServiceCategoryID `json:"serviceCategoryId,omitempty" toml:"service_category_id,omitempty"`
}

func (e EstimateSelection) Validate() error {
	switch e.Mode {
	case EstimateHighest, EstimateLowest:
		return nil
	case EstimateServiceType:
		if strings.TrimSpace(string(e.ServiceCategoryID)) == "" {
			return fmt.Errorf("estimate selection %s requires a service category id", e.Mode)
		}
		return nil
	default:
		return fmt.Errorf("unsupported estimate selection mode %q", e.Mode)
	}
}

func (e EstimateSelection) String() string {
	if e.Mode == EstimateServiceType {
		return fmt.Sprintf("service-type:%s", e.ServiceCategoryID)
	}
	return strings.ToLower(string(e.Mode))
}

// ParseEstimateSelection accepts "highest", "lowest" or "service-type:<id>".
func ParseEstimateSelection(raw string) (EstimateSelection, error) {
	trimmed := strings.TrimSpace(raw)
	mode, id, _ := strings.Cut(trimmed, ":")
	switch strings.ToLower(strings.ReplaceAll(mode, "_", "-")) {
	case "", "highest":
		return EstimateSelection{Mode: EstimateHighest}, nil
	case "lowest":
		return EstimateSelection{Mode: EstimateLowest}, nil
	case "service-type":
		selection := EstimateSelection{Mode: EstimateServiceType, ServiceCategoryID: ServiceCategoryID(strings.TrimSpace(id))}
		if err := selection.Validate(); err != nil {
			return EstimateSelection{}, err
		}
		return selection, nil
	default:
		return EstimateSelection{}, fmt.Errorf("unsupported estimate selection %q", raw)
	}
}

// NormalizeCategories trims ids and drops empties and repeats, keeping the
// first occurrence order.
func NormalizeCategories(ids []ServiceCategoryID) []ServiceCategoryID {
	normalized := make([]ServiceCategoryID, 0, len(ids))
	seen := make(map[ServiceCategoryID]struct{}, len(ids))
	for _, id := range ids {
		trimmed := ServiceCategoryID(strings.TrimSpace(string(id)))
		if trimmed == "" {
			continue
		}
		if _, ok := seen[trimmed]; ok {
			continue
		}
		seen[trimmed] = struct{}{}
		normalized = append(normalized, trimmed)
	}

	return normalized
}
