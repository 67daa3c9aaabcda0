package domain

import (
	"fmt"
	"strings"
	"time"
)

// Profile is a saved session preset: the categories to check and how to
// combine them, plus the payer and jurisdiction most often used with them.
type Profile struct {
	Name                string
	ServiceCategoryIDs  []ServiceCategoryID
	MergeStrategy       MergeStrategy
	EstimateSelection   EstimateSelection
	PayerID             string
	State               USState
	PolicyTimeout       time.Duration
	EligibilityTimeout  time.Duration
	PollingInterval     time.Duration
	OptimisticSoftCheck bool
	UpdatedAt           time.Time
}

// Normalize trims fields and fills the merge strategy and estimate selection
// defaults.
func (p Profile) Normalize() Profile {
	p.Name = strings.TrimSpace(p.Name)
	p.PayerID = strings.TrimSpace(p.PayerID)
	p.State = ParseUSState(string(p.State))
	p.ServiceCategoryIDs = NormalizeCategories(p.ServiceCategoryIDs)
	if p.MergeStrategy == "" {
		p.MergeStrategy = MergeUnion
	}
	if p.EstimateSelection.Mode == "" {
		p.EstimateSelection = EstimateSelection{Mode: EstimateHighest}
	}
	return p
}

func (p Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: profile name is required", ErrInvalidSessionConfig)
	}
	if len(NormalizeCategories(p.ServiceCategoryIDs)) == 0 {
		return ErrServiceCategoryRequired
	}
	if p.MergeStrategy != "" && !p.MergeStrategy.Valid() {
		return fmt.Errorf("%w: merge strategy %q", ErrInvalidSessionConfig, p.MergeStrategy)
	}
	if p.EstimateSelection.Mode != "" {
		if err := p.EstimateSelection.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidSessionConfig, err)
		}
	}
	if state := ParseUSState(string(p.State)); state != "" && !state.Valid() {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidSessionConfig, p.State)
	}
	if p.PolicyTimeout < 0 || p.EligibilityTimeout < 0 || p.PollingInterval < 0 {
		return fmt.Errorf("%w: durations must not be negative", ErrInvalidSessionConfig)
	}
	return nil
}
