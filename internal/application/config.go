package application

import (
	"fmt"
	"time"

	"github.com/bnema/eligibility-cli/internal/domain"
)

type SoftSessionConfig struct {
	ServiceCategoryIDs []domain.ServiceCategoryID
	MergeStrategy      domain.MergeStrategy
	// DateOfService defaults to the current day at submit time.
	DateOfService domain.Date
}

func (c SoftSessionConfig) normalize() (SoftSessionConfig, error) {
	c.ServiceCategoryIDs = domain.NormalizeCategories(c.ServiceCategoryIDs)
	if len(c.ServiceCategoryIDs) == 0 {
		return SoftSessionConfig{}, domain.ErrServiceCategoryRequired
	}
	if c.MergeStrategy == "" {
		c.MergeStrategy = domain.MergeUnion
	}
	if !c.MergeStrategy.Valid() {
		return SoftSessionConfig{}, fmt.Errorf("%w: merge strategy %q", domain.ErrInvalidSessionConfig, c.MergeStrategy)
	}
	return c, nil
}

type HardSessionConfig struct {
	ServiceCategoryIDs []domain.ServiceCategoryID
	MergeStrategy      domain.MergeStrategy
	EstimateSelection  domain.EstimateSelection
	DateOfService      domain.Date

	// PolicyID skips identity resolution and checks eligibility against an
	// already confirmed policy.
	PolicyID string

	PolicyTimeout      time.Duration
	EligibilityTimeout time.Duration
	PollingInterval    time.Duration
	ReconnectBackoff   time.Duration

	// OptimisticSoftCheck races a soft check against policy resolution so
	// out-of-network plans are reported without waiting for the payer.
	OptimisticSoftCheck bool
}

func (c HardSessionConfig) normalize() (HardSessionConfig, error) {
	c.ServiceCategoryIDs = domain.NormalizeCategories(c.ServiceCategoryIDs)
	if len(c.ServiceCategoryIDs) == 0 {
		return HardSessionConfig{}, domain.ErrServiceCategoryRequired
	}
	if c.MergeStrategy == "" {
		c.MergeStrategy = domain.MergeUnion
	}
	if !c.MergeStrategy.Valid() {
		return HardSessionConfig{}, fmt.Errorf("%w: merge strategy %q", domain.ErrInvalidSessionConfig, c.MergeStrategy)
	}
	if c.EstimateSelection.Mode == "" {
		c.EstimateSelection = domain.EstimateSelection{Mode: domain.EstimateHighest}
	}
	if err := c.EstimateSelection.Validate(); err != nil {
		return HardSessionConfig{}, fmt.Errorf("%w: %v", domain.ErrInvalidSessionConfig, err)
	}
	if c.PolicyTimeout < 0 || c.EligibilityTimeout < 0 || c.PollingInterval < 0 || c.ReconnectBackoff < 0 {
		return HardSessionConfig{}, fmt.Errorf("%w: durations must not be negative", domain.ErrInvalidSessionConfig)
	}
	if c.PolicyTimeout == 0 {
		c.PolicyTimeout = DefaultResolveTimeout
	}
	if c.EligibilityTimeout == 0 {
		c.EligibilityTimeout = DefaultResolveTimeout
	}
	if c.PollingInterval == 0 {
		c.PollingInterval = DefaultPollInterval
	}
	if c.ReconnectBackoff == 0 {
		c.ReconnectBackoff = DefaultReconnectBackoff
	}
	return c, nil
}

func dateOfService(configured domain.Date, now time.Time) domain.Date {
	if configured.IsZero() {
		return domain.DateOf(now)
	}
	return configured
}
