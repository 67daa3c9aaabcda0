package toml

import "fmt"

const currentSchemaVersion = 1

type fileSchema struct {
	Version  int             `toml:"version"`
	Profiles []profileSchema `toml:"profiles"`
}

func (s *fileSchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s fileSchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported profiles schema version %d (current %d)", s.Version, currentSchemaVersion)
	}

	return nil
}

type profileSchema struct {
	Name                string         `toml:"name"`
	ServiceCategoryIDs  []string       `toml:"service_category_ids"`
	MergeStrategy       string         `toml:"merge_strategy,omitempty"`
	Estimate            estimateSchema `toml:"estimate,omitempty"`
	PayerID             string         `toml:"payer_id,omitempty"`
	State               string         `toml:"state,omitempty"`
	Timeouts            timeoutsSchema `toml:"timeouts,omitempty"`
	OptimisticSoftCheck bool           `toml:"optimistic_soft_check,omitempty"`
	UpdatedAt           string         `toml:"updated_at,omitempty"`
}

type estimateSchema struct {
	Mode              string `toml:"mode,omitempty"`
	ServiceCategoryID string `toml:"service_category_id,omitempty"`
}

// Durations are stored in Go duration syntax ("20s", "1m30s").
type timeoutsSchema struct {
	Policy          string `toml:"policy,omitempty"`
	Eligibility     string `toml:"eligibility,omitempty"`
	PollingInterval string `toml:"polling_interval,omitempty"`
}
