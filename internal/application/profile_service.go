package application

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

const DefaultEnvironment = "production"

// ProfileService manages saved session presets and the API keys used to
// reach the eligibility API.
type ProfileService struct {
	repo  ports.ProfileRepository
	store ports.CredentialStore
	clock ports.Clock
}

func NewProfileService(repo ports.ProfileRepository, store ports.CredentialStore, clock ports.Clock) *ProfileService {
	if clock == nil {
		clock = ports.SystemClock{}
	}

	return &ProfileService{
		repo:  repo,
		store: store,
		clock: clock,
	}
}

func (s *ProfileService) SaveProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	if err := profile.Validate(); err != nil {
		return domain.Profile{}, err
	}
	profile = profile.Normalize()
	profile.UpdatedAt = s.clock.Now().UTC()

	if err := s.repo.Save(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("save profile: %w", err)
	}
	return profile, nil
}

func (s *ProfileService) Profile(ctx context.Context, name string) (domain.Profile, error) {
	profile, err := s.repo.GetByName(ctx, strings.TrimSpace(name))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile by name: %w", err)
	}
	return profile, nil
}

// Profiles lists saved profiles sorted by name.
func (s *ProfileService) Profiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	slices.SortFunc(profiles, func(a, b domain.Profile) int {
		return strings.Compare(a.Name, b.Name)
	})
	return profiles, nil
}

func (s *ProfileService) DeleteProfile(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, strings.TrimSpace(name)); err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

func APIKeyRef(environment string) string {
	environment = strings.TrimSpace(environment)
	if environment == "" {
		environment = DefaultEnvironment
	}
	return environment + "/api_key"
}

func (s *ProfileService) SetAPIKey(ctx context.Context, environment, apiKey string) error {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return domain.ErrAPIKeyRequired
	}
	if err := s.store.Put(ctx, APIKeyRef(environment), apiKey); err != nil {
		return fmt.Errorf("store api key: %w", err)
	}
	return nil
}

// RemoveAPIKey deletes the stored key. Removing a key that was never stored
// is not an error.
func (s *ProfileService) RemoveAPIKey(ctx context.Context, environment string) error {
	if err := s.store.Delete(ctx, APIKeyRef(environment)); err != nil && !errors.Is(err, domain.ErrCredentialNotFound) {
		return fmt.Errorf("delete api key: %w", err)
	}
	return nil
}

func (s *ProfileService) APIKey(ctx context.Context, environment string) (string, error) {
	apiKey, err := s.store.Get(ctx, APIKeyRef(environment))
	if err != nil {
		return "", fmt.Errorf("get api key: %w", err)
	}
	return apiKey, nil
}

func SoftConfigFromProfile(profile domain.Profile) SoftSessionConfig {
	return SoftSessionConfig{
		ServiceCategoryIDs: slices.Clone(profile.ServiceCategoryIDs),
		MergeStrategy:      profile.MergeStrategy,
	}
}

func HardConfigFromProfile(profile domain.Profile) HardSessionConfig {
	return HardSessionConfig{
		ServiceCategoryIDs:  slices.Clone(profile.ServiceCategoryIDs),
		MergeStrategy:       profile.MergeStrategy,
		EstimateSelection:   profile.EstimateSelection,
		PolicyTimeout:       profile.PolicyTimeout,
		EligibilityTimeout:  profile.EligibilityTimeout,
		PollingInterval:     profile.PollingInterval,
		OptimisticSoftCheck: profile.OptimisticSoftCheck,
	}
}
