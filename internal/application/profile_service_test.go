package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports/mocks"
)

func TestProfileServiceSaveProfileNormalizesAndStamps(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	clock := mocks.NewMockClock(t)
	service := NewProfileService(repo, store, clock)

	now := time.Date(2026, 10, 18, 11, 0, 0, 0, time.FixedZone("EDT", -4*3600))
	clock.EXPECT().Now().Return(now)
	repo.EXPECT().Save(mockAnyContext(), domain.Profile{
		Name:               "therapy",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"psychotherapy", "intake"},
		MergeStrategy:      domain.MergeUnion,
		EstimateSelection:  domain.EstimateSelection{Mode: domain.EstimateHighest},
		PayerID:            "aetna",
		State:              "NY",
		UpdatedAt:          now.UTC(),
	}).Return(nil)

	saved, err := service.SaveProfile(context.Background(), domain.Profile{
		Name:               " therapy ",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"psychotherapy", " intake", "psychotherapy"},
		PayerID:            "aetna",
		State:              "ny",
	})
	require.NoError(t, err)
	assert.Equal(t, "therapy", saved.Name)
	assert.Equal(t, now.UTC(), saved.UpdatedAt)
}

func TestProfileServiceSaveProfileRejectsInvalidProfile(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(repo, store, mocks.NewMockClock(t))

	_, err := service.SaveProfile(context.Background(), domain.Profile{Name: "empty"})
	require.ErrorIs(t, err, domain.ErrServiceCategoryRequired)

	_, err = service.SaveProfile(context.Background(), domain.Profile{
		Name:               "bad",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
		MergeStrategy:      "XOR",
	})
	require.ErrorIs(t, err, domain.ErrInvalidSessionConfig)
}

func TestProfileServiceSaveProfileWrapsRepositoryError(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	clock := mocks.NewMockClock(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t), clock)

	saveErr := errors.New("disk full")
	clock.EXPECT().Now().Return(testNow)
	repo.EXPECT().Save(mockAnyContext(), mock.Anything).Return(saveErr)

	_, err := service.SaveProfile(context.Background(), domain.Profile{
		Name:               "p",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
	})
	require.ErrorIs(t, err, saveErr)
	assert.Contains(t, err.Error(), "save profile")
}

func TestProfileServiceProfilesSortedByName(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t), nil)

	repo.EXPECT().List(mockAnyContext()).Return([]domain.Profile{{Name: "zeta"}, {Name: "alpha"}, {Name: "mid"}}, nil)

	profiles, err := service.Profiles(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 3)
	assert.Equal(t, "alpha", profiles[0].Name)
	assert.Equal(t, "mid", profiles[1].Name)
	assert.Equal(t, "zeta", profiles[2].Name)
}

func TestProfileServiceProfileNotFound(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t), nil)

	repo.EXPECT().GetByName(mockAnyContext(), "missing").Return(domain.Profile{}, domain.ErrProfileNotFound)

	_, err := service.Profile(context.Background(), " missing ")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestProfileServiceDeleteProfile(t *testing.T) {
	repo := mocks.NewMockProfileRepository(t)
	service := NewProfileService(repo, mocks.NewMockCredentialStore(t), nil)

	repo.EXPECT().Delete(mockAnyContext(), "therapy").Return(nil)

	require.NoError(t, service.DeleteProfile(context.Background(), "therapy"))
}

func TestProfileServiceAPIKeys(t *testing.T) {
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(mocks.NewMockProfileRepository(t), store, nil)

	store.EXPECT().Put(mockAnyContext(), "sandbox/api_key", "sk_test_123").Return(nil)
	store.EXPECT().Get(mockAnyContext(), "production/api_key").Return("sk_live_456", nil)
	store.EXPECT().Delete(mockAnyContext(), "sandbox/api_key").Return(domain.ErrCredentialNotFound)

	require.NoError(t, service.SetAPIKey(context.Background(), "sandbox", " sk_test_123 "))

	key, err := service.APIKey(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "sk_live_456", key)

	require.NoError(t, service.RemoveAPIKey(context.Background(), "sandbox"))
}

func TestProfileServiceSetAPIKeyRequiresValue(t *testing.T) {
	service := NewProfileService(mocks.NewMockProfileRepository(t), mocks.NewMockCredentialStore(t), nil)

	err := service.SetAPIKey(context.Background(), "production", "   ")
	require.ErrorIs(t, err, domain.ErrAPIKeyRequired)
}

func TestProfileServiceAPIKeyMissing(t *testing.T) {
	store := mocks.NewMockCredentialStore(t)
	service := NewProfileService(mocks.NewMockProfileRepository(t), store, nil)

	store.EXPECT().Get(mockAnyContext(), "production/api_key").Return("", domain.ErrCredentialNotFound)

	_, err := service.APIKey(context.Background(), "production")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestConfigFromProfile(t *testing.T) {
	t.Parallel()

	profile := domain.Profile{
		Name:                "therapy",
		ServiceCategoryIDs:  []domain.ServiceCategoryID{"c1", "c2"},
		MergeStrategy:       domain.MergeIntersection,
		EstimateSelection:   domain.EstimateSelection{Mode: domain.EstimateLowest},
		PolicyTimeout:       5 * time.Second,
		OptimisticSoftCheck: true,
	}

	soft := SoftConfigFromProfile(profile)
	assert.Equal(t, profile.ServiceCategoryIDs, soft.ServiceCategoryIDs)
	assert.Equal(t, domain.MergeIntersection, soft.MergeStrategy)

	hard := HardConfigFromProfile(profile)
	assert.Equal(t, domain.EstimateLowest, hard.EstimateSelection.Mode)
	assert.Equal(t, 5*time.Second, hard.PolicyTimeout)
	assert.True(t, hard.OptimisticSoftCheck)

	hard.ServiceCategoryIDs[0] = "changed"
	assert.Equal(t, domain.ServiceCategoryID("c1"), profile.ServiceCategoryIDs[0])
}

func mockAnyContext() interface{} {
	return mock.Anything
}
