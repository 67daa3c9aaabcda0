package toml

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/eligibility-cli/internal/domain"
)

func newTestRepository(t *testing.T, profilesPath string) *Repository {
	t.Helper()

	config := viper.New()
	config.Set(ProfilesPathKey, profilesPath)

	repo, err := NewRepository(config)
	require.NoError(t, err)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	therapy := domain.Profile{
		Name:                "therapy",
		ServiceCategoryIDs:  []domain.ServiceCategoryID{"psychotherapy", "intake"},
		MergeStrategy:       domain.MergeIntersection,
		EstimateSelection:   domain.EstimateSelection{Mode: domain.EstimateServiceType, ServiceCategoryID: "intake"},
		PayerID:             "aetna",
		State:               "NY",
		PolicyTimeout:       45 * time.Second,
		EligibilityTimeout:  time.Minute + 30*time.Second,
		PollingInterval:     500 * time.Millisecond,
		OptimisticSoftCheck: true,
		UpdatedAt:           time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
	minimal := domain.Profile{
		Name:               "minimal",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
	}

	require.NoError(t, repo.Save(context.Background(), therapy))
	require.NoError(t, repo.Save(context.Background(), minimal))

	got, err := repo.GetByName(context.Background(), "therapy")
	require.NoError(t, err)
	assert.Equal(t, therapy, got)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []domain.Profile{therapy, minimal}, profiles)
}

func TestRepositorySaveReplacesProfileWithSameName(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	require.NoError(t, repo.Save(context.Background(), domain.Profile{Name: "p", ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"}}))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{Name: "p", ServiceCategoryIDs: []domain.ServiceCategoryID{"c2"}}))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, []domain.ServiceCategoryID{"c2"}, profiles[0].ServiceCategoryIDs)
}

func TestRepositoryDelete(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{Name: "a", ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"}}))
	require.NoError(t, repo.Save(context.Background(), domain.Profile{Name: "b", ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"}}))

	require.NoError(t, repo.Delete(context.Background(), "a"))

	_, err := repo.GetByName(context.Background(), "a")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, "b", profiles[0].Name)

	require.ErrorIs(t, repo.Delete(context.Background(), "a"), domain.ErrProfileNotFound)
}

func TestRepositorySaveCreatesDefaultPathAndEnforcesPermissions(t *testing.T) {
	homeDir := t.TempDir()
	t.Setenv("HOME", homeDir)

	repo, err := NewRepository(viper.New())
	require.NoError(t, err)

	err = repo.Save(context.Background(), domain.Profile{
		Name:               "default",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
	})
	require.NoError(t, err)

	profilesPath := filepath.Join(homeDir, ".elig", "profiles.toml")
	assert.Equal(t, profilesPath, repo.Path())
	info, err := os.Stat(profilesPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestRepositoryMissingFileBehaviors(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "missing", "profiles.toml"))

	profiles, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, profiles)

	_, err = repo.GetByName(context.Background(), "therapy")
	require.ErrorIs(t, err, domain.ErrProfileNotFound)
}

func TestRepositoryListMalformedTOMLReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte("profiles = ["), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode profiles file")
}

func TestRepositoryInvalidDurationReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte(strings.Join([]string{
		"version = 1",
		"",
		"[[profiles]]",
		"name = 'slow'",
		"service_category_ids = ['c1']",
		"",
		"[profiles.timeouts]",
		"policy = 'forever'",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.GetByName(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorContains(t, err, `decode profile "slow" policy timeout`)
}

func TestRepositorySaveCanceledContextReturnsContextError(t *testing.T) {
	t.Parallel()

	repo := newTestRepository(t, filepath.Join(t.TempDir(), "profiles.toml"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, domain.Profile{Name: "p"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestRepositoryConcurrentSavesAcrossInstancesPreserveBothProfiles(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repoA := newTestRepository(t, profilesPath)
	repoB := newTestRepository(t, profilesPath)

	const perRepoWrites = 50
	start := make(chan struct{})
	errCh := make(chan error, perRepoWrites*2)
	var wg sync.WaitGroup
	wg.Add(2)

	save := func(repo *Repository, prefix string) {
		defer wg.Done()
		<-start
		for i := 0; i < perRepoWrites; i++ {
			errCh <- repo.Save(context.Background(), domain.Profile{
				Name:               prefix + strconv.Itoa(i),
				ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
			})
		}
	}
	go save(repoA, "a-")
	go save(repoB, "b-")

	close(start)
	wg.Wait()
	close(errCh)

	for err := range errCh {
		require.NoError(t, err)
	}

	profiles, err := repoA.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, perRepoWrites*2)
}

func TestRepositorySaveSerializedTOMLIncludesVersion(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	repo := newTestRepository(t, profilesPath)

	require.NoError(t, repo.Save(context.Background(), domain.Profile{
		Name:               "p",
		ServiceCategoryIDs: []domain.ServiceCategoryID{"c1"},
		PolicyTimeout:      20 * time.Second,
	}))

	data, err := os.ReadFile(profilesPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
	assert.Contains(t, string(data), "20s")
}

func TestRepositoryFutureSchemaVersionReturnsError(t *testing.T) {
	t.Parallel()

	profilesPath := filepath.Join(t.TempDir(), "profiles.toml")
	require.NoError(t, os.WriteFile(profilesPath, []byte(strings.Join([]string{
		"version = 999",
		"",
		"profiles = []",
		"",
	}, "\n")), 0o600))

	repo := newTestRepository(t, profilesPath)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "unsupported profiles schema version")
}
