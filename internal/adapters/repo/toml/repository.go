package toml

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

const (
	configName         = "config"
	configType         = "toml"
	ProfilesPathKey    = "profiles.path"
	profilesFileMode   = 0o600
	profilesDirMode    = 0o700
	ConfigDir          = ".elig"
	profilesConfigFile = "profiles.toml"
	tempFilePattern    = ".profiles-*.toml.tmp"
)

// Repository stores profiles in a single TOML file, replaced atomically on
// every write.
type Repository struct {
	profilesPath string
	mu           *sync.RWMutex
}

var (
	lockRegistryMu sync.Mutex
	pathLockMap    = map[string]*sync.RWMutex{}
)

var _ ports.ProfileRepository = (*Repository)(nil)

func NewRepository(cfg *viper.Viper) (*Repository, error) {
	if cfg == nil {
		cfg = viper.New()
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}

	defaultPath := filepath.Join(homeDir, ConfigDir, profilesConfigFile)

	cfg.SetConfigName(configName)
	cfg.SetConfigType(configType)
	cfg.AddConfigPath(filepath.Join(homeDir, ConfigDir))
	cfg.SetDefault(ProfilesPathKey, defaultPath)

	if cfg.ConfigFileUsed() == "" {
		err = cfg.ReadInConfig()
		if err != nil {
			var configNotFound viper.ConfigFileNotFoundError
			if !errors.As(err, &configNotFound) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	profilesPath := cfg.GetString(ProfilesPathKey)
	if profilesPath == "" {
		return nil, errors.New("profiles path is empty")
	}
	profilesPath, err = normalizePath(profilesPath)
	if err != nil {
		return nil, err
	}

	return &Repository{profilesPath: profilesPath, mu: lockForPath(profilesPath)}, nil
}

func (r *Repository) Path() string {
	return r.profilesPath
}

func (r *Repository) Save(ctx context.Context, profile domain.Profile) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	encoded := toSchema(profile)
	updated := false
	for i := range file.Profiles {
		if file.Profiles[i].Name == encoded.Name {
			file.Profiles[i] = encoded
			updated = true
			break
		}
	}

	if !updated {
		file.Profiles = append(file.Profiles, encoded)
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	return r.writeSchema(file)
}

func (r *Repository) GetByName(ctx context.Context, name string) (domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return domain.Profile{}, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return domain.Profile{}, err
	}

	for _, entry := range file.Profiles {
		if entry.Name == name {
			return fromSchema(entry)
		}
	}

	return domain.Profile{}, domain.ErrProfileNotFound
}

func (r *Repository) List(ctx context.Context) ([]domain.Profile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	file, err := r.readSchema()
	if err != nil {
		return nil, err
	}

	profiles := make([]domain.Profile, 0, len(file.Profiles))
	for _, entry := range file.Profiles {
		profile, err := fromSchema(entry)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	return profiles, nil
}

func (r *Repository) Delete(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	file, err := r.readSchema()
	if err != nil {
		return err
	}

	kept := file.Profiles[:0]
	found := false
	for _, entry := range file.Profiles {
		if entry.Name == name {
			found = true
			continue
		}
		kept = append(kept, entry)
	}
	if !found {
		return domain.ErrProfileNotFound
	}
	file.Profiles = kept

	return r.writeSchema(file)
}

func (r *Repository) readSchema() (fileSchema, error) {
	data, err := os.ReadFile(r.profilesPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			file := fileSchema{}
			file.applyDefaults()
			return file, nil
		}
		return fileSchema{}, fmt.Errorf("read profiles file: %w", err)
	}

	var file fileSchema
	if err := toml.Unmarshal(data, &file); err != nil {
		return fileSchema{}, fmt.Errorf("decode profiles file: %w", err)
	}
	if err := file.validateVersion(); err != nil {
		return fileSchema{}, err
	}
	file.applyDefaults()

	return file, nil
}

func normalizePath(path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profiles path: %w", err)
	}

	return filepath.Clean(absPath), nil
}

func lockForPath(path string) *sync.RWMutex {
	lockRegistryMu.Lock()
	defer lockRegistryMu.Unlock()

	if mu, ok := pathLockMap[path]; ok {
		return mu
	}

	mu := &sync.RWMutex{}
	pathLockMap[path] = mu
	return mu
}

func (r *Repository) writeSchema(file fileSchema) error {
	file.applyDefaults()

	if err := os.MkdirAll(filepath.Dir(r.profilesPath), profilesDirMode); err != nil {
		return fmt.Errorf("create profiles directory: %w", err)
	}

	data, err := toml.Marshal(file)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(r.profilesPath), tempFilePattern)
	if err != nil {
		return fmt.Errorf("create temp profiles file: %w", err)
	}

	tempName := tempFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tempName)
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("write temp profiles file: %w", err)
	}

	if err := tempFile.Chmod(profilesFileMode); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("chmod temp profiles file: %w", err)
	}

	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("close temp profiles file: %w", err)
	}

	if err := os.Rename(tempName, r.profilesPath); err != nil {
		return fmt.Errorf("replace profiles file: %w", err)
	}

	cleanup = false
	return nil
}

func toSchema(profile domain.Profile) profileSchema {
	categories := make([]string, len(profile.ServiceCategoryIDs))
	for i, id := range profile.ServiceCategoryIDs {
		categories[i] = string(id)
	}

	return profileSchema{
		Name:               profile.Name,
		ServiceCategoryIDs: categories,
		MergeStrategy:      string(profile.MergeStrategy),
		Estimate: estimateSchema{
			Mode:              string(profile.EstimateSelection.Mode),
			ServiceCategoryID: string(profile.EstimateSelection.ServiceCategoryID),
		},
		PayerID: profile.PayerID,
		State:   string(profile.State),
		Timeouts: timeoutsSchema{
			Policy:          formatDuration(profile.PolicyTimeout),
			Eligibility:     formatDuration(profile.EligibilityTimeout),
			PollingInterval: formatDuration(profile.PollingInterval),
		},
		OptimisticSoftCheck: profile.OptimisticSoftCheck,
		UpdatedAt:           formatTime(profile.UpdatedAt),
	}
}

func fromSchema(entry profileSchema) (domain.Profile, error) {
	categories := make([]domain.ServiceCategoryID, len(entry.ServiceCategoryIDs))
	for i, id := range entry.ServiceCategoryIDs {
		categories[i] = domain.ServiceCategoryID(id)
	}

	policyTimeout, err := parseDuration(entry.Timeouts.Policy)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %q policy timeout: %w", entry.Name, err)
	}
	eligibilityTimeout, err := parseDuration(entry.Timeouts.Eligibility)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %q eligibility timeout: %w", entry.Name, err)
	}
	pollingInterval, err := parseDuration(entry.Timeouts.PollingInterval)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("decode profile %q polling interval: %w", entry.Name, err)
	}

	return domain.Profile{
		Name:               entry.Name,
		ServiceCategoryIDs: categories,
		MergeStrategy:      domain.MergeStrategy(entry.MergeStrategy),
		EstimateSelection: domain.EstimateSelection{
			Mode:              domain.EstimateMode(entry.Estimate.Mode),
			ServiceCategoryID: domain.ServiceCategoryID(entry.Estimate.ServiceCategoryID),
		},
		PayerID:             entry.PayerID,
		State:               domain.USState(entry.State),
		PolicyTimeout:       policyTimeout,
		EligibilityTimeout:  eligibilityTimeout,
		PollingInterval:     pollingInterval,
		OptimisticSoftCheck: entry.OptimisticSoftCheck,
		UpdatedAt:           parseTime(entry.UpdatedAt),
	}, nil
}

func parseDuration(raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	return time.ParseDuration(raw)
}

func formatDuration(value time.Duration) string {
	if value == 0 {
		return ""
	}
	return value.String()
}

func parseTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}

	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}
	}

	return parsed
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		return ""
	}

	return value.Format(time.RFC3339)
}
