package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"

	otelevents "github.com/bnema/eligibility-cli/internal/adapters/analytics/otelevents"
	chainstore "github.com/bnema/eligibility-cli/internal/adapters/credentials/chain"
	filestore "github.com/bnema/eligibility-cli/internal/adapters/credentials/file"
	"github.com/bnema/eligibility-cli/internal/adapters/eligibilityapi"
	"github.com/bnema/eligibility-cli/internal/adapters/logging/zaplog"
	"github.com/bnema/eligibility-cli/internal/adapters/render/outcome"
	tomlrepo "github.com/bnema/eligibility-cli/internal/adapters/repo/toml"
	"github.com/bnema/eligibility-cli/internal/adapters/telemetry"
	"github.com/bnema/eligibility-cli/internal/application"
	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
	"github.com/bnema/eligibility-cli/internal/version"
)

const (
	serviceName = "elig"

	credentialsPathKey    = "credentials.path"
	credentialsBackendKey = "credentials.backend"
	logLevelKey           = "log.level"
	logDevelopmentKey     = "log.development"
	apiEnvironmentKey     = "api.environment"
	apiBaseURLKey         = "api.base_url"

	credentialsConfigFile = "credentials.toml"
	backendChain          = "chain"
	backendFile           = "file"
)

var errBaseURLRequired = errors.New("api base url is not configured: set ELIG_API_BASE_URL or api.base_url in ~/.elig/config.toml")

type app struct {
	profiles      *application.ProfileService
	logger        *zaplog.Logger
	analytics     ports.Analytics
	clock         ports.Clock
	apiConfig     eligibilityapi.Config
	environment   string
	renderOutcome func(outcome.Outcome, outcome.RenderOptions) (string, error)
	shutdown      func(context.Context) error
}

func wireApp() (*app, error) {
	cfg := viper.New()
	cfg.SetEnvPrefix("ELIG")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()
	cfg.SetDefault(logLevelKey, "warn")
	cfg.SetDefault(apiEnvironmentKey, application.DefaultEnvironment)
	cfg.SetDefault(credentialsBackendKey, backendChain)

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	cfg.SetDefault(credentialsPathKey, filepath.Join(homeDir, tomlrepo.ConfigDir, credentialsConfigFile))

	repo, err := tomlrepo.NewRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("wire profile repository: %w", err)
	}

	store, err := newCredentialStore(cfg.GetString(credentialsBackendKey), cfg.GetString(credentialsPathKey))
	if err != nil {
		return nil, fmt.Errorf("wire credential store: %w", err)
	}

	logger, err := zaplog.New(zaplog.Options{
		Level:       cfg.GetString(logLevelKey),
		Development: cfg.GetBool(logDevelopmentKey),
	})
	if err != nil {
		return nil, fmt.Errorf("wire logger: %w", err)
	}

	apiConfig, err := eligibilityapi.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load api config: %w", err)
	}
	if apiConfig.BaseURL == "" {
		apiConfig.BaseURL = cfg.GetString(apiBaseURLKey)
	}

	telemetryConfig, err := telemetry.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load telemetry config: %w", err)
	}
	shutdown, err := telemetry.Setup(context.Background(), serviceName, version.Version, telemetryConfig)
	if err != nil {
		return nil, fmt.Errorf("wire telemetry: %w", err)
	}

	clock := ports.SystemClock{}
	return &app{
		profiles:      application.NewProfileService(repo, store, clock),
		logger:        logger,
		analytics:     otelevents.New(otel.GetTracerProvider()),
		clock:         clock,
		apiConfig:     apiConfig,
		environment:   cfg.GetString(apiEnvironmentKey),
		renderOutcome: outcome.Render,
		shutdown:      shutdown,
	}, nil
}

func newCredentialStore(backend, path string) (ports.CredentialStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case "", backendChain:
		return chainstore.NewPassFirstWithFileFallback(path)
	case backendFile:
		return filestore.NewStore(path), nil
	default:
		return nil, fmt.Errorf("unsupported credentials backend %q", backend)
	}
}

// eligibilityService builds the session service. The API key comes from
// ELIG_API_KEY, then from the credential store for the active environment.
func (a *app) eligibilityService(ctx context.Context) (*application.Service, error) {
	cfg := a.apiConfig
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errBaseURLRequired
	}

	if cfg.APIKey == "" {
		apiKey, err := a.profiles.APIKey(ctx, a.environment)
		if err != nil {
			if errors.Is(err, domain.ErrCredentialNotFound) {
				return nil, fmt.Errorf("%w: set ELIG_API_KEY or run `elig auth set-key --env %s`", domain.ErrAPIKeyRequired, a.environment)
			}
			return nil, err
		}
		cfg.APIKey = apiKey
	}

	return application.NewService(eligibilityapi.NewClient(cfg), a.logger, a.analytics, a.clock), nil
}

func (a *app) close(ctx context.Context) error {
	_ = a.logger.Sync()
	if a.shutdown == nil {
		return nil
	}
	if err := a.shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown telemetry: %w", err)
	}
	return nil
}
