package chain

import (
	"context"
	"errors"
	"fmt"

	filestore "github.com/bnema/eligibility-cli/internal/adapters/credentials/file"
	passstore "github.com/bnema/eligibility-cli/internal/adapters/credentials/pass"
	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

// Store reads from the primary backend first and falls back to the
// secondary one. Deletes go to both so a key never survives in either.
type Store struct {
	primary  ports.CredentialStore
	fallback ports.CredentialStore
}

var _ ports.CredentialStore = (*Store)(nil)

var (
	errNilPrimaryStore  = errors.New("primary credential store is nil")
	errNilFallbackStore = errors.New("fallback credential store is nil")
)

func NewStore(primary ports.CredentialStore, fallback ports.CredentialStore) *Store {
	store, err := NewStoreChecked(primary, fallback)
	if err != nil {
		panic(err)
	}

	return store
}

func NewStoreChecked(primary ports.CredentialStore, fallback ports.CredentialStore) (*Store, error) {
	if primary == nil {
		return nil, errNilPrimaryStore
	}
	if fallback == nil {
		return nil, errNilFallbackStore
	}

	return &Store{primary: primary, fallback: fallback}, nil
}

func NewPassFirstWithFileFallback(credentialsPath string) (*Store, error) {
	return NewStoreChecked(passstore.NewStore(), filestore.NewStore(credentialsPath))
}

func (s *Store) Put(ctx context.Context, key string, value string) error {
	err := s.primary.Put(ctx, key, value)
	if err == nil {
		return nil
	}
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Put(ctx, key, value)
	if fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("put credential: %w", errors.Join(
		fmt.Errorf("primary backend: %w", err),
		fmt.Errorf("fallback backend: %w", fallbackErr),
	))
}

// Get reports domain.ErrCredentialNotFound only when neither backend has
// the key.
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	value, err := s.primary.Get(ctx, key)
	if err == nil {
		return value, nil
	}
	if shouldSkipFallback(err) {
		return "", err
	}

	fallbackValue, fallbackErr := s.fallback.Get(ctx, key)
	if fallbackErr == nil {
		return fallbackValue, nil
	}

	if errors.Is(err, domain.ErrCredentialNotFound) && errors.Is(fallbackErr, domain.ErrCredentialNotFound) {
		return "", fmt.Errorf("credential %q: %w", key, domain.ErrCredentialNotFound)
	}

	return "", fmt.Errorf("get credential: %w", errors.Join(
		fmt.Errorf("primary backend: %w", err),
		fmt.Errorf("fallback backend: %w", fallbackErr),
	))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	err := s.primary.Delete(ctx, key)
	if shouldSkipFallback(err) {
		return err
	}

	fallbackErr := s.fallback.Delete(ctx, key)
	if err == nil || fallbackErr == nil {
		return nil
	}

	return fmt.Errorf("delete credential: %w", errors.Join(
		fmt.Errorf("primary backend: %w", err),
		fmt.Errorf("fallback backend: %w", fallbackErr),
	))
}

func shouldSkipFallback(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
