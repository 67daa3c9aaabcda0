package ports

import "context"

// CredentialStore holds API keys addressed by "<environment>/api_key"
// style keys. Get returns domain.ErrCredentialNotFound for unknown keys.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
