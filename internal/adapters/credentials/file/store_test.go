package file

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/eligibility-cli/internal/domain"
)

func TestStoreRejectsInvalidKeys(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "credentials.toml"))
	testCases := []struct {
		name    string
		key     string
		wantErr string
	}{
		{name: "empty", key: "", wantErr: "credential key is empty"},
		{name: "whitespace", key: "   ", wantErr: "credential key is empty"},
		{name: "newline", key: "prod\n/api_key", wantErr: "invalid credential key"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := store.Put(context.Background(), tc.key, "value")
			require.Error(t, err)
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestStorePutGetRoundTripAndPermissions(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nested", "credentials.toml")
	store := NewStore(path)

	require.NoError(t, store.Put(context.Background(), "production/api_key", "sk_live"))
	require.NoError(t, store.Put(context.Background(), "sandbox/api_key", "sk_test"))

	got, err := store.Get(context.Background(), "production/api_key")
	require.NoError(t, err)
	assert.Equal(t, "sk_live", got)

	got, err = NewStore(path).Get(context.Background(), " sandbox/api_key ")
	require.NoError(t, err)
	assert.Equal(t, "sk_test", got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(storeFileMode), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "version = 1")
}

func TestStoreGetMissingKeyIsNotFound(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "credentials.toml"))

	_, err := store.Get(context.Background(), "production/api_key")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreDeleteIsIdempotentWhenSecretMissing(t *testing.T) {
	t.Parallel()

	store := NewStore(filepath.Join(t.TempDir(), "credentials.toml"))
	require.NoError(t, store.Put(context.Background(), "production/api_key", "sk_live"))

	require.NoError(t, store.Delete(context.Background(), "production/api_key"))
	require.NoError(t, store.Delete(context.Background(), "production/api_key"))

	_, err := store.Get(context.Background(), "production/api_key")
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
}

func TestStoreMalformedFileReturnsError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "credentials.toml")
	require.NoError(t, os.WriteFile(path, []byte("credentials = ["), 0o600))

	_, err := NewStore(path).Get(context.Background(), "production/api_key")
	require.Error(t, err)
	assert.ErrorContains(t, err, "decode credentials file")
}
