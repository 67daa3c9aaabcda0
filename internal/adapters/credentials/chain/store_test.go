package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/bnema/eligibility-cli/internal/domain"
	portmocks "github.com/bnema/eligibility-cli/internal/ports/mocks"
)

const apiKeyRef = "production/api_key"

func newChain(t *testing.T) (*Store, *portmocks.MockCredentialStore, *portmocks.MockCredentialStore) {
	t.Helper()

	primary := portmocks.NewMockCredentialStore(t)
	fallback := portmocks.NewMockCredentialStore(t)
	return NewStore(primary, fallback), primary, fallback
}

func TestStoreGetUsesPrimaryWhenItSucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("from-pass", nil).Once()

	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-pass", value)
}

func TestStoreGetFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", errors.New("pass unavailable")).Once()
	fallback.EXPECT().Get(mock.Anything, apiKeyRef).Return("from-file", nil).Once()

	value, err := store.Get(context.Background(), apiKeyRef)
	require.NoError(t, err)
	assert.Equal(t, "from-file", value)
}

func TestStoreGetReturnsJoinedErrorWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	passErr := errors.New("pass failed")
	fileErr := errors.New("file failed")
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", passErr).Once()
	fallback.EXPECT().Get(mock.Anything, apiKeyRef).Return("", fileErr).Once()

	_, err := store.Get(context.Background(), apiKeyRef)
	require.Error(t, err)
	require.ErrorIs(t, err, passErr)
	require.ErrorIs(t, err, fileErr)
	assert.ErrorContains(t, err, "primary backend")
	assert.ErrorContains(t, err, "fallback backend")
}

func TestStoreGetNotFoundInBothBackends(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", domain.ErrCredentialNotFound).Once()
	fallback.EXPECT().Get(mock.Anything, apiKeyRef).Return("", domain.ErrCredentialNotFound).Once()

	_, err := store.Get(context.Background(), apiKeyRef)
	require.ErrorIs(t, err, domain.ErrCredentialNotFound)
	assert.NotContains(t, err.Error(), "primary backend")
}

func TestStorePutFallsBackWhenPrimaryFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Put(mock.Anything, apiKeyRef, "secret").Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Put(mock.Anything, apiKeyRef, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), apiKeyRef, "secret"))
}

func TestStorePutDoesNotCallFallbackWhenPrimarySucceeds(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Put(mock.Anything, apiKeyRef, "secret").Return(nil).Once()

	require.NoError(t, store.Put(context.Background(), apiKeyRef, "secret"))
}

func TestStoreDeleteRemovesFromBothBackends(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, apiKeyRef).Return(nil).Once()
	fallback.EXPECT().Delete(mock.Anything, apiKeyRef).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), apiKeyRef))
}

func TestStoreDeleteSucceedsWhenOneBackendFails(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, apiKeyRef).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, apiKeyRef).Return(nil).Once()

	require.NoError(t, store.Delete(context.Background(), apiKeyRef))
}

func TestStoreDeleteFailsWhenBothBackendsFail(t *testing.T) {
	t.Parallel()

	store, primary, fallback := newChain(t)
	primary.EXPECT().Delete(mock.Anything, apiKeyRef).Return(errors.New("pass failed")).Once()
	fallback.EXPECT().Delete(mock.Anything, apiKeyRef).Return(errors.New("disk failed")).Once()

	err := store.Delete(context.Background(), apiKeyRef)
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk failed")
}

func TestStoreGetDoesNotFallbackOnCanceledContextError(t *testing.T) {
	t.Parallel()

	store, primary, _ := newChain(t)
	primary.EXPECT().Get(mock.Anything, apiKeyRef).Return("", context.Canceled).Once()

	_, err := store.Get(context.Background(), apiKeyRef)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewStoreCheckedRejectsNilBackends(t *testing.T) {
	t.Parallel()

	_, err := NewStoreChecked(nil, portmocks.NewMockCredentialStore(t))
	require.ErrorIs(t, err, errNilPrimaryStore)

	_, err = NewStoreChecked(portmocks.NewMockCredentialStore(t), nil)
	require.ErrorIs(t, err, errNilFallbackStore)
}
