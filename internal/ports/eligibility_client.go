package ports

import (
	"context"
	"errors"

	"github.com/bnema/eligibility-cli/internal/domain"
)

var (
	// ErrUnauthorized means the API key or a scoped access token was
	// rejected. Retrying the same call cannot succeed.
	ErrUnauthorized = errors.New("eligibility api: unauthorized")
	ErrNotFound     = errors.New("eligibility api: resource not found")
)

// Stream delivers successive versions of one remote resource. Recv returns
// io.EOF once the server closes the stream.
type Stream[T any] interface {
	Recv() (T, error)
	Close() error
}

type PolicyClient interface {
	CreatePolicy(ctx context.Context, input domain.PolicyInput) (domain.Policy, error)
	GetPolicy(ctx context.Context, ref domain.ResourceRef) (domain.Policy, error)
	StreamPolicy(ctx context.Context, ref domain.ResourceRef) (Stream[domain.Policy], error)
}

type ServiceEligibilityClient interface {
	CreateServiceEligibility(ctx context.Context, input domain.ServiceEligibilityInput) (domain.Eligibility, error)
	GetServiceEligibility(ctx context.Context, ref domain.ResourceRef) (domain.Eligibility, error)
	StreamServiceEligibility(ctx context.Context, ref domain.ResourceRef) (Stream[domain.Eligibility], error)
}

// ProviderEligibilityClient creates soft checks, which the service
// resolves synchronously.
type ProviderEligibilityClient interface {
	CreateProviderEligibility(ctx context.Context, input domain.ProviderEligibilityInput) (domain.Eligibility, error)
}

type EligibilityClient interface {
	PolicyClient
	ServiceEligibilityClient
	ProviderEligibilityClient
}

// IsPermanent reports whether err cannot be fixed by repeating the call.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnauthorized) || errors.Is(err, ErrNotFound)
}
