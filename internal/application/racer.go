package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/bnema/eligibility-cli/internal/ports"
)

const (
	DefaultResolveTimeout   = 20 * time.Second
	DefaultPollInterval     = time.Second
	DefaultReconnectBackoff = time.Second
)

// ResolveRequest describes one remote resource to wait for.
type ResolveRequest[T any] struct {
	// Name and ID only label log lines.
	Name string
	ID   string

	Fetch      func(ctx context.Context) (T, error)
	Subscribe  func(ctx context.Context) (ports.Stream[T], error)
	IsTerminal func(T) bool

	Timeout          time.Duration
	PollInterval     time.Duration
	ReconnectBackoff time.Duration
}

type Resolution[T any] struct {
	Value    T
	TimedOut bool
}

type branchResult[T any] struct {
	value T
	err   error
}

// Resolve waits for a resource to become terminal by racing a polling loop,
// a push stream and a timer. The first branch to finish wins and the others
// are cancelled; Resolve returns only once both data branches have stopped.
//
// A timeout is reported through Resolution.TimedOut, not as an error.
// Transient fetch and stream failures are logged and retried; permanent
// ones (see ports.IsPermanent) end the race with an error.
func Resolve[T any](ctx context.Context, req ResolveRequest[T], logger ports.Logger) (Resolution[T], error) {
	if req.Fetch == nil || req.IsTerminal == nil {
		return Resolution[T]{}, errors.New("resolve: fetch and terminal predicate are required")
	}
	if logger == nil {
		logger = ports.NopLogger{}
	}
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultResolveTimeout
	}
	if req.PollInterval <= 0 {
		req.PollInterval = DefaultPollInterval
	}
	if req.ReconnectBackoff <= 0 {
		req.ReconnectBackoff = DefaultReconnectBackoff
	}

	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make(chan branchResult[T], 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		value, err := poll(raceCtx, req, logger)
		results <- branchResult[T]{value: value, err: err}
	}()

	if req.Subscribe != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := listen(raceCtx, req, logger)
			results <- branchResult[T]{value: value, err: err}
		}()
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var (
		resolution Resolution[T]
		resolveErr error
	)
	select {
	case <-ctx.Done():
		resolveErr = ctx.Err()
	case <-timer.C:
		logger.Warn("Resolve.timeout", "resource", req.Name, "id", req.ID, "timeout", timeout.String())
		resolution.TimedOut = true
	case result := <-results:
		if result.err != nil {
			resolveErr = fmt.Errorf("resolve %s: %w", req.Name, result.err)
		} else {
			resolution.Value = result.value
		}
	}

	cancel()
	wg.Wait()

	return resolution, resolveErr
}

func poll[T any](ctx context.Context, req ResolveRequest[T], logger ports.Logger) (T, error) {
	var zero T
	for {
		value, err := req.Fetch(ctx)
		switch {
		case err == nil && req.IsTerminal(value):
			return value, nil
		case err != nil && ctx.Err() != nil:
			return zero, ctx.Err()
		case err != nil && ports.IsPermanent(err):
			return zero, err
		case err != nil:
			logger.Warn("Resolve.poll.error", "resource", req.Name, "id", req.ID, "error", err.Error())
		}

		if err := sleep(ctx, req.PollInterval); err != nil {
			return zero, err
		}
	}
}

func listen[T any](ctx context.Context, req ResolveRequest[T], logger ports.Logger) (T, error) {
	var zero T
	for {
		value, terminal, err := listenOnce(ctx, req)
		if terminal {
			return value, nil
		}
		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
		if err != nil && ports.IsPermanent(err) {
			return zero, err
		}
		if err != nil && !errors.Is(err, io.EOF) {
			logger.Warn("Resolve.stream.error", "resource", req.Name, "id", req.ID, "error", err.Error())
		} else {
			logger.Debug("Resolve.stream.closed", "resource", req.Name, "id", req.ID)
		}

		if err := sleep(ctx, req.ReconnectBackoff); err != nil {
			return zero, err
		}
	}
}

func listenOnce[T any](ctx context.Context, req ResolveRequest[T]) (T, bool, error) {
	var zero T
	stream, err := req.Subscribe(ctx)
	if err != nil {
		return zero, false, err
	}
	defer func() { _ = stream.Close() }()

	for {
		value, err := stream.Recv()
		if err != nil {
			return zero, false, err
		}
		if req.IsTerminal(value) {
			return value, true, nil
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
