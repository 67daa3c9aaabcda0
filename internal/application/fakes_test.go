package application

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

var errStreamUnavailable = errors.New("stream unavailable")

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

var testNow = time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)

// chanStream yields items from a channel until it is closed or the
// subscription context ends.
type chanStream[T any] struct {
	ctx   context.Context
	items <-chan T
}

func (s *chanStream[T]) Recv() (T, error) {
	var zero T
	select {
	case <-s.ctx.Done():
		return zero, s.ctx.Err()
	case item, ok := <-s.items:
		if !ok {
			return zero, io.EOF
		}
		return item, nil
	}
}

func (s *chanStream[T]) Close() error {
	return nil
}

func streamOf[T any](ctx context.Context, items ...T) ports.Stream[T] {
	ch := make(chan T, len(items))
	for _, item := range items {
		ch <- item
	}
	close(ch)
	return &chanStream[T]{ctx: ctx, items: ch}
}

// blockingStream never yields.
func blockingStream[T any](ctx context.Context) ports.Stream[T] {
	return &chanStream[T]{ctx: ctx, items: make(chan T)}
}

type fakeClient struct {
	createPolicy   func(ctx context.Context, input domain.PolicyInput) (domain.Policy, error)
	getPolicy      func(ctx context.Context, ref domain.ResourceRef) (domain.Policy, error)
	streamPolicy   func(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Policy], error)
	createService  func(ctx context.Context, input domain.ServiceEligibilityInput) (domain.Eligibility, error)
	getService     func(ctx context.Context, ref domain.ResourceRef) (domain.Eligibility, error)
	streamService  func(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Eligibility], error)
	createProvider func(ctx context.Context, input domain.ProviderEligibilityInput) (domain.Eligibility, error)

	getServiceCalls     atomic.Int32
	createProviderCalls atomic.Int32

	mu            sync.Mutex
	policyInputs  []domain.PolicyInput
	serviceInputs []domain.ServiceEligibilityInput
}

var _ ports.EligibilityClient = (*fakeClient)(nil)

func (f *fakeClient) CreatePolicy(ctx context.Context, input domain.PolicyInput) (domain.Policy, error) {
	f.mu.Lock()
	f.policyInputs = append(f.policyInputs, input)
	f.mu.Unlock()
	if f.createPolicy == nil {
		return domain.Policy{}, errors.New("create policy not configured")
	}
	return f.createPolicy(ctx, input)
}

func (f *fakeClient) GetPolicy(ctx context.Context, ref domain.ResourceRef) (domain.Policy, error) {
	if f.getPolicy == nil {
		return domain.Policy{}, errors.New("get policy not configured")
	}
	return f.getPolicy(ctx, ref)
}

func (f *fakeClient) StreamPolicy(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Policy], error) {
	if f.streamPolicy == nil {
		return nil, errStreamUnavailable
	}
	return f.streamPolicy(ctx, ref)
}

func (f *fakeClient) CreateServiceEligibility(ctx context.Context, input domain.ServiceEligibilityInput) (domain.Eligibility, error) {
	f.mu.Lock()
	f.serviceInputs = append(f.serviceInputs, input)
	f.mu.Unlock()
	if f.createService == nil {
		return domain.Eligibility{}, errors.New("create service eligibility not configured")
	}
	return f.createService(ctx, input)
}

func (f *fakeClient) GetServiceEligibility(ctx context.Context, ref domain.ResourceRef) (domain.Eligibility, error) {
	f.getServiceCalls.Add(1)
	if f.getService == nil {
		return domain.Eligibility{}, errors.New("get service eligibility not configured")
	}
	return f.getService(ctx, ref)
}

func (f *fakeClient) StreamServiceEligibility(ctx context.Context, ref domain.ResourceRef) (ports.Stream[domain.Eligibility], error) {
	if f.streamService == nil {
		return nil, errStreamUnavailable
	}
	return f.streamService(ctx, ref)
}

func (f *fakeClient) CreateProviderEligibility(ctx context.Context, input domain.ProviderEligibilityInput) (domain.Eligibility, error) {
	f.createProviderCalls.Add(1)
	if f.createProvider == nil {
		return domain.Eligibility{}, errors.New("create provider eligibility not configured")
	}
	return f.createProvider(ctx, input)
}

type trackedEvent struct {
	name   string
	fields map[string]any
}

type recordingAnalytics struct {
	mu     sync.Mutex
	events []trackedEvent
}

func (r *recordingAnalytics) Track(_ context.Context, event string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, trackedEvent{name: event, fields: fields})
}

func (r *recordingAnalytics) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.events))
	for _, event := range r.events {
		names = append(names, event.name)
	}
	return names
}

type logEntry struct {
	level string
	msg   string
}

type recordingLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, msg: msg})
}

func (l *recordingLogger) Debug(msg string, _ ...any) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ ...any)  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ ...any)  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ ...any) { l.record("error", msg) }

func (l *recordingLogger) has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, entry := range l.entries {
		if entry.level == level && entry.msg == msg {
			return true
		}
	}
	return false
}

func testProvider(id string) domain.Provider {
	return domain.Provider{ID: id, Name: "Provider " + id, NPI: "npi-" + id}
}

func newTestService(client ports.EligibilityClient) (*Service, *recordingAnalytics, *recordingLogger) {
	analytics := &recordingAnalytics{}
	logger := &recordingLogger{}
	return NewService(client, logger, analytics, fixedClock{now: testNow}), analytics, logger
}
