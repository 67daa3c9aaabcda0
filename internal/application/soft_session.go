package application

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/eligibility-cli/internal/domain"
)

// SoftSession checks whether a payer plan has in-network providers for the
// configured service categories, without identifying the patient.
type SoftSession struct {
	id     string
	svc    *Service
	config SoftSessionConfig
	state  *stateCell[SoftSessionState]
}

func (s *Service) NewSoftSession(cfg SoftSessionConfig) (*SoftSession, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	session := &SoftSession{
		id:     s.newID(),
		svc:    s,
		config: normalized,
		state:  newStateCell(SoftSessionState{Status: SoftPending}, SoftSessionState.clone),
	}

	s.logger.Info("SoftSession.created", "session", session.id, "categories", len(normalized.ServiceCategoryIDs), "merge", string(normalized.MergeStrategy))
	s.analytics.Track(context.Background(), EventSoftCreated, map[string]any{
		"sessionId":          session.id,
		"serviceCategoryIds": categoryStrings(normalized.ServiceCategoryIDs),
		"mergeStrategy":      string(normalized.MergeStrategy),
	})

	return session, nil
}

func (s *SoftSession) ID() string {
	return s.id
}

func (s *SoftSession) State() SoftSessionState {
	return s.state.snapshot()
}

// OnUpdate registers a listener called with every new state. The returned
// func removes it.
func (s *SoftSession) OnUpdate(listener func(SoftSessionState)) func() {
	return s.state.subscribe(listener)
}

// Submit runs one soft check and returns the terminal state. Errors are
// returned only for invalid arguments, a submission already in flight or a
// cancelled context.
func (s *SoftSession) Submit(ctx context.Context, args SoftSubmission) (SoftSessionState, error) {
	args, err := args.normalize()
	if err != nil {
		return SoftSessionState{}, err
	}

	now := s.svc.clock.Now()
	_, err = s.state.transition(func(current SoftSessionState) (SoftSessionState, error) {
		if !current.Status.CanSubmit() {
			return current, domain.ErrAlreadySubmitting
		}
		return SoftSessionState{
			Status:      SoftSubmitting,
			Args:        &args,
			Submissions: current.Submissions.record(now),
		}, nil
	})
	if err != nil {
		return SoftSessionState{}, err
	}
	s.track(ctx, EventSoftSubmit, map[string]any{"payerId": args.PayerID, "state": string(args.State)})
	s.trackUpdated(ctx, SoftSubmitting, 0)

	ctx, span := s.svc.tracer.Start(ctx, "SoftSession.Submit", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("payer.id", args.PayerID),
	))
	defer span.End()

	day := dateOfService(s.config.DateOfService, now)
	results, err := s.checkCategories(ctx, args, day)
	if err != nil {
		s.svc.logger.Error("SoftSession.submit.error", "session", s.id, "error", err.Error())
		span.RecordError(err)
		span.SetStatus(codes.Error, "provider eligibility failed")
		sessionErr := domain.SessionErrorFor(domain.SessionErrorServerError)
		state := s.finish(ctx, SoftSessionState{Status: SoftError, Args: &args, Error: &sessionErr})
		if ctxErr := ctx.Err(); ctxErr != nil {
			return state, ctxErr
		}
		return state, nil
	}

	byCategory := make(map[domain.ServiceCategoryID]domain.Eligibility, len(results))
	for _, result := range results {
		byCategory[result.ServiceCategoryID] = result
	}

	providers := domain.MergeProviders(results, s.config.MergeStrategy)
	fields := map[string]any{
		"dateOfService": day.String(),
		"payerId":       args.PayerID,
		"state":         string(args.State),
	}
	if len(providers) == 0 {
		s.svc.logger.Info("SoftSession.resolved.noProviders", "session", s.id)
		reason := domain.OutOfNetworkReason()
		state := s.finish(ctx, SoftSessionState{
			Status:              SoftIneligible,
			Args:                &args,
			ProviderEligibility: byCategory,
			Providers:           []domain.ResolvedProvider{},
			IneligibilityReason: &reason,
		})
		s.track(ctx, EventSoftCompleteIneligible, fields)
		return state, nil
	}

	s.svc.logger.Info("SoftSession.resolved.eligible", "session", s.id, "providers", len(providers))
	state := s.finish(ctx, SoftSessionState{
		Status:              SoftEligible,
		Args:                &args,
		ProviderEligibility: byCategory,
		Providers:           providers,
	})
	fields["providerCount"] = len(providers)
	s.track(ctx, EventSoftCompleteEligible, fields)
	return state, nil
}

// checkCategories creates one provider eligibility per category
// concurrently. Results keep the configured category order.
func (s *SoftSession) checkCategories(ctx context.Context, args SoftSubmission, day domain.Date) ([]domain.Eligibility, error) {
	return checkProviderEligibility(ctx, s.svc, s.config.ServiceCategoryIDs, args.PayerID, args.State, day)
}

func checkProviderEligibility(ctx context.Context, svc *Service, categories []domain.ServiceCategoryID, payerID string, state domain.USState, day domain.Date) ([]domain.Eligibility, error) {
	results := make([]domain.Eligibility, len(categories))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, category := range categories {
		group.Go(func() error {
			result, err := svc.client.CreateProviderEligibility(groupCtx, domain.ProviderEligibilityInput{
				PayerID:           payerID,
				State:             state,
				DateOfService:     day,
				ServiceCategoryID: category,
			})
			if err != nil {
				return fmt.Errorf("create provider eligibility for %s: %w", category, err)
			}
			if result.ServiceCategoryID == "" {
				result.ServiceCategoryID = category
			}
			results[i] = result
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *SoftSession) finish(ctx context.Context, next SoftSessionState) SoftSessionState {
	state, _ := s.state.transition(func(current SoftSessionState) (SoftSessionState, error) {
		next.Submissions = current.Submissions
		return next, nil
	})
	s.svc.logger.Debug("SoftSession.updated", "session", s.id, "status", string(state.Status))
	s.trackUpdated(ctx, state.Status, len(state.Providers))
	return state
}

func (s *SoftSession) trackUpdated(ctx context.Context, status SoftStatus, providers int) {
	s.track(ctx, EventSoftUpdated, map[string]any{"status": string(status), "providers": providers})
}

func (s *SoftSession) track(ctx context.Context, event string, fields map[string]any) {
	fields["sessionId"] = s.id
	s.svc.analytics.Track(ctx, event, fields)
}

func categoryStrings(ids []domain.ServiceCategoryID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = string(id)
	}
	return out
}
