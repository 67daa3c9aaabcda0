package application

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/bnema/eligibility-cli/internal/domain"
	"github.com/bnema/eligibility-cli/internal/ports"
)

// HardSession verifies eligibility for an identified patient: it resolves a
// policy (or reuses a configured one), then one service eligibility per
// category, and combines them into a single outcome with an estimate.
type HardSession struct {
	id     string
	svc    *Service
	config HardSessionConfig
	state  *stateCell[HardSessionState]
}

func (s *Service) NewHardSession(cfg HardSessionConfig) (*HardSession, error) {
	normalized, err := cfg.normalize()
	if err != nil {
		return nil, err
	}

	session := &HardSession{
		id:     s.newID(),
		svc:    s,
		config: normalized,
		state:  newStateCell(HardSessionState{Status: HardPending}, HardSessionState.clone),
	}

	s.logger.Info("HardSession.created", "session", session.id, "categories", len(normalized.ServiceCategoryIDs),
		"merge", string(normalized.MergeStrategy), "estimate", normalized.EstimateSelection.String(),
		"existingPolicy", normalized.PolicyID != "", "optimistic", normalized.OptimisticSoftCheck)
	s.analytics.Track(context.Background(), EventHardCreated, map[string]any{
		"sessionId":           session.id,
		"serviceCategoryIds":  categoryStrings(normalized.ServiceCategoryIDs),
		"mergeStrategy":       string(normalized.MergeStrategy),
		"estimateSelection":   normalized.EstimateSelection.String(),
		"optimisticSoftCheck": normalized.OptimisticSoftCheck,
	})

	return session, nil
}

func (s *HardSession) ID() string {
	return s.id
}

func (s *HardSession) State() HardSessionState {
	return s.state.snapshot()
}

func (s *HardSession) OnUpdate(listener func(HardSessionState)) func() {
	return s.state.subscribe(listener)
}

// attempt carries what one Submit call needs across its steps.
type attempt struct {
	args      HardSubmission
	day       domain.Date
	startedAt time.Time
}

// Submit runs one hard check to a terminal status and returns that state.
// Remote failures become statuses; errors are returned only for invalid
// arguments, a submission already in flight or a cancelled context.
func (s *HardSession) Submit(ctx context.Context, args HardSubmission) (HardSessionState, error) {
	args, err := args.normalize(s.config)
	if err != nil {
		return HardSessionState{}, err
	}

	now := s.svc.clock.Now()
	initial := HardWaitingForPolicy
	if s.config.PolicyID != "" {
		initial = HardWaitingForServiceEligibility
	}
	if _, err := s.update(ctx, func(current HardSessionState) (HardSessionState, error) {
		if !current.Status.CanSubmit() {
			return current, domain.ErrAlreadySubmitting
		}
		return HardSessionState{
			Status:      initial,
			Args:        &args,
			Submissions: current.Submissions.record(now),
		}, nil
	}); err != nil {
		return HardSessionState{}, err
	}

	ctx, span := s.svc.tracer.Start(ctx, "HardSession.Submit", trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.Bool("policy.existing", s.config.PolicyID != ""),
		attribute.Bool("optimistic", s.config.OptimisticSoftCheck),
	))
	defer span.End()

	s.track(ctx, EventHardSubmit, map[string]any{"payerId": args.PayerID, "state": string(args.State)})

	run := attempt{args: args, day: dateOfService(s.config.DateOfService, now), startedAt: now}
	state := s.run(ctx, run)
	span.SetAttributes(attribute.String("status", string(state.Status)))
	if state.Status == HardServerError {
		span.SetStatus(codes.Error, "server error")
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return state, ctxErr
	}
	return state, nil
}

func (s *HardSession) run(ctx context.Context, run attempt) HardSessionState {
	policyID := s.config.PolicyID
	if policyID != "" {
		s.svc.logger.Info("HardSession.submit.usingExistingPolicyId", "session", s.id, "policy", policyID)
	} else {
		policy, terminal, done := s.obtainPolicy(ctx, run)
		if done {
			return terminal
		}
		policyID = policy.ID
		s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
			current.Status = HardWaitingForServiceEligibility
			return current
		})
	}

	return s.checkServiceEligibility(ctx, run, policyID)
}

type policyOutcome struct {
	resolution Resolution[domain.Policy]
	err        error
}

type optimisticOutcome struct {
	results   []domain.Eligibility
	providers []domain.ResolvedProvider
	err       error
}

// obtainPolicy creates the policy and waits for it, optionally racing the
// optimistic soft check. It returns done=true with the terminal state when
// the attempt ends here.
func (s *HardSession) obtainPolicy(ctx context.Context, run attempt) (domain.Policy, HardSessionState, bool) {
	patient := run.args.Patient
	s.svc.logger.Info("HardSession.createPolicy", "session", s.id, "payer", run.args.PayerID, "state", string(run.args.State))
	policy, err := s.svc.client.CreatePolicy(ctx, domain.PolicyInput{
		PayerID:       run.args.PayerID,
		State:         run.args.State,
		DateOfService: run.day,
		MemberID:      patient.MemberID,
		Person: domain.Person{
			FirstName:   patient.FirstName,
			LastName:    patient.LastName,
			DateOfBirth: patient.DateOfBirth,
		},
	})
	if err != nil {
		s.svc.logger.Error("HardSession.submit.createPolicy.error", "session", s.id, "error", err.Error())
		return domain.Policy{}, s.fail(ctx, HardServerError, domain.SessionErrorServerError), true
	}
	s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Policy = &policy
		return current
	})

	policyCtx, cancelPolicy := context.WithCancel(ctx)
	defer cancelPolicy()
	policyCh := make(chan policyOutcome, 1)
	go func() {
		resolution, err := s.resolvePolicy(policyCtx, policy)
		policyCh <- policyOutcome{resolution: resolution, err: err}
	}()

	var optimisticCh chan optimisticOutcome
	if s.config.OptimisticSoftCheck {
		s.svc.logger.Info("HardSession.submit.startingOptimisticSoftCheck", "session", s.id)
		optimisticCtx, cancelOptimistic := context.WithCancel(ctx)
		defer cancelOptimistic()
		optimisticCh = make(chan optimisticOutcome, 1)
		go func() {
			results, err := checkProviderEligibility(optimisticCtx, s.svc, s.config.ServiceCategoryIDs, run.args.PayerID, run.args.State, run.day)
			outcome := optimisticOutcome{results: results, err: err}
			if err == nil {
				outcome.providers = domain.MergeProviders(results, s.config.MergeStrategy)
			}
			optimisticCh <- outcome
		}()
	}

	var (
		outcome        policyOutcome
		optimistic     *optimisticOutcome
		optimisticSeen bool
	)
	select {
	case outcome = <-policyCh:
	case opt := <-optimisticCh:
		optimisticSeen = true
		optimistic = s.noteOptimistic(ctx, run, opt)
		if optimistic != nil && len(optimistic.providers) == 0 {
			cancelPolicy()
			<-policyCh
			return domain.Policy{}, s.outOfNetwork(ctx, run, *optimistic), true
		}
		outcome = <-policyCh
	}

	confirmed := outcome.err == nil && !outcome.resolution.TimedOut &&
		outcome.resolution.Value.Status == domain.PolicyConfirmed
	if !confirmed && optimisticCh != nil && !optimisticSeen {
		select {
		case opt := <-optimisticCh:
			optimistic = s.noteOptimistic(ctx, run, opt)
		case <-ctx.Done():
		}
	}
	if !confirmed && optimistic != nil && len(optimistic.providers) == 0 {
		return domain.Policy{}, s.outOfNetwork(ctx, run, *optimistic), true
	}

	if outcome.err != nil {
		s.svc.logger.Error("HardSession.submit.resolvePolicy.error", "session", s.id, "policy", policy.ID, "error", outcome.err.Error())
		return domain.Policy{}, s.fail(ctx, HardServerError, domain.SessionErrorServerError), true
	}
	if outcome.resolution.TimedOut {
		s.svc.logger.Info("HardSession.submit.policyTimeout", "session", s.id, "policy", policy.ID)
		return domain.Policy{}, s.fail(ctx, HardTimeout, domain.SessionErrorTimeout), true
	}

	resolved := outcome.resolution.Value
	if resolved.Token == "" {
		resolved.Token = policy.Token
	}
	s.svc.logger.Info("HardSession.submit.resolvePolicy", "session", s.id, "policy", resolved.ID, "status", string(resolved.Status))
	s.track(ctx, EventHardPolicy, map[string]any{
		"dateOfService": run.day.String(),
		"state":         string(run.args.State),
		"policyId":      resolved.ID,
		"policyStatus":  string(resolved.Status),
		"durationMs":    s.svc.clock.Now().Sub(run.startedAt).Milliseconds(),
	})
	s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Policy = &resolved
		return current
	})

	if resolved.Status == domain.PolicyInvalid {
		sessionErr, known := domain.ErrorFromPolicy(resolved)
		if !known {
			s.svc.logger.Warn("HardSession.errorFromPolicy.unmappedCode", "session", s.id, "policy", resolved.ID, "errors", fmt.Sprint(resolved.Errors))
		}
		s.svc.logger.Info("HardSession.submit.policyInvalid", "session", s.id, "policy", resolved.ID, "code", string(sessionErr.Code))
		return domain.Policy{}, s.failWith(ctx, HardPolicyError, sessionErr), true
	}

	return resolved, HardSessionState{}, false
}

// noteOptimistic logs a failed optimistic check and returns nil for it, so
// the attempt falls back to the policy result.
func (s *HardSession) noteOptimistic(ctx context.Context, run attempt, outcome optimisticOutcome) *optimisticOutcome {
	if outcome.err == nil {
		return &outcome
	}
	s.svc.logger.Warn("HardSession.submit.optimisticSoftCheck.error", "session", s.id, "error", outcome.err.Error())
	s.track(ctx, EventHardOptimisticError, map[string]any{
		"dateOfService": run.day.String(),
		"state":         string(run.args.State),
		"payerId":       run.args.PayerID,
		"error":         outcome.err.Error(),
	})
	return nil
}

func (s *HardSession) outOfNetwork(ctx context.Context, run attempt, outcome optimisticOutcome) HardSessionState {
	ids := make([]string, 0, len(outcome.results))
	for _, result := range outcome.results {
		if result.ID != "" {
			ids = append(ids, result.ID)
		}
	}
	s.svc.logger.Info("HardSession.submit.optimisticOutOfNetwork", "session", s.id)
	reason := domain.OutOfNetworkReason()
	state := s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Status = HardIneligible
		current.Providers = []domain.ResolvedProvider{}
		current.IneligibilityReason = &reason
		return current
	})
	s.track(ctx, EventHardCompleteOutOfNetwork, map[string]any{
		"dateOfService":          run.day.String(),
		"state":                  string(run.args.State),
		"payerId":                run.args.PayerID,
		"providerEligibilityIds": ids,
		"submitCount":            state.Submissions.Count,
		"durationMs":             s.svc.clock.Now().Sub(run.startedAt).Milliseconds(),
	})
	return state
}

func (s *HardSession) resolvePolicy(ctx context.Context, policy domain.Policy) (Resolution[domain.Policy], error) {
	if policy.Status.IsResolved() {
		return Resolution[domain.Policy]{Value: policy}, nil
	}
	ref := policy.Ref()
	return Resolve(ctx, ResolveRequest[domain.Policy]{
		Name: "policy",
		ID:   policy.ID,
		Fetch: func(ctx context.Context) (domain.Policy, error) {
			return s.svc.client.GetPolicy(ctx, ref)
		},
		Subscribe: func(ctx context.Context) (ports.Stream[domain.Policy], error) {
			return s.svc.client.StreamPolicy(ctx, ref)
		},
		IsTerminal:       func(p domain.Policy) bool { return p.Status.IsResolved() },
		Timeout:          s.config.PolicyTimeout,
		PollInterval:     s.config.PollingInterval,
		ReconnectBackoff: s.config.ReconnectBackoff,
	}, s.svc.logger)
}

// checkServiceEligibility creates and resolves one service eligibility per
// category concurrently, then classifies the combined result.
func (s *HardSession) checkServiceEligibility(ctx context.Context, run attempt, policyID string) HardSessionState {
	s.svc.logger.Info("HardSession.submit.resolvingServiceEligibility", "session", s.id, "policy", policyID)

	results := make([]domain.Eligibility, len(s.config.ServiceCategoryIDs))
	timedOut := make([]bool, len(s.config.ServiceCategoryIDs))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, category := range s.config.ServiceCategoryIDs {
		group.Go(func() error {
			created, err := s.svc.client.CreateServiceEligibility(groupCtx, domain.ServiceEligibilityInput{
				ServiceCategoryID: category,
				PolicyIDs:         []string{policyID},
				DateOfService:     run.day,
				State:             run.args.State,
				ClinicalInfo:      run.args.ClinicalInfo,
			})
			if err != nil {
				return fmt.Errorf("create service eligibility for %s: %w", category, err)
			}
			s.svc.logger.Debug("HardSession.submit.createServiceEligibility", "session", s.id, "category", string(category), "id", created.ID)

			resolution, err := s.resolveServiceEligibility(groupCtx, created)
			if err != nil {
				return err
			}
			if resolution.TimedOut {
				timedOut[i] = true
				return nil
			}
			resolved := resolution.Value
			if resolved.ServiceCategoryID == "" {
				resolved.ServiceCategoryID = category
			}
			results[i] = resolved
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		s.svc.logger.Error("HardSession.submit.createServiceEligibility.error", "session", s.id, "error", err.Error())
		return s.fail(ctx, HardServerError, domain.SessionErrorServerError)
	}
	for i, category := range s.config.ServiceCategoryIDs {
		if timedOut[i] {
			s.svc.logger.Info("HardSession.submit.serviceEligibilityTimeout", "session", s.id, "category", string(category))
			return s.fail(ctx, HardTimeout, domain.SessionErrorTimeout)
		}
	}

	byCategory := make(map[domain.ServiceCategoryID]domain.Eligibility, len(results))
	ids := make([]string, 0, len(results))
	for _, result := range results {
		byCategory[result.ServiceCategoryID] = result
		ids = append(ids, result.ID)
	}
	s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.ServiceEligibility = byCategory
		return current
	})

	fields := map[string]any{
		"dateOfService":         run.day.String(),
		"state":                 string(run.args.State),
		"policyId":              policyID,
		"serviceEligibilityIds": ids,
	}

	if domain.IsIneligible(results, s.config.MergeStrategy) {
		reason, err := domain.ClassifyIneligibility(results)
		if err != nil {
			s.svc.logger.Error("HardSession.ineligibilityReason.error", "session", s.id, "error", err.Error())
			return s.fail(ctx, HardServerError, domain.SessionErrorServerError)
		}
		s.svc.logger.Info("HardSession.submit.ineligible", "session", s.id, "code", string(reason.Code))
		return s.ineligible(ctx, run, reason, fields)
	}

	providers := domain.MergeProviders(results, s.config.MergeStrategy)
	if len(providers) == 0 {
		s.svc.logger.Info("HardSession.submit.noProviders", "session", s.id)
		return s.ineligible(ctx, run, domain.NoProvidersReason(), fields)
	}

	eligible := make([]domain.Eligibility, 0, len(results))
	for _, result := range results {
		if result.Status == domain.EligibilityEligible {
			eligible = append(eligible, result)
		}
	}
	choice, err := domain.SelectEstimate(eligible, s.config.EstimateSelection)
	if err == nil && choice.Estimate == nil {
		err = domain.ErrMissingPatientResponsibility
	}
	if err != nil {
		s.svc.logger.Error("HardSession.getPatientResponsibility.error", "session", s.id, "error", err.Error())
		return s.fail(ctx, HardServerError, domain.SessionErrorServerError)
	}
	if choice.FellBack {
		s.svc.logger.Warn("HardSession.getPatientResponsibility.serviceTypeNotFound", "session", s.id,
			"category", string(s.config.EstimateSelection.ServiceCategoryID))
	}

	estimate := choice.Estimate
	state := s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Status = HardEligible
		current.Providers = providers
		current.Estimate = estimate
		return current
	})
	fields["providerCount"] = len(providers)
	fields["estimateTotal"] = estimate.Primary.Total
	s.completed(ctx, run, EventHardCompleteEligible, state, fields)
	return state
}

func (s *HardSession) resolveServiceEligibility(ctx context.Context, created domain.Eligibility) (Resolution[domain.Eligibility], error) {
	if created.Status.IsResolved() {
		return Resolution[domain.Eligibility]{Value: created}, nil
	}
	ref := created.Ref()
	resolution, err := Resolve(ctx, ResolveRequest[domain.Eligibility]{
		Name: "service eligibility",
		ID:   created.ID,
		Fetch: func(ctx context.Context) (domain.Eligibility, error) {
			return s.svc.client.GetServiceEligibility(ctx, ref)
		},
		Subscribe: func(ctx context.Context) (ports.Stream[domain.Eligibility], error) {
			return s.svc.client.StreamServiceEligibility(ctx, ref)
		},
		IsTerminal:       func(e domain.Eligibility) bool { return e.Status.IsResolved() },
		Timeout:          s.config.EligibilityTimeout,
		PollInterval:     s.config.PollingInterval,
		ReconnectBackoff: s.config.ReconnectBackoff,
	}, s.svc.logger)
	if err != nil {
		return resolution, fmt.Errorf("%s: %w", created.ServiceCategoryID, err)
	}
	return resolution, nil
}

func (s *HardSession) ineligible(ctx context.Context, run attempt, reason domain.IneligibilityReason, fields map[string]any) HardSessionState {
	state := s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Status = HardIneligible
		current.IneligibilityReason = &reason
		current.Providers = []domain.ResolvedProvider{}
		return current
	})
	fields["ineligibilityReason"] = string(reason.Code)
	s.completed(ctx, run, EventHardCompleteIneligible, state, fields)
	return state
}

func (s *HardSession) completed(ctx context.Context, run attempt, event string, state HardSessionState, fields map[string]any) {
	now := s.svc.clock.Now()
	fields["submitCount"] = state.Submissions.Count
	fields["durationMs"] = now.Sub(run.startedAt).Milliseconds()
	fields["durationSinceFirstSubmitMs"] = now.Sub(state.Submissions.FirstAt).Milliseconds()
	s.track(ctx, event, fields)
}

func (s *HardSession) fail(ctx context.Context, status HardStatus, code domain.SessionErrorCode) HardSessionState {
	return s.failWith(ctx, status, domain.SessionErrorFor(code))
}

func (s *HardSession) failWith(ctx context.Context, status HardStatus, sessionErr domain.SessionError) HardSessionState {
	return s.mustUpdate(ctx, func(current HardSessionState) HardSessionState {
		current.Status = status
		current.Error = &sessionErr
		return current
	})
}

// update is the single write path of the session state.
func (s *HardSession) update(ctx context.Context, fn func(current HardSessionState) (HardSessionState, error)) (HardSessionState, error) {
	state, err := s.state.transition(func(current HardSessionState) (HardSessionState, error) {
		next, err := fn(current)
		if err != nil {
			return next, err
		}
		next.NextAction = nextActionFor(next.Status, next.Error)
		return next, nil
	})
	if err != nil {
		return state, err
	}

	s.svc.logger.Debug("HardSession.updated", "session", s.id, "status", string(state.Status))
	policyID := ""
	if state.Policy != nil {
		policyID = state.Policy.ID
	}
	fields := map[string]any{"status": string(state.Status), "policyId": policyID}
	if state.Error != nil {
		fields["error"] = string(state.Error.Code)
	}
	s.track(ctx, EventHardUpdated, fields)
	return state, nil
}

func (s *HardSession) mustUpdate(ctx context.Context, fn func(current HardSessionState) HardSessionState) HardSessionState {
	state, _ := s.update(ctx, func(current HardSessionState) (HardSessionState, error) {
		return fn(current), nil
	})
	return state
}

func (s *HardSession) track(ctx context.Context, event string, fields map[string]any) {
	fields["sessionId"] = s.id
	s.svc.analytics.Track(ctx, event, fields)
}
