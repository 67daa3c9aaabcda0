package application

import (
	"time"

	"github.com/bnema/eligibility-cli/internal/domain"
)

type SoftStatus string

const (
	SoftPending    SoftStatus = "PENDING"
	SoftSubmitting SoftStatus = "SUBMITTING"
	SoftEligible   SoftStatus = "ELIGIBLE"
	SoftIneligible SoftStatus = "INELIGIBLE"
	SoftError      SoftStatus = "ERROR"
)

func (s SoftStatus) InFlight() bool {
	return s == SoftSubmitting
}

func (s SoftStatus) IsTerminal() bool {
	switch s {
	case SoftEligible, SoftIneligible, SoftError:
		return true
	default:
		return false
	}
}

func (s SoftStatus) CanSubmit() bool {
	return !s.InFlight()
}

type HardStatus string

const (
	HardPending                      HardStatus = "PENDING"
	HardWaitingForPolicy             HardStatus = "WAITING_FOR_POLICY"
	HardWaitingForServiceEligibility HardStatus = "WAITING_FOR_SERVICE_ELIGIBILITY"
	HardEligible                     HardStatus = "ELIGIBLE"
	HardIneligible                   HardStatus = "INELIGIBLE"
	HardPolicyError                  HardStatus = "POLICY_ERROR"
	HardTimeout                      HardStatus = "TIMEOUT"
	HardServerError                  HardStatus = "SERVER_ERROR"
)

func (s HardStatus) InFlight() bool {
	switch s {
	case HardWaitingForPolicy, HardWaitingForServiceEligibility:
		return true
	default:
		return false
	}
}

func (s HardStatus) IsTerminal() bool {
	switch s {
	case HardEligible, HardIneligible, HardPolicyError, HardTimeout, HardServerError:
		return true
	default:
		return false
	}
}

func (s HardStatus) CanSubmit() bool {
	return !s.InFlight()
}

// NextAction hints what a caller should do after a failed attempt.
type NextAction string

const (
	NextActionNone          NextAction = ""
	NextActionRetry         NextAction = "RETRY"
	NextActionInput         NextAction = "INPUT"
	NextActionInputMemberID NextAction = "INPUT_MEMBER_ID"
)

func nextActionFor(status HardStatus, sessionErr *domain.SessionError) NextAction {
	switch status {
	case HardTimeout, HardServerError:
		return NextActionRetry
	case HardPolicyError:
		if sessionErr == nil {
			return NextActionRetry
		}
		if sessionErr.ForceMemberID {
			return NextActionInputMemberID
		}
		if sessionErr.Retryable {
			return NextActionRetry
		}
		return NextActionInput
	default:
		return NextActionNone
	}
}

type Submissions struct {
	Count   int
	FirstAt time.Time
	LastAt  time.Time
}

func (s Submissions) record(now time.Time) Submissions {
	if s.Count == 0 {
		s.FirstAt = now
	}
	s.Count++
	s.LastAt = now
	return s
}

type SoftSessionState struct {
	Status              SoftStatus
	Args                *SoftSubmission
	Error               *domain.SessionError
	ProviderEligibility map[domain.ServiceCategoryID]domain.Eligibility
	Providers           []domain.ResolvedProvider
	IneligibilityReason *domain.IneligibilityReason
	Submissions         Submissions
}

func (s SoftSessionState) clone() SoftSessionState {
	if s.Args != nil {
		args := *s.Args
		s.Args = &args
	}
	s.Error = cloneSessionError(s.Error)
	s.ProviderEligibility = cloneEligibilityMap(s.ProviderEligibility)
	s.Providers = cloneProviders(s.Providers)
	s.IneligibilityReason = cloneReason(s.IneligibilityReason)
	return s
}

type HardSessionState struct {
	Status              HardStatus
	Args                *HardSubmission
	Error               *domain.SessionError
	Policy              *domain.Policy
	ServiceEligibility  map[domain.ServiceCategoryID]domain.Eligibility
	Providers           []domain.ResolvedProvider
	Estimate            *domain.Estimate
	IneligibilityReason *domain.IneligibilityReason
	NextAction          NextAction
	Submissions         Submissions
}

func (s HardSessionState) clone() HardSessionState {
	if s.Args != nil {
		args := s.Args.clone()
		s.Args = &args
	}
	s.Error = cloneSessionError(s.Error)
	if s.Policy != nil {
		policy := *s.Policy
		policy.Errors = append([]domain.PolicyError(nil), policy.Errors...)
		s.Policy = &policy
	}
	s.ServiceEligibility = cloneEligibilityMap(s.ServiceEligibility)
	s.Providers = cloneProviders(s.Providers)
	if s.Estimate != nil {
		estimate := *s.Estimate
		if estimate.Conditional != nil {
			conditional := *estimate.Conditional
			conditional.Conditions = append([]string(nil), conditional.Conditions...)
			estimate.Conditional = &conditional
		}
		s.Estimate = &estimate
	}
	s.IneligibilityReason = cloneReason(s.IneligibilityReason)
	return s
}

func cloneSessionError(err *domain.SessionError) *domain.SessionError {
	if err == nil {
		return nil
	}
	copied := *err
	return &copied
}

func cloneReason(reason *domain.IneligibilityReason) *domain.IneligibilityReason {
	if reason == nil {
		return nil
	}
	copied := *reason
	return &copied
}

func cloneProviders(providers []domain.ResolvedProvider) []domain.ResolvedProvider {
	if providers == nil {
		return nil
	}
	out := make([]domain.ResolvedProvider, len(providers))
	for i, provider := range providers {
		provider.ServiceCategoryIDs = append([]domain.ServiceCategoryID(nil), provider.ServiceCategoryIDs...)
		out[i] = provider
	}
	return out
}

func cloneEligibility(e domain.Eligibility) domain.Eligibility {
	e.Providers = append([]domain.Provider(nil), e.Providers...)
	e.Messages = append([]string(nil), e.Messages...)
	if e.PatientResponsibility != nil {
		pr := *e.PatientResponsibility
		e.PatientResponsibility = &pr
	}
	if e.ConditionalPatientResponsibilities != nil {
		conditionals := make([]domain.ConditionalPatientResponsibility, len(e.ConditionalPatientResponsibilities))
		for i, c := range e.ConditionalPatientResponsibilities {
			c.Conditions = append([]string(nil), c.Conditions...)
			conditionals[i] = c
		}
		e.ConditionalPatientResponsibilities = conditionals
	}
	return e
}

func cloneEligibilityMap(in map[domain.ServiceCategoryID]domain.Eligibility) map[domain.ServiceCategoryID]domain.Eligibility {
	if in == nil {
		return nil
	}
	out := make(map[domain.ServiceCategoryID]domain.Eligibility, len(in))
	for id, e := range in {
		out[id] = cloneEligibility(e)
	}
	return out
}
