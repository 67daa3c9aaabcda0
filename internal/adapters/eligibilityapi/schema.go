package eligibilityapi

import (
	"github.com/bnema/eligibility-cli/internal/domain"
)

const scopedTokenHeader = "x-scoped-access-token"

type createPolicyRequest struct {
	PayerID       string        `json:"payerId"`
	State         string        `json:"state"`
	DateOfService domain.Date   `json:"dateOfService"`
	MemberID      string        `json:"memberId,omitempty"`
	Person        domain.Person `json:"person"`
}

type createServiceEligibilityRequest struct {
	ServiceCategoryID string               `json:"serviceCategoryId"`
	PolicyIDs         []string             `json:"policyIds"`
	DateOfService     domain.Date          `json:"dateOfService"`
	State             string               `json:"state,omitempty"`
	ClinicalInfo      *domain.ClinicalInfo `json:"clinicalInfo,omitempty"`
}

type createProviderEligibilityRequest struct {
	PayerID           string      `json:"payerId"`
	State             string      `json:"state"`
	DateOfService     domain.Date `json:"dateOfService"`
	ServiceCategoryID string      `json:"serviceCategoryId"`
}

// Create responses carry the scoped access token that later get and stream
// calls on the same resource must present.
type policyResponse struct {
	domain.Policy
	ScopedAccessToken string `json:"scopedAccessToken,omitempty"`
}

func (r policyResponse) toDomain(fallbackToken string) domain.Policy {
	policy := r.Policy
	policy.Token = r.ScopedAccessToken
	if policy.Token == "" {
		policy.Token = fallbackToken
	}
	return policy
}

type eligibilityResponse struct {
	domain.Eligibility
	ScopedAccessToken string `json:"scopedAccessToken,omitempty"`
}

func (r eligibilityResponse) toDomain(fallbackToken string) domain.Eligibility {
	eligibility := r.Eligibility
	eligibility.Token = r.ScopedAccessToken
	if eligibility.Token == "" {
		eligibility.Token = fallbackToken
	}
	return eligibility
}

type apiErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
