package domain

type EligibilityStatus string

const (
	EligibilityPending    EligibilityStatus = "PENDING"
	EligibilityEligible   EligibilityStatus = "ELIGIBLE"
	EligibilityIneligible EligibilityStatus = "INELIGIBLE"
)

func (s EligibilityStatus) IsResolved() bool {
	return s == EligibilityEligible || s == EligibilityIneligible
}

// ResourceRef addresses a remote resource together with the scoped access
// token that was issued when it was created.
type ResourceRef struct {
	ID    string
	Token string
}

type Provider struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NPI        string `json:"npi"`
	ExternalID string `json:"externalId,omitempty"`
}

type ResolvedProvider struct {
	Provider
	ServiceCategoryIDs []ServiceCategoryID `json:"serviceCategoryIds"`
}

// PatientResponsibility amounts are in minor currency units.
type PatientResponsibility struct {
	Total       int64  `json:"total"`
	Copay       int64  `json:"copay,omitempty"`
	Coinsurance int64  `json:"coinsurance,omitempty"`
	Deductible  int64  `json:"deductible,omitempty"`
	Currency    string `json:"currency,omitempty"`
}

type ConditionalPatientResponsibility struct {
	PatientResponsibility
	Conditions []string `json:"conditions,omitempty"`
}

// Eligibility is the determination for one service category. It models both
// the ServiceEligibility (hard flow) and ProviderEligibility (soft flow)
// remote resources.
type Eligibility struct {
	ID                                 string                             `json:"id"`
	ServiceCategoryID                  ServiceCategoryID                  `json:"serviceCategoryId"`
	Status                             EligibilityStatus                  `json:"status"`
	Providers                          []Provider                         `json:"providers,omitempty"`
	PatientResponsibility              *PatientResponsibility             `json:"patientResponsibility,omitempty"`
	ConditionalPatientResponsibilities []ConditionalPatientResponsibility `json:"conditionalPatientResponsibilities,omitempty"`
	Messages                           []string                           `json:"messages,omitempty"`
	Token                              string                             `json:"-"`
}

func (e Eligibility) Ref() ResourceRef {
	return ResourceRef{ID: e.ID, Token: e.Token}
}

type ClinicalInfo struct {
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
	ProcedureCodes []string `json:"procedureCodes,omitempty"`
}

type ServiceEligibilityInput struct {
	ServiceCategoryID ServiceCategoryID
	PolicyIDs         []string
	DateOfService     Date
	State             USState
	ClinicalInfo      *ClinicalInfo
}

type ProviderEligibilityInput struct {
	PayerID           string
	State             USState
	DateOfService     Date
	ServiceCategoryID ServiceCategoryID
}
