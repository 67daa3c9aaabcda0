package domain

import "errors"

var (
	ErrServiceCategoryRequired = errors.New("service category is required")
	ErrAlreadySubmitting       = errors.New("submission is already in progress, wait for it to complete before starting a new one")
	ErrPatientRequired         = errors.New("patient identity is required when no policy id is configured")
	ErrInvalidSubmission       = errors.New("invalid submission")
	ErrInvalidSessionConfig    = errors.New("invalid session config")

	ErrNoIneligibleResults           = errors.New("no ineligible results to classify")
	ErrInconsistentIneligibility     = errors.New("ineligible result lists providers without a denial message")
	ErrMissingPatientResponsibility  = errors.New("eligible result without patient responsibility")
	ErrEstimateRequiresEligibleInput = errors.New("estimate selection requires eligible results only")

	ErrProfileNotFound    = errors.New("profile not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrAPIKeyRequired     = errors.New("api key is required")
)
