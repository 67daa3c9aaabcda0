package domain

import "fmt"

// Estimate is the patient responsibility chosen for an eligible attempt.
type Estimate struct {
	ServiceCategoryID ServiceCategoryID                 `json:"serviceCategoryId"`
	Primary           PatientResponsibility             `json:"primary"`
	Conditional       *ConditionalPatientResponsibility `json:"conditional,omitempty"`
}

type EstimateChoice struct {
	Estimate *Estimate
	// FellBack is set when a SERVICE_TYPE selection found no matching
	// category and HIGHEST was used instead.
	FellBack bool
}

// SelectEstimate picks one estimate from ELIGIBLE results that all carry a
// patient responsibility. Ties resolve to the first occurrence.
func SelectEstimate(eligible []Eligibility, selection EstimateSelection) (EstimateChoice, error) {
	if len(eligible) == 0 {
		return EstimateChoice{}, nil
	}
	for _, result := range eligible {
		if result.Status != EligibilityEligible {
			return EstimateChoice{}, fmt.Errorf("%w: %s is %s", ErrEstimateRequiresEligibleInput, result.ServiceCategoryID, result.Status)
		}
		if result.PatientResponsibility == nil {
			return EstimateChoice{}, fmt.Errorf("%w: %s", ErrMissingPatientResponsibility, result.ServiceCategoryID)
		}
	}

	switch selection.Mode {
	case EstimateLowest:
		return EstimateChoice{Estimate: estimateFrom(pickByTotal(eligible, func(a, b int64) bool { return a < b }))}, nil
	case EstimateServiceType:
		for _, result := range eligible {
			if result.ServiceCategoryID == selection.ServiceCategoryID {
				return EstimateChoice{Estimate: estimateFrom(result)}, nil
			}
		}
		return EstimateChoice{Estimate: estimateFrom(pickByTotal(eligible, func(a, b int64) bool { return a > b })), FellBack: true}, nil
	default:
		return EstimateChoice{Estimate: estimateFrom(pickByTotal(eligible, func(a, b int64) bool { return a > b }))}, nil
	}
}

func pickByTotal(eligible []Eligibility, better func(a, b int64) bool) Eligibility {
	chosen := eligible[0]
	for _, result := range eligible[1:] {
		if better(result.PatientResponsibility.Total, chosen.PatientResponsibility.Total) {
			chosen = result
		}
	}
	return chosen
}

func estimateFrom(result Eligibility) *Estimate {
	estimate := &Estimate{
		ServiceCategoryID: result.ServiceCategoryID,
		Primary:           *result.PatientResponsibility,
	}
	if len(result.ConditionalPatientResponsibilities) > 0 {
		conditional := result.ConditionalPatientResponsibilities[0]
		conditional.Conditions = append([]string(nil), conditional.Conditions...)
		estimate.Conditional = &conditional
	}
	return estimate
}
