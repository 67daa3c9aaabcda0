package application

import (
	"fmt"
	"strings"

	"github.com/bnema/eligibility-cli/internal/domain"
)

type SoftSubmission struct {
	PayerID string
	State   domain.USState
}

func (s SoftSubmission) normalize() (SoftSubmission, error) {
	s.PayerID = strings.TrimSpace(s.PayerID)
	s.State = domain.ParseUSState(string(s.State))
	if s.PayerID == "" {
		return SoftSubmission{}, fmt.Errorf("%w: payer id is required", domain.ErrInvalidSubmission)
	}
	if !s.State.Valid() {
		return SoftSubmission{}, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidSubmission, s.State)
	}
	return s, nil
}

type Patient struct {
	FirstName   string
	LastName    string
	DateOfBirth domain.Date
	MemberID    string
}

type HardSubmission struct {
	PayerID      string
	State        domain.USState
	Patient      *Patient
	ClinicalInfo *domain.ClinicalInfo
}

func (s HardSubmission) clone() HardSubmission {
	if s.Patient != nil {
		patient := *s.Patient
		s.Patient = &patient
	}
	if s.ClinicalInfo != nil {
		info := domain.ClinicalInfo{
			DiagnosisCodes: append([]string(nil), s.ClinicalInfo.DiagnosisCodes...),
			ProcedureCodes: append([]string(nil), s.ClinicalInfo.ProcedureCodes...),
		}
		s.ClinicalInfo = &info
	}
	return s
}

// normalize checks the fields the configured flow needs: identity and payer
// for a new policy, payer and state for the optimistic soft check.
func (s HardSubmission) normalize(cfg HardSessionConfig) (HardSubmission, error) {
	s = s.clone()
	s.PayerID = strings.TrimSpace(s.PayerID)
	s.State = domain.ParseUSState(string(s.State))
	if s.State != "" && !s.State.Valid() {
		return HardSubmission{}, fmt.Errorf("%w: unknown state %q", domain.ErrInvalidSubmission, s.State)
	}

	if cfg.PolicyID == "" {
		if s.Patient == nil {
			return HardSubmission{}, domain.ErrPatientRequired
		}
		s.Patient.FirstName = strings.TrimSpace(s.Patient.FirstName)
		s.Patient.LastName = strings.TrimSpace(s.Patient.LastName)
		s.Patient.MemberID = strings.TrimSpace(s.Patient.MemberID)
		if s.Patient.FirstName == "" || s.Patient.LastName == "" || s.Patient.DateOfBirth.IsZero() {
			return HardSubmission{}, fmt.Errorf("%w: first name, last name and date of birth are required", domain.ErrPatientRequired)
		}
		if s.PayerID == "" {
			return HardSubmission{}, fmt.Errorf("%w: payer id is required", domain.ErrInvalidSubmission)
		}
		if s.State == "" {
			return HardSubmission{}, fmt.Errorf("%w: state is required", domain.ErrInvalidSubmission)
		}
	}

	if cfg.OptimisticSoftCheck && (s.PayerID == "" || s.State == "") {
		return HardSubmission{}, fmt.Errorf("%w: payer id and state are required for the optimistic soft check", domain.ErrInvalidSubmission)
	}

	return s, nil
}
