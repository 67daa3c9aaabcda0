package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorFromPolicy(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		codes     []string
		want      SessionErrorCode
		retryable bool
		force     bool
		known     bool
	}{
		{name: "name mismatch", codes: []string{"NOT_FOUND_NAME"}, want: SessionErrorNotFoundName, known: true},
		{name: "date of birth mismatch", codes: []string{"NOT_FOUND_DATE_OF_BIRTH"}, want: SessionErrorNotFoundDateOfBirth, known: true},
		{name: "member id mismatch forces member id", codes: []string{"NOT_FOUND_MEMBER_ID"}, want: SessionErrorNotFoundMemberID, force: true, known: true},
		{name: "payer error is retryable", codes: []string{"PAYER_ERROR"}, want: SessionErrorPayerError, retryable: true, known: true},
		{name: "payer timeout alias", codes: []string{"payer_timeout"}, want: SessionErrorTimeout, retryable: true, known: true},
		{name: "first error wins", codes: []string{"NOT_FOUND_NAME", "PAYER_ERROR"}, want: SessionErrorNotFoundName, known: true},
		{name: "no errors", want: SessionErrorServerError, retryable: true, known: true},
		{name: "unmapped code", codes: []string{"SOMETHING_NEW"}, want: SessionErrorServerError, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			policy := Policy{ID: "pol-1", Status: PolicyInvalid}
			for _, code := range tt.codes {
				policy.Errors = append(policy.Errors, PolicyError{Code: code})
			}

			got, known := ErrorFromPolicy(policy)
			assert.Equal(t, tt.want, got.Code)
			assert.Equal(t, tt.retryable, got.Retryable)
			assert.Equal(t, tt.force, got.ForceMemberID)
			assert.Equal(t, tt.known, known)
			assert.NotEmpty(t, got.Message)
		})
	}
}

func TestSessionErrorForUnknownCode(t *testing.T) {
	t.Parallel()

	got := SessionErrorFor("NOPE")
	assert.Equal(t, SessionErrorServerError, got.Code)
	assert.Equal(t, MessageServerError, got.Message)
}
