package domain

import "strings"

type SessionErrorCode string

const (
	SessionErrorNotFoundName        SessionErrorCode = "NOT_FOUND_NAME"
	SessionErrorNotFoundDateOfBirth SessionErrorCode = "NOT_FOUND_DATE_OF_BIRTH"
	SessionErrorNotFoundMemberID    SessionErrorCode = "NOT_FOUND_MEMBER_ID"
	SessionErrorPayerError          SessionErrorCode = "PAYER_ERROR"
	SessionErrorTimeout             SessionErrorCode = "TIMEOUT"
	SessionErrorServerError         SessionErrorCode = "SERVER_ERROR"
)

// SessionError describes a recoverable failure in a form a UI can act on
// without parsing the message.
type SessionError struct {
	Code          SessionErrorCode `json:"code"`
	Message       string           `json:"message"`
	Retryable     bool             `json:"retryable"`
	ForceMemberID bool             `json:"forceMemberId"`
}

var sessionErrors = map[SessionErrorCode]SessionError{
	SessionErrorNotFoundName: {
		Code:    SessionErrorNotFoundName,
		Message: MessageNotFoundName,
	},
	SessionErrorNotFoundDateOfBirth: {
		Code:    SessionErrorNotFoundDateOfBirth,
		Message: MessageNotFoundDateOfBirth,
	},
	SessionErrorNotFoundMemberID: {
		Code:          SessionErrorNotFoundMemberID,
		Message:       MessageNotFoundMemberID,
		ForceMemberID: true,
	},
	SessionErrorPayerError: {
		Code:      SessionErrorPayerError,
		Message:   MessagePayerError,
		Retryable: true,
	},
	SessionErrorTimeout: {
		Code:      SessionErrorTimeout,
		Message:   MessageTimeout,
		Retryable: true,
	},
	SessionErrorServerError: {
		Code:      SessionErrorServerError,
		Message:   MessageServerError,
		Retryable: true,
	},
}

// remote policy error codes that do not share a name with a session error
var policyCodeAliases = map[string]SessionErrorCode{
	"PAYER_TIMEOUT": SessionErrorTimeout,
}

func SessionErrorFor(code SessionErrorCode) SessionError {
	if sessionErr, ok := sessionErrors[code]; ok {
		return sessionErr
	}
	return sessionErrors[SessionErrorServerError]
}

// ErrorFromPolicy maps the first structured error of an INVALID policy to a
// session error. The boolean is false when the remote code is not in the
// table and the generic server error was used instead.
func ErrorFromPolicy(policy Policy) (SessionError, bool) {
	if policy.Status != PolicyInvalid {
		return SessionErrorFor(SessionErrorServerError), false
	}
	if len(policy.Errors) == 0 {
		return SessionErrorFor(SessionErrorServerError), true
	}

	code := strings.ToUpper(strings.TrimSpace(policy.Errors[0].Code))
	if alias, ok := policyCodeAliases[code]; ok {
		return SessionErrorFor(alias), true
	}
	if sessionErr, ok := sessionErrors[SessionErrorCode(code)]; ok {
		return sessionErr, true
	}

	return SessionErrorFor(SessionErrorServerError), false
}
