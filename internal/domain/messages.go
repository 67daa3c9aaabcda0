package domain

// User-facing copy shown for outcomes.
const (
	MessageNoProviders = "Insurance plan is not in-network"

	MessageNotFoundName        = "Insurance not found, check details and try again"
	MessageNotFoundDateOfBirth = "Insurance not found, check the date of birth"
	MessageNotFoundMemberID    = "Insurance not found, check the Member ID"
	MessagePayerError          = "Payer system error, please try again"
	MessageServerError         = "An unexpected error occurred, please try again"
	MessageTimeout             = "Payer took too long to respond, please try again"
)
