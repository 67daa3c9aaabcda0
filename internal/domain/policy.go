package domain

type PolicyStatus string

const (
	PolicyPending   PolicyStatus = "PENDING"
	PolicyConfirmed PolicyStatus = "CONFIRMED"
	PolicyInvalid   PolicyStatus = "INVALID"
)

func (s PolicyStatus) IsResolved() bool {
	return s == PolicyConfirmed || s == PolicyInvalid
}

type PolicyError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

// Policy binds a patient identity to a payer plan. The remote service
// validates it asynchronously after creation.
type Policy struct {
	ID       string        `json:"id"`
	Status   PolicyStatus  `json:"status"`
	PayerID  string        `json:"payerId,omitempty"`
	MemberID string        `json:"memberId,omitempty"`
	Errors   []PolicyError `json:"errors,omitempty"`
	Token    string        `json:"-"`
}

func (p Policy) Ref() ResourceRef {
	return ResourceRef{ID: p.ID, Token: p.Token}
}

type Person struct {
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	DateOfBirth Date   `json:"dateOfBirth"`
}

type PolicyInput struct {
	PayerID       string
	State         USState
	DateOfService Date
	MemberID      string
	Person        Person
}
