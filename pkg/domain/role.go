package domain

// Role is the access tier derived from an address identity. Exactly one role
// per session. Government implies police-level visibility in the UI but not
// police authority over assigned cases.
type Role string

const (
	RoleAnonymous  Role = "anonymous"
	RoleCitizen    Role = "citizen"
	RolePolice     Role = "police"
	RoleGovernment Role = "government"
)

func (r Role) String() string { return string(r) }

// CanViewAllCases reports whether the role sees the full case list rather
// than only its own filings.
func (r Role) CanViewAllCases() bool {
	return r == RolePolice || r == RoleGovernment
}
