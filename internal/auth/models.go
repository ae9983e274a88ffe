// Package auth implements signature-challenge authentication: the server-side
// verification service that exchanges a signed challenge for a session
// credential, and the client used by the session manager.
package auth

import (
	"time"

	"firtrace/pkg/domain"
)

// Challenge is the fixed string every wallet signs to authenticate. Changing
// it invalidates all outstanding signatures, so it is a constant, not config.
const Challenge = "Register cyberCrime Reports. You accept our terms and conditions"

// Credential is the opaque proof of a successful signature verification for
// one address. Valid only while the session's address is unchanged since
// issuance.
type Credential struct {
	Token     string
	Address   domain.Address
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ValidFor reports whether the credential can be reused for the given address
// at the given time.
func (c Credential) ValidFor(addr domain.Address, now time.Time) bool {
	return c.Token != "" && c.Address == addr && now.Before(c.ExpiresAt)
}

// Attempt is one authentication attempt, recorded for audit regardless of
// outcome.
type Attempt struct {
	Address    string
	Succeeded  bool
	Device     string
	ClientIP   string
	FailReason string
	At         time.Time
}
