// Package session owns the wallet-connect → authenticate → role-resolve
// lifecycle. The Manager is the single writer of session state; everything
// else reads snapshots.
package session

import (
	"time"

	"firtrace/internal/auth"
	"firtrace/pkg/domain"
)

// State is the session lifecycle state.
type State string

const (
	StateDisconnected   State = "disconnected"
	StateConnecting     State = "connecting"
	StateConnected      State = "connected" // wallet connected, not authenticated
	StateAuthenticating State = "authenticating"
	StateAuthenticated  State = "authenticated"

	// StateError is reserved for wallet transports that die underneath the
	// session and need a full reconnect. Authentication and signing failures
	// never land here; they demote to Connected or Disconnected so the UI
	// can retry.
	StateError State = "error"
)

// Session is the current actor and what they can do. Role and Credential are
// only valid for the identity they were derived for; any identity change
// invalidates both together — they are never mismatched.
type Session struct {
	State           State
	Identity        domain.Identity
	Role            domain.Role
	Credential      *auth.Credential
	AuthenticatedAt time.Time

	// Warning is set when role resolution degraded to citizen because the
	// ledger was unreachable. The UI surfaces it; it never blocks login.
	Warning string
}

// Authenticated reports whether the session carries a live credential.
func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.Credential != nil
}

// Actor returns the current address, or the zero address when disconnected.
func (s Session) Actor() domain.Address {
	return s.Identity.Address
}
