// Package identity wraps the wallet collaborator: the current account
// address, chain id, a signing capability, and change notifications.
package identity

import (
	"context"

	"firtrace/pkg/domain"
)

// Change is a wallet notification. Identity is nil when the wallet was
// disconnected or locked; otherwise it is the full replacement identity
// (identities are replaced wholesale, never patched).
type Change struct {
	Identity *domain.Identity
}

// Provider is the wallet port.
//
// Error contract:
// - sentinel.ErrUnavailable when no wallet is installed/reachable
// - sentinel.ErrRejected when the human declines a prompt
// - sentinel.ErrNotFound from Current when no account is connected
type Provider interface {
	// Current returns the connected identity without prompting.
	Current(ctx context.Context) (domain.Identity, error)

	// Request prompts the human for account selection and returns the chosen
	// identity.
	Request(ctx context.Context) (domain.Identity, error)

	// Sign asks the wallet to sign an opaque message with the current
	// account's key.
	Sign(ctx context.Context, message []byte) ([]byte, error)

	// Changes delivers wallet notifications until ctx is cancelled.
	Changes(ctx context.Context) (<-chan Change, error)
}
