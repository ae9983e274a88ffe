package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Ledger clients, wallet providers
// and stores return these (optionally wrapped) so the session and workflow
// layers can translate them into coded domain errors.
//
// These represent factual states about external collaborators, not policy
// violations:
// - ErrNotFound: case/record does not exist on the ledger or in a store
// - ErrRejected: the human declined a wallet prompt (accounts or signature)
// - ErrExpired: credential/token no longer within its validity window
// - ErrInvalidState: collaborator refused because the entity is in the wrong state
// - ErrUnavailable: wallet, ledger or service temporarily unreachable
//
// For policy violations (role gates, illegal transitions), use
// pkg/domain-errors directly.
var (
	ErrNotFound     = errors.New("not found")
	ErrRejected     = errors.New("rejected by user")
	ErrExpired      = errors.New("expired")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
