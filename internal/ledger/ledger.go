// Package ledger defines the port to the authoritative case store and the
// closed set of change notifications it emits. The contract itself is an
// external collaborator; this package specifies the surface the core depends
// on plus an in-memory implementation for tests and local development.
package ledger

import (
	"context"

	"firtrace/pkg/domain"
)

// EventName identifies a class of ledger notification.
type EventName string

const (
	EventCaseFiled         EventName = "CaseFiled"
	EventCaseAssigned      EventName = "CaseAssigned"
	EventCaseStatusChanged EventName = "CaseStatusChanged"
	EventPoliceSetChanged  EventName = "PoliceSetChanged"
)

// Event is the closed tagged-variant type for ledger notifications. Each
// variant carries only what subscribers need to decide whether to refresh.
type Event interface {
	Name() EventName
}

// CaseFiled is emitted when a citizen's submission is included.
type CaseFiled struct {
	CaseID      domain.CaseID
	Complainant domain.Address
}

// CaseAssigned is emitted when government assigns a case to a police address.
type CaseAssigned struct {
	CaseID domain.CaseID
	Police domain.Address
}

// CaseStatusChanged is emitted on any status transition.
type CaseStatusChanged struct {
	CaseID    domain.CaseID
	NewStatus domain.CaseStatus
}

// PoliceSetChanged is emitted when an address joins or leaves the police set.
type PoliceSetChanged struct {
	Police domain.Address
	Added  bool
}

func (CaseFiled) Name() EventName         { return EventCaseFiled }
func (CaseAssigned) Name() EventName      { return EventCaseAssigned }
func (CaseStatusChanged) Name() EventName { return EventCaseStatusChanged }
func (PoliceSetChanged) Name() EventName  { return EventPoliceSetChanged }

// Confirmation is the inclusion receipt for a write. Version is the ledger's
// monotonic height at inclusion time.
type Confirmation struct {
	TxID    string
	Version uint64
	CaseID  domain.CaseID
}

// Reader exposes the ledger's read queries. Implementations must be safe for
// concurrent use; reads never mutate state.
type Reader interface {
	CaseByID(ctx context.Context, id domain.CaseID) (domain.CaseRecord, error)
	CasesByComplainant(ctx context.Context, addr domain.Address) ([]domain.CaseRecord, error)
	AllCases(ctx context.Context) ([]domain.CaseRecord, error)
	GovernmentAddress(ctx context.Context) (domain.Address, error)
	IsPolice(ctx context.Context, addr domain.Address) (bool, error)
	PoliceSet(ctx context.Context) ([]domain.Address, error)
}

// Writer exposes the ledger's mutating operations. Each call blocks until the
// ledger confirms inclusion or fails; there is no fire-and-forget path.
type Writer interface {
	SubmitCase(ctx context.Context, complainant domain.Address, payload domain.CasePayload) (Confirmation, error)
	AssignCase(ctx context.Context, id domain.CaseID, police domain.Address) (Confirmation, error)
	UpdateStatus(ctx context.Context, id domain.CaseID, status domain.CaseStatus, remark string) (Confirmation, error)
	AddPolice(ctx context.Context, police domain.Address) (Confirmation, error)
	RemovePolice(ctx context.Context, police domain.Address) (Confirmation, error)
}

// Watcher delivers change notifications. The returned channel closes when the
// context is cancelled; events may arrive in any order relative to wallet
// notifications.
type Watcher interface {
	Watch(ctx context.Context) (<-chan Event, error)
}

// Ledger is the full collaborator surface.
type Ledger interface {
	Reader
	Writer
	Watcher
}
