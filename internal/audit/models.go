// Package audit captures structured audit events for authentication and
// workflow actions. Publishing is best-effort: an unreachable sink never
// fails the action being audited.
package audit

import "time"

// EventKind names an auditable action.
type EventKind string

const (
	EventAuthSucceeded EventKind = "auth.succeeded"
	EventAuthFailed    EventKind = "auth.failed"
	EventCaseSubmitted EventKind = "case.submitted"
	EventCaseAssigned  EventKind = "case.assigned"
	EventStatusUpdated EventKind = "case.status_updated"
	EventPoliceChanged EventKind = "police.set_changed"
)

// Event is one audit record. Actor is the acting address in canonical form;
// Detail carries event-specific context.
type Event struct {
	Kind   EventKind         `json:"kind"`
	Actor  string            `json:"actor"`
	CaseID uint64            `json:"caseId,omitempty"`
	At     time.Time         `json:"at"`
	Detail map[string]string `json:"detail,omitempty"`
}
