// Package workflow validates and requests case state transitions. All
// authorization lives in this package's transition table; views render from
// role but never re-implement gating.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"firtrace/internal/audit"
	"firtrace/internal/ledger"
	"firtrace/internal/session"
	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
	"firtrace/pkg/platform/sentinel"
	"firtrace/pkg/requestcontext"
)

var (
	transitionsRequested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firtrace_workflow_transitions_total",
		Help: "Requested workflow operations by kind",
	}, []string{"kind"})
	transitionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "firtrace_workflow_rejections_total",
		Help: "Workflow operations rejected before reaching the ledger",
	}, []string{"code"})
)

// SessionSource supplies the current actor. The engine never caches a
// session; every operation re-reads the snapshot so a context switch between
// calls is always observed.
type SessionSource interface {
	Snapshot() session.Session
}

// Engine requests ledger execution for case transitions. Operations are
// submit-and-wait: they resolve on inclusion confirmation and mutate no
// read-model — UI-visible effects arrive only through the synchronizer once
// the ledger emits the corresponding event.
type Engine struct {
	reads    ledger.Reader
	writes   ledger.Writer
	sessions SessionSource
	audit    audit.Publisher
	tracer   trace.Tracer
	logger   *slog.Logger
}

// NewEngine takes the read and write surfaces separately so the write path
// can be decorated (sponsored submission) without wrapping reads. Pass the
// same ledger for both when no decoration is wanted.
func NewEngine(reads ledger.Reader, writes ledger.Writer, sessions SessionSource, auditor audit.Publisher, logger *slog.Logger) *Engine {
	return &Engine{
		reads:    reads,
		writes:   writes,
		sessions: sessions,
		audit:    auditor,
		tracer:   otel.Tracer("firtrace/workflow"),
		logger:   logger,
	}
}

// gate authorizes one transition edge for the acting session against the
// current record.
type gate func(s session.Session, rec domain.CaseRecord) error

func governmentOnly(s session.Session, _ domain.CaseRecord) error {
	if s.Role != domain.RoleGovernment {
		return dErrors.New(dErrors.CodeNotAuthorized, "government role required")
	}
	return nil
}

func assignedPoliceOnly(s session.Session, rec domain.CaseRecord) error {
	if s.Role != domain.RolePolice || s.Actor() != rec.AssignedPolice {
		return dErrors.New(dErrors.CodeNotAuthorized, "only the assigned police wallet may progress this case")
	}
	return nil
}

func closeGate(s session.Session, rec domain.CaseRecord) error {
	if s.Role == domain.RoleGovernment {
		return nil
	}
	if s.Role == domain.RolePolice && !rec.AssignedPolice.IsZero() && s.Actor() == rec.AssignedPolice {
		return nil
	}
	return dErrors.New(dErrors.CodeNotAuthorized, "closing requires government or the assigned police wallet")
}

// statusEdges is the legal (from, to) set for UpdateStatus. Verified →
// UnderProcess is deliberately absent: that edge carries an assignment and
// only exists through Assign. Rejected and Closed are terminal.
var statusEdges = map[domain.CaseStatus]map[domain.CaseStatus]gate{
	domain.StatusSubmitted: {
		domain.StatusVerified: governmentOnly,
		domain.StatusRejected: governmentOnly,
		domain.StatusClosed:   closeGate,
	},
	domain.StatusVerified: {
		domain.StatusClosed: closeGate,
	},
	domain.StatusUnderProcess: {
		domain.StatusUnderProcess: assignedPoliceOnly,
		domain.StatusClosed:       closeGate,
	},
}

// Submit files a new case for the current citizen session.
//
// Errors: CodeNotAuthorized unless the session is an authenticated citizen;
// CodeInvalidCasePayload naming the first failing field; CodeLedgerUnavailable
// when the ledger cannot confirm inclusion.
func (e *Engine) Submit(ctx context.Context, payload domain.CasePayload) (ledger.Confirmation, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.submit")
	defer span.End()
	transitionsRequested.WithLabelValues("submit").Inc()

	s := e.sessions.Snapshot()
	if !s.Authenticated() {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeNotAuthorized, "authentication required"))
	}
	if s.Role != domain.RoleCitizen {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeNotAuthorized, "only citizens file cases"))
	}
	payload = payload.Normalized()
	if err := payload.Validate(requestcontext.Now(ctx)); err != nil {
		return ledger.Confirmation{}, e.reject(err)
	}

	conf, err := e.writes.SubmitCase(requestcontext.WithActor(ctx, s.Actor()), s.Actor(), payload)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "submit case")
	}
	span.SetAttributes(attribute.Int64("case.id", int64(conf.CaseID)))

	e.emit(ctx, audit.EventCaseSubmitted, s.Actor(), uint64(conf.CaseID), map[string]string{
		"caseType": payload.CaseType.String(),
	})
	return conf, nil
}

// Assign moves a Verified case to UnderProcess under a police wallet.
//
// Errors: CodeNotAuthorized unless government; CodeInvalidTransition unless
// the case is currently Verified; CodeUnknownPoliceAddress when the target is
// not in the active police set.
func (e *Engine) Assign(ctx context.Context, caseID domain.CaseID, police domain.Address) (ledger.Confirmation, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.assign",
		trace.WithAttributes(attribute.Int64("case.id", int64(caseID))))
	defer span.End()
	transitionsRequested.WithLabelValues("assign").Inc()

	s := e.sessions.Snapshot()
	if !s.Authenticated() || s.Role != domain.RoleGovernment {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeNotAuthorized, "assignment is a government action"))
	}

	rec, err := e.reads.CaseByID(ctx, caseID)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "load case")
	}
	if rec.Status != domain.StatusVerified {
		return ledger.Confirmation{}, e.reject(dErrors.Newf(dErrors.CodeInvalidTransition,
			"case is %s; only a verified case can be assigned", rec.Status))
	}

	isPolice, err := e.reads.IsPolice(ctx, police)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "check police set")
	}
	if !isPolice {
		return ledger.Confirmation{}, e.reject(dErrors.Newf(dErrors.CodeUnknownPoliceAddress,
			"%s is not an active police wallet", police))
	}

	conf, err := e.writes.AssignCase(requestcontext.WithActor(ctx, s.Actor()), caseID, police)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "assign case")
	}

	e.emit(ctx, audit.EventCaseAssigned, s.Actor(), uint64(caseID), map[string]string{
		"police": police.String(),
	})
	return conf, nil
}

// UpdateStatus requests a status transition with a mandatory remark.
//
// Errors: CodeMissingRemark for an empty remark; CodeInvalidTransition for
// any (from, to) pair outside the table — including every attempt to leave
// Closed or Rejected — regardless of role; CodeNotAuthorized when the edge
// exists but the caller fails its gate.
func (e *Engine) UpdateStatus(ctx context.Context, caseID domain.CaseID, newStatus domain.CaseStatus, remark string) (ledger.Confirmation, error) {
	ctx, span := e.tracer.Start(ctx, "workflow.update_status",
		trace.WithAttributes(
			attribute.Int64("case.id", int64(caseID)),
			attribute.String("status.to", newStatus.String()),
		))
	defer span.End()
	transitionsRequested.WithLabelValues("update_status").Inc()

	if strings.TrimSpace(remark) == "" {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeMissingRemark, "a remark is required for status updates"))
	}

	s := e.sessions.Snapshot()
	if !s.Authenticated() {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeNotAuthorized, "authentication required"))
	}

	rec, err := e.reads.CaseByID(ctx, caseID)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "load case")
	}

	edge, ok := statusEdges[rec.Status][newStatus]
	if !ok {
		return ledger.Confirmation{}, e.reject(dErrors.Newf(dErrors.CodeInvalidTransition,
			"no transition from %s to %s", rec.Status, newStatus))
	}
	if err := edge(s, rec); err != nil {
		return ledger.Confirmation{}, e.reject(err)
	}

	conf, err := e.writes.UpdateStatus(requestcontext.WithActor(ctx, s.Actor()), caseID, newStatus, remark)
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, "update status")
	}

	e.emit(ctx, audit.EventStatusUpdated, s.Actor(), uint64(caseID), map[string]string{
		"from": rec.Status.String(),
		"to":   newStatus.String(),
	})
	return conf, nil
}

// AddPolice registers a police wallet. Government only.
func (e *Engine) AddPolice(ctx context.Context, police domain.Address) (ledger.Confirmation, error) {
	return e.managePolice(ctx, police, true)
}

// RemovePolice retires a police wallet. Government only. Existing
// assignments keep their address; only future assignments are affected.
func (e *Engine) RemovePolice(ctx context.Context, police domain.Address) (ledger.Confirmation, error) {
	return e.managePolice(ctx, police, false)
}

func (e *Engine) managePolice(ctx context.Context, police domain.Address, add bool) (ledger.Confirmation, error) {
	kind := "remove_police"
	if add {
		kind = "add_police"
	}
	ctx, span := e.tracer.Start(ctx, "workflow."+kind)
	defer span.End()
	transitionsRequested.WithLabelValues(kind).Inc()

	s := e.sessions.Snapshot()
	if !s.Authenticated() || s.Role != domain.RoleGovernment {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeNotAuthorized, "the police set is government-managed"))
	}
	if police.IsZero() {
		return ledger.Confirmation{}, e.reject(dErrors.New(dErrors.CodeInvalidInput, "police address is required"))
	}

	var (
		conf ledger.Confirmation
		err  error
	)
	actorCtx := requestcontext.WithActor(ctx, s.Actor())
	if add {
		conf, err = e.writes.AddPolice(actorCtx, police)
	} else {
		conf, err = e.writes.RemovePolice(actorCtx, police)
	}
	if err != nil {
		return ledger.Confirmation{}, e.ledgerError(err, kind)
	}

	e.emit(ctx, audit.EventPoliceChanged, s.Actor(), 0, map[string]string{
		"police": police.String(),
		"added":  map[bool]string{true: "true", false: "false"}[add],
	})
	return conf, nil
}

// reject counts a policy rejection and passes the error through verbatim.
// Workflow errors indicate policy violations, not transient faults; callers
// must not retry them.
func (e *Engine) reject(err error) error {
	transitionsRejected.WithLabelValues(string(dErrors.CodeOf(err))).Inc()
	return err
}

// ledgerError translates collaborator failures into coded errors.
func (e *Engine) ledgerError(err error, op string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, op+": unknown case")
	case errors.Is(err, sentinel.ErrInvalidState):
		// The ledger refused a write our table allowed; surface it as the
		// transition failure it is rather than hiding it as infrastructure.
		return dErrors.Wrap(err, dErrors.CodeInvalidTransition, op+": ledger refused transition")
	default:
		return dErrors.Wrap(err, dErrors.CodeLedgerUnavailable, op+": ledger unavailable")
	}
}

func (e *Engine) emit(ctx context.Context, kind audit.EventKind, actor domain.Address, caseID uint64, detail map[string]string) {
	if e.audit == nil {
		return
	}
	e.audit.Emit(ctx, audit.Event{
		Kind:   kind,
		Actor:  actor.String(),
		CaseID: caseID,
		At:     requestcontext.Now(ctx),
		Detail: detail,
	})
}
