package readmodel

import (
	"context"
	"sync"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
)

// Scope supplies the viewing role and address at fetch time, so a list model
// follows the session instead of freezing the role it was mounted under.
type Scope func() (domain.Role, domain.Address)

// CaseListModel is the case list view: a citizen sees their own filings,
// police and government see everything.
type CaseListModel struct {
	mu     sync.RWMutex
	cases  []domain.CaseRecord
	err    error
	handle Handle
	sync   *Synchronizer
}

// NewCaseListModel mounts the list on the synchronizer. Call Close on
// unmount.
func NewCaseListModel(s *Synchronizer, reader ledger.Reader, scope Scope) *CaseListModel {
	m := &CaseListModel{sync: s}
	m.handle = s.Subscribe(
		[]ledger.EventName{ledger.EventCaseFiled, ledger.EventCaseAssigned, ledger.EventCaseStatusChanged},
		func(ctx context.Context) (any, error) {
			role, addr := scope()
			if role.CanViewAllCases() {
				return reader.AllCases(ctx)
			}
			return reader.CasesByComplainant(ctx, addr)
		},
		m.apply,
	)
	return m
}

func (m *CaseListModel) apply(snapshot any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.err = err
		return
	}
	m.cases = snapshot.([]domain.CaseRecord)
	m.err = nil
}

// Snapshot returns the current list and the last refetch error, if any. An
// error never blanks the list; the previous snapshot stays visible.
func (m *CaseListModel) Snapshot() ([]domain.CaseRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.CaseRecord(nil), m.cases...), m.err
}

func (m *CaseListModel) Close() {
	m.sync.Unsubscribe(m.handle)
}

// CaseDetailModel is a single case's detail view.
type CaseDetailModel struct {
	mu     sync.RWMutex
	record domain.CaseRecord
	loaded bool
	err    error
	handle Handle
	sync   *Synchronizer
}

func NewCaseDetailModel(s *Synchronizer, reader ledger.Reader, id domain.CaseID) *CaseDetailModel {
	m := &CaseDetailModel{sync: s}
	m.handle = s.Subscribe(
		[]ledger.EventName{ledger.EventCaseAssigned, ledger.EventCaseStatusChanged},
		func(ctx context.Context) (any, error) {
			return reader.CaseByID(ctx, id)
		},
		m.apply,
	)
	return m
}

func (m *CaseDetailModel) apply(snapshot any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.err = err
		return
	}
	m.record = snapshot.(domain.CaseRecord)
	m.loaded = true
	m.err = nil
}

// Snapshot returns the record, whether an initial load has completed, and the
// last refetch error.
func (m *CaseDetailModel) Snapshot() (domain.CaseRecord, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.record.Clone(), m.loaded, m.err
}

func (m *CaseDetailModel) Close() {
	m.sync.Unsubscribe(m.handle)
}

// PoliceRosterModel tracks the active police set for assignment pickers and
// government management screens.
type PoliceRosterModel struct {
	mu     sync.RWMutex
	roster []domain.Address
	err    error
	handle Handle
	sync   *Synchronizer
}

func NewPoliceRosterModel(s *Synchronizer, reader ledger.Reader) *PoliceRosterModel {
	m := &PoliceRosterModel{sync: s}
	m.handle = s.Subscribe(
		[]ledger.EventName{ledger.EventPoliceSetChanged},
		func(ctx context.Context) (any, error) {
			return reader.PoliceSet(ctx)
		},
		m.apply,
	)
	return m
}

func (m *PoliceRosterModel) apply(snapshot any, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err != nil {
		m.err = err
		return
	}
	m.roster = snapshot.([]domain.Address)
	m.err = nil
}

func (m *PoliceRosterModel) Snapshot() ([]domain.Address, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]domain.Address(nil), m.roster...), m.err
}

func (m *PoliceRosterModel) Close() {
	m.sync.Unsubscribe(m.handle)
}
