package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"firtrace/pkg/domain"
	"firtrace/pkg/platform/sentinel"
	"firtrace/pkg/requestcontext"
)

// Error contract:
// - Return sentinel.ErrNotFound when a case does not exist
// - Return sentinel.ErrInvalidState when the ledger refuses a write for the
//   entity's current state or the caller's on-ledger standing
// - Return nil for successful operations
//
// Policy-level gating (role tables, remark rules) belongs to the workflow
// engine; the in-memory ledger only enforces what the contract itself would.

// InMemoryLedger simulates the authoritative contract for tests and local
// development. The acting address is taken from the request context, the way
// the contract reads its transaction sender.
type InMemoryLedger struct {
	mu         sync.RWMutex
	government domain.Address
	police     map[domain.Address]bool
	cases      map[domain.CaseID]*domain.CaseRecord
	nextCaseID domain.CaseID
	version    uint64

	watchMu  sync.Mutex
	watchers map[int]chan Event
	nextWID  int
}

// NewInMemory constructs an empty ledger governed by the given address.
func NewInMemory(government domain.Address) *InMemoryLedger {
	return &InMemoryLedger{
		government: government,
		police:     make(map[domain.Address]bool),
		cases:      make(map[domain.CaseID]*domain.CaseRecord),
		nextCaseID: 1,
		watchers:   make(map[int]chan Event),
	}
}

func (l *InMemoryLedger) CaseByID(_ context.Context, id domain.CaseID) (domain.CaseRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	rec, ok := l.cases[id]
	if !ok {
		return domain.CaseRecord{}, fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (l *InMemoryLedger) CasesByComplainant(_ context.Context, addr domain.Address) ([]domain.CaseRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.CaseRecord, 0)
	for id := domain.CaseID(1); id < l.nextCaseID; id++ {
		if rec, ok := l.cases[id]; ok && rec.Complainant == addr {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (l *InMemoryLedger) AllCases(_ context.Context) ([]domain.CaseRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.CaseRecord, 0, len(l.cases))
	for id := domain.CaseID(1); id < l.nextCaseID; id++ {
		if rec, ok := l.cases[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

func (l *InMemoryLedger) GovernmentAddress(_ context.Context) (domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.government, nil
}

func (l *InMemoryLedger) IsPolice(_ context.Context, addr domain.Address) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.police[addr], nil
}

func (l *InMemoryLedger) PoliceSet(_ context.Context) ([]domain.Address, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.Address, 0, len(l.police))
	for addr := range l.police {
		out = append(out, addr)
	}
	return out, nil
}

func (l *InMemoryLedger) SubmitCase(ctx context.Context, complainant domain.Address, payload domain.CasePayload) (Confirmation, error) {
	l.mu.Lock()
	id := l.nextCaseID
	l.nextCaseID++
	rec := &domain.CaseRecord{
		ID:              id,
		CaseType:        payload.CaseType,
		Status:          domain.StatusSubmitted,
		Complainant:     complainant,
		AccusedEntries:  append([]string(nil), payload.AccusedEntries...),
		EvidenceDigests: append([]domain.ContentDigest(nil), payload.EvidenceDigests...),
		Descriptions:    append([]string(nil), payload.Descriptions...),
		FiledAt:         requestcontext.Now(ctx),
		IncidentAt:      payload.IncidentAt,
	}
	l.cases[id] = rec
	conf := l.confirm(id)
	l.mu.Unlock()

	l.emit(CaseFiled{CaseID: id, Complainant: complainant})
	return conf, nil
}

func (l *InMemoryLedger) AssignCase(ctx context.Context, id domain.CaseID, police domain.Address) (Confirmation, error) {
	l.mu.Lock()
	rec, ok := l.cases[id]
	if !ok {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	if caller := requestcontext.Actor(ctx); caller != l.government {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("assign requires the government account: %w", sentinel.ErrInvalidState)
	}
	if rec.Status != domain.StatusVerified {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("case %d is %s, not verified: %w", id, rec.Status, sentinel.ErrInvalidState)
	}
	if !l.police[police] {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("%s is not a police wallet: %w", police, sentinel.ErrInvalidState)
	}
	rec.AssignedPolice = police
	rec.Status = domain.StatusUnderProcess
	conf := l.confirm(id)
	l.mu.Unlock()

	l.emit(CaseAssigned{CaseID: id, Police: police})
	l.emit(CaseStatusChanged{CaseID: id, NewStatus: domain.StatusUnderProcess})
	return conf, nil
}

func (l *InMemoryLedger) UpdateStatus(ctx context.Context, id domain.CaseID, status domain.CaseStatus, remark string) (Confirmation, error) {
	l.mu.Lock()
	rec, ok := l.cases[id]
	if !ok {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("case %d: %w", id, sentinel.ErrNotFound)
	}
	if caller := requestcontext.Actor(ctx); caller != l.government &&
		(rec.AssignedPolice.IsZero() || caller != rec.AssignedPolice) {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("status updates require the government or assigned police account: %w", sentinel.ErrInvalidState)
	}
	if rec.Status == domain.StatusClosed {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("case %d is closed: %w", id, sentinel.ErrInvalidState)
	}
	rec.Status = status
	if remark != "" {
		// Remarks are append-only; nothing ever rewrites earlier entries.
		rec.Remarks = append(rec.Remarks, remark)
	}
	conf := l.confirm(id)
	l.mu.Unlock()

	l.emit(CaseStatusChanged{CaseID: id, NewStatus: status})
	return conf, nil
}

func (l *InMemoryLedger) AddPolice(ctx context.Context, police domain.Address) (Confirmation, error) {
	l.mu.Lock()
	if caller := requestcontext.Actor(ctx); caller != l.government {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("police set is government-managed: %w", sentinel.ErrInvalidState)
	}
	l.police[police] = true
	conf := l.confirm(0)
	l.mu.Unlock()

	l.emit(PoliceSetChanged{Police: police, Added: true})
	return conf, nil
}

func (l *InMemoryLedger) RemovePolice(ctx context.Context, police domain.Address) (Confirmation, error) {
	l.mu.Lock()
	if caller := requestcontext.Actor(ctx); caller != l.government {
		l.mu.Unlock()
		return Confirmation{}, fmt.Errorf("police set is government-managed: %w", sentinel.ErrInvalidState)
	}
	delete(l.police, police)
	conf := l.confirm(0)
	l.mu.Unlock()

	l.emit(PoliceSetChanged{Police: police, Added: false})
	return conf, nil
}

// SeedPolice installs a police wallet without a government transaction.
// Test/bootstrap helper.
func (l *InMemoryLedger) SeedPolice(addrs ...domain.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, a := range addrs {
		l.police[a] = true
	}
}

// Version returns the current ledger height.
func (l *InMemoryLedger) Version() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.version
}

func (l *InMemoryLedger) confirm(id domain.CaseID) Confirmation {
	l.version++
	return Confirmation{TxID: uuid.NewString(), Version: l.version, CaseID: id}
}

// Watch registers an event channel that closes when ctx is cancelled.
func (l *InMemoryLedger) Watch(ctx context.Context) (<-chan Event, error) {
	l.watchMu.Lock()
	wid := l.nextWID
	l.nextWID++
	ch := make(chan Event, 64)
	l.watchers[wid] = ch
	l.watchMu.Unlock()

	go func() {
		<-ctx.Done()
		l.watchMu.Lock()
		delete(l.watchers, wid)
		close(ch)
		l.watchMu.Unlock()
	}()

	return ch, nil
}

func (l *InMemoryLedger) emit(ev Event) {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	for _, ch := range l.watchers {
		select {
		case ch <- ev:
		default:
			// A stalled watcher must not block confirmations. Watchers that
			// fall behind miss events and rely on their next refetch.
		}
	}
}
