// Package readmodel keeps client-held projections of ledger state fresh.
//
// Views register a fetch function plus the ledger events they care about; the
// synchronizer handles event wiring, burst coalescing and teardown once, so
// no view re-implements polling or listener lifecycle.
package readmodel

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"firtrace/internal/ledger"
	"firtrace/internal/session"
	"firtrace/pkg/domain"
)

var (
	refetchesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firtrace_refetches_total",
		Help: "Total refetches executed by the read-model synchronizer",
	})
	refetchesCoalesced = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firtrace_refetches_coalesced_total",
		Help: "Triggers folded into an already-pending refetch",
	})
	refetchesStale = promauto.NewCounter(prometheus.CounterOpts{
		Name: "firtrace_refetches_stale_discarded_total",
		Help: "Refetch results discarded because a newer trigger arrived mid-flight",
	})
	refetchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "firtrace_refetch_duration_seconds",
		Help:    "Latency of read-model refetches",
		Buckets: prometheus.DefBuckets,
	})
)

// FetchFunc loads a fresh snapshot from the ledger. It observes ledger state
// at-or-after the event that triggered it.
type FetchFunc func(ctx context.Context) (any, error)

// ApplyFunc receives the refetch outcome. On error the subscriber keeps its
// previous snapshot (stale-but-available beats empty) and surfaces the error.
//
// Called with the synchronizer's internal lock held so stale results can be
// rejected atomically: implementations must be quick and must not call back
// into the synchronizer.
type ApplyFunc func(snapshot any, err error)

// Handle identifies a subscription for teardown.
type Handle struct {
	id uuid.UUID
}

type subscription struct {
	id      uuid.UUID
	watched map[ledger.EventName]struct{}
	fetch   FetchFunc
	apply   ApplyFunc

	// version counts triggers; a refetch that started at an older version
	// discards its own result. Last trigger wins, not last completion.
	version  uint64
	inflight bool
}

// Synchronizer fans ledger events out to subscriptions and keeps at most one
// refetch in flight per subscription.
type Synchronizer struct {
	watcher  ledger.Watcher
	sessions *session.Manager // nil outside an authenticated client context
	logger   *slog.Logger

	mu           sync.Mutex
	ctx          context.Context
	subs         map[uuid.UUID]*subscription
	lastIdentity domain.Identity
}

func NewSynchronizer(watcher ledger.Watcher, sessions *session.Manager, logger *slog.Logger) *Synchronizer {
	return &Synchronizer{
		watcher:  watcher,
		sessions: sessions,
		logger:   logger,
		ctx:      context.Background(),
		subs:     make(map[uuid.UUID]*subscription),
	}
}

// Subscribe registers interest in a set of ledger events and triggers one
// immediate refetch for the initial load.
func (s *Synchronizer) Subscribe(events []ledger.EventName, fetch FetchFunc, apply ApplyFunc) Handle {
	sub := &subscription{
		id:      uuid.New(),
		watched: make(map[ledger.EventName]struct{}, len(events)),
		fetch:   fetch,
		apply:   apply,
	}
	for _, ev := range events {
		sub.watched[ev] = struct{}{}
	}

	s.mu.Lock()
	s.subs[sub.id] = sub
	s.triggerLocked(sub)
	s.mu.Unlock()

	return Handle{id: sub.id}
}

// Unsubscribe tears the subscription down deterministically: once it returns,
// no watched event will invoke the subscription's fetch or apply again, and
// any in-flight refetch result is discarded.
func (s *Synchronizer) Unsubscribe(h Handle) {
	s.mu.Lock()
	delete(s.subs, h.id)
	s.mu.Unlock()
}

// Run consumes ledger events and session context switches until ctx is
// cancelled. An identity or chain change atomically re-triggers every live
// subscription; no view keeps rendering data scoped to a stale identity.
func (s *Synchronizer) Run(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()

	events, err := s.watcher.Watch(ctx)
	if err != nil {
		return err
	}

	var sessions <-chan session.Session
	if s.sessions != nil {
		sessions = s.sessions.Watch(ctx)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			s.dispatch(ev)
		case snap, ok := <-sessions:
			if !ok {
				sessions = nil
				continue
			}
			s.handleContextSwitch(snap.Identity)
		}
	}
}

// dispatch re-triggers every subscription watching the event's name.
func (s *Synchronizer) dispatch(ev ledger.Event) {
	name := ev.Name()
	s.mu.Lock()
	for _, sub := range s.subs {
		if _, watching := sub.watched[name]; watching {
			s.triggerLocked(sub)
		}
	}
	s.mu.Unlock()
}

// handleContextSwitch invalidates all subscriptions when the authenticated
// identity or chain changes. One lock pass keeps the invalidation atomic.
func (s *Synchronizer) handleContextSwitch(ident domain.Identity) {
	s.mu.Lock()
	if ident == s.lastIdentity {
		s.mu.Unlock()
		return
	}
	s.lastIdentity = ident
	for _, sub := range s.subs {
		s.triggerLocked(sub)
	}
	s.mu.Unlock()
}

// triggerLocked schedules a refetch. If one is already in flight the new
// trigger is coalesced into it rather than queued: bursts of events produce
// at most one trailing refetch, never a backlog.
func (s *Synchronizer) triggerLocked(sub *subscription) {
	sub.version++
	if sub.inflight {
		refetchesCoalesced.Inc()
		return
	}
	sub.inflight = true
	go s.refetch(sub.id)
}

// refetch runs fetches for a subscription until its result is current. A
// result whose starting version was overtaken mid-flight is discarded and the
// fetch re-runs; the subscriber only ever observes the newest outcome.
func (s *Synchronizer) refetch(id uuid.UUID) {
	for {
		s.mu.Lock()
		sub, ok := s.subs[id]
		if !ok {
			s.mu.Unlock()
			return
		}
		startVersion := sub.version
		fetch := sub.fetch
		ctx := s.ctx
		s.mu.Unlock()

		started := time.Now()
		snapshot, err := fetch(ctx)
		refetchDuration.Observe(time.Since(started).Seconds())
		refetchesTotal.Inc()

		s.mu.Lock()
		sub, ok = s.subs[id]
		if !ok {
			// Unsubscribed mid-flight.
			s.mu.Unlock()
			return
		}
		if sub.version != startVersion {
			refetchesStale.Inc()
			s.mu.Unlock()
			continue
		}
		sub.inflight = false
		if err != nil {
			s.logger.Warn("refetch failed, keeping previous snapshot",
				"subscription", id.String(),
				"error", err,
			)
		}
		sub.apply(snapshot, err)
		s.mu.Unlock()
		return
	}
}
