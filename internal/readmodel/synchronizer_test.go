package readmodel

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
)

// recorder captures applied snapshots.
type recorder struct {
	mu      sync.Mutex
	applied []any
	errs    []error
}

func (r *recorder) apply(snapshot any, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		r.errs = append(r.errs, err)
		return
	}
	r.applied = append(r.applied, snapshot)
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func (r *recorder) last() any {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.applied) == 0 {
		return nil
	}
	return r.applied[len(r.applied)-1]
}

// gatedFetch blocks each fetch call until a value is pushed through the gate.
type gatedFetch struct {
	mu    sync.Mutex
	calls int
	gate  chan any
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{gate: make(chan any)}
}

func (f *gatedFetch) fetch(context.Context) (any, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return <-f.gate, nil
}

func (f *gatedFetch) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type SynchronizerSuite struct {
	suite.Suite
	ledger  *ledger.InMemoryLedger
	sync    *Synchronizer
	citizen domain.Address
	cancel  context.CancelFunc
	ctx     context.Context
}

func (s *SynchronizerSuite) SetupTest() {
	s.citizen = domain.DeriveAddress([]byte("citizen-key"))
	s.ledger = ledger.NewInMemory(domain.DeriveAddress([]byte("government-key")))
	s.sync = NewSynchronizer(s.ledger, nil, slog.Default())

	s.ctx, s.cancel = context.WithCancel(context.Background())
	go func() { _ = s.sync.Run(s.ctx) }()
	// Give Run a moment to register its ledger watcher, otherwise early
	// submissions race the subscription.
	time.Sleep(10 * time.Millisecond)
}

func (s *SynchronizerSuite) TearDownTest() {
	s.cancel()
}

func TestSynchronizerSuite(t *testing.T) {
	suite.Run(t, new(SynchronizerSuite))
}

func (s *SynchronizerSuite) fileCase() {
	_, err := s.ledger.SubmitCase(context.Background(), s.citizen, domain.CasePayload{
		CaseType:     domain.CaseTypeFraudCall,
		Descriptions: []string{"test filing"},
		IncidentAt:   time.Now().Add(-time.Hour),
	})
	s.Require().NoError(err)
}

func (s *SynchronizerSuite) TestSubscribeTriggersInitialFetch() {
	rec := &recorder{}
	fetched := 0
	s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled},
		func(context.Context) (any, error) { fetched++; return "initial", nil },
		rec.apply,
	)

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Equal("initial", rec.last())
}

func (s *SynchronizerSuite) TestWatchedEventTriggersRefetch() {
	rec := &recorder{}
	s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled},
		func(ctx context.Context) (any, error) { return s.ledger.AllCases(ctx) },
		rec.apply,
	)
	s.Eventually(func() bool { return rec.count() >= 1 }, time.Second, 5*time.Millisecond)

	s.fileCase()

	s.Eventually(func() bool {
		cases, ok := rec.last().([]domain.CaseRecord)
		return ok && len(cases) == 1
	}, time.Second, 5*time.Millisecond)
}

func (s *SynchronizerSuite) TestUnwatchedEventDoesNotTrigger() {
	rec := &recorder{}
	s.sync.Subscribe([]ledger.EventName{ledger.EventPoliceSetChanged},
		func(context.Context) (any, error) { return "fetched", nil },
		rec.apply,
	)
	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	s.fileCase() // emits CaseFiled, not PoliceSetChanged

	time.Sleep(50 * time.Millisecond)
	s.Equal(1, rec.count())
}

func (s *SynchronizerSuite) TestUnsubscribeIsDeterministic() {
	s.Run("no refetch after unsubscribe", func() {
		rec := &recorder{}
		h := s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled},
			func(context.Context) (any, error) { return "fetched", nil },
			rec.apply,
		)
		s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

		s.sync.Unsubscribe(h)
		s.fileCase()

		time.Sleep(50 * time.Millisecond)
		s.Equal(1, rec.count())
	})

	s.Run("in-flight result is discarded", func() {
		rec := &recorder{}
		fetch := newGatedFetch()
		h := s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled}, fetch.fetch, rec.apply)

		s.Eventually(func() bool { return fetch.callCount() == 1 }, time.Second, 5*time.Millisecond)
		s.sync.Unsubscribe(h)
		fetch.gate <- "stale"

		time.Sleep(50 * time.Millisecond)
		s.Equal(0, rec.count(), "a result completing after unsubscribe must never be applied")
	})
}

func (s *SynchronizerSuite) TestEventBurstCoalesces() {
	rec := &recorder{}
	fetch := newGatedFetch()
	s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled}, fetch.fetch, rec.apply)
	s.Eventually(func() bool { return fetch.callCount() == 1 }, time.Second, 5*time.Millisecond)

	// Three filings land while the initial fetch is still in flight.
	s.fileCase()
	s.fileCase()
	s.fileCase()
	time.Sleep(20 * time.Millisecond)

	fetch.gate <- "superseded" // initial fetch: overtaken, discarded
	fetch.gate <- "final"      // single trailing refetch for the whole burst

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Equal("final", rec.last())
	s.Equal(2, fetch.callCount(), "a burst must coalesce into one trailing refetch")
}

func (s *SynchronizerSuite) TestStaleResultNeverOverwritesNewer() {
	rec := &recorder{}
	fetch := newGatedFetch()
	s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled}, fetch.fetch, rec.apply)
	s.Eventually(func() bool { return fetch.callCount() == 1 }, time.Second, 5*time.Millisecond)

	s.fileCase() // overtakes the in-flight fetch
	time.Sleep(20 * time.Millisecond)

	fetch.gate <- "old-world"
	fetch.gate <- "new-world"

	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)
	s.Equal("new-world", rec.last(), "last trigger wins, not last completion")
}

func (s *SynchronizerSuite) TestFetchErrorKeepsPreviousSnapshot() {
	rec := &recorder{}
	failNext := false
	var mu sync.Mutex
	s.sync.Subscribe([]ledger.EventName{ledger.EventCaseFiled},
		func(ctx context.Context) (any, error) {
			mu.Lock()
			defer mu.Unlock()
			if failNext {
				return nil, context.DeadlineExceeded
			}
			return "good", nil
		},
		rec.apply,
	)
	s.Eventually(func() bool { return rec.count() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	failNext = true
	mu.Unlock()
	s.fileCase()

	s.Eventually(func() bool {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		return len(rec.errs) == 1
	}, time.Second, 5*time.Millisecond)
	s.Equal("good", rec.last(), "an error must surface without blanking the snapshot")
}
