package relay

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
	"firtrace/pkg/requestcontext"
)

// scriptedCaller fails or succeeds on demand and records the calls it saw.
type scriptedCaller struct {
	fail  bool
	calls []SponsoredCallRequest
}

func (c *scriptedCaller) SponsoredCall(_ context.Context, req SponsoredCallRequest) (SponsoredCallResponse, error) {
	c.calls = append(c.calls, req)
	if c.fail {
		return SponsoredCallResponse{}, errors.New("relay down")
	}
	return SponsoredCallResponse{TaskID: "task-1", Version: 7, CaseID: 42}, nil
}

type SponsoredWriterSuite struct {
	suite.Suite
	ledger     *ledger.InMemoryLedger
	relay      *scriptedCaller
	writer     *SponsoredWriter
	government domain.Address
	citizen    domain.Address
	ctx        context.Context
}

func (s *SponsoredWriterSuite) SetupTest() {
	s.government = domain.DeriveAddress([]byte("government-key"))
	s.ledger = ledger.NewInMemory(s.government)
	s.relay = &scriptedCaller{}
	s.writer = NewSponsoredWriter(s.ledger, s.relay, "0xcasefiling", 1, slog.Default())
	s.citizen = domain.DeriveAddress([]byte("citizen-key"))
	s.ctx = context.Background()
}

func TestSponsoredWriterSuite(t *testing.T) {
	suite.Run(t, new(SponsoredWriterSuite))
}

func (s *SponsoredWriterSuite) payload() domain.CasePayload {
	return domain.CasePayload{
		CaseType:        domain.CaseTypeFraudCall,
		EvidenceDigests: []domain.ContentDigest{domain.DigestOf([]byte("cid"))},
		Descriptions:    []string{"fraudulent call"},
		IncidentAt:      time.Now().Add(-time.Hour),
	}
}

func (s *SponsoredWriterSuite) TestHealthyRelayCarriesSubmission() {
	conf, err := s.writer.SubmitCase(s.ctx, s.citizen, s.payload())
	s.Require().NoError(err)

	s.Equal("task-1", conf.TxID)
	s.Equal(uint64(7), conf.Version)
	s.Equal(domain.CaseID(42), conf.CaseID)

	s.Require().Len(s.relay.calls, 1)
	call := s.relay.calls[0]
	s.Equal(s.citizen.String(), call.User)
	s.Equal("0xcasefiling", call.Target)
	s.True(call.SyncWait)

	// Nothing hit the direct ledger.
	all, err := s.ledger.AllCases(s.ctx)
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *SponsoredWriterSuite) TestRelayFailureFallsBackToDirect() {
	s.relay.fail = true

	conf, err := s.writer.SubmitCase(s.ctx, s.citizen, s.payload())
	s.Require().NoError(err, "a sick relay must not block filing")

	rec, err := s.ledger.CaseByID(s.ctx, conf.CaseID)
	s.Require().NoError(err)
	s.Equal(s.citizen, rec.Complainant)
}

func (s *SponsoredWriterSuite) TestOpenBreakerSkipsRelayEntirely() {
	s.relay.fail = true
	for i := 0; i < 3; i++ {
		_, err := s.writer.SubmitCase(s.ctx, s.citizen, s.payload())
		s.Require().NoError(err)
	}
	s.Require().Len(s.relay.calls, 3, "three failures open the breaker")

	_, err := s.writer.SubmitCase(s.ctx, s.citizen, s.payload())
	s.Require().NoError(err)
	s.Len(s.relay.calls, 3, "an open breaker must not probe the relay per submission")

	all, err := s.ledger.AllCases(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 4, "every submission landed directly")
}

func (s *SponsoredWriterSuite) TestNonSubmitWritesGoDirect() {
	// Status updates never use the relay; only filings are sponsored.
	conf, err := s.ledger.SubmitCase(s.ctx, s.citizen, s.payload())
	s.Require().NoError(err)

	govCtx := requestcontext.WithActor(s.ctx, s.government)
	_, err = s.writer.UpdateStatus(govCtx, conf.CaseID, domain.StatusVerified, "checked")
	s.Require().NoError(err)
	s.Empty(s.relay.calls)

	rec, err := s.ledger.CaseByID(s.ctx, conf.CaseID)
	s.Require().NoError(err)
	s.Equal(domain.StatusVerified, rec.Status)
}
