package roles

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/suite"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
)

// failingReader simulates an unreachable ledger.
type failingReader struct {
	ledger.Reader
}

func (failingReader) GovernmentAddress(context.Context) (domain.Address, error) {
	return domain.ZeroAddress, errors.New("ledger timeout")
}

type ResolverSuite struct {
	suite.Suite
	resolver   *Resolver
	ledger     *ledger.InMemoryLedger
	government domain.Address
	police     domain.Address
	citizen    domain.Address
	ctx        context.Context
}

func (s *ResolverSuite) SetupTest() {
	s.government = domain.DeriveAddress([]byte("government-key"))
	s.police = domain.DeriveAddress([]byte("police-key"))
	s.citizen = domain.DeriveAddress([]byte("citizen-key"))
	s.ledger = ledger.NewInMemory(s.government)
	s.ledger.SeedPolice(s.police)
	s.resolver = New(s.ledger, slog.Default())
	s.ctx = context.Background()
}

func TestResolverSuite(t *testing.T) {
	suite.Run(t, new(ResolverSuite))
}

func (s *ResolverSuite) TestClassification() {
	s.Run("government address resolves to government", func() {
		role, err := s.resolver.Resolve(s.ctx, s.government)
		s.Require().NoError(err)
		s.Equal(domain.RoleGovernment, role)
	})

	s.Run("police-set member resolves to police", func() {
		role, err := s.resolver.Resolve(s.ctx, s.police)
		s.Require().NoError(err)
		s.Equal(domain.RolePolice, role)
	})

	s.Run("everyone else resolves to citizen", func() {
		role, err := s.resolver.Resolve(s.ctx, s.citizen)
		s.Require().NoError(err)
		s.Equal(domain.RoleCitizen, role)
	})

	s.Run("government wins over police membership", func() {
		s.ledger.SeedPolice(s.government)
		role, err := s.resolver.Resolve(s.ctx, s.government)
		s.Require().NoError(err)
		s.Equal(domain.RoleGovernment, role)
	})
}

func (s *ResolverSuite) TestLedgerFailureDegradesToCitizen() {
	r := New(failingReader{}, slog.Default())
	role, err := r.Resolve(s.ctx, s.government)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeRoleResolutionUnavailable))
	s.Equal(domain.RoleCitizen, role, "failure must never grant privilege")
}
