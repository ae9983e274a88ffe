// Package roles classifies addresses into access tiers from ledger facts.
package roles

import (
	"context"
	"log/slog"

	"firtrace/internal/ledger"
	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
)

// Resolver derives a role from the ledger's government address and active
// police set. Idempotent and side-effect free; safe to call on every
// authentication and defensively after chain changes.
type Resolver struct {
	reader ledger.Reader
	logger *slog.Logger
}

func New(reader ledger.Reader, logger *slog.Logger) *Resolver {
	return &Resolver{reader: reader, logger: logger}
}

// Resolve classifies addr. The government check runs first: if a
// misconfigured ledger ever lists the government address in the police set,
// government wins.
//
// On ledger read failure it returns (RoleCitizen, CodeRoleResolutionUnavailable):
// citizen is the least-privileged safe default, and callers surface the error
// as a warning instead of blocking authentication.
func (r *Resolver) Resolve(ctx context.Context, addr domain.Address) (domain.Role, error) {
	government, err := r.reader.GovernmentAddress(ctx)
	if err != nil {
		return domain.RoleCitizen, dErrors.Wrap(err, dErrors.CodeRoleResolutionUnavailable, "read government address")
	}
	if addr == government {
		return domain.RoleGovernment, nil
	}

	isPolice, err := r.reader.IsPolice(ctx, addr)
	if err != nil {
		return domain.RoleCitizen, dErrors.Wrap(err, dErrors.CodeRoleResolutionUnavailable, "read police set")
	}
	if isPolice {
		return domain.RolePolice, nil
	}

	return domain.RoleCitizen, nil
}
