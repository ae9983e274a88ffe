package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"firtrace/internal/auth"
	"firtrace/internal/identity"
	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
	"firtrace/pkg/platform/sentinel"
	"firtrace/pkg/requestcontext"
)

// RoleResolver classifies an authenticated address. A non-nil error means the
// ledger was unreachable; the returned role is then the safe default.
type RoleResolver interface {
	Resolve(ctx context.Context, addr domain.Address) (domain.Role, error)
}

// Manager serializes all session transitions behind one mutex and coalesces
// concurrent authenticate calls, so rapid UI interactions never trigger
// duplicate wallet prompts or interleave into inconsistent states.
type Manager struct {
	provider identity.Provider
	authn    auth.Client
	roles    RoleResolver
	logger   *slog.Logger

	mu      sync.Mutex
	session Session
	creds   map[domain.Address]auth.Credential

	// One authenticate in flight per identity; late joiners share its result.
	authFlight singleflight.Group

	watchers map[int]chan Session
	nextWID  int
}

func NewManager(provider identity.Provider, authn auth.Client, roles RoleResolver, logger *slog.Logger) *Manager {
	return &Manager{
		provider: provider,
		authn:    authn,
		roles:    roles,
		logger:   logger,
		session:  Session{State: StateDisconnected, Role: domain.RoleAnonymous},
		creds:    make(map[domain.Address]auth.Credential),
		watchers: make(map[int]chan Session),
	}
}

// Snapshot returns a copy of the current session.
func (m *Manager) Snapshot() Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session
}

// Watch delivers a session snapshot after every transition until ctx is
// cancelled. Consumers that fall behind miss intermediate snapshots, never
// the latest one for long: the channel is buffered and each send is the full
// state, not a delta.
func (m *Manager) Watch(ctx context.Context) <-chan Session {
	m.mu.Lock()
	wid := m.nextWID
	m.nextWID++
	ch := make(chan Session, 16)
	m.watchers[wid] = ch
	m.mu.Unlock()

	go func() {
		<-ctx.Done()
		m.mu.Lock()
		delete(m.watchers, wid)
		close(ch)
		m.mu.Unlock()
	}()

	return ch
}

// Connect requests an identity from the wallet and, on success, immediately
// authenticates.
//
// Errors: CodeWalletUnavailable when no provider is reachable,
// CodeUserRejected when the human declines account selection. Both reset the
// session to Disconnected.
func (m *Manager) Connect(ctx context.Context) error {
	m.transition(func(s *Session) {
		s.State = StateConnecting
	})

	ident, err := m.provider.Request(ctx)
	if err != nil {
		m.transition(func(s *Session) {
			*s = Session{State: StateDisconnected, Role: domain.RoleAnonymous}
		})
		switch {
		case errors.Is(err, sentinel.ErrRejected):
			return dErrors.Wrap(err, dErrors.CodeUserRejected, "account selection declined")
		default:
			return dErrors.Wrap(err, dErrors.CodeWalletUnavailable, "wallet unavailable")
		}
	}

	m.transition(func(s *Session) {
		*s = Session{State: StateConnected, Identity: ident, Role: domain.RoleAnonymous}
	})

	return m.Authenticate(ctx)
}

// Authenticate establishes a credential and role for the connected identity.
// A valid cached credential for the current address short-circuits without a
// new signature prompt. Concurrent calls for the same identity share one
// in-flight attempt.
//
// Errors: CodeSignatureRejected and CodeAuthenticationFailed both leave the
// session Connected (unauthenticated) so the UI can retry without
// reconnecting the wallet.
func (m *Manager) Authenticate(ctx context.Context) error {
	m.mu.Lock()
	if m.session.State == StateDisconnected || m.session.State == StateConnecting {
		m.mu.Unlock()
		return dErrors.New(dErrors.CodeWalletUnavailable, "no connected wallet identity")
	}
	ident := m.session.Identity
	if cached, ok := m.creds[ident.Address]; ok && cached.ValidFor(ident.Address, requestcontext.Now(ctx)) {
		m.mu.Unlock()
		m.commitCredential(ctx, ident, cached)
		return nil
	}
	m.mu.Unlock()

	_, err, _ := m.authFlight.Do(flightKey(ident), func() (any, error) {
		return nil, m.authenticateOnce(ctx, ident)
	})
	return err
}

// flightKey scopes authenticate coalescing to the full identity. The address
// alone is not enough: a chain switch mid-flight must start a fresh round for
// the new chain, never join the doomed one for the old chain.
func flightKey(ident domain.Identity) string {
	return fmt.Sprintf("%s@%d", ident.Address, ident.ChainID)
}

// authenticateOnce runs a full challenge/sign/verify round for ident. Exactly
// one of these runs per identity at a time.
func (m *Manager) authenticateOnce(ctx context.Context, ident domain.Identity) error {
	m.transition(func(s *Session) {
		s.State = StateAuthenticating
	})

	demote := func(err error, code dErrors.Code, msg string) error {
		m.transition(func(s *Session) {
			if s.Identity == ident {
				s.State = StateConnected
				s.Role = domain.RoleAnonymous
				s.Credential = nil
			}
		})
		return dErrors.Wrap(err, code, msg)
	}

	signature, err := m.provider.Sign(ctx, []byte(auth.Challenge))
	if err != nil {
		if errors.Is(err, sentinel.ErrRejected) {
			return demote(err, dErrors.CodeSignatureRejected, "signature prompt declined")
		}
		return demote(err, dErrors.CodeAuthenticationFailed, "challenge signing failed")
	}

	cred, err := m.authn.Verify(ctx, ident.Address, signature)
	if err != nil {
		return demote(err, dErrors.CodeAuthenticationFailed, "credential verification failed")
	}

	m.commitCredential(ctx, ident, cred)
	return nil
}

// commitCredential resolves the role and moves the session to Authenticated,
// unless the identity moved while verification was in flight — then the
// result is silently discarded; the identity change already reset the state.
func (m *Manager) commitCredential(ctx context.Context, ident domain.Identity, cred auth.Credential) {
	role, warning := m.resolveRole(ctx, ident.Address)

	m.mu.Lock()
	if m.session.Identity != ident {
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "discarding credential for superseded identity",
			"address", ident.Address.String())
		return
	}
	m.creds[ident.Address] = cred
	m.session.State = StateAuthenticated
	m.session.Role = role
	credCopy := cred
	m.session.Credential = &credCopy
	m.session.AuthenticatedAt = cred.IssuedAt
	m.session.Warning = warning
	snapshot := m.session
	m.notifyLocked(snapshot)
	m.mu.Unlock()

	m.logger.InfoContext(ctx, "session authenticated",
		"address", ident.Address.String(),
		"role", role.String(),
	)
}

// resolveRole classifies the address, degrading to citizen-with-warning when
// the ledger is unreachable. Citizen is the least-privileged safe default;
// blocking login on a read failure would be worse.
func (m *Manager) resolveRole(ctx context.Context, addr domain.Address) (domain.Role, string) {
	role, err := m.roles.Resolve(ctx, addr)
	if err != nil {
		m.logger.WarnContext(ctx, "role resolution unavailable, defaulting to citizen",
			"address", addr.String(),
			"error", err,
		)
		return domain.RoleCitizen, "role resolution unavailable; citizen access only"
	}
	return role, ""
}

// HandleIdentityChanged applies a wallet notification. A nil identity is a
// hard reset; an address change drops the credential and role and
// re-authenticates; a chain-only change drops the credential (it may be
// chain-scoped) and re-runs role resolution defensively.
func (m *Manager) HandleIdentityChanged(ctx context.Context, newIdent *domain.Identity) {
	if newIdent == nil {
		m.mu.Lock()
		m.creds = make(map[domain.Address]auth.Credential)
		m.session = Session{State: StateDisconnected, Role: domain.RoleAnonymous}
		m.notifyLocked(m.session)
		m.mu.Unlock()
		m.logger.InfoContext(ctx, "wallet disconnected, session reset")
		return
	}

	m.mu.Lock()
	old := m.session.Identity
	if old == *newIdent && m.session.State != StateDisconnected {
		m.mu.Unlock()
		return
	}
	chainOnly := m.session.State != StateDisconnected && old.SameAddress(*newIdent)
	if chainOnly {
		// Credential may be chain-scoped; force a fresh signature round.
		delete(m.creds, newIdent.Address)
	}
	m.session = Session{State: StateConnected, Identity: *newIdent, Role: domain.RoleAnonymous}
	m.notifyLocked(m.session)
	m.mu.Unlock()

	if err := m.Authenticate(ctx); err != nil {
		m.logger.WarnContext(ctx, "re-authentication after identity change failed",
			"address", newIdent.Address.String(),
			"error", err,
		)
	}
}

// Run consumes wallet notifications until ctx is cancelled. Notifications are
// applied one at a time; the session never observes interleaved changes.
func (m *Manager) Run(ctx context.Context) error {
	changes, err := m.provider.Changes(ctx)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeWalletUnavailable, "watch wallet changes")
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			m.HandleIdentityChanged(ctx, change.Identity)
		}
	}
}

func (m *Manager) transition(mutate func(*Session)) {
	m.mu.Lock()
	mutate(&m.session)
	m.notifyLocked(m.session)
	m.mu.Unlock()
}

func (m *Manager) notifyLocked(snapshot Session) {
	for _, ch := range m.watchers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
