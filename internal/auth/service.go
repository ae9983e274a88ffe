package auth

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"firtrace/internal/audit"
	"firtrace/internal/auth/device"
	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
	"firtrace/pkg/requestcontext"
)

// TokenStore tracks issued credentials so operators can see active sessions.
// Entries expire with the credential.
type TokenStore interface {
	Record(ctx context.Context, jti string, addr domain.Address, ttl time.Duration) error
	IsIssued(ctx context.Context, jti string) (bool, error)
}

// AttemptStore persists authentication attempts for audit.
type AttemptStore interface {
	Append(ctx context.Context, attempt Attempt) error
}

// Service verifies signed challenges and issues session credentials. It never
// trusts the claimed address: the signer recovered from the signature must
// match it exactly.
type Service struct {
	verifier Verifier
	tokens   *TokenService
	issued   TokenStore
	attempts AttemptStore
	audit    audit.Publisher
	logger   *slog.Logger
}

func NewService(verifier Verifier, tokens *TokenService, issued TokenStore, attempts AttemptStore, auditor audit.Publisher, logger *slog.Logger) *Service {
	return &Service{
		verifier: verifier,
		tokens:   tokens,
		issued:   issued,
		attempts: attempts,
		audit:    auditor,
		logger:   logger,
	}
}

// Authenticate verifies a signature over the fixed challenge and returns a
// credential token for accountAddress.
//
// Errors: CodeAuthenticationFailed for any mismatch, malformed input or
// verification failure. The reason is logged, not leaked to the caller.
func (s *Service) Authenticate(ctx context.Context, accountAddress string, signature []byte) (string, error) {
	now := requestcontext.Now(ctx)

	if len(signature) == 0 || accountAddress == "" {
		s.record(ctx, accountAddress, false, "missing signature or address", now)
		return "", dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")
	}

	claimed, err := domain.ParseAddress(accountAddress)
	if err != nil {
		s.record(ctx, accountAddress, false, "malformed address", now)
		return "", dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")
	}

	recovered, err := s.verifier.Recover([]byte(Challenge), signature)
	if err != nil {
		s.record(ctx, accountAddress, false, "signature does not verify", now)
		return "", dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")
	}

	if recovered != claimed {
		s.logger.WarnContext(ctx, "recovered signer does not match claimed address",
			"claimed", claimed.String(),
			"recovered", recovered.String(),
		)
		s.record(ctx, accountAddress, false, "signer mismatch", now)
		return "", dErrors.New(dErrors.CodeAuthenticationFailed, "authentication failed")
	}

	cred, jti, err := s.tokens.Issue(claimed, now)
	if err != nil {
		return "", err
	}
	if s.issued != nil {
		if err := s.issued.Record(ctx, jti, claimed, s.tokens.TTL()); err != nil {
			// Credential is already signed; tracking failure is not a reason
			// to refuse login.
			s.logger.ErrorContext(ctx, "failed to record issued token", "error", err, "jti", jti)
		}
	}

	s.record(ctx, accountAddress, true, "", now)
	s.logger.InfoContext(ctx, "authentication successful", "address", claimed.String())
	return cred.Token, nil
}

func (s *Service) record(ctx context.Context, address string, ok bool, reason string, now time.Time) {
	attempt := Attempt{
		Address:    strings.ToLower(address),
		Succeeded:  ok,
		Device:     device.ParseUserAgent(requestcontext.UserAgent(ctx)),
		ClientIP:   requestcontext.ClientIP(ctx),
		FailReason: reason,
		At:         now,
	}
	if s.attempts != nil {
		if err := s.attempts.Append(ctx, attempt); err != nil {
			s.logger.ErrorContext(ctx, "failed to persist auth attempt", "error", err)
		}
	}
	if s.audit != nil {
		kind := audit.EventAuthFailed
		if ok {
			kind = audit.EventAuthSucceeded
		}
		s.audit.Emit(ctx, audit.Event{
			Kind:  kind,
			Actor: attempt.Address,
			At:    now,
			Detail: map[string]string{
				"device": attempt.Device,
				"reason": reason,
			},
		})
	}
}
