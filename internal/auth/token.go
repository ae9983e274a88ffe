package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"firtrace/pkg/domain"
	dErrors "firtrace/pkg/domain-errors"
)

// DefaultTokenTTL matches the credential lifetime the rest of the system
// assumes.
const DefaultTokenTTL = time.Hour

// Claims are the JWT claims for session credentials. The token is presented
// on no further endpoint; it only proves prior authentication for one
// address.
type Claims struct {
	AccountAddress string `json:"accountAddress"`
	jwt.RegisteredClaims
}

// TokenService issues and validates session credentials.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

func NewTokenService(signingKey string, issuer string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// TTL returns the configured credential lifetime.
func (s *TokenService) TTL() time.Duration { return s.ttl }

// Issue creates a credential for an address that passed verification.
func (s *TokenService) Issue(addr domain.Address, now time.Time) (Credential, string, error) {
	jti := uuid.NewString()
	expires := now.Add(s.ttl)
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		AccountAddress: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        jti,
		},
	})

	signed, err := tok.SignedString(s.signingKey)
	if err != nil {
		return Credential{}, "", dErrors.Wrap(err, dErrors.CodeInternal, "sign credential")
	}
	return Credential{
		Token:     signed,
		Address:   addr,
		IssuedAt:  now,
		ExpiresAt: expires,
	}, jti, nil
}

// Validate parses a credential and returns its claims.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "credential has expired")
		}
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid credential")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeAuthenticationFailed, "invalid credential claims")
	}
	return claims, nil
}
