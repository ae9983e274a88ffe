// Package requestcontext provides transport-independent context accessors for
// request-scoped values.
//
// Middleware and the session layer set values; the workflow engine and ledger
// adapters consume them. Keeping this package free of net/http lets the core
// import only what it needs.
//
// Usage in services (read values):
//
//	actor := requestcontext.Actor(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithActor(ctx, addr)
package requestcontext

import (
	"context"
	"time"

	"firtrace/pkg/domain"
)

type (
	actorKey       struct{}
	requestIDKey   struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestTimeKey struct{}
)

// Actor retrieves the acting ledger address from the context. Returns the
// zero address when no actor has been established (unauthenticated paths).
func Actor(ctx context.Context) domain.Address {
	if addr, ok := ctx.Value(actorKey{}).(domain.Address); ok {
		return addr
	}
	return domain.ZeroAddress
}

// WithActor injects the acting address. The workflow engine sets this before
// every ledger write so the ledger sees its transaction sender.
func WithActor(ctx context.Context, addr domain.Address) context.Context {
	return context.WithValue(ctx, actorKey{}, addr)
}

// RequestID retrieves the request ID from the context, or "" if unset.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(requestIDKey{}).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent retrieves the User-Agent from the context.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// Now retrieves the request-scoped time from context, falling back to
// time.Now() for non-HTTP contexts (workers, tests that don't inject one).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(requestTimeKey{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Useful for deterministic
// validation in tests and for consistent timestamps within one request.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, requestTimeKey{}, t)
}
