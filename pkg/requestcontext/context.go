// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; services read them without importing net/http.
//
//	caller := requestcontext.AccountID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//
// Tests inject values directly:
//
//	ctx = requestcontext.WithAccountID(ctx, "alice")
package requestcontext

import (
	"context"
	"time"

	id "skillchain/pkg/domain"
)

type (
	accountIDKey   struct{}
	clientIPKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for tests that need context.WithValue.
var (
	ContextKeyAccountID   = accountIDKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// AccountID retrieves the authenticated signer account from the context.
// Returns the empty account if not set.
func AccountID(ctx context.Context) id.AccountID {
	if account, ok := ctx.Value(ContextKeyAccountID).(id.AccountID); ok {
		return account
	}
	return ""
}

// WithAccountID injects the authenticated signer account into the context.
func WithAccountID(ctx context.Context, account id.AccountID) context.Context {
	return context.WithValue(ctx, ContextKeyAccountID, account)
}

// ClientIP retrieves the client IP address from the context.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

// WithClientIP injects the client IP address into the context.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ContextKeyClientIP, ip)
}

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() outside HTTP requests.
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
