// Package auth resolves the signing account of a ledger call from its bearer token.
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	id "skillchain/pkg/domain"
	"skillchain/pkg/requestcontext"
)

const (
	descMissingToken = "Missing or invalid Authorization header"
	descInvalidToken = "Invalid or expired token"
)

// JWTValidator validates a bearer token against the request clock carried by ctx.
type JWTValidator interface {
	ValidateToken(ctx context.Context, tokenString string) (*JWTClaims, error)
}

// JWTClaims is what the middleware needs from a validated token.
type JWTClaims struct {
	Account string
	JTI     string
}

func writeUnauthorized(w http.ResponseWriter, desc string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="skillchain"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(fmt.Appendf(nil, `{"error":"unauthorized","error_description":"%s"}`, desc))
}

// RequireAuth stores the token subject as the signer in the request context.
// Calls without a valid token never reach the ledger handlers.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			reject := func(reason, desc string, err error) {
				attrs := []any{"reason", reason, "path", r.URL.Path, "request_id", requestcontext.RequestID(ctx)}
				if err != nil {
					attrs = append(attrs, "error", err)
				}
				logger.WarnContext(ctx, "unsigned call rejected", attrs...)
				writeUnauthorized(w, desc)
			}

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok {
				reject("missing_token", descMissingToken, nil)
				return
			}

			claims, err := validator.ValidateToken(ctx, token)
			if err != nil {
				reject("invalid_token", descInvalidToken, err)
				return
			}

			signer, err := id.ParseAccountID(claims.Account)
			if err != nil {
				reject("malformed_subject", descInvalidToken, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(requestcontext.WithAccountID(ctx, signer)))
		})
	}
}
