// Package jwttoken issues and validates the bearer tokens that identify a signer.
//
// A token's subject is the signing account. Tokens are HS256 with a shared key;
// the server validates them and the skillctl CLI issues them for dev networks.
package jwttoken

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/requestcontext"
)

// SignerClaims are the claims carried by a signer token.
type SignerClaims struct {
	Env string `json:"env,omitempty"`
	jwt.RegisteredClaims
}

// JWTService handles signer token creation and validation.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
	tokenTTL   time.Duration
	env        string
}

func NewJWTService(signingKey string, issuer string, audience string, tokenTTL time.Duration) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
		tokenTTL:   tokenTTL,
	}
}

// SetEnv annotates issued tokens with an environment string (e.g., "dev").
func (s *JWTService) SetEnv(env string) {
	s.env = env
}

// GenerateSignerToken signs a token whose subject is account.
func (s *JWTService) GenerateSignerToken(ctx context.Context, account id.AccountID) (string, error) {
	if account.IsNil() {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account cannot be empty")
	}
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, SignerClaims{
		Env: s.env,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   account.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Audience:  []string{s.audience},
			ID:        uuid.NewString(),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signed, nil
}

// ValidateToken checks signature, issuer, audience and expiry. Expiry is
// evaluated against requestcontext.Now(ctx).
func (s *JWTService) ValidateToken(ctx context.Context, tokenString string) (*SignerClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &SignerClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(s.issuer),
		jwt.WithAudience(s.audience),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*SignerClaims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	// The subject must already be in canonical form; " alice" is not alice.
	signer, err := id.ParseAccountID(claims.Subject)
	if err != nil || signer.String() != claims.Subject {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token subject")
	}

	return claims, nil
}
