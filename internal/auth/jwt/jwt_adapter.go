package jwttoken

import (
	"context"

	"skillchain/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *SignerClaims) *auth.JWTClaims {
	return &auth.JWTClaims{
		Account: claims.Subject,
		JTI:     claims.ID,
	}
}

// JWTServiceAdapter exposes JWTService as the auth middleware's validator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(ctx context.Context, tokenString string) (*auth.JWTClaims, error) {
	claims, err := a.service.ValidateToken(ctx, tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
