package handler

import (
	"encoding/base64"
	"unicode/utf8"

	"skillchain/internal/metadata"
	"skillchain/internal/registry/models"
	id "skillchain/pkg/domain"
)

type MintResponse struct {
	ID id.CredentialID `json:"id"`
}

type VerifyResponse struct {
	ID       id.CredentialID `json:"id"`
	Verified bool            `json:"verified"`
}

// CredentialResponse renders a credential. MetadataRef is set only when the
// stored bytes are valid UTF-8; MetadataRefBase64 is always set.
type CredentialResponse struct {
	ID                id.CredentialID `json:"id"`
	Owner             id.AccountID    `json:"owner"`
	Issuer            id.AccountID    `json:"issuer"`
	IssuedAt          id.BlockNumber  `json:"issued_at"`
	Soulbound         bool            `json:"soulbound"`
	Verified          bool            `json:"verified"`
	MetadataRef       string          `json:"metadata_ref,omitempty"`
	MetadataRefBase64 string          `json:"metadata_ref_base64"`
	Metadata          *metadata.Info  `json:"metadata,omitempty"`
}

type AccountCredentialsResponse struct {
	Account     id.AccountID      `json:"account"`
	Credentials []id.CredentialID `json:"credentials"`
}

type NextIDResponse struct {
	NextCredentialID id.CredentialID `json:"next_credential_id"`
}

// ToCredentialResponse renders c for API clients.
func ToCredentialResponse(c *models.Credential) *CredentialResponse {
	resp := &CredentialResponse{
		ID:                c.ID,
		Owner:             c.Owner,
		Issuer:            c.Issuer,
		IssuedAt:          c.IssuedAt,
		Soulbound:         c.Soulbound,
		Verified:          c.Verified,
		MetadataRefBase64: base64.StdEncoding.EncodeToString(c.MetadataRef),
	}
	if utf8.Valid(c.MetadataRef) {
		resp.MetadataRef = string(c.MetadataRef)
	}
	if info, ok := metadata.Describe(c.MetadataRef); ok {
		resp.Metadata = &info
	}
	return resp
}
