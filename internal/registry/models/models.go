package models

import (
	"bytes"

	id "skillchain/pkg/domain"
)

// DefaultMaxMetadataLength bounds MetadataRef when no limit is configured.
const DefaultMaxMetadataLength = 128

// Credential is a skill credential bound to its owning account.
//
// A credential is created by Mint and never deleted. Verify is the only
// mutation, and it flips Verified from false to true exactly once.
type Credential struct {
	ID          id.CredentialID `json:"id"`
	Owner       id.AccountID    `json:"owner"`
	MetadataRef []byte          `json:"metadata_ref"`
	Issuer      id.AccountID    `json:"issuer"`
	IssuedAt    id.BlockNumber  `json:"issued_at"`
	Soulbound   bool            `json:"soulbound"`
	Verified    bool            `json:"verified"`
}

// NewCredential builds an unverified credential minted by caller for itself.
func NewCredential(credentialID id.CredentialID, caller id.AccountID, metadataRef []byte, soulbound bool, issuedAt id.BlockNumber) *Credential {
	return &Credential{
		ID:          credentialID,
		Owner:       caller,
		MetadataRef: bytes.Clone(metadataRef),
		Issuer:      caller,
		IssuedAt:    issuedAt,
		Soulbound:   soulbound,
	}
}

// MarkVerified sets Verified and reports whether it changed.
func (c *Credential) MarkVerified() bool {
	if c.Verified {
		return false
	}
	c.Verified = true
	return true
}
