// Package profile assembles an account's public credential profile from
// registry and endorsement state.
package profile

import (
	"context"
	"encoding/base64"
	"unicode/utf8"

	endorsementstore "skillchain/internal/endorsement/store"
	"skillchain/internal/metadata"
	registrystore "skillchain/internal/registry/store"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
)

// CredentialView is one credential as shown on a profile.
type CredentialView struct {
	ID                id.CredentialID `json:"id"`
	Issuer            id.AccountID    `json:"issuer"`
	IssuedAt          id.BlockNumber  `json:"issued_at"`
	MetadataRef       string          `json:"metadata_ref,omitempty"`
	MetadataRefBase64 string          `json:"metadata_ref_base64"`
	Metadata          *metadata.Info  `json:"metadata,omitempty"`
	Verified          bool            `json:"verified"`
	Soulbound         bool            `json:"soulbound"`
	Endorsements      int             `json:"endorsements"`
	Score             id.Balance      `json:"score"`
}

// Profile lists the credentials minted by an account, in mint order.
type Profile struct {
	Account     id.AccountID     `json:"account"`
	Credentials []CredentialView `json:"credentials"`
	Verified    int              `json:"verified"`
	TotalScore  id.Balance       `json:"total_score"`
}

// Service is a read-only view over the shared state.
type Service struct {
	executor     *state.Executor
	credentials  *registrystore.Store
	endorsements *endorsementstore.Store
}

func NewService(executor *state.Executor, credentials *registrystore.Store, endorsements *endorsementstore.Store) *Service {
	return &Service{executor: executor, credentials: credentials, endorsements: endorsements}
}

// Profile reads the account's credentials and their endorsement summaries
// under one view, so the result reflects a single committed state.
func (s *Service) Profile(ctx context.Context, account id.AccountID) (*Profile, error) {
	if account.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}

	p := &Profile{Account: account, Credentials: []CredentialView{}}
	err := s.executor.View(ctx, func(kv state.Reader) error {
		ids, err := s.credentials.AccountCredentials(ctx, kv, account)
		if err != nil {
			return err
		}
		for _, credentialID := range ids {
			credential, err := s.credentials.Credential(ctx, kv, credentialID)
			if err != nil {
				return err
			}
			summary, err := s.endorsements.Summary(ctx, kv, credentialID)
			if err != nil {
				return err
			}

			view := CredentialView{
				ID:                credential.ID,
				Issuer:            credential.Issuer,
				IssuedAt:          credential.IssuedAt,
				MetadataRefBase64: base64.StdEncoding.EncodeToString(credential.MetadataRef),
				Verified:          credential.Verified,
				Soulbound:         credential.Soulbound,
				Endorsements:      summary.Count,
				Score:             summary.Score,
			}
			if utf8.Valid(credential.MetadataRef) {
				view.MetadataRef = string(credential.MetadataRef)
			}
			if info, ok := metadata.Describe(credential.MetadataRef); ok {
				view.Metadata = &info
			}

			p.Credentials = append(p.Credentials, view)
			p.TotalScore = p.TotalScore.SaturatingAdd(summary.Score)
			if credential.Verified {
				p.Verified++
			}
		}
		return nil
	})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load profile")
	}
	return p, nil
}
