// Package store maps registry records onto the shared state keyspace.
//
// Keys:
//
//	registry/next_id             next CredentialID to allocate (absent = 0)
//	registry/credential/<id>     Credential record
//	registry/account/<account>   CredentialIDs minted by the account, in mint order
package store

import (
	"context"
	"fmt"

	"skillchain/internal/registry/models"
	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
)

const keyspace = "registry"

var nextIDKey = state.Key(keyspace, "next_id")

// Store reads and writes registry records through a state view.
// It holds no state of its own.
type Store struct{}

func New() *Store {
	return &Store{}
}

func credentialKey(credentialID id.CredentialID) string {
	return state.Key(keyspace, "credential", credentialID.String())
}

func accountKey(account id.AccountID) string {
	return state.Key(keyspace, "account", account.String())
}

// NextID returns the next id the counter will allocate.
func (s *Store) NextID(ctx context.Context, kv state.Reader) (id.CredentialID, error) {
	next, _, err := state.GetJSON[id.CredentialID](ctx, kv, nextIDKey)
	if err != nil {
		return 0, fmt.Errorf("load next credential id: %w", err)
	}
	return next, nil
}

func (s *Store) SetNextID(kv state.ReadWriter, next id.CredentialID) error {
	return state.PutJSON(kv, nextIDKey, next)
}

// Credential returns the record for credentialID or sentinel.ErrNotFound.
func (s *Store) Credential(ctx context.Context, kv state.Reader, credentialID id.CredentialID) (*models.Credential, error) {
	credential, ok, err := state.GetJSON[models.Credential](ctx, kv, credentialKey(credentialID))
	if err != nil {
		return nil, fmt.Errorf("load credential %d: %w", credentialID, err)
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &credential, nil
}

func (s *Store) PutCredential(kv state.ReadWriter, credential *models.Credential) error {
	return state.PutJSON(kv, credentialKey(credential.ID), credential)
}

// Exists reports whether credentialID was ever minted.
func (s *Store) Exists(ctx context.Context, kv state.Reader, credentialID id.CredentialID) (bool, error) {
	_, err := kv.Get(ctx, credentialKey(credentialID))
	switch {
	case err == nil:
		return true, nil
	case sentinel.IsNotFound(err):
		return false, nil
	default:
		return false, fmt.Errorf("lookup credential %d: %w", credentialID, err)
	}
}

// AccountCredentials returns the ids minted by account. Unknown accounts have none.
func (s *Store) AccountCredentials(ctx context.Context, kv state.Reader, account id.AccountID) ([]id.CredentialID, error) {
	ids, _, err := state.GetJSON[[]id.CredentialID](ctx, kv, accountKey(account))
	if err != nil {
		return nil, fmt.Errorf("load credentials of %s: %w", account, err)
	}
	if ids == nil {
		ids = []id.CredentialID{}
	}
	return ids, nil
}

// AppendAccountCredential appends credentialID to account's index.
func (s *Store) AppendAccountCredential(ctx context.Context, kv state.ReadWriter, account id.AccountID, credentialID id.CredentialID) error {
	ids, err := s.AccountCredentials(ctx, kv, account)
	if err != nil {
		return err
	}
	return state.PutJSON(kv, accountKey(account), append(ids, credentialID))
}
