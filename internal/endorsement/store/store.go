// Package store maps endorsement records onto the shared state keyspace.
//
// Keys:
//
//	endorsement/list/<id>    ordered Endorsements for a credential
//	endorsement/score/<id>   SkillScore for a credential (absent = 0)
package store

import (
	"context"
	"fmt"

	"skillchain/internal/endorsement/models"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
)

const keyspace = "endorsement"

// Store reads and writes endorsement records through a state view.
type Store struct{}

func New() *Store {
	return &Store{}
}

func listKey(credentialID id.CredentialID) string {
	return state.Key(keyspace, "list", credentialID.String())
}

func scoreKey(credentialID id.CredentialID) string {
	return state.Key(keyspace, "score", credentialID.String())
}

// Endorsements returns the endorsements recorded against credentialID, oldest first.
func (s *Store) Endorsements(ctx context.Context, kv state.Reader, credentialID id.CredentialID) ([]models.Endorsement, error) {
	list, _, err := state.GetJSON[[]models.Endorsement](ctx, kv, listKey(credentialID))
	if err != nil {
		return nil, fmt.Errorf("load endorsements of %d: %w", credentialID, err)
	}
	if list == nil {
		list = []models.Endorsement{}
	}
	return list, nil
}

// Score returns the SkillScore of credentialID.
func (s *Store) Score(ctx context.Context, kv state.Reader, credentialID id.CredentialID) (id.Balance, error) {
	score, _, err := state.GetJSON[id.Balance](ctx, kv, scoreKey(credentialID))
	if err != nil {
		return 0, fmt.Errorf("load score of %d: %w", credentialID, err)
	}
	return score, nil
}

// Record appends e and adds its stake to the score, saturating at the balance maximum.
// It returns the new score.
func (s *Store) Record(ctx context.Context, kv state.ReadWriter, credentialID id.CredentialID, e models.Endorsement) (id.Balance, error) {
	list, err := s.Endorsements(ctx, kv, credentialID)
	if err != nil {
		return 0, err
	}
	score, err := s.Score(ctx, kv, credentialID)
	if err != nil {
		return 0, err
	}
	score = score.SaturatingAdd(e.Stake)

	if err := state.PutJSON(kv, listKey(credentialID), append(list, e)); err != nil {
		return 0, err
	}
	if err := state.PutJSON(kv, scoreKey(credentialID), score); err != nil {
		return 0, err
	}
	return score, nil
}

// Summary returns the endorsement count and score of credentialID.
func (s *Store) Summary(ctx context.Context, kv state.Reader, credentialID id.CredentialID) (models.Summary, error) {
	list, err := s.Endorsements(ctx, kv, credentialID)
	if err != nil {
		return models.Summary{}, err
	}
	score, err := s.Score(ctx, kv, credentialID)
	if err != nil {
		return models.Summary{}, err
	}
	return models.Summary{CredentialID: credentialID, Count: len(list), Score: score}, nil
}
