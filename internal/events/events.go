// Package events defines the facts the ledger emits after a committed call.
//
// Event delivery is fire-and-forget: services emit after commit and only log
// publish failures. No ledger state depends on an event being delivered.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "skillchain/pkg/domain"
)

// Type names an emitted fact.
type Type string

const (
	TypeCredentialMinted   Type = "credential_minted"
	TypeCredentialVerified Type = "credential_verified"
	TypeCredentialEndorsed Type = "credential_endorsed"
)

// Event is a single emitted fact.
type Event struct {
	ID           uuid.UUID       `json:"id"`
	Type         Type            `json:"type"`
	CredentialID id.CredentialID `json:"credential_id"`
	Owner        id.AccountID    `json:"owner,omitempty"`
	Endorser     id.AccountID    `json:"endorser,omitempty"`
	Stake        id.Balance      `json:"stake"`
	Caller       id.AccountID    `json:"caller"`
	BlockNumber  id.BlockNumber  `json:"block_number"`
	RequestID    string          `json:"request_id,omitempty"`
	OccurredAt   time.Time       `json:"occurred_at"`
}

// Publisher receives emitted facts.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

func newEvent(t Type, credentialID id.CredentialID, caller id.AccountID, block id.BlockNumber) Event {
	return Event{
		ID:           uuid.New(),
		Type:         t,
		CredentialID: credentialID,
		Caller:       caller,
		BlockNumber:  block,
		OccurredAt:   time.Now().UTC(),
	}
}

// CredentialMinted builds the CredentialMinted{id, owner} fact.
func CredentialMinted(credentialID id.CredentialID, owner id.AccountID, block id.BlockNumber) Event {
	e := newEvent(TypeCredentialMinted, credentialID, owner, block)
	e.Owner = owner
	return e
}

// CredentialVerified builds the CredentialVerified{id} fact.
func CredentialVerified(credentialID id.CredentialID, caller id.AccountID, block id.BlockNumber) Event {
	return newEvent(TypeCredentialVerified, credentialID, caller, block)
}

// CredentialEndorsed builds the CredentialEndorsed{credentialId, endorser, stake} fact.
func CredentialEndorsed(credentialID id.CredentialID, endorser id.AccountID, stake id.Balance, block id.BlockNumber) Event {
	e := newEvent(TypeCredentialEndorsed, credentialID, endorser, block)
	e.Endorser = endorser
	e.Stake = stake
	return e
}
