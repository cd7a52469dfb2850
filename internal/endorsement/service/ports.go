package service

import (
	"context"

	"skillchain/internal/events"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// BalanceLedger reserves endorser funds. Reserve writes through kv so the
// reservation commits or rolls back with the endorsement.
// It returns sentinel.ErrInsufficientFunds when free funds are short.
type BalanceLedger interface {
	Reserve(ctx context.Context, kv state.ReadWriter, account id.AccountID, amount id.Balance) error
}

// CredentialLookup answers whether a credential was minted.
type CredentialLookup interface {
	Exists(ctx context.Context, kv state.Reader, credentialID id.CredentialID) (bool, error)
}

type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Sequencer supplies the block number attached to emitted events.
type Sequencer interface {
	BlockNumber(ctx context.Context) (id.BlockNumber, error)
}
