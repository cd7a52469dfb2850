package service

import (
	"context"

	"skillchain/internal/events"
	id "skillchain/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

// Publisher receives facts about committed registry calls.
type Publisher interface {
	Emit(ctx context.Context, event events.Event) error
}

// Sequencer supplies the block number recorded as issuedAt.
type Sequencer interface {
	BlockNumber(ctx context.Context) (id.BlockNumber, error)
}
