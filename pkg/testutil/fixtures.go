// Package testutil provides fixtures shared by service and integration tests.
package testutil

import (
	"context"
	"testing"

	"skillchain/internal/balances"
	endorsementservice "skillchain/internal/endorsement/service"
	endorsementstore "skillchain/internal/endorsement/store"
	"skillchain/internal/events"
	"skillchain/internal/profile"
	registryservice "skillchain/internal/registry/service"
	registrystore "skillchain/internal/registry/store"
	"skillchain/internal/sequence"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
)

// Ledger is a fully wired set of ledger services over one backend.
type Ledger struct {
	Executor     *state.Executor
	Blocks       *sequence.Manual
	Events       *events.Recorder
	Credentials  *registrystore.Store
	Registry     *registryservice.Service
	Endorsements *endorsementservice.Service
	Balances     *balances.Service
	Profiles     *profile.Service
}

// LedgerBuilder assembles a Ledger for tests.
type LedgerBuilder struct {
	backend            state.Backend
	startBlock         id.BlockNumber
	genesis            map[id.AccountID]id.Balance
	registryOpts       []registryservice.Option
	endorsementOpts    []endorsementservice.Option
	requireCredentials bool
}

// NewLedgerBuilder starts a builder over backend at block 1 with no genesis balances.
func NewLedgerBuilder(backend state.Backend) *LedgerBuilder {
	return &LedgerBuilder{
		backend:    backend,
		startBlock: 1,
		genesis:    map[id.AccountID]id.Balance{},
	}
}

func (b *LedgerBuilder) AtBlock(n id.BlockNumber) *LedgerBuilder {
	b.startBlock = n
	return b
}

// WithBalance endows who with amount at genesis.
func (b *LedgerBuilder) WithBalance(who id.AccountID, amount id.Balance) *LedgerBuilder {
	b.genesis[who] = amount
	return b
}

func (b *LedgerBuilder) WithRegistryOptions(opts ...registryservice.Option) *LedgerBuilder {
	b.registryOpts = append(b.registryOpts, opts...)
	return b
}

func (b *LedgerBuilder) WithEndorsementOptions(opts ...endorsementservice.Option) *LedgerBuilder {
	b.endorsementOpts = append(b.endorsementOpts, opts...)
	return b
}

// RequireExistingCredentials rejects endorsements of unminted ids.
func (b *LedgerBuilder) RequireExistingCredentials() *LedgerBuilder {
	b.requireCredentials = true
	return b
}

// Build wires the services and applies genesis. It fails t on error.
func (b *LedgerBuilder) Build(t testing.TB) *Ledger {
	t.Helper()

	l := &Ledger{
		Executor:    state.NewExecutor(b.backend),
		Blocks:      sequence.NewManual(b.startBlock),
		Events:      events.NewRecorder(),
		Credentials: registrystore.New(),
	}
	endorsements := endorsementstore.New()
	ledger := balances.NewLedger()

	registryOpts := append([]registryservice.Option{registryservice.WithPublisher(l.Events)}, b.registryOpts...)
	l.Registry = registryservice.NewService(l.Executor, l.Credentials, l.Blocks, registryOpts...)

	endorsementOpts := []endorsementservice.Option{endorsementservice.WithPublisher(l.Events)}
	if b.requireCredentials {
		endorsementOpts = append(endorsementOpts, endorsementservice.WithCredentialLookup(l.Credentials))
	}
	endorsementOpts = append(endorsementOpts, b.endorsementOpts...)
	l.Endorsements = endorsementservice.NewService(l.Executor, endorsements, ledger, l.Blocks, endorsementOpts...)

	l.Balances = balances.NewService(l.Executor, ledger)
	l.Profiles = profile.NewService(l.Executor, l.Credentials, endorsements)

	if len(b.genesis) > 0 {
		if _, err := l.Balances.ApplyGenesis(context.Background(), b.genesis); err != nil {
			t.Fatalf("apply genesis: %v", err)
		}
	}
	return l
}

// MustMint mints a credential owned by owner and fails t on error.
func (l *Ledger) MustMint(t testing.TB, owner id.AccountID, metadataRef string) id.CredentialID {
	t.Helper()
	credentialID, err := l.Registry.Mint(context.Background(), owner, []byte(metadataRef), false)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return credentialID
}
