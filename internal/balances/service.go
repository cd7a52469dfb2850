package balances

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
)

var genesisMarkerKey = state.Key(keyspace, "genesis_applied")

// Service exposes balance queries and genesis endowment through the executor.
type Service struct {
	executor *state.Executor
	ledger   *Ledger
	logger   *slog.Logger
}

// Option configures the balance service.
type Option func(*Service)

// WithLogger configures a logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewService creates a balance service.
func NewService(executor *state.Executor, ledger *Ledger, opts ...Option) *Service {
	svc := &Service{executor: executor, ledger: ledger}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// Account returns the committed balances of who.
func (s *Service) Account(ctx context.Context, who id.AccountID) (Account, error) {
	if who.IsNil() {
		return Account{}, dErrors.New(dErrors.CodeBadRequest, "account is required")
	}
	var acct Account
	err := s.executor.View(ctx, func(kv state.Reader) error {
		var err error
		acct, err = s.ledger.Account(ctx, kv, who)
		return err
	})
	if err != nil {
		return Account{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return acct, nil
}

// ApplyGenesis endows the given accounts exactly once per state store.
// Later calls are no-ops, so restarting against durable state does not mint funds twice.
func (s *Service) ApplyGenesis(ctx context.Context, endowments map[id.AccountID]id.Balance) (bool, error) {
	accounts := make([]id.AccountID, 0, len(endowments))
	for who := range endowments {
		accounts = append(accounts, who)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i] < accounts[j] })

	applied := false
	err := s.executor.Execute(ctx, func(kv state.ReadWriter) error {
		if _, err := kv.Get(ctx, genesisMarkerKey); err == nil {
			return nil
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		for _, who := range accounts {
			if err := s.ledger.Endow(ctx, kv, who, endowments[who]); err != nil {
				return err
			}
		}
		kv.Put(genesisMarkerKey, []byte("true"))
		applied = true
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrOverflow) {
			return false, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "genesis endowment overflows balance")
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply genesis balances")
	}
	if applied && s.logger != nil {
		s.logger.InfoContext(ctx, "genesis balances applied", "accounts", len(accounts))
	}
	return applied, nil
}
