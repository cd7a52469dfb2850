// Package balances is the account-balance collaborator the endorsement ledger reserves stakes against.
//
// Balances live in their own keyspace of the shared state store. Reservation
// moves funds from Free to Reserved on the same account; it never transfers
// funds between accounts. Because Reserve writes through the caller's state
// view, a reservation commits or rolls back together with the call that made it.
package balances

import (
	"context"
	"fmt"

	"skillchain/internal/sentinel"
	"skillchain/internal/state"
	id "skillchain/pkg/domain"
)

const keyspace = "balances"

// Account holds an account's spendable and reserved funds.
type Account struct {
	Free     id.Balance `json:"free"`
	Reserved id.Balance `json:"reserved"`
}

// Total is Free+Reserved, clamped at the balance maximum.
func (a Account) Total() id.Balance {
	return a.Free.SaturatingAdd(a.Reserved)
}

// Ledger reads and mutates account balances through a state view.
type Ledger struct{}

// NewLedger constructs a balance ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

func accountKey(who id.AccountID) string {
	return state.Key(keyspace, "account", who.String())
}

// Account returns the balances of who. Unknown accounts hold nothing.
func (l *Ledger) Account(ctx context.Context, kv state.Reader, who id.AccountID) (Account, error) {
	acct, _, err := state.GetJSON[Account](ctx, kv, accountKey(who))
	if err != nil {
		return Account{}, fmt.Errorf("load account %s: %w", who, err)
	}
	return acct, nil
}

// Reserve moves amount from who's free balance into reserved.
// Returns sentinel.ErrInsufficientFunds, writing nothing, when free < amount.
func (l *Ledger) Reserve(ctx context.Context, kv state.ReadWriter, who id.AccountID, amount id.Balance) error {
	acct, err := l.Account(ctx, kv, who)
	if err != nil {
		return err
	}
	if amount == 0 {
		return nil
	}
	free, ok := acct.Free.CheckedSub(amount)
	if !ok {
		return sentinel.ErrInsufficientFunds
	}
	reserved, ok := acct.Reserved.CheckedAdd(amount)
	if !ok {
		return sentinel.ErrOverflow
	}
	acct.Free = free
	acct.Reserved = reserved
	return state.PutJSON(kv, accountKey(who), acct)
}

// Endow credits amount to who's free balance.
func (l *Ledger) Endow(ctx context.Context, kv state.ReadWriter, who id.AccountID, amount id.Balance) error {
	acct, err := l.Account(ctx, kv, who)
	if err != nil {
		return err
	}
	free, ok := acct.Free.CheckedAdd(amount)
	if !ok {
		return sentinel.ErrOverflow
	}
	if _, ok := free.CheckedAdd(acct.Reserved); !ok {
		return sentinel.ErrOverflow
	}
	acct.Free = free
	return state.PutJSON(kv, accountKey(who), acct)
}
