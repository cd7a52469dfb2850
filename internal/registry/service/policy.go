package service

import (
	id "skillchain/pkg/domain"
)

// VerifierPolicy decides which callers may verify credentials.
type VerifierPolicy interface {
	CanVerify(caller id.AccountID) bool
}

// OpenPolicy lets any authenticated caller verify any credential.
type OpenPolicy struct{}

func (OpenPolicy) CanVerify(caller id.AccountID) bool {
	return !caller.IsNil()
}

// AllowlistPolicy restricts verification to a configured set of verifier accounts.
type AllowlistPolicy struct {
	verifiers map[id.AccountID]struct{}
}

// NewAllowlistPolicy builds a policy admitting only the given accounts.
// An empty list admits nobody.
func NewAllowlistPolicy(verifiers ...id.AccountID) *AllowlistPolicy {
	p := &AllowlistPolicy{verifiers: make(map[id.AccountID]struct{}, len(verifiers))}
	for _, v := range verifiers {
		if !v.IsNil() {
			p.verifiers[v] = struct{}{}
		}
	}
	return p
}

func (p *AllowlistPolicy) CanVerify(caller id.AccountID) bool {
	_, ok := p.verifiers[caller]
	return ok
}

var (
	_ VerifierPolicy = OpenPolicy{}
	_ VerifierPolicy = (*AllowlistPolicy)(nil)
)
