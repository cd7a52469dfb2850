package models

import (
	id "skillchain/pkg/domain"
)

// Endorsement is one staked vote of confidence in a credential.
// The same endorser may appear many times; each entry stands on its own.
type Endorsement struct {
	Endorser id.AccountID `json:"endorser"`
	Stake    id.Balance   `json:"stake"`
}

// Summary aggregates a credential's endorsement state.
type Summary struct {
	CredentialID id.CredentialID `json:"credential_id"`
	Count        int             `json:"count"`
	Score        id.Balance      `json:"score"`
}

// SumStakes adds stakes with saturating addition, the way scores accumulate.
func SumStakes(endorsements []Endorsement) id.Balance {
	var total id.Balance
	for _, e := range endorsements {
		total = total.SaturatingAdd(e.Stake)
	}
	return total
}
