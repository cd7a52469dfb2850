package handler

import (
	"encoding/json"
	"strings"

	id "skillchain/pkg/domain"
	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/validation"
)

// EndorseRequest stakes funds behind a credential.
// Stake accepts a JSON number or a decimal string so the full u64 range survives clients
// that cannot represent large integers.
type EndorseRequest struct {
	Stake json.Number `json:"stake" validate:"required"`

	stake id.Balance
}

func (r *EndorseRequest) Sanitize() {
	r.Stake = json.Number(strings.TrimSpace(r.Stake.String()))
}

func (r *EndorseRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	stake, err := id.ParseBalance(r.Stake.String())
	if err != nil {
		return dErrors.New(dErrors.CodeValidation, "stake must be a non-negative integer")
	}
	r.stake = stake
	return nil
}

// Amount returns the parsed stake. Validate must have succeeded.
func (r *EndorseRequest) Amount() id.Balance {
	return r.stake
}
