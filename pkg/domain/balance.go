package domain

import (
	"math"
	"strconv"

	dErrors "skillchain/pkg/domain-errors"
)

// MaxBalance is the largest representable amount. Score accumulation clamps here.
const MaxBalance Balance = math.MaxUint64

// Balance is an amount of the network's native token in its smallest unit.
type Balance uint64

// ParseBalance parses a non-negative decimal amount.
func ParseBalance(s string) (Balance, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "amount cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid amount format")
	}
	return Balance(v), nil
}

func (b Balance) String() string { return strconv.FormatUint(uint64(b), 10) }

// SaturatingAdd returns b+o, clamped to MaxBalance instead of wrapping.
func (b Balance) SaturatingAdd(o Balance) Balance {
	if b > MaxBalance-o {
		return MaxBalance
	}
	return b + o
}

// CheckedAdd returns b+o and false when the sum would overflow.
func (b Balance) CheckedAdd(o Balance) (Balance, bool) {
	if b > MaxBalance-o {
		return 0, false
	}
	return b + o, true
}

// CheckedSub returns b-o and false when o exceeds b.
func (b Balance) CheckedSub(o Balance) (Balance, bool) {
	if o > b {
		return 0, false
	}
	return b - o, true
}
