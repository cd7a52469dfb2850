// Package domain provides type-safe identifiers and ledger scalars shared by every module.
package domain

import (
	"strconv"
	"strings"

	dErrors "skillchain/pkg/domain-errors"
)

// MaxAccountIDLength bounds account identifiers accepted at trust boundaries.
const MaxAccountIDLength = 64

// Distinct ledger types - compiler prevents passing a Balance where a CredentialID is expected.
type (
	// AccountID identifies a signing account on the network.
	AccountID string
	// CredentialID is allocated by the registry counter and never reused.
	CredentialID uint32
	// BlockNumber is the externally supplied sequence number.
	BlockNumber uint64
)

// Parse functions - use at trust boundaries (handlers, API inputs).

func ParseAccountID(s string) (AccountID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account ID cannot be empty")
	}
	if len(s) > MaxAccountIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "account ID is too long")
	}
	for _, r := range s {
		if !isAccountRune(r) {
			return "", dErrors.New(dErrors.CodeInvalidInput, "invalid account ID format")
		}
	}
	return AccountID(s), nil
}

func ParseCredentialID(s string) (CredentialID, error) {
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "credential ID cannot be empty")
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "invalid credential ID format")
	}
	return CredentialID(v), nil
}

// String methods - for logging, keys and debugging.

func (id AccountID) String() string    { return string(id) }
func (id CredentialID) String() string { return strconv.FormatUint(uint64(id), 10) }
func (n BlockNumber) String() string   { return strconv.FormatUint(uint64(n), 10) }

// IsNil is used for service-layer validation.
func (id AccountID) IsNil() bool { return id == "" }

// isAccountRune allows SS58-style and hex account encodings plus readable dev names.
func isAccountRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	case r == '-', r == '_', r == '.':
		return true
	}
	return false
}
