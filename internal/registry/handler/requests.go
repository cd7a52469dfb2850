package handler

import (
	"encoding/base64"
	"strings"

	dErrors "skillchain/pkg/domain-errors"
	"skillchain/pkg/validation"
)

const (
	EncodingUTF8   = "utf8"
	EncodingBase64 = "base64"
)

// MintRequest carries the metadata reference for a new credential.
// The reference is sent as text unless Encoding is "base64".
type MintRequest struct {
	MetadataRef string `json:"metadata_ref"`
	Encoding    string `json:"encoding,omitempty" validate:"omitempty,oneof=utf8 base64"`
	Soulbound   bool   `json:"soulbound"`
}

func (r *MintRequest) Sanitize() {
	r.Encoding = strings.ToLower(strings.TrimSpace(r.Encoding))
}

func (r *MintRequest) Validate() error {
	if err := validation.Validate(r); err != nil {
		return err
	}
	if r.Encoding == EncodingBase64 {
		if _, err := base64.StdEncoding.DecodeString(r.MetadataRef); err != nil {
			return dErrors.New(dErrors.CodeValidation, "metadata_ref must be base64 encoded")
		}
	}
	return nil
}

// Ref returns the raw metadata bytes. Validate must have succeeded.
func (r *MintRequest) Ref() []byte {
	if r.Encoding == EncodingBase64 {
		raw, _ := base64.StdEncoding.DecodeString(r.MetadataRef)
		return raw
	}
	return []byte(r.MetadataRef)
}
