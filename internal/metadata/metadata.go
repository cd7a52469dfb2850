// Package metadata derives and inspects content-addressed metadata references.
//
// The ledger treats metadataRef as opaque bytes. This package only helps
// clients produce a CID for a metadata document and lets read paths report
// whether a stored reference happens to be one.
package metadata

import (
	"strings"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

const ipfsScheme = "ipfs://"

// Info describes a metadata reference that parses as a CID.
type Info struct {
	CID     string `json:"cid"`
	Version uint64 `json:"version"`
	Codec   string `json:"codec"`
	Hash    string `json:"hash"`
}

// CIDv1RawSHA256 returns the CIDv1 (raw codec, sha2-256) of data.
func CIDv1RawSHA256(data []byte) (cid.Cid, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return cid.Undef, err
	}
	return cid.NewCidV1(cid.Raw, sum), nil
}

// RefFor returns the metadataRef bytes a client should mint for document.
func RefFor(document []byte) ([]byte, error) {
	c, err := CIDv1RawSHA256(document)
	if err != nil {
		return nil, err
	}
	return []byte(c.String()), nil
}

// Describe reports the CID carried by ref, accepting an optional ipfs:// prefix.
// The boolean is false when ref is not a CID.
func Describe(ref []byte) (Info, bool) {
	s := strings.TrimPrefix(strings.TrimSpace(string(ref)), ipfsScheme)
	if s == "" {
		return Info{}, false
	}
	c, err := cid.Decode(s)
	if err != nil {
		return Info{}, false
	}
	prefix := c.Prefix()
	return Info{
		CID:     c.String(),
		Version: prefix.Version,
		Codec:   codecName(prefix.Codec),
		Hash:    multihash.Codes[prefix.MhType],
	}, true
}

// Matches reports whether ref is the CID of document.
func Matches(ref, document []byte) bool {
	info, ok := Describe(ref)
	if !ok {
		return false
	}
	stored, err := cid.Decode(info.CID)
	if err != nil {
		return false
	}
	sum, err := multihash.Sum(document, stored.Prefix().MhType, -1)
	if err != nil {
		return false
	}
	return stored.Hash().String() == sum.String()
}

func codecName(code uint64) string {
	switch code {
	case cid.Raw:
		return "raw"
	case cid.DagProtobuf:
		return "dag-pb"
	case cid.DagCBOR:
		return "dag-cbor"
	default:
		return "unknown"
	}
}
