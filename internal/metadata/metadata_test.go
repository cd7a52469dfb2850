package metadata

import (
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCIDv1RawSHA256(t *testing.T) {
	a, err := CIDv1RawSHA256([]byte(`{"skill":"go"}`))
	require.NoError(t, err)
	b, err := CIDv1RawSHA256([]byte(`{"skill":"go"}`))
	require.NoError(t, err)
	c, err := CIDv1RawSHA256([]byte(`{"skill":"rust"}`))
	require.NoError(t, err)

	assert.Equal(t, a, b, "same document yields same CID")
	assert.NotEqual(t, a, c)
	assert.Equal(t, uint64(1), a.Version())
}

func TestDescribe(t *testing.T) {
	ref, err := RefFor([]byte("hello"))
	require.NoError(t, err)

	info, ok := Describe(ref)
	require.True(t, ok)
	assert.Equal(t, string(ref), info.CID)
	assert.Equal(t, uint64(1), info.Version)
	assert.Equal(t, "raw", info.Codec)
	assert.Equal(t, "sha2-256", info.Hash)

	t.Run("accepts ipfs scheme", func(t *testing.T) {
		info, ok := Describe(append([]byte("ipfs://"), ref...))
		require.True(t, ok)
		assert.Equal(t, string(ref), info.CID)
	})

	t.Run("opaque references are not CIDs", func(t *testing.T) {
		for _, ref := range []string{"", "cid:abc", "   ", "\x00\x01"} {
			_, ok := Describe([]byte(ref))
			assert.False(t, ok, ref)
		}
	})
}

func TestMatches(t *testing.T) {
	doc := []byte(`{"skill":"go","level":"senior"}`)
	ref, err := RefFor(doc)
	require.NoError(t, err)

	assert.True(t, Matches(ref, doc))
	assert.False(t, Matches(ref, []byte("tampered")))
	assert.False(t, Matches([]byte("cid:abc"), doc))
}

func TestDescribeNamesCodec(t *testing.T) {
	sum, err := multihash.Sum([]byte("hello"), multihash.SHA2_256, -1)
	require.NoError(t, err)

	cases := map[uint64]string{
		cid.Raw:         "raw",
		cid.DagProtobuf: "dag-pb",
		cid.DagCBOR:     "dag-cbor",
		0x9999:          "unknown",
	}
	for code, want := range cases {
		t.Run(want, func(t *testing.T) {
			info, ok := Describe([]byte(cid.NewCidV1(code, sum).String()))
			require.True(t, ok)
			assert.Equal(t, want, info.Codec)
		})
	}
}
