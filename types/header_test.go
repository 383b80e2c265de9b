package types

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// block 125552 from mainnet
const header125552 = "01000000" +
	"81cd02ab7e569e8bcd9317e2fe99f2de44d49ab2b8851ba4a308000000000000" +
	"e320b6c2fffc8d750423db8b1eb942ae710e951ed797f7affc8892b0f1fc122b" +
	"c7f5d74d" +
	"f2b9441a" +
	"42a14695"

func TestNewBlockHeaderFromString(t *testing.T) {
	bh, err := NewBlockHeaderFromString(header125552)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), bh.Version)
	assert.Equal(t, uint32(0x4dd7f5c7), bh.Timestamp)
	assert.Equal(t, uint32(0x1a44b9f2), bh.Bits)
	assert.Equal(t, uint32(0x9546a142), bh.Nonce)
	assert.Equal(t, "1a44b9f2", bh.BitsString())
	assert.Equal(t, "00000000000008a3a41b85b8b29ad444def299fee21793cd8b9e567eab02cd81", bh.PrevBlockHash.String())
	assert.Equal(t, "2b12fcf1b09288fcaff797d71e950e71ae42b91e8bdb2304758dfcffc2b620e3", bh.MerkleRoot.String())
	assert.Equal(t, "00000000000000001e8d6829a8a21adc5d38d0a473b144b6765798e61f98bd1d", bh.Hash().String())
	assert.Equal(t, header125552, bh.String())
}

func TestBlockHeaderRoundTrip(t *testing.T) {
	headers := []BlockHeader{
		{},
		{Version: 0x20000000, Timestamp: 1700000000, Bits: DefaultBits, Nonce: 0xffffffff},
		{Version: 4, PrevBlockHash: [32]byte{1, 2, 3}, MerkleRoot: [32]byte{31: 9}, Nonce: 42},
	}

	for _, h := range headers {
		b := h.Bytes()
		require.Len(t, b, BlockHeaderSize)

		decoded, err := NewBlockHeaderFromBytes(b)
		require.NoError(t, err)
		assert.Equal(t, h, *decoded)
	}
}

func TestBlockHeaderLayout(t *testing.T) {
	h := BlockHeader{Version: 0x01020304, Timestamp: 0x0a0b0c0d, Bits: DefaultBits, Nonce: 7}
	h.PrevBlockHash[0] = 0xaa
	h.MerkleRoot[31] = 0xbb

	b := h.Bytes()
	assert.Equal(t, []byte{0x04, 0x03, 0x02, 0x01}, b[0:4])
	assert.Equal(t, byte(0xaa), b[4])
	assert.Equal(t, byte(0xbb), b[67])
	assert.Equal(t, []byte{0x0d, 0x0c, 0x0b, 0x0a}, b[68:72])
	assert.Equal(t, "ffff001f", hex.EncodeToString(b[72:76]))
	assert.Equal(t, []byte{7, 0, 0, 0}, b[76:80])
}

func TestNewBlockHeaderFromBytesInvalidLength(t *testing.T) {
	for _, n := range []int{0, 1, 79, 81, 160} {
		_, err := NewBlockHeaderFromBytes(make([]byte, n))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidHeaderLength)
	}
}

func TestNewBlockHeaderFromStringBadHex(t *testing.T) {
	_, err := NewBlockHeaderFromString("xyz")
	assert.True(t, IsRuleError(err, ErrEncoding))
}
