package algorithm

import (
	"bytes"
	"encoding/hex"
	"math/big"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/types"
)

// difficulty = MAX_TARGET / current_target.
var (
	MaxTargetTruncated, _ = new(big.Int).SetString("00000000FFFF0000000000000000000000000000000000000000000000000000", 16)
	MaxTarget, _          = new(big.Int).SetString("00000000FFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFFF", 16)
)

// Target is a 256 bit unsigned big-endian threshold.
type Target [32]byte

func TargetFromHex(s string) (Target, error) {
	var t Target
	b, err := hex.DecodeString(s)
	if err != nil {
		return t, types.NewRuleError(types.ErrEncoding, "target", "malformed target hex %q: %s", s, err)
	}
	if len(b) != len(t) {
		return t, types.NewRuleError(types.ErrEncoding, "target", "target must be 32 bytes, got %d", len(b))
	}

	copy(t[:], b)
	return t, nil
}

// TargetFromBits expands a compact difficulty encoding.
func TargetFromBits(bits uint32) Target {
	var t Target
	BigIntFromBits(bits).FillBytes(t[:])
	return t
}

// BigIntFromBits expands compact bits: the low 3 bytes are the mantissa, the high byte the
// length in bytes of the full number. Values that do not fit 256 bits or carry the sign bit
// expand to zero.
func BigIntFromBits(bits uint32) *big.Int {
	bytesNumber := bits >> 24
	mantissa := int64(bits & 0x007fffff)

	if bits&0x00800000 != 0 || mantissa == 0 {
		return new(big.Int)
	}

	if bytesNumber <= 3 {
		return big.NewInt(mantissa >> (8 * (3 - bytesNumber)))
	}

	n := new(big.Int).Lsh(big.NewInt(mantissa), uint(8*(bytesNumber-3)))
	if n.BitLen() > 256 {
		return new(big.Int)
	}

	return n
}

func (t Target) Big() *big.Int {
	return new(big.Int).SetBytes(t[:])
}

func (t Target) String() string {
	return hex.EncodeToString(t[:])
}

// Difficulty relative to the truncated bitcoin max target.
func (t Target) Difficulty() float64 {
	bigTarget := t.Big()
	if bigTarget.Sign() == 0 {
		return 0
	}

	diff, _ := new(big.Float).Quo(
		new(big.Float).SetInt(MaxTargetTruncated),
		new(big.Float).SetInt(bigTarget),
	).Float64()

	return diff
}

// Cmp compares two big-endian 256 bit numbers. Both operands are fixed width, so a byte-wise
// comparison is the numeric one.
func Cmp(a, b [32]byte) int {
	return bytes.Compare(a[:], b[:])
}

// MeetsTarget reports whether the display-order value (the reversed digest) is <= t.
func (t Target) MeetsTarget(displayOrder [32]byte) bool {
	return Cmp(displayOrder, t) <= 0
}

// HashMeetsTarget reverses a natural-order hash and compares it with t.
func (t Target) HashMeetsTarget(h chainhash.Hash) bool {
	return t.MeetsTarget(DisplayOrder(h))
}

// DisplayOrder reverses h into the big-endian form used for target comparison.
func DisplayOrder(h chainhash.Hash) [32]byte {
	var out [32]byte
	for i := 0; i < 32; i++ {
		out[i] = h[31-i]
	}
	return out
}
