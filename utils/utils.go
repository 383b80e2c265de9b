package utils

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"os"
	"strconv"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/types"
)

func PackUint64LE(n uint64) []byte {
	b := make([]byte, 8)
	binary.LittleEndian.PutUint64(b, n)
	return b
}

func PackInt64LE(n int64) []byte {
	return PackUint64LE(uint64(n))
}

func PackUint32LE(n uint32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, n)
	return b
}

func PackUint32BE(n uint32) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, n)
	return b
}

func PackInt32LE(n int32) []byte {
	return PackUint32LE(uint32(n))
}

// VarIntBytes encodes n as a bitcoin CompactSize.
func VarIntBytes(n uint64) []byte {
	if n < 0xFD {
		return []byte{byte(n)}
	}

	if n <= 0xFFFF {
		buff := make([]byte, 3)
		buff[0] = 0xFD
		binary.LittleEndian.PutUint16(buff[1:], uint16(n))
		return buff
	}

	if n <= 0xFFFFFFFF {
		buff := make([]byte, 5)
		buff[0] = 0xFE
		binary.LittleEndian.PutUint32(buff[1:], uint32(n))
		return buff
	}

	buff := make([]byte, 9)
	buff[0] = 0xFF
	binary.LittleEndian.PutUint64(buff[1:], n)
	return buff
}

// SerializeString prefixes s with its var-int length.
func SerializeString(s string) []byte {
	return bytes.Join([][]byte{
		VarIntBytes(uint64(len(s))),
		[]byte(s),
	}, nil)
}

// SerializeNumber encodes n as a minimal script number push, the form BIP34 uses for the
// block height in the coinbase script.
func SerializeNumber(n uint64) []byte {
	if n >= 1 && n <= 16 {
		return []byte{
			0x50 + byte(n),
		}
	}

	l := 1
	buff := make([]byte, 9)
	for n > 0x7f {
		buff[l] = byte(n & 0xff)
		l++
		n >>= 8
	}
	buff[0] = byte(l)
	buff[l] = byte(n)

	return buff[0 : l+1]
}

func ReverseBytes(b []byte) []byte {
	_b := make([]byte, len(b))
	copy(_b, b)

	for i, j := 0, len(_b)-1; i < j; i, j = i+1, j-1 {
		_b[i], _b[j] = _b[j], _b[i]
	}
	return _b
}

// range steps between [start, end)
func Range(start, stop, step int) []int {
	if (step > 0 && start >= stop) || (step < 0 && start <= stop) {
		return []int{}
	}

	result := make([]int, 0)
	for i := start; (step > 0 && i < stop) || (step < 0 && i > stop); i += step {
		result = append(result, i)
	}

	return result
}

func Sha256d(b []byte) []byte {
	h := DoubleHash(b)
	return h[:]
}

// DoubleHash is sha256(sha256(b)). Input and output are in natural byte order.
func DoubleHash(b []byte) chainhash.Hash {
	return chainhash.DoubleHashH(b)
}

// DecodeHex decodes a hex string, failing with an encoding rule error.
func DecodeHex(field, s string) ([]byte, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, types.NewRuleError(types.ErrEncoding, field, "malformed hex %q: %s", s, err)
	}

	return b, nil
}

// HashFromHex parses a 64 character display-order hex string (as printed by block explorers)
// into a hash in natural byte order.
func HashFromHex(field, s string) (chainhash.Hash, error) {
	var h chainhash.Hash
	if len(s) != chainhash.MaxHashStringSize {
		return h, types.NewRuleError(types.ErrEncoding, field, "hash hex must be %d chars, got %d", chainhash.MaxHashStringSize, len(s))
	}

	b, err := DecodeHex(field, s)
	if err != nil {
		return h, err
	}

	copy(h[:], ReverseBytes(b))
	return h, nil
}

func GetReadableHashRateString(hashrate float64) string {
	i := 0
	byteUnits := []string{" H", " KH", " MH", " GH", " TH", " PH", " EH", " ZH", " YH"}
	for hashrate > 1000 {
		i++
		hashrate = hashrate / 1000
		if i+1 == len(byteUnits) {
			break
		}
	}

	return strconv.FormatFloat(hashrate, 'f', 7, 64) + byteUnits[i]
}

func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if os.IsNotExist(err) {
		return false
	}
	return !info.IsDir()
}
