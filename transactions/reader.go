package transactions

import (
	"encoding/binary"

	"github.com/mining-pool/blockminer/types"
)

// Reader is a cursor over a serialized transaction. Every read is bounds checked and fails
// with an encoding rule error naming the field being read.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos is the offset of the next unread byte.
func (r *Reader) Pos() int {
	return r.pos
}

func (r *Reader) Remaining() int {
	return len(r.buf) - r.pos
}

func (r *Reader) short(field string, n int) error {
	return types.NewRuleError(types.ErrEncoding, field, "need %d bytes at offset %d, %d left", n, r.pos, r.Remaining())
}

func (r *Reader) ReadBytes(field string, n int) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, r.short(field, n)
	}

	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *Reader) PeekUint8(field string) (uint8, error) {
	if r.Remaining() < 1 {
		return 0, r.short(field, 1)
	}

	return r.buf[r.pos], nil
}

func (r *Reader) ReadUint8(field string) (uint8, error) {
	b, err := r.ReadBytes(field, 1)
	if err != nil {
		return 0, err
	}

	return b[0], nil
}

func (r *Reader) ReadUint32(field string) (uint32, error) {
	b, err := r.ReadBytes(field, 4)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadUint64(field string) (uint64, error) {
	b, err := r.ReadBytes(field, 8)
	if err != nil {
		return 0, err
	}

	return binary.LittleEndian.Uint64(b), nil
}

// ReadVarInt reads a CompactSize integer. Non-canonical encodings are rejected.
func (r *Reader) ReadVarInt(field string) (uint64, error) {
	prefix, err := r.ReadUint8(field)
	if err != nil {
		return 0, err
	}

	var n, least uint64
	switch prefix {
	case 0xfd:
		b, err := r.ReadBytes(field, 2)
		if err != nil {
			return 0, err
		}
		n, least = uint64(binary.LittleEndian.Uint16(b)), 0xfd
	case 0xfe:
		v, err := r.ReadUint32(field)
		if err != nil {
			return 0, err
		}
		n, least = uint64(v), 0x10000
	case 0xff:
		v, err := r.ReadUint64(field)
		if err != nil {
			return 0, err
		}
		n, least = v, 0x100000000
	default:
		return uint64(prefix), nil
	}

	if n < least {
		return 0, types.NewRuleError(types.ErrEncoding, field, "non-canonical varint %d", n)
	}

	return n, nil
}

// ReadVarBytes reads a var-int length followed by that many bytes.
func (r *Reader) ReadVarBytes(field string) ([]byte, error) {
	n, err := r.ReadVarInt(field)
	if err != nil {
		return nil, err
	}

	if n > uint64(r.Remaining()) {
		return nil, types.NewRuleError(types.ErrEncoding, field, "length %d exceeds the %d bytes left", n, r.Remaining())
	}

	return r.ReadBytes(field, int(n))
}
