package jobs

import (
	"encoding/binary"

	"go.uber.org/atomic"
)

// ExtraNonceGenerator hands out extra nonces as a big-endian counter of Size bytes, starting at
// zero. Counters wider than 8 bytes are zero padded on the left.
type ExtraNonceGenerator struct {
	Size int

	counter *atomic.Uint64
}

func NewExtraNonceGenerator(size int) *ExtraNonceGenerator {
	return &ExtraNonceGenerator{
		Size:    size,
		counter: atomic.NewUint64(0),
	}
}

// GetExtraNonce returns the next extra nonce.
func (eng *ExtraNonceGenerator) GetExtraNonce() []byte {
	return eng.encode(eng.counter.Inc() - 1)
}

func (eng *ExtraNonceGenerator) encode(n uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], n)

	extraNonce := make([]byte, eng.Size)
	if eng.Size >= len(buf) {
		copy(extraNonce[eng.Size-len(buf):], buf[:])
	} else {
		copy(extraNonce, buf[len(buf)-eng.Size:])
	}

	return extraNonce
}
