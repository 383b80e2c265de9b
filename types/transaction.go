package types

import (
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Output is a transaction output. Value is in satoshis and must never be negative.
type Output struct {
	Value        int64  `json:"value"`
	ScriptPubKey []byte `json:"scriptPubKey"`
}

// Input spends (PrevTxID, PrevVout). PrevOut carries the referenced output as recorded by the
// transaction source and is nil for a coinbase input.
type Input struct {
	PrevTxID   chainhash.Hash `json:"prevTxid"`
	PrevVout   uint32         `json:"prevVout"`
	PrevOut    *Output        `json:"prevout,omitempty"`
	IsCoinbase bool           `json:"isCoinbase"`
}

// Transaction is a parsed transaction record. Ids are held in natural byte order; String()
// on a chainhash.Hash renders the conventional display hex.
type Transaction struct {
	TxID       chainhash.Hash `json:"txid"`
	WTxID      chainhash.Hash `json:"wtxid"`
	Version    int32          `json:"version"`
	LockTime   uint32         `json:"locktime"`
	Vin        []*Input       `json:"vin"`
	Vout       []*Output      `json:"vout"`
	Weight     uint64         `json:"weight"`
	Fee        uint64         `json:"fee"`
	IsCoinbase bool           `json:"isCoinbase"`
}

// InputValue sums the recorded previous outputs. ok is false when an input has no recorded
// output, a value is negative, or the sum overflows.
func (tx *Transaction) InputValue() (total uint64, ok bool) {
	for _, in := range tx.Vin {
		if in.PrevOut == nil || in.PrevOut.Value < 0 {
			return 0, false
		}

		if total, ok = AddUint64(total, uint64(in.PrevOut.Value)); !ok {
			return 0, false
		}
	}

	return total, true
}

// OutputValue sums the output values with the same rules as InputValue.
func (tx *Transaction) OutputValue() (total uint64, ok bool) {
	for _, out := range tx.Vout {
		if out.Value < 0 {
			return 0, false
		}

		if total, ok = AddUint64(total, uint64(out.Value)); !ok {
			return 0, false
		}
	}

	return total, true
}

// TxIDs returns the ids of txs in order.
func TxIDs(txs []*Transaction) []chainhash.Hash {
	ids := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		ids[i] = tx.TxID
	}

	return ids
}

// WTxIDs returns the witness ids of txs in order.
func WTxIDs(txs []*Transaction) []chainhash.Hash {
	ids := make([]chainhash.Hash, len(txs))
	for i, tx := range txs {
		ids[i] = tx.WTxID
	}

	return ids
}

// AddUint64 adds b to a, reporting overflow instead of wrapping.
func AddUint64(a, b uint64) (uint64, bool) {
	if a > math.MaxUint64-b {
		return 0, false
	}

	return a + b, true
}
