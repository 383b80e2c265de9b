package transactions

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
)

const (
	// WitnessScaleFactor weighs non-witness bytes against witness bytes.
	WitnessScaleFactor = 4

	witnessMarker = 0x00
	witnessFlag   = 0x01

	// smallest possible serialized input and output, used to bound counts before allocating
	minTxInSize  = 32 + 4 + 1 + 4
	minTxOutSize = 8 + 1
)

// OutPoint references an output of a previous transaction.
type OutPoint struct {
	Hash  chainhash.Hash
	Index uint32
}

// IsNull reports whether op is the null outpoint a coinbase input spends.
func (op OutPoint) IsNull() bool {
	return op.Index == 0xffffffff && op.Hash == (chainhash.Hash{})
}

// TxWitness is the witness stack of one input.
type TxWitness [][]byte

type TxIn struct {
	PreviousOutPoint OutPoint
	SignatureScript  []byte
	Witness          TxWitness
	Sequence         uint32
}

type TxOut = types.Output

// MsgTx is a transaction in its wire form.
type MsgTx struct {
	Version  int32
	TxIn     []*TxIn
	TxOut    []*TxOut
	LockTime uint32
}

// HasWitness reports whether any input carries witness data.
func (tx *MsgTx) HasWitness() bool {
	for _, in := range tx.TxIn {
		if len(in.Witness) > 0 {
			return true
		}
	}
	return false
}

func (tx *MsgTx) serialize(withWitness bool) []byte {
	withWitness = withWitness && tx.HasWitness()

	var buf bytes.Buffer
	buf.Write(utils.PackInt32LE(tx.Version))
	if withWitness {
		buf.Write([]byte{witnessMarker, witnessFlag})
	}

	buf.Write(utils.VarIntBytes(uint64(len(tx.TxIn))))
	for _, in := range tx.TxIn {
		buf.Write(in.PreviousOutPoint.Hash[:])
		buf.Write(utils.PackUint32LE(in.PreviousOutPoint.Index))
		buf.Write(utils.VarIntBytes(uint64(len(in.SignatureScript))))
		buf.Write(in.SignatureScript)
		buf.Write(utils.PackUint32LE(in.Sequence))
	}

	buf.Write(utils.VarIntBytes(uint64(len(tx.TxOut))))
	for _, out := range tx.TxOut {
		buf.Write(utils.PackInt64LE(out.Value))
		buf.Write(utils.VarIntBytes(uint64(len(out.ScriptPubKey))))
		buf.Write(out.ScriptPubKey)
	}

	if withWitness {
		for _, in := range tx.TxIn {
			buf.Write(utils.VarIntBytes(uint64(len(in.Witness))))
			for _, item := range in.Witness {
				buf.Write(utils.VarIntBytes(uint64(len(item))))
				buf.Write(item)
			}
		}
	}

	buf.Write(utils.PackUint32LE(tx.LockTime))
	return buf.Bytes()
}

// Serialize encodes tx with witness data when it has any.
func (tx *MsgTx) Serialize() []byte {
	return tx.serialize(true)
}

// SerializeNoWitness is the stripped encoding the txid commits to.
func (tx *MsgTx) SerializeNoWitness() []byte {
	return tx.serialize(false)
}

// TxHash is the txid in natural byte order.
func (tx *MsgTx) TxHash() chainhash.Hash {
	return utils.DoubleHash(tx.SerializeNoWitness())
}

// WitnessHash is the wtxid; it equals TxHash for a transaction without witness data.
func (tx *MsgTx) WitnessHash() chainhash.Hash {
	return utils.DoubleHash(tx.Serialize())
}

// Weight is stripped size * 3 + total size.
func (tx *MsgTx) Weight() uint64 {
	stripped := uint64(len(tx.SerializeNoWitness()))
	total := uint64(len(tx.Serialize()))
	return stripped*(WitnessScaleFactor-1) + total
}

// Deserialize decodes a complete transaction from raw. Trailing bytes are an error.
func Deserialize(raw []byte) (*MsgTx, error) {
	r := NewReader(raw)
	tx := new(MsgTx)

	version, err := r.ReadUint32("version")
	if err != nil {
		return nil, err
	}
	tx.Version = int32(version)

	segwit := false
	if marker, err := r.PeekUint8("marker"); err == nil && marker == witnessMarker {
		r.pos++
		flag, err := r.ReadUint8("flag")
		if err != nil {
			return nil, err
		}
		if flag != witnessFlag {
			return nil, types.NewRuleError(types.ErrEncoding, "flag", "unexpected witness flag %#02x", flag)
		}
		segwit = true
	}

	inCount, err := r.ReadVarInt("vin")
	if err != nil {
		return nil, err
	}
	if inCount > uint64(r.Remaining()/minTxInSize) {
		return nil, types.NewRuleError(types.ErrEncoding, "vin", "input count %d exceeds the remaining data", inCount)
	}

	tx.TxIn = make([]*TxIn, inCount)
	for i := range tx.TxIn {
		if tx.TxIn[i], err = readTxIn(r, fmt.Sprintf("vin[%d]", i)); err != nil {
			return nil, err
		}
	}

	outCount, err := r.ReadVarInt("vout")
	if err != nil {
		return nil, err
	}
	if outCount > uint64(r.Remaining()/minTxOutSize) {
		return nil, types.NewRuleError(types.ErrEncoding, "vout", "output count %d exceeds the remaining data", outCount)
	}

	tx.TxOut = make([]*TxOut, outCount)
	for i := range tx.TxOut {
		if tx.TxOut[i], err = readTxOut(r, fmt.Sprintf("vout[%d]", i)); err != nil {
			return nil, err
		}
	}

	if segwit {
		for i, in := range tx.TxIn {
			if in.Witness, err = readWitness(r, fmt.Sprintf("vin[%d].witness", i)); err != nil {
				return nil, err
			}
		}
	}

	if tx.LockTime, err = r.ReadUint32("locktime"); err != nil {
		return nil, err
	}

	if r.Remaining() != 0 {
		return nil, types.NewRuleError(types.ErrEncoding, "locktime", "%d trailing bytes after the transaction", r.Remaining())
	}

	return tx, nil
}

func readTxIn(r *Reader, field string) (*TxIn, error) {
	in := new(TxIn)

	hash, err := r.ReadBytes(field+".txid", chainhash.HashSize)
	if err != nil {
		return nil, err
	}
	copy(in.PreviousOutPoint.Hash[:], hash)

	if in.PreviousOutPoint.Index, err = r.ReadUint32(field + ".vout"); err != nil {
		return nil, err
	}

	if in.SignatureScript, err = r.ReadVarBytes(field + ".script"); err != nil {
		return nil, err
	}

	if in.Sequence, err = r.ReadUint32(field + ".sequence"); err != nil {
		return nil, err
	}

	return in, nil
}

func readTxOut(r *Reader, field string) (*TxOut, error) {
	value, err := r.ReadUint64(field + ".value")
	if err != nil {
		return nil, err
	}

	script, err := r.ReadVarBytes(field + ".scriptPubKey")
	if err != nil {
		return nil, err
	}

	return &TxOut{Value: int64(value), ScriptPubKey: script}, nil
}

func readWitness(r *Reader, field string) (TxWitness, error) {
	count, err := r.ReadVarInt(field)
	if err != nil {
		return nil, err
	}
	if count > uint64(r.Remaining()) {
		return nil, types.NewRuleError(types.ErrEncoding, field, "witness item count %d exceeds the remaining data", count)
	}

	witness := make(TxWitness, count)
	for i := range witness {
		if witness[i], err = r.ReadVarBytes(fmt.Sprintf("%s[%d]", field, i)); err != nil {
			return nil, err
		}
	}

	return witness, nil
}
