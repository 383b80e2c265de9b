package validator

import (
	"bytes"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/algorithm"
	"github.com/mining-pool/blockminer/merkletree"
	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
)

// TxSource resolves the accepted transactions a block may include.
type TxSource interface {
	Get(txid chainhash.Hash) (*types.Transaction, bool)
}

// TxMap is a TxSource backed by a map.
type TxMap map[chainhash.Hash]*types.Transaction

func NewTxMap(txs []*types.Transaction) TxMap {
	m := make(TxMap, len(txs))
	for _, tx := range txs {
		m[tx.TxID] = tx
	}
	return m
}

func (m TxMap) Get(txid chainhash.Hash) (*types.Transaction, bool) {
	tx, ok := m[txid]
	return tx, ok
}

// BlockStats are the totals over a block's non-coinbase transactions.
type BlockStats struct {
	Fee    uint64
	Weight uint64
}

type Validator struct {
	params   types.ConsensusParams
	target   algorithm.Target
	hashFunc algorithm.HashFunc
	now      func() time.Time
}

type Option func(v *Validator)

// WithClock replaces the wall clock the header time is checked against.
func WithClock(now func() time.Time) Option {
	return func(v *Validator) {
		v.now = now
	}
}

// WithHashFunc sets the proof of work hash, sha256d by default.
func WithHashFunc(fn algorithm.HashFunc) Option {
	return func(v *Validator) {
		v.hashFunc = fn
	}
}

func New(params types.ConsensusParams, opts ...Option) *Validator {
	v := &Validator{
		params:   params,
		target:   algorithm.Target(params.Target),
		hashFunc: algorithm.DoubleSha256Hash,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(v)
	}

	return v
}

// ValidateHeader checks a serialized header against txids, the full block order with the
// coinbase first. Checks run in a fixed order and the first failure is returned.
func (v *Validator) ValidateHeader(headerBytes []byte, txids []chainhash.Hash) error {
	header, err := types.NewBlockHeaderFromBytes(headerBytes)
	if err != nil {
		return err
	}

	var powHash chainhash.Hash
	copy(powHash[:], v.hashFunc(headerBytes))
	if !v.target.HashMeetsTarget(powHash) {
		return types.NewRuleError(types.ErrDifficultyNotMet, "hash", "block hash %s is above target %s", powHash, v.target)
	}

	if header.Version < v.params.MinVersion {
		return types.NewRuleError(types.ErrInvalidVersion, "version", "version %d is below the minimum %d", header.Version, v.params.MinVersion)
	}

	if !v.target.HashMeetsTarget(header.PrevBlockHash) {
		return types.NewRuleError(types.ErrDifficultyNotMet, "previous_block_hash", "previous block hash %s is above target %s", header.PrevBlockHash, v.target)
	}

	root := merkletree.MerkleRoot(txids)
	if root == nil {
		return types.NewRuleError(types.ErrInvalidMerkleRoot, "merkle_root", "no transactions to commit to")
	}
	if *root != header.MerkleRoot {
		return types.NewRuleError(types.ErrInvalidMerkleRoot, "merkle_root", "header has %s, transactions give %s", header.MerkleRoot, root)
	}

	now := v.now()
	blockTime := time.Unix(int64(header.Timestamp), 0)
	if d := blockTime.Sub(now); d > v.params.TimeWindow || d < -v.params.TimeWindow {
		return types.NewRuleError(types.ErrInvalidTime, "time", "%s is more than %s away from %s", blockTime.UTC(), v.params.TimeWindow, now.UTC())
	}

	if header.Bits != v.params.Bits {
		return types.NewRuleError(types.ErrInvalidBits, "bits", "bits %08x, want %08x", header.Bits, v.params.Bits)
	}

	// the nonce is read from a 4 byte field and is always a valid uint32

	return nil
}

// ValidateBlock checks the raw coinbase and the transactions of a block. txids is the full block
// order with the coinbase txid first; every other id must resolve through source.
func (v *Validator) ValidateBlock(coinbaseRaw []byte, txids []chainhash.Hash, source TxSource) (*BlockStats, error) {
	if len(txids) < 2 {
		return nil, types.NewRuleError(types.ErrEmptyBlock, "txids", "block has no transactions besides the coinbase")
	}

	txs := make([]*types.Transaction, 0, len(txids)-1)
	for i, id := range txids[1:] {
		tx, ok := source.Get(id)
		if !ok {
			return nil, types.NewRuleError(types.ErrUnknownTransaction, fmt.Sprintf("txids[%d]", i+1), "%s is not an accepted transaction", id)
		}
		txs = append(txs, tx)
	}

	coinbase, err := v.checkCoinbase(coinbaseRaw, txids[0])
	if err != nil {
		return nil, err
	}

	if err := v.checkWitnessCommitment(coinbase, txs); err != nil {
		return nil, err
	}

	stats := &BlockStats{}
	for i, tx := range txs {
		var feeOK, weightOK bool
		stats.Fee, feeOK = types.AddUint64(stats.Fee, tx.Fee)
		stats.Weight, weightOK = types.AddUint64(stats.Weight, tx.Weight)
		if !feeOK || !weightOK {
			return nil, types.NewRuleError(types.ErrBlockTooHeavy, fmt.Sprintf("txids[%d]", i+1), "totals overflow")
		}
	}

	if stats.Weight > v.params.MaxBlockWeight {
		return nil, types.NewRuleError(types.ErrBlockTooHeavy, "weight", "weight %d exceeds %d", stats.Weight, v.params.MaxBlockWeight)
	}

	return stats, nil
}

func layoutError(field, format string, args ...interface{}) error {
	return types.NewRuleError(types.ErrInvalidCoinbaseLayout, "coinbase."+field, format, args...)
}

func (v *Validator) checkCoinbase(raw []byte, txid chainhash.Hash) (*transactions.MsgTx, error) {
	tx, err := transactions.Deserialize(raw)
	if err != nil {
		return nil, layoutError(types.RuleErrorField(err), "%s", err)
	}

	if len(tx.TxIn) != 1 {
		return nil, layoutError("vin", "coinbase must have exactly one input, has %d", len(tx.TxIn))
	}

	if len(tx.TxOut) != 2 {
		return nil, layoutError("vout", "coinbase must have exactly two outputs, has %d", len(tx.TxOut))
	}

	in := tx.TxIn[0]
	if !in.PreviousOutPoint.IsNull() {
		return nil, layoutError("vin[0].prevout", "input spends %s:%d instead of the null outpoint", in.PreviousOutPoint.Hash, in.PreviousOutPoint.Index)
	}

	if n := len(in.SignatureScript); n < v.params.MinCoinbaseScriptLen || n > v.params.MaxCoinbaseScriptLen {
		return nil, layoutError("vin[0].script", "script is %d bytes, want %d-%d", n, v.params.MinCoinbaseScriptLen, v.params.MaxCoinbaseScriptLen)
	}

	if len(in.Witness) > 0 && (len(in.Witness) != 1 || len(in.Witness[0]) != chainhash.HashSize) {
		return nil, layoutError("vin[0].witness", "witness must be a single %d byte reserved value", chainhash.HashSize)
	}

	if got := tx.TxHash(); got != txid {
		return nil, layoutError("txid", "coinbase hashes to %s, block lists %s", got, txid)
	}

	return tx, nil
}

func (v *Validator) checkWitnessCommitment(coinbase *transactions.MsgTx, txs []*types.Transaction) error {
	script := coinbase.TxOut[1].ScriptPubKey
	header := merkletree.WitnessCommitmentHeader
	if len(script) != len(header)+chainhash.HashSize || !bytes.HasPrefix(script, header) {
		return types.NewRuleError(types.ErrInvalidWitnessCommitment, "coinbase.vout[1].scriptPubKey", "output does not carry a witness commitment")
	}

	reserved := v.params.WitnessReservedValue
	if witness := coinbase.TxIn[0].Witness; len(witness) == 1 && !bytes.Equal(witness[0], reserved[:]) {
		return types.NewRuleError(types.ErrInvalidWitnessCommitment, "coinbase.vin[0].witness", "reserved value %x, want %x", witness[0], reserved[:])
	}

	var got chainhash.Hash
	copy(got[:], script[len(header):])

	want := merkletree.WitnessCommitment(types.WTxIDs(txs), reserved)
	if got != want {
		return types.NewRuleError(types.ErrInvalidWitnessCommitment, "coinbase.vout[1].scriptPubKey", "commitment %x, transactions give %x", got[:], want[:])
	}

	return nil
}

// ValidateTemplateBlock runs ValidateHeader and ValidateBlock over an assembled block.
func (v *Validator) ValidateTemplateBlock(block *types.Block, source TxSource) (*BlockStats, error) {
	coinbase, err := transactions.Deserialize(block.Coinbase)
	if err != nil {
		return nil, layoutError(types.RuleErrorField(err), "%s", err)
	}

	txids := block.TxIDs(coinbase.TxHash())
	if err := v.ValidateHeader(block.Header.Bytes(), txids); err != nil {
		return nil, err
	}

	return v.ValidateBlock(block.Coinbase, txids, source)
}
