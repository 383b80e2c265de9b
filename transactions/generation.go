package transactions

import (
	"bytes"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/merkletree"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
)

const (
	SatoshiPerBitcoin = 100000000
	BaseSubsidy       = 50 * SatoshiPerBitcoin
	HalvingInterval   = 210000

	coinbaseSequence = 0xffffffff
)

// GenerationParams describes the coinbase of one job.
type GenerationParams struct {
	Height     int64
	ExtraNonce []byte
	PoolTag    string

	// PayoutScript receives subsidy and fees.
	PayoutScript []byte
	Fees         uint64

	// WTxIDs are the witness ids of the non-coinbase transactions in block order.
	WTxIDs               []chainhash.Hash
	WitnessReservedValue chainhash.Hash

	MinScriptLen int
	MaxScriptLen int
}

// Generation is a built coinbase transaction.
type Generation struct {
	Tx         *MsgTx
	Raw        []byte
	TxID       chainhash.Hash
	Weight     uint64
	Reward     uint64
	Commitment chainhash.Hash
}

// SubsidyForHeight is the block subsidy at height, halving every HalvingInterval blocks.
func SubsidyForHeight(height int64) uint64 {
	if height < 0 {
		return 0
	}

	halvings := uint64(height) / HalvingInterval
	if halvings >= 64 {
		return 0
	}

	return BaseSubsidy >> halvings
}

// CoinbaseScript is BIP34 height || extra nonce push || pool tag push.
func CoinbaseScript(height int64, extraNonce []byte, poolTag string) []byte {
	return bytes.Join([][]byte{
		utils.SerializeNumber(uint64(height)),
		{byte(len(extraNonce))},
		extraNonce,
		utils.SerializeString(poolTag),
	}, nil)
}

// GenerateOutputTransactions returns the reward output followed by the witness commitment
// output.
func GenerateOutputTransactions(payoutScript []byte, reward uint64, commitment chainhash.Hash) []*TxOut {
	return []*TxOut{
		{Value: int64(reward), ScriptPubKey: payoutScript},
		{Value: 0, ScriptPubKey: merkletree.WitnessCommitmentScript(commitment)},
	}
}

// CreateGeneration builds the segwit coinbase for p: one null input carrying the coinbase
// script and the witness reserved value, a reward output and the witness commitment output.
func CreateGeneration(p *GenerationParams) (*Generation, error) {
	if p.Height < 0 {
		return nil, types.NewRuleError(types.ErrInvalidCoinbaseLayout, "height", "negative height %d", p.Height)
	}

	if len(p.ExtraNonce) > 0x4b {
		return nil, types.NewRuleError(types.ErrInvalidCoinbaseLayout, "extraNonce", "extra nonce of %d bytes cannot be pushed directly", len(p.ExtraNonce))
	}

	if len(p.PoolTag) > 0x4b {
		return nil, types.NewRuleError(types.ErrInvalidCoinbaseLayout, "poolTag", "pool tag of %d bytes cannot be pushed directly", len(p.PoolTag))
	}

	script := CoinbaseScript(p.Height, p.ExtraNonce, p.PoolTag)
	minLen, maxLen := p.MinScriptLen, p.MaxScriptLen
	if minLen == 0 && maxLen == 0 {
		minLen, maxLen = types.MinCoinbaseScriptLen, types.MaxCoinbaseScriptLen
	}
	if len(script) < minLen || len(script) > maxLen {
		return nil, types.NewRuleError(types.ErrInvalidCoinbaseLayout, "script", "coinbase script is %d bytes, want %d-%d", len(script), minLen, maxLen)
	}

	reward, ok := types.AddUint64(SubsidyForHeight(p.Height), p.Fees)
	if !ok || reward > math.MaxInt64 {
		return nil, types.NewRuleError(types.ErrInvalidCoinbaseLayout, "vout[0].value", "reward overflows: subsidy %d, fees %d", SubsidyForHeight(p.Height), p.Fees)
	}

	commitment := merkletree.WitnessCommitment(p.WTxIDs, p.WitnessReservedValue)
	reserved := make([]byte, chainhash.HashSize)
	copy(reserved, p.WitnessReservedValue[:])

	tx := &MsgTx{
		Version: 1,
		TxIn: []*TxIn{{
			PreviousOutPoint: OutPoint{Index: 0xffffffff},
			SignatureScript:  script,
			Witness:          TxWitness{reserved},
			Sequence:         coinbaseSequence,
		}},
		TxOut:    GenerateOutputTransactions(p.PayoutScript, reward, commitment),
		LockTime: 0,
	}

	return &Generation{
		Tx:         tx,
		Raw:        tx.Serialize(),
		TxID:       tx.TxHash(),
		Weight:     tx.Weight(),
		Reward:     reward,
		Commitment: commitment,
	}, nil
}
