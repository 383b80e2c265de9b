package types

import (
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const (
	// MaxBlockWeight is the consensus ceiling on the summed weight of a block's non-coinbase
	// transactions.
	MaxBlockWeight = 4000000

	MinCoinbaseScriptLen = 2
	MaxCoinbaseScriptLen = 100

	DefaultBits       = 0x1f00ffff
	DefaultMinVersion = 4
	DefaultTimeWindow = 2 * time.Hour
)

// DefaultTarget is the target DefaultBits expands to.
var DefaultTarget = [32]byte{0x00, 0x00, 0xff, 0xff}

// ConsensusParams is the immutable rule set handed to the miner and the validator.
type ConsensusParams struct {
	// Target is a 32 byte big-endian threshold.
	Target [32]byte
	Bits   uint32

	MinVersion     uint32
	MaxBlockWeight uint64
	TimeWindow     time.Duration

	// WitnessReservedValue is hashed with the witness merkle root to form the commitment.
	WitnessReservedValue chainhash.Hash

	MinCoinbaseScriptLen int
	MaxCoinbaseScriptLen int
}

func DefaultConsensusParams() ConsensusParams {
	return ConsensusParams{
		Target:               DefaultTarget,
		Bits:                 DefaultBits,
		MinVersion:           DefaultMinVersion,
		MaxBlockWeight:       MaxBlockWeight,
		TimeWindow:           DefaultTimeWindow,
		MinCoinbaseScriptLen: MinCoinbaseScriptLen,
		MaxCoinbaseScriptLen: MaxCoinbaseScriptLen,
	}
}
