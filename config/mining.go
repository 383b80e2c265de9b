package config

import (
	"fmt"
	"strconv"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/algorithm"
	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
	"github.com/pkg/errors"
)

const (
	DefaultBlockVersion       = 0x20000000
	DefaultHeight             = 1
	DefaultExtraNonceSize     = 4
	DefaultMaxExtraNonceRolls = 16
	DefaultPoolTag            = "/blockminer/"
)

// MiningOptions carries the consensus constants and the template the job is built from.
type MiningOptions struct {
	// Target is a 64 char big-endian hex threshold. When empty it is expanded from Bits.
	Target string `json:"target"`
	// Bits is the compact difficulty as hex, e.g. "1f00ffff".
	Bits string `json:"bits"`

	MinVersion     uint32 `json:"minVersion"`
	MaxBlockWeight uint64 `json:"maxBlockWeight"`

	// WitnessReservedValue is 64 hex chars, used as is.
	WitnessReservedValue string `json:"witnessReservedValue"`

	// TimeWindow is a duration such as "2h".
	TimeWindow string `json:"timeWindow"`

	Workers   int    `json:"workers"`
	MaxNonce  uint64 `json:"maxNonce"`
	BatchSize uint64 `json:"batchSize"`

	ExtraNonceSize     int    `json:"extraNonceSize"`
	MaxExtraNonceRolls int    `json:"maxExtraNonceRolls"`
	PoolTag            string `json:"poolTag"`

	BlockVersion      uint32 `json:"blockVersion"`
	Height            int64  `json:"height"`
	PreviousBlockHash string `json:"previousBlockHash"`
	// Time is the header time in unix seconds; zero means the time the job is built.
	Time uint32 `json:"time"`

	// Policy is "nonnegative" (default) or "balanced".
	Policy string `json:"policy"`
}

func (mo *MiningOptions) SetDefaults() {
	if mo.Bits == "" {
		mo.Bits = fmt.Sprintf("%08x", types.DefaultBits)
	}
	if mo.MinVersion == 0 {
		mo.MinVersion = types.DefaultMinVersion
	}
	if mo.MaxBlockWeight == 0 {
		mo.MaxBlockWeight = types.MaxBlockWeight
	}
	if mo.TimeWindow == "" {
		mo.TimeWindow = types.DefaultTimeWindow.String()
	}
	if mo.Workers == 0 {
		mo.Workers = 1
	}
	if mo.ExtraNonceSize == 0 {
		mo.ExtraNonceSize = DefaultExtraNonceSize
	}
	if mo.MaxExtraNonceRolls == 0 {
		mo.MaxExtraNonceRolls = DefaultMaxExtraNonceRolls
	}
	if mo.PoolTag == "" {
		mo.PoolTag = DefaultPoolTag
	}
	if mo.BlockVersion == 0 {
		mo.BlockVersion = DefaultBlockVersion
	}
	if mo.Height == 0 {
		mo.Height = DefaultHeight
	}
}

func (mo *MiningOptions) ParseBits() (uint32, error) {
	bits, err := strconv.ParseUint(mo.Bits, 16, 32)
	if err != nil {
		return 0, types.NewRuleError(types.ErrEncoding, "bits", "malformed bits %q: %s", mo.Bits, err)
	}

	return uint32(bits), nil
}

// ToParams converts the options into the immutable rule set shared by the miner and validator.
func (mo *MiningOptions) ToParams() (types.ConsensusParams, error) {
	params := types.DefaultConsensusParams()

	bits, err := mo.ParseBits()
	if err != nil {
		return params, err
	}
	params.Bits = bits

	if mo.Target != "" {
		target, err := algorithm.TargetFromHex(mo.Target)
		if err != nil {
			return params, err
		}
		params.Target = target
	} else {
		params.Target = algorithm.TargetFromBits(bits)
	}

	if mo.MinVersion != 0 {
		params.MinVersion = mo.MinVersion
	}
	if mo.MaxBlockWeight != 0 {
		params.MaxBlockWeight = mo.MaxBlockWeight
	}

	if mo.TimeWindow != "" {
		window, err := time.ParseDuration(mo.TimeWindow)
		if err != nil {
			return params, errors.Wrapf(err, "invalid time window %q", mo.TimeWindow)
		}
		params.TimeWindow = window
	}

	if mo.WitnessReservedValue != "" {
		b, err := utils.DecodeHex("witnessReservedValue", mo.WitnessReservedValue)
		if err != nil {
			return params, err
		}
		if len(b) != chainhash.HashSize {
			return params, types.NewRuleError(types.ErrEncoding, "witnessReservedValue", "must be %d bytes, got %d", chainhash.HashSize, len(b))
		}
		copy(params.WitnessReservedValue[:], b)
	}

	return params, nil
}

func (mo *MiningOptions) TxPolicy() (transactions.Policy, error) {
	return transactions.ParsePolicy(mo.Policy)
}

// Template builds the block template for txs. now is used when no header time is configured.
func (mo *MiningOptions) Template(txs []*types.Transaction, now time.Time) (*types.BlockTemplate, error) {
	bits, err := mo.ParseBits()
	if err != nil {
		return nil, err
	}

	tmpl := &types.BlockTemplate{
		Version:      mo.BlockVersion,
		Height:       mo.Height,
		CurTime:      mo.Time,
		Bits:         bits,
		Transactions: txs,
	}

	if tmpl.CurTime == 0 {
		tmpl.CurTime = uint32(now.Unix())
	}

	if mo.PreviousBlockHash != "" {
		if tmpl.PreviousBlockHash, err = utils.HashFromHex("previousBlockHash", mo.PreviousBlockHash); err != nil {
			return nil, err
		}
	}

	return tmpl, nil
}
