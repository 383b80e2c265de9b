package jobs

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/merkletree"
	"github.com/mining-pool/blockminer/miner"
	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
	"github.com/mining-pool/blockminer/validator"
)

// Job is a block template with its transactions selected and a coinbase built. Jobs are not
// modified after creation; rolling the extra nonce returns a new Job with the same id.
type Job struct {
	JobId    string
	Template *types.BlockTemplate

	// Transactions are the selected non-coinbase transactions in block order.
	Transactions []*types.Transaction
	Fees         uint64
	Weight       uint64

	ExtraNonce []byte
	Generation *transactions.Generation
	MerkleTree *merkletree.MerkleTree

	// Header is the unsolved header, Nonce = 0.
	Header types.BlockHeader

	payoutScript []byte
	poolTag      string
	params       types.ConsensusParams
}

// JobParams is the job as handed out for display, in the order of a mining.notify.
type JobParams struct {
	JobId        string   `json:"jobId"`
	PrevHash     string   `json:"prevHash"`
	Coinbase     string   `json:"coinbase"`
	MerkleBranch []string `json:"merkleBranch"`
	Version      string   `json:"version"`
	Bits         string   `json:"bits"`
	Time         string   `json:"time"`
	Height       int64    `json:"height"`
	ExtraNonce   string   `json:"extraNonce"`
	Transactions int      `json:"transactions"`
	Fees         uint64   `json:"fees"`
	Weight       uint64   `json:"weight"`
	CleanJobs    bool     `json:"cleanJobs"`
}

func NewJob(jobId string, tmpl *types.BlockTemplate, txs []*types.Transaction, payoutScript, extraNonce []byte, poolTag string, params types.ConsensusParams) (*Job, error) {
	var fees, weight uint64
	for _, tx := range txs {
		var feeOK, weightOK bool
		fees, feeOK = types.AddUint64(fees, tx.Fee)
		weight, weightOK = types.AddUint64(weight, tx.Weight)
		if !feeOK || !weightOK {
			return nil, types.NewRuleError(types.ErrBlockTooHeavy, "transactions", "totals overflow")
		}
	}

	j := &Job{
		JobId:        jobId,
		Template:     tmpl,
		Transactions: txs,
		Fees:         fees,
		Weight:       weight,
		MerkleTree:   merkletree.NewMerkleTree(types.TxIDs(txs)),
		Header: types.BlockHeader{
			Version:       tmpl.Version,
			PrevBlockHash: tmpl.PreviousBlockHash,
			Timestamp:     tmpl.CurTime,
			Bits:          tmpl.Bits,
		},
		payoutScript: payoutScript,
		poolTag:      poolTag,
		params:       params,
	}

	if err := j.buildGeneration(extraNonce); err != nil {
		return nil, err
	}

	return j, nil
}

func (j *Job) buildGeneration(extraNonce []byte) error {
	gen, err := transactions.CreateGeneration(&transactions.GenerationParams{
		Height:               j.Template.Height,
		ExtraNonce:           extraNonce,
		PoolTag:              j.poolTag,
		PayoutScript:         j.payoutScript,
		Fees:                 j.Fees,
		WTxIDs:               types.WTxIDs(j.Transactions),
		WitnessReservedValue: j.params.WitnessReservedValue,
		MinScriptLen:         j.params.MinCoinbaseScriptLen,
		MaxScriptLen:         j.params.MaxCoinbaseScriptLen,
	})
	if err != nil {
		return err
	}

	j.ExtraNonce = extraNonce
	j.Generation = gen
	j.Header.MerkleRoot = j.MerkleTree.WithFirst(gen.TxID)
	j.Header.Nonce = 0

	return nil
}

// RollExtraNonce returns a copy of the job whose coinbase carries extraNonce. Only the first
// merkle leaf changes, so the root is recomputed from the stored branch.
func (j *Job) RollExtraNonce(extraNonce []byte) (*Job, error) {
	rolled := *j
	if err := rolled.buildGeneration(extraNonce); err != nil {
		return nil, err
	}

	return &rolled, nil
}

// TxIDs lists the coinbase txid followed by the selected transactions.
func (j *Job) TxIDs() []chainhash.Hash {
	return append([]chainhash.Hash{j.Generation.TxID}, types.TxIDs(j.Transactions)...)
}

// Block assembles the block for a solved header.
func (j *Job) Block(header types.BlockHeader) *types.Block {
	return &types.Block{
		Header:       header,
		Coinbase:     j.Generation.Raw,
		Transactions: j.Transactions,
	}
}

func (j *Job) GetJobParams(cleanJobs bool) *JobParams {
	return &JobParams{
		JobId:        j.JobId,
		PrevHash:     j.Header.PrevBlockHash.String(),
		Coinbase:     hex.EncodeToString(j.Generation.Raw),
		MerkleBranch: merkletree.GetMerkleHashes(j.MerkleTree.Steps),
		Version:      hex.EncodeToString(utils.PackUint32BE(j.Header.Version)),
		Bits:         j.Header.BitsString(),
		Time:         hex.EncodeToString(utils.PackUint32BE(j.Header.Timestamp)),
		Height:       j.Template.Height,
		ExtraNonce:   hex.EncodeToString(j.ExtraNonce),
		Transactions: len(j.Transactions),
		Fees:         j.Fees,
		Weight:       j.Weight,
		CleanJobs:    cleanJobs,
	}
}

// Result describes the block solved by sol, with the totals the validator computed.
func (j *Job) Result(sol *miner.Solution, stats *validator.BlockStats) *types.BlockResult {
	txids := j.TxIDs()
	ids := make([]string, len(txids))
	for i := range txids {
		ids[i] = txids[i].String()
	}

	return &types.BlockResult{
		JobId:       j.JobId,
		Height:      j.Template.Height,
		Header:      sol.Header,
		HeaderHex:   sol.Header.String(),
		BlockHash:   sol.Header.Hash().String(),
		Coinbase:    j.Generation.Raw,
		CoinbaseHex: hex.EncodeToString(j.Generation.Raw),
		TxIDs:       ids,
		ExtraNonce:  hex.EncodeToString(j.ExtraNonce),
		Fee:         stats.Fee,
		Weight:      stats.Weight,
		Nonce:       sol.Header.Nonce,
		Time:        sol.Header.Timestamp,
		Hash:        sol.Hash,
	}
}
