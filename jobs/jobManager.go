package jobs

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mining-pool/blockminer/algorithm"
	"github.com/mining-pool/blockminer/config"
	"github.com/mining-pool/blockminer/miner"
	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
	"github.com/mining-pool/blockminer/validator"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
)

var log = logging.Logger("jobMgr")

// BlockStore persists the outcome of a job. *storage.DB satisfies it.
type BlockStore interface {
	PutBlock(ctx context.Context, result *types.BlockResult) error
	PutRejected(ctx context.Context, blockHash string, reason error) error
}

// Stats is a snapshot of the manager for the status API.
type Stats struct {
	Hashes      uint64 `json:"hashes"`
	Jobs        uint64 `json:"jobs"`
	Rolls       uint64 `json:"extraNonceRolls"`
	BlocksFound uint64 `json:"blocksFound"`
	CurrentJob  string `json:"currentJob,omitempty"`
	LastError   string `json:"lastError,omitempty"`
	Difficulty  string `json:"difficulty"`
}

type JobManager struct {
	Options *config.Options

	params       types.ConsensusParams
	target       algorithm.Target
	policy       transactions.Policy
	payoutScript []byte

	JobCounter          *JobCounter
	ExtraNonceGenerator *ExtraNonceGenerator

	miner     *miner.Miner
	validator *validator.Validator
	storage   BlockStore
	now       func() time.Time

	jobs        *atomic.Uint64
	rolls       *atomic.Uint64
	blocksFound *atomic.Uint64

	mu           sync.RWMutex
	currentJob   *Job
	latestResult *types.BlockResult
	lastError    error
}

type Option func(jm *JobManager)

// WithStorage records every mined or rejected block in store.
func WithStorage(store BlockStore) Option {
	return func(jm *JobManager) {
		jm.storage = store
	}
}

// WithClock replaces the wall clock used for locktime and header time checks.
func WithClock(now func() time.Time) Option {
	return func(jm *JobManager) {
		jm.now = now
	}
}

func NewJobManager(options *config.Options, opts ...Option) (*JobManager, error) {
	params, err := options.Mining.ToParams()
	if err != nil {
		return nil, err
	}

	policy, err := options.Mining.TxPolicy()
	if err != nil {
		return nil, err
	}

	payoutScript, err := options.PoolAddress.GetScript()
	if err != nil {
		return nil, errors.Wrap(err, "pool address")
	}

	hashFunc, err := options.Algorithm.HashFunc()
	if err != nil {
		return nil, err
	}

	jm := &JobManager{
		Options:             options,
		params:              params,
		target:              algorithm.Target(params.Target),
		policy:              policy,
		payoutScript:        payoutScript,
		JobCounter:          NewJobCounter(),
		ExtraNonceGenerator: NewExtraNonceGenerator(options.Mining.ExtraNonceSize),
		miner: miner.New(miner.Options{
			Workers:   options.Mining.Workers,
			MaxNonce:  options.Mining.MaxNonce,
			BatchSize: options.Mining.BatchSize,
			HashFunc:  hashFunc,
		}),
		now:         time.Now,
		jobs:        atomic.NewUint64(0),
		rolls:       atomic.NewUint64(0),
		blocksFound: atomic.NewUint64(0),
	}

	for _, opt := range opts {
		opt(jm)
	}

	jm.validator = validator.New(params,
		validator.WithHashFunc(hashFunc),
		validator.WithClock(func() time.Time { return jm.now() }),
	)

	return jm, nil
}

func (jm *JobManager) Params() types.ConsensusParams {
	return jm.params
}

// SelectTransactions drops transactions that fail the structural checks or repeat an earlier
// txid, then keeps the rest in order while their summed weight stays within the block ceiling.
func (jm *JobManager) SelectTransactions(txs []*types.Transaction) []*types.Transaction {
	now := jm.now()
	seen := make(map[chainhash.Hash]struct{}, len(txs))
	selected := make([]*types.Transaction, 0, len(txs))

	var weight uint64
	for _, tx := range txs {
		if err := transactions.CheckTransaction(tx, jm.policy, now); err != nil {
			log.Debug("skipping transaction ", tx.TxID, ": ", err)
			continue
		}

		if _, ok := seen[tx.TxID]; ok {
			log.Warn("skipping duplicate transaction ", tx.TxID)
			continue
		}

		total, ok := types.AddUint64(weight, tx.Weight)
		if !ok || total > jm.params.MaxBlockWeight {
			log.Debug("skipping transaction ", tx.TxID, ", block weight would reach ", total)
			continue
		}

		seen[tx.TxID] = struct{}{}
		weight = total
		selected = append(selected, tx)
	}

	return selected
}

// ProcessTemplate turns tmpl into the current job.
func (jm *JobManager) ProcessTemplate(tmpl *types.BlockTemplate) (*Job, error) {
	selected := jm.SelectTransactions(tmpl.Transactions)
	if len(selected) == 0 {
		err := types.NewRuleError(types.ErrEmptyBlock, "transactions", "none of the %d candidate transactions can be included", len(tmpl.Transactions))
		jm.setError(err)
		return nil, err
	}

	job, err := NewJob(
		jm.JobCounter.Next(),
		tmpl,
		selected,
		jm.payoutScript,
		jm.ExtraNonceGenerator.GetExtraNonce(),
		jm.Options.Mining.PoolTag,
		jm.params,
	)
	if err != nil {
		jm.setError(err)
		return nil, err
	}

	jm.jobs.Inc()
	jm.mu.Lock()
	jm.currentJob = job
	jm.mu.Unlock()

	log.Info("new job ", job.JobId, " at height ", tmpl.Height, " with ", len(selected), "/", len(tmpl.Transactions),
		" transactions, fees ", job.Fees, ", weight ", job.Weight, ", diff ", jm.target.Difficulty())

	return job, nil
}

// Run mines the current job. When the nonce space runs out the extra nonce is rolled and the
// search restarts, up to the configured number of rolls. The solved block is validated again
// before it is returned and stored.
func (jm *JobManager) Run(ctx context.Context) (*types.BlockResult, error) {
	job := jm.CurrentJob()
	if job == nil {
		return nil, errors.New("no job to mine, process a template first")
	}

	start, hashes := time.Now(), jm.miner.Hashes()
	var sol *miner.Solution
	for roll := 0; ; roll++ {
		var err error
		sol, err = jm.miner.Mine(ctx, job.Header, jm.target)
		if err == nil {
			break
		}

		if !errors.Is(err, types.ErrNonceSpaceExhausted) || roll >= jm.Options.Mining.MaxExtraNonceRolls {
			jm.setError(err)
			return nil, err
		}

		if job, err = job.RollExtraNonce(jm.ExtraNonceGenerator.GetExtraNonce()); err != nil {
			jm.setError(err)
			return nil, err
		}

		jm.rolls.Inc()
		jm.mu.Lock()
		jm.currentJob = job
		jm.mu.Unlock()

		log.Info("nonce space exhausted, rolled extra nonce to ", fmt.Sprintf("%x", job.ExtraNonce))
	}

	elapsed := time.Since(start)
	log.Info("found nonce ", sol.Header.Nonce, " for job ", job.JobId, " in ", elapsed, " at ",
		utils.GetReadableHashRateString(float64(jm.miner.Hashes()-hashes)/elapsed.Seconds()), "/s")

	block := job.Block(sol.Header)
	stats, err := jm.validator.ValidateTemplateBlock(block, validator.NewTxMap(job.Transactions))
	if err != nil {
		log.Error("mined block ", sol.Header.Hash(), " is invalid: ", err)
		if jm.storage != nil {
			if serr := jm.storage.PutRejected(ctx, sol.Header.Hash().String(), err); serr != nil {
				log.Error(serr)
			}
		}
		jm.setError(err)
		return nil, err
	}

	result := job.Result(sol, stats)
	jm.blocksFound.Inc()

	if jm.storage != nil {
		if err := jm.storage.PutBlock(ctx, result); err != nil {
			log.Error("failed to record block ", result.BlockHash, ": ", err)
		}
	}

	jm.mu.Lock()
	jm.latestResult = result
	jm.lastError = nil
	jm.mu.Unlock()

	log.Info("block ", result.BlockHash, " at height ", result.Height, ", fee ", result.Fee, ", weight ", result.Weight)
	return result, nil
}

func (jm *JobManager) setError(err error) {
	jm.mu.Lock()
	jm.lastError = err
	jm.mu.Unlock()
}

func (jm *JobManager) CurrentJob() *Job {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	return jm.currentJob
}

// LatestResult is the last block mined, or nil.
func (jm *JobManager) LatestResult() *types.BlockResult {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	return jm.latestResult
}

func (jm *JobManager) Stats() *Stats {
	jm.mu.RLock()
	defer jm.mu.RUnlock()

	stats := &Stats{
		Hashes:      jm.miner.Hashes(),
		Jobs:        jm.jobs.Load(),
		Rolls:       jm.rolls.Load(),
		BlocksFound: jm.blocksFound.Load(),
		Difficulty:  fmt.Sprintf("%g", jm.target.Difficulty()),
	}

	if jm.currentJob != nil {
		stats.CurrentJob = jm.currentJob.JobId
	}
	if jm.lastError != nil {
		stats.LastError = jm.lastError.Error()
	}

	return stats
}

// FormatOutput renders result as the header hex, the coinbase hex, then one txid per line with
// the coinbase first.
func FormatOutput(result *types.BlockResult) string {
	var sb strings.Builder

	sb.WriteString(result.HeaderHex)
	sb.WriteByte('\n')
	sb.WriteString(result.CoinbaseHex)
	sb.WriteByte('\n')
	for _, txid := range result.TxIDs {
		sb.WriteString(txid)
		sb.WriteByte('\n')
	}

	return sb.String()
}
