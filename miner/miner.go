package miner

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/algorithm"
	"github.com/mining-pool/blockminer/types"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultBatchSize = 1 << 16

	// how many nonces a worker tries between cancellation checks
	checkInterval = 1 << 12

	noSolution = math.MaxUint64
)

type Options struct {
	// Workers searching in parallel. Values below 1 mean one.
	Workers int

	// MaxNonce is the last nonce tried. Zero means the whole 32 bit space.
	MaxNonce uint64

	// BatchSize is the number of consecutive nonces a worker claims at a time.
	BatchSize uint64

	// HashFunc is the proof of work hash, sha256d when nil.
	HashFunc algorithm.HashFunc
}

// Solution is a header whose proof of work hash meets the target.
type Solution struct {
	Header types.BlockHeader

	// Hash is the proof of work hash in natural byte order.
	Hash chainhash.Hash
}

type Miner struct {
	workers   int
	maxNonce  uint64
	batchSize uint64
	hashFunc  algorithm.HashFunc

	hashes *atomic.Uint64
}

func New(opts Options) *Miner {
	m := &Miner{
		workers:   opts.Workers,
		maxNonce:  opts.MaxNonce,
		batchSize: opts.BatchSize,
		hashFunc:  opts.HashFunc,
		hashes:    atomic.NewUint64(0),
	}

	if m.workers < 1 {
		m.workers = 1
	}
	if m.maxNonce == 0 || m.maxNonce > math.MaxUint32 {
		m.maxNonce = math.MaxUint32
	}
	if m.batchSize == 0 {
		m.batchSize = DefaultBatchSize
	}
	if m.hashFunc == nil {
		m.hashFunc = algorithm.DoubleSha256Hash
	}

	return m
}

// Hashes is the number of headers hashed since the miner was created.
func (m *Miner) Hashes() uint64 {
	return m.hashes.Load()
}

// Mine searches nonces upward from zero for the first one whose reversed proof of work hash is
// <= target. Workers claim batches in ascending order and the lowest satisfying nonce wins, so
// the result does not depend on scheduling. The search never wraps: if no nonce up to MaxNonce
// qualifies the error is ErrNonceSpaceExhausted.
func (m *Miner) Mine(ctx context.Context, header types.BlockHeader, target algorithm.Target) (*Solution, error) {
	total := m.maxNonce + 1
	batches := (total + m.batchSize - 1) / m.batchSize

	next := atomic.NewUint64(0)
	best := atomic.NewUint64(noSolution)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < m.workers; i++ {
		g.Go(func() error {
			buf := header.Bytes()

			for {
				batch := next.Inc() - 1
				if batch >= batches {
					return nil
				}

				start := batch * m.batchSize
				if start >= best.Load() {
					return nil
				}

				end := start + m.batchSize
				if end > total {
					end = total
				}

				if err := m.searchBatch(gctx, buf, target, start, end, best); err != nil {
					return err
				}
			}
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: %w", types.ErrMiningCanceled, err)
	}

	nonce := best.Load()
	if nonce == noSolution {
		return nil, types.NewRuleError(types.ErrNonceSpaceExhausted, "nonce", "no nonce in [0, %d] meets target %s", m.maxNonce, target)
	}

	solved := header
	solved.Nonce = uint32(nonce)

	var hash chainhash.Hash
	copy(hash[:], m.hashFunc(solved.Bytes()))

	return &Solution{Header: solved, Hash: hash}, nil
}

// searchBatch tries [start, end) on buf and records the first hit in best. It stops early once a
// lower nonce than the rest of the batch has been found elsewhere.
func (m *Miner) searchBatch(ctx context.Context, buf []byte, target algorithm.Target, start, end uint64, best *atomic.Uint64) error {
	var hash chainhash.Hash

	for n := start; n < end; n++ {
		if (n-start)%checkInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if n >= best.Load() {
				return nil
			}
		}

		binary.LittleEndian.PutUint32(buf[76:types.BlockHeaderSize], uint32(n))
		copy(hash[:], m.hashFunc(buf))
		m.hashes.Inc()

		if target.HashMeetsTarget(hash) {
			storeMin(best, n)
			return nil
		}
	}

	return nil
}

func storeMin(best *atomic.Uint64, n uint64) {
	for {
		cur := best.Load()
		if n >= cur || best.CompareAndSwap(cur, n) {
			return
		}
	}
}
