package merkletree

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/utils"
)

// MerkleTree holds the merkle branch of the first (coinbase) slot of a tree, so the root can
// be recomputed for any coinbase without rehashing the other leaves.
type MerkleTree struct {
	Data  []chainhash.Hash
	Steps []chainhash.Hash
}

// NewMerkleTree builds the branch for a tree whose first leaf is left open and whose remaining
// leaves are data.
func NewMerkleTree(data []chainhash.Hash) *MerkleTree {
	return &MerkleTree{
		Data:  data,
		Steps: CalculateSteps(data),
	}
}

func CalculateSteps(data []chainhash.Hash) []chainhash.Hash {
	// slot 0 is a placeholder for the coinbase and is never read
	L := make([]chainhash.Hash, 1, len(data)+2)
	L = append(L, data...)
	steps := make([]chainhash.Hash, 0)
	StartL := 2
	Ll := len(L)

	for Ll > 1 {
		steps = append(steps, L[1])

		if Ll%2 != 0 {
			L = append(L, L[len(L)-1])
		}

		r := utils.Range(StartL, Ll, 2)
		Ld := make([]chainhash.Hash, 1, len(r)+1)

		for i := 0; i < len(r); i++ {
			Ld = append(Ld, MerkleJoin(L[r[i]], L[r[i]+1]))
		}
		L = Ld
		Ll = len(L)
	}

	return steps
}

// MerkleJoin hashes the concatenation left || right.
func MerkleJoin(h1, h2 chainhash.Hash) chainhash.Hash {
	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], h1[:])
	copy(buf[chainhash.HashSize:], h2[:])

	return utils.DoubleHash(buf[:])
}

// WithFirst returns the root of the tree with f in the first slot.
func (mt *MerkleTree) WithFirst(f chainhash.Hash) chainhash.Hash {
	for i := 0; i < len(mt.Steps); i++ {
		f = MerkleJoin(f, mt.Steps[i])
	}
	return f
}

func GetMerkleHashes(steps []chainhash.Hash) []string {
	hashes := make([]string, 0, len(steps))
	for i := 0; i < len(steps); i++ {
		hashes = append(hashes, hex.EncodeToString(steps[i][:]))
	}
	return hashes
}

// MerkleRoot reduces ids pairwise, duplicating the last element of odd levels, until one
// digest is left. ids are in natural byte order and are never reversed. A single id is its own
// root; an empty list has none and yields nil.
func MerkleRoot(ids []chainhash.Hash) *chainhash.Hash {
	if len(ids) == 0 {
		return nil
	}

	level := make([]chainhash.Hash, len(ids))
	copy(level, ids)

	for len(level) > 1 {
		if len(level)%2 != 0 {
			level = append(level, level[len(level)-1])
		}

		next := make([]chainhash.Hash, 0, len(level)/2)
		for i := 0; i < len(level); i += 2 {
			next = append(next, MerkleJoin(level[i], level[i+1]))
		}
		level = next
	}

	root := level[0]
	return &root
}
