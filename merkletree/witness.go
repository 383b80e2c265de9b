package merkletree

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/utils"
)

// WitnessCommitmentHeader prefixes the commitment inside the coinbase's commitment output:
// OP_RETURN, push 36 bytes, then the 0xaa21a9ed tag.
var WitnessCommitmentHeader = []byte{0x6a, 0x24, 0xaa, 0x21, 0xa9, 0xed}

// WitnessRoot is the merkle root over the witness ids of a block. The coinbase occupies the
// first slot with its witness id fixed to all zeroes; wtxids are the other transactions in block
// order.
func WitnessRoot(wtxids []chainhash.Hash) chainhash.Hash {
	ids := make([]chainhash.Hash, 0, len(wtxids)+1)
	ids = append(ids, chainhash.Hash{})
	ids = append(ids, wtxids...)

	return *MerkleRoot(ids)
}

// WitnessCommitment is sha256d(witnessRoot || reservedValue).
func WitnessCommitment(wtxids []chainhash.Hash, reservedValue chainhash.Hash) chainhash.Hash {
	root := WitnessRoot(wtxids)

	var buf [chainhash.HashSize * 2]byte
	copy(buf[:chainhash.HashSize], root[:])
	copy(buf[chainhash.HashSize:], reservedValue[:])

	return utils.DoubleHash(buf[:])
}

// WitnessCommitmentScript is the output script carrying commitment.
func WitnessCommitmentScript(commitment chainhash.Hash) []byte {
	script := make([]byte, 0, len(WitnessCommitmentHeader)+chainhash.HashSize)
	script = append(script, WitnessCommitmentHeader...)
	return append(script, commitment[:]...)
}
