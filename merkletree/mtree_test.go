package merkletree

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/mining-pool/blockminer/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashOf(s string) chainhash.Hash {
	return utils.DoubleHash([]byte(s))
}

func join(a, b chainhash.Hash) chainhash.Hash {
	return utils.DoubleHash(append(append([]byte{}, a[:]...), b[:]...))
}

func TestMerkleRootEmpty(t *testing.T) {
	assert.Nil(t, MerkleRoot(nil))
	assert.Nil(t, MerkleRoot([]chainhash.Hash{}))
}

func TestMerkleRootSingle(t *testing.T) {
	a := hashOf("a")
	root := MerkleRoot([]chainhash.Hash{a})
	require.NotNil(t, root)
	assert.Equal(t, a, *root)
}

func TestMerkleRootPair(t *testing.T) {
	a, b := hashOf("a"), hashOf("b")
	assert.Equal(t, join(a, b), *MerkleRoot([]chainhash.Hash{a, b}))
}

func TestMerkleRootOddLevel(t *testing.T) {
	a, b, c := hashOf("a"), hashOf("b"), hashOf("c")

	want := join(join(a, b), join(c, c))
	assert.Equal(t, want, *MerkleRoot([]chainhash.Hash{a, b, c}))
}

func TestMerkleRootFive(t *testing.T) {
	ids := []chainhash.Hash{hashOf("1"), hashOf("2"), hashOf("3"), hashOf("4"), hashOf("5")}

	l1 := []chainhash.Hash{join(ids[0], ids[1]), join(ids[2], ids[3]), join(ids[4], ids[4])}
	l2 := []chainhash.Hash{join(l1[0], l1[1]), join(l1[2], l1[2])}
	assert.Equal(t, join(l2[0], l2[1]), *MerkleRoot(ids))
}

func TestMerkleRootDeterministic(t *testing.T) {
	ids := []chainhash.Hash{hashOf("x"), hashOf("y"), hashOf("z")}
	first := *MerkleRoot(ids)
	second := *MerkleRoot(ids)
	assert.Equal(t, first, second)
	assert.Equal(t, hashOf("z"), ids[2], "input must not be modified")
}

// Block 100000: four transactions.
func TestMerkleRootKnownBlock(t *testing.T) {
	txids := []string{
		"8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87",
		"fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4",
		"6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4",
		"e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d",
	}

	ids := make([]chainhash.Hash, len(txids))
	for i, s := range txids {
		h, err := utils.HashFromHex("txid", s)
		require.NoError(t, err)
		ids[i] = h
	}

	root := MerkleRoot(ids)
	require.NotNil(t, root)
	assert.Equal(t, "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766", root.String())
}

func TestWithFirstMatchesMerkleRoot(t *testing.T) {
	for n := 0; n < 9; n++ {
		data := make([]chainhash.Hash, n)
		for i := range data {
			data[i] = hashOf(string(rune('a' + i)))
		}

		mt := NewMerkleTree(data)
		coinbase := hashOf("coinbase")

		all := append([]chainhash.Hash{coinbase}, data...)
		assert.Equal(t, *MerkleRoot(all), mt.WithFirst(coinbase), "n=%d", n)
	}
}

func TestGetMerkleHashes(t *testing.T) {
	mt := NewMerkleTree([]chainhash.Hash{hashOf("a"), hashOf("b")})
	hashes := GetMerkleHashes(mt.Steps)
	require.Len(t, hashes, 2)
	assert.Len(t, hashes[0], 64)
}

func TestWitnessCommitment(t *testing.T) {
	a, b := hashOf("wa"), hashOf("wb")
	var reserved chainhash.Hash

	root := WitnessRoot([]chainhash.Hash{a, b})
	assert.Equal(t, *MerkleRoot([]chainhash.Hash{{}, a, b}), root)

	commitment := WitnessCommitment([]chainhash.Hash{a, b}, reserved)
	assert.Equal(t, join(root, reserved), commitment)

	script := WitnessCommitmentScript(commitment)
	require.Len(t, script, 38)
	assert.Equal(t, WitnessCommitmentHeader, script[:6])
	assert.Equal(t, commitment[:], script[6:])
}
