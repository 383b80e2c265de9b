package types

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

const BlockHeaderSize = 80

// BlockHeader is the 80 byte header the proof of work commits to.
//
// https://en.bitcoin.it/wiki/Protocol_specification#Block_Headers
type BlockHeader struct {
	Version uint32

	// PrevBlockHash and MerkleRoot are kept in natural (wire) byte order, the reverse of the
	// hex shown by explorers.
	PrevBlockHash chainhash.Hash
	MerkleRoot    chainhash.Hash

	// Unix seconds.
	Timestamp uint32

	// Compact encoding of the difficulty target.
	Bits uint32

	Nonce uint32
}

// Serialize writes the header into dst, which must hold BlockHeaderSize bytes.
func (bh *BlockHeader) Serialize(dst []byte) {
	_ = dst[BlockHeaderSize-1]

	binary.LittleEndian.PutUint32(dst[0:4], bh.Version)
	copy(dst[4:36], bh.PrevBlockHash[:])
	copy(dst[36:68], bh.MerkleRoot[:])
	binary.LittleEndian.PutUint32(dst[68:72], bh.Timestamp)
	binary.LittleEndian.PutUint32(dst[72:76], bh.Bits)
	binary.LittleEndian.PutUint32(dst[76:80], bh.Nonce)
}

func (bh *BlockHeader) Bytes() []byte {
	b := make([]byte, BlockHeaderSize)
	bh.Serialize(b)
	return b
}

// Hash is the double sha256 of the header; String() of the result is the block hash as
// usually displayed.
func (bh *BlockHeader) Hash() chainhash.Hash {
	return chainhash.DoubleHashH(bh.Bytes())
}

func (bh *BlockHeader) String() string {
	return hex.EncodeToString(bh.Bytes())
}

func NewBlockHeaderFromBytes(headerBytes []byte) (*BlockHeader, error) {
	if len(headerBytes) != BlockHeaderSize {
		return nil, NewRuleError(ErrInvalidHeaderLength, "header", "block header should be %d bytes long, got %d", BlockHeaderSize, len(headerBytes))
	}

	bh := &BlockHeader{
		Version:   binary.LittleEndian.Uint32(headerBytes[0:4]),
		Timestamp: binary.LittleEndian.Uint32(headerBytes[68:72]),
		Bits:      binary.LittleEndian.Uint32(headerBytes[72:76]),
		Nonce:     binary.LittleEndian.Uint32(headerBytes[76:80]),
	}
	copy(bh.PrevBlockHash[:], headerBytes[4:36])
	copy(bh.MerkleRoot[:], headerBytes[36:68])

	return bh, nil
}

func NewBlockHeaderFromString(headerHex string) (*BlockHeader, error) {
	headerBytes, err := hex.DecodeString(headerHex)
	if err != nil {
		return nil, NewRuleError(ErrEncoding, "header", "error decoding hex string to bytes: %s", err)
	}

	return NewBlockHeaderFromBytes(headerBytes)
}

// BitsString renders bits the way getblocktemplate does, e.g. "1f00ffff".
func (bh *BlockHeader) BitsString() string {
	return fmt.Sprintf("%08x", bh.Bits)
}
