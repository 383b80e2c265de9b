package types

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// Block owns a header and its transactions, coinbase first.
type Block struct {
	Header       BlockHeader
	Coinbase     []byte
	Transactions []*Transaction
}

// TxIDs lists the coinbase txid followed by the other transactions in block order.
func (b *Block) TxIDs(coinbaseTxID chainhash.Hash) []chainhash.Hash {
	return append([]chainhash.Hash{coinbaseTxID}, TxIDs(b.Transactions)...)
}

// BlockTemplate is the work a job is built from, shaped after a getblocktemplate response.
type BlockTemplate struct {
	Version           uint32         `json:"version"`
	PreviousBlockHash chainhash.Hash `json:"previousblockhash"`
	Height            int64          `json:"height"`
	CurTime           uint32         `json:"curtime"`
	Bits              uint32         `json:"bits"`
	Transactions      []*Transaction `json:"transactions"`
}

// BlockResult is a mined and validated block as handed to storage, the API and the output
// writer.
type BlockResult struct {
	JobId       string         `json:"jobId"`
	Height      int64          `json:"height"`
	Header      BlockHeader    `json:"-"`
	HeaderHex   string         `json:"header"`
	BlockHash   string         `json:"blockHash"`
	Coinbase    []byte         `json:"-"`
	CoinbaseHex string         `json:"coinbase"`
	TxIDs       []string       `json:"txids"`
	ExtraNonce  string         `json:"extraNonce"`
	Fee         uint64         `json:"fee"`
	Weight      uint64         `json:"weight"`
	Nonce       uint32         `json:"nonce"`
	Time        uint32         `json:"time"`
	Hash        chainhash.Hash `json:"-"`
}
