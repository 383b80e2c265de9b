package mempool

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	logging "github.com/ipfs/go-log/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
	"github.com/pkg/errors"
)

var log = logging.Logger("mempool")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Prevout is the output an input spends, as recorded alongside the transaction.
type Prevout struct {
	Value        int64  `json:"value"`
	ScriptPubKey string `json:"scriptpubkey"`
}

type Vin struct {
	TxID       string   `json:"txid"`
	Vout       uint32   `json:"vout"`
	Prevout    *Prevout `json:"prevout"`
	IsCoinbase bool     `json:"is_coinbase"`
}

type Vout struct {
	Value        int64  `json:"value"`
	ScriptPubKey string `json:"scriptpubkey"`
}

// Record is one transaction file. TxID, WTxID, Weight and Fee may be omitted when Hex is given
// (ids and weight are then derived from it) or, for Fee, when every input records its prevout.
type Record struct {
	TxID     string  `json:"txid"`
	WTxID    string  `json:"wtxid"`
	Hex      string  `json:"hex"`
	Version  int32   `json:"version"`
	LockTime uint32  `json:"locktime"`
	Vin      []*Vin  `json:"vin"`
	Vout     []*Vout `json:"vout"`
	Weight   *uint64 `json:"weight"`
	Fee      *uint64 `json:"fee"`
}

// Pool is the set of loaded transactions in file name order.
type Pool struct {
	txs  []*types.Transaction
	byID map[chainhash.Hash]*types.Transaction
}

func NewPool(txs []*types.Transaction) *Pool {
	p := &Pool{
		txs:  txs,
		byID: make(map[chainhash.Hash]*types.Transaction, len(txs)),
	}

	for _, tx := range txs {
		p.byID[tx.TxID] = tx
	}

	return p
}

// Transactions returns the pool in load order.
func (p *Pool) Transactions() []*types.Transaction {
	return p.txs
}

func (p *Pool) Get(txid chainhash.Hash) (*types.Transaction, bool) {
	tx, ok := p.byID[txid]
	return tx, ok
}

func (p *Pool) Len() int {
	return len(p.txs)
}

// LoadDir decodes every *.json file in dir, sorted by file name.
func LoadDir(dir string) (*Pool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, errors.Wrapf(err, "listing %s", dir)
	}
	sort.Strings(files)

	txs := make([]*types.Transaction, 0, len(files))
	seen := make(map[chainhash.Hash]string, len(files))
	for _, file := range files {
		tx, err := LoadFile(file)
		if err != nil {
			return nil, err
		}

		if prev, ok := seen[tx.TxID]; ok {
			log.Warn("skipping duplicate transaction ", tx.TxID, " in ", file, ", already loaded from ", prev)
			continue
		}
		seen[tx.TxID] = file

		txs = append(txs, tx)
	}

	log.Info("loaded ", len(txs), " transactions from ", dir)
	return NewPool(txs), nil
}

// LoadFile decodes a single transaction file.
func LoadFile(file string) (*types.Transaction, error) {
	raw, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", file)
	}

	var record Record
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, types.NewRuleError(types.ErrEncoding, filepath.Base(file), "malformed json: %s", err)
	}

	tx, err := record.Transaction(strings.TrimSuffix(filepath.Base(file), ".json"))
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", file)
	}

	return tx, nil
}

// Transaction converts r into the domain type. name is used as the txid when r carries
// neither a txid nor raw hex.
func (r *Record) Transaction(name string) (*types.Transaction, error) {
	tx := &types.Transaction{
		Version:  r.Version,
		LockTime: r.LockTime,
		Vin:      make([]*types.Input, 0, len(r.Vin)),
		Vout:     make([]*types.Output, 0, len(r.Vout)),
	}

	for _, in := range r.Vin {
		input := &types.Input{
			PrevVout:   in.Vout,
			IsCoinbase: in.IsCoinbase,
		}

		if !in.IsCoinbase {
			var err error
			if input.PrevTxID, err = utils.HashFromHex("vin.txid", in.TxID); err != nil {
				return nil, err
			}
		}

		if in.Prevout != nil {
			script, err := utils.DecodeHex("vin.prevout.scriptpubkey", in.Prevout.ScriptPubKey)
			if err != nil {
				return nil, err
			}
			input.PrevOut = &types.Output{Value: in.Prevout.Value, ScriptPubKey: script}
		}

		tx.IsCoinbase = tx.IsCoinbase || in.IsCoinbase
		tx.Vin = append(tx.Vin, input)
	}

	for _, out := range r.Vout {
		script, err := utils.DecodeHex("vout.scriptpubkey", out.ScriptPubKey)
		if err != nil {
			return nil, err
		}
		tx.Vout = append(tx.Vout, &types.Output{Value: out.Value, ScriptPubKey: script})
	}

	if err := r.fillIDs(tx, name); err != nil {
		return nil, err
	}

	if r.Weight != nil {
		tx.Weight = *r.Weight
	}

	switch {
	case r.Fee != nil:
		tx.Fee = *r.Fee
	case !tx.IsCoinbase:
		in, inOK := tx.InputValue()
		out, outOK := tx.OutputValue()
		if inOK && outOK && in >= out {
			tx.Fee = in - out
		}
	}

	return tx, nil
}

func (r *Record) fillIDs(tx *types.Transaction, name string) error {
	if r.Hex != "" {
		raw, err := utils.DecodeHex("hex", r.Hex)
		if err != nil {
			return err
		}

		msg, err := transactions.Deserialize(raw)
		if err != nil {
			return err
		}

		tx.TxID = msg.TxHash()
		tx.WTxID = msg.WitnessHash()
		tx.Weight = msg.Weight()
	}

	if r.TxID != "" {
		txid, err := utils.HashFromHex("txid", r.TxID)
		if err != nil {
			return err
		}

		if r.Hex != "" && txid != tx.TxID {
			return types.NewRuleError(types.ErrEncoding, "txid", "txid %s does not match the raw transaction %s", txid, tx.TxID)
		}
		tx.TxID = txid
	}

	if r.Hex == "" && r.TxID == "" {
		txid, err := utils.HashFromHex("txid", name)
		if err != nil {
			return err
		}
		tx.TxID = txid
	}

	if r.WTxID != "" {
		wtxid, err := utils.HashFromHex("wtxid", r.WTxID)
		if err != nil {
			return err
		}
		tx.WTxID = wtxid
	} else if r.Hex == "" {
		tx.WTxID = tx.TxID
	}

	return nil
}
