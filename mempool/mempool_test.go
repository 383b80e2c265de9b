package mempool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mining-pool/blockminer/types"
	"github.com/mining-pool/blockminer/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const legacyTxHex = "0200000001ac7d18f0103f17c44b5b2b1352617735cc3a3a52381a28e923dffa4ac78e1560000000006b483045022100c56b739271efc559d63b04a01c15fddf7a74008b9afbd432c6260c24bde3b0cf02206ce80233e5af953f7e6f4b55427afa86aac6cbf3047c3cf90fcc248c8d3338f9012103e544bf462f31edad02b3d8134f60d20d7180208df68b0d95f8e0cacee880bc93ffffffff013d6c6d02000000001976a91404ed220f5b5bfd1c61becf0d76e21773ed204ac188ac00000000"

const recordA = `{
  "txid": "0000000000000000000000000000000000000000000000000000000000000a0a",
  "wtxid": "0000000000000000000000000000000000000000000000000000000000000a0b",
  "version": 2,
  "locktime": 0,
  "vin": [
    {
      "txid": "1111111111111111111111111111111111111111111111111111111111111111",
      "vout": 1,
      "prevout": {"value": 5000, "scriptpubkey": "0014d2a3d4e5f6a7b8c9d0e1f2a3b4c5d6e7f8091a2b"},
      "is_coinbase": false
    }
  ],
  "vout": [
    {"value": 4000, "scriptpubkey": "76a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac"}
  ],
  "weight": 561,
  "fee": 1000
}`

// no fee and no wtxid: the fee is derived and the wtxid falls back to the txid
const recordB = `{
  "txid": "0000000000000000000000000000000000000000000000000000000000000b0b",
  "version": 1,
  "locktime": 0,
  "vin": [{"txid": "2222222222222222222222222222222222222222222222222222222222222222", "vout": 0, "prevout": {"value": 300, "scriptpubkey": "51"}}],
  "vout": [{"value": 100, "scriptpubkey": "51"}],
  "weight": 400
}`

func writeFile(t *testing.T, dir, name, content string) {
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", recordB)
	writeFile(t, dir, "a.json", recordA)
	writeFile(t, dir, "notes.txt", "ignored")

	pool, err := LoadDir(dir)
	require.NoError(t, err)
	require.Equal(t, 2, pool.Len())

	txs := pool.Transactions()
	a, b := txs[0], txs[1]

	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000a0a", a.TxID.String())
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000a0b", a.WTxID.String())
	assert.Equal(t, int32(2), a.Version)
	assert.Equal(t, uint64(561), a.Weight)
	assert.Equal(t, uint64(1000), a.Fee)
	require.Len(t, a.Vin, 1)
	assert.Equal(t, uint32(1), a.Vin[0].PrevVout)
	assert.Equal(t, int64(5000), a.Vin[0].PrevOut.Value)
	assert.Equal(t, "1111111111111111111111111111111111111111111111111111111111111111", a.Vin[0].PrevTxID.String())
	require.Len(t, a.Vout, 1)
	assert.Len(t, a.Vout[0].ScriptPubKey, 25)

	assert.Equal(t, uint64(200), b.Fee)
	assert.Equal(t, b.TxID, b.WTxID)

	got, ok := pool.Get(a.TxID)
	require.True(t, ok)
	assert.Same(t, a, got)

	_, ok = pool.Get(utils.DoubleHash([]byte("missing")))
	assert.False(t, ok)
}

func TestLoadDirDuplicate(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", recordA)
	writeFile(t, dir, "a-copy.json", recordA)

	pool, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, pool.Len())
}

func TestLoadDirMalformed(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.json", `{"txid": `)

	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.True(t, types.IsRuleError(err, types.ErrEncoding))
	assert.Contains(t, err.Error(), "broken.json")
}

func TestLoadFileBadHex(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{"txid": "zz00000000000000000000000000000000000000000000000000000000000000", "version": 1, "vin": [], "vout": []}`)

	_, err := LoadFile(filepath.Join(dir, "bad.json"))
	require.Error(t, err)
	assert.True(t, types.IsRuleError(err, types.ErrEncoding))
	assert.Equal(t, "txid", types.RuleErrorField(err))
	assert.Contains(t, err.Error(), "bad.json")
}

func TestRecordFromHex(t *testing.T) {
	record := &Record{Hex: legacyTxHex}

	tx, err := record.Transaction("ignored")
	require.NoError(t, err)
	assert.Equal(t, "498a7a14586da86d98a26ee00aecb7f8fb61a6160453186c88108e4873beaaff", tx.TxID.String())
	assert.Equal(t, tx.TxID, tx.WTxID)
	assert.Equal(t, uint64(768), tx.Weight)

	record.TxID = "0000000000000000000000000000000000000000000000000000000000000a0a"
	_, err = record.Transaction("ignored")
	assert.True(t, types.IsRuleError(err, types.ErrEncoding))
}

func TestRecordNameAsTxID(t *testing.T) {
	record := &Record{Version: 1}

	tx, err := record.Transaction("0000000000000000000000000000000000000000000000000000000000000c0c")
	require.NoError(t, err)
	assert.Equal(t, "0000000000000000000000000000000000000000000000000000000000000c0c", tx.TxID.String())

	_, err = record.Transaction("not-a-txid")
	assert.True(t, types.IsRuleError(err, types.ErrEncoding))
}

func TestRecordCoinbase(t *testing.T) {
	record := &Record{
		TxID: "0000000000000000000000000000000000000000000000000000000000000d0d",
		Vin:  []*Vin{{IsCoinbase: true}},
		Vout: []*Vout{{Value: 50, ScriptPubKey: "51"}},
	}

	tx, err := record.Transaction("")
	require.NoError(t, err)
	assert.True(t, tx.IsCoinbase)
	assert.Nil(t, tx.Vin[0].PrevOut)
	assert.Equal(t, uint64(0), tx.Fee)
}
