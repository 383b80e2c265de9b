package config

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mining-pool/blockminer/transactions"
	"github.com/mining-pool/blockminer/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const exampleConfig = `{
  // coin identity, used as the redis key prefix
  "coin": {"name": "regtest", "symbol": "RBTC"},
  "poolAddress": {"address": "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", "type": "p2pkh"},
  "mining": {
    "target": "0000ffff00000000000000000000000000000000000000000000000000000000",
    "bits": "1f00ffff",
    "workers": 4,
    "timeWindow": "90m",
    "previousBlockHash": "0000000000000000000000000000000000000000000000000000000000000000",
    "time": 1700000000,
    "policy": "balanced"
  },
  "algorithm": {"name": "sha256d"},
  "api": {"host": "127.0.0.1", "port": 8080}
}`

func TestLoadOptions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.jsonc")
	require.NoError(t, os.WriteFile(path, []byte(exampleConfig), 0o644))

	o, err := LoadOptions(path)
	require.NoError(t, err)

	assert.Equal(t, "regtest", o.Coin.Name)
	assert.Equal(t, 4, o.Mining.Workers)
	assert.Equal(t, "127.0.0.1:8080", o.API.Addr())
	assert.Nil(t, o.Storage)

	params, err := o.Mining.ToParams()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultTarget, params.Target)
	assert.Equal(t, uint32(types.DefaultBits), params.Bits)
	assert.Equal(t, 90*time.Minute, params.TimeWindow)
	assert.Equal(t, uint32(types.DefaultMinVersion), params.MinVersion)

	policy, err := o.Mining.TxPolicy()
	require.NoError(t, err)
	assert.Equal(t, transactions.PolicyBalanced, policy)

	script, err := o.PoolAddress.GetScript()
	require.NoError(t, err)
	assert.Equal(t, "76a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac", hex.EncodeToString(script))

	tmpl, err := o.Mining.Template(nil, time.Now())
	require.NoError(t, err)
	assert.Equal(t, uint32(1700000000), tmpl.CurTime)
	assert.Equal(t, uint32(DefaultBlockVersion), tmpl.Version)
	assert.Equal(t, int64(DefaultHeight), tmpl.Height)
}

func TestLoadOptionsMissingFile(t *testing.T) {
	_, err := LoadOptions(filepath.Join(t.TempDir(), "missing.jsonc"))
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	o, err := ParseOptions([]byte(`{}`))
	require.NoError(t, err)

	assert.Equal(t, "bitcoin", o.Coin.Name)
	assert.Equal(t, "1f00ffff", o.Mining.Bits)
	assert.Equal(t, "sha256d", o.Algorithm.Name)

	params, err := o.Mining.ToParams()
	require.NoError(t, err)
	assert.Equal(t, types.DefaultConsensusParams(), params)

	script, err := o.PoolAddress.GetScript()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x51}, script)

	now := time.Unix(1234567890, 0)
	tmpl, err := o.Mining.Template(nil, now)
	require.NoError(t, err)
	assert.Equal(t, uint32(1234567890), tmpl.CurTime)

	hash, err := o.Algorithm.HashFunc()
	require.NoError(t, err)
	assert.Len(t, hash([]byte{}), 32)
}

func TestToParamsTargetFromBits(t *testing.T) {
	mo := &MiningOptions{Bits: "1d00ffff"}
	mo.SetDefaults()

	params, err := mo.ToParams()
	require.NoError(t, err)
	assert.Equal(t, "00000000ffff0000000000000000000000000000000000000000000000000000", hex.EncodeToString(params.Target[:]))
}

func TestToParamsErrors(t *testing.T) {
	cases := []*MiningOptions{
		{Bits: "zz"},
		{Bits: "1f00ffff", Target: "00ff"},
		{Bits: "1f00ffff", TimeWindow: "two hours"},
		{Bits: "1f00ffff", WitnessReservedValue: "00"},
		{Bits: "1f00ffff", WitnessReservedValue: "xx"},
	}

	for _, mo := range cases {
		_, err := mo.ToParams()
		assert.Error(t, err, "%+v", mo)
	}

	mo := &MiningOptions{Bits: "1f00ffff", WitnessReservedValue: "0100000000000000000000000000000000000000000000000000000000000000"}
	params, err := mo.ToParams()
	require.NoError(t, err)
	assert.Equal(t, byte(1), params.WitnessReservedValue[0])

	_, err = (&MiningOptions{Bits: "1f00ffff", PreviousBlockHash: "abc"}).Template(nil, time.Now())
	assert.True(t, types.IsRuleError(err, types.ErrEncoding))
}

func TestRecipientScripts(t *testing.T) {
	cases := []struct {
		recipient Recipient
		want      string
	}{
		{Recipient{Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", Type: "P2PKH"}, "76a91462e907b15cbf27d5425399ebf6f0fb50ebb88f1888ac"},
		{Recipient{Address: "0014751e76e8199196d454941c45d1b3a323f1433bd6", Type: "script"}, "0014751e76e8199196d454941c45d1b3a323f1433bd6"},
	}

	for _, c := range cases {
		script, err := c.recipient.GetScript()
		require.NoError(t, err)
		assert.Equal(t, c.want, hex.EncodeToString(script))
	}

	segwit := &Recipient{Address: "tb1qphxtwvfxyjhq5ar2hn65eczg8u6stam2n7znx5", Type: "p2wpkh"}
	script, err := segwit.GetScript()
	require.NoError(t, err)
	assert.Equal(t, []byte{0x00, 0x14}, script[:2])

	for _, r := range []*Recipient{
		{Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNb", Type: "p2pkh"},
		{Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"},
		{Address: "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa", Type: "p2tr"},
	} {
		_, err := r.GetScript()
		assert.Error(t, err, "%+v", r)
	}
}
