package config

import (
	logging "github.com/ipfs/go-log/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
	"muzzammil.xyz/jsonc"
)

var log = logging.Logger("config")

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Options struct {
	Coin *CoinOptions `json:"coin"`

	PoolAddress *Recipient `json:"poolAddress"`

	Mining    *MiningOptions    `json:"mining"`
	Algorithm *AlgorithmOptions `json:"algorithm"`

	API     *APIOptions   `json:"api"`
	Storage *RedisOptions `json:"storage"`
}

// LoadOptions reads a JSON file that may carry comments.
func LoadOptions(path string) (*Options, error) {
	_, raw, err := jsonc.ReadFromFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", path)
	}

	return ParseOptions(raw)
}

// ParseOptions decodes plain JSON options and fills defaults.
func ParseOptions(raw []byte) (*Options, error) {
	var o Options
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}

	o.SetDefaults()
	return &o, nil
}

// SetDefaults fills every section the file left out.
func (o *Options) SetDefaults() {
	if o.Coin == nil {
		o.Coin = &CoinOptions{}
	}
	if o.Coin.Name == "" {
		o.Coin.Name = "bitcoin"
	}
	if o.Coin.Symbol == "" {
		o.Coin.Symbol = "BTC"
	}

	if o.Mining == nil {
		o.Mining = &MiningOptions{}
	}
	o.Mining.SetDefaults()

	if o.Algorithm == nil {
		o.Algorithm = &AlgorithmOptions{}
	}
	if o.Algorithm.Name == "" {
		o.Algorithm.Name = "sha256d"
	}

	if o.PoolAddress == nil {
		log.Warn("no pool address configured, the block reward goes to an anyone-can-spend output")
		o.PoolAddress = &Recipient{Address: "51", Type: "script"}
	}
}
