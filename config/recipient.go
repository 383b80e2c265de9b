package config

import (
	"strings"

	"github.com/mining-pool/blockminer/utils"
	"github.com/pkg/errors"
)

// Recipient is a payout destination. Type selects how Address is turned into an output script.
type Recipient struct {
	Address string `json:"address"`
	Type    string `json:"type"`

	script []byte
}

func (r *Recipient) GetScript() ([]byte, error) {
	if r.script != nil {
		return r.script, nil
	}

	var script []byte
	var err error
	switch strings.ToLower(r.Type) {
	case "p2pkh":
		script, err = utils.P2PKHAddressToScript(r.Address)
	case "p2sh":
		script, err = utils.P2SHAddressToScript(r.Address)
	case "p2wpkh", "p2wsh", "segwit":
		script, err = utils.SegwitAddressToScript(r.Address)
	case "pk", "publickey", "minerkey":
		script, err = utils.PublicKeyToScript(r.Address)
	case "script", "scriptpubkey":
		script, err = utils.ScriptPubKeyToScript(r.Address)
	case "":
		return nil, errors.Errorf("%s has no type", r.Address)
	default:
		return nil, errors.Errorf("%s uses an unsupported type: %s", r.Address, r.Type)
	}

	if err != nil {
		return nil, err
	}

	r.script = script
	return script, nil
}
