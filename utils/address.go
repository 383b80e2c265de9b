package utils

import (
	"bytes"
	"encoding/hex"

	"github.com/maoxs2/go-bech32"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// PublicKeyToScript formats a compressed public key as a pay-to-pubkey script.
func PublicKeyToScript(key string) ([]byte, error) {
	if len(key) != 66 {
		return nil, errors.Errorf("invalid public key: %s", key)
	}

	b, err := hex.DecodeString(key)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid public key: %s", key)
	}

	bKey := make([]byte, 35)
	bKey[0] = 0x21
	bKey[34] = 0xAC
	copy(bKey[1:], b)

	return bKey, nil
}

func decodeBase58Check(addr string) ([]byte, error) {
	decoded, err := base58.FastBase58Decoding(addr)
	if decoded == nil || err != nil {
		return nil, errors.Errorf("base58 decode failed for %s", addr)
	}

	if len(decoded) != 25 {
		return nil, errors.Errorf("invalid address length for %s", addr)
	}

	checksum := Sha256d(decoded[:21])[:4]
	if !bytes.Equal(checksum, decoded[21:]) {
		return nil, errors.Errorf("bad checksum for %s", addr)
	}

	return decoded[1:21], nil
}

// P2PKHAddressToScript works for base58 p2pkh addresses only.
func P2PKHAddressToScript(addr string) ([]byte, error) {
	publicKeyHash, err := decodeBase58Check(addr)
	if err != nil {
		return nil, err
	}

	return bytes.Join([][]byte{
		{0x76, 0xA9, 0x14},
		publicKeyHash,
		{0x88, 0xAC},
	}, nil), nil
}

func P2SHAddressToScript(addr string) ([]byte, error) {
	scriptHash, err := decodeBase58Check(addr)
	if err != nil {
		return nil, err
	}

	return bytes.Join([][]byte{
		{0xA9, 0x14},
		scriptHash,
		{0x87},
	}, nil), nil
}

// SegwitAddressToScript handles v0 bech32 addresses, both p2wpkh (20 byte program) and
// p2wsh (32 byte program).
func SegwitAddressToScript(addr string) ([]byte, error) {
	_, decoded, err := bech32.Decode(addr)
	if len(decoded) == 0 || err != nil {
		return nil, errors.Errorf("bech32 decode failed for %s", addr)
	}

	if decoded[0] != 0 {
		return nil, errors.Errorf("unsupported witness version %d for %s", decoded[0], addr)
	}

	witnessProgram, err := bech32.ConvertBits(decoded[1:], 5, 8, false)
	if err != nil {
		return nil, errors.Wrapf(err, "bad witness program in %s", addr)
	}

	if len(witnessProgram) != 20 && len(witnessProgram) != 32 {
		return nil, errors.Errorf("invalid witness program length %d for %s", len(witnessProgram), addr)
	}

	return bytes.Join([][]byte{
		{0x00, byte(len(witnessProgram))},
		witnessProgram,
	}, nil), nil
}

func ScriptPubKeyToScript(addr string) ([]byte, error) {
	decoded, err := hex.DecodeString(addr)
	if decoded == nil || err != nil {
		return nil, errors.Errorf("hex decode failed for %s", addr)
	}
	return decoded, nil
}
