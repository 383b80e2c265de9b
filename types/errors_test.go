package types

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestRuleError(t *testing.T) {
	err := NewRuleError(ErrInvalidCoinbaseLayout, "input_count", "expected 1, got %d", 2)

	assert.Equal(t, "invalid coinbase layout (input_count): expected 1, got 2", err.Error())
	assert.ErrorIs(t, err, ErrInvalidCoinbaseLayout)
	assert.NotErrorIs(t, err, ErrInvalidMerkleRoot)
	assert.True(t, IsRuleError(err, ErrInvalidCoinbaseLayout))
	assert.Equal(t, "input_count", RuleErrorField(err))

	wrapped := errors.Wrap(err, "validating block")
	assert.True(t, IsRuleError(wrapped, ErrInvalidCoinbaseLayout))
	assert.ErrorIs(t, wrapped, ErrInvalidCoinbaseLayout)

	assert.False(t, IsRuleError(errors.New("plain"), ErrInvalidCoinbaseLayout))
	assert.Equal(t, "", RuleErrorField(errors.New("plain")))
}

func TestErrorCodeString(t *testing.T) {
	assert.Equal(t, "block too heavy", ErrBlockTooHeavy.String())
	assert.Equal(t, "unknown error code 999", ErrorCode(999).String())
}

func TestTransactionValues(t *testing.T) {
	tx := &Transaction{
		Vin:  []*Input{{PrevOut: &Output{Value: 700}}, {PrevOut: &Output{Value: 300}}},
		Vout: []*Output{{Value: 900}},
	}

	in, ok := tx.InputValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(1000), in)

	out, ok := tx.OutputValue()
	assert.True(t, ok)
	assert.Equal(t, uint64(900), out)

	tx.Vin = append(tx.Vin, &Input{})
	_, ok = tx.InputValue()
	assert.False(t, ok)

	tx.Vout = append(tx.Vout, &Output{Value: -1})
	_, ok = tx.OutputValue()
	assert.False(t, ok)
}
