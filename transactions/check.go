package transactions

import (
	"fmt"
	"strings"
	"time"

	"github.com/mining-pool/blockminer/types"
	"github.com/pkg/errors"
)

// LockTimeThreshold separates block heights (below) from unix timestamps (at or above).
const LockTimeThreshold = 500000000

// Policy selects how strictly input values are checked.
type Policy int

const (
	// PolicyNonNegative requires every non-coinbase input to reference a recorded,
	// non-negative previous output.
	PolicyNonNegative Policy = iota

	// PolicyBalanced additionally requires outputs not to exceed inputs and the recorded fee to
	// equal the difference.
	PolicyBalanced
)

func (p Policy) String() string {
	switch p {
	case PolicyNonNegative:
		return "nonnegative"
	case PolicyBalanced:
		return "balanced"
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// ParsePolicy maps a config value to a Policy. The empty string selects PolicyNonNegative.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(s) {
	case "", "nonnegative":
		return PolicyNonNegative, nil
	case "balanced":
		return PolicyBalanced, nil
	}

	return 0, errors.Errorf("unknown transaction policy %q", s)
}

func invalid(tx *types.Transaction, field, format string, args ...interface{}) error {
	return types.NewRuleError(types.ErrInvalidTransaction, field, "tx %s: %s", tx.TxID, fmt.Sprintf(format, args...))
}

// CheckTransaction runs the structural checks a mempool transaction must pass before it is
// placed in a block. now bounds timestamp lock times.
func CheckTransaction(tx *types.Transaction, policy Policy, now time.Time) error {
	if tx.IsCoinbase {
		return invalid(tx, "is_coinbase", "coinbase transactions cannot be included")
	}

	if len(tx.Vin) == 0 {
		return invalid(tx, "vin", "no inputs")
	}

	if len(tx.Vout) == 0 {
		return invalid(tx, "vout", "no outputs")
	}

	if tx.Version != 1 && tx.Version != 2 {
		return invalid(tx, "version", "unrecognized version %d", tx.Version)
	}

	if tx.LockTime >= LockTimeThreshold && int64(tx.LockTime) > now.Unix() {
		return invalid(tx, "locktime", "locked until %d", tx.LockTime)
	}

	for i, out := range tx.Vout {
		if out.Value < 0 {
			return invalid(tx, fmt.Sprintf("vout[%d].value", i), "negative value %d", out.Value)
		}
	}

	for i, in := range tx.Vin {
		if in.IsCoinbase {
			continue
		}

		if in.PrevOut == nil {
			return invalid(tx, fmt.Sprintf("vin[%d].prevout", i), "missing previous output")
		}

		if in.PrevOut.Value < 0 {
			return invalid(tx, fmt.Sprintf("vin[%d].prevout.value", i), "negative value %d", in.PrevOut.Value)
		}
	}

	if policy == PolicyBalanced {
		return checkBalance(tx)
	}

	return nil
}

func checkBalance(tx *types.Transaction) error {
	var in uint64
	for _, input := range tx.Vin {
		if input.IsCoinbase || input.PrevOut == nil {
			continue
		}

		var ok bool
		if in, ok = types.AddUint64(in, uint64(input.PrevOut.Value)); !ok {
			return invalid(tx, "vin", "input value overflows")
		}
	}

	out, ok := tx.OutputValue()
	if !ok {
		return invalid(tx, "vout", "output value overflows")
	}

	if out > in {
		return invalid(tx, "vout", "outputs %d exceed inputs %d", out, in)
	}

	if tx.Fee != in-out {
		return invalid(tx, "fee", "recorded fee %d, inputs minus outputs is %d", tx.Fee, in-out)
	}

	return nil
}
