package types

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrorCode identifies the rule a block, header or transaction broke. Codes satisfy the error
// interface so callers can write errors.Is(err, types.ErrInvalidMerkleRoot).
type ErrorCode int

const (
	ErrEncoding ErrorCode = iota + 10
	ErrInvalidHeaderLength
	ErrDifficultyNotMet
	ErrInvalidVersion
	ErrInvalidMerkleRoot
	ErrInvalidTime
	ErrInvalidBits
	ErrInvalidNonce
)

const (
	ErrEmptyBlock ErrorCode = iota + 30
	ErrUnknownTransaction
	ErrInvalidCoinbaseLayout
	ErrInvalidWitnessCommitment
	ErrBlockTooHeavy
	ErrInvalidTransaction
)

const (
	ErrNonceSpaceExhausted ErrorCode = iota + 50
	ErrMiningCanceled
)

var codeToErrMap = map[ErrorCode]string{
	ErrEncoding:                 "malformed encoding",
	ErrInvalidHeaderLength:      "invalid header length",
	ErrDifficultyNotMet:         "difficulty not met",
	ErrInvalidVersion:           "invalid version",
	ErrInvalidMerkleRoot:        "invalid merkle root",
	ErrInvalidTime:              "invalid time",
	ErrInvalidBits:              "invalid bits",
	ErrInvalidNonce:             "invalid nonce",
	ErrEmptyBlock:               "empty block",
	ErrUnknownTransaction:       "unknown transaction",
	ErrInvalidCoinbaseLayout:    "invalid coinbase layout",
	ErrInvalidWitnessCommitment: "invalid witness commitment",
	ErrBlockTooHeavy:            "block too heavy",
	ErrInvalidTransaction:       "invalid transaction",
	ErrNonceSpaceExhausted:      "nonce space exhausted",
	ErrMiningCanceled:           "mining canceled",
}

func (code ErrorCode) String() string {
	if s, ok := codeToErrMap[code]; ok {
		return s
	}

	return fmt.Sprintf("unknown error code %d", int(code))
}

func (code ErrorCode) Error() string {
	return code.String()
}

// RuleError is a violated consensus or layout rule. Field names the offending header field,
// coinbase element or transaction.
type RuleError struct {
	Code        ErrorCode
	Field       string
	Description string
}

func (e RuleError) Error() string {
	msg := e.Code.String()
	if e.Field != "" {
		msg += " (" + e.Field + ")"
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}

	return msg
}

// Is matches on the error code.
func (e RuleError) Is(target error) bool {
	switch t := target.(type) {
	case ErrorCode:
		return e.Code == t
	case RuleError:
		return e.Code == t.Code
	}

	return false
}

// NewRuleError returns a RuleError carrying a stack trace.
func NewRuleError(code ErrorCode, field string, format string, args ...interface{}) error {
	return errors.WithStack(RuleError{
		Code:        code,
		Field:       field,
		Description: fmt.Sprintf(format, args...),
	})
}

// IsRuleError reports whether err, or anything it wraps, is a RuleError with the given code.
func IsRuleError(err error, code ErrorCode) bool {
	var ruleErr RuleError
	if !errors.As(err, &ruleErr) {
		return false
	}

	return ruleErr.Code == code
}

// RuleErrorField returns the offending field of a wrapped RuleError, or "".
func RuleErrorField(err error) string {
	var ruleErr RuleError
	if errors.As(err, &ruleErr) {
		return ruleErr.Field
	}

	return ""
}
