package model

import "errors"

// Error is a domain rejection. Every Error aborts the whole operation and is
// never retried.
type Error struct {
	Code string
	Msg  string
}

func (e *Error) Error() string {
	return e.Msg
}

func newError(code, msg string) *Error {
	return &Error{Code: code, Msg: msg}
}

var (
	ErrInvalidParameters            = newError("InvalidParameters", "bin step and fee rate are not an allowed pair")
	ErrInvalidMintOrder             = newError("InvalidMintOrder", "token A mint must sort before token B mint")
	ErrInvalidMint                  = newError("InvalidMint", "mint does not belong to pool")
	ErrInvalidBinRange              = newError("InvalidBinRange", "invalid bin range")
	ErrInvalidBinID                 = newError("InvalidBinId", "bin id is not a multiple of bin step")
	ErrInvalidBinStep               = newError("InvalidBinStep", "bin step must be greater than zero")
	ErrInvalidBinCount              = newError("InvalidBinCount", "unexpected number of bin references")
	ErrRangeTooWide                 = newError("RangeTooWide", "position range covers too many bins")
	ErrUnauthorized                 = newError("Unauthorized", "caller does not own the position")
	ErrZeroLiquidity                = newError("ZeroLiquidity", "liquidity must be greater than zero")
	ErrZeroAmount                   = newError("ZeroAmount", "amount must be greater than zero")
	ErrInsufficientLiquidity        = newError("InsufficientLiquidity", "insufficient liquidity")
	ErrInsufficientLiquidityForSwap = newError("InsufficientLiquidityForSwap", "bins exhausted before swap input was consumed")
	ErrPositionNotEmpty             = newError("PositionNotEmpty", "position liquidity does not allow this operation")
	ErrInvalidBinAccount            = newError("InvalidBinAccount", "bin reference does not match derived address")
	ErrInvalidVault                 = newError("InvalidVault", "vault does not match pool")
	ErrInvalidPool                  = newError("InvalidPool", "pool mismatch")
	ErrMathOverflow                 = newError("MathOverflow", "math overflow")
	ErrSlippageExceeded             = newError("SlippageExceeded", "slippage tolerance exceeded")
)

// ErrorCode returns the domain code carried by err, or "" for
// infrastructure failures.
func ErrorCode(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}
