// Package binmath implements the checked 128-bit fixed-point arithmetic and
// the geometric bin price curve.
package binmath

import (
	"github.com/holiman/uint256"

	"binFlow/internal/model"
)

const (
	// BasisPointMax is the denominator of bin steps and fee rates.
	BasisPointMax = 10_000
	// PrecisionUnits is the fixed-point scale of prices and fee growth.
	PrecisionUnits = 1_000_000_000_000

	maxBits = 128
)

// Precision returns PrecisionUnits as a fresh uint256.
func Precision() *uint256.Int {
	return uint256.NewInt(PrecisionUnits)
}

func fits(z *uint256.Int) bool {
	return z.BitLen() <= maxBits
}

// Add returns x+y, failing when the sum does not fit in 128 bits.
func Add(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).AddOverflow(x, y)
	if overflow || !fits(z) {
		return nil, model.ErrMathOverflow
	}
	return z, nil
}

// Sub returns x-y, failing on underflow.
func Sub(x, y *uint256.Int) (*uint256.Int, error) {
	z, underflow := new(uint256.Int).SubOverflow(x, y)
	if underflow {
		return nil, model.ErrMathOverflow
	}
	return z, nil
}

// SaturatingSub returns x-y, or zero when y > x.
func SaturatingSub(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(x, y)
}

// Mul returns x*y, failing when the product does not fit in 128 bits.
func Mul(x, y *uint256.Int) (*uint256.Int, error) {
	z, overflow := new(uint256.Int).MulOverflow(x, y)
	if overflow || !fits(z) {
		return nil, model.ErrMathOverflow
	}
	return z, nil
}

// Div returns x/y rounded down. Division by zero is reported as overflow.
func Div(x, y *uint256.Int) (*uint256.Int, error) {
	if y.IsZero() {
		return nil, model.ErrMathOverflow
	}
	return new(uint256.Int).Div(x, y), nil
}

// MulDiv returns x*y/d rounded down. The intermediate product must fit in
// 128 bits.
func MulDiv(x, y, d *uint256.Int) (*uint256.Int, error) {
	p, err := Mul(x, y)
	if err != nil {
		return nil, err
	}
	return Div(p, d)
}

// MulDivUp returns x*y/d rounded up.
func MulDivUp(x, y, d *uint256.Int) (*uint256.Int, error) {
	p, err := Mul(x, y)
	if err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, model.ErrMathOverflow
	}
	q, r := new(uint256.Int), new(uint256.Int)
	q.DivMod(p, d, r)
	if !r.IsZero() {
		q.AddUint64(q, 1)
	}
	return q, nil
}

// ToUint64 narrows x to a token amount.
func ToUint64(x *uint256.Int) (uint64, error) {
	if !x.IsUint64() {
		return 0, model.ErrMathOverflow
	}
	return x.Uint64(), nil
}

// Max returns the larger of x and y.
func Max(x, y *uint256.Int) *uint256.Int {
	if x.Lt(y) {
		return y
	}
	return x
}

// Min returns the smaller of x and y.
func Min(x, y *uint256.Int) *uint256.Int {
	if y.Lt(x) {
		return y
	}
	return x
}
