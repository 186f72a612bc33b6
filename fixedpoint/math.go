// Package fixedpoint implements the checked 128-bit fixed-point arithmetic
// that every other package in this module builds on: rounding-directed
// mul-div, WAD-scaled helpers, and the Taylor-series compounding factor used
// by interest accrual.
package fixedpoint

import (
	"errors"
	"math/big"
)

var (
	// ErrMathOverflow is returned when an intermediate product would not fit
	// in 128 bits.
	ErrMathOverflow = errors.New("fixedpoint: math overflow")
	// ErrDivisionByZero is returned when the divisor of a mul-div operation
	// is zero.
	ErrDivisionByZero = errors.New("fixedpoint: division by zero")
	// ErrAmountOverflow is returned when a u128 value cannot be narrowed to
	// a u64 transfer amount without truncation.
	ErrAmountOverflow = errors.New("fixedpoint: amount overflow")
	// ErrNegative is returned when a value expected to be a non-negative
	// 128-bit magnitude is negative.
	ErrNegative = errors.New("fixedpoint: negative magnitude")
)

// WAD is the fixed-point unit used for rates and factors (1e18).
var WAD = big.NewInt(1_000_000_000_000_000_000)

// maxUint128 is the largest value representable in 128 bits, used to bound
// every intermediate product computed by this package.
var maxUint128 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1))

// MaxUint64 mirrors math.MaxUint64 as a *big.Int for narrowing checks.
var MaxUint64 = new(big.Int).SetUint64(^uint64(0))

func checkMagnitude(v *big.Int) error {
	if v.Sign() < 0 {
		return ErrNegative
	}
	if v.Cmp(maxUint128) > 0 {
		return ErrMathOverflow
	}
	return nil
}

// MulDivDown computes floor(a*b/c), failing with ErrDivisionByZero when c is
// zero and ErrMathOverflow when a, b, c or the intermediate product a*b does
// not fit in 128 bits. Short-circuits to zero when a or b is zero.
func MulDivDown(a, b, c *big.Int) (*big.Int, error) {
	return mulDiv(a, b, c, false)
}

// MulDivUp computes ceil(a*b/c) = floor((a*b + c - 1)/c), with the same
// failure modes as MulDivDown.
func MulDivUp(a, b, c *big.Int) (*big.Int, error) {
	return mulDiv(a, b, c, true)
}

func mulDiv(a, b, c *big.Int, roundUp bool) (*big.Int, error) {
	if a == nil || b == nil || c == nil {
		return nil, ErrNegative
	}
	if err := checkMagnitude(a); err != nil {
		return nil, err
	}
	if err := checkMagnitude(b); err != nil {
		return nil, err
	}
	if err := checkMagnitude(c); err != nil {
		return nil, err
	}
	if c.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	if a.Sign() == 0 || b.Sign() == 0 {
		return big.NewInt(0), nil
	}

	product := new(big.Int).Mul(a, b)
	if product.Cmp(maxUint128) > 0 {
		return nil, ErrMathOverflow
	}

	if !roundUp {
		return new(big.Int).Quo(product, c), nil
	}

	numerator := new(big.Int).Add(product, new(big.Int).Sub(c, big.NewInt(1)))
	return new(big.Int).Quo(numerator, c), nil
}

// WadMulDown computes floor(a*b/WAD).
func WadMulDown(a, b *big.Int) (*big.Int, error) { return MulDivDown(a, b, WAD) }

// WadMulUp computes ceil(a*b/WAD).
func WadMulUp(a, b *big.Int) (*big.Int, error) { return MulDivUp(a, b, WAD) }

// WadDivDown computes floor(a*WAD/b).
func WadDivDown(a, b *big.Int) (*big.Int, error) { return MulDivDown(a, WAD, b) }

// WadDivUp computes ceil(a*WAD/b).
func WadDivUp(a, b *big.Int) (*big.Int, error) { return MulDivUp(a, WAD, b) }

// NarrowToUint64 converts a 128-bit magnitude to a uint64 transfer amount,
// failing with ErrAmountOverflow when the value exceeds 2^64-1.
func NarrowToUint64(v *big.Int) (uint64, error) {
	if v == nil || v.Sign() < 0 {
		return 0, ErrNegative
	}
	if v.Cmp(MaxUint64) > 0 {
		return 0, ErrAmountOverflow
	}
	return v.Uint64(), nil
}
