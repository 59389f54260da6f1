// Package fixedpoint implements the scaled-integer arithmetic used for all
// protocol amounts. Amounts are int64 values scaled by Scale (7 decimals);
// intermediate products are computed in 128 bits so a multiply-then-divide
// never overflows before the division.
package fixedpoint

import (
	"errors"
	"math"
	"math/bits"
)

const (
	// Scale is the fixed-point scale: 10,000,000 units represent 1.0000000.
	Scale int64 = 10_000_000
	// ParUnit is full (100%) value in scaled units.
	ParUnit int64 = Scale
	// BasisPoints is 100% expressed in basis points.
	BasisPoints int64 = 10_000
)

// ErrOverflow is returned when a result does not fit in int64.
var ErrOverflow = errors.New("fixedpoint: overflow")

// ErrDivideByZero is returned when a divisor is zero.
var ErrDivideByZero = errors.New("fixedpoint: divide by zero")

// Add returns a+b with overflow checking.
func Add(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, ErrOverflow
	}
	return sum, nil
}

// Sub returns a-b with overflow checking.
func Sub(a, b int64) (int64, error) {
	diff := a - b
	if (b < 0 && diff < a) || (b > 0 && diff > a) {
		return 0, ErrOverflow
	}
	return diff, nil
}

// MulDiv returns a*b/den truncated toward zero. The product is held in a
// 128-bit intermediate, so it only fails when the final quotient does not
// fit in int64 or den is zero.
func MulDiv(a, b, den int64) (int64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}

	negative := (a < 0) != (b < 0)
	if den < 0 {
		negative = !negative
	}

	hi, lo := bits.Mul64(abs64(a), abs64(b))
	d := abs64(den)
	if hi >= d {
		return 0, ErrOverflow
	}
	quo, _ := bits.Div64(hi, lo, d)

	if negative {
		if quo > uint64(math.MaxInt64)+1 {
			return 0, ErrOverflow
		}
		if quo == uint64(math.MaxInt64)+1 {
			return math.MinInt64, nil
		}
		return -int64(quo), nil
	}
	if quo > uint64(math.MaxInt64) {
		return 0, ErrOverflow
	}
	return int64(quo), nil
}

func abs64(v int64) uint64 {
	if v < 0 {
		return uint64(-(v + 1)) + 1
	}
	return uint64(v)
}
