package vmath

import (
	"math"
	"math/bits"
)

// Integer fixed-point helpers for simulation units
// Positions are int32; all intermediate products are carried in int64 or 128-bit

// Abs returns absolute value
func Abs(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// Sign returns -1, 0, or 1
func Sign(x int64) int64 {
	if x < 0 {
		return -1
	}
	if x > 0 {
		return 1
	}
	return 0
}

// Clamp limits x to [lo, hi]
func Clamp(x, lo, hi int64) int64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// FloorDiv divides rounding toward negative infinity
// Go's / truncates toward zero, which folds -0.5 and +0.5 into the same bucket
func FloorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// MulDiv computes (a * b) / c with 128-bit intermediate, truncating toward zero
// Saturates to int64 range when the quotient does not fit
func MulDiv(a, b, c int64) int64 {
	if c == 0 {
		return 0
	}
	neg := ((a < 0) != (b < 0)) != (c < 0)
	ua, ub, uc := uint64(a), uint64(b), uint64(c)
	if a < 0 {
		ua = uint64(-a)
	}
	if b < 0 {
		ub = uint64(-b)
	}
	if c < 0 {
		uc = uint64(-c)
	}
	hi, lo := bits.Mul64(ua, ub)
	if hi >= uc {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	q, _ := bits.Div64(hi, lo, uc)
	if q > math.MaxInt64 {
		if neg {
			return math.MinInt64
		}
		return math.MaxInt64
	}
	if neg {
		return -int64(q)
	}
	return int64(q)
}

// Sqrt returns floor(sqrt(x)) for x >= 0 using Newton-Raphson on integers
// Returns 0 for x <= 0
func Sqrt(x int64) int64 {
	if x <= 0 {
		return 0
	}
	// Initial guess from bit length: 2^ceil(bits/2) is always >= sqrt(x)
	guess := int64(1) << ((bits.Len64(uint64(x)) + 1) / 2)
	for {
		next := (guess + x/guess) >> 1
		if next >= guess {
			return guess
		}
		guess = next
	}
}
