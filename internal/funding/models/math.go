package models

import (
	"math"

	dErrors "fundmatch/pkg/domain-errors"
)

// Checked u64 arithmetic. Every running total and fee computation in the
// engine goes through these so an overflow aborts the whole operation
// instead of wrapping silently.

// CheckedAdd returns a+b or CodeArithmeticOverflow.
func CheckedAdd(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, dErrors.New(dErrors.CodeArithmeticOverflow, "Arithmetic overflow")
	}
	return a + b, nil
}

// CheckedSub returns a-b or CodeArithmeticOverflow on underflow.
func CheckedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, dErrors.New(dErrors.CodeArithmeticOverflow, "Arithmetic overflow")
	}
	return a - b, nil
}

// CheckedMul returns a*b or CodeArithmeticOverflow.
func CheckedMul(a, b uint64) (uint64, error) {
	if a != 0 && b > math.MaxUint64/a {
		return 0, dErrors.New(dErrors.CodeArithmeticOverflow, "Arithmetic overflow")
	}
	return a * b, nil
}
