// Package ledger holds the amount-entry derivation and validation rules.
// The server is authoritative for the derived bakaya column; any client-sent
// value is advisory only.
package ledger

import (
	"errors"
	"math"
)

var (
	// ErrMissingAmount indicates total or wasool was absent from the request.
	ErrMissingAmount = errors.New("amount and wasoolAmount are required")
	// ErrNegativeAmount indicates a negative or non-finite total/wasool.
	ErrNegativeAmount = errors.New("amounts must be non-negative numbers")
	// ErrWasoolExceedsTotal indicates wasool > total.
	ErrWasoolExceedsTotal = errors.New("wasoolAmount cannot exceed amount")
)

// Round2 rounds v to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Derive validates a (total, wasool) pair and returns the outstanding bakaya
// amount: round2(total - wasool). The pair must satisfy 0 <= wasool <= total.
func Derive(total, wasool float64) (float64, error) {
	if math.IsNaN(total) || math.IsInf(total, 0) || math.IsNaN(wasool) || math.IsInf(wasool, 0) {
		return 0, ErrNegativeAmount
	}
	if total < 0 || wasool < 0 {
		return 0, ErrNegativeAmount
	}
	if wasool > total {
		return 0, ErrWasoolExceedsTotal
	}
	return Round2(total - wasool), nil
}
