// Package irm defines the external interest-rate-model collaborator of
// spec.md §6 and a reference linear-kinked implementation.
package irm

import (
	"context"
	"math/big"
)

// Model is the external IRM program: borrow_rate(irm_ref, TSA, TBA) ->
// u128 (per-second, WAD-scaled), per spec.md §6.
type Model interface {
	BorrowRatePerSecond(ctx context.Context, totalSupplyAssets, totalBorrowAssets *big.Int) (*big.Int, error)
}

// SecondsPerYear matches the constant used throughout the accrual math.
const SecondsPerYear = 31_536_000
