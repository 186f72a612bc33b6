// Package shares implements the share/asset conversion math that protects
// first depositors from inflation attacks, per spec.md §4.2. Every
// conversion routes through fixedpoint's checked mul-div so overflow and
// division-by-zero are reported uniformly with the rest of the engine.
package shares

import (
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/fixedpoint"
)

// VirtualShares and VirtualAssets are the constant addends mixed into every
// conversion to defend the first depositor against a share-inflation
// attack. They are load-bearing: spec.md §9 calls out that dropping them, or
// scaling them differently, invalidates the attack bound tested in P9.
var (
	VirtualShares = big.NewInt(1_000_000)
	VirtualAssets = big.NewInt(1)
)

// ToSharesDown converts an asset amount to shares rounding down, the
// direction used when crediting a supplier with shares for a deposit.
func ToSharesDown(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivDown(assets, withVirtualShares(totalShares), withVirtualAssets(totalAssets))
}

// ToSharesUp converts an asset amount to shares rounding up, the direction
// used when computing how many shares a borrower's draw represents.
func ToSharesUp(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivUp(assets, withVirtualShares(totalShares), withVirtualAssets(totalAssets))
}

// ToAssetsDown converts a share amount to assets rounding down, the
// direction used when a supplier withdraws liquidity.
func ToAssetsDown(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivDown(shares, withVirtualAssets(totalAssets), withVirtualShares(totalShares))
}

// ToAssetsUp converts a share amount to assets rounding up, the direction
// used when computing how much a borrower owes to repay a given share burn.
func ToAssetsUp(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return fixedpoint.MulDivUp(shares, withVirtualAssets(totalAssets), withVirtualShares(totalShares))
}

// withVirtualShares returns (TS + VirtualShares).
func withVirtualShares(totalShares *big.Int) *big.Int {
	ts := totalShares
	if ts == nil {
		ts = big.NewInt(0)
	}
	return new(big.Int).Add(ts, VirtualShares)
}

// withVirtualAssets returns (TA + VirtualAssets).
func withVirtualAssets(totalAssets *big.Int) *big.Int {
	ta := totalAssets
	if ta == nil {
		ta = big.NewInt(0)
	}
	return new(big.Int).Add(ta, VirtualAssets)
}
