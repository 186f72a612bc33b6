package shares

import (
	"math/big"
	"testing"
)

// TestFirstDeposit exercises spec.md §8 seed scenario 1: a fresh market
// supplying 1000 units mints 1000 * VirtualShares shares.
func TestFirstDeposit(t *testing.T) {
	got, err := ToSharesDown(big.NewInt(1000), big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := big.NewInt(1_000_000_000)
	if got.Cmp(want) != 0 {
		t.Fatalf("got %s want %s", got, want)
	}
}

// TestSupplyWithdrawRoundTripNeverProfits is P3: with no intervening
// interest accrual, withdrawing immediately after a supply never recovers
// more than was deposited.
func TestSupplyWithdrawRoundTripNeverProfits(t *testing.T) {
	totalAssets := big.NewInt(1_000_000)
	totalShares := big.NewInt(777_000_000)

	deposit := big.NewInt(12345)
	minted, err := ToSharesDown(deposit, totalAssets, totalShares)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	newTotalAssets := new(big.Int).Add(totalAssets, deposit)
	newTotalShares := new(big.Int).Add(totalShares, minted)

	recovered, err := ToAssetsDown(minted, newTotalAssets, newTotalShares)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if recovered.Cmp(deposit) > 0 {
		t.Fatalf("recovered %s exceeds deposited %s", recovered, deposit)
	}
}

// TestInflationAttackBounded is P9: an attacker who first-deposits 1 unit
// and donates D assets directly to the market cannot reduce a subsequent
// victim deposit's redeemable value by more than a small constant, and the
// victim still receives a meaningful number of shares.
func TestInflationAttackBounded(t *testing.T) {
	attackerDeposit := big.NewInt(1)
	donation := new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil) // 1e12
	victimDeposit := new(big.Int).Exp(big.NewInt(10), big.NewInt(12), nil)

	// Attacker deposits 1 unit into an empty market.
	attackerShares, err := ToSharesDown(attackerDeposit, big.NewInt(0), big.NewInt(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Attacker donates D assets directly (bypassing Supply, e.g. a raw
	// token transfer into the vault) -- total assets grow, shares do not.
	totalAssets := new(big.Int).Add(attackerDeposit, donation)
	totalShares := attackerShares

	victimShares, err := ToSharesDown(victimDeposit, totalAssets, totalShares)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if victimShares.Sign() == 0 {
		t.Fatalf("victim received zero shares, inflation attack succeeded")
	}

	postAssets := new(big.Int).Add(totalAssets, victimDeposit)
	postShares := new(big.Int).Add(totalShares, victimShares)

	victimRedeemable, err := ToAssetsDown(victimShares, postAssets, postShares)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	epsilon := big.NewInt(10)
	minAcceptable := new(big.Int).Sub(victimDeposit, epsilon)
	if victimRedeemable.Cmp(minAcceptable) < 0 {
		t.Fatalf("victim redeemable %s below floor %s (deposit %s)", victimRedeemable, minAcceptable, victimDeposit)
	}
}

func TestZeroTotalsDoNotPanic(t *testing.T) {
	if _, err := ToSharesDown(big.NewInt(100), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ToAssetsUp(big.NewInt(100), nil, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
