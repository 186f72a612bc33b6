package fixedpoint

import (
	"math/big"
	"testing"
)

func TestTaylorCompoundZeroRate(t *testing.T) {
	got, err := TaylorCompound(big.NewInt(0), secondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero factor, got %s", got)
	}
}

func TestTaylorCompoundZeroElapsed(t *testing.T) {
	got, err := TaylorCompound(MaxBorrowRatePerSecond, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Sign() != 0 {
		t.Fatalf("expected zero factor, got %s", got)
	}
}

// TestTaylorCompoundOneYearTenPercent exercises the seed scenario of
// spec.md §8.2: a 10% APY rate compounded continuously over one year should
// yield a factor noticeably larger than the simple (uncompounded) 10%.
func TestTaylorCompoundOneYearTenPercent(t *testing.T) {
	rate := new(big.Int).Quo(WAD, big.NewInt(10))
	rate.Quo(rate, big.NewInt(secondsPerYear))

	factor, err := TaylorCompound(rate, secondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tenPercent := new(big.Int).Quo(WAD, big.NewInt(10))
	if factor.Cmp(tenPercent) <= 0 {
		t.Fatalf("expected compounded factor to exceed simple 10%%, got %s vs %s", factor, tenPercent)
	}
	// Compounding a 10% annual rate should stay well under 11%, since the
	// higher-order terms are small relative to the linear term at this rate.
	elevenPercent := new(big.Int).Mul(WAD, big.NewInt(11))
	elevenPercent.Quo(elevenPercent, big.NewInt(100))
	if factor.Cmp(elevenPercent) >= 0 {
		t.Fatalf("compounded factor unexpectedly large: %s", factor)
	}
}

func TestTaylorCompoundCapsExtremeRate(t *testing.T) {
	extreme := new(big.Int).Mul(MaxBorrowRatePerSecond, big.NewInt(1000))
	capped, err := TaylorCompound(MaxBorrowRatePerSecond, secondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	gotExtreme, err := TaylorCompound(extreme, secondsPerYear)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if capped.Cmp(gotExtreme) != 0 {
		t.Fatalf("expected extreme rate to be capped identically: %s vs %s", capped, gotExtreme)
	}
}
