package irm

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/fixedpoint"
)

// LinearKinked is the reference parameterization from spec.md §6: a
// piecewise-linear borrow-rate curve with a kink where the slope steepens to
// discourage utilisation beyond a target. Grounded on
// native/lending/interest.go's InterestModel, adapted from a yearly-APR
// big.Rat model to a per-second WAD-scaled *big.Int model.
type LinearKinked struct {
	// BaseRate is the yearly borrow APR at zero utilisation, WAD-scaled.
	BaseRate *big.Int
	// Slope1 is the yearly APR added per unit of utilisation below Kink,
	// WAD-scaled.
	Slope1 *big.Int
	// Slope2 is the yearly APR added per unit of utilisation above Kink,
	// WAD-scaled.
	Slope2 *big.Int
	// Kink is the utilisation ratio (WAD-scaled, in [0, WAD]) where the
	// slope changes.
	Kink *big.Int
}

// Utilisation computes mul_div_down(totalBorrowAssets, WAD, totalSupplyAssets),
// defined as zero when there is no supply.
func Utilisation(totalSupplyAssets, totalBorrowAssets *big.Int) (*big.Int, error) {
	if totalSupplyAssets == nil || totalSupplyAssets.Sign() == 0 {
		return big.NewInt(0), nil
	}
	borrow := totalBorrowAssets
	if borrow == nil {
		borrow = big.NewInt(0)
	}
	return fixedpoint.MulDivDown(borrow, fixedpoint.WAD, totalSupplyAssets)
}

// BorrowRatePerSecond implements Model for LinearKinked.
func (m *LinearKinked) BorrowRatePerSecond(_ context.Context, totalSupplyAssets, totalBorrowAssets *big.Int) (*big.Int, error) {
	utilisation, err := Utilisation(totalSupplyAssets, totalBorrowAssets)
	if err != nil {
		return nil, err
	}

	yearlyRate := new(big.Int).Set(zeroIfNil(m.BaseRate))
	kink := zeroIfNil(m.Kink)
	slope1 := zeroIfNil(m.Slope1)
	slope2 := zeroIfNil(m.Slope2)

	if kink.Sign() == 0 || utilisation.Cmp(kink) <= 0 {
		contribution, err := fixedpoint.WadMulDown(slope1, utilisation)
		if err != nil {
			return nil, err
		}
		yearlyRate.Add(yearlyRate, contribution)
	} else {
		atKink, err := fixedpoint.WadMulDown(slope1, kink)
		if err != nil {
			return nil, err
		}
		yearlyRate.Add(yearlyRate, atKink)

		excess := new(big.Int).Sub(utilisation, kink)
		beyondKink, err := fixedpoint.WadMulDown(slope2, excess)
		if err != nil {
			return nil, err
		}
		yearlyRate.Add(yearlyRate, beyondKink)
	}

	perSecond := new(big.Int).Quo(yearlyRate, big.NewInt(SecondsPerYear))
	if perSecond.Cmp(fixedpoint.MaxBorrowRatePerSecond) > 0 {
		perSecond = new(big.Int).Set(fixedpoint.MaxBorrowRatePerSecond)
	}
	return perSecond, nil
}

func zeroIfNil(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return v
}

// DefaultLinearKinked mirrors native/lending/interest.go's
// DefaultInterestModel (2% base, 15% slope1, 60% slope2, 80% kink), expressed
// WAD-scaled instead of as float64-derived big.Rat.
var DefaultLinearKinked = &LinearKinked{
	BaseRate: wadPct(2),
	Slope1:   wadPct(15),
	Slope2:   wadPct(60),
	Kink:     wadPct(80),
}

func wadPct(pct int64) *big.Int {
	v := new(big.Int).Mul(fixedpoint.WAD, big.NewInt(pct))
	return v.Quo(v, big.NewInt(100))
}
