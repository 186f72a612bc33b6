package fixedpoint

import "math/big"

// MaxBorrowRatePerSecond caps the per-second borrow rate fed into
// TaylorCompound at WAD*10/31_536_000, i.e. 1000% APY, matching spec.md
// §4.1's hard ceiling.
var MaxBorrowRatePerSecond = func() *big.Int {
	v := new(big.Int).Mul(WAD, big.NewInt(10))
	return v.Quo(v, big.NewInt(secondsPerYear))
}()

const secondsPerYear = 31_536_000

// TaylorCompound approximates e^(rt) - 1 for a WAD-scaled per-second rate r
// and an elapsed-seconds duration t using the three-term Taylor expansion
//
//	factor = rt + (rt)^2/2 + (rt)^3/6
//
// with (rt)^n normalised by WAD^(n-1). The rate is capped at
// MaxBorrowRatePerSecond before the expansion runs, so a misbehaving IRM can
// never compound an unbounded rate.
func TaylorCompound(ratePerSecond *big.Int, elapsedSeconds uint64) (*big.Int, error) {
	if ratePerSecond == nil || ratePerSecond.Sign() < 0 {
		return nil, ErrNegative
	}
	rate := ratePerSecond
	if rate.Cmp(MaxBorrowRatePerSecond) > 0 {
		rate = MaxBorrowRatePerSecond
	}
	if rate.Sign() == 0 || elapsedSeconds == 0 {
		return big.NewInt(0), nil
	}

	rt := new(big.Int).Mul(rate, new(big.Int).SetUint64(elapsedSeconds))

	rtSquared, err := WadMulDown(rt, rt)
	if err != nil {
		return nil, err
	}
	rtCubed, err := WadMulDown(rtSquared, rt)
	if err != nil {
		return nil, err
	}

	secondTerm := new(big.Int).Quo(rtSquared, big.NewInt(2))
	thirdTerm := new(big.Int).Quo(rtCubed, big.NewInt(6))

	factor := new(big.Int).Add(rt, secondTerm)
	factor.Add(factor, thirdTerm)
	return factor, nil
}
