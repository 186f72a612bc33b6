package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/fixedpoint"
	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/shares"
)

// accrueInterest is the single canonical mutation of market totals outside
// user operations, per spec.md §4.3. It executes before every operation
// that reads or writes market totals and must never be re-entered under the
// same flash-loan lock (the caller is responsible for only invoking it
// outside a locked phase).
func (e *Engine) accrueInterest(ctx context.Context, m *market.Market) (interest, feeShares *big.Int, err error) {
	now := e.now()
	if now <= m.LastUpdate {
		return big.NewInt(0), big.NewInt(0), nil
	}
	if m.TotalBorrowAssets.Sign() == 0 {
		m.LastUpdate = now
		return big.NewInt(0), big.NewInt(0), nil
	}

	model, err := e.irmFor(m.IRMRef)
	if err != nil {
		return nil, nil, err
	}
	rate, err := model.BorrowRatePerSecond(ctx, m.TotalSupplyAssets, m.TotalBorrowAssets)
	if err != nil {
		return nil, nil, err
	}
	if rate == nil || rate.Sign() < 0 {
		return nil, nil, ErrIRMInvalidRate
	}

	elapsed := now - m.LastUpdate
	factor, err := fixedpoint.TaylorCompound(rate, elapsed)
	if err != nil {
		return nil, nil, err
	}

	interest, err = fixedpoint.WadMulDown(m.TotalBorrowAssets, factor)
	if err != nil {
		return nil, nil, err
	}
	if interest.Sign() == 0 {
		m.LastUpdate = now
		return big.NewInt(0), big.NewInt(0), nil
	}

	m.TotalBorrowAssets = new(big.Int).Add(m.TotalBorrowAssets, interest)
	m.TotalSupplyAssets = new(big.Int).Add(m.TotalSupplyAssets, interest)

	feeShares = big.NewInt(0)
	if m.FeeBps > 0 {
		feeAmount, err := fixedpoint.MulDivDown(interest, new(big.Int).SetUint64(m.FeeBps), BPS)
		if err != nil {
			return nil, nil, err
		}
		if feeAmount.Sign() > 0 {
			preFeeSupplyAssets := new(big.Int).Sub(m.TotalSupplyAssets, feeAmount)
			feeShares, err = shares.ToSharesDown(feeAmount, preFeeSupplyAssets, m.TotalSupplyShares)
			if err != nil {
				return nil, nil, err
			}
			m.TotalSupplyShares = new(big.Int).Add(m.TotalSupplyShares, feeShares)
			m.PendingFeeShares = new(big.Int).Add(m.PendingFeeShares, feeShares)
		}
	}

	m.LastUpdate = now
	e.emit(events.InterestAccrued{
		MarketID:  m.MarketID,
		Interest:  interest.String(),
		FeeShares: feeShares.String(),
		NewBorrow: m.TotalBorrowAssets.String(),
		NewSupply: m.TotalSupplyAssets.String(),
	})
	return interest, feeShares, nil
}
