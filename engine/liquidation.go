package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/oracle"
	"github.com/raunit-dev/morpho-on-solana/shares"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// isLiquidatable implements spec.md §4.4's solvency check: a position with
// no debt is trivially solvent.
func isLiquidatable(collateral, borrowShares, totalBorrowAssets, totalBorrowShares, price *big.Int, lltv uint64) (bool, error) {
	if borrowShares == nil || borrowShares.Sign() == 0 {
		return false, nil
	}
	borrowAssets, err := shares.ToAssetsUp(borrowShares, totalBorrowAssets, totalBorrowShares)
	if err != nil {
		return false, err
	}
	borrowValue := new(big.Int).Mul(borrowAssets, oracle.Scale)

	maxBorrow := new(big.Int).Mul(collateral, price)
	maxBorrow.Mul(maxBorrow, new(big.Int).SetUint64(lltv))
	maxBorrow.Quo(maxBorrow, BPS)

	return borrowValue.Cmp(maxBorrow) > 0, nil
}

// IsLiquidatable exposes the solvency check for callers (tests, other
// packages) that need it without going through a full Liquidate call.
func IsLiquidatable(collateral, borrowShares, totalBorrowAssets, totalBorrowShares, price *big.Int, lltv uint64) (bool, error) {
	return isLiquidatable(collateral, borrowShares, totalBorrowAssets, totalBorrowShares, price, lltv)
}

// assertSolvent fetches the position's oracle price and rejects the
// operation with ErrPositionUnhealthy if the post-effect position would be
// liquidatable. Used by Borrow and WithdrawCollateral, the two operations
// spec.md §4.5 marks with a solvency check.
func (e *Engine) assertSolvent(ctx context.Context, oracleRef, marketID [32]byte, collateral, borrowShares, totalBorrowAssets, totalBorrowShares *big.Int, lltv uint64) error {
	src, err := e.oracleFor(oracleRef)
	if err != nil {
		return err
	}
	price, err := src.Price(ctx, oracle.Ref{OracleAccount: oracleRef, MarketID: marketID})
	if err != nil {
		return err
	}
	if err := oracle.ValidatePrice(price, e.collateralCeiling); err != nil {
		return mapOracleErr(err)
	}
	bad, err := isLiquidatable(collateral, borrowShares, totalBorrowAssets, totalBorrowShares, price, lltv)
	if err != nil {
		return err
	}
	if bad {
		return ErrPositionUnhealthy
	}
	return nil
}

// LIF computes the Liquidation Incentive Factor for a market's LLTV, per
// spec.md §4.4: LIF = min(MAX_LIF, BPS*BPS / (BPS - LIF_CURSOR*(BPS-lltv)/BPS)),
// floored at BPS (100%).
func LIF(lltv uint64) *big.Int {
	lltvBig := new(big.Int).SetUint64(lltv)
	oneMinusLLTV := new(big.Int).Sub(BPS, lltvBig)
	cursored := new(big.Int).Mul(LIFCursor, oneMinusLLTV)
	cursored.Quo(cursored, BPS)

	denom := new(big.Int).Sub(BPS, cursored)
	if denom.Sign() <= 0 {
		return new(big.Int).Set(MaxLIF)
	}

	lif := new(big.Int).Mul(BPS, BPS)
	lif.Quo(lif, denom)

	if lif.Cmp(MaxLIF) > 0 {
		return new(big.Int).Set(MaxLIF)
	}
	if lif.Cmp(BPS) < 0 {
		return new(big.Int).Set(BPS)
	}
	return lif
}

// Liquidate repays part or all of an unhealthy borrower's debt, seizing
// collateral scaled up by LIF(lltv), per spec.md §4.4. Permitted even while
// the market or protocol is paused.
func (e *Engine) Liquidate(ctx context.Context, marketID [32]byte, liquidator, borrower [32]byte, liquidatorLoanHandle, loanVaultHandle, collateralVaultHandle, liquidatorCollateralHandle vault.Handle, seizedAssetsIn *big.Int, loanDecimals, collateralDecimals uint8) (repaidAssets, seizedCollateral *big.Int, err error) {
	protocol, err := e.state.GetProtocolState()
	if err != nil {
		return nil, nil, err
	}
	m, err := e.state.GetMarket(marketID)
	if err != nil {
		return nil, nil, err
	}
	if m == nil {
		return nil, nil, ErrMarketNotFound
	}
	if _, _, err := e.accrueInterest(ctx, m); err != nil {
		return nil, nil, err
	}

	pos, err := e.loadPosition(marketID, borrower)
	if err != nil {
		return nil, nil, err
	}

	src, err := e.oracleFor(m.OracleRef)
	if err != nil {
		return nil, nil, err
	}
	price, err := src.Price(ctx, oracle.Ref{OracleAccount: m.OracleRef, MarketID: marketID})
	if err != nil {
		return nil, nil, err
	}
	if err := oracle.ValidatePrice(price, e.collateralCeiling); err != nil {
		return nil, nil, mapOracleErr(err)
	}

	liquidatable, err := isLiquidatable(pos.Collateral, pos.BorrowShares, m.TotalBorrowAssets, m.TotalBorrowShares, price, m.LLTV)
	if err != nil {
		return nil, nil, err
	}
	if !liquidatable {
		return nil, nil, ErrPositionHealthy
	}

	lif := LIF(m.LLTV)
	seizedCollateral, err = mulDivUpBPS(seizedAssetsIn, oracle.Scale, lif, price, BPS)
	if err != nil {
		return nil, nil, err
	}
	if seizedCollateral.Cmp(pos.Collateral) > 0 {
		seizedCollateral = new(big.Int).Set(pos.Collateral)
	}

	repaidSharesCandidate, err := shares.ToSharesDown(seizedAssetsIn, m.TotalBorrowAssets, m.TotalBorrowShares)
	if err != nil {
		return nil, nil, err
	}
	repaidShares := repaidSharesCandidate
	if repaidShares.Cmp(pos.BorrowShares) > 0 {
		repaidShares = new(big.Int).Set(pos.BorrowShares)
	}

	repaidAssets, err = shares.ToAssetsUp(repaidShares, m.TotalBorrowAssets, m.TotalBorrowShares)
	if err != nil {
		return nil, nil, err
	}

	pos.BorrowShares = new(big.Int).Sub(pos.BorrowShares, repaidShares)
	pos.Collateral = new(big.Int).Sub(pos.Collateral, seizedCollateral)
	m.TotalBorrowShares = new(big.Int).Sub(m.TotalBorrowShares, repaidShares)
	m.TotalBorrowAssets = new(big.Int).Sub(m.TotalBorrowAssets, repaidAssets)
	if m.TotalBorrowAssets.Sign() < 0 {
		m.TotalBorrowAssets = big.NewInt(0)
	}

	if pos.Collateral.Sign() == 0 && pos.BorrowShares.Sign() > 0 {
		badDebt, err := shares.ToAssetsUp(pos.BorrowShares, m.TotalBorrowAssets, m.TotalBorrowShares)
		if err != nil {
			return nil, nil, err
		}
		m.TotalSupplyAssets = new(big.Int).Sub(m.TotalSupplyAssets, badDebt)
		if m.TotalSupplyAssets.Sign() < 0 {
			m.TotalSupplyAssets = big.NewInt(0)
		}
		m.TotalBorrowShares = new(big.Int).Sub(m.TotalBorrowShares, pos.BorrowShares)
		m.TotalBorrowAssets = new(big.Int).Sub(m.TotalBorrowAssets, badDebt)
		if m.TotalBorrowAssets.Sign() < 0 {
			m.TotalBorrowAssets = big.NewInt(0)
		}
		pos.BorrowShares = big.NewInt(0)

		e.emit(events.BadDebtRealized{MarketID: marketID, Borrower: borrower, BadDebt: badDebt.String()})
	}

	if err := e.state.PutPosition(pos); err != nil {
		return nil, nil, err
	}
	if err := e.state.PutMarket(m); err != nil {
		return nil, nil, err
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return nil, nil, err
	}
	if err := sink.TransferChecked(ctx, liquidatorLoanHandle, loanVaultHandle, repaidAssets, loanDecimals); err != nil {
		return nil, nil, ErrInsufficientBalance
	}

	liquidatorCollateral := seizedCollateral
	if protocol != nil && protocol.CollateralRouting.TreasuryBps > 0 {
		treasuryCut := new(big.Int).Mul(seizedCollateral, new(big.Int).SetUint64(protocol.CollateralRouting.TreasuryBps))
		treasuryCut.Quo(treasuryCut, BPS)
		if treasuryCut.Sign() > 0 {
			if err := sink.TransferChecked(ctx, collateralVaultHandle, protocol.CollateralRouting.TreasuryHandle, treasuryCut, collateralDecimals); err != nil {
				return nil, nil, ErrInsufficientBalance
			}
			liquidatorCollateral = new(big.Int).Sub(seizedCollateral, treasuryCut)
		}
	}
	if err := sink.TransferChecked(ctx, collateralVaultHandle, liquidatorCollateralHandle, liquidatorCollateral, collateralDecimals); err != nil {
		return nil, nil, ErrInsufficientBalance
	}

	e.emit(events.Liquidation{
		MarketID:         marketID,
		Liquidator:       liquidator,
		Borrower:         borrower,
		RepaidAssets:     repaidAssets.String(),
		RepaidShares:     repaidShares.String(),
		SeizedCollateral: seizedCollateral.String(),
	})
	return repaidAssets, seizedCollateral, nil
}

func mapOracleErr(err error) error {
	switch err {
	case oracle.ErrPriceTooLow:
		return ErrOraclePriceTooLow
	case oracle.ErrPriceTooHigh:
		return ErrOraclePriceTooHigh
	default:
		return ErrOracleInvalidPrice
	}
}

// mulDivUpBPS computes ceil(a*b*lif / (price*bps)) in the shape spec.md
// §4.4 uses for seized_collateral: a 4-factor numerator over a 2-factor
// denominator, computed with big.Int directly since fixedpoint.MulDivUp
// only takes a 3-factor shape.
func mulDivUpBPS(a, b, lif, price, bps *big.Int) (*big.Int, error) {
	if a == nil || a.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if price == nil || price.Sign() == 0 || bps == nil || bps.Sign() == 0 {
		return nil, ErrDivisionByZero
	}
	num := new(big.Int).Mul(a, b)
	num.Mul(num, lif)
	denom := new(big.Int).Mul(price, bps)
	result := new(big.Int).Add(num, new(big.Int).Sub(denom, big.NewInt(1)))
	result.Quo(result, denom)
	return result, nil
}
