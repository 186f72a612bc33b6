package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/shares"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// Borrow draws assets against owner's collateral, crediting receiver.
// Delegable. Solvency is asserted after the effect, per spec.md §4.5.
func (e *Engine) Borrow(ctx context.Context, marketID [32]byte, caller, owner [32]byte, vaultHandle, receiverHandle vault.Handle, assets, maxShares *big.Int, decimals uint8) (borrowedAssets, mintedShares *big.Int, err error) {
	if err := e.resolveCaller(owner, caller); err != nil {
		return nil, nil, err
	}
	if assets == nil || assets.Sign() <= 0 {
		return nil, nil, ErrZeroAmount
	}

	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return nil, nil, err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return nil, nil, err
	}
	if _, _, err := e.accrueInterest(ctx, m); err != nil {
		return nil, nil, err
	}

	if assets.Cmp(availableLiquidity(m)) > 0 {
		return nil, nil, ErrInsufficientLiquidity
	}
	if m.BorrowCap != nil && m.BorrowCap.Sign() > 0 {
		projected := new(big.Int).Add(m.TotalBorrowAssets, assets)
		if projected.Cmp(m.BorrowCap) > 0 {
			return nil, nil, ErrBorrowCapExceeded
		}
	}

	mintedShares, err = shares.ToSharesUp(assets, m.TotalBorrowAssets, m.TotalBorrowShares)
	if err != nil {
		return nil, nil, err
	}
	if maxShares != nil && maxShares.Sign() > 0 && mintedShares.Cmp(maxShares) > 0 {
		return nil, nil, ErrSlippageExceeded
	}

	pos, err := e.loadPosition(marketID, owner)
	if err != nil {
		return nil, nil, err
	}
	pos.BorrowShares = new(big.Int).Add(pos.BorrowShares, mintedShares)
	m.TotalBorrowAssets = new(big.Int).Add(m.TotalBorrowAssets, assets)
	m.TotalBorrowShares = new(big.Int).Add(m.TotalBorrowShares, mintedShares)

	if err := e.assertSolvent(ctx, m.OracleRef, marketID, pos.Collateral, pos.BorrowShares, m.TotalBorrowAssets, m.TotalBorrowShares, m.LLTV); err != nil {
		return nil, nil, err
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
	if err := sink.TransferChecked(ctx, vaultHandle, receiverHandle, assets, decimals); err != nil {
		return nil, nil, ErrInsufficientBalance
	}

	e.emit(events.Borrow{
		MarketID:     marketID,
		Caller:       caller,
		Owner:        owner,
		Receiver:     receiver32(receiverHandle),
		Assets:       assets.String(),
		SharesMinted: mintedShares.String(),
	})
	return assets, mintedShares, nil
}

// Repay reduces onBehalfOf's debt by either assets or shares (exactly one
// non-zero). Ungated: spec.md §4.5 marks Repay's caller check as "—" since
// repaying someone else's debt only benefits the borrower, and caller is
// never charged — callerHandle supplies the repayment.
func (e *Engine) Repay(ctx context.Context, marketID [32]byte, caller, onBehalfOf [32]byte, callerHandle, vaultHandle vault.Handle, assetsIn, sharesIn *big.Int, decimals uint8) (repaidAssets, burnedShares *big.Int, err error) {
	if err := exactlyOne(assetsIn, sharesIn); err != nil {
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

	pos, err := e.loadPosition(marketID, onBehalfOf)
	if err != nil {
		return nil, nil, err
	}

	if assetsIn != nil && assetsIn.Sign() > 0 {
		burnedShares, err = shares.ToSharesDown(assetsIn, m.TotalBorrowAssets, m.TotalBorrowShares)
		if err != nil {
			return nil, nil, err
		}
		if burnedShares.Cmp(pos.BorrowShares) > 0 {
			burnedShares = new(big.Int).Set(pos.BorrowShares)
		}
		repaidAssets, err = shares.ToAssetsUp(burnedShares, m.TotalBorrowAssets, m.TotalBorrowShares)
		if err != nil {
			return nil, nil, err
		}
	} else {
		burnedShares = sharesIn
		if burnedShares.Cmp(pos.BorrowShares) > 0 {
			return nil, nil, ErrInsufficientBalance
		}
		repaidAssets, err = shares.ToAssetsUp(burnedShares, m.TotalBorrowAssets, m.TotalBorrowShares)
		if err != nil {
			return nil, nil, err
		}
	}

	pos.BorrowShares = new(big.Int).Sub(pos.BorrowShares, burnedShares)
	m.TotalBorrowAssets = new(big.Int).Sub(m.TotalBorrowAssets, repaidAssets)
	if m.TotalBorrowAssets.Sign() < 0 {
		m.TotalBorrowAssets = big.NewInt(0)
	}
	m.TotalBorrowShares = new(big.Int).Sub(m.TotalBorrowShares, burnedShares)

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
	if err := sink.TransferChecked(ctx, callerHandle, vaultHandle, repaidAssets, decimals); err != nil {
		return nil, nil, ErrInsufficientBalance
	}

	e.emit(events.Repay{
		MarketID:     marketID,
		Caller:       caller,
		OnBehalfOf:   onBehalfOf,
		Assets:       repaidAssets.String(),
		SharesBurned: burnedShares.String(),
	})
	return repaidAssets, burnedShares, nil
}
