package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/shares"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// Supply deposits assets into a market's supply pool on behalf of
// onBehalfOf, crediting shares rounded down. Per spec.md §4.5, caller must
// equal onBehalfOf (supply is not delegable).
func (e *Engine) Supply(ctx context.Context, marketID [32]byte, caller, onBehalfOf [32]byte, callerHandle, vaultHandle vault.Handle, assets *big.Int, minShares *big.Int, decimals uint8) (mintedShares *big.Int, err error) {
	if caller != onBehalfOf {
		return nil, ErrUnauthorized
	}
	if assets == nil || assets.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return nil, err
	}
	if _, _, err := e.accrueInterest(ctx, m); err != nil {
		return nil, err
	}

	mintedShares, err = shares.ToSharesDown(assets, m.TotalSupplyAssets, m.TotalSupplyShares)
	if err != nil {
		return nil, err
	}
	if minShares != nil && minShares.Sign() > 0 && mintedShares.Cmp(minShares) < 0 {
		return nil, ErrSlippageExceeded
	}

	pos, err := e.loadPosition(marketID, onBehalfOf)
	if err != nil {
		return nil, err
	}
	pos.SupplyShares = new(big.Int).Add(pos.SupplyShares, mintedShares)
	m.TotalSupplyAssets = new(big.Int).Add(m.TotalSupplyAssets, assets)
	m.TotalSupplyShares = new(big.Int).Add(m.TotalSupplyShares, mintedShares)

	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutMarket(m); err != nil {
		return nil, err
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return nil, err
	}
	if err := sink.TransferChecked(ctx, callerHandle, vaultHandle, assets, decimals); err != nil {
		return nil, ErrInsufficientBalance
	}

	e.emit(events.Supply{
		MarketID:     marketID,
		Caller:       caller,
		OnBehalfOf:   onBehalfOf,
		Assets:       assets.String(),
		SharesMinted: mintedShares.String(),
	})
	return mintedShares, nil
}

// Withdraw redeems either assets or shares (exactly one non-zero) from
// onBehalfOf's supply position, sending the redeemed assets to receiver.
// Delegable: caller may be onBehalfOf or an authorized delegate.
func (e *Engine) Withdraw(ctx context.Context, marketID [32]byte, caller, onBehalfOf [32]byte, vaultHandle, receiverHandle vault.Handle, assetsIn, sharesIn *big.Int, decimals uint8) (withdrawnAssets, burnedShares *big.Int, err error) {
	if err := e.resolveCaller(onBehalfOf, caller); err != nil {
		return nil, nil, err
	}
	if err := exactlyOne(assetsIn, sharesIn); err != nil {
		return nil, nil, err
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

	pos, err := e.loadPosition(marketID, onBehalfOf)
	if err != nil {
		return nil, nil, err
	}

	if assetsIn != nil && assetsIn.Sign() > 0 {
		burnedShares, err = shares.ToSharesUp(assetsIn, m.TotalSupplyAssets, m.TotalSupplyShares)
		if err != nil {
			return nil, nil, err
		}
		withdrawnAssets = assetsIn
	} else {
		withdrawnAssets, err = shares.ToAssetsDown(sharesIn, m.TotalSupplyAssets, m.TotalSupplyShares)
		if err != nil {
			return nil, nil, err
		}
		burnedShares = sharesIn
	}

	if burnedShares.Cmp(pos.SupplyShares) > 0 {
		return nil, nil, ErrInsufficientBalance
	}
	available := availableLiquidity(m)
	if withdrawnAssets.Cmp(available) > 0 {
		return nil, nil, ErrInsufficientLiquidity
	}

	pos.SupplyShares = new(big.Int).Sub(pos.SupplyShares, burnedShares)
	m.TotalSupplyAssets = new(big.Int).Sub(m.TotalSupplyAssets, withdrawnAssets)
	m.TotalSupplyShares = new(big.Int).Sub(m.TotalSupplyShares, burnedShares)

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
	if err := sink.TransferChecked(ctx, vaultHandle, receiverHandle, withdrawnAssets, decimals); err != nil {
		return nil, nil, ErrInsufficientBalance
	}

	e.emit(events.Withdraw{
		MarketID:     marketID,
		Caller:       caller,
		OnBehalfOf:   onBehalfOf,
		Assets:       withdrawnAssets.String(),
		SharesBurned: burnedShares.String(),
	})
	return withdrawnAssets, burnedShares, nil
}

// exactlyOne enforces the assets-XOR-shares input rule used by Withdraw and
// Repay, per spec.md §4.5.
func exactlyOne(a, b *big.Int) error {
	aSet := a != nil && a.Sign() > 0
	bSet := b != nil && b.Sign() > 0
	if aSet == bSet {
		return ErrInvalidInput
	}
	return nil
}

// availableLiquidity is max(0, TSA - TBA), per the glossary.
func availableLiquidity(m *market.Market) *big.Int {
	avail := new(big.Int).Sub(m.TotalSupplyAssets, m.TotalBorrowAssets)
	if avail.Sign() < 0 {
		return big.NewInt(0)
	}
	return avail
}
