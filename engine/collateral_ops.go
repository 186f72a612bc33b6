package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// SupplyCollateral deposits raw collateral units into onBehalfOf's
// position. Not delegable: caller must equal onBehalfOf.
func (e *Engine) SupplyCollateral(ctx context.Context, marketID [32]byte, caller, onBehalfOf [32]byte, callerHandle, vaultHandle vault.Handle, amount *big.Int, decimals uint8) error {
	if caller != onBehalfOf {
		return ErrUnauthorized
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return err
	}

	pos, err := e.loadPosition(marketID, onBehalfOf)
	if err != nil {
		return err
	}
	pos.Collateral = new(big.Int).Add(pos.Collateral, amount)
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return err
	}
	if err := sink.TransferChecked(ctx, callerHandle, vaultHandle, amount, decimals); err != nil {
		return ErrInsufficientBalance
	}

	e.emit(events.SupplyCollateral{MarketID: marketID, Caller: caller, OnBehalfOf: onBehalfOf, Assets: amount.String()})
	return nil
}

// WithdrawCollateral removes raw collateral units from owner's position,
// sending them to receiver. Delegable. If the position carries outstanding
// debt, the post-withdrawal position must remain solvent.
func (e *Engine) WithdrawCollateral(ctx context.Context, marketID [32]byte, caller, owner [32]byte, vaultHandle, receiverHandle vault.Handle, amount *big.Int, decimals uint8) error {
	if err := e.resolveCaller(owner, caller); err != nil {
		return err
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return err
	}
	if _, _, err := e.accrueInterest(ctx, m); err != nil {
		return err
	}

	pos, err := e.loadPosition(marketID, owner)
	if err != nil {
		return err
	}
	if amount.Cmp(pos.Collateral) > 0 {
		return ErrInsufficientCollateral
	}
	newCollateral := new(big.Int).Sub(pos.Collateral, amount)

	if pos.BorrowShares.Sign() > 0 {
		if err := e.assertSolvent(ctx, m.OracleRef, marketID, newCollateral, pos.BorrowShares, m.TotalBorrowAssets, m.TotalBorrowShares, m.LLTV); err != nil {
			return err
		}
	}

	pos.Collateral = newCollateral
	if err := e.state.PutPosition(pos); err != nil {
		return err
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return err
	}
	if err := sink.TransferChecked(ctx, vaultHandle, receiverHandle, amount, decimals); err != nil {
		return ErrInsufficientBalance
	}

	e.emit(events.WithdrawCollateral{MarketID: marketID, Caller: caller, Owner: owner, Receiver: receiver32(receiverHandle), Assets: amount.String()})
	return nil
}

// receiver32 adapts a vault.Handle (a 32-byte opaque handle) to the
// 32-byte identity shape events use for logging purposes.
func receiver32(h vault.Handle) [32]byte {
	return [32]byte(h)
}
