package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/fixedpoint"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// FlashLoanStart begins the two-phase flash-loan shape, per spec.md §4.6:
// requires Open state, sets flash_loan_lock, and transfers amount out of
// the loan vault to the borrower.
func (e *Engine) FlashLoanStart(ctx context.Context, marketID [32]byte, borrowerHandle, vaultHandle vault.Handle, amount *big.Int, decimals uint8) error {
	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return err
	}
	if m.FlashLoanLock {
		return ErrFlashLoanInProgress
	}
	if amount == nil || amount.Sign() <= 0 {
		return ErrZeroAmount
	}

	m.FlashLoanLock = true
	if err := e.state.PutMarket(m); err != nil {
		return err
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return err
	}
	if err := sink.TransferChecked(ctx, vaultHandle, borrowerHandle, amount, decimals); err != nil {
		m.FlashLoanLock = false
		_ = e.state.PutMarket(m)
		return ErrFlashLoanCallbackFailed
	}
	return nil
}

// FlashLoanEnd closes the two-phase flash-loan shape: pulls
// borrowedAmount+fee from the borrower, credits fee to total_supply_assets,
// and clears the lock. FLASH_LOAN_FEE_BPS = 5 (0.05%), per spec.md §4.6.
func (e *Engine) FlashLoanEnd(ctx context.Context, marketID [32]byte, borrower [32]byte, borrowerHandle, vaultHandle vault.Handle, borrowedAmount *big.Int, decimals uint8) (fee *big.Int, err error) {
	m, err := e.state.GetMarket(marketID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, ErrMarketNotFound
	}
	if !m.FlashLoanLock {
		return nil, ErrFlashLoanInProgress
	}

	fee, err = fixedpoint.MulDivUp(borrowedAmount, FlashLoanFeeBps, BPS)
	if err != nil {
		return nil, err
	}
	repayment := new(big.Int).Add(borrowedAmount, fee)

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return nil, err
	}
	if err := sink.TransferChecked(ctx, borrowerHandle, vaultHandle, repayment, decimals); err != nil {
		return nil, ErrFlashLoanNotRepaid
	}

	m.TotalSupplyAssets = new(big.Int).Add(m.TotalSupplyAssets, fee)
	m.FlashLoanLock = false
	if err := e.state.PutMarket(m); err != nil {
		return nil, err
	}

	e.emit(events.FlashLoan{MarketID: marketID, Borrower: borrower, Amount: borrowedAmount.String(), Fee: fee.String()})
	return fee, nil
}

// FlashLoan implements the single-phase shape of spec.md §4.6: observes the
// vault balance, transfers amount out, invokes the borrower's callback
// (expected to repay amount+fee into vaultHandle before returning), then
// verifies the balance has grown back by at least amount+fee. Requires the
// configured vault.Sink to also implement vault.BalanceReader; per the Open
// Question resolved in DESIGN.md, hosts without that primitive must use the
// two-phase shape (FlashLoanStart/FlashLoanEnd) instead.
func (e *Engine) FlashLoan(ctx context.Context, marketID [32]byte, borrower [32]byte, borrowerHandle, vaultHandle vault.Handle, amount *big.Int, decimals uint8, callback func(ctx context.Context) error) (fee *big.Int, err error) {
	protocol, m, err := e.loadMarket(marketID)
	if err != nil {
		return nil, err
	}
	if err := e.checkPause(protocol, m); err != nil {
		return nil, err
	}
	if m.FlashLoanLock {
		return nil, ErrFlashLoanInProgress
	}
	if amount == nil || amount.Sign() <= 0 {
		return nil, ErrZeroAmount
	}

	sink, err := e.vaultFor(marketID)
	if err != nil {
		return nil, err
	}
	reader, ok := sink.(vault.BalanceReader)
	if !ok {
		return nil, ErrFlashLoanUnsupported
	}

	fee, err = fixedpoint.MulDivUp(amount, FlashLoanFeeBps, BPS)
	if err != nil {
		return nil, err
	}

	before, err := reader.BalanceOf(ctx, vaultHandle)
	if err != nil {
		return nil, err
	}

	m.FlashLoanLock = true
	if err := e.state.PutMarket(m); err != nil {
		return nil, err
	}

	if err := sink.TransferChecked(ctx, vaultHandle, borrowerHandle, amount, decimals); err != nil {
		m.FlashLoanLock = false
		_ = e.state.PutMarket(m)
		return nil, ErrFlashLoanCallbackFailed
	}

	if callback != nil {
		if err := callback(ctx); err != nil {
			m.FlashLoanLock = false
			_ = e.state.PutMarket(m)
			return nil, ErrFlashLoanCallbackFailed
		}
	}

	after, err := reader.BalanceOf(ctx, vaultHandle)
	if err != nil {
		m.FlashLoanLock = false
		_ = e.state.PutMarket(m)
		return nil, err
	}

	// before was read ahead of the outbound transfer, so a repayment of
	// amount+fee leaves the vault exactly fee above that reading.
	grown := new(big.Int).Sub(after, before)
	if grown.Cmp(fee) < 0 {
		m.FlashLoanLock = false
		_ = e.state.PutMarket(m)
		return nil, ErrFlashLoanNotRepaid
	}

	m.TotalSupplyAssets = new(big.Int).Add(m.TotalSupplyAssets, fee)
	m.FlashLoanLock = false
	if err := e.state.PutMarket(m); err != nil {
		return nil, err
	}

	e.emit(events.FlashLoan{MarketID: marketID, Borrower: borrower, Amount: amount.String(), Fee: fee.String()})
	return fee, nil
}
