package engine

import (
	"context"
	"math/big"
	"testing"

	"github.com/raunit-dev/morpho-on-solana/clock"
	"github.com/raunit-dev/morpho-on-solana/fixedpoint"
	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/oracle"
)

func setupMarket(t *testing.T, lltv uint64, now uint64) (*Engine, *mockState, *mockVault, [32]byte) {
	t.Helper()
	state := newMockState()
	eng := New(state)

	var oracleRef, irmRef, collateralMint, loanMint [32]byte
	oracleRef[0] = 0x01
	irmRef[0] = 0x02
	collateralMint[0] = 0x03
	loanMint[0] = 0x04

	marketID := market.DeriveMarketID(collateralMint, loanMint, oracleRef, irmRef, lltv)
	m := market.NewMarket()
	m.MarketID = marketID
	m.CollateralMint = collateralMint
	m.LoanMint = loanMint
	m.OracleRef = oracleRef
	m.IRMRef = irmRef
	m.LLTV = lltv
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}
	if _, err := state.GetProtocolState(); err != nil {
		t.Fatalf("GetProtocolState: %v", err)
	}

	v := newMockVault()
	eng.WithClock(clock.Fixed(now))
	eng.RegisterVault(marketID, v)
	eng.RegisterOracle(oracleRef, &mockOracle{price: big.NewInt(0)})
	eng.RegisterIRM(irmRef, &mockIRM{rate: big.NewInt(0)})

	return eng, state, v, marketID
}

func TestFirstDeposit(t *testing.T) {
	eng, _, v, marketID := setupMarket(t, 8000, 1000)
	alice := ownerFor(0xA1)
	v.credit(handleAlice, big.NewInt(1000))

	minted, err := eng.Supply(context.Background(), marketID, alice, alice, handleAlice, handleVault, big.NewInt(1000), big.NewInt(0), 6)
	if err != nil {
		t.Fatalf("Supply: %v", err)
	}
	want := big.NewInt(1_000_000_000)
	if minted.Cmp(want) != 0 {
		t.Fatalf("got %s shares, want %s", minted, want)
	}
}

func TestOneYearAccrual(t *testing.T) {
	eng, state, _, marketID := setupMarket(t, 8000, 0)
	m, _ := state.GetMarket(marketID)
	m.TotalSupplyAssets = new(big.Int).SetUint64(1_000_000_000_000)
	m.TotalSupplyShares = new(big.Int).SetUint64(1_000_000_000_000_000_000_000)
	m.TotalBorrowAssets = new(big.Int).SetUint64(500_000_000_000)
	m.TotalBorrowShares = new(big.Int).SetUint64(500_000_000_000_000_000_000)
	m.FeeBps = 0
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}

	rate := new(big.Int).Quo(new(big.Int).Quo(fixedpoint.WAD, big.NewInt(10)), big.NewInt(31_536_000))
	eng.RegisterIRM(m.IRMRef, &mockIRM{rate: rate})
	eng.WithClock(clock.Fixed(31_536_000))

	interest, _, err := eng.accrueInterest(context.Background(), m)
	if err != nil {
		t.Fatalf("accrueInterest: %v", err)
	}
	if interest.Sign() <= 0 {
		t.Fatalf("expected positive interest, got %s", interest)
	}
	if m.LastUpdate != 31_536_000 {
		t.Fatalf("expected last_update updated, got %d", m.LastUpdate)
	}
	if m.TotalBorrowAssets.Cmp(new(big.Int).SetUint64(500_000_000_000)) <= 0 {
		t.Fatalf("expected total_borrow_assets to grow")
	}
}

func TestFeeAccrualMintsPendingFeeShares(t *testing.T) {
	eng, state, _, marketID := setupMarket(t, 8000, 0)
	m, _ := state.GetMarket(marketID)
	m.TotalSupplyAssets = new(big.Int).SetUint64(1_000_000_000_000)
	m.TotalSupplyShares = new(big.Int).SetUint64(1_000_000_000_000_000_000_000)
	m.TotalBorrowAssets = new(big.Int).SetUint64(500_000_000_000)
	m.TotalBorrowShares = new(big.Int).SetUint64(500_000_000_000_000_000_000)
	m.FeeBps = 1000
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}

	rate := new(big.Int).Quo(new(big.Int).Quo(fixedpoint.WAD, big.NewInt(10)), big.NewInt(31_536_000))
	eng.RegisterIRM(m.IRMRef, &mockIRM{rate: rate})
	eng.WithClock(clock.Fixed(31_536_000))

	_, feeShares, err := eng.accrueInterest(context.Background(), m)
	if err != nil {
		t.Fatalf("accrueInterest: %v", err)
	}
	if feeShares.Sign() <= 0 {
		t.Fatalf("expected positive fee shares, got %s", feeShares)
	}
	if m.PendingFeeShares.Cmp(feeShares) != 0 {
		t.Fatalf("expected pending_fee_shares == fee_shares, got %s vs %s", m.PendingFeeShares, feeShares)
	}
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}
}

func TestBorrowThenLiquidation(t *testing.T) {
	eng, state, v, marketID := setupMarket(t, 8500, 0)
	m, _ := state.GetMarket(marketID)
	m.TotalSupplyAssets = big.NewInt(1_000_000_000_000)
	m.TotalSupplyShares = big.NewInt(1_000_000_000_000_000_000_000)
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}

	eng.RegisterOracle(m.OracleRef, &mockOracle{price: new(big.Int).Mul(big.NewInt(2000), oracle.Scale)})

	borrower := ownerFor(0xB0)
	pos := market.NewPosition(marketID, borrower)
	pos.Collateral = new(big.Int).Mul(big.NewInt(10), big.NewInt(1_000_000_000))
	if err := state.PutPosition(pos); err != nil {
		t.Fatalf("PutPosition: %v", err)
	}
	v.credit(handleCollateralVault, pos.Collateral)

	maxBorrow := new(big.Int).Mul(pos.Collateral, new(big.Int).Mul(big.NewInt(2000), oracle.Scale))
	maxBorrow.Mul(maxBorrow, big.NewInt(8500))
	maxBorrow.Quo(maxBorrow, BPS)
	maxBorrow.Quo(maxBorrow, oracle.Scale)

	borrowAmount := new(big.Int).Mul(maxBorrow, big.NewInt(95))
	borrowAmount.Quo(borrowAmount, big.NewInt(100))

	v.credit(handleVault, borrowAmount)

	_, _, err := eng.Borrow(context.Background(), marketID, borrower, borrower, handleVault, handleBob, borrowAmount, big.NewInt(0), 6)
	if err != nil {
		t.Fatalf("Borrow: %v", err)
	}

	eng.RegisterOracle(m.OracleRef, &mockOracle{price: new(big.Int).Mul(big.NewInt(1600), oracle.Scale)})

	pos, _ = state.GetPosition(marketID, borrower)
	liquidatable, err := IsLiquidatable(pos.Collateral, pos.BorrowShares, m.TotalBorrowAssets, m.TotalBorrowShares, new(big.Int).Mul(big.NewInt(1600), oracle.Scale), m.LLTV)
	if err != nil {
		t.Fatalf("IsLiquidatable: %v", err)
	}
	if !liquidatable {
		t.Fatalf("expected position to be liquidatable after price drop")
	}

	repayHalf := new(big.Int).Quo(borrowAmount, big.NewInt(2))
	v.credit(handleLiquidator, repayHalf)

	liquidator := ownerFor(0x11)
	repaid, seized, err := eng.Liquidate(context.Background(), marketID, liquidator, borrower, handleLiquidator, handleVault, handleCollateralVault, handleLiquidator, repayHalf, 6, 9)
	if err != nil {
		t.Fatalf("Liquidate: %v", err)
	}
	if repaid.Sign() <= 0 || seized.Sign() <= 0 {
		t.Fatalf("expected positive repaid/seized, got %s / %s", repaid, seized)
	}
}

func TestFlashLoanRoundTrip(t *testing.T) {
	eng, state, v, marketID := setupMarket(t, 8000, 0)
	m, _ := state.GetMarket(marketID)
	m.TotalSupplyAssets = big.NewInt(10_000_000_000)
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}
	v.credit(handleVault, big.NewInt(10_000_000_000))

	amount := big.NewInt(1_000_000_000)
	if err := eng.FlashLoanStart(context.Background(), marketID, handleBob, handleVault, amount, 6); err != nil {
		t.Fatalf("FlashLoanStart: %v", err)
	}

	fee := big.NewInt(500_000)
	v.credit(handleBob, fee)

	gotFee, err := eng.FlashLoanEnd(context.Background(), marketID, ownerFor(0xB0), handleBob, handleVault, amount, 6)
	if err != nil {
		t.Fatalf("FlashLoanEnd: %v", err)
	}
	if gotFee.Cmp(fee) != 0 {
		t.Fatalf("got fee %s want %s", gotFee, fee)
	}

	m, _ = state.GetMarket(marketID)
	if m.FlashLoanLock {
		t.Fatalf("expected flash_loan_lock cleared")
	}
}

func TestFlashLoanInProgressRejectsReentry(t *testing.T) {
	eng, state, v, marketID := setupMarket(t, 8000, 0)
	m, _ := state.GetMarket(marketID)
	m.TotalSupplyAssets = big.NewInt(10_000_000_000)
	if err := state.PutMarket(m); err != nil {
		t.Fatalf("PutMarket: %v", err)
	}
	v.credit(handleVault, big.NewInt(10_000_000_000))

	amount := big.NewInt(1_000_000_000)
	if err := eng.FlashLoanStart(context.Background(), marketID, handleBob, handleVault, amount, 6); err != nil {
		t.Fatalf("FlashLoanStart: %v", err)
	}
	if err := eng.FlashLoanStart(context.Background(), marketID, handleBob, handleVault, amount, 6); err != ErrFlashLoanInProgress {
		t.Fatalf("expected ErrFlashLoanInProgress, got %v", err)
	}
}

func TestDelegatedWithdrawExpiryAndRevocation(t *testing.T) {
	eng, _, v, marketID := setupMarket(t, 8000, 0)
	owner := ownerFor(0x01)
	delegate := ownerFor(0x02)

	v.credit(handleAlice, big.NewInt(1000))
	if _, err := eng.Supply(context.Background(), marketID, owner, owner, handleAlice, handleVault, big.NewInt(1000), big.NewInt(0), 6); err != nil {
		t.Fatalf("Supply: %v", err)
	}

	if err := eng.SetAuthorization(owner, delegate, true, 3600); err != nil {
		t.Fatalf("SetAuthorization: %v", err)
	}

	eng.WithClock(clock.Fixed(7200))
	_, _, err := eng.Withdraw(context.Background(), marketID, delegate, owner, handleVault, handleBob, big.NewInt(100), nil, 6)
	if err != ErrAuthorizationExpired {
		t.Fatalf("expected ErrAuthorizationExpired, got %v", err)
	}

	if err := eng.RevokeAuthorization(owner, delegate); err != nil {
		t.Fatalf("RevokeAuthorization: %v", err)
	}
	if err := eng.SetAuthorization(owner, delegate, true, 0); err != ErrAuthorizationRevoked {
		t.Fatalf("expected ErrAuthorizationRevoked, got %v", err)
	}
}
