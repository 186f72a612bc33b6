// Package admin implements the protocol-administration operations of
// spec.md §4.7: ownership transfer, LLTV/IRM whitelist management, market
// creation, fee configuration, pause flags and fee claiming. Grounded on
// native/lending/config.go's Config/whitelist shape and
// native/lending/engine.go's ensureMarket-style validation.
package admin

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/engine"
	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// ErrNotOwner is returned when a caller attempts an owner-gated operation
// without being the current (or, for accept_ownership, pending) owner.
var ErrNotOwner = engine.ErrUnauthorized

// Admin wraps an engine.State to perform protocol-level mutations that sit
// outside the per-market operation pipeline.
type Admin struct {
	state   engine.State
	emitter events.Emitter
}

// New constructs an Admin over the same State port the engine uses.
func New(state engine.State, emitter events.Emitter) *Admin {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	return &Admin{state: state, emitter: emitter}
}

func (a *Admin) protocol() (*market.ProtocolState, error) {
	p, err := a.state.GetProtocolState()
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, engine.ErrNilState
	}
	return p, nil
}

// InitializeProtocol creates the singleton ProtocolState. Callers must only
// invoke this once per deployment.
func (a *Admin) InitializeProtocol(owner, feeRecipient [32]byte) error {
	p := &market.ProtocolState{Owner: owner, FeeRecipient: feeRecipient}
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.ProtocolInitialized{Owner: owner, FeeRecipient: feeRecipient})
	return nil
}

// TransferOwnership begins the two-step ownership transfer by recording a
// pending owner; the transfer only completes once AcceptOwnership is called
// by that pending owner.
func (a *Admin) TransferOwnership(caller, newOwner [32]byte) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	p.PendingOwner = newOwner
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.OwnershipTransferStarted{CurrentOwner: p.Owner, PendingOwner: newOwner})
	return nil
}

// AcceptOwnership completes a pending ownership transfer; caller must equal
// the recorded pending owner.
func (a *Admin) AcceptOwnership(caller [32]byte) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	var zero [32]byte
	if p.PendingOwner == zero || p.PendingOwner != caller {
		return ErrNotOwner
	}
	previous := p.Owner
	p.Owner = p.PendingOwner
	p.PendingOwner = zero
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.OwnershipTransferred{PreviousOwner: previous, NewOwner: p.Owner})
	return nil
}

// EnableLLTV adds lltv to the dense whitelist, bounded at MAX_LLTVS = 20 and
// restricted to (0, BPS].
func (a *Admin) EnableLLTV(caller [32]byte, lltv uint64) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	if lltv == 0 || lltv > 10_000 {
		return engine.ErrInvalidLLTV
	}
	if p.IsLLTVEnabled(lltv) {
		return engine.ErrAlreadyEnabled
	}
	if err := p.EnableLLTV(lltv); err != nil {
		return toEngineErr(err)
	}
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.LLTVEnabled{LLTV: lltv})
	return nil
}

// EnableIRM adds irmRef to the dense whitelist, bounded at MAX_IRMS = 10.
func (a *Admin) EnableIRM(caller [32]byte, irmRef [32]byte) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	if p.IsIRMEnabled(irmRef) {
		return engine.ErrAlreadyEnabled
	}
	if err := p.EnableIRM(irmRef); err != nil {
		return toEngineErr(err)
	}
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.IRMEnabled{IRMRef: irmRef})
	return nil
}

// CreateMarket validates lltv/irm whitelist membership and market-identity
// uniqueness, then creates a fresh Market.
func (a *Admin) CreateMarket(collateralMint, loanMint, oracleRef, irmRef [32]byte, lltv uint64) (*market.Market, error) {
	p, err := a.protocol()
	if err != nil {
		return nil, err
	}
	if !p.IsLLTVEnabled(lltv) {
		return nil, engine.ErrLLTVNotEnabled
	}
	if !p.IsIRMEnabled(irmRef) {
		return nil, engine.ErrIRMNotEnabled
	}

	marketID := market.DeriveMarketID(collateralMint, loanMint, oracleRef, irmRef, lltv)
	existing, err := a.state.GetMarket(marketID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, engine.ErrMarketExists
	}

	m := market.NewMarket()
	m.MarketID = marketID
	m.CollateralMint = collateralMint
	m.LoanMint = loanMint
	m.OracleRef = oracleRef
	m.IRMRef = irmRef
	m.LLTV = lltv
	m.FeeBps = p.DefaultFeeBps

	if err := a.state.PutMarket(m); err != nil {
		return nil, err
	}
	p.MarketCount++
	if err := a.state.PutProtocolState(p); err != nil {
		return nil, err
	}

	a.emitter.Emit(events.MarketCreated{
		MarketID:       marketID,
		CollateralMint: collateralMint,
		LoanMint:       loanMint,
		OracleRef:      oracleRef,
		IRMRef:         irmRef,
		LLTV:           lltv,
	})
	return m, nil
}

// SetFee updates a market's fee, bounded at MAX_FEE = 2500 bps.
func (a *Admin) SetFee(caller [32]byte, marketID [32]byte, feeBps uint64) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	if feeBps > engine.MaxFeeBps {
		return engine.ErrFeeTooHigh
	}
	m, err := a.state.GetMarket(marketID)
	if err != nil {
		return err
	}
	if m == nil {
		return engine.ErrMarketNotFound
	}
	m.FeeBps = feeBps
	if err := a.state.PutMarket(m); err != nil {
		return err
	}
	a.emitter.Emit(events.FeeSet{MarketID: marketID, FeeBps: feeBps})
	return nil
}

// SetDefaultFee updates the protocol-wide default fee that CreateMarket
// copies into every new market (SetFee changes a market's fee afterwards),
// bounded at MAX_FEE = 2500 bps,
// mirroring the reference engine's layered fee configuration
// (native/lending/config.go's ReserveFactorBps/ProtocolFeeBps defaults).
func (a *Admin) SetDefaultFee(caller [32]byte, feeBps uint64) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	if feeBps > engine.MaxFeeBps {
		return engine.ErrFeeTooHigh
	}
	p.DefaultFeeBps = feeBps
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.DefaultFeeSet{FeeBps: feeBps})
	return nil
}

// SetCollateralRouting configures the protocol-wide liquidation collateral
// split (native/lending/types.go's CollateralRouting). treasuryBps == 0
// disables routing: Liquidate then sends 100% of seized collateral to the
// liquidator, matching spec.md §4.4 exactly.
func (a *Admin) SetCollateralRouting(caller [32]byte, treasuryBps uint64, treasuryHandle vault.Handle) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	if treasuryBps > engine.BPS.Uint64() {
		return engine.ErrCollateralRoutingBps
	}
	p.CollateralRouting = market.CollateralRouting{TreasuryBps: treasuryBps, TreasuryHandle: treasuryHandle}
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.CollateralRoutingSet{TreasuryBps: treasuryBps, TreasuryHandle: [32]byte(treasuryHandle)})
	return nil
}

// SetBorrowCap configures a market's cap on total_borrow_assets, checked by
// Borrow after the available-liquidity check (native/lending/params.go's
// BorrowCaps.Total). A nil or zero cap means uncapped.
func (a *Admin) SetBorrowCap(caller [32]byte, marketID [32]byte, cap *big.Int) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	m, err := a.state.GetMarket(marketID)
	if err != nil {
		return err
	}
	if m == nil {
		return engine.ErrMarketNotFound
	}
	m.BorrowCap = cap
	if err := a.state.PutMarket(m); err != nil {
		return err
	}
	capStr := "0"
	if cap != nil {
		capStr = cap.String()
	}
	a.emitter.Emit(events.BorrowCapSet{MarketID: marketID, BorrowCap: capStr})
	return nil
}

// SetMarketPause independently toggles a single market's pause flag.
func (a *Admin) SetMarketPause(caller [32]byte, marketID [32]byte, paused bool) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	m, err := a.state.GetMarket(marketID)
	if err != nil {
		return err
	}
	if m == nil {
		return engine.ErrMarketNotFound
	}
	m.Paused = paused
	if err := a.state.PutMarket(m); err != nil {
		return err
	}
	a.emitter.Emit(events.MarketPauseSet{MarketID: marketID, Paused: paused})
	return nil
}

// SetProtocolPause toggles the protocol-wide pause flag, which
// short-circuits every market's own pause flag when set.
func (a *Admin) SetProtocolPause(caller [32]byte, paused bool) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	if p.Owner != caller {
		return ErrNotOwner
	}
	p.Paused = paused
	if err := a.state.PutProtocolState(p); err != nil {
		return err
	}
	a.emitter.Emit(events.ProtocolPauseSet{Paused: paused})
	return nil
}

// ClaimFees atomically moves a market's pending_fee_shares into the fee
// recipient's Position for that market and zeros pending_fee_shares.
func (a *Admin) ClaimFees(ctx context.Context, marketID [32]byte) error {
	p, err := a.protocol()
	if err != nil {
		return err
	}
	m, err := a.state.GetMarket(marketID)
	if err != nil {
		return err
	}
	if m == nil {
		return engine.ErrMarketNotFound
	}
	if m.PendingFeeShares.Sign() == 0 {
		return nil
	}

	pos, err := a.state.GetPosition(marketID, p.FeeRecipient)
	if err != nil {
		return err
	}
	if pos == nil {
		pos = market.NewPosition(marketID, p.FeeRecipient)
	}

	claimed := m.PendingFeeShares
	pos.SupplyShares = new(big.Int).Add(pos.SupplyShares, claimed)
	m.PendingFeeShares = big.NewInt(0)

	if err := a.state.PutPosition(pos); err != nil {
		return err
	}
	if err := a.state.PutMarket(m); err != nil {
		return err
	}
	a.emitter.Emit(events.FeesClaimed{MarketID: marketID, FeeRecipient: p.FeeRecipient, Shares: claimed.String()})
	return nil
}

func toEngineErr(err error) error {
	switch err {
	case market.ErrTooManyLLTVs:
		return engine.ErrMaxLLTVsReached
	case market.ErrTooManyIRMs:
		return engine.ErrMaxIRMsReached
	default:
		return err
	}
}
