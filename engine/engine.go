// Package engine implements the isolated-market lending core: the operation
// state machine (Supply/Withdraw/Borrow/Repay/collateral adjustment),
// interest accrual, solvency and liquidation, flash loans, and delegated
// authorization. Grounded throughout on native/lending/engine.go's Engine
// type and its Checks-Effects-Interactions operation shape, generalized from
// the teacher's ray-indexed single-pool accounting to the spec's
// share-based, virtual-offset, multi-market design.
package engine

import (
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/clock"
	"github.com/raunit-dev/morpho-on-solana/events"
	"github.com/raunit-dev/morpho-on-solana/irm"
	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/oracle"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

// Protocol-wide constants, per spec.md §3/§4/§6.
var (
	BPS                = big.NewInt(10_000)
	MaxLIF             = big.NewInt(11_500)
	LIFCursor          = big.NewInt(3_000) // 30%, matching the reference Morpho Blue cursor
	FlashLoanFeeBps    = big.NewInt(5)      // 0.05%
	MaxFeeBps   uint64 = 2_500
	MaxLLTVs           = 20
	MaxIRMs            = 10
)

// Engine orchestrates every state transition over a host-supplied State
// port plus the external collaborators (oracle, IRM, transfer sink, clock,
// event emitter). None of the collaborators are implemented here; they are
// out of scope per spec.md §1.
type Engine struct {
	state   State
	oracles map[[32]byte]oracle.Source // keyed by OracleRef
	irms    map[[32]byte]irm.Model     // keyed by IRMRef
	vaults  map[[32]byte]vault.Sink    // keyed by MarketID
	clock   clock.Source
	emitter events.Emitter

	collateralCeiling *big.Int
}

// New constructs an Engine with no collaborators wired; callers must call
// the With* setters before use.
func New(state State) *Engine {
	return &Engine{
		state:             state,
		oracles:           make(map[[32]byte]oracle.Source),
		irms:              make(map[[32]byte]irm.Model),
		vaults:            make(map[[32]byte]vault.Sink),
		emitter:           events.NoopEmitter{},
		collateralCeiling: oracle.DefaultCollateralCeiling,
	}
}

// WithClock wires the monotone clock source.
func (e *Engine) WithClock(c clock.Source) *Engine {
	e.clock = c
	return e
}

// WithEmitter wires the event sink. Defaults to events.NoopEmitter.
func (e *Engine) WithEmitter(emitter events.Emitter) *Engine {
	if emitter != nil {
		e.emitter = emitter
	}
	return e
}

// WithCollateralCeiling overrides the collateral magnitude ceiling used to
// derive oracle.MaxPrice; defaults to oracle.DefaultCollateralCeiling.
func (e *Engine) WithCollateralCeiling(ceiling *big.Int) *Engine {
	if ceiling != nil && ceiling.Sign() > 0 {
		e.collateralCeiling = ceiling
	}
	return e
}

// RegisterOracle wires an oracle.Source for a given OracleRef.
func (e *Engine) RegisterOracle(ref [32]byte, source oracle.Source) {
	e.oracles[ref] = source
}

// RegisterIRM wires an irm.Model for a given IRMRef.
func (e *Engine) RegisterIRM(ref [32]byte, model irm.Model) {
	e.irms[ref] = model
}

// RegisterVault wires a vault.Sink for a given MarketID's loan and
// collateral transfers. Hosts that separate the two vaults can wrap both
// behind one Sink that dispatches on the Handle passed to TransferChecked.
func (e *Engine) RegisterVault(marketID [32]byte, sink vault.Sink) {
	e.vaults[marketID] = sink
}

func (e *Engine) emit(ev events.Event) {
	if e.emitter != nil {
		e.emitter.Emit(ev)
	}
}

func (e *Engine) now() uint64 {
	if e.clock == nil {
		return 0
	}
	return e.clock.Now()
}

func (e *Engine) oracleFor(ref [32]byte) (oracle.Source, error) {
	src, ok := e.oracles[ref]
	if !ok || src == nil {
		return nil, ErrInvalidOracle
	}
	return src, nil
}

func (e *Engine) irmFor(ref [32]byte) (irm.Model, error) {
	model, ok := e.irms[ref]
	if !ok || model == nil {
		return nil, ErrInvalidIRM
	}
	return model, nil
}

func (e *Engine) vaultFor(marketID [32]byte) (vault.Sink, error) {
	sink, ok := e.vaults[marketID]
	if !ok || sink == nil {
		return nil, ErrMarketNotFound
	}
	return sink, nil
}

// checkPause enforces spec.md §4.5's pause gates: protocol pause
// short-circuits market pause.
func (e *Engine) checkPause(m *market.ProtocolState, mkt *market.Market) error {
	if m != nil && m.Paused {
		return ErrProtocolPaused
	}
	if mkt != nil && mkt.Paused {
		return ErrMarketPaused
	}
	return nil
}
