package engine

import (
	"context"
	"math/big"

	"github.com/raunit-dev/morpho-on-solana/market"
	"github.com/raunit-dev/morpho-on-solana/oracle"
	"github.com/raunit-dev/morpho-on-solana/vault"
)

type mockState struct {
	protocol  *market.ProtocolState
	markets   map[[32]byte]*market.Market
	positions map[positionKey]*market.Position
	auths     map[authKey]*market.Authorization
}

type positionKey struct {
	marketID [32]byte
	owner    [32]byte
}

type authKey struct {
	authorizer [32]byte
	authorized [32]byte
}

func newMockState() *mockState {
	return &mockState{
		markets:   make(map[[32]byte]*market.Market),
		positions: make(map[positionKey]*market.Position),
		auths:     make(map[authKey]*market.Authorization),
	}
}

func (m *mockState) GetProtocolState() (*market.ProtocolState, error) {
	if m.protocol == nil {
		m.protocol = &market.ProtocolState{}
	}
	return m.protocol, nil
}

func (m *mockState) PutProtocolState(p *market.ProtocolState) error {
	m.protocol = p
	return nil
}

func (m *mockState) GetMarket(marketID [32]byte) (*market.Market, error) {
	return m.markets[marketID], nil
}

func (m *mockState) PutMarket(mkt *market.Market) error {
	m.markets[mkt.MarketID] = mkt
	return nil
}

func (m *mockState) GetPosition(marketID, owner [32]byte) (*market.Position, error) {
	return m.positions[positionKey{marketID, owner}], nil
}

func (m *mockState) PutPosition(pos *market.Position) error {
	m.positions[positionKey{pos.MarketID, pos.Owner}] = pos
	return nil
}

func (m *mockState) GetAuthorization(authorizer, authorized [32]byte) (*market.Authorization, error) {
	return m.auths[authKey{authorizer, authorized}], nil
}

func (m *mockState) PutAuthorization(a *market.Authorization) error {
	m.auths[authKey{a.Authorizer, a.Authorized}] = a
	return nil
}

// mockOracle returns a fixed price for every Ref.
type mockOracle struct {
	price *big.Int
}

func (o *mockOracle) Price(ctx context.Context, ref oracle.Ref) (*big.Int, error) {
	return o.price, nil
}

// mockIRM returns a fixed per-second rate regardless of utilisation.
type mockIRM struct {
	rate *big.Int
}

func (m *mockIRM) BorrowRatePerSecond(ctx context.Context, totalSupplyAssets, totalBorrowAssets *big.Int) (*big.Int, error) {
	return m.rate, nil
}

// mockVault holds per-handle balances in memory and moves value on
// TransferChecked; it also implements vault.BalanceReader for single-phase
// flash-loan tests.
type mockVault struct {
	balances map[vault.Handle]*big.Int
}

func newMockVault() *mockVault {
	return &mockVault{balances: make(map[vault.Handle]*big.Int)}
}

func (v *mockVault) credit(h vault.Handle, amount *big.Int) {
	bal := v.balances[h]
	if bal == nil {
		bal = big.NewInt(0)
	}
	v.balances[h] = new(big.Int).Add(bal, amount)
}

func (v *mockVault) TransferChecked(ctx context.Context, from, to vault.Handle, amount *big.Int, decimals uint8) error {
	bal := v.balances[from]
	if bal == nil {
		bal = big.NewInt(0)
	}
	if bal.Cmp(amount) < 0 {
		return vault.ErrTransferFailed
	}
	v.balances[from] = new(big.Int).Sub(bal, amount)
	v.credit(to, amount)
	return nil
}

func (v *mockVault) BalanceOf(ctx context.Context, h vault.Handle) (*big.Int, error) {
	bal := v.balances[h]
	if bal == nil {
		return big.NewInt(0), nil
	}
	return bal, nil
}

var (
	handleAlice           = vault.Handle{0xA1}
	handleBob             = vault.Handle{0xB0}
	handleVault           = vault.Handle{0xEE}
	handleCollateralVault = vault.Handle{0xCC}
	handleLiquidator      = vault.Handle{0x11}
	handleTreasury        = vault.Handle{0x77}
)

func marketIDFor(b byte) [32]byte {
	var id [32]byte
	id[0] = b
	return id
}

func ownerFor(b byte) [32]byte {
	var id [32]byte
	id[0] = b
	return id
}
