// Package market defines the durable entities of the lending engine:
// ProtocolState, Market, Position and Authorization, plus deterministic
// market identity. Grounded on native/lending/types.go (Market,
// UserAccount, RiskParameters field shape) and crypto/keys.go's use of
// github.com/ethereum/go-ethereum/crypto for hashing.
package market

import (
	"encoding/binary"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/raunit-dev/morpho-on-solana/vault"
)

// MaxEnabledLLTVs and MaxEnabledIRMs bound the admin whitelists, per
// spec.md §3's ProtocolState row.
const (
	MaxEnabledLLTVs = 20
	MaxEnabledIRMs  = 10
)

// MaxFeeBps is the fee ceiling a market may be configured with.
const MaxFeeBps = 2500

// ErrTooManyLLTVs and ErrTooManyIRMs are returned when an admin op would
// exceed the whitelist bounds.
var (
	ErrTooManyLLTVs = errors.New("market: max_lltvs_reached")
	ErrTooManyIRMs  = errors.New("market: max_irms_reached")
)

// CollateralRouting splits seized collateral on liquidation between a
// protocol treasury and the liquidator, grounded on native/lending/types.go's
// CollateralRouting (there split liquidator/developer/protocol). A
// zero-value CollateralRouting (TreasuryBps == 0) routes 100% of seized
// collateral to the liquidator, matching spec.md §4.4's Liquidate contract
// byte-for-byte.
type CollateralRouting struct {
	TreasuryBps    uint64
	TreasuryHandle vault.Handle
}

// ProtocolState is the singleton registry shared by every market.
type ProtocolState struct {
	Owner             [32]byte
	PendingOwner      [32]byte
	FeeRecipient      [32]byte
	Paused            bool
	EnabledLLTVs      []uint64
	EnabledIRMs       [][32]byte
	MarketCount       uint64
	DefaultFeeBps     uint64
	CollateralRouting CollateralRouting
}

// EnableLLTV appends lltv to the whitelist if it is not already present
// and the whitelist has room.
func (p *ProtocolState) EnableLLTV(lltv uint64) error {
	for _, existing := range p.EnabledLLTVs {
		if existing == lltv {
			return nil
		}
	}
	if len(p.EnabledLLTVs) >= MaxEnabledLLTVs {
		return ErrTooManyLLTVs
	}
	p.EnabledLLTVs = append(p.EnabledLLTVs, lltv)
	return nil
}

// IsLLTVEnabled reports whether lltv is in the whitelist.
func (p *ProtocolState) IsLLTVEnabled(lltv uint64) bool {
	for _, existing := range p.EnabledLLTVs {
		if existing == lltv {
			return true
		}
	}
	return false
}

// EnableIRM appends irmRef to the whitelist if it is not already present
// and the whitelist has room.
func (p *ProtocolState) EnableIRM(irmRef [32]byte) error {
	for _, existing := range p.EnabledIRMs {
		if existing == irmRef {
			return nil
		}
	}
	if len(p.EnabledIRMs) >= MaxEnabledIRMs {
		return ErrTooManyIRMs
	}
	p.EnabledIRMs = append(p.EnabledIRMs, irmRef)
	return nil
}

// IsIRMEnabled reports whether irmRef is in the whitelist.
func (p *ProtocolState) IsIRMEnabled(irmRef [32]byte) bool {
	for _, existing := range p.EnabledIRMs {
		if existing == irmRef {
			return true
		}
	}
	return false
}

// Market is an isolated lending pool keyed by its deterministic MarketID.
// Asset and share totals are u128 magnitudes, per spec.md §3's byte layout.
type Market struct {
	MarketID          [32]byte
	CollateralMint    [32]byte
	LoanMint          [32]byte
	OracleRef         [32]byte
	IRMRef            [32]byte
	LLTV              uint64 // bps
	Paused            bool
	FeeBps            uint64
	TotalSupplyAssets *big.Int
	TotalSupplyShares *big.Int
	TotalBorrowAssets *big.Int
	TotalBorrowShares *big.Int
	LastUpdate        uint64 // seconds
	PendingFeeShares  *big.Int
	FlashLoanLock     bool
	// BorrowCap bounds total_borrow_assets after a Borrow; nil means
	// uncapped, per native/lending/params.go's BorrowCaps.Total.
	BorrowCap *big.Int
}

// NewMarket zero-initializes the u128 fields so callers never dereference a
// nil *big.Int.
func NewMarket() *Market {
	return &Market{
		TotalSupplyAssets: big.NewInt(0),
		TotalSupplyShares: big.NewInt(0),
		TotalBorrowAssets: big.NewInt(0),
		TotalBorrowShares: big.NewInt(0),
		PendingFeeShares:  big.NewInt(0),
	}
}

// Position is a single owner's stake inside one Market. SupplyShares,
// BorrowShares and Collateral are u128 magnitudes.
type Position struct {
	MarketID     [32]byte
	Owner        [32]byte
	SupplyShares *big.Int
	BorrowShares *big.Int
	Collateral   *big.Int
}

// NewPosition zero-initializes the u128 fields so callers never dereference
// a nil *big.Int.
func NewPosition(marketID, owner [32]byte) *Position {
	return &Position{
		MarketID:     marketID,
		Owner:        owner,
		SupplyShares: big.NewInt(0),
		BorrowShares: big.NewInt(0),
		Collateral:   big.NewInt(0),
	}
}

// IsEmpty reports whether a position holds no shares and no collateral,
// the only state in which it may be closed, per spec.md §3.
func (p *Position) IsEmpty() bool {
	return sign(p.SupplyShares) == 0 && sign(p.BorrowShares) == 0 && sign(p.Collateral) == 0
}

// sign treats a nil *big.Int as zero.
func sign(v *big.Int) int {
	if v == nil {
		return 0
	}
	return v.Sign()
}

// Authorization is a delegation grant from authorizer to authorized.
type Authorization struct {
	Authorizer   [32]byte
	Authorized   [32]byte
	IsAuthorized bool
	IsRevoked    bool
	ExpiresAt    uint64 // 0 = no expiry
}

// Active reports whether the authorization currently permits delegated
// action, given the current clock reading `now`.
func (a *Authorization) Active(now uint64) bool {
	if a.IsRevoked || !a.IsAuthorized {
		return false
	}
	if a.ExpiresAt != 0 && now >= a.ExpiresAt {
		return false
	}
	return true
}

// DeriveMarketID computes the deterministic identity
// keccak256(collateral_mint ‖ loan_mint ‖ oracle_ref ‖ irm_ref ‖ lltv_le64),
// per spec.md §3.
func DeriveMarketID(collateralMint, loanMint, oracleRef, irmRef [32]byte, lltv uint64) [32]byte {
	buf := make([]byte, 0, 32*4+8)
	buf = append(buf, collateralMint[:]...)
	buf = append(buf, loanMint[:]...)
	buf = append(buf, oracleRef[:]...)
	buf = append(buf, irmRef[:]...)
	lltvBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(lltvBytes, lltv)
	buf = append(buf, lltvBytes...)

	var id [32]byte
	copy(id[:], crypto.Keccak256(buf))
	return id
}
