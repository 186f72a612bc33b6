// Package vault defines the external value-transfer collaborator of
// spec.md §6: a sink/source per market (collateral vault, loan vault) that
// moves value on the engine's behalf. The engine never inspects a Handle
// beyond passing it to Sink.TransferChecked.
package vault

import (
	"context"
	"errors"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrTransferFailed wraps any failure reported by the underlying transfer
// mechanism; per spec.md §7 any transfer failure aborts the enclosing
// operation.
var ErrTransferFailed = errors.New("vault: transfer failed")

// ErrAmountOverflow is returned by NarrowToUint64 when a u128 magnitude does
// not fit in a u64 transfer amount, per spec.md §4.1.
var ErrAmountOverflow = errors.New("vault: amount overflow")

// Handle is an opaque reference to a durable holding (a user's token
// account, or a market's collateral/loan vault). The engine treats this as a
// host-managed address and never derives or inspects its bytes.
type Handle [32]byte

// Sink moves value between two Handles. `amountU128` is validated by the
// caller to be non-negative and representable in 128 bits; TransferChecked
// itself narrows it to the 64-bit unit the underlying transfer mechanism
// expects.
type Sink interface {
	TransferChecked(ctx context.Context, from, to Handle, amountU128 *big.Int, decimals uint8) error
}

// BalanceReader is an optional capability a Sink may additionally implement,
// allowing the engine's single-phase flash-loan shape (spec.md §4.6) to
// observe a vault's balance before and after the borrower's callback. Hosts
// without this primitive must use only the two-phase flash-loan shape, per
// spec.md §9.
type BalanceReader interface {
	BalanceOf(ctx context.Context, handle Handle) (*big.Int, error)
}

// NarrowToUint64 converts a 128-bit magnitude to the u64 unit that
// TransferChecked implementations ultimately move, failing loudly instead of
// silently truncating when the value does not fit. Grounded on
// core/state/accounts.go's uint256.FromBig(account.BalanceNHB) conversion at
// the account-to-wire boundary.
func NarrowToUint64(amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() < 0 {
		return 0, ErrAmountOverflow
	}
	word, overflow := uint256.FromBig(amount)
	if overflow {
		return 0, ErrAmountOverflow
	}
	if !word.IsUint64() {
		return 0, ErrAmountOverflow
	}
	return word.Uint64(), nil
}
