package vault

import (
	"math/big"
	"testing"
)

func TestNarrowToUint64(t *testing.T) {
	got, err := NarrowToUint64(big.NewInt(42))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("got %d want 42", got)
	}
}

func TestNarrowToUint64Overflow(t *testing.T) {
	tooBig := new(big.Int).Lsh(big.NewInt(1), 64)
	if _, err := NarrowToUint64(tooBig); err != ErrAmountOverflow {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
}

func TestNarrowToUint64Negative(t *testing.T) {
	if _, err := NarrowToUint64(big.NewInt(-1)); err != ErrAmountOverflow {
		t.Fatalf("expected ErrAmountOverflow, got %v", err)
	}
}
