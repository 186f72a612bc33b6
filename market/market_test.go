package market

import (
	"math/big"
	"testing"
)

func TestDeriveMarketIDDeterministic(t *testing.T) {
	var collateral, loan, oracle, irm [32]byte
	collateral[0] = 1
	loan[0] = 2
	oracle[0] = 3
	irm[0] = 4

	a := DeriveMarketID(collateral, loan, oracle, irm, 8000)
	b := DeriveMarketID(collateral, loan, oracle, irm, 8000)
	if a != b {
		t.Fatalf("DeriveMarketID is not deterministic: %x != %x", a, b)
	}
}

func TestDeriveMarketIDDistinguishesLLTV(t *testing.T) {
	var collateral, loan, oracle, irm [32]byte
	a := DeriveMarketID(collateral, loan, oracle, irm, 8000)
	b := DeriveMarketID(collateral, loan, oracle, irm, 9000)
	if a == b {
		t.Fatalf("expected different lltv to produce different market_id")
	}
}

func TestPositionIsEmpty(t *testing.T) {
	p := Position{}
	if !p.IsEmpty() {
		t.Fatalf("expected zero-value position to be empty")
	}
	p.Collateral = big.NewInt(1)
	if p.IsEmpty() {
		t.Fatalf("expected non-zero collateral to make position non-empty")
	}
}

func TestNewPositionIsEmpty(t *testing.T) {
	p := NewPosition([32]byte{}, [32]byte{})
	if !p.IsEmpty() {
		t.Fatalf("expected freshly-created position to be empty")
	}
}

func TestAuthorizationActive(t *testing.T) {
	a := Authorization{IsAuthorized: true, ExpiresAt: 100}
	if !a.Active(50) {
		t.Fatalf("expected authorization active before expiry")
	}
	if a.Active(100) {
		t.Fatalf("expected authorization inactive at expires_at")
	}
}

func TestAuthorizationRevokedCannotReactivate(t *testing.T) {
	a := Authorization{IsAuthorized: true, IsRevoked: true}
	if a.Active(0) {
		t.Fatalf("expected revoked authorization to be inactive")
	}
}

func TestAuthorizationNoExpiryNeverExpires(t *testing.T) {
	a := Authorization{IsAuthorized: true, ExpiresAt: 0}
	if !a.Active(1 << 40) {
		t.Fatalf("expected expires_at=0 to mean no expiry")
	}
}

func TestProtocolStateLLTVWhitelistBounds(t *testing.T) {
	p := &ProtocolState{}
	for i := uint64(0); i < MaxEnabledLLTVs; i++ {
		if err := p.EnableLLTV(i + 1); err != nil {
			t.Fatalf("unexpected error enabling lltv %d: %v", i, err)
		}
	}
	if err := p.EnableLLTV(9999); err != ErrTooManyLLTVs {
		t.Fatalf("expected ErrTooManyLLTVs, got %v", err)
	}
}

func TestProtocolStateLLTVWhitelistIdempotent(t *testing.T) {
	p := &ProtocolState{}
	if err := p.EnableLLTV(8000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := p.EnableLLTV(8000); err != nil {
		t.Fatalf("unexpected error re-enabling same lltv: %v", err)
	}
	if len(p.EnabledLLTVs) != 1 {
		t.Fatalf("expected whitelist to stay at length 1, got %d", len(p.EnabledLLTVs))
	}
}

func TestProtocolStateIRMWhitelistBounds(t *testing.T) {
	p := &ProtocolState{}
	for i := 0; i < MaxEnabledIRMs; i++ {
		var ref [32]byte
		ref[0] = byte(i + 1)
		if err := p.EnableIRM(ref); err != nil {
			t.Fatalf("unexpected error enabling irm %d: %v", i, err)
		}
	}
	var overflow [32]byte
	overflow[0] = 0xff
	if err := p.EnableIRM(overflow); err != ErrTooManyIRMs {
		t.Fatalf("expected ErrTooManyIRMs, got %v", err)
	}
}
