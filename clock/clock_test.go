package clock

import "testing"

func TestFixedClock(t *testing.T) {
	var c Source = Fixed(42)
	if c.Now() != 42 {
		t.Fatalf("got %d want 42", c.Now())
	}
}

func TestFuncClock(t *testing.T) {
	var c Source = Func(func() uint64 { return 7 })
	if c.Now() != 7 {
		t.Fatalf("got %d want 7", c.Now())
	}
}
