package models

import (
	"strings"
	"testing"
)

func spotMeta(quoteSz int) *Meta {
	return NewSpotMeta("PURR/USDC",
		AssetMeta{Name: "PURR", SzDecimals: quoteSz, WeiDecimals: 5, Index: 1},
		AssetMeta{Name: "USDC", SzDecimals: 8, WeiDecimals: 8, Index: 0},
	)
}

func perpMeta(sz int) *Meta {
	return NewPerpMeta("BTC", sz, 50, false, false)
}

func TestRoundSignificantDigits(t *testing.T) {
	cases := []struct {
		raw         float64
		maxDecimals int
		szDecimals  int
		want        float64
	}{
		{0.0, 6, 0, 0.0},
		{1.23456789, 6, 0, 1.2346},
		{0.000123456, 8, 0, 0.00012346},
		{1.23456789, 6, 4, 1.23},
		{103020.32323, 6, 5, 103020},
		{19.32, 6, 0, 19.32},
		{-1.23456789, 6, 0, -1.2346},
	}

	for _, tc := range cases {
		got := Round(tc.raw, tc.maxDecimals, tc.szDecimals)
		if got != tc.want {
			t.Errorf("Round(%v, %d, %d) = %v, want %v", tc.raw, tc.maxDecimals, tc.szDecimals, got, tc.want)
		}
	}
}

func TestRoundIdempotent(t *testing.T) {
	for _, raw := range []float64{1.23456789, 103020.32323, 0.000123456, 42.0} {
		once := Round(raw, PerpMaxDecimals, 2)
		twice := Round(once, PerpMaxDecimals, 2)
		if once != twice {
			t.Errorf("Round not idempotent for %v: %v then %v", raw, once, twice)
		}
	}
}

func TestRoundDecimalCap(t *testing.T) {
	// With szDecimals equal to maxDecimals the price is always integral.
	got := Round(1.9, PerpMaxDecimals, PerpMaxDecimals)
	if got != 2 {
		t.Errorf("Round(1.9) with no decimal places allowed = %v, want 2", got)
	}
}

func TestNewSpotRejectsPerpMeta(t *testing.T) {
	if _, err := NewSpot(1.0, perpMeta(2)); err == nil {
		t.Fatal("expected error building spot price from perp metadata")
	}
	if _, err := NewPerp(1.0, spotMeta(0)); err == nil {
		t.Fatal("expected error building perp price from spot metadata")
	}
}

func TestNewPerpRounds(t *testing.T) {
	p, err := NewPerp(103020.32323, perpMeta(5))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}
	if p.Value() != 103020 {
		t.Errorf("Value() = %v, want 103020", p.Value())
	}
	if p.Kind() != KindPerp {
		t.Errorf("Kind() = %v, want perp", p.Kind())
	}
}

func TestZeroPriceUnrounded(t *testing.T) {
	p, err := NewSpot(0.0, spotMeta(2))
	if err != nil {
		t.Fatalf("NewSpot failed: %v", err)
	}
	if p.Value() != 0.0 {
		t.Errorf("zero price changed by rounding: %v", p.Value())
	}
}

func TestValueAfterSlippage(t *testing.T) {
	p, err := NewPerp(100.0, perpMeta(2))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}

	if got := p.ValueAfterSlippage(0.01, true); got != 101 {
		t.Errorf("buy slippage = %v, want 101", got)
	}
	if got := p.ValueAfterSlippage(0.01, false); got != 99 {
		t.Errorf("sell slippage = %v, want 99", got)
	}
}

func TestUpdateKeepsMeta(t *testing.T) {
	p, err := NewPerp(100.0, perpMeta(2))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}

	p.Update(1.23456789)
	if p.Value() != 1.2346 {
		t.Errorf("updated value = %v, want 1.2346", p.Value())
	}
	if p.Meta() == nil || p.Meta().Name() != "BTC" {
		t.Error("metadata lost across Update")
	}
}

func TestNonePriceUpdateStaysZero(t *testing.T) {
	p := NonePrice()
	p.Update(42.0)
	if p.Value() != 0.0 {
		t.Errorf("none price accepted update: %v", p.Value())
	}
}

func TestTrueSize(t *testing.T) {
	p, err := NewPerp(100.0, perpMeta(3))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}
	if got := p.TrueSize(1.23456); got != 1.235 {
		t.Errorf("TrueSize = %v, want 1.235", got)
	}
	if got := p.TrueSize(0.0); got != 0.0 {
		t.Errorf("TrueSize(0) = %v, want 0", got)
	}
}

func TestTrueSizeNonePriceIsZero(t *testing.T) {
	p := NonePrice()
	if got := p.TrueSize(3.7); got != 0.0 {
		t.Errorf("none price TrueSize = %v, want 0", got)
	}
}

func TestAssetDenomSize(t *testing.T) {
	p, err := NewPerp(2.0, perpMeta(1))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}

	size, err := p.AssetDenomSize(100.0)
	if err != nil {
		t.Fatalf("AssetDenomSize failed: %v", err)
	}
	if size != 50.0 {
		t.Errorf("AssetDenomSize = %v, want 50", size)
	}
}

func TestAssetDenomSizeZeroPrice(t *testing.T) {
	p, err := NewPerp(0.0, perpMeta(1))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}
	if _, err := p.AssetDenomSize(100.0); err == nil {
		t.Fatal("expected error sizing against a zero price")
	}
}

func TestTruePriceRoundsWithInstrumentRule(t *testing.T) {
	spot, err := NewSpot(10.0, spotMeta(0))
	if err != nil {
		t.Fatalf("NewSpot failed: %v", err)
	}
	if got := spot.TruePrice(0.23456789); got != 0.23457 {
		t.Errorf("spot TruePrice = %v, want 0.23457", got)
	}
	// The stored value is untouched.
	if spot.Value() != 10.0 {
		t.Errorf("stored value changed: %v", spot.Value())
	}

	perp, err := NewPerp(100.0, perpMeta(5))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}
	if got := perp.TruePrice(103020.32323); got != 103020 {
		t.Errorf("perp TruePrice = %v, want 103020", got)
	}

	if got := NonePrice().TruePrice(42.0); got != 0.0 {
		t.Errorf("none TruePrice = %v, want 0", got)
	}
}

func TestSpotSzDecimalsFromQuoteToken(t *testing.T) {
	m := spotMeta(4)
	if m.SzDecimals() != 4 {
		t.Errorf("SzDecimals = %d, want quote token's 4", m.SzDecimals())
	}
}

func TestPriceString(t *testing.T) {
	p, err := NewPerp(100.5, perpMeta(2))
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}
	if s := p.String(); !strings.Contains(s, "BTC") || !strings.Contains(s, "perp") {
		t.Errorf("String() = %q, want coin and market", s)
	}
}
