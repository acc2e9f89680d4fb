package models

import (
	"fmt"
	"math"
	"strconv"
)

const (
	// SpotMaxDecimals caps the decimal places of a rounded spot price.
	SpotMaxDecimals = 8
	// PerpMaxDecimals caps the decimal places of a rounded perp price.
	PerpMaxDecimals = 6

	significantDigits = 5
)

// Price pairs one exchange-rounded price value with its instrument metadata.
// The value always satisfies the exchange tick rules: at most five
// significant digits and at most maxDecimals-szDecimals decimal places for
// the instrument's market. The zero raw price is kept verbatim as the
// "no price yet" marker.
type Price struct {
	kind  MarketKind
	price float64
	meta  *Meta
}

// NonePrice returns the detached zero price.
func NonePrice() Price {
	return Price{kind: KindNone}
}

// NewSpot builds a rounded spot price. The metadata must describe a spot
// instrument.
func NewSpot(raw float64, meta *Meta) (Price, error) {
	if meta == nil || meta.Kind() != KindSpot {
		return Price{}, fmt.Errorf("spot price requires spot metadata")
	}
	return Price{
		kind:  KindSpot,
		price: Round(raw, SpotMaxDecimals, meta.SzDecimals()),
		meta:  meta,
	}, nil
}

// NewPerp builds a rounded perp price. The metadata must describe a
// perpetual contract.
func NewPerp(raw float64, meta *Meta) (Price, error) {
	if meta == nil || meta.Kind() != KindPerp {
		return Price{}, fmt.Errorf("perp price requires perp metadata")
	}
	return Price{
		kind:  KindPerp,
		price: Round(raw, PerpMaxDecimals, meta.SzDecimals()),
		meta:  meta,
	}, nil
}

// FromMeta builds the price for whatever market the metadata describes.
func FromMeta(raw float64, meta *Meta) (Price, error) {
	if meta == nil {
		return NonePrice(), nil
	}
	switch meta.Kind() {
	case KindSpot:
		return NewSpot(raw, meta)
	case KindPerp:
		return NewPerp(raw, meta)
	default:
		return NonePrice(), nil
	}
}

// Round applies the exchange price rules: keep at most significantDigits
// significant digits, but never more than maxDecimals-szDecimals decimal
// places. Zero passes through unrounded.
func Round(raw float64, maxDecimals, szDecimals int) float64 {
	if raw == 0.0 {
		return 0.0
	}

	magnitude := int(math.Floor(math.Log10(math.Abs(raw))))
	needed := significantDigits - magnitude - 1
	if needed < 0 {
		needed = 0
	}

	maxPlaces := maxDecimals - szDecimals
	if needed > maxPlaces {
		needed = maxPlaces
	}
	if needed < 0 {
		needed = 0
	}

	rounded, err := strconv.ParseFloat(strconv.FormatFloat(raw, 'f', needed, 64), 64)
	if err != nil {
		return raw
	}
	return rounded
}

// Kind returns the market of the price.
func (p Price) Kind() MarketKind { return p.kind }

// Meta returns the instrument metadata, nil for the none price.
func (p Price) Meta() *Meta { return p.meta }

// Value returns the rounded price.
func (p Price) Value() float64 { return p.price }

// TruePrice rounds a caller-supplied raw price with this instrument's own
// rule, without touching the stored value. Detached prices have no rule and
// yield 0.0.
func (p Price) TruePrice(raw float64) float64 {
	switch p.kind {
	case KindSpot:
		return Round(raw, SpotMaxDecimals, p.meta.SzDecimals())
	case KindPerp:
		return Round(raw, PerpMaxDecimals, p.meta.SzDecimals())
	default:
		return 0.0
	}
}

// ValueAfterSlippage returns the price moved by the given slippage fraction
// in the taker's unfavorable direction, re-rounded to the exchange rules.
func (p Price) ValueAfterSlippage(slippage float64, isBuy bool) float64 {
	raw := p.price
	if isBuy {
		raw *= 1 + slippage
	} else {
		raw *= 1 - slippage
	}
	maxDecimals := PerpMaxDecimals
	if p.kind == KindSpot {
		maxDecimals = SpotMaxDecimals
	}
	szDecimals := 0
	if p.meta != nil {
		szDecimals = p.meta.SzDecimals()
	}
	return Round(raw, maxDecimals, szDecimals)
}

// TrueSize rounds a quantity to the instrument's size precision. Detached
// prices have no precision and yield 0.0.
func (p Price) TrueSize(size float64) float64 {
	if p.kind == KindNone {
		return 0.0
	}
	rounded, err := strconv.ParseFloat(strconv.FormatFloat(size, 'f', p.meta.SzDecimals(), 64), 64)
	if err != nil {
		return size
	}
	return rounded
}

// AssetDenomSize converts a quote-denominated amount into an asset size at
// the current price. A zero price has no meaningful conversion and errors.
func (p Price) AssetDenomSize(quoteAmount float64) (float64, error) {
	return p.AssetDenomSizeAtPrice(quoteAmount, p.price)
}

// AssetDenomSizeAtPrice converts a quote-denominated amount into an asset
// size at an explicit price.
func (p Price) AssetDenomSizeAtPrice(quoteAmount, price float64) (float64, error) {
	if price == 0.0 {
		return 0, fmt.Errorf("cannot size against a zero price")
	}
	return p.TrueSize(quoteAmount / price), nil
}

// Update re-rounds the price in place from a new raw value, keeping the
// metadata. Detached prices stay zero.
func (p *Price) Update(raw float64) {
	switch p.kind {
	case KindSpot:
		p.price = Round(raw, SpotMaxDecimals, p.meta.SzDecimals())
	case KindPerp:
		p.price = Round(raw, PerpMaxDecimals, p.meta.SzDecimals())
	}
}

func (p Price) String() string {
	name := "none"
	if p.meta != nil {
		name = p.meta.Name()
	}
	return fmt.Sprintf("%s %s=%s", p.kind, name, strconv.FormatFloat(p.price, 'f', -1, 64))
}
