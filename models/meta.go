// Package models holds the market domain types: instrument metadata,
// rounded prices, the live price and orderbook tables and the JSON shapes of
// the exchange metadata snapshots.
package models

// MarketKind distinguishes the market an instrument trades on. The zero
// value KindNone marks a price with no market attached.
type MarketKind int

const (
	KindNone MarketKind = iota
	KindSpot
	KindPerp
)

func (k MarketKind) String() string {
	switch k {
	case KindSpot:
		return "spot"
	case KindPerp:
		return "perp"
	default:
		return "none"
	}
}

// AssetMeta describes one token of a spot pair.
type AssetMeta struct {
	Name        string
	SzDecimals  int
	WeiDecimals int
	Index       int
}

// Meta is the immutable metadata of one instrument. For spot instruments it
// carries both pair tokens; for perps it carries the contract attributes.
// Values are shared freely between price copies and never mutated.
type Meta struct {
	kind MarketKind
	name string

	// spot only
	quote AssetMeta
	base  AssetMeta

	// perp only
	szDecimals   int
	maxLeverage  int
	onlyIsolated bool
	isDelisted   bool
}

// NewSpotMeta builds the metadata of a spot pair from its quote and base
// token descriptors.
func NewSpotMeta(name string, quote, base AssetMeta) *Meta {
	return &Meta{
		kind:  KindSpot,
		name:  name,
		quote: quote,
		base:  base,
	}
}

// NewPerpMeta builds the metadata of a perpetual contract.
func NewPerpMeta(name string, szDecimals, maxLeverage int, onlyIsolated, isDelisted bool) *Meta {
	return &Meta{
		kind:         KindPerp,
		name:         name,
		szDecimals:   szDecimals,
		maxLeverage:  maxLeverage,
		onlyIsolated: onlyIsolated,
		isDelisted:   isDelisted,
	}
}

func (m *Meta) Kind() MarketKind { return m.kind }

func (m *Meta) Name() string { return m.name }

// Quote returns the quote token of a spot pair. Zero-valued for perps.
func (m *Meta) Quote() AssetMeta { return m.quote }

// Base returns the base token of a spot pair. Zero-valued for perps.
func (m *Meta) Base() AssetMeta { return m.base }

// SzDecimals returns the size precision used when rounding prices. Spot
// instruments take it from their quote token.
func (m *Meta) SzDecimals() int {
	if m.kind == KindSpot {
		return m.quote.SzDecimals
	}
	return m.szDecimals
}

func (m *Meta) MaxLeverage() int { return m.maxLeverage }

func (m *Meta) OnlyIsolated() bool { return m.onlyIsolated }

func (m *Meta) IsDelisted() bool { return m.isDelisted }
