package models

// NameToPriceMap is the live price table of one pipeline, keyed by the
// exchange symbol ("BTC" for perps, "@37" style keys for spot pairs). The
// owning pipeline mutates entries in place between publishes; consumers only
// ever see cloned snapshots.
type NameToPriceMap map[string]*Price

// Snapshot returns a value copy of the table. Price values share their
// immutable metadata, so the copy is cheap and safe to hand out.
func (m NameToPriceMap) Snapshot() NameToPriceMap {
	out := make(NameToPriceMap, len(m))
	for name, p := range m {
		cp := *p
		out[name] = &cp
	}
	return out
}

// Value returns the numeric price for a symbol, 0.0 when unknown.
func (m NameToPriceMap) Value(name string) float64 {
	if p, ok := m[name]; ok {
		return p.Value()
	}
	return 0.0
}

// NameToOrderbookMap maps coin symbols to their mirrored books. Book
// pipelines publish single-entry maps so all distribution channels share the
// same shape.
type NameToOrderbookMap map[string]*Orderbook

// Snapshot returns a deep copy of the map.
func (m NameToOrderbookMap) Snapshot() NameToOrderbookMap {
	out := make(NameToOrderbookMap, len(m))
	for coin, ob := range m {
		out[coin] = ob.Clone()
	}
	return out
}

// CoinToOiValueMap maps perpetual coins to their open interest.
type CoinToOiValueMap map[string]float64
