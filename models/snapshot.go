package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// FloatString is a float64 that the exchange encodes as a JSON string.
// Explicit null (or a missing field) deserializes to 0.0; a non-numeric
// string fails the payload.
type FloatString float64

func (f *FloatString) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = 0.0
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("expected string-encoded number: %w", err)
	}
	if s == "" {
		*f = 0.0
		return nil
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid numeric string %q: %w", s, err)
	}
	*f = FloatString(v)
	return nil
}

func (f FloatString) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(f), 'f', -1, 64))
}

// SpotUniverseEntry is one tradeable spot pair in the metadata universe.
// Tokens holds the indices of the pair's two tokens in the token listing.
type SpotUniverseEntry struct {
	Tokens      [2]int `json:"tokens"`
	Name        string `json:"name"`
	Index       int    `json:"index"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotToken describes one token referenced by spot universe entries.
type SpotToken struct {
	Name        string `json:"name"`
	SzDecimals  int    `json:"szDecimals"`
	WeiDecimals int    `json:"weiDecimals"`
	Index       int    `json:"index"`
	TokenID     string `json:"tokenId"`
	IsCanonical bool   `json:"isCanonical"`
}

// SpotMeta is the spot metadata listing.
type SpotMeta struct {
	Universe []SpotUniverseEntry `json:"universe"`
	Tokens   []SpotToken         `json:"tokens"`
}

// SpotAssetCtx carries the per-pair price context of a spot snapshot.
type SpotAssetCtx struct {
	PrevDayPx FloatString `json:"prevDayPx"`
	MarkPx    FloatString `json:"markPx"`
	MidPx     FloatString `json:"midPx"`
	Coin      string      `json:"coin"`
}

// SpotSnapshot is the combined spotMetaAndAssetCtxs response: a two-element
// array of the metadata listing and the asset contexts.
type SpotSnapshot struct {
	Meta SpotMeta
	Ctxs []SpotAssetCtx
}

func (s *SpotSnapshot) UnmarshalJSON(data []byte) error {
	parts := []json.RawMessage{}
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("spot snapshot is not an array: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("spot snapshot has %d elements, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Meta); err != nil {
		return fmt.Errorf("spot metadata: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Ctxs); err != nil {
		return fmt.Errorf("spot asset contexts: %w", err)
	}
	return nil
}

func (s SpotSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Meta, s.Ctxs})
}

// NameToRawPriceMap returns the coin→mark-price map of the snapshot.
func (s *SpotSnapshot) NameToRawPriceMap() map[string]float64 {
	out := make(map[string]float64, len(s.Ctxs))
	for _, ctx := range s.Ctxs {
		out[ctx.Coin] = float64(ctx.MarkPx)
	}
	return out
}

// PerpUniverseEntry is one perpetual contract in the metadata universe.
type PerpUniverseEntry struct {
	Name         string `json:"name"`
	SzDecimals   int    `json:"szDecimals"`
	MaxLeverage  int    `json:"maxLeverage"`
	OnlyIsolated bool   `json:"onlyIsolated"`
	IsDelisted   bool   `json:"isDelisted"`
}

// PerpMeta is the perpetual metadata listing.
type PerpMeta struct {
	Universe []PerpUniverseEntry `json:"universe"`
}

// PerpAssetCtx carries the per-contract price context of a perp snapshot.
// Contexts are positional: the i-th context belongs to the i-th universe
// entry.
type PerpAssetCtx struct {
	Funding      FloatString `json:"funding"`
	OpenInterest FloatString `json:"openInterest"`
	PrevDayPx    FloatString `json:"prevDayPx"`
	DayNtlVlm    FloatString `json:"dayNtlVlm"`
	Premium      FloatString `json:"premium"`
	OraclePx     FloatString `json:"oraclePx"`
	MarkPx       FloatString `json:"markPx"`
	MidPx        FloatString `json:"midPx"`
	ImpactPxs    []string    `json:"impactPxs"`
}

// PerpSnapshot is the combined metaAndAssetCtxs response.
type PerpSnapshot struct {
	Meta PerpMeta
	Ctxs []PerpAssetCtx
}

func (s *PerpSnapshot) UnmarshalJSON(data []byte) error {
	parts := []json.RawMessage{}
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("perp snapshot is not an array: %w", err)
	}
	if len(parts) != 2 {
		return fmt.Errorf("perp snapshot has %d elements, want 2", len(parts))
	}
	if err := json.Unmarshal(parts[0], &s.Meta); err != nil {
		return fmt.Errorf("perp metadata: %w", err)
	}
	if err := json.Unmarshal(parts[1], &s.Ctxs); err != nil {
		return fmt.Errorf("perp asset contexts: %w", err)
	}
	return nil
}

func (s PerpSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{s.Meta, s.Ctxs})
}

// NameToRawPriceMap returns the coin→mark-price map of the snapshot, joined
// positionally with the universe listing.
func (s *PerpSnapshot) NameToRawPriceMap() map[string]float64 {
	out := make(map[string]float64, len(s.Ctxs))
	for i := range s.Ctxs {
		if i >= len(s.Meta.Universe) {
			break
		}
		out[s.Meta.Universe[i].Name] = float64(s.Ctxs[i].MarkPx)
	}
	return out
}

// OpenInterestMap returns the coin→open-interest map of the snapshot.
func (s *PerpSnapshot) OpenInterestMap() CoinToOiValueMap {
	out := make(CoinToOiValueMap, len(s.Ctxs))
	for i := range s.Ctxs {
		if i >= len(s.Meta.Universe) {
			break
		}
		out[s.Meta.Universe[i].Name] = float64(s.Ctxs[i].OpenInterest)
	}
	return out
}
