package feed

import (
	"testing"

	"hyperflow/models"
)

func testSpotSnapshot() *models.SpotSnapshot {
	return &models.SpotSnapshot{
		Meta: models.SpotMeta{
			Universe: []models.SpotUniverseEntry{
				{Tokens: [2]int{1, 0}, Name: "@1", Index: 1, IsCanonical: true},
			},
			Tokens: []models.SpotToken{
				{Name: "USDC", SzDecimals: 8, WeiDecimals: 8, Index: 0},
				{Name: "PURR", SzDecimals: 0, WeiDecimals: 5, Index: 1},
			},
		},
		Ctxs: []models.SpotAssetCtx{
			{Coin: "@1", MarkPx: 0.23456789},
		},
	}
}

func testPerpSnapshot() *models.PerpSnapshot {
	return &models.PerpSnapshot{
		Meta: models.PerpMeta{
			Universe: []models.PerpUniverseEntry{
				{Name: "BTC", SzDecimals: 5, MaxLeverage: 50},
				{Name: "ETH", SzDecimals: 4, MaxLeverage: 50, OnlyIsolated: true},
			},
		},
		Ctxs: []models.PerpAssetCtx{
			{MarkPx: 103020.32323, OpenInterest: 1200.5},
			{MarkPx: 3300.25, OpenInterest: 8000},
		},
	}
}

func TestSeedSpotTable(t *testing.T) {
	table, err := SeedSpotTable(testSpotSnapshot())
	if err != nil {
		t.Fatalf("SeedSpotTable failed: %v", err)
	}

	price, ok := table["@1"]
	if !ok {
		t.Fatal("pair @1 missing from table")
	}
	if price.Kind() != models.KindSpot {
		t.Errorf("kind = %v, want spot", price.Kind())
	}
	if price.Meta().Quote().Name != "PURR" || price.Meta().Base().Name != "USDC" {
		t.Errorf("tokens = %s/%s, want PURR/USDC", price.Meta().Quote().Name, price.Meta().Base().Name)
	}
	// szDecimals 0 from the quote token allows the full decimal cap.
	if price.Value() != 0.23457 {
		t.Errorf("seeded value = %v, want 0.23457", price.Value())
	}
}

func TestSeedSpotTableUnknownTokenIndex(t *testing.T) {
	snap := testSpotSnapshot()
	snap.Meta.Universe[0].Tokens = [2]int{9, 0}

	if _, err := SeedSpotTable(snap); err == nil {
		t.Fatal("expected error for unknown token index")
	}
}

func TestSeedPerpTable(t *testing.T) {
	table, err := SeedPerpTable(testPerpSnapshot())
	if err != nil {
		t.Fatalf("SeedPerpTable failed: %v", err)
	}

	btc, ok := table["BTC"]
	if !ok {
		t.Fatal("BTC missing from table")
	}
	if btc.Value() != 103020 {
		t.Errorf("BTC value = %v, want 103020", btc.Value())
	}
	if btc.Meta().MaxLeverage() != 50 {
		t.Errorf("maxLeverage = %d, want 50", btc.Meta().MaxLeverage())
	}

	eth := table["ETH"]
	if eth == nil || !eth.Meta().OnlyIsolated() {
		t.Error("ETH onlyIsolated flag lost in seeding")
	}
}

func TestSpotPairToName(t *testing.T) {
	names := SpotPairToName(testSpotSnapshot())
	if names["PURR/USDC"] != "@1" {
		t.Errorf("pair name map = %v, want PURR/USDC -> @1", names)
	}
}

func TestSpotPairToPrice(t *testing.T) {
	prices := SpotPairToPrice(testSpotSnapshot())
	if prices["PURR/USDC"] != 0.23456789 {
		t.Errorf("pair price map = %v, want raw 0.23456789", prices)
	}
}
