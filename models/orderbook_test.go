package models

import "testing"

func TestOrderbookUpdateReplacesWholesale(t *testing.T) {
	ob := NewOrderbook("BTC")

	ob.Update(
		[]BookLevel{{Price: 100, Size: 1}, {Price: 99, Size: 2}},
		[]BookLevel{{Price: 101, Size: 3}},
	)
	ob.Update(
		[]BookLevel{{Price: 98, Size: 5}},
		[]BookLevel{{Price: 102, Size: 1}, {Price: 103, Size: 4}},
	)

	if len(ob.Bids) != 1 || len(ob.Asks) != 2 {
		t.Fatalf("book sides = %d/%d, want 1/2", len(ob.Bids), len(ob.Asks))
	}

	bid, ok := ob.BestBid()
	if !ok || bid.Price != 98 {
		t.Errorf("best bid = %v, want 98", bid)
	}
	ask, ok := ob.BestAsk()
	if !ok || ask.Price != 102 {
		t.Errorf("best ask = %v, want 102", ask)
	}
}

func TestEmptyBookHasNoBest(t *testing.T) {
	ob := NewOrderbook("ETH")
	if _, ok := ob.BestBid(); ok {
		t.Error("empty book returned a best bid")
	}
	if _, ok := ob.BestAsk(); ok {
		t.Error("empty book returned a best ask")
	}
}

func TestOrderbookCloneIsDeep(t *testing.T) {
	ob := NewOrderbook("BTC")
	ob.Update([]BookLevel{{Price: 100, Size: 1}}, []BookLevel{{Price: 101, Size: 1}})

	clone := ob.Clone()
	ob.Bids[0].Price = 50

	if clone.Bids[0].Price != 100 {
		t.Errorf("clone shares bid storage with source: %v", clone.Bids[0])
	}
}

func TestPriceTableSnapshotIsolation(t *testing.T) {
	meta := NewPerpMeta("BTC", 2, 50, false, false)
	price, err := NewPerp(100.0, meta)
	if err != nil {
		t.Fatalf("NewPerp failed: %v", err)
	}

	table := NameToPriceMap{"BTC": &price}
	snap := table.Snapshot()

	table["BTC"].Update(200.0)

	if snap.Value("BTC") != 100.0 {
		t.Errorf("snapshot saw later update: %v", snap.Value("BTC"))
	}
	if table.Value("BTC") != 200.0 {
		t.Errorf("live table = %v, want 200", table.Value("BTC"))
	}
	if snap.Value("missing") != 0.0 {
		t.Errorf("unknown symbol = %v, want 0", snap.Value("missing"))
	}
}

func TestBookTableSnapshotIsolation(t *testing.T) {
	ob := NewOrderbook("BTC")
	ob.Update([]BookLevel{{Price: 100, Size: 1}}, nil)

	table := NameToOrderbookMap{"BTC": ob}
	snap := table.Snapshot()

	ob.Update([]BookLevel{{Price: 90, Size: 1}}, nil)

	bid, ok := snap["BTC"].BestBid()
	if !ok || bid.Price != 100 {
		t.Errorf("snapshot saw later update: %v", bid)
	}
}
