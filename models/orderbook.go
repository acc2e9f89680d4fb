package models

// BookLevel is a single price level of an orderbook side.
type BookLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Orderbook holds the mirrored two-sided level book of one coin. Bids are
// ordered highest-first and asks lowest-first; the feed delivers pre-sorted
// levels and updates replace both sides wholesale.
type Orderbook struct {
	Coin string      `json:"coin"`
	Bids []BookLevel `json:"bids"`
	Asks []BookLevel `json:"asks"`
}

// NewOrderbook creates an empty book for the given coin.
func NewOrderbook(coin string) *Orderbook {
	return &Orderbook{Coin: coin}
}

// Update replaces both sides of the book.
func (o *Orderbook) Update(bids, asks []BookLevel) {
	o.Bids = bids
	o.Asks = asks
}

// BestBid returns the highest bid level, if any.
func (o *Orderbook) BestBid() (BookLevel, bool) {
	if len(o.Bids) == 0 {
		return BookLevel{}, false
	}
	return o.Bids[0], true
}

// BestAsk returns the lowest ask level, if any.
func (o *Orderbook) BestAsk() (BookLevel, bool) {
	if len(o.Asks) == 0 {
		return BookLevel{}, false
	}
	return o.Asks[0], true
}

// Clone returns a deep copy, so published snapshots are never mutated by
// later stream updates.
func (o *Orderbook) Clone() *Orderbook {
	c := &Orderbook{Coin: o.Coin}
	c.Bids = append([]BookLevel(nil), o.Bids...)
	c.Asks = append([]BookLevel(nil), o.Asks...)
	return c
}
