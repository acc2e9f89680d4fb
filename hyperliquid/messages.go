// Package hyperliquid implements the thin exchange surface this service
// consumes: one-shot info requests over HTTP and live subscriptions over
// websocket. Wire message types stay inside this package and feed/classify.
package hyperliquid

import "encoding/json"

// Channel names used by the websocket feed.
const (
	ChannelAllMids      = "allMids"
	ChannelL2Book       = "l2Book"
	ChannelError        = "error"
	ChannelSubscription = "subscriptionResponse"
	ChannelPong         = "pong"
)

// Info request types for one-shot snapshots.
const (
	TypeSpotMeta             = "spotMeta"
	TypeMeta                 = "meta"
	TypeSpotMetaAndAssetCtxs = "spotMetaAndAssetCtxs"
	TypeMetaAndAssetCtxs     = "metaAndAssetCtxs"
)

// Subscription identifies one live feed: the all-mids price stream or the
// L2 book of a single coin.
type Subscription struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
}

// AllMids subscribes to the multiplexed mid-price stream.
func AllMids() Subscription {
	return Subscription{Type: "allMids"}
}

// L2Book subscribes to the level-2 book of one coin.
func L2Book(coin string) Subscription {
	return Subscription{Type: "l2Book", Coin: coin}
}

// wsRequest is the subscribe/unsubscribe frame sent to the server.
type wsRequest struct {
	Method       string       `json:"method"`
	Subscription Subscription `json:"subscription"`
}

// pingRequest is the keepalive frame; the server closes idle connections.
type pingRequest struct {
	Method string `json:"method"`
}

// Message is one frame received from the websocket feed. Data stays raw
// until the classifier decides what the frame is.
type Message struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// AllMidsData is the payload of an allMids frame: a complete symbol→price
// table with string-encoded numbers.
type AllMidsData struct {
	Mids map[string]string `json:"mids"`
}

// BookLevel is one raw price level of an L2 book frame.
type BookLevel struct {
	Px string `json:"px"`
	Sz string `json:"sz"`
	N  int    `json:"n"`
}

// L2BookData is the payload of an l2Book frame. Levels[0] holds bids
// highest-first, Levels[1] asks lowest-first, both pre-sorted by the
// exchange.
type L2BookData struct {
	Coin   string        `json:"coin"`
	Time   int64         `json:"time"`
	Levels [][]BookLevel `json:"levels"`
}
