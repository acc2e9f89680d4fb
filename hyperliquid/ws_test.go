package hyperliquid

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	appconfig "hyperflow/config"
)

var testUpgrader = websocket.Upgrader{}

// feedServer upgrades each connection, acks the subscribe request and then
// replays the scripted frames.
func feedServer(t *testing.T, frames []Message) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		var req wsRequest
		if err := conn.ReadJSON(&req); err != nil {
			t.Errorf("read subscribe: %v", err)
			return
		}
		if req.Method != "subscribe" {
			t.Errorf("method = %q, want subscribe", req.Method)
		}

		ack, _ := json.Marshal(req)
		conn.WriteJSON(Message{Channel: ChannelSubscription, Data: ack})

		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}

		// Hold the connection open until the client closes it.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
}

func wsTestClient(srvURL string) *WSClient {
	cfg := &appconfig.Config{}
	cfg.Source.Hyperliquid.WSURL = "ws" + strings.TrimPrefix(srvURL, "http")
	cfg.Source.Hyperliquid.KeepAlive = time.Minute
	return NewWSClient(cfg)
}

func TestSubscribeDeliversFrames(t *testing.T) {
	srv := feedServer(t, []Message{
		{Channel: ChannelPong},
		{Channel: ChannelAllMids, Data: json.RawMessage(`{"mids": {"BTC": "100"}}`)},
	})
	defer srv.Close()

	client := wsTestClient(srv.URL)
	sub, err := client.Subscribe(context.Background(), AllMids())
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	defer sub.Unsubscribe(context.Background())

	if sub.ID() == "" {
		t.Error("subscription has no identifier")
	}

	select {
	case msg := <-sub.Messages():
		// Acks and pongs are filtered; the first delivered frame must be
		// the data frame.
		if msg.Channel != ChannelAllMids {
			t.Errorf("channel = %q, want allMids", msg.Channel)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no frame delivered")
	}
}

func TestUnsubscribeClosesStream(t *testing.T) {
	srv := feedServer(t, nil)
	defer srv.Close()

	client := wsTestClient(srv.URL)
	sub, err := client.Subscribe(context.Background(), L2Book("BTC"))
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("Unsubscribe failed: %v", err)
	}
	// Second call is a no-op.
	if err := sub.Unsubscribe(context.Background()); err != nil {
		t.Fatalf("repeated Unsubscribe failed: %v", err)
	}

	select {
	case _, ok := <-sub.Messages():
		if ok {
			t.Error("received frame after unsubscribe")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("message channel never closed")
	}
}

func TestSubscribeDialFailure(t *testing.T) {
	cfg := &appconfig.Config{}
	cfg.Source.Hyperliquid.WSURL = "ws://127.0.0.1:1" // nothing listens here
	client := NewWSClient(cfg)

	if _, err := client.Subscribe(context.Background(), AllMids()); err == nil {
		t.Fatal("expected dial error")
	}
}
