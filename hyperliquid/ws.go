package hyperliquid

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	appconfig "hyperflow/config"
	"hyperflow/logger"
)

const defaultKeepAlive = 50 * time.Second

// WSClient opens live feed subscriptions. Each subscription runs on its own
// connection, so unsubscribing one stream never disturbs another.
type WSClient struct {
	url       string
	keepAlive time.Duration
	log       *logger.Log
}

// NewWSClient creates a subscription client for the configured feed URL.
func NewWSClient(cfg *appconfig.Config) *WSClient {
	hl := cfg.Source.Hyperliquid

	keepAlive := hl.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}

	return &WSClient{
		url:       hl.WSURL,
		keepAlive: keepAlive,
		log:       logger.GetLogger(),
	}
}

// Subscribe dials the feed, issues the subscribe frame and returns a handle
// yielding the stream's messages. The returned handle must be unsubscribed
// or the connection leaks.
func (w *WSClient) Subscribe(ctx context.Context, sub Subscription) (*Sub, error) {
	id := uuid.NewString()
	log := w.log.WithComponent("ws_client").WithFields(logger.Fields{
		"subscription": sub.Type,
		"coin":         sub.Coin,
		"sub_id":       id,
	})

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, w.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to feed websocket: %w", err)
	}

	if err := conn.WriteJSON(wsRequest{Method: "subscribe", Subscription: sub}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send subscribe request: %w", err)
	}

	pingCtx, pingCancel := context.WithCancel(context.Background())

	s := &Sub{
		id:         id,
		request:    sub,
		conn:       conn,
		msgs:       make(chan Message, 64),
		pingCancel: pingCancel,
		log:        log,
	}

	go s.pingLoop(pingCtx, w.keepAlive)
	go s.readPump()

	log.Info("subscription established")
	return s, nil
}

// Sub is one live subscription. Messages are delivered on a buffered
// channel that closes when the connection ends.
type Sub struct {
	id      string
	request Subscription
	conn    *websocket.Conn
	msgs    chan Message
	log     *logger.Entry

	pingCancel context.CancelFunc
	closeOnce  sync.Once
	writeMu    sync.Mutex
}

// ID returns the opaque subscription identifier.
func (s *Sub) ID() string { return s.id }

// Messages yields the subscription's frames. The channel closes when the
// connection drops or the subscription is closed.
func (s *Sub) Messages() <-chan Message { return s.msgs }

// Unsubscribe issues a best-effort unsubscribe frame and closes the
// connection.
func (s *Sub) Unsubscribe(ctx context.Context) error {
	var err error
	s.closeOnce.Do(func() {
		s.pingCancel()

		s.writeMu.Lock()
		err = s.conn.WriteJSON(wsRequest{Method: "unsubscribe", Subscription: s.request})
		s.writeMu.Unlock()

		s.conn.Close()
		s.log.Info("subscription closed")
	})
	return err
}

func (s *Sub) pingLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.writeMu.Lock()
			err := s.conn.WriteJSON(pingRequest{Method: "ping"})
			s.writeMu.Unlock()
			if err != nil {
				s.log.WithError(err).Debug("ping failed, stopping keepalive")
				return
			}
		}
	}
}

func (s *Sub) readPump() {
	defer close(s.msgs)

	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			s.log.WithError(err).Debug("websocket read loop ended")
			return
		}

		var msg Message
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.WithError(err).Warn("failed to decode feed frame")
			continue
		}

		// Keepalive replies and subscribe acks never reach consumers.
		if msg.Channel == ChannelPong || msg.Channel == ChannelSubscription {
			continue
		}

		select {
		case s.msgs <- msg:
		default:
			// Consumer is behind; drop the oldest pending frame so the
			// stream stays current.
			select {
			case <-s.msgs:
			default:
			}
			s.msgs <- msg
			s.log.Warn("subscription buffer full, dropped stale frame")
		}
	}
}
