package feed

import (
	"context"

	"hyperflow/hyperliquid"
	"hyperflow/models"
)

// Requester fetches one-shot metadata and price snapshots. Satisfied by
// *hyperliquid.Client.
type Requester interface {
	SpotMetaAndAssetCtxs(ctx context.Context) (*models.SpotSnapshot, error)
	MetaAndAssetCtxs(ctx context.Context) (*models.PerpSnapshot, error)
}

// Stream yields typed feed messages until unsubscribed. The message channel
// closes when the underlying connection ends.
type Stream interface {
	ID() string
	Messages() <-chan hyperliquid.Message
	Unsubscribe(ctx context.Context) error
}

// Source opens live feed subscriptions.
type Source interface {
	Subscribe(ctx context.Context, sub hyperliquid.Subscription) (Stream, error)
}

// WSSource adapts the websocket client to the Source seam used by the
// pipelines.
type WSSource struct {
	Client *hyperliquid.WSClient
}

func (s WSSource) Subscribe(ctx context.Context, sub hyperliquid.Subscription) (Stream, error) {
	stream, err := s.Client.Subscribe(ctx, sub)
	if err != nil {
		return nil, err
	}
	return stream, nil
}
