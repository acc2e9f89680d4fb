package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	appconfig "hyperflow/config"
	"hyperflow/hyperliquid"
	"hyperflow/logger"
	"hyperflow/models"
	"hyperflow/watch"
)

// BookStream mirrors the L2 book of a single coin and republishes the
// one-entry book table on every update. One instance runs per configured
// coin; a dead book for one coin never affects the others.
//
// The session policy matches the price pipeline: stream until the tick
// bound, resubscribe once, restart from scratch on any failure.
type BookStream struct {
	cfg    *appconfig.Config
	coin   string
	source Source
	out    *watch.Channel[models.NameToOrderbookMap]
	log    *logger.Log
}

// NewBookStream creates the book pipeline for one coin.
func NewBookStream(cfg *appconfig.Config, coin string, source Source, out *watch.Channel[models.NameToOrderbookMap]) *BookStream {
	return &BookStream{
		cfg:    cfg,
		coin:   coin,
		source: source,
		out:    out,
		log:    logger.GetLogger(),
	}
}

// Run drives the pipeline until the context is cancelled.
func (b *BookStream) Run(ctx context.Context) {
	log := b.log.WithComponent("book_pipeline").WithFields(logger.Fields{"coin": b.coin})
	log.Info("starting book pipeline")

	for {
		if ctx.Err() != nil {
			log.Info("book pipeline stopped")
			return
		}

		if err := b.runSession(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("book session failed, restarting")
			logger.IncrementPipelineReset()
		}

		if !sleepCtx(ctx, b.cfg.Feed.RestartBackoff) {
			log.Info("book pipeline stopped")
			return
		}
	}
}

// runSession performs one subscribe-and-mirror iteration. The mirror starts
// empty each session and after each resubscription; every book frame
// replaces it wholesale, so a fresh subscription converges on the first
// snapshot.
func (b *BookStream) runSession(ctx context.Context) error {
	session := uuid.NewString()
	log := b.log.WithComponent("book_pipeline").WithFields(logger.Fields{
		"coin":    b.coin,
		"session": session,
	})

	stream, err := b.source.Subscribe(ctx, hyperliquid.L2Book(b.coin))
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	defer func() {
		_ = stream.Unsubscribe(context.Background())
	}()

	book := models.NewOrderbook(b.coin)
	ticks := 0
	for {
		if ticks >= b.cfg.Feed.SessionTicks {
			log.Info("subscription lifetime reached, resubscribing")
			_ = stream.Unsubscribe(context.Background())

			if !sleepCtx(ctx, b.cfg.Feed.ResubscribePause) {
				return nil
			}

			// Keep the old handle until the new one exists; the deferred
			// unsubscribe must never see a nil stream.
			next, err := b.source.Subscribe(ctx, hyperliquid.L2Book(b.coin))
			if err != nil {
				return fmt.Errorf("resubscribe failed: %w", err)
			}
			stream = next
			book = models.NewOrderbook(b.coin)
			ticks = 0
		}

		var msg hyperliquid.Message
		var ok bool
		select {
		case <-ctx.Done():
			return nil
		case msg, ok = <-stream.Messages():
			if !ok {
				return fmt.Errorf("subscription %s ended unexpectedly", stream.ID())
			}
		}

		outcome, bids, asks := ClassifyBook(msg, log)
		switch outcome {
		case OutcomeProtocolError:
			return fmt.Errorf("protocol error on subscription %s", stream.ID())
		case OutcomeBook:
			book.Update(bids, asks)
		}
		// NoData and unrecognized frames republish the mirror unchanged.

		table := models.NameToOrderbookMap{b.coin: book}
		if !b.out.Publish(table.Snapshot()) {
			return fmt.Errorf("publish failed: no live receivers")
		}

		if !sleepCtx(ctx, b.cfg.Feed.TickInterval) {
			return nil
		}
		ticks++
	}
}
