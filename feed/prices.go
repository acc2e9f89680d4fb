package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appconfig "hyperflow/config"
	"hyperflow/hyperliquid"
	"hyperflow/logger"
	"hyperflow/models"
	"hyperflow/watch"
)

// PriceStream ingests the multiplexed mid-price feed for one market type
// and republishes the live price table. Two independent instances run per
// process: one for spot pairs, one for perpetuals.
//
// Each session moves through seeding (metadata + initial table), streaming
// (merge batches, publish, tick pause) and a proactive resubscription once
// the configured tick bound is reached. Any failure ends the session; the
// supervisor backs off and starts a fresh one, so the pipeline runs for the
// process lifetime and self-heals.
type PriceStream struct {
	cfg       *appconfig.Config
	requester Requester
	source    Source
	out       *watch.Channel[models.NameToPriceMap]
	oiOut     *watch.Channel[models.CoinToOiValueMap]
	kind      models.MarketKind
	log       *logger.Log
}

// NewSpotPriceStream creates the pipeline for spot instruments.
func NewSpotPriceStream(cfg *appconfig.Config, requester Requester, source Source, out *watch.Channel[models.NameToPriceMap]) *PriceStream {
	return &PriceStream{
		cfg:       cfg,
		requester: requester,
		source:    source,
		out:       out,
		kind:      models.KindSpot,
		log:       logger.GetLogger(),
	}
}

// NewPerpPriceStream creates the pipeline for perpetual instruments.
func NewPerpPriceStream(cfg *appconfig.Config, requester Requester, source Source, out *watch.Channel[models.NameToPriceMap]) *PriceStream {
	return &PriceStream{
		cfg:       cfg,
		requester: requester,
		source:    source,
		out:       out,
		kind:      models.KindPerp,
		log:       logger.GetLogger(),
	}
}

// WithOpenInterest also publishes the per-coin open interest derived from
// each perp metadata snapshot. Publishing there is best-effort; an idle
// open-interest channel never fails the pipeline.
func (s *PriceStream) WithOpenInterest(ch *watch.Channel[models.CoinToOiValueMap]) *PriceStream {
	s.oiOut = ch
	return s
}

func (s *PriceStream) component() string {
	if s.kind == models.KindSpot {
		return "spot_price_pipeline"
	}
	return "perp_price_pipeline"
}

// Run drives the pipeline until the context is cancelled. Session failures
// are absorbed here: unsubscribe best-effort, wait the restart backoff and
// seed again.
func (s *PriceStream) Run(ctx context.Context) {
	log := s.log.WithComponent(s.component())
	log.Info("starting price pipeline")

	for {
		if ctx.Err() != nil {
			log.Info("price pipeline stopped")
			return
		}

		if err := s.runSession(ctx); err != nil && ctx.Err() == nil {
			log.WithError(err).Error("price session failed, restarting")
			logger.IncrementPipelineReset()
		}

		if !sleepCtx(ctx, s.cfg.Feed.RestartBackoff) {
			log.Info("price pipeline stopped")
			return
		}
	}
}

// runSession performs one seed-and-stream iteration.
func (s *PriceStream) runSession(ctx context.Context) error {
	session := uuid.NewString()
	log := s.log.WithComponent(s.component()).WithFields(logger.Fields{"session": session})

	table, err := s.seed(ctx)
	if err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}
	log.WithFields(logger.Fields{"instruments": len(table)}).Info("price table seeded")

	stream, err := s.source.Subscribe(ctx, hyperliquid.AllMids())
	if err != nil {
		return fmt.Errorf("subscribe failed: %w", err)
	}
	defer func() {
		// Best-effort; the session is over either way.
		_ = stream.Unsubscribe(context.Background())
	}()

	ticks := 0
	for {
		if ticks >= s.cfg.Feed.SessionTicks {
			log.Info("subscription lifetime reached, resubscribing")
			_ = stream.Unsubscribe(context.Background())

			if !sleepCtx(ctx, s.cfg.Feed.ResubscribePause) {
				return nil
			}

			// Keep the old handle until the new one exists; the deferred
			// unsubscribe must never see a nil stream.
			next, err := s.source.Subscribe(ctx, hyperliquid.AllMids())
			if err != nil {
				return fmt.Errorf("resubscribe failed: %w", err)
			}
			stream = next
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

		outcome, batch := ClassifyMids(msg, log)
		switch outcome {
		case OutcomeProtocolError:
			return fmt.Errorf("protocol error on subscription %s", stream.ID())
		case OutcomePriceBatch:
			for name, raw := range batch {
				if price, found := table[name]; found {
					price.Update(raw)
				}
			}
		}
		// NoData and unrecognized frames republish the table unchanged.

		if !s.out.Publish(table.Snapshot()) {
			return fmt.Errorf("publish failed: no live receivers")
		}

		if !sleepCtx(ctx, s.cfg.Feed.TickInterval) {
			return nil
		}
		ticks++
	}
}

// seed fetches the metadata snapshot for the pipeline's market type and
// builds the initial table.
func (s *PriceStream) seed(ctx context.Context) (models.NameToPriceMap, error) {
	if s.kind == models.KindSpot {
		snapshot, err := s.requester.SpotMetaAndAssetCtxs(ctx)
		if err != nil {
			return nil, err
		}
		return SeedSpotTable(snapshot)
	}

	snapshot, err := s.requester.MetaAndAssetCtxs(ctx)
	if err != nil {
		return nil, err
	}

	if s.oiOut != nil {
		s.oiOut.Publish(snapshot.OpenInterestMap())
	}

	return SeedPerpTable(snapshot)
}

// sleepCtx pauses for the duration and reports whether the context is still
// live.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
