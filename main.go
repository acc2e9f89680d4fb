package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appconfig "hyperflow/config"
	"hyperflow/feed"
	"hyperflow/hyperliquid"
	"hyperflow/logger"
	"hyperflow/models"
	"hyperflow/watch"
)

func main() {
	log := logger.GetLogger()

	// Load environment variables from .env if present
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Error loading .env file")
	}

	configPath := flag.String("config", "config/config.yml", "Path to configuration file")
	flag.Parse()

	path := appconfig.ResolveConfigPath(*configPath, "config/config.yml", map[string]string{
		appconfig.EnvironmentProduction: "config/config.production.yml",
		appconfig.EnvironmentStaging:    "config/config.staging.yml",
	})

	cfg, err := appconfig.LoadConfig(path)
	if err != nil {
		log.WithError(err).Error("Failed to load configuration")
		os.Exit(1)
	}

	if err := log.Configure(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.Logging.MaxAge); err != nil {
		log.WithError(err).Error("Failed to configure logger")
		os.Exit(1)
	}

	log.WithFields(logger.Fields{
		"service":     cfg.Hyperflow.Name,
		"version":     cfg.Hyperflow.Version,
		"environment": appconfig.AppEnvironment(),
	}).Info("starting hyperflow")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Metrics.CloudWatch.Enabled {
		cw := cfg.Metrics.CloudWatch
		logger.InitCloudWatch(cw.Region, cw.Namespace, cw.Dashboard, cw.AccessKeyID, cw.SecretAccessKey)
		logger.CreateDefaultDashboard(ctx)
	}

	if strings.ToLower(cfg.Logging.Level) == "report" {
		logger.StartReport(ctx, log, 30*time.Second)
	}

	restClient := hyperliquid.NewClient(cfg)
	source := feed.WSSource{Client: hyperliquid.NewWSClient(cfg)}

	spotPrices := watch.New("spot_prices", models.NameToPriceMap{})
	perpPrices := watch.New("perp_prices", models.NameToPriceMap{})
	openInterest := watch.New("open_interest", models.CoinToOiValueMap{})

	bookChannels := make(map[string]*watch.Channel[models.NameToOrderbookMap], len(cfg.Books.Coins))
	for _, coin := range cfg.Books.Coins {
		bookChannels[coin] = watch.New("book_"+coin, models.NameToOrderbookMap{})
	}

	// Each pipeline requires at least one live receiver or its publishes
	// fail. The monitors below are those standing receivers; downstream
	// consumers subscribe independently.
	go monitorPrices(ctx, log, "spot_prices", spotPrices)
	go monitorPrices(ctx, log, "perp_prices", perpPrices)
	go monitorOpenInterest(ctx, log, openInterest)
	for coin, ch := range bookChannels {
		go monitorBooks(ctx, log, coin, ch)
	}

	spotStream := feed.NewSpotPriceStream(cfg, restClient, source, spotPrices)
	perpStream := feed.NewPerpPriceStream(cfg, restClient, source, perpPrices).WithOpenInterest(openInterest)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		spotStream.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		perpStream.Run(ctx)
	}()

	for _, coin := range cfg.Books.Coins {
		wg.Add(1)
		go func(coin string) {
			defer wg.Done()
			feed.NewBookStream(cfg, coin, source, bookChannels[coin]).Run(ctx)
		}(coin)
	}

	log.WithFields(logger.Fields{
		"books": len(cfg.Books.Coins),
	}).Info("all pipelines started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.WithFields(logger.Fields{"signal": sig.String()}).Info("shutdown signal received")

	log.Info("starting graceful shutdown")
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Info("graceful shutdown completed")
	case <-time.After(30 * time.Second):
		log.Warn("graceful shutdown timeout exceeded")
	}

	log.Info("hyperflow stopped")
}

// monitorPrices keeps a standing receiver on a price channel and logs the
// table size as it changes.
func monitorPrices(ctx context.Context, log *logger.Log, name string, ch *watch.Channel[models.NameToPriceMap]) {
	rx := ch.Subscribe()
	defer rx.Close()

	for {
		if err := rx.Changed(ctx); err != nil {
			return
		}
		table, seq := rx.Latest()
		log.WithComponent("monitor").WithFields(logger.Fields{
			"channel":     name,
			"instruments": len(table),
			"seq":         seq,
		}).Debug("price table updated")
	}
}

func monitorOpenInterest(ctx context.Context, log *logger.Log, ch *watch.Channel[models.CoinToOiValueMap]) {
	rx := ch.Subscribe()
	defer rx.Close()

	for {
		if err := rx.Changed(ctx); err != nil {
			return
		}
		oi, seq := rx.Latest()
		log.WithComponent("monitor").WithFields(logger.Fields{
			"channel": "open_interest",
			"coins":   len(oi),
			"seq":     seq,
		}).Debug("open interest updated")
	}
}

func monitorBooks(ctx context.Context, log *logger.Log, coin string, ch *watch.Channel[models.NameToOrderbookMap]) {
	rx := ch.Subscribe()
	defer rx.Close()

	for {
		if err := rx.Changed(ctx); err != nil {
			return
		}
		table, seq := rx.Latest()
		entry := log.WithComponent("monitor").WithFields(logger.Fields{
			"channel": "book_" + coin,
			"seq":     seq,
		})
		if book, ok := table[coin]; ok {
			if bid, has := book.BestBid(); has {
				entry = entry.WithField("best_bid", bid.Price)
			}
			if ask, has := book.BestAsk(); has {
				entry = entry.WithField("best_ask", ask.Price)
			}
		}
		entry.Debug("book updated")
	}
}
