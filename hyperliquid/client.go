package hyperliquid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	appconfig "hyperflow/config"
	"hyperflow/logger"
	"hyperflow/models"
)

// Client performs one-shot info requests against the exchange HTTP API.
type Client struct {
	httpClient *http.Client
	apiURL     string
	limiter    *rate.Limiter
	log        *logger.Log
}

// NewClient creates an info client using the configured connection pool and
// request throttle.
func NewClient(cfg *appconfig.Config) *Client {
	log := logger.GetLogger()
	hl := cfg.Source.Hyperliquid

	transport := &http.Transport{
		MaxIdleConns:        hl.ConnectionPool.MaxIdleConns,
		MaxIdleConnsPerHost: hl.ConnectionPool.MaxIdleConns,
		MaxConnsPerHost:     hl.ConnectionPool.MaxConnsPerHost,
		IdleConnTimeout:     hl.ConnectionPool.IdleConnTimeout,
		DisableCompression:  false,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   hl.Timeout,
	}

	client := &Client{
		httpClient: httpClient,
		apiURL:     hl.APIURL,
		limiter:    rate.NewLimiter(rate.Limit(hl.RateLimit.RequestsPerSecond), hl.RateLimit.BurstSize),
		log:        log,
	}

	log.WithComponent("info_client").WithFields(logger.Fields{
		"api_url":            hl.APIURL,
		"max_idle_conns":     hl.ConnectionPool.MaxIdleConns,
		"max_conns_per_host": hl.ConnectionPool.MaxConnsPerHost,
		"timeout":            hl.Timeout,
	}).Info("info client initialized")

	return client
}

// post issues one info request of the given type and returns the raw body.
func (c *Client) post(ctx context.Context, reqType string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	log := c.log.WithComponent("info_client").WithFields(logger.Fields{"type": reqType})

	payload, err := json.Marshal(map[string]string{"type": reqType})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal info request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build info request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("info request failed: %w", err)
	}
	defer resp.Body.Close()

	logger.LogPerformanceEntry(log, "info_client", "api_request", time.Since(start), logger.Fields{
		"type": reqType,
	})

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read info response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("info request returned status %d: %s", resp.StatusCode, body)
	}

	logger.IncrementMetadataFetch(len(body))
	return body, nil
}

// SpotMetaAndAssetCtxs fetches the combined spot metadata and asset context
// snapshot.
func (c *Client) SpotMetaAndAssetCtxs(ctx context.Context) (*models.SpotSnapshot, error) {
	body, err := c.post(ctx, TypeSpotMetaAndAssetCtxs)
	if err != nil {
		return nil, err
	}

	snapshot := &models.SpotSnapshot{}
	if err := json.Unmarshal(body, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode spot snapshot: %w", err)
	}
	return snapshot, nil
}

// MetaAndAssetCtxs fetches the combined perpetual metadata and asset context
// snapshot.
func (c *Client) MetaAndAssetCtxs(ctx context.Context) (*models.PerpSnapshot, error) {
	body, err := c.post(ctx, TypeMetaAndAssetCtxs)
	if err != nil {
		return nil, err
	}

	snapshot := &models.PerpSnapshot{}
	if err := json.Unmarshal(body, snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode perp snapshot: %w", err)
	}
	return snapshot, nil
}

// SpotMeta fetches the spot metadata listing alone.
func (c *Client) SpotMeta(ctx context.Context) (*models.SpotMeta, error) {
	body, err := c.post(ctx, TypeSpotMeta)
	if err != nil {
		return nil, err
	}

	meta := &models.SpotMeta{}
	if err := json.Unmarshal(body, meta); err != nil {
		return nil, fmt.Errorf("failed to decode spot metadata: %w", err)
	}
	return meta, nil
}

// Meta fetches the perpetual metadata listing alone.
func (c *Client) Meta(ctx context.Context) (*models.PerpMeta, error) {
	body, err := c.post(ctx, TypeMeta)
	if err != nil {
		return nil, err
	}

	meta := &models.PerpMeta{}
	if err := json.Unmarshal(body, meta); err != nil {
		return nil, fmt.Errorf("failed to decode perp metadata: %w", err)
	}
	return meta, nil
}
