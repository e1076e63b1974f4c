// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/olegiv/seniorid/internal/model"
	"github.com/olegiv/seniorid/internal/util"
)

// Dispatcher delivers events to the configured webhooks with a pool of
// workers. Failed deliveries are retried with exponential backoff.
type Dispatcher struct {
	hooks     []model.Webhook
	client    *http.Client
	logger    *slog.Logger
	queue     chan *QueuedDelivery
	workers   int
	backoff   time.Duration
	wg        sync.WaitGroup
	retries   sync.WaitGroup
	done      chan struct{}
	mu        sync.RWMutex
	running   bool
	userAgent string
	delivered func(*QueuedDelivery, DeliveryResult)
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	DeliveryID string
	Event      string
	Payload    []byte
	URL        string
	Secret     string
	Attempts   int
}

// Config holds dispatcher configuration.
type Config struct {
	Workers   int // Number of concurrent delivery workers
	QueueSize int
	UserAgent string
	// AllowPrivateNetworks disables the check that blocks deliveries to
	// loopback and private addresses.
	AllowPrivateNetworks bool
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:   3,
		QueueSize: 100,
	}
}

// NewDispatcher creates a new webhook dispatcher for hooks.
func NewDispatcher(hooks []model.Webhook, logger *slog.Logger, cfg Config) *Dispatcher {
	if cfg.Workers <= 0 {
		cfg.Workers = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 100
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "SeniorID"
	}
	if logger == nil {
		logger = slog.Default()
	}

	dialer := &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second}
	transport := &http.Transport{
		Proxy:               nil,
		DialContext:         util.SSRFSafeDialContext(dialer),
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	}
	if cfg.AllowPrivateNetworks {
		transport.DialContext = dialer.DialContext
	}

	return &Dispatcher{
		hooks:  hooks,
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		logger:    logger,
		queue:     make(chan *QueuedDelivery, cfg.QueueSize),
		workers:   cfg.Workers,
		backoff:   InitialBackoff,
		userAgent: cfg.UserAgent,
		done:      make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers, "webhooks", len(d.hooks))

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish. Pending retries
// are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping webhook dispatcher")
	close(d.done)
	d.wg.Wait()
	d.retries.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

func (d *Dispatcher) isRunning() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.running
}

// worker processes queued deliveries.
func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("webhook worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			d.logger.Debug("webhook worker stopping", "worker_id", id)
			return
		case <-ctx.Done():
			d.logger.Debug("webhook worker context cancelled", "worker_id", id)
			return
		case delivery := <-d.queue:
			d.processDelivery(ctx, delivery)
		}
	}
}

// Dispatch sends an event of the given type to every subscribed webhook.
// It never blocks on delivery.
func (d *Dispatcher) Dispatch(ctx context.Context, eventType string, data any) {
	d.DispatchEvent(ctx, NewEvent(eventType, data))
}

// DispatchEvent queues event for every webhook subscribed to its type.
func (d *Dispatcher) DispatchEvent(_ context.Context, event *Event) {
	if len(d.hooks) == 0 {
		return
	}
	if !d.isRunning() {
		d.logger.Warn("dispatcher not running, cannot dispatch event", "event_type", event.Type)
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal event payload", "error", err, "event_type", event.Type)
		return
	}

	for _, wh := range d.hooks {
		if !wh.HasEvent(event.Type) {
			continue
		}
		d.enqueue(&QueuedDelivery{
			DeliveryID: event.ID,
			Event:      event.Type,
			Payload:    payload,
			URL:        wh.URL,
			Secret:     wh.Secret,
		})
	}
}

func (d *Dispatcher) enqueue(qd *QueuedDelivery) {
	select {
	case d.queue <- qd:
		d.logger.Debug("delivery queued", "delivery_id", qd.DeliveryID, "url", qd.URL)
	default:
		d.logger.Warn("delivery queue full, dropping delivery",
			"category", model.EventCategoryWebhook,
			"delivery_id", qd.DeliveryID,
			"event_type", qd.Event)
	}
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}
