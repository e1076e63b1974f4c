// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/olegiv/seniorid/internal/model"
)

// Delivery configuration constants
const (
	MaxAttempts    = 5                // Maximum number of delivery attempts
	InitialBackoff = 10 * time.Second // Initial backoff delay
	MaxBackoff     = 10 * time.Minute // Maximum backoff delay
	RequestTimeout = 30 * time.Second // HTTP request timeout
	MaxResponseLen = 10 * 1024        // Maximum response body to read (10KB)
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	Error        error
	ShouldRetry  bool
}

// processDelivery attempts a delivery and schedules a retry when it fails
// with a retryable error.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	delivery.Attempts++
	result := d.attemptDelivery(ctx, delivery)
	if d.delivered != nil {
		d.delivered(delivery, result)
	}

	if result.Success {
		d.logger.Info("webhook delivered successfully",
			"delivery_id", delivery.DeliveryID,
			"event_type", delivery.Event,
			"status_code", result.StatusCode)
		return
	}

	errMsg := ""
	if result.Error != nil {
		errMsg = result.Error.Error()
	}

	if !result.ShouldRetry || delivery.Attempts >= MaxAttempts {
		d.logger.Warn("webhook delivery failed",
			"category", model.EventCategoryWebhook,
			"delivery_id", delivery.DeliveryID,
			"event_type", delivery.Event,
			"attempts", delivery.Attempts,
			"reason", errMsg)
		return
	}

	backoff := calculateBackoff(d.backoff, delivery.Attempts)
	d.logger.Info("webhook delivery scheduled for retry",
		"delivery_id", delivery.DeliveryID,
		"attempt", delivery.Attempts,
		"backoff", backoff.String(),
		"reason", errMsg)

	d.retries.Add(1)
	go func() {
		defer d.retries.Done()
		timer := time.NewTimer(backoff)
		defer timer.Stop()
		select {
		case <-timer.C:
			if d.isRunning() {
				d.enqueue(delivery)
			}
		case <-d.done:
		}
	}()
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return DeliveryResult{
			Success:     false,
			Error:       fmt.Errorf("failed to create request: %w", err),
			ShouldRetry: false, // Bad URL, don't retry
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", d.userAgent)
	req.Header.Set("X-Webhook-Signature", GenerateSignature(delivery.Payload, delivery.Secret))
	req.Header.Set("X-Webhook-Event", delivery.Event)
	req.Header.Set("X-Webhook-Delivery-ID", delivery.DeliveryID)
	req.Header.Set("X-Webhook-Attempt", strconv.Itoa(delivery.Attempts))

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{
			Success:     false,
			Error:       fmt.Errorf("request failed: %w", err),
			ShouldRetry: true, // Network error, retry
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	responseBody := string(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Success:      true,
			StatusCode:   resp.StatusCode,
			ResponseBody: responseBody,
		}
	}

	httpErr := fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	if resp.StatusCode < 500 {
		// Client errors are final except 408 Request Timeout and 429 Too Many Requests.
		return DeliveryResult{
			Success:      false,
			StatusCode:   resp.StatusCode,
			ResponseBody: responseBody,
			Error:        httpErr,
			ShouldRetry:  resp.StatusCode == http.StatusRequestTimeout || resp.StatusCode == http.StatusTooManyRequests,
		}
	}

	return DeliveryResult{
		Success:      false,
		StatusCode:   resp.StatusCode,
		ResponseBody: responseBody,
		Error:        httpErr,
		ShouldRetry:  true,
	}
}

// calculateBackoff returns base * 2^(attempt-1), capped at MaxBackoff.
func calculateBackoff(base time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	backoff := time.Duration(float64(base) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}
