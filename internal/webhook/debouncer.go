// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"sync"
	"time"
)

// DebounceConfig controls how long repeated events for one record are held.
type DebounceConfig struct {
	// Interval is the quiet period after the last event before delivery.
	Interval time.Duration
	// MaxWait caps how long the first event of a burst may be held.
	MaxWait time.Duration
}

// DefaultDebounceConfig returns a one second quiet period capped at five seconds.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{Interval: time.Second, MaxWait: 5 * time.Second}
}

type heldEvent struct {
	latest *Event
	first  time.Time
	timer  *time.Timer
}

// deadline is when the held event goes out given an update at now.
func (h *heldEvent) deadline(now time.Time, cfg DebounceConfig) time.Time {
	quiet := now.Add(cfg.Interval)
	if limit := h.first.Add(cfg.MaxWait); limit.Before(quiet) {
		return limit
	}
	return quiet
}

// Debouncer sits in front of a Dispatcher and collapses bursts of the same
// event for the same record into one delivery of the newest payload, so an
// officer editing a senior record several times triggers a single webhook.
type Debouncer struct {
	out *Dispatcher
	cfg DebounceConfig

	mu   sync.Mutex
	held map[string]*heldEvent

	sending sync.WaitGroup
	stopped context.Context
	stop    context.CancelFunc
}

// NewDebouncer wraps dispatcher.
func NewDebouncer(dispatcher *Dispatcher, cfg DebounceConfig) *Debouncer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		out:     dispatcher,
		cfg:     cfg,
		held:    make(map[string]*heldEvent),
		stopped: ctx,
		stop:    cancel,
	}
}

// eventKey groups events by type and the record they are about. Events
// without a record id are grouped by type alone.
func eventKey(event *Event) string {
	if id := entityID(event.Data); id != "" {
		return event.Type + ":" + id
	}
	return event.Type
}

// Dispatch builds an event and holds it.
func (d *Debouncer) Dispatch(ctx context.Context, eventType string, data any) {
	d.DispatchEvent(ctx, NewEvent(eventType, data))
}

// DispatchEvent holds event until its record has been quiet for the
// configured interval. A newer event for the same key replaces the held one.
func (d *Debouncer) DispatchEvent(_ context.Context, event *Event) {
	key := eventKey(event)
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	h, ok := d.held[key]
	if !ok {
		h = &heldEvent{first: now}
		h.timer = time.AfterFunc(d.cfg.Interval, func() { d.release(key, h) })
		h.latest = event
		d.held[key] = h
		d.out.logger.Debug("webhook event held", "key", key)
		return
	}

	h.latest = event
	wait := h.deadline(now, d.cfg).Sub(now)
	if wait <= 0 {
		d.sendLocked(key, h)
		return
	}
	h.timer.Reset(wait)
	d.out.logger.Debug("webhook event replaced", "key", key, "held_for", now.Sub(h.first))
}

// release fires from h's timer. The entry may already have been sent or
// replaced by a newer burst under the same key.
func (d *Debouncer) release(key string, h *heldEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.held[key] == h {
		d.sendLocked(key, h)
	}
}

func (d *Debouncer) sendLocked(key string, h *heldEvent) {
	h.timer.Stop()
	delete(d.held, key)

	ev := h.latest
	d.sending.Go(func() {
		d.out.DispatchEvent(d.stopped, ev)
	})
}

// Flush sends every held event now.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for key, h := range d.held {
		d.sendLocked(key, h)
	}
}

// Stop flushes held events and waits until they reach the dispatcher.
func (d *Debouncer) Stop() {
	d.Flush()
	d.sending.Wait()
	d.stop()
}

// PendingCount returns how many events are being held.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.held)
}
