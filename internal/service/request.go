// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"

	"github.com/mileusna/useragent"
)

type requestInfoKey struct{}

// RequestInfo describes the client behind the current request.
type RequestInfo struct {
	IP        string
	UserAgent string
}

// WithRequestInfo attaches client details to ctx for audit entries.
func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

// RequestInfoFromContext returns the client details attached to ctx, if any.
func RequestInfoFromContext(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

// ClientDevice is a parsed user agent.
type ClientDevice struct {
	Browser    string `json:"browser"`
	OS         string `json:"os"`
	DeviceType string `json:"device_type"`
}

// ParseUserAgent extracts browser, OS and device type from a user agent string.
func ParseUserAgent(ua string) ClientDevice {
	parsed := useragent.Parse(ua)

	d := ClientDevice{Browser: parsed.Name, OS: parsed.OS}
	if d.Browser == "" {
		d.Browser = "Unknown"
	}
	if d.OS == "" {
		d.OS = "Unknown"
	}

	switch {
	case parsed.Mobile:
		d.DeviceType = "mobile"
	case parsed.Tablet:
		d.DeviceType = "tablet"
	case parsed.Bot:
		d.DeviceType = "bot"
	default:
		d.DeviceType = "desktop"
	}
	return d
}
