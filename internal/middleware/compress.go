// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"bytes"
	"compress/gzip"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

var gzips = sync.Pool{New: func() any { return gzip.NewWriter(io.Discard) }}

// Record lists embed photos as base64 data URLs and shrink well.
var compressible = map[string]bool{
	"application/json": true,
	"text/plain":       true,
}

// Compress gzips JSON and text responses of at least minSize bytes when the
// client accepts gzip. The body is buffered until the handler returns.
func Compress(minSize int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !acceptsGzip(r) {
				next.ServeHTTP(w, r)
				return
			}
			bw := &bufferedWriter{ResponseWriter: w}
			next.ServeHTTP(bw, r)
			bw.flushTo(w, minSize)
		})
	}
}

func acceptsGzip(r *http.Request) bool {
	for part := range strings.SplitSeq(r.Header.Get("Accept-Encoding"), ",") {
		enc, _, _ := strings.Cut(strings.TrimSpace(part), ";")
		if strings.EqualFold(enc, "gzip") {
			return true
		}
	}
	return false
}

type bufferedWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedWriter) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedWriter) Write(p []byte) (int, error) {
	return b.body.Write(p)
}

func (b *bufferedWriter) flushTo(w http.ResponseWriter, minSize int) {
	h := w.Header()
	gz := b.body.Len() >= minSize && isCompressible(h.Get("Content-Type"))
	if gz {
		h.Del("Content-Length")
		h.Set("Content-Encoding", "gzip")
		h.Add("Vary", "Accept-Encoding")
	}
	if b.status != 0 {
		w.WriteHeader(b.status)
	}
	if b.body.Len() == 0 {
		return
	}
	if !gz {
		_, _ = b.body.WriteTo(w)
		return
	}

	zw := gzips.Get().(*gzip.Writer)
	defer gzips.Put(zw)
	zw.Reset(w)
	_, _ = b.body.WriteTo(zw)
	_ = zw.Close()
}

func isCompressible(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && compressible[mediaType]
}
