// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package imaging normalizes the photo and signature images that arrive as
// data URLs: it decodes them, applies EXIF orientation, bounds their size and
// re-encodes them.
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/webp" // WebP decoder
)

// Errors returned by Normalize.
var (
	ErrInvalidDataURL     = errors.New("invalid image data URL")
	ErrUnsupportedFormat  = errors.New("unsupported image format")
	ErrImageTooLarge      = errors.New("image exceeds maximum size")
	ErrImageTooManyPixels = errors.New("image dimensions too large")
)

// Limits bound one kind of image.
type Limits struct {
	MaxInputBytes int // decoded payload size accepted
	MaxWidth      int // output is fitted inside MaxWidth x MaxHeight
	MaxHeight     int
	JPEGQuality   int // 0 keeps PNG output
}

// Processor normalizes photos and signatures.
type Processor struct {
	Photo     Limits
	Signature Limits
}

// NewProcessor returns a processor with the default limits: ID photos up to
// 600x600 as JPEG, signatures up to 600x200 as PNG.
func NewProcessor() *Processor {
	return &Processor{
		Photo:     Limits{MaxInputBytes: 8 << 20, MaxWidth: 600, MaxHeight: 600, JPEGQuality: 85},
		Signature: Limits{MaxInputBytes: 2 << 20, MaxWidth: 600, MaxHeight: 200},
	}
}

// NormalizePhoto normalizes a photo. Empty input and http(s) URLs are returned unchanged.
func (p *Processor) NormalizePhoto(src string) (string, error) {
	if src == "" || isRemoteURL(src) {
		return src, nil
	}
	return normalize(src, p.Photo)
}

// NormalizeSignature normalizes a signature. Empty input is returned unchanged.
func (p *Processor) NormalizeSignature(src string) (string, error) {
	if src == "" {
		return "", nil
	}
	return normalize(src, p.Signature)
}

func isRemoteURL(s string) bool {
	return strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "http://")
}

func normalize(dataURL string, lim Limits) (string, error) {
	data, err := DecodeDataURL(dataURL, lim.MaxInputBytes)
	if err != nil {
		return "", err
	}

	if detectFormat(data) == "" {
		return "", ErrUnsupportedFormat
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
	}
	if cfg.Width*cfg.Height > 40_000_000 {
		return "", ErrImageTooManyPixels
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decoding image: %w", err)
	}
	img = applyOrientation(img, readExifOrientation(bytes.NewReader(data)))

	b := img.Bounds()
	if b.Dx() > lim.MaxWidth || b.Dy() > lim.MaxHeight {
		img = imaging.Fit(img, lim.MaxWidth, lim.MaxHeight, imaging.Lanczos)
	}

	var buf bytes.Buffer
	mime := "image/png"
	if lim.JPEGQuality > 0 {
		mime = "image/jpeg"
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: lim.JPEGQuality})
	} else {
		err = png.Encode(&buf, img)
	}
	if err != nil {
		return "", fmt.Errorf("encoding image: %w", err)
	}

	return EncodeDataURL(mime, buf.Bytes()), nil
}

// DecodeDataURL returns the payload of a base64 data URL of an image type.
// A positive maxBytes limits the decoded size.
func DecodeDataURL(dataURL string, maxBytes int) ([]byte, error) {
	rest, ok := strings.CutPrefix(dataURL, "data:")
	if !ok {
		return nil, ErrInvalidDataURL
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok || !strings.HasPrefix(meta, "image/") || !strings.HasSuffix(meta, ";base64") {
		return nil, ErrInvalidDataURL
	}
	if maxBytes > 0 && base64.StdEncoding.DecodedLen(len(payload)) > maxBytes+3 {
		return nil, ErrImageTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataURL, err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, ErrImageTooLarge
	}
	return data, nil
}

// EncodeDataURL builds a base64 data URL.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// readExifOrientation returns 1 (normal) if orientation cannot be determined.
func readExifOrientation(r io.Reader) int {
	x, err := exif.Decode(r)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return orientation
}

// applyOrientation undoes the camera rotation named by an EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.FlipH(imaging.Rotate270(img))
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.FlipH(imaging.Rotate90(img))
	case 8:
		return imaging.Rotate90(img)
	default:
		return img
	}
}

// detectFormat sniffs the image format from raw bytes.
func detectFormat(data []byte) string {
	contentType := http.DetectContentType(data)
	// TIFF is refused outright (CVE-2023-36308 in disintegration/imaging).
	switch {
	case strings.Contains(contentType, "tiff"):
		return ""
	case strings.Contains(contentType, "jpeg"):
		return "jpeg"
	case strings.Contains(contentType, "png"):
		return "png"
	case strings.Contains(contentType, "gif"):
		return "gif"
	case strings.Contains(contentType, "webp"):
		return "webp"
	default:
		return ""
	}
}
