// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides text folding and sanitizing helpers, outbound URL
// checks and safe path joining.
package util

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/unicode/norm"
)

var strictPolicy = bluemonday.StrictPolicy()

// FoldText lowercases s, transliterates it to ASCII and collapses runs of
// whitespace, so "José  DELA Cruz" and "jose dela cruz" fold to the same key.
func FoldText(s string) string {
	s = unidecode.Unidecode(norm.NFC.String(s))
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikeContains returns a LIKE pattern (escape character '\') matching any
// value that contains s.
func LikeContains(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// CleanText strips HTML markup from free-text input, normalizes it to NFC
// and trims surrounding whitespace.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = html.UnescapeString(strictPolicy.Sanitize(s))
	return strings.TrimSpace(norm.NFC.String(s))
}
