// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"path/filepath"
	"testing"
)

func TestSafeJoinPath(t *testing.T) {
	base := t.TempDir()

	got, err := SafeJoinPath(base, "backup-20250101.json")
	if err != nil {
		t.Fatalf("SafeJoinPath() error = %v", err)
	}
	if got != filepath.Join(base, "backup-20250101.json") {
		t.Errorf("SafeJoinPath() = %q", got)
	}

	for _, name := range []string{"../escape.json", "", ".", "a/../../b"} {
		if _, err := SafeJoinPath(base, name); err == nil {
			t.Errorf("SafeJoinPath(%q) expected error", name)
		}
	}
}
