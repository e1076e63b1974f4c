// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"fmt"
	"path/filepath"
	"strings"
)

// SafeJoinPath joins name onto base and fails if the result escapes base.
func SafeJoinPath(base, name string) (string, error) {
	absBase, err := filepath.Abs(filepath.Clean(base))
	if err != nil {
		return "", fmt.Errorf("invalid base path: %w", err)
	}
	full := filepath.Join(absBase, name)
	if full == absBase || !strings.HasPrefix(full, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes base directory", name)
	}
	return full, nil
}
