// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// Errors returned by registry operations. Match them with errors.Is.
var (
	ErrNotFound                = errors.New("not found")
	ErrInvalidTransition       = errors.New("invalid status transition")
	ErrVersionConflict         = errors.New("record was modified by someone else")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrApplicationNotDeletable = errors.New("pending applications cannot be deleted")
	ErrSelfDelete              = errors.New("cannot delete your own account")
	ErrLastAdmin               = errors.New("cannot remove the last admin")
	ErrDuplicateID             = errors.New("a record with this id already exists")

	errNoSessions = errors.New("registry: no session slot configured")
)

// ValidationError reports invalid input fields. Fields maps a field's JSON
// name to a message.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := slices.Sorted(maps.Keys(e.Fields))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+" "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
