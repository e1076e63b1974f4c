// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package registry

import (
	"fmt"
	"math/rand/v2"

	"github.com/google/uuid"
)

// GenerateControlNumber returns a card control number PLN-<year>-<10000..99999>
// for the current year. Numbers are random and may repeat.
func (r *Registry) GenerateControlNumber() string {
	return fmt.Sprintf("PLN-%d-%d", r.now().Year(), 10000+rand.IntN(90000))
}

// GenerateApplicationID returns an application reference APP-<100000..999999>.
// References are random and may repeat.
func (r *Registry) GenerateApplicationID() string {
	return fmt.Sprintf("APP-%d", 100000+rand.IntN(900000))
}

func newID() string {
	return uuid.NewString()
}
