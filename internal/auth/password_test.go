// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package auth

import (
	"strings"
	"testing"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=19456,t=2,p=1$") {
		t.Fatalf("unexpected hash prefix: %s", hash)
	}
	if !IsHash(hash) {
		t.Fatal("IsHash rejected a fresh hash")
	}
	if NeedsRehash(hash) {
		t.Fatal("fresh hash should not need rehash")
	}

	other, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if other == hash {
		t.Fatal("two hashes of the same password should differ by salt")
	}
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("password123")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}

	tests := []struct {
		password string
		want     bool
	}{
		{"password123", true},
		{"Password123", false},
		{"", false},
	}
	for _, tt := range tests {
		valid, err := CheckPassword(tt.password, hash)
		if err != nil {
			t.Fatalf("CheckPassword(%q) error: %v", tt.password, err)
		}
		if valid != tt.want {
			t.Errorf("CheckPassword(%q) = %v, want %v", tt.password, valid, tt.want)
		}
	}
}

func TestCheckPassword_OlderParameters(t *testing.T) {
	// Hash of "changeme" made with m=65536,t=1,p=4.
	oldHash := "$argon2id$v=19$m=65536,t=1,p=4$mucMvOaS6lZ2LWNS1OEFKw$UYEWv8cvCOO6l2zGeqv3JPVe1nyy0x9GXBfYEuDM544"

	valid, err := CheckPassword("changeme", oldHash)
	if err != nil {
		t.Fatalf("CheckPassword error: %v", err)
	}
	if !valid {
		t.Fatal("hash with older parameters rejected correct password")
	}
	if !NeedsRehash(oldHash) {
		t.Fatal("hash with older parameters should need rehash")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	for _, h := range []string{"", "password123", "$bcrypt$x$y$z$w", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		if _, err := CheckPassword("password123", h); err == nil {
			t.Errorf("CheckPassword(%q) expected error", h)
		}
		if IsHash(h) {
			t.Errorf("IsHash(%q) = true", h)
		}
		if !NeedsRehash(h) {
			t.Errorf("NeedsRehash(%q) = false", h)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err != ErrPasswordTooShort {
		t.Errorf("ValidatePassword(short) = %v", err)
	}
	if err := ValidatePassword(strings.Repeat("x", MaxPasswordLength+1)); err != ErrPasswordTooLong {
		t.Errorf("ValidatePassword(long) = %v", err)
	}
	if err := ValidatePassword("password123"); err != nil {
		t.Errorf("ValidatePassword(password123) = %v", err)
	}
}
