// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type decodeTarget struct {
	Name string `json:"name"`
}

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Lola"}`, ""},
		{"empty", ``, "request body is empty"},
		{"unknown field", `{"name":"Lola","age":80}`, "invalid JSON"},
		{"malformed", `{"name":`, "invalid JSON"},
		{"two objects", `{"name":"a"} {"name":"b"}`, "single JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var v decodeTarget
			err := DecodeJSON(httptest.NewRecorder(), req, &v)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Lola", v.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	body := `{"name":"` + strings.Repeat("a", MaxJSONBodyBytes) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var v decodeTarget
	assert.ErrorIs(t, DecodeJSON(httptest.NewRecorder(), req, &v), ErrBodyTooLarge)
}

func TestQueryParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?q=%20lola%20&empty=", nil)
	assert.Equal(t, "lola", QueryParam(req, "q"))
	assert.Equal(t, "", QueryParam(req, "empty"))
	assert.Equal(t, "", QueryParam(req, "missing"))
}
