package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpext "github.com/flowforge/streamline/internal/infrastructure/extractors/http"
	"github.com/flowforge/streamline/internal/ports"
)

func TestExtractAll_SinglePageNoPagination(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"items": []map[string]any{{"sku": "X-1"}, {"sku": "X-2"}},
		})
	}))
	defer srv.Close()

	ext := httpext.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{
		"url": srv.URL,
		"pagination": map[string]any{
			"dataPath": "items",
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Envelopes, 2)
	assert.Equal(t, "X-1", result.Envelopes[0].Data["sku"])
}

func TestExtractAll_OffsetPaginationStopsWhenPageShort(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		offset := r.URL.Query().Get("offset")
		w.Header().Set("Content-Type", "application/json")
		if offset == "0" {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"items": []map[string]any{{"id": 1}, {"id": 2}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{{"id": 3}}})
	}))
	defer srv.Close()

	ext := httpext.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{
		"url": srv.URL,
		"pagination": map[string]any{
			"strategy": "offset",
			"dataPath": "items",
			"pageSize": 2,
			"maxPages": 5,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Len(t, result.Envelopes, 3)
}

func TestExtractAll_RetriesOnServerError(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{{"ok": true}}})
	}))
	defer srv.Close()

	ext := httpext.New()
	result, err := ext.ExtractAll(ports.ExtractorContext{Context: context.Background()}, map[string]any{
		"url": srv.URL,
		"pagination": map[string]any{
			"dataPath": "items",
		},
		"retry": map[string]any{
			"maxAttempts": 3,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	require.Len(t, result.Envelopes, 1)
}

func TestExtractAll_SecretInjectedAsHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"items": []map[string]any{}})
	}))
	defer srv.Close()

	ext := httpext.New()
	_, err := ext.ExtractAll(ports.ExtractorContext{
		Context: context.Background(),
		Secrets: fakeSecrets{"api-key": "Bearer abc123"},
	}, map[string]any{
		"url":        srv.URL,
		"secretCode": "api-key",
		"pagination": map[string]any{"dataPath": "items"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc123", gotAuth)
}

type fakeSecrets map[string]string

func (f fakeSecrets) Resolve(_ context.Context, code string) (string, error) {
	return f[code], nil
}
