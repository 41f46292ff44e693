package googlebooks

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	pkgerrors "booklib-backend/pkg/errors"
)

func TestLookup_Match(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.Query().Get("q")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"items": [{
				"volumeInfo": {
					"title": "Dune",
					"authors": ["Frank Herbert", "Someone Else"],
					"description": "A desert planet",
					"categories": ["Science Fiction", "Classics"],
					"imageLinks": {"thumbnail": "https://example.com/dune.jpg"}
				}
			}]
		}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	meta, err := client.Lookup(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, meta)

	assert.Equal(t, "/volumes", gotPath)
	assert.Equal(t, "isbn:9780441013593", gotQuery)
	assert.Equal(t, "Dune", meta.Title)
	assert.Equal(t, "Frank Herbert, Someone Else", meta.Author)
	assert.Equal(t, "Science Fiction", meta.Genre)
	assert.Equal(t, "A desert planet", meta.Description)
	assert.Equal(t, "https://example.com/dune.jpg", meta.CoverImageURL)
}

func TestLookup_NoMatchIsNilNil(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	meta, err := client.Lookup(context.Background(), "9780000000000")
	require.NoError(t, err)
	assert.Nil(t, meta)
}

func TestLookup_MissingThumbnailGetsDefaultCover(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items": [{"volumeInfo": {"title": "Dune", "authors": ["Frank Herbert"]}}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	meta, err := client.Lookup(context.Background(), "9780441013593")
	require.NoError(t, err)
	require.NotNil(t, meta)
	assert.Equal(t, defaultCoverURL, meta.CoverImageURL)
	assert.Empty(t, meta.Genre)
}

func TestLookup_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	_, err := client.Lookup(context.Background(), "9780441013593")
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestLookup_UnreachableIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	_, err := client.Lookup(context.Background(), "9780441013593")
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestLookup_SlowProviderTimesOutAsUnavailable(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL, "", zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Lookup(ctx, "9780441013593")
	assert.True(t, pkgerrors.IsUnavailable(err))
}

func TestLookup_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, "", zap.NewNop())

	// Enough consecutive failures to trip the breaker; once open,
	// lookups still surface as unavailable without hitting the server.
	for i := 0; i < 8; i++ {
		_, err := client.Lookup(context.Background(), "9780441013593")
		assert.True(t, pkgerrors.IsUnavailable(err))
	}
}

func TestLookup_SendsAPIKeyWhenConfigured(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		w.Write([]byte(`{"items": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "secret-key", zap.NewNop())

	_, err := client.Lookup(context.Background(), "9780441013593")
	require.NoError(t, err)
	assert.Equal(t, "secret-key", gotKey)
}
