package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedReturnsFirstVector(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var payload struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "embed-model", payload.Model)
		assert.Equal(t, "some text", payload.Input)

		fmt.Fprint(w, `{"data":[{"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	vec, err := client.Embed(context.Background(), "embed-model", "  some text  ")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", APIKey: "k"})
	_, err := client.Embed(context.Background(), "embed-model", "   ")
	assert.Error(t, err)
}

func TestEmbedBatchPreservesOrder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Input []string `json:"input"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, []string{"first", "second"}, payload.Input)

		fmt.Fprint(w, `{"data":[{"embedding":[1]},{"embedding":[2]}]}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "test-key"})
	vecs, err := client.EmbedBatch(context.Background(), "embed-model", []string{"first", "second"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1}, vecs[0])
	assert.Equal(t, []float32{2}, vecs[1])
}

func TestEmbedBatchEmptySliceIsNoop(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused", APIKey: "k"})
	vecs, err := client.EmbedBatch(context.Background(), "embed-model", nil)
	require.NoError(t, err)
	assert.Nil(t, vecs)
}

func TestEmbedUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer server.Close()

	client := NewClient(Config{BaseURL: server.URL, APIKey: "wrong"})
	_, err := client.Embed(context.Background(), "embed-model", "text")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}
