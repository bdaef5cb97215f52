package embedding

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Embed_ReturnsVectorsInInputOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)

		var req EmbeddingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"томаты", "огурцы"}, req.Input)

		// Deliberately out of order; the client must place by index.
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Object: "list",
			Data: []EmbeddingData{
				{Object: "embedding", Embedding: []float32{0, 1, 0}, Index: 1},
				{Object: "embedding", Embedding: []float32{1, 0, 0}, Index: 0},
			},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	vectors, err := client.Embed(context.Background(), []string{"томаты", "огурцы"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 0, 0}, {0, 1, 0}}, vectors)
	assert.Equal(t, 3, client.Dimension(), "dimension corrected from the live response")
}

func TestClient_Embed_RetriesOnceOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []EmbeddingData{{Embedding: []float32{1}, Index: 0}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	vectors, err := client.Embed(context.Background(), []string{"лук"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1}}, vectors)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_Embed_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Error: &EmbeddingError{Message: "input too long", Type: "invalid_request_error"},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"лук"})
	assert.ErrorContains(t, err, "input too long")
	assert.Equal(t, int32(1), calls.Load())
}

func TestClient_Embed_EmptyInput(t *testing.T) {
	client, err := NewClient(Config{BaseURL: "http://localhost:1"})
	require.NoError(t, err)

	vectors, err := client.Embed(context.Background(), nil)
	assert.NoError(t, err)
	assert.Nil(t, vectors)
}

func TestClient_Embed_MissingVectorIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(EmbeddingResponse{
			Data: []EmbeddingData{{Embedding: []float32{1}, Index: 0}},
		})
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL, RetryDelay: time.Millisecond})
	require.NoError(t, err)

	_, err = client.Embed(context.Background(), []string{"лук", "чеснок"})
	assert.ErrorContains(t, err, "no embedding for input 1")
}

func TestMockClient_DeterministicUnitVectors(t *testing.T) {
	mock := NewMockClient(8)

	first, err := mock.EmbedSingle(context.Background(), "помидоры свежие")
	require.NoError(t, err)
	second, err := mock.EmbedSingle(context.Background(), "помидоры свежие")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 8)

	var norm float64
	for _, x := range first {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-5)
}

func TestNewClient_Defaults(t *testing.T) {
	client, err := NewClient(Config{})
	require.NoError(t, err)

	assert.Equal(t, "sentence-transformers/LaBSE", client.Model())
	assert.Equal(t, 768, client.Dimension())
}
