package hscode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL, APIKey: "test-key"})
	require.NoError(t, err)
	return client
}

func TestNewClient_RejectsMalformedBaseURL(t *testing.T) {
	_, err := NewClient(ClientConfig{BaseURL: "://nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid base URL")
}

func TestClient_Search_DecodesClassification(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req SearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "свежие томаты", req.Query)
		assert.Equal(t, "ru", req.Language)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SearchResponse{
			Status:     StatusHighConfidence,
			Message:    "Найдено точное соответствие",
			BestMatch:  &Match{Code: "0702000000", Description: "томаты свежие", Confidence: 0.93, Source: "hybrid"},
			Confidence: 0.93,
			Diagnostics: Diagnostics{
				TraceID:          "t-1",
				Source:           "hybrid",
				TotalCandidates:  12,
				ProcessingTimeMS: 41,
			},
		})
	})

	resp, err := client.Search(context.Background(), SearchRequest{Query: "свежие томаты", Language: "ru"})
	require.NoError(t, err)

	assert.Equal(t, StatusHighConfidence, resp.Status)
	assert.True(t, resp.Status.Found())
	require.NotNil(t, resp.BestMatch)
	assert.Equal(t, "0702000000", resp.BestMatch.Code)
	assert.Equal(t, "hybrid", resp.Diagnostics.Source)
	assert.Equal(t, 12, resp.Diagnostics.TotalCandidates)
}

func TestClient_Search_MapsErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"query must not be blank"}`))
	})

	_, err := client.Search(context.Background(), SearchRequest{Query: "  "})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "query must not be blank", apiErr.Message)
}

func TestClient_Search_FallsBackToStatusText(t *testing.T) {
	// A proxy in front of the service answers with plain text, not the
	// service envelope.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("upstream unreachable"))
	})

	_, err := client.Search(context.Background(), SearchRequest{Query: "tomatoes"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
	assert.Equal(t, "Bad Gateway", apiErr.Message)
}

func TestClient_LookupCode_FetchesEntry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/v1/codes/0702000000", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"0702000000","description":"томаты свежие или охлажденные","language":"ru"}`))
	})

	entry, err := client.LookupCode(context.Background(), "0702000000")
	require.NoError(t, err)
	assert.Equal(t, "0702000000", entry.Code)
	assert.Equal(t, "томаты свежие или охлажденные", entry.Description)
}

func TestClient_CodeChildren_PassesLimit(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/codes/0702/children", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"0702","children":[{"code":"0702000000","description":"томаты свежие"}],"total":1}`))
	})

	children, err := client.CodeChildren(context.Background(), "0702", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, children.Total)
	require.Len(t, children.Children, 1)
	assert.Equal(t, "0702000000", children.Children[0].Code)
}

func TestClient_CodeChildren_ZeroLimitUsesServerDefault(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.False(t, r.URL.Query().Has("limit"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"0702","children":[],"total":0}`))
	})

	_, err := client.CodeChildren(context.Background(), "0702", 0)
	require.NoError(t, err)
}

func TestClient_Stats_DecodesIndexAndCache(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/stats", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"index":{"entries":14500,"vocabulary":25000,"vectors":14500,"degraded":0,"dimension":768,"build_ms":91000,"built_at":"2026-08-23T10:00:00Z"},"cache":{"hits":10,"misses":4,"stored":4,"dropped":0}}`))
	})

	stats, err := client.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 14500, stats.Index.Entries)
	assert.Equal(t, 768, stats.Index.Dimension)
	assert.Equal(t, int64(10), stats.Cache.Hits)
}

func TestClient_Ready_ReportsBuildState(t *testing.T) {
	ready := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(`{"status":"building"}`))
			return
		}
		w.Write([]byte(`{"status":"ready"}`))
	})

	ok, err := client.Ready(context.Background())
	require.NoError(t, err)
	assert.False(t, ok, "a building server is not ready, but that is not an error")

	ready = true
	ok, err = client.Ready(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_Health_DecodesServiceName(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"healthy","service":"hscode-engine"}`))
	})

	health, err := client.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "hscode-engine", health.Service)
}

func TestClient_NoAPIKeyOmitsHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present := r.Header["X-Api-Key"]
		assert.False(t, present)
		w.Write([]byte(`{"status":"healthy","service":"hscode-engine"}`))
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(ClientConfig{BaseURL: server.URL})
	require.NoError(t, err)

	_, err = client.Health(context.Background())
	require.NoError(t, err)
}
