package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundprediction/lancong"
	"github.com/soundprediction/lancong/pkg/config"
	"github.com/soundprediction/lancong/pkg/crossencoder"
	"github.com/soundprediction/lancong/pkg/driver/drivertest"
	"github.com/soundprediction/lancong/pkg/embedder"
	"github.com/soundprediction/lancong/pkg/enrich"
	"github.com/soundprediction/lancong/pkg/types"
	"github.com/soundprediction/lancong/pkg/wikidata"
)

const testDims = 256

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:      "localhost",
			Port:      8080,
			Mode:      gin.TestMode,
			MaxK:      100,
			MaxEnrich: 20,
		},
	}
}

func newTestServer(t *testing.T) (*Server, *drivertest.MemoryDriver) {
	t.Helper()
	ctx := context.Background()
	d := drivertest.New(testDims)
	e := embedder.NewMockEmbedder(testDims)

	add := func(id int64, name, desc string) {
		vec, err := e.EmbedSingle(ctx, name)
		require.NoError(t, err)
		d.AddPlace(map[string]any{"id": id, "name": name, "city": "Bogor", "description": desc, "embedding": vec})
	}
	for i := 1; i <= 25; i++ {
		add(int64(i), fmt.Sprintf("Curug %d", i), "air terjun di hutan")
	}
	add(100, "Kebun Raya Bogor", "taman botani")
	d.Packages = []drivertest.MemoryPackage{{ID: 1, City: "Bogor", PlaceIDs: []int64{1, 100}}}

	kb := wikidata.ResolverFunc(func(ctx context.Context, name, locale string) wikidata.LookupResult {
		if name == "Kebun Raya Bogor" {
			return wikidata.LookupResult{Status: wikidata.Found, Entity: wikidata.Entity{URI: types.StringPtr("http://www.wikidata.org/entity/Q1")}}
		}
		return wikidata.LookupResult{Status: wikidata.NotFound}
	})

	lc := lancong.DefaultConfig()
	lc.Search.Dimensions = testDims
	scorer := crossencoder.NewMockRerankerClient(crossencoder.Config{})
	client, err := lancong.NewClient(d, e, scorer, enrich.NewResolver(kb, "id", nil, nil), lc, nil)
	require.NoError(t, err)

	s := New(testConfig(), client, nil)
	s.Setup()
	return s, d
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var decoded map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(w.Body.Bytes(), &decoded)
	}
	return w, decoded
}

func TestSetup(t *testing.T) {
	s := New(testConfig(), nil, nil)
	s.Setup()

	require.NotNil(t, s.router)
	require.NotNil(t, s.server)
	assert.Equal(t, "localhost:8080", s.server.Addr)
}

func TestHealthEndpointsWithoutClient(t *testing.T) {
	s := New(testConfig(), nil, nil)
	s.Setup()

	w, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, s, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	w, _ = do(t, s, http.MethodGet, "/search?query=x", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReadyWithStore(t *testing.T) {
	s, d := newTestServer(t)

	w, _ := do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	d.Err = fmt.Errorf("connection refused")
	w, _ = do(t, s, http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCORSMiddleware(t *testing.T) {
	s := New(testConfig(), nil, nil)
	s.Setup()

	w, _ := do(t, s, http.MethodOptions, "/health", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Methods"))
}

func TestRequestID(t *testing.T) {
	s := New(testConfig(), nil, nil)
	s.Setup()

	w, _ := do(t, s, http.MethodGet, "/health", "")
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestMetricsEndpoint(t *testing.T) {
	s := New(testConfig(), nil, nil)
	s.Setup()

	w, _ := do(t, s, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSearchRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name     string
		path     string
		total    int
		strategy string
	}{
		{"lexical", "/search?query=curug", 20, lancong.StrategyLexical},
		{"lexical empty", "/search?query=nothing", 0, lancong.StrategyLexical},
		{"vector", "/search/vector?query=curug&k=7", 7, lancong.StrategyVector},
		{"rerank", "/search/rerank?query=curug&initial_k=20&top_k=5", 5, lancong.StrategyRerank},
		{"rerank defaults", "/search/rerank?query=curug", 5, lancong.StrategyRerank},
		{"advanced", "/search/rerank/advanced?query=air+terjun&initial_k=10&top_k=3&description_weight=0.5", 3, lancong.StrategyRerankAdvanced},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, s, http.MethodGet, tt.path, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.strategy, body["strategy"])
			assert.EqualValues(t, tt.total, body["total"])
			assert.Len(t, body["results"], tt.total)
		})
	}
}

func TestSearchEnrichment(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := do(t, s, http.MethodGet, "/search?query=kebun&enrich=true", "")
	require.Equal(t, http.StatusOK, w.Code)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	place := results[0].(map[string]any)["place"].(map[string]any)
	assert.Equal(t, "http://www.wikidata.org/entity/Q1", place["wikidata_entity"])
	assert.Contains(t, place, "image")
	assert.Nil(t, place["image"])
	assert.NotContains(t, place, "embedding")
}

func TestSearchValidation(t *testing.T) {
	s, _ := newTestServer(t)

	tests := []struct {
		name string
		path string
	}{
		{"initial_k below top_k", "/search/rerank?query=curug&initial_k=3&top_k=5"},
		{"k above cap", "/search/vector?query=curug&k=101"},
		{"initial_k above cap", "/search/rerank?query=curug&initial_k=500&top_k=5"},
		{"max_enrich above cap", "/search?query=curug&enrich=true&max_enrich=21"},
		{"k not a number", "/search/vector?query=curug&k=many"},
		{"k zero", "/search/vector?query=curug&k=0"},
		{"weight out of range", "/search/rerank/advanced?query=curug&description_weight=1.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := do(t, s, http.MethodGet, tt.path, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "invalid_request", body["error"])
		})
	}
}

func TestPlaceRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := do(t, s, http.MethodGet, "/places/100", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Kebun Raya Bogor", body["name"])

	w, _ = do(t, s, http.MethodGet, "/places/999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s, http.MethodGet, "/places/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, body = do(t, s, http.MethodGet, "/infobox/100", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "taman botani", body["description"])
	assert.Equal(t, "http://www.wikidata.org/entity/Q1", body["wikidata_entity"])

	w, body = do(t, s, http.MethodGet, "/infobox/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, body, "wikidata_entity")
	assert.Nil(t, body["wikidata_entity"])

	w, _ = do(t, s, http.MethodGet, "/infobox/999999", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackageRoutes(t *testing.T) {
	s, _ := newTestServer(t)

	w, body := do(t, s, http.MethodGet, "/packages", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])

	w, body = do(t, s, http.MethodGet, "/packages/1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Bogor", body["city"])
	assert.Len(t, body["places"], 2)

	req := httptest.NewRequest(http.MethodGet, "/packages/1/places", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	var places []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &places))
	assert.Len(t, places, 2)

	w, _ = do(t, s, http.MethodGet, "/packages/9", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s, http.MethodGet, "/packages?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQueryRoute(t *testing.T) {
	s, d := newTestServer(t)
	d.Rows = []map[string]any{{"n": int64(26)}}

	w, body := do(t, s, http.MethodPost, "/query", `{"cypher": "MATCH (p:Place) RETURN count(p) AS n"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["total"])

	w, body = do(t, s, http.MethodPost, "/query", `{"cypher": "MATCH (n) DETACH DELETE n"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, body["message"], "delete")

	w, _ = do(t, s, http.MethodPost, "/query", `{"cypher": "  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, s, http.MethodPost, "/query", `not json`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	d.Err = fmt.Errorf("syntax error")
	w, body = do(t, s, http.MethodPost, "/query", `{"cypher": "MATCH (p RETURN p"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal_error", body["error"])
}
