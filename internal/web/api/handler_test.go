package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/wirequery/internal/query/testmodel"
	"github.com/conduit-lang/wirequery/internal/web/api"
	"github.com/conduit-lang/wirequery/internal/web/cache"
	"github.com/conduit-lang/wirequery/internal/web/response"
)

func newHandler(t *testing.T, maxTop int) *api.Handler {
	t.Helper()
	h, err := api.New(api.Config{Registry: testmodel.New().Registry, CacheSize: 16, MaxTop: maxTop})
	require.NoError(t, err)
	return h
}

func get(t *testing.T, h http.Handler, path string, values url.Values) *httptest.ResponseRecorder {
	t.Helper()
	target := path
	if len(values) > 0 {
		target += "?" + values.Encode()
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNormalize(t *testing.T) {
	h := newHandler(t, 0)

	rec := get(t, h, "/types/Model.Item/query", url.Values{
		"$filter":  {"Price gt 20 and B/Label eq 'x'"},
		"$orderby": {"Name desc"},
		"$top":     {"5"},
		"$select":  {"Id,B/*"},
		"page":     {"2"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body api.QueryResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Model.Item", body.Type)
	assert.Equal(t, map[string]string{
		"$filter":  "(Price gt 20) and (B/Label eq 'x')",
		"$orderby": "Name desc",
		"$top":     "5",
		"$select":  "Id,B/*",
	}, body.Options)
	assert.Equal(t,
		"$filter=%28Price%20gt%2020%29%20and%20%28B%2FLabel%20eq%20%27x%27%29&$orderby=Name%20desc&$top=5&$select=Id%2CB%2F%2A",
		body.Query)
}

func TestNormalizeUsesCache(t *testing.T) {
	h := newHandler(t, 0)
	values := url.Values{"$filter": {"Flag"}, "$top": {"1"}}

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, get(t, h, "/types/model.item/query", values).Code)
	}
	assert.Equal(t, cache.Stats{Entries: 1, Hits: 2, Misses: 1}, h.Cache().Stats())

	rec := get(t, h, "/stats", nil)
	var stats cache.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.Hits)
}

func TestNormalizeErrors(t *testing.T) {
	h := newHandler(t, 100)

	tests := []struct {
		name   string
		path   string
		values url.Values
		status int
		code   string
	}{
		{"unknown property", "/types/Model.Item/query", url.Values{"$filter": {"Nope eq 1"}}, http.StatusBadRequest, "PRS004"},
		{"malformed filter", "/types/Model.Item/query", url.Values{"$filter": {"Price gt"}}, http.StatusBadRequest, "PRS002"},
		{"unknown option", "/types/Model.Item/query", url.Values{"$expand": {"B"}}, http.StatusBadRequest, "PRS009"},
		{"top above maximum", "/types/Model.Item/query", url.Values{"$top": {"101"}}, http.StatusBadRequest, "PRS009"},
		{"unknown type", "/types/Model.Nope/query", nil, http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.path, tt.values)
			assert.Equal(t, tt.status, rec.Code)

			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
		})
	}

	assert.Equal(t, 0, h.Cache().Stats().Entries, "failed decodes are not cached")
}

func TestTypes(t *testing.T) {
	h := newHandler(t, 0)

	rec := get(t, h, "/types", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var types []api.TypeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &types))
	require.Len(t, types, 4)
	assert.Equal(t, "Model.Bravo", types[0].Name)

	rec = get(t, h, "/types/Model.Bravo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var bravo api.TypeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &bravo))
	assert.Contains(t, bravo.Properties, api.PropertyResponse{Name: "Label", Type: "Edm.String"})
}

func TestHealthAndRoutes(t *testing.T) {
	h := newHandler(t, 0)

	rec := get(t, h, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = get(t, h, "/routes", nil)
	var routes []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &routes))
	assert.Len(t, routes, 6)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/nowhere", nil).Code)
}

func TestNewValidation(t *testing.T) {
	_, err := api.New(api.Config{})
	assert.Error(t, err)

	_, err = api.New(api.Config{Registry: testmodel.New().Registry, MaxTop: -1})
	assert.Error(t, err)
}

func TestNormalizeETag(t *testing.T) {
	h := newHandler(t, 0)

	first := get(t, h, "/types/Model.Item/query", url.Values{"$top": {"5"}, "$filter": {"Price gt 1"}})
	require.Equal(t, http.StatusOK, first.Code)
	etag := first.Header().Get("ETag")
	require.NotEmpty(t, etag)

	// a different spelling of the same query carries the same tag
	second := get(t, h, "/types/model.item/query", url.Values{"$filter": {"(Price gt 1)"}, "$top": {"5"}})
	assert.Equal(t, etag, second.Header().Get("ETag"))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/types/Model.Item/query?%24top=5&%24filter=Price+gt+1", nil)
	req.Header.Set("If-None-Match", etag)
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCORS(t *testing.T) {
	h, err := api.New(api.Config{Registry: testmodel.New().Registry, AllowedOrigins: []string{"https://app.example.com"}})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/types/Model.Item/query", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/types", nil)
	req.Header.Set("Origin", "https://other.example.com")
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))

	// without configured origins no CORS headers are sent
	rec = httptest.NewRecorder()
	newHandler(t, 0).ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Vary"))
}
