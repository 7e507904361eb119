package apidocs

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDocument(t *testing.T) map[string]interface{} {
	t.Helper()
	body, err := JSON()
	require.NoError(t, err)
	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &doc))
	return doc
}

func TestJSON_CoversEveryRouteGroup(t *testing.T) {
	doc := decodeDocument(t)
	assert.Equal(t, "3.0.3", doc["openapi"])

	paths, ok := doc["paths"].(map[string]interface{})
	require.True(t, ok, "paths must be an object")
	for _, p := range []string{
		"/auth/signup",
		"/auth/login",
		"/auth/login-admin",
		"/auth/all",
		"/auth/{id}",
		"/auth/update-role/{id}",
		"/auth/delete/{id}",
		"/api/order-groups/",
		"/api/order-groups/{id}",
		"/api/order-groups/ordersbyuser/{id}",
		"/api/inventory/",
		"/api/inventory/{id}",
		"/api/inventory/{id}/ingredientes",
		"/api/ingredientes/",
		"/api/ingredientes/{id}",
		"/api/stats/top-users",
		"/api/stats/profit",
	} {
		assert.Contains(t, paths, p)
	}

	orderGroup := paths["/api/order-groups/{id}"].(map[string]interface{})
	for _, method := range []string{"get", "patch", "delete"} {
		assert.Contains(t, orderGroup, method)
	}
}

func TestJSON_BearerAuth(t *testing.T) {
	doc := decodeDocument(t)
	components := doc["components"].(map[string]interface{})
	schemes := components["securitySchemes"].(map[string]interface{})
	bearer, ok := schemes["bearerAuth"].(map[string]interface{})
	require.True(t, ok, "bearerAuth scheme missing")
	assert.Equal(t, "http", bearer["type"])
	assert.Equal(t, "bearer", bearer["scheme"])
	assert.Equal(t, "JWT", bearer["bearerFormat"])

	paths := doc["paths"].(map[string]interface{})
	profit := paths["/api/stats/profit"].(map[string]interface{})["get"].(map[string]interface{})
	assert.Equal(t, []interface{}{map[string]interface{}{"bearerAuth": []interface{}{}}}, profit["security"])
}

func TestJSON_ReferencesResolve(t *testing.T) {
	body, err := JSON()
	require.NoError(t, err)
	doc := decodeDocument(t)
	components := doc["components"].(map[string]interface{})

	var refs []string
	var walk func(v interface{})
	walk = func(v interface{}) {
		switch v := v.(type) {
		case map[string]interface{}:
			for k, child := range v {
				if k == "$ref" {
					refs = append(refs, child.(string))
					continue
				}
				walk(child)
			}
		case []interface{}:
			for _, child := range v {
				walk(child)
			}
		}
	}
	walk(doc)
	require.NotEmpty(t, refs, "document has no references: %s", body)

	for _, ref := range refs {
		parts := strings.Split(strings.TrimPrefix(ref, "#/components/"), "/")
		require.Len(t, parts, 2, ref)
		section, ok := components[parts[0]].(map[string]interface{})
		require.True(t, ok, "unknown section in %s", ref)
		assert.Contains(t, section, parts[1], "dangling reference %s", ref)
	}
}

func TestToJSON_InvalidYAML(t *testing.T) {
	_, err := toJSON([]byte("paths: [unclosed"))
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	rr := httptest.NewRecorder()
	Handler(rr, httptest.NewRequest(http.MethodGet, "/api-docs/openapi.json", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.True(t, json.Valid(rr.Body.Bytes()))
	assert.Contains(t, rr.Body.String(), `"bearerAuth"`)
}
