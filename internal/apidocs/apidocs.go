// Package apidocs serves the OpenAPI description of the HTTP API.
package apidocs

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed openapi.yaml
var document []byte

var (
	once      sync.Once
	rendered  []byte
	renderErr error
)

// JSON returns the embedded OpenAPI document converted to JSON. The
// conversion runs once.
func JSON() ([]byte, error) {
	once.Do(func() {
		rendered, renderErr = toJSON(document)
	})
	return rendered, renderErr
}

func toJSON(src []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := yaml.Unmarshal(src, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}
	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode openapi document: %w", err)
	}
	return out, nil
}

// Handler serves the document at GET /api-docs/openapi.json.
func Handler(w http.ResponseWriter, r *http.Request) {
	body, err := JSON()
	if err != nil {
		log.Printf("ERROR: render api docs: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"internal server error"}`)) //nolint:errcheck
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(body) //nolint:errcheck
}
