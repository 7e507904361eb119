package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cafebar/api/internal/auth"
	"github.com/cafebar/api/internal/enum"
	mw "github.com/cafebar/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

// --- Publisher mock ---

type publishedEvent struct {
	Type    string
	Payload any
}

type mockPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (m *mockPublisher) Publish(eventType string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, publishedEvent{Type: eventType, Payload: payload})
}

func (m *mockPublisher) types() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.events))
	for i, e := range m.events {
		out[i] = e.Type
	}
	return out
}

func assertEvents(t *testing.T, pub *mockPublisher, want ...string) {
	t.Helper()
	got := pub.types()
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected events %v, got %v", want, got)
		}
	}
}

// --- Request helpers ---

// authedRouter mounts routes behind the real authentication middleware.
func authedRouter(pattern string, register func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Route(pattern, func(r chi.Router) {
		r.Use(mw.Authenticate(testSecret))
		register(r)
	})
	return r
}

// splitRouter mounts public routes open and staff routes behind
// authentication plus an admin/staff role check.
func splitRouter(pattern string, public, staff func(chi.Router)) *chi.Mux {
	r := chi.NewRouter()
	r.Route(pattern, func(r chi.Router) {
		public(r)
		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate(testSecret))
			r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff))
			staff(r)
		})
	})
	return r
}

func tokenFor(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token, err := auth.GenerateToken(testSecret, userID, role, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	return doAuthedRequest(t, router, method, path, "", body)
}

func doAuthedRequest(t *testing.T, router http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != nil {
		var b []byte
		if raw, ok := body.(string); ok {
			b = []byte(raw)
		} else {
			var err error
			b, err = json.Marshal(body)
			if err != nil {
				t.Fatalf("marshal request: %v", err)
			}
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func decodeObject(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func decodeList(t *testing.T, rr *httptest.ResponseRecorder) []map[string]interface{} {
	t.Helper()
	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return resp
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func expectError(t *testing.T, rr *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	expectStatus(t, rr, status)
	resp := decodeObject(t, rr)
	if resp["error"] != msg {
		t.Fatalf("expected error %q, got %v", msg, resp["error"])
	}
}
