package handler_test

import (
	"testing"

	"github.com/cafebar/api/internal/enum"
	"github.com/cafebar/api/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func setupUserRouter(store *mockUserDB, pub *mockPublisher) *chi.Mux {
	h := handler.NewUserHandler(store, pub)
	return authedRouter("/auth", h.RegisterRoutes)
}

func TestListUsers_AdminOnly(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	staff := store.addUser(t, "barista", "pw", enum.UserRoleStaff)
	router := setupUserRouter(store, &mockPublisher{})

	rr := doAuthedRequest(t, router, "GET", "/auth/all", tokenFor(t, admin.ID, admin.Role), nil)
	expectStatus(t, rr, 200)
	if got := len(decodeList(t, rr)); got != 2 {
		t.Fatalf("expected 2 users, got %d", got)
	}

	rr = doAuthedRequest(t, router, "GET", "/auth/all", tokenFor(t, staff.ID, staff.Role), nil)
	expectError(t, rr, 403, "insufficient permissions")

	rr = doRequest(t, router, "GET", "/auth/all", nil)
	expectError(t, rr, 401, "missing authorization header")
}

func TestGetUser_SelfOrAdmin(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	ana := store.addUser(t, "ana", "pw", enum.UserRoleCustomer)
	bia := store.addUser(t, "bia", "pw", enum.UserRoleCustomer)
	router := setupUserRouter(store, &mockPublisher{})

	rr := doAuthedRequest(t, router, "GET", "/auth/"+ana.ID.String(), tokenFor(t, ana.ID, ana.Role), nil)
	expectStatus(t, rr, 200)
	if resp := decodeObject(t, rr); resp["username"] != "ana" {
		t.Fatalf("expected ana, got %v", resp["username"])
	}

	rr = doAuthedRequest(t, router, "GET", "/auth/"+ana.ID.String(), tokenFor(t, bia.ID, bia.Role), nil)
	expectError(t, rr, 403, "insufficient permissions")

	rr = doAuthedRequest(t, router, "GET", "/auth/"+ana.ID.String(), tokenFor(t, admin.ID, admin.Role), nil)
	expectStatus(t, rr, 200)
}

func TestGetUser_NotFound(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	router := setupUserRouter(store, &mockPublisher{})

	rr := doAuthedRequest(t, router, "GET", "/auth/"+uuid.NewString(), tokenFor(t, admin.ID, admin.Role), nil)
	expectError(t, rr, 404, "user not found")
}

func TestGetUser_InvalidID(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	router := setupUserRouter(store, &mockPublisher{})

	rr := doAuthedRequest(t, router, "GET", "/auth/not-a-uuid", tokenFor(t, admin.ID, admin.Role), nil)
	expectError(t, rr, 400, "invalid user id")
}

func TestUpdateRole(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	ana := store.addUser(t, "ana", "pw", enum.UserRoleCustomer)
	pub := &mockPublisher{}
	router := setupUserRouter(store, pub)
	token := tokenFor(t, admin.ID, admin.Role)

	rr := doAuthedRequest(t, router, "PATCH", "/auth/update-role/"+ana.ID.String(), token, map[string]string{"role": enum.UserRoleStaff})
	expectStatus(t, rr, 200)
	if store.users[ana.ID].Role != enum.UserRoleStaff {
		t.Fatalf("expected role staff, got %s", store.users[ana.ID].Role)
	}
	assertEvents(t, pub, enum.EventUserRoleUpdated)

	rr = doAuthedRequest(t, router, "PATCH", "/auth/update-role/"+ana.ID.String(), token, map[string]string{"role": "owner"})
	expectError(t, rr, 400, "invalid role")

	rr = doAuthedRequest(t, router, "PATCH", "/auth/update-role/"+uuid.NewString(), token, map[string]string{"role": enum.UserRoleStaff})
	expectError(t, rr, 404, "user not found")
}

func TestUpdateRole_NonAdminForbidden(t *testing.T) {
	store := newMockUserDB()
	staff := store.addUser(t, "barista", "pw", enum.UserRoleStaff)
	pub := &mockPublisher{}
	router := setupUserRouter(store, pub)

	rr := doAuthedRequest(t, router, "PATCH", "/auth/update-role/"+staff.ID.String(), tokenFor(t, staff.ID, staff.Role), map[string]string{"role": enum.UserRoleAdmin})
	expectError(t, rr, 403, "insufficient permissions")
	if store.users[staff.ID].Role != enum.UserRoleStaff {
		t.Fatal("role must not change")
	}
	assertEvents(t, pub)
}

func TestDeleteUser(t *testing.T) {
	store := newMockUserDB()
	admin := store.addUser(t, "boss", "pw", enum.UserRoleAdmin)
	ana := store.addUser(t, "ana", "pw", enum.UserRoleCustomer)
	pub := &mockPublisher{}
	router := setupUserRouter(store, pub)
	token := tokenFor(t, admin.ID, admin.Role)

	rr := doAuthedRequest(t, router, "DELETE", "/auth/delete/"+ana.ID.String(), token, nil)
	expectStatus(t, rr, 200)
	if _, ok := store.users[ana.ID]; ok {
		t.Fatal("user still present after delete")
	}
	assertEvents(t, pub, enum.EventUserDeleted)

	rr = doAuthedRequest(t, router, "DELETE", "/auth/delete/"+ana.ID.String(), token, nil)
	expectError(t, rr, 404, "user not found")
}
