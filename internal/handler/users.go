package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	mw "github.com/cafebar/api/internal/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListUsers(ctx context.Context) ([]database.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	UpdateUserRole(ctx context.Context, arg database.UpdateUserRoleParams) (database.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// UserHandler handles user administration endpoints.
type UserHandler struct {
	store UserStore
	pub   Publisher
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore, pub Publisher) *UserHandler {
	return &UserHandler{store: store, pub: pub}
}

// RegisterRoutes registers user endpoints. Expected to be mounted at /auth
// behind mw.Authenticate.
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	admin := mw.RequireRole(enum.UserRoleAdmin)
	r.With(admin).Get("/all", h.List)
	r.Get("/{id}", h.Get)
	r.With(admin).Patch("/update-role/{id}", h.UpdateRole)
	r.With(admin).Delete("/delete/{id}", h.Delete)
}

type updateRoleRequest struct {
	Role string `json:"role"`
}

// List returns every user.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		internalError(w, r, "list users", err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one user. Non-admins may only read themselves.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}

	claims := mw.ClaimsFromContext(r.Context())
	if !mw.HasRole(claims, enum.UserRoleAdmin) && (claims == nil || claims.UserID != id) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	user, err := h.store.GetUserByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		internalError(w, r, "get user", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserResponse(user))
}

// UpdateRole changes a user's role.
func (h *UserHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}

	var req updateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !isValidRole(req.Role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return
	}

	user, err := h.store.UpdateUserRole(r.Context(), database.UpdateUserRoleParams{ID: id, Role: req.Role})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		internalError(w, r, "update user role", err)
		return
	}

	resp := toUserResponse(user)
	h.pub.Publish(enum.EventUserRoleUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a user. Their order groups stay, detached from any user.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}

	if _, err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "user not found"})
			return
		}
		internalError(w, r, "delete user", err)
		return
	}

	h.pub.Publish(enum.EventUserDeleted, map[string]uuid.UUID{"id": id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func isValidRole(role string) bool {
	switch role {
	case enum.UserRoleAdmin, enum.UserRoleStaff, enum.UserRoleCustomer:
		return true
	}
	return false
}
