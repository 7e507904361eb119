package handler

import (
	"context"
	"net/http"

	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// StatsServicer defines the dashboard queries.
// Satisfied by *service.StatsService.
type StatsServicer interface {
	TopUsers(ctx context.Context) ([]database.ListTopUsersRow, error)
	Profit(ctx context.Context) (service.Profit, error)
}

// StatsHandler handles dashboard statistics.
type StatsHandler struct {
	svc StatsServicer
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(svc StatsServicer) *StatsHandler {
	return &StatsHandler{svc: svc}
}

// RegisterRoutes registers stats endpoints. Expected at /api/stats behind
// a staff/admin check.
func (h *StatsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/top-users", h.TopUsers)
	r.Get("/profit", h.Profit)
}

type topUserResponse struct {
	UserID      uuid.UUID `json:"userId"`
	Username    string    `json:"username"`
	TotalOrders int64     `json:"totalOrders"`
}

// TopUsers returns the ten users with the most order groups.
func (h *StatsHandler) TopUsers(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.TopUsers(r.Context())
	if err != nil {
		internalError(w, r, "top users", err)
		return
	}

	resp := make([]topUserResponse, len(rows))
	for i, row := range rows {
		resp[i] = topUserResponse{UserID: row.UserID, Username: row.Username, TotalOrders: row.TotalOrders}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Profit returns revenue since the start of today and of this week.
func (h *StatsHandler) Profit(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Profit(r.Context())
	if err != nil {
		internalError(w, r, "profit", err)
		return
	}
	writeJSON(w, http.StatusOK, toProfitResponse(p))
}
