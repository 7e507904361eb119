package handler_test

import (
	"context"
	"errors"
	"testing"

	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	"github.com/cafebar/api/internal/handler"
	mw "github.com/cafebar/api/internal/middleware"
	"github.com/cafebar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type mockStats struct {
	top    []database.ListTopUsersRow
	profit service.Profit
	err    error
}

func (m *mockStats) TopUsers(_ context.Context) ([]database.ListTopUsersRow, error) {
	return m.top, m.err
}

func (m *mockStats) Profit(_ context.Context) (service.Profit, error) {
	return m.profit, m.err
}

func setupStatsRouter(svc *mockStats) *chi.Mux {
	h := handler.NewStatsHandler(svc)
	return authedRouter("/api/stats", func(r chi.Router) {
		r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff))
		h.RegisterRoutes(r)
	})
}

func TestTopUsers(t *testing.T) {
	ana := uuid.New()
	router := setupStatsRouter(&mockStats{top: []database.ListTopUsersRow{{UserID: ana, Username: "ana", TotalOrders: 7}}})

	rr := doAuthedRequest(t, router, "GET", "/api/stats/top-users", tokenFor(t, uuid.New(), enum.UserRoleAdmin), nil)
	expectStatus(t, rr, 200)
	list := decodeList(t, rr)
	if len(list) != 1 || list[0]["userId"] != ana.String() || list[0]["totalOrders"] != float64(7) {
		t.Fatalf("unexpected top users: %v", list)
	}
}

func TestProfit(t *testing.T) {
	router := setupStatsRouter(&mockStats{profit: service.Profit{
		Daily:  decimal.RequireFromString("6"),
		Weekly: decimal.RequireFromString("20.5"),
	}})

	rr := doAuthedRequest(t, router, "GET", "/api/stats/profit", tokenFor(t, uuid.New(), enum.UserRoleStaff), nil)
	expectStatus(t, rr, 200)
	resp := decodeObject(t, rr)
	if resp["dailyProfit"] != "6.00" || resp["weeklyProfit"] != "20.50" {
		t.Fatalf("unexpected profit: %v", resp)
	}
}

func TestStats_Errors(t *testing.T) {
	router := setupStatsRouter(&mockStats{err: errors.New("db down")})

	rr := doAuthedRequest(t, router, "GET", "/api/stats/profit", tokenFor(t, uuid.New(), enum.UserRoleStaff), nil)
	expectError(t, rr, 500, "internal server error")

	rr = doAuthedRequest(t, router, "GET", "/api/stats/top-users", tokenFor(t, uuid.New(), enum.UserRoleCustomer), nil)
	expectError(t, rr, 403, "insufficient permissions")
}
