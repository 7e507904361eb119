package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/cafebar/api/internal/auth"
	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	mw "github.com/cafebar/api/internal/middleware"
	"github.com/cafebar/api/internal/service"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Publisher broadcasts an event to live clients. Satisfied by *ws.Hub.
type Publisher interface {
	Publish(eventType string, payload any)
}

// OrderServicer defines the order workflow used by the handler.
// Satisfied by *service.OrderService.
type OrderServicer interface {
	CreateOrderGroup(ctx context.Context, req service.CreateOrderGroupRequest) (*service.OrderGroupResult, error)
	GetOrderGroup(ctx context.Context, id uuid.UUID) (*service.OrderGroupResult, error)
	ListOrderGroups(ctx context.Context, status string) ([]service.OrderGroupResult, error)
	ListOrderGroupsByUser(ctx context.Context, userID uuid.UUID) ([]service.OrderGroupResult, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*service.StatusUpdateResult, error)
	DeleteOrderGroup(ctx context.Context, id uuid.UUID) error
}

// ProfitReporter computes the current profit figures.
// Satisfied by *service.StatsService.
type ProfitReporter interface {
	Profit(ctx context.Context) (service.Profit, error)
}

// OrderHandler handles order group endpoints.
type OrderHandler struct {
	svc    OrderServicer
	profit ProfitReporter
	pub    Publisher
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(svc OrderServicer, profit ProfitReporter, pub Publisher) *OrderHandler {
	return &OrderHandler{svc: svc, profit: profit, pub: pub}
}

// RegisterRoutes registers order group endpoints. Expected to be mounted at
// /api/order-groups behind mw.Authenticate.
func (h *OrderHandler) RegisterRoutes(r chi.Router) {
	staff := mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleStaff)
	r.Post("/", h.Create)
	r.With(staff).Get("/", h.List)
	r.Get("/ordersbyuser/{id}", h.ListByUser)
	r.Get("/{id}", h.Get)
	r.With(staff).Patch("/{id}", h.UpdateStatus)
	r.With(staff).Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createOrderGroupRequest struct {
	Items []createOrderLineRequest `json:"items"`
}

type createOrderLineRequest struct {
	Nome       string `json:"nome"`
	Quantidade int32  `json:"quantidade"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type orderGroupResponse struct {
	ID         uuid.UUID           `json:"id"`
	Status     string              `json:"status"`
	UserID     *uuid.UUID          `json:"userId"`
	TotalPrice string              `json:"totalPrice"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
	Items      []orderItemResponse `json:"items"`
}

type orderItemResponse struct {
	ID           uuid.UUID  `json:"id"`
	OrderGroupID uuid.UUID  `json:"orderGroupId"`
	ItemID       *uuid.UUID `json:"itemId"`
	Nome         string     `json:"nome"`
	Quantidade   int32      `json:"quantidade"`
	Preco        string     `json:"preco"`
}

type deductionResponse struct {
	IngredientID uuid.UUID       `json:"ingredienteId"`
	Nome         string          `json:"nome"`
	Unidade      string          `json:"unidade"`
	Quantidade   decimal.Decimal `json:"quantidade"`
	Restante     decimal.Decimal `json:"restante"`
}

type statusUpdateResponse struct {
	orderGroupResponse
	Changed    bool                `json:"changed"`
	Deductions []deductionResponse `json:"deductions"`
}

type profitResponse struct {
	DailyProfit  string `json:"dailyProfit"`
	WeeklyProfit string `json:"weeklyProfit"`
}

// --- Handlers ---

// Create places an order group for the authenticated user.
func (h *OrderHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := mw.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req createOrderGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	lines := make([]service.CreateOrderLine, len(req.Items))
	for i, it := range req.Items {
		lines[i] = service.CreateOrderLine{Name: it.Nome, Quantity: it.Quantidade}
	}

	result, err := h.svc.CreateOrderGroup(r.Context(), service.CreateOrderGroupRequest{
		UserID: claims.UserID,
		Items:  lines,
	})
	if err != nil {
		h.writeServiceError(w, r, "create order group", err)
		return
	}

	resp := toOrderGroupResponse(result.Group, result.Items)
	h.pub.Publish(enum.EventOrderGroupCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// List returns all order groups, optionally filtered by ?status=.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	results, err := h.svc.ListOrderGroups(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		h.writeServiceError(w, r, "list order groups", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderGroupList(results))
}

// Get returns one group. Customers may only read their own.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order group")
	if !ok {
		return
	}

	result, err := h.svc.GetOrderGroup(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, r, "get order group", err)
		return
	}

	claims := mw.ClaimsFromContext(r.Context())
	if !isStaff(claims) && (claims == nil || !ownsGroup(claims.UserID, result.Group)) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	writeJSON(w, http.StatusOK, toOrderGroupResponse(result.Group, result.Items))
}

// ListByUser returns the groups placed by one user.
func (h *OrderHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseIDParam(w, r, "user")
	if !ok {
		return
	}

	claims := mw.ClaimsFromContext(r.Context())
	if !isStaff(claims) && (claims == nil || claims.UserID != userID) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
		return
	}

	results, err := h.svc.ListOrderGroupsByUser(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, "list order groups by user", err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderGroupList(results))
}

// UpdateStatus moves a group through its lifecycle.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order group")
	if !ok {
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.Status == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status is required"})
		return
	}

	result, err := h.svc.UpdateStatus(r.Context(), id, req.Status)
	if err != nil {
		h.writeServiceError(w, r, "update order group status", err)
		return
	}

	resp := statusUpdateResponse{
		orderGroupResponse: toOrderGroupResponse(result.Group, result.Items),
		Changed:            result.Changed,
		Deductions:         make([]deductionResponse, len(result.Deductions)),
	}
	for i, d := range result.Deductions {
		resp.Deductions[i] = deductionResponse{
			IngredientID: d.IngredientID,
			Nome:         d.Name,
			Unidade:      d.Unit,
			Quantidade:   d.Amount,
			Restante:     d.Remaining,
		}
	}

	for _, it := range result.Unlinked {
		log.Printf("WARN: [%s] order group %s line %s (%q x%d) has no menu item; no ingredients deducted",
			chimw.GetReqID(r.Context()), id, it.ID, it.Name, it.Quantity)
	}

	if result.Changed {
		h.pub.Publish(enum.EventOrderGroupUpdated, resp.orderGroupResponse)
	}
	if result.ReachedReady() {
		h.publishProfit(r)
	}

	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a group and its lines.
func (h *OrderHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "order group")
	if !ok {
		return
	}

	if err := h.svc.DeleteOrderGroup(r.Context(), id); err != nil {
		h.writeServiceError(w, r, "delete order group", err)
		return
	}

	h.pub.Publish(enum.EventOrderGroupDeleted, map[string]uuid.UUID{"id": id})
	writeJSON(w, http.StatusOK, map[string]string{"message": "order group deleted"})
}

// publishProfit is best effort; the status change has already committed.
func (h *OrderHandler) publishProfit(r *http.Request) {
	p, err := h.profit.Profit(r.Context())
	if err != nil {
		log.Printf("WARN: [%s] compute profit for broadcast: %v", chimw.GetReqID(r.Context()), err)
		return
	}
	h.pub.Publish(enum.EventProfitUpdated, toProfitResponse(p))
}

// writeServiceError maps workflow errors to HTTP statuses.
func (h *OrderHandler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidItemName),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrUnknownItems),
		errors.Is(err, service.ErrOrderTotalTooLarge),
		errors.Is(err, service.ErrInvalidStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrOrderGroupNotFound),
		errors.Is(err, service.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrStockOutOfRange),
		errors.Is(err, service.ErrStatusConflict):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	default:
		internalError(w, r, op, err)
	}
}

// --- Helpers ---

func toOrderGroupResponse(g database.OrderGroup, items []database.OrderItem) orderGroupResponse {
	resp := orderGroupResponse{
		ID:         g.ID,
		Status:     string(g.Status),
		UserID:     uuidPtr(g.UserID),
		TotalPrice: formatMoney(g.TotalPrice),
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
		Items:      make([]orderItemResponse, len(items)),
	}
	for i, it := range items {
		resp.Items[i] = orderItemResponse{
			ID:           it.ID,
			OrderGroupID: it.OrderGroupID,
			ItemID:       uuidPtr(it.ItemID),
			Nome:         it.Name,
			Quantidade:   it.Quantity,
			Preco:        formatMoney(it.UnitPrice),
		}
	}
	return resp
}

func toProfitResponse(p service.Profit) profitResponse {
	return profitResponse{
		DailyProfit:  p.Daily.StringFixed(2),
		WeeklyProfit: p.Weekly.StringFixed(2),
	}
}

// formatMoney renders a NUMERIC amount with two decimals.
func formatMoney(n pgtype.Numeric) string {
	return service.NumericToDecimal(n).StringFixed(2)
}

func toOrderGroupList(results []service.OrderGroupResult) []orderGroupResponse {
	resp := make([]orderGroupResponse, len(results))
	for i, res := range results {
		resp[i] = toOrderGroupResponse(res.Group, res.Items)
	}
	return resp
}

func uuidPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func ownsGroup(userID uuid.UUID, g database.OrderGroup) bool {
	return g.UserID.Valid && uuid.UUID(g.UserID.Bytes) == userID
}

func isStaff(claims *auth.Claims) bool {
	return mw.HasRole(claims, enum.UserRoleAdmin, enum.UserRoleStaff)
}

// parseIDParam reads the {id} URL parameter, writing a 400 if it is not a UUID.
func parseIDParam(w http.ResponseWriter, r *http.Request, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + what + " id"})
		return uuid.Nil, false
	}
	return id, true
}

// internalError logs the cause with the request ID and hides it from the client.
func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("ERROR: [%s] %s: %v", chimw.GetReqID(r.Context()), op, err)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
}
