package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	"github.com/cafebar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// IngredientStore defines the database methods needed by ingredient handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type IngredientStore interface {
	ListIngredients(ctx context.Context) ([]database.Ingredient, error)
	GetIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	UpdateIngredient(ctx context.Context, arg database.UpdateIngredientParams) (database.Ingredient, error)
	DeleteIngredient(ctx context.Context, id uuid.UUID) (database.Ingredient, error)
}

// IngredientHandler handles the stock ingredient endpoints.
type IngredientHandler struct {
	store         IngredientStore
	pub           Publisher
	allowNegative bool
}

// NewIngredientHandler creates a new IngredientHandler. allowNegativeStock
// lets staff write a stock level below zero, matching ALLOW_NEGATIVE_STOCK.
func NewIngredientHandler(store IngredientStore, pub Publisher, allowNegativeStock bool) *IngredientHandler {
	return &IngredientHandler{store: store, pub: pub, allowNegative: allowNegativeStock}
}

// RegisterPublicRoutes registers read endpoints. Expected at /api/ingredientes.
func (h *IngredientHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
}

// RegisterStaffRoutes registers write endpoints behind a staff/admin check.
func (h *IngredientHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type ingredientRequest struct {
	Nome       string           `json:"nome"`
	Quantidade *decimal.Decimal `json:"quantidade"`
	Unidade    string           `json:"unidade"`
}

type ingredientResponse struct {
	ID         uuid.UUID       `json:"id"`
	Nome       string          `json:"nome"`
	Quantidade decimal.Decimal `json:"quantidade"`
	Unidade    string          `json:"unidade"`
}

func toIngredientResponse(ing database.Ingredient) ingredientResponse {
	return ingredientResponse{
		ID:         ing.ID,
		Nome:       ing.Name,
		Quantidade: service.NumericToDecimal(ing.Quantity),
		Unidade:    ing.Unit,
	}
}

// List returns every ingredient with its current stock.
func (h *IngredientHandler) List(w http.ResponseWriter, r *http.Request) {
	ings, err := h.store.ListIngredients(r.Context())
	if err != nil {
		internalError(w, r, "list ingredients", err)
		return
	}

	resp := make([]ingredientResponse, len(ings))
	for i, ing := range ings {
		resp[i] = toIngredientResponse(ing)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one ingredient.
func (h *IngredientHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "ingredient")
	if !ok {
		return
	}

	ing, err := h.store.GetIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		internalError(w, r, "get ingredient", err)
		return
	}
	writeJSON(w, http.StatusOK, toIngredientResponse(ing))
}

// Create adds an ingredient.
func (h *IngredientHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeIngredientInput(w, r)
	if !ok {
		return
	}

	ing, err := h.store.CreateIngredient(r.Context(), database.CreateIngredientParams{
		Name:     in.Name,
		Quantity: service.DecimalToNumeric(in.Quantity),
		Unit:     in.Unit,
	})
	if err != nil {
		if service.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient already exists"})
			return
		}
		internalError(w, r, "create ingredient", err)
		return
	}

	resp := toIngredientResponse(ing)
	h.pub.Publish(enum.EventIngredientCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update rewrites an ingredient, including its stock level.
func (h *IngredientHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "ingredient")
	if !ok {
		return
	}
	in, ok := h.decodeIngredientInput(w, r)
	if !ok {
		return
	}

	ing, err := h.store.UpdateIngredient(r.Context(), database.UpdateIngredientParams{
		ID:       id,
		Name:     in.Name,
		Quantity: service.DecimalToNumeric(in.Quantity),
		Unit:     in.Unit,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		if service.IsUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "ingredient already exists"})
			return
		}
		internalError(w, r, "update ingredient", err)
		return
	}

	resp := toIngredientResponse(ing)
	h.pub.Publish(enum.EventIngredientUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes an ingredient and every recipe line that uses it.
func (h *IngredientHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "ingredient")
	if !ok {
		return
	}

	ing, err := h.store.DeleteIngredient(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "ingredient not found"})
			return
		}
		internalError(w, r, "delete ingredient", err)
		return
	}

	h.pub.Publish(enum.EventIngredientDeleted, toIngredientResponse(ing))
	writeJSON(w, http.StatusOK, map[string]string{"message": "ingredient deleted"})
}

func (h *IngredientHandler) decodeIngredientInput(w http.ResponseWriter, r *http.Request) (service.IngredientInput, bool) {
	var req ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return service.IngredientInput{}, false
	}
	if req.Quantidade == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nome, quantidade and unidade are required"})
		return service.IngredientInput{}, false
	}

	in, err := service.ValidateIngredient(service.IngredientInput{
		Name:     req.Nome,
		Quantity: *req.Quantidade,
		Unit:     req.Unidade,
	}, h.allowNegative)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return service.IngredientInput{}, false
	}
	return in, true
}
