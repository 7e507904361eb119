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

// ItemStore defines the read methods needed by item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	ListItems(ctx context.Context) ([]database.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	ListItemIngredients(ctx context.Context, itemID uuid.UUID) ([]database.ListItemIngredientsRow, error)
}

// MenuServicer writes items together with their recipes.
// Satisfied by *service.MenuService.
type MenuServicer interface {
	CreateItem(ctx context.Context, in service.ItemInput) (*service.ItemResult, error)
	UpdateItem(ctx context.Context, id uuid.UUID, in service.ItemInput) (*service.ItemResult, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (database.Item, error)
}

// ItemHandler handles the inventory (menu item) endpoints.
type ItemHandler struct {
	store ItemStore
	menu  MenuServicer
	pub   Publisher
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore, menu MenuServicer, pub Publisher) *ItemHandler {
	return &ItemHandler{store: store, menu: menu, pub: pub}
}

// RegisterPublicRoutes registers read endpoints. Expected at /api/inventory.
func (h *ItemHandler) RegisterPublicRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Get("/{id}", h.Get)
	r.Get("/{id}/ingredientes", h.ListRecipe)
}

// RegisterStaffRoutes registers write endpoints. Expected at /api/inventory
// behind authentication and a staff/admin role check.
func (h *ItemHandler) RegisterStaffRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type itemRequest struct {
	Nome         string               `json:"nome"`
	Preco        *decimal.Decimal     `json:"preco"`
	Ingredientes *[]recipeLineRequest `json:"ingredientes"`
}

type recipeLineRequest struct {
	Nome       string          `json:"nome"`
	Quantidade decimal.Decimal `json:"quantidade"`
}

type itemResponse struct {
	ID           uuid.UUID            `json:"id"`
	Nome         string               `json:"nome"`
	Preco        string               `json:"preco"`
	Ingredientes []recipeLineResponse `json:"ingredientes,omitempty"`
}

type recipeLineResponse struct {
	IngredientID uuid.UUID       `json:"ingredienteId"`
	Nome         string          `json:"nome"`
	Quantidade   decimal.Decimal `json:"quantidade"`
	Unidade      string          `json:"unidade"`
}

func toItemResponse(it database.Item) itemResponse {
	return itemResponse{
		ID:    it.ID,
		Nome:  it.Name,
		Preco: formatMoney(it.Price),
	}
}

func toRecipeResponse(rows []database.ListItemIngredientsRow) []recipeLineResponse {
	resp := make([]recipeLineResponse, len(rows))
	for i, row := range rows {
		resp[i] = recipeLineResponse{
			IngredientID: row.IngredientID,
			Nome:         row.IngredientName,
			Quantidade:   service.NumericToDecimal(row.Quantity),
			Unidade:      row.Unit,
		}
	}
	return resp
}

// --- Handlers ---

// List returns every menu item.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		internalError(w, r, "list items", err)
		return
	}

	resp := make([]itemResponse, len(items))
	for i, it := range items {
		resp[i] = toItemResponse(it)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one item with its recipe.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	recipe, err := h.store.ListItemIngredients(r.Context(), item.ID)
	if err != nil {
		internalError(w, r, "list item ingredients", err)
		return
	}

	resp := toItemResponse(item)
	resp.Ingredientes = toRecipeResponse(recipe)
	writeJSON(w, http.StatusOK, resp)
}

// ListRecipe returns the ingredients one unit of the item consumes.
func (h *ItemHandler) ListRecipe(w http.ResponseWriter, r *http.Request) {
	item, ok := h.loadItem(w, r)
	if !ok {
		return
	}
	recipe, err := h.store.ListItemIngredients(r.Context(), item.ID)
	if err != nil {
		internalError(w, r, "list item ingredients", err)
		return
	}
	writeJSON(w, http.StatusOK, toRecipeResponse(recipe))
}

// Create adds a menu item.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeItemInput(w, r)
	if !ok {
		return
	}

	result, err := h.menu.CreateItem(r.Context(), in)
	if err != nil {
		writeMenuError(w, r, "create item", err)
		return
	}

	resp := toItemResponse(result.Item)
	resp.Ingredientes = toRecipeResponse(result.Recipe)
	h.pub.Publish(enum.EventItemCreated, resp)
	writeJSON(w, http.StatusCreated, resp)
}

// Update rewrites a menu item; a given ingredientes list replaces its recipe.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "item")
	if !ok {
		return
	}
	in, ok := decodeItemInput(w, r)
	if !ok {
		return
	}

	result, err := h.menu.UpdateItem(r.Context(), id, in)
	if err != nil {
		writeMenuError(w, r, "update item", err)
		return
	}

	resp := toItemResponse(result.Item)
	resp.Ingredientes = toRecipeResponse(result.Recipe)
	h.pub.Publish(enum.EventItemUpdated, resp)
	writeJSON(w, http.StatusOK, resp)
}

// Delete removes a menu item.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseIDParam(w, r, "item")
	if !ok {
		return
	}

	deleted, err := h.menu.DeleteItem(r.Context(), id)
	if err != nil {
		writeMenuError(w, r, "delete item", err)
		return
	}

	h.pub.Publish(enum.EventItemDeleted, toItemResponse(deleted))
	writeJSON(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// --- Helpers ---

func (h *ItemHandler) loadItem(w http.ResponseWriter, r *http.Request) (database.Item, bool) {
	id, ok := parseIDParam(w, r, "item")
	if !ok {
		return database.Item{}, false
	}
	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return database.Item{}, false
		}
		internalError(w, r, "get item", err)
		return database.Item{}, false
	}
	return item, true
}

func decodeItemInput(w http.ResponseWriter, r *http.Request) (service.ItemInput, bool) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return service.ItemInput{}, false
	}
	if req.Nome == "" || req.Preco == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "nome and preco are required"})
		return service.ItemInput{}, false
	}

	in := service.ItemInput{Name: req.Nome, Price: *req.Preco}
	if req.Ingredientes != nil {
		in.ReplaceRecipe = true
		for _, l := range *req.Ingredientes {
			in.Recipe = append(in.Recipe, service.RecipeLine{Ingredient: l.Nome, Quantity: l.Quantidade})
		}
	}
	return in, true
}

// writeMenuError maps menu errors to HTTP statuses.
func writeMenuError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidName),
		errors.Is(err, service.ErrInvalidUnit),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrInvalidStockQuantity),
		errors.Is(err, service.ErrInvalidRecipeQuantity),
		errors.Is(err, service.ErrPriceOutOfRange),
		errors.Is(err, service.ErrQuantityOutOfRange),
		errors.Is(err, service.ErrQuantityPrecision),
		errors.Is(err, service.ErrUnknownIngredients):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrDuplicateName):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrIngredientNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		internalError(w, r, op, err)
	}
}
