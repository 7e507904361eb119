package handler_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/cafebar/api/internal/database"
	"github.com/cafebar/api/internal/enum"
	"github.com/cafebar/api/internal/handler"
	"github.com/cafebar/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// --- Mocks ---

type mockItemStore struct {
	items   map[uuid.UUID]database.Item
	recipes map[uuid.UUID][]database.ListItemIngredientsRow
}

func newMockItemStore() *mockItemStore {
	return &mockItemStore{
		items:   make(map[uuid.UUID]database.Item),
		recipes: make(map[uuid.UUID][]database.ListItemIngredientsRow),
	}
}

func (m *mockItemStore) addItem(name, price string) database.Item {
	it := database.Item{ID: uuid.New(), Name: name, Price: money(price)}
	m.items[it.ID] = it
	return it
}

func (m *mockItemStore) ListItems(_ context.Context) ([]database.Item, error) {
	out := []database.Item{}
	for _, it := range m.items {
		out = append(out, it)
	}
	return out, nil
}

func (m *mockItemStore) GetItem(_ context.Context, id uuid.UUID) (database.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return database.Item{}, pgx.ErrNoRows
	}
	return it, nil
}

func (m *mockItemStore) ListItemIngredients(_ context.Context, itemID uuid.UUID) ([]database.ListItemIngredientsRow, error) {
	return m.recipes[itemID], nil
}

type mockMenuService struct {
	createFn func(ctx context.Context, in service.ItemInput) (*service.ItemResult, error)
	updateFn func(ctx context.Context, id uuid.UUID, in service.ItemInput) (*service.ItemResult, error)
	deleteFn func(ctx context.Context, id uuid.UUID) (database.Item, error)
}

func (m *mockMenuService) CreateItem(ctx context.Context, in service.ItemInput) (*service.ItemResult, error) {
	return m.createFn(ctx, in)
}

func (m *mockMenuService) UpdateItem(ctx context.Context, id uuid.UUID, in service.ItemInput) (*service.ItemResult, error) {
	return m.updateFn(ctx, id, in)
}

func (m *mockMenuService) DeleteItem(ctx context.Context, id uuid.UUID) (database.Item, error) {
	return m.deleteFn(ctx, id)
}

func numeric(s string) pgtype.Numeric {
	return service.DecimalToNumeric(decimal.RequireFromString(s))
}

func setupItemRouter(store *mockItemStore, menu *mockMenuService, pub *mockPublisher) *chi.Mux {
	h := handler.NewItemHandler(store, menu, pub)
	return splitRouter("/api/inventory", h.RegisterPublicRoutes, h.RegisterStaffRoutes)
}

// --- Public reads ---

func TestListItems_Public(t *testing.T) {
	store := newMockItemStore()
	store.addItem("Coffee", "2")
	store.addItem("Latte", "3.5")
	router := setupItemRouter(store, &mockMenuService{}, &mockPublisher{})

	rr := doRequest(t, router, "GET", "/api/inventory/", nil)
	expectStatus(t, rr, 200)

	prices := map[string]interface{}{}
	for _, it := range decodeList(t, rr) {
		prices[it["nome"].(string)] = it["preco"]
	}
	if prices["Coffee"] != "2.00" || prices["Latte"] != "3.50" {
		t.Fatalf("unexpected prices: %v", prices)
	}
}

func TestGetItem_WithRecipe(t *testing.T) {
	store := newMockItemStore()
	latte := store.addItem("Latte", "3.5")
	milk := uuid.New()
	store.recipes[latte.ID] = []database.ListItemIngredientsRow{
		{ItemID: latte.ID, IngredientID: milk, IngredientName: "Milk", Unit: "L", Quantity: numeric("0.2")},
	}
	router := setupItemRouter(store, &mockMenuService{}, &mockPublisher{})

	rr := doRequest(t, router, "GET", "/api/inventory/"+latte.ID.String(), nil)
	expectStatus(t, rr, 200)
	resp := decodeObject(t, rr)
	lines, _ := resp["ingredientes"].([]interface{})
	if len(lines) != 1 {
		t.Fatalf("expected 1 recipe line, got %v", resp["ingredientes"])
	}
	line := lines[0].(map[string]interface{})
	if line["nome"] != "Milk" || line["quantidade"] != "0.2" || line["unidade"] != "L" {
		t.Fatalf("unexpected recipe line: %v", line)
	}

	rr = doRequest(t, router, "GET", "/api/inventory/"+latte.ID.String()+"/ingredientes", nil)
	expectStatus(t, rr, 200)
	if got := len(decodeList(t, rr)); got != 1 {
		t.Fatalf("expected 1 recipe line, got %d", got)
	}
}

func TestGetItem_NotFound(t *testing.T) {
	router := setupItemRouter(newMockItemStore(), &mockMenuService{}, &mockPublisher{})

	rr := doRequest(t, router, "GET", "/api/inventory/"+uuid.NewString(), nil)
	expectError(t, rr, 404, "item not found")

	rr = doRequest(t, router, "GET", "/api/inventory/nope", nil)
	expectError(t, rr, 400, "invalid item id")
}

// --- Staff writes ---

func TestCreateItem(t *testing.T) {
	var got service.ItemInput
	menu := &mockMenuService{
		createFn: func(_ context.Context, in service.ItemInput) (*service.ItemResult, error) {
			got = in
			return &service.ItemResult{
				Item:   database.Item{ID: uuid.New(), Name: in.Name, Price: money(in.Price.String())},
				Recipe: []database.ListItemIngredientsRow{},
			}, nil
		},
	}
	pub := &mockPublisher{}
	router := setupItemRouter(newMockItemStore(), menu, pub)

	rr := doAuthedRequest(t, router, "POST", "/api/inventory/", tokenFor(t, uuid.New(), enum.UserRoleStaff), map[string]interface{}{
		"nome":         "Latte",
		"preco":        "3.5",
		"ingredientes": []map[string]interface{}{{"nome": "Milk", "quantidade": "0.2"}},
	})
	expectStatus(t, rr, 201)

	if got.Name != "Latte" || !got.Price.Equal(decimal.RequireFromString("3.5")) {
		t.Errorf("unexpected input: %+v", got)
	}
	if !got.ReplaceRecipe || len(got.Recipe) != 1 || got.Recipe[0].Ingredient != "Milk" {
		t.Errorf("unexpected recipe: %+v", got.Recipe)
	}
	if resp := decodeObject(t, rr); resp["preco"] != "3.50" {
		t.Errorf("expected preco 3.50, got %v", resp["preco"])
	}
	assertEvents(t, pub, enum.EventItemCreated)
}

func TestCreateItem_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   map[string]interface{}
		err    error
		status int
		msg    string
	}{
		{"missing price", map[string]interface{}{"nome": "Latte"}, nil, 400, "nome and preco are required"},
		{"negative price", map[string]interface{}{"nome": "Latte", "preco": "-1"}, service.ErrInvalidPrice, 400, "preco must be >= 0"},
		{"duplicate", map[string]interface{}{"nome": "Latte", "preco": "3"}, service.ErrDuplicateName, 409, "name already exists"},
		{"unknown ingredient", map[string]interface{}{"nome": "Latte", "preco": "3"}, &service.UnknownIngredientsError{Names: []string{"Oat"}}, 400, "ingredients not found: Oat"},
		{"price too large", map[string]interface{}{"nome": "Latte", "preco": "100000000"}, service.ErrPriceOutOfRange, 400, "preco must be below 100000000"},
		{"recipe precision", map[string]interface{}{"nome": "Latte", "preco": "3"}, fmt.Errorf("ingredientes[0]: %w", service.ErrQuantityPrecision), 400, "ingredientes[0]: quantidade allows at most 3 decimal places"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			menu := &mockMenuService{
				createFn: func(context.Context, service.ItemInput) (*service.ItemResult, error) {
					return nil, tt.err
				},
			}
			pub := &mockPublisher{}
			router := setupItemRouter(newMockItemStore(), menu, pub)

			rr := doAuthedRequest(t, router, "POST", "/api/inventory/", tokenFor(t, uuid.New(), enum.UserRoleAdmin), tt.body)
			expectError(t, rr, tt.status, tt.msg)
			assertEvents(t, pub)
		})
	}
}

func TestCreateItem_CustomerForbidden(t *testing.T) {
	router := setupItemRouter(newMockItemStore(), &mockMenuService{}, &mockPublisher{})

	rr := doAuthedRequest(t, router, "POST", "/api/inventory/", tokenFor(t, uuid.New(), enum.UserRoleCustomer), map[string]interface{}{"nome": "X", "preco": "1"})
	expectError(t, rr, 403, "insufficient permissions")

	rr = doRequest(t, router, "POST", "/api/inventory/", map[string]interface{}{"nome": "X", "preco": "1"})
	expectStatus(t, rr, 401)
}

func TestUpdateItem_KeepsRecipeWhenOmitted(t *testing.T) {
	id := uuid.New()
	var got service.ItemInput
	menu := &mockMenuService{
		updateFn: func(_ context.Context, gotID uuid.UUID, in service.ItemInput) (*service.ItemResult, error) {
			if gotID != id {
				return nil, service.ErrItemNotFound
			}
			got = in
			return &service.ItemResult{Item: database.Item{ID: id, Name: in.Name, Price: money("4")}}, nil
		},
	}
	pub := &mockPublisher{}
	router := setupItemRouter(newMockItemStore(), menu, pub)
	token := tokenFor(t, uuid.New(), enum.UserRoleStaff)

	rr := doAuthedRequest(t, router, "PUT", "/api/inventory/"+id.String(), token, map[string]interface{}{"nome": "Latte", "preco": "4"})
	expectStatus(t, rr, 200)
	if got.ReplaceRecipe {
		t.Error("recipe must not be replaced when ingredientes is absent")
	}
	assertEvents(t, pub, enum.EventItemUpdated)

	rr = doAuthedRequest(t, router, "PUT", "/api/inventory/"+uuid.NewString(), token, map[string]interface{}{"nome": "Latte", "preco": "4"})
	expectError(t, rr, 404, "item not found")
}

func TestUpdateItem_EmptyRecipeClears(t *testing.T) {
	var got service.ItemInput
	menu := &mockMenuService{
		updateFn: func(_ context.Context, id uuid.UUID, in service.ItemInput) (*service.ItemResult, error) {
			got = in
			return &service.ItemResult{Item: database.Item{ID: id, Name: in.Name, Price: money("4")}}, nil
		},
	}
	router := setupItemRouter(newMockItemStore(), menu, &mockPublisher{})

	rr := doAuthedRequest(t, router, "PUT", "/api/inventory/"+uuid.NewString(), tokenFor(t, uuid.New(), enum.UserRoleStaff), map[string]interface{}{
		"nome": "Latte", "preco": "4", "ingredientes": []interface{}{},
	})
	expectStatus(t, rr, 200)
	if !got.ReplaceRecipe || len(got.Recipe) != 0 {
		t.Errorf("expected recipe cleared, got %+v", got)
	}
}

func TestDeleteItem(t *testing.T) {
	id := uuid.New()
	menu := &mockMenuService{
		deleteFn: func(_ context.Context, gotID uuid.UUID) (database.Item, error) {
			if gotID != id {
				return database.Item{}, service.ErrItemNotFound
			}
			return database.Item{ID: id, Name: "Coffee", Price: money("2")}, nil
		},
	}
	pub := &mockPublisher{}
	router := setupItemRouter(newMockItemStore(), menu, pub)
	token := tokenFor(t, uuid.New(), enum.UserRoleAdmin)

	rr := doAuthedRequest(t, router, "DELETE", "/api/inventory/"+id.String(), token, nil)
	expectStatus(t, rr, 200)
	assertEvents(t, pub, enum.EventItemDeleted)

	rr = doAuthedRequest(t, router, "DELETE", "/api/inventory/"+uuid.NewString(), token, nil)
	expectError(t, rr, 404, "item not found")
}
