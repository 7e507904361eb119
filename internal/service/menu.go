package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cafebar/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Errors returned by the menu service.
var (
	ErrInvalidName           = errors.New("nome is required")
	ErrInvalidUnit           = errors.New("unidade is required")
	ErrInvalidPrice          = errors.New("preco must be >= 0")
	ErrInvalidStockQuantity  = errors.New("quantidade must be >= 0")
	ErrInvalidRecipeQuantity = errors.New("ingredient quantidade must be > 0")
	ErrPriceOutOfRange       = errors.New("preco must be below 100000000")
	ErrQuantityOutOfRange    = errors.New("quantidade must be below 1000000000 in magnitude")
	ErrQuantityPrecision     = errors.New("quantidade allows at most 3 decimal places")
	ErrDuplicateName         = errors.New("name already exists")
	ErrItemNotFound          = errors.New("item not found")
	ErrIngredientNotFound    = errors.New("ingredient not found")
	ErrUnknownIngredients    = errors.New("unknown ingredients")
)

// Column limits: money is NUMERIC(10,2), quantities are NUMERIC(12,3).
var (
	maxMoney    = decimal.New(1, 8)
	maxQuantity = decimal.New(1, 9)
)

// UnknownIngredientsError lists recipe ingredients that do not exist.
type UnknownIngredientsError struct {
	Names []string
}

func (e *UnknownIngredientsError) Error() string {
	return fmt.Sprintf("ingredients not found: %s", strings.Join(e.Names, ", "))
}

func (e *UnknownIngredientsError) Unwrap() error { return ErrUnknownIngredients }

// MenuStore defines the DB methods needed to maintain items, ingredients
// and recipes. Satisfied by *database.Queries.
type MenuStore interface {
	CreateItem(ctx context.Context, arg database.CreateItemParams) (database.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (database.Item, error)
	DeleteItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	ListItemsByNames(ctx context.Context, names []string) ([]database.Item, error)
	CreateIngredient(ctx context.Context, arg database.CreateIngredientParams) (database.Ingredient, error)
	UpdateIngredient(ctx context.Context, arg database.UpdateIngredientParams) (database.Ingredient, error)
	ListIngredientsByNames(ctx context.Context, names []string) ([]database.Ingredient, error)
	ListItemIngredients(ctx context.Context, itemID uuid.UUID) ([]database.ListItemIngredientsRow, error)
	DeleteItemIngredients(ctx context.Context, itemID uuid.UUID) error
	CreateItemIngredient(ctx context.Context, arg database.CreateItemIngredientParams) (database.ItemIngredient, error)
}

// NewMenuStore creates a MenuStore from a DBTX (pool or tx).
type NewMenuStore func(db database.DBTX) MenuStore

// RecipeLine is the per-unit amount of one ingredient an item consumes.
type RecipeLine struct {
	Ingredient string
	Quantity   decimal.Decimal
}

// ItemInput describes an item write. Recipe is applied only when
// ReplaceRecipe is set; an empty Recipe then clears it.
type ItemInput struct {
	Name          string
	Price         decimal.Decimal
	Recipe        []RecipeLine
	ReplaceRecipe bool
}

// IngredientInput describes an ingredient write.
type IngredientInput struct {
	Name     string
	Quantity decimal.Decimal
	Unit     string
}

// ItemResult is an item with its recipe.
type ItemResult struct {
	Item   database.Item
	Recipe []database.ListItemIngredientsRow
}

// Menu is a full catalogue to import.
type Menu struct {
	Ingredients []IngredientInput
	Items       []ItemInput
}

// ImportSummary counts what ImportMenu wrote.
type ImportSummary struct {
	IngredientsCreated int
	IngredientsUpdated int
	ItemsCreated       int
	ItemsUpdated       int
}

// MenuService maintains items and their recipes.
type MenuService struct {
	pool     TxBeginner
	newStore NewMenuStore
}

// NewMenuService creates a new MenuService.
func NewMenuService(pool TxBeginner, newStore NewMenuStore) *MenuService {
	return &MenuService{pool: pool, newStore: newStore}
}

// CreateItem inserts an item and, if given, its recipe.
func (s *MenuService) CreateItem(ctx context.Context, in ItemInput) (*ItemResult, error) {
	in, err := validateItem(in)
	if err != nil {
		return nil, err
	}

	var result *ItemResult
	err = s.inTx(ctx, func(store MenuStore) error {
		item, err := store.CreateItem(ctx, database.CreateItemParams{
			Name:  in.Name,
			Price: MoneyToNumeric(in.Price),
		})
		if err != nil {
			return mapNameConflict(err, "create item")
		}
		result, err = finishItem(ctx, store, item, in)
		return err
	})
	return result, err
}

// UpdateItem rewrites an item's name and price, and its recipe when asked.
func (s *MenuService) UpdateItem(ctx context.Context, id uuid.UUID, in ItemInput) (*ItemResult, error) {
	in, err := validateItem(in)
	if err != nil {
		return nil, err
	}

	var result *ItemResult
	err = s.inTx(ctx, func(store MenuStore) error {
		item, err := store.UpdateItem(ctx, database.UpdateItemParams{
			ID:    id,
			Name:  in.Name,
			Price: MoneyToNumeric(in.Price),
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotFound
			}
			return mapNameConflict(err, "update item")
		}
		result, err = finishItem(ctx, store, item, in)
		return err
	})
	return result, err
}

// DeleteItem removes an item. Its recipe goes with it; order lines keep
// their name and price snapshot.
func (s *MenuService) DeleteItem(ctx context.Context, id uuid.UUID) (database.Item, error) {
	var deleted database.Item
	err := s.inTx(ctx, func(store MenuStore) error {
		var err error
		deleted, err = store.DeleteItem(ctx, id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrItemNotFound
			}
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
	return deleted, err
}

// ImportMenu upserts every ingredient and item by name in one transaction.
// Ingredients are written first so recipes can refer to them.
func (s *MenuService) ImportMenu(ctx context.Context, m Menu) (*ImportSummary, error) {
	ingredients := make([]IngredientInput, len(m.Ingredients))
	for i, in := range m.Ingredients {
		v, err := ValidateIngredient(in, false)
		if err != nil {
			return nil, fmt.Errorf("ingredients[%d]: %w", i, err)
		}
		ingredients[i] = v
	}
	items := make([]ItemInput, len(m.Items))
	for i, in := range m.Items {
		v, err := validateItem(in)
		if err != nil {
			return nil, fmt.Errorf("items[%d]: %w", i, err)
		}
		items[i] = v
	}

	summary := &ImportSummary{}
	err := s.inTx(ctx, func(store MenuStore) error {
		names := make([]string, len(ingredients))
		for i, in := range ingredients {
			names[i] = in.Name
		}
		existingIngs, err := store.ListIngredientsByNames(ctx, names)
		if err != nil {
			return fmt.Errorf("list ingredients: %w", err)
		}
		ingByName := make(map[string]uuid.UUID, len(existingIngs))
		for _, ing := range existingIngs {
			ingByName[ing.Name] = ing.ID
		}

		for _, in := range ingredients {
			qty := DecimalToNumeric(in.Quantity)
			if id, ok := ingByName[in.Name]; ok {
				if _, err := store.UpdateIngredient(ctx, database.UpdateIngredientParams{
					ID: id, Name: in.Name, Quantity: qty, Unit: in.Unit,
				}); err != nil {
					return fmt.Errorf("update ingredient %s: %w", in.Name, err)
				}
				summary.IngredientsUpdated++
				continue
			}
			ing, err := store.CreateIngredient(ctx, database.CreateIngredientParams{
				Name: in.Name, Quantity: qty, Unit: in.Unit,
			})
			if err != nil {
				return mapNameConflict(err, "create ingredient "+in.Name)
			}
			ingByName[ing.Name] = ing.ID
			summary.IngredientsCreated++
		}

		itemNames := make([]string, len(items))
		for i, in := range items {
			itemNames[i] = in.Name
		}
		existingItems, err := store.ListItemsByNames(ctx, itemNames)
		if err != nil {
			return fmt.Errorf("list items: %w", err)
		}
		itemByName := make(map[string]uuid.UUID, len(existingItems))
		for _, it := range existingItems {
			itemByName[it.Name] = it.ID
		}

		for _, in := range items {
			var item database.Item
			if id, ok := itemByName[in.Name]; ok {
				item, err = store.UpdateItem(ctx, database.UpdateItemParams{
					ID: id, Name: in.Name, Price: MoneyToNumeric(in.Price),
				})
				if err != nil {
					return fmt.Errorf("update item %s: %w", in.Name, err)
				}
				summary.ItemsUpdated++
			} else {
				item, err = store.CreateItem(ctx, database.CreateItemParams{
					Name: in.Name, Price: MoneyToNumeric(in.Price),
				})
				if err != nil {
					return mapNameConflict(err, "create item "+in.Name)
				}
				itemByName[item.Name] = item.ID
				summary.ItemsCreated++
			}
			if in.ReplaceRecipe {
				if err := replaceRecipe(ctx, store, item.ID, in.Recipe); err != nil {
					return fmt.Errorf("item %s: %w", in.Name, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ValidateIngredient trims and checks an ingredient write. Negative stock
// is accepted only when allowNegative is set.
func ValidateIngredient(in IngredientInput, allowNegative bool) (IngredientInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Unit = strings.TrimSpace(in.Unit)
	if in.Name == "" {
		return in, ErrInvalidName
	}
	if in.Unit == "" {
		return in, ErrInvalidUnit
	}
	if in.Quantity.IsNegative() && !allowNegative {
		return in, ErrInvalidStockQuantity
	}
	if in.Quantity.Round(3).Abs().GreaterThanOrEqual(maxQuantity) {
		return in, ErrQuantityOutOfRange
	}
	return in, nil
}

func (s *MenuService) inTx(ctx context.Context, fn func(store MenuStore) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := fn(s.newStore(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func finishItem(ctx context.Context, store MenuStore, item database.Item, in ItemInput) (*ItemResult, error) {
	if in.ReplaceRecipe {
		if err := replaceRecipe(ctx, store, item.ID, in.Recipe); err != nil {
			return nil, err
		}
	}
	recipe, err := store.ListItemIngredients(ctx, item.ID)
	if err != nil {
		return nil, fmt.Errorf("list recipe: %w", err)
	}
	return &ItemResult{Item: item, Recipe: recipe}, nil
}

func replaceRecipe(ctx context.Context, store MenuStore, itemID uuid.UUID, lines []RecipeLine) error {
	if err := store.DeleteItemIngredients(ctx, itemID); err != nil {
		return fmt.Errorf("clear recipe: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(lines))
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.Ingredient]; !ok {
			seen[l.Ingredient] = struct{}{}
			names = append(names, l.Ingredient)
		}
	}
	found, err := store.ListIngredientsByNames(ctx, names)
	if err != nil {
		return fmt.Errorf("list ingredients: %w", err)
	}
	byName := make(map[string]uuid.UUID, len(found))
	for _, ing := range found {
		byName[ing.Name] = ing.ID
	}
	var missing []string
	for _, n := range names {
		if _, ok := byName[n]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &UnknownIngredientsError{Names: missing}
	}

	for _, l := range lines {
		if _, err := store.CreateItemIngredient(ctx, database.CreateItemIngredientParams{
			ItemID:       itemID,
			IngredientID: byName[l.Ingredient],
			Quantity:     DecimalToNumeric(l.Quantity),
		}); err != nil {
			return fmt.Errorf("create recipe line: %w", err)
		}
	}
	return nil
}

func validateItem(in ItemInput) (ItemInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, ErrInvalidName
	}
	if in.Price.IsNegative() {
		return in, ErrInvalidPrice
	}
	if in.Price.Round(2).GreaterThanOrEqual(maxMoney) {
		return in, ErrPriceOutOfRange
	}
	recipe := make([]RecipeLine, len(in.Recipe))
	for i, l := range in.Recipe {
		l.Ingredient = strings.TrimSpace(l.Ingredient)
		if l.Ingredient == "" {
			return in, fmt.Errorf("ingredientes[%d]: %w", i, ErrInvalidName)
		}
		if !l.Quantity.IsPositive() {
			return in, fmt.Errorf("ingredientes[%d]: %w", i, ErrInvalidRecipeQuantity)
		}
		if !l.Quantity.Equal(l.Quantity.Round(3)) {
			return in, fmt.Errorf("ingredientes[%d]: %w", i, ErrQuantityPrecision)
		}
		if l.Quantity.GreaterThanOrEqual(maxQuantity) {
			return in, fmt.Errorf("ingredientes[%d]: %w", i, ErrQuantityOutOfRange)
		}
		recipe[i] = l
	}
	in.Recipe = recipe
	return in, nil
}

// IsUniqueViolation reports a PostgreSQL unique constraint error (23505).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func mapNameConflict(err error, op string) error {
	if IsUniqueViolation(err) {
		return ErrDuplicateName
	}
	return fmt.Errorf("%s: %w", op, err)
}
