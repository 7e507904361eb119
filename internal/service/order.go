package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cafebar/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Pool is a TxBeginner that can also run single statements.
// Satisfied by *pgxpool.Pool.
type Pool interface {
	TxBeginner
	database.DBTX
}

// OrderStore defines the DB methods needed by the order workflow.
// Satisfied by *database.Queries (and its WithTx variant).
type OrderStore interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error)
	ListItemsByNames(ctx context.Context, names []string) ([]database.Item, error)
	CreateOrderGroup(ctx context.Context, arg database.CreateOrderGroupParams) (database.OrderGroup, error)
	CreateOrderItem(ctx context.Context, arg database.CreateOrderItemParams) (database.OrderItem, error)
	GetOrderGroup(ctx context.Context, id uuid.UUID) (database.OrderGroup, error)
	GetOrderGroupForUpdate(ctx context.Context, id uuid.UUID) (database.OrderGroup, error)
	ListOrderGroups(ctx context.Context, status pgtype.Text) ([]database.OrderGroup, error)
	ListOrderGroupsByUser(ctx context.Context, userID uuid.UUID) ([]database.OrderGroup, error)
	ListOrderItemsByGroup(ctx context.Context, orderGroupID uuid.UUID) ([]database.OrderItem, error)
	ListOrderItemsByGroups(ctx context.Context, orderGroupIDs []uuid.UUID) ([]database.OrderItem, error)
	UpdateOrderGroupStatus(ctx context.Context, arg database.UpdateOrderGroupStatusParams) (database.OrderGroup, error)
	ListOrderGroupConsumption(ctx context.Context, orderGroupID uuid.UUID) ([]database.ListOrderGroupConsumptionRow, error)
	LockIngredients(ctx context.Context, ids []uuid.UUID) ([]database.Ingredient, error)
	DeductIngredient(ctx context.Context, arg database.DeductIngredientParams) (database.Ingredient, error)
	DeleteOrderItemsByGroup(ctx context.Context, orderGroupID uuid.UUID) error
	DeleteOrderGroup(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// NewOrderStore creates an OrderStore from a DBTX (pool or tx).
// This allows the service to create store instances from transactions.
type NewOrderStore func(db database.DBTX) OrderStore

// CreateOrderGroupRequest is the input for placing an order group.
type CreateOrderGroupRequest struct {
	UserID uuid.UUID
	Items  []CreateOrderLine
}

// CreateOrderLine is one requested menu item, referenced by name.
type CreateOrderLine struct {
	Name     string
	Quantity int32
}

// OrderGroupResult is an order group with its lines.
type OrderGroupResult struct {
	Group database.OrderGroup
	Items []database.OrderItem
}

// OrderService runs the order lifecycle: creation, status transitions
// with ingredient deduction, and deletion.
type OrderService struct {
	pool               Pool
	newStore           NewOrderStore
	allowNegativeStock bool
}

// Option configures an OrderService.
type Option func(*OrderService)

// WithNegativeStock lets deductions take ingredient quantities below zero.
func WithNegativeStock(allow bool) Option {
	return func(s *OrderService) { s.allowNegativeStock = allow }
}

// NewOrderService creates a new OrderService.
func NewOrderService(pool Pool, newStore NewOrderStore, opts ...Option) *OrderService {
	s := &OrderService{pool: pool, newStore: newStore}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateOrderGroup validates the requested lines, prices them against the
// current menu and stores the group with its items atomically. If any name
// is unknown nothing is written.
func (s *OrderService) CreateOrderGroup(ctx context.Context, req CreateOrderGroupRequest) (*OrderGroupResult, error) {
	lines, err := validateLines(req.Items)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	// --- Resolve names in one batch ---
	names := distinctNames(lines)
	found, err := store.ListItemsByNames(ctx, names)
	if err != nil {
		return nil, fmt.Errorf("list items by names: %w", err)
	}
	byName := make(map[string]database.Item, len(found))
	for _, it := range found {
		byName[it.Name] = it
	}

	var missing []string
	for _, name := range names {
		if _, ok := byName[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &UnknownItemsError{Names: missing}
	}

	// --- Total ---
	total := decimal.Zero
	for _, l := range lines {
		price := NumericToDecimal(byName[l.Name].Price)
		total = total.Add(price.Mul(decimal.NewFromInt32(l.Quantity)))
	}
	total = total.Round(2)
	if total.GreaterThanOrEqual(maxMoney) {
		return nil, ErrOrderTotalTooLarge
	}

	// --- Insert group ---
	group, err := store.CreateOrderGroup(ctx, database.CreateOrderGroupParams{
		Status:     database.OrderGroupStatusPending,
		UserID:     pgtype.UUID{Bytes: req.UserID, Valid: req.UserID != uuid.Nil},
		TotalPrice: MoneyToNumeric(total),
	})
	if err != nil {
		return nil, fmt.Errorf("create order group: %w", err)
	}

	// --- Insert lines ---
	items := make([]database.OrderItem, 0, len(lines))
	for _, l := range lines {
		it := byName[l.Name]
		oi, err := store.CreateOrderItem(ctx, database.CreateOrderItemParams{
			OrderGroupID: group.ID,
			ItemID:       pgtype.UUID{Bytes: it.ID, Valid: true},
			Name:         it.Name,
			Quantity:     l.Quantity,
			UnitPrice:    it.Price,
		})
		if err != nil {
			return nil, fmt.Errorf("create order item: %w", err)
		}
		items = append(items, oi)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}

	return &OrderGroupResult{Group: group, Items: items}, nil
}

// DeleteOrderGroup removes a group and all of its lines. Inventory already
// deducted for the group is not restored.
func (s *OrderService) DeleteOrderGroup(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	if err := store.DeleteOrderItemsByGroup(ctx, id); err != nil {
		return fmt.Errorf("delete order items: %w", err)
	}
	if _, err := store.DeleteOrderGroup(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrOrderGroupNotFound
		}
		return fmt.Errorf("delete order group: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetOrderGroup returns a single group with its lines.
func (s *OrderService) GetOrderGroup(ctx context.Context, id uuid.UUID) (*OrderGroupResult, error) {
	store := s.newStore(s.pool)

	group, err := store.GetOrderGroup(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderGroupNotFound
		}
		return nil, fmt.Errorf("get order group: %w", err)
	}
	items, err := store.ListOrderItemsByGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	return &OrderGroupResult{Group: group, Items: items}, nil
}

// ListOrderGroups returns every group, newest first. A non-empty status
// filters the result and must be a recognised status.
func (s *OrderService) ListOrderGroups(ctx context.Context, status string) ([]OrderGroupResult, error) {
	filter := pgtype.Text{}
	if status != "" {
		st, err := ParseStatus(status)
		if err != nil {
			return nil, err
		}
		filter = pgtype.Text{String: string(st), Valid: true}
	}

	store := s.newStore(s.pool)
	groups, err := store.ListOrderGroups(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list order groups: %w", err)
	}
	return withItems(ctx, store, groups)
}

// ListOrderGroupsByUser returns the groups placed by one user. An existing
// user with no orders gets an empty list.
func (s *OrderService) ListOrderGroupsByUser(ctx context.Context, userID uuid.UUID) ([]OrderGroupResult, error) {
	store := s.newStore(s.pool)

	if _, err := store.GetUserByID(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	groups, err := store.ListOrderGroupsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list order groups by user: %w", err)
	}
	return withItems(ctx, store, groups)
}

// withItems attaches lines to groups using a single batch query.
func withItems(ctx context.Context, store OrderStore, groups []database.OrderGroup) ([]OrderGroupResult, error) {
	results := make([]OrderGroupResult, 0, len(groups))
	if len(groups) == 0 {
		return results, nil
	}

	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	items, err := store.ListOrderItemsByGroups(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	byGroup := make(map[uuid.UUID][]database.OrderItem, len(groups))
	for _, it := range items {
		byGroup[it.OrderGroupID] = append(byGroup[it.OrderGroupID], it)
	}
	for _, g := range groups {
		lines := byGroup[g.ID]
		if lines == nil {
			lines = []database.OrderItem{}
		}
		results = append(results, OrderGroupResult{Group: g, Items: lines})
	}
	return results, nil
}

// --- Helpers ---

func validateLines(in []CreateOrderLine) ([]CreateOrderLine, error) {
	if len(in) == 0 {
		return nil, ErrEmptyItems
	}
	out := make([]CreateOrderLine, len(in))
	for i, l := range in {
		name := strings.TrimSpace(l.Name)
		if name == "" {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidItemName)
		}
		if l.Quantity < 1 {
			return nil, fmt.Errorf("items[%d]: %w", i, ErrInvalidQuantity)
		}
		out[i] = CreateOrderLine{Name: name, Quantity: l.Quantity}
	}
	return out, nil
}

// distinctNames keeps first-seen order.
func distinctNames(lines []CreateOrderLine) []string {
	seen := make(map[string]struct{}, len(lines))
	names := make([]string, 0, len(lines))
	for _, l := range lines {
		if _, ok := seen[l.Name]; ok {
			continue
		}
		seen[l.Name] = struct{}{}
		names = append(names, l.Name)
	}
	return names
}

// NumericToDecimal converts a NUMERIC column value; NULL and NaN become zero.
func NumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// DecimalToNumeric keeps the full precision of d.
func DecimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.String())
	return n
}

// MoneyToNumeric rounds to cents.
func MoneyToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric
	_ = n.Scan(d.StringFixed(2))
	return n
}
