package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cafebar/api/internal/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// statusAliases maps accepted spellings to canonical statuses.
var statusAliases = map[string]database.OrderGroupStatus{
	"pending":        database.OrderGroupStatusPending,
	"pendente":       database.OrderGroupStatusPending,
	"in_preparation": database.OrderGroupStatusInPreparation,
	"em_preparo":     database.OrderGroupStatusInPreparation,
	"ready":          database.OrderGroupStatusReady,
	"pronto":         database.OrderGroupStatusReady,
	"delivered":      database.OrderGroupStatusDelivered,
	"entregue":       database.OrderGroupStatusDelivered,
}

// allowedTransitions defines valid status transitions.
// Key is current status, value is the set of statuses it can transition to.
var allowedTransitions = map[database.OrderGroupStatus][]database.OrderGroupStatus{
	database.OrderGroupStatusPending:       {database.OrderGroupStatusInPreparation, database.OrderGroupStatusReady},
	database.OrderGroupStatusInPreparation: {database.OrderGroupStatusReady},
	database.OrderGroupStatusReady:         {database.OrderGroupStatusDelivered},
}

// statusRank orders statuses along the lifecycle.
var statusRank = map[database.OrderGroupStatus]int{
	database.OrderGroupStatusPending:       0,
	database.OrderGroupStatusInPreparation: 1,
	database.OrderGroupStatusReady:         2,
	database.OrderGroupStatusDelivered:     3,
}

// ParseStatus returns the canonical status for s, or ErrInvalidStatus.
func ParseStatus(s string) (database.OrderGroupStatus, error) {
	st, ok := statusAliases[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
	}
	return st, nil
}

// validateStatusTransition checks if the transition from current to next is allowed.
func validateStatusTransition(current, next database.OrderGroupStatus) error {
	for _, s := range allowedTransitions[current] {
		if s == next {
			return nil
		}
	}
	return &TransitionError{From: current, To: next}
}

// Deduction is the stock removed from one ingredient when a group became ready.
type Deduction struct {
	IngredientID uuid.UUID
	Name         string
	Unit         string
	Amount       decimal.Decimal
	Remaining    decimal.Decimal
}

// StatusUpdateResult is the outcome of UpdateStatus. Changed is false when
// the group already had the requested status. Unlinked holds the lines whose
// menu item was deleted; they consume nothing when the group becomes ready.
type StatusUpdateResult struct {
	Group      database.OrderGroup
	Items      []database.OrderItem
	Deductions []Deduction
	Unlinked   []database.OrderItem
	Previous   database.OrderGroupStatus
	Changed    bool
}

// ReachedReady reports whether this update moved the group into ready.
func (r *StatusUpdateResult) ReachedReady() bool {
	return r.Changed && r.Group.Status == database.OrderGroupStatusReady
}

// UpdateStatus moves a group to target. Entering ready deducts the recipe
// consumption of every line from ingredient stock, once, in the same
// transaction as the status write.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, target string) (*StatusUpdateResult, error) {
	next, err := ParseStatus(target)
	if err != nil {
		return nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	current, err := store.GetOrderGroupForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderGroupNotFound
		}
		return nil, fmt.Errorf("get order group: %w", err)
	}

	result := &StatusUpdateResult{Group: current, Previous: current.Status}
	deducted := false

	if current.Status != next {
		if err := validateStatusTransition(current.Status, next); err != nil {
			return nil, err
		}

		updated, err := store.UpdateOrderGroupStatus(ctx, database.UpdateOrderGroupStatusParams{
			ID:         id,
			Status:     next,
			PrevStatus: current.Status,
		})
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, ErrStatusConflict
			}
			return nil, fmt.Errorf("update order group status: %w", err)
		}
		result.Group = updated
		result.Changed = true

		if next == database.OrderGroupStatusReady && statusRank[current.Status] < statusRank[next] {
			result.Deductions, err = s.deductIngredients(ctx, store, id)
			if err != nil {
				return nil, err
			}
			deducted = true
		}
	}

	result.Items, err = store.ListOrderItemsByGroup(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	if deducted {
		for _, it := range result.Items {
			if !it.ItemID.Valid {
				result.Unlinked = append(result.Unlinked, it)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return result, nil
}

// deductIngredients subtracts the group's aggregated consumption. Ingredient
// rows are locked in id order before any check or write.
func (s *OrderService) deductIngredients(ctx context.Context, store OrderStore, groupID uuid.UUID) ([]Deduction, error) {
	consumption, err := store.ListOrderGroupConsumption(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list consumption: %w", err)
	}
	if len(consumption) == 0 {
		return []Deduction{}, nil
	}

	ids := make([]uuid.UUID, len(consumption))
	for i, c := range consumption {
		ids[i] = c.IngredientID
	}
	locked, err := store.LockIngredients(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock ingredients: %w", err)
	}
	stock := make(map[uuid.UUID]decimal.Decimal, len(locked))
	for _, ing := range locked {
		stock[ing.ID] = NumericToDecimal(ing.Quantity)
	}

	if !s.allowNegativeStock {
		var shortages []Shortage
		for _, c := range consumption {
			need := NumericToDecimal(c.Amount)
			have := stock[c.IngredientID]
			if have.LessThan(need) {
				shortages = append(shortages, Shortage{
					Name:      c.IngredientName,
					Unit:      c.Unit,
					Available: have,
					Required:  need,
				})
			}
		}
		if len(shortages) > 0 {
			return nil, &InsufficientStockError{Shortages: shortages}
		}
	}

	for _, c := range consumption {
		left := stock[c.IngredientID].Sub(NumericToDecimal(c.Amount))
		if left.Abs().GreaterThanOrEqual(maxQuantity) {
			return nil, fmt.Errorf("%s: %w", c.IngredientName, ErrStockOutOfRange)
		}
	}

	deductions := make([]Deduction, 0, len(consumption))
	for _, c := range consumption {
		ing, err := store.DeductIngredient(ctx, database.DeductIngredientParams{
			ID:     c.IngredientID,
			Amount: c.Amount,
		})
		if err != nil {
			return nil, fmt.Errorf("deduct ingredient %s: %w", c.IngredientName, err)
		}
		deductions = append(deductions, Deduction{
			IngredientID: c.IngredientID,
			Name:         c.IngredientName,
			Unit:         c.Unit,
			Amount:       NumericToDecimal(c.Amount),
			Remaining:    NumericToDecimal(ing.Quantity),
		})
	}
	return deductions, nil
}
