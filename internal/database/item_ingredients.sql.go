package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listItemIngredients = `-- name: ListItemIngredients :many
SELECT ii.item_id, ii.ingredient_id, ing.name AS ingredient_name, ing.unit, ii.quantity
FROM item_ingredients ii
JOIN ingredients ing ON ing.id = ii.ingredient_id
WHERE ii.item_id = $1
ORDER BY ing.name
`

type ListItemIngredientsRow struct {
	ItemID         uuid.UUID      `json:"item_id"`
	IngredientID   uuid.UUID      `json:"ingredient_id"`
	IngredientName string         `json:"ingredient_name"`
	Unit           string         `json:"unit"`
	Quantity       pgtype.Numeric `json:"quantity"`
}

func (q *Queries) ListItemIngredients(ctx context.Context, itemID uuid.UUID) ([]ListItemIngredientsRow, error) {
	rows, err := q.db.Query(ctx, listItemIngredients, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListItemIngredientsRow{}
	for rows.Next() {
		var i ListItemIngredientsRow
		if err := rows.Scan(
			&i.ItemID,
			&i.IngredientID,
			&i.IngredientName,
			&i.Unit,
			&i.Quantity,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createItemIngredient = `-- name: CreateItemIngredient :one
INSERT INTO item_ingredients (item_id, ingredient_id, quantity)
VALUES ($1, $2, $3)
ON CONFLICT (item_id, ingredient_id) DO UPDATE SET quantity = EXCLUDED.quantity
RETURNING item_id, ingredient_id, quantity
`

type CreateItemIngredientParams struct {
	ItemID       uuid.UUID      `json:"item_id"`
	IngredientID uuid.UUID      `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

func (q *Queries) CreateItemIngredient(ctx context.Context, arg CreateItemIngredientParams) (ItemIngredient, error) {
	row := q.db.QueryRow(ctx, createItemIngredient, arg.ItemID, arg.IngredientID, arg.Quantity)
	var i ItemIngredient
	err := row.Scan(&i.ItemID, &i.IngredientID, &i.Quantity)
	return i, err
}

const deleteItemIngredients = `-- name: DeleteItemIngredients :exec
DELETE FROM item_ingredients
WHERE item_id = $1
`

func (q *Queries) DeleteItemIngredients(ctx context.Context, itemID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteItemIngredients, itemID)
	return err
}

const listOrderGroupConsumption = `-- name: ListOrderGroupConsumption :many
SELECT ii.ingredient_id, ing.name AS ingredient_name, ing.unit,
       SUM(ii.quantity * oi.quantity)::numeric AS amount
FROM order_items oi
JOIN item_ingredients ii ON ii.item_id = oi.item_id
JOIN ingredients ing ON ing.id = ii.ingredient_id
WHERE oi.order_group_id = $1
GROUP BY ii.ingredient_id, ing.name, ing.unit
ORDER BY ii.ingredient_id
`

type ListOrderGroupConsumptionRow struct {
	IngredientID   uuid.UUID      `json:"ingredient_id"`
	IngredientName string         `json:"ingredient_name"`
	Unit           string         `json:"unit"`
	Amount         pgtype.Numeric `json:"amount"`
}

// ListOrderGroupConsumption sums per-unit recipe quantity times ordered
// quantity for every ingredient used by the group's lines.
func (q *Queries) ListOrderGroupConsumption(ctx context.Context, orderGroupID uuid.UUID) ([]ListOrderGroupConsumptionRow, error) {
	rows, err := q.db.Query(ctx, listOrderGroupConsumption, orderGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListOrderGroupConsumptionRow{}
	for rows.Next() {
		var i ListOrderGroupConsumptionRow
		if err := rows.Scan(
			&i.IngredientID,
			&i.IngredientName,
			&i.Unit,
			&i.Amount,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
