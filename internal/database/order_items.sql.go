package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderItem = `-- name: CreateOrderItem :one
INSERT INTO order_items (order_group_id, item_id, name, quantity, unit_price)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, order_group_id, item_id, name, quantity, unit_price, created_at
`

type CreateOrderItemParams struct {
	OrderGroupID uuid.UUID      `json:"order_group_id"`
	ItemID       pgtype.UUID    `json:"item_id"`
	Name         string         `json:"name"`
	Quantity     int32          `json:"quantity"`
	UnitPrice    pgtype.Numeric `json:"unit_price"`
}

func (q *Queries) CreateOrderItem(ctx context.Context, arg CreateOrderItemParams) (OrderItem, error) {
	row := q.db.QueryRow(ctx, createOrderItem,
		arg.OrderGroupID,
		arg.ItemID,
		arg.Name,
		arg.Quantity,
		arg.UnitPrice,
	)
	var i OrderItem
	err := row.Scan(
		&i.ID,
		&i.OrderGroupID,
		&i.ItemID,
		&i.Name,
		&i.Quantity,
		&i.UnitPrice,
		&i.CreatedAt,
	)
	return i, err
}

const listOrderItemsByGroup = `-- name: ListOrderItemsByGroup :many
SELECT id, order_group_id, item_id, name, quantity, unit_price, created_at
FROM order_items
WHERE order_group_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListOrderItemsByGroup(ctx context.Context, orderGroupID uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByGroup, orderGroupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

const listOrderItemsByGroups = `-- name: ListOrderItemsByGroups :many
SELECT id, order_group_id, item_id, name, quantity, unit_price, created_at
FROM order_items
WHERE order_group_id = ANY($1::uuid[])
ORDER BY created_at, id
`

func (q *Queries) ListOrderItemsByGroups(ctx context.Context, orderGroupIDs []uuid.UUID) ([]OrderItem, error) {
	rows, err := q.db.Query(ctx, listOrderItemsByGroups, orderGroupIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderItems(rows)
}

func scanOrderItems(rows scannableRows) ([]OrderItem, error) {
	items := []OrderItem{}
	for rows.Next() {
		var i OrderItem
		if err := rows.Scan(
			&i.ID,
			&i.OrderGroupID,
			&i.ItemID,
			&i.Name,
			&i.Quantity,
			&i.UnitPrice,
			&i.CreatedAt,
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

const deleteOrderItemsByGroup = `-- name: DeleteOrderItemsByGroup :exec
DELETE FROM order_items
WHERE order_group_id = $1
`

func (q *Queries) DeleteOrderItemsByGroup(ctx context.Context, orderGroupID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteOrderItemsByGroup, orderGroupID)
	return err
}
