package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createOrderGroup = `-- name: CreateOrderGroup :one
INSERT INTO order_groups (status, user_id, total_price)
VALUES ($1, $2, $3)
RETURNING id, status, user_id, total_price, created_at, updated_at
`

type CreateOrderGroupParams struct {
	Status     OrderGroupStatus `json:"status"`
	UserID     pgtype.UUID      `json:"user_id"`
	TotalPrice pgtype.Numeric   `json:"total_price"`
}

func (q *Queries) CreateOrderGroup(ctx context.Context, arg CreateOrderGroupParams) (OrderGroup, error) {
	row := q.db.QueryRow(ctx, createOrderGroup, arg.Status, arg.UserID, arg.TotalPrice)
	var i OrderGroup
	err := row.Scan(
		&i.ID,
		&i.Status,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderGroup = `-- name: GetOrderGroup :one
SELECT id, status, user_id, total_price, created_at, updated_at
FROM order_groups
WHERE id = $1
`

func (q *Queries) GetOrderGroup(ctx context.Context, id uuid.UUID) (OrderGroup, error) {
	row := q.db.QueryRow(ctx, getOrderGroup, id)
	var i OrderGroup
	err := row.Scan(
		&i.ID,
		&i.Status,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getOrderGroupForUpdate = `-- name: GetOrderGroupForUpdate :one
SELECT id, status, user_id, total_price, created_at, updated_at
FROM order_groups
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetOrderGroupForUpdate(ctx context.Context, id uuid.UUID) (OrderGroup, error) {
	row := q.db.QueryRow(ctx, getOrderGroupForUpdate, id)
	var i OrderGroup
	err := row.Scan(
		&i.ID,
		&i.Status,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listOrderGroups = `-- name: ListOrderGroups :many
SELECT id, status, user_id, total_price, created_at, updated_at
FROM order_groups
WHERE ($1::text IS NULL OR status = $1::text)
ORDER BY created_at DESC
`

func (q *Queries) ListOrderGroups(ctx context.Context, status pgtype.Text) ([]OrderGroup, error) {
	rows, err := q.db.Query(ctx, listOrderGroups, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderGroups(rows)
}

const listOrderGroupsByUser = `-- name: ListOrderGroupsByUser :many
SELECT id, status, user_id, total_price, created_at, updated_at
FROM order_groups
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListOrderGroupsByUser(ctx context.Context, userID uuid.UUID) ([]OrderGroup, error) {
	rows, err := q.db.Query(ctx, listOrderGroupsByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOrderGroups(rows)
}

type scannableRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanOrderGroups(rows scannableRows) ([]OrderGroup, error) {
	items := []OrderGroup{}
	for rows.Next() {
		var i OrderGroup
		if err := rows.Scan(
			&i.ID,
			&i.Status,
			&i.UserID,
			&i.TotalPrice,
			&i.CreatedAt,
			&i.UpdatedAt,
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

const updateOrderGroupStatus = `-- name: UpdateOrderGroupStatus :one
UPDATE order_groups
SET status = $2, updated_at = now()
WHERE id = $1 AND status = $3
RETURNING id, status, user_id, total_price, created_at, updated_at
`

type UpdateOrderGroupStatusParams struct {
	ID         uuid.UUID        `json:"id"`
	Status     OrderGroupStatus `json:"status"`
	PrevStatus OrderGroupStatus `json:"prev_status"`
}

// UpdateOrderGroupStatus only matches while the row still holds PrevStatus;
// a concurrent change yields pgx.ErrNoRows.
func (q *Queries) UpdateOrderGroupStatus(ctx context.Context, arg UpdateOrderGroupStatusParams) (OrderGroup, error) {
	row := q.db.QueryRow(ctx, updateOrderGroupStatus, arg.ID, arg.Status, arg.PrevStatus)
	var i OrderGroup
	err := row.Scan(
		&i.ID,
		&i.Status,
		&i.UserID,
		&i.TotalPrice,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteOrderGroup = `-- name: DeleteOrderGroup :one
DELETE FROM order_groups
WHERE id = $1
RETURNING id
`

func (q *Queries) DeleteOrderGroup(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	row := q.db.QueryRow(ctx, deleteOrderGroup, id)
	var deleted uuid.UUID
	err := row.Scan(&deleted)
	return deleted, err
}
