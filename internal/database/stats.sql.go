package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listTopUsers = `-- name: ListTopUsers :many
SELECT u.id, u.username, COUNT(og.id) AS total_orders
FROM order_groups og
JOIN users u ON u.id = og.user_id
GROUP BY u.id, u.username
ORDER BY total_orders DESC, u.username
LIMIT $1
`

type ListTopUsersRow struct {
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	TotalOrders int64     `json:"total_orders"`
}

func (q *Queries) ListTopUsers(ctx context.Context, limit int32) ([]ListTopUsersRow, error) {
	rows, err := q.db.Query(ctx, listTopUsers, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ListTopUsersRow{}
	for rows.Next() {
		var i ListTopUsersRow
		if err := rows.Scan(&i.UserID, &i.Username, &i.TotalOrders); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const sumRevenueSince = `-- name: SumRevenueSince :one
SELECT COALESCE(SUM(total_price), 0)::numeric AS revenue
FROM order_groups
WHERE updated_at >= $1
`

func (q *Queries) SumRevenueSince(ctx context.Context, since time.Time) (pgtype.Numeric, error) {
	row := q.db.QueryRow(ctx, sumRevenueSince, since)
	var revenue pgtype.Numeric
	err := row.Scan(&revenue)
	return revenue, err
}
