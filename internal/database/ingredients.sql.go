package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createIngredient = `-- name: CreateIngredient :one
INSERT INTO ingredients (name, quantity, unit)
VALUES ($1, $2, $3)
RETURNING id, name, quantity, unit, created_at, updated_at
`

type CreateIngredientParams struct {
	Name     string         `json:"name"`
	Quantity pgtype.Numeric `json:"quantity"`
	Unit     string         `json:"unit"`
}

func (q *Queries) CreateIngredient(ctx context.Context, arg CreateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, createIngredient, arg.Name, arg.Quantity, arg.Unit)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getIngredient = `-- name: GetIngredient :one
SELECT id, name, quantity, unit, created_at, updated_at
FROM ingredients
WHERE id = $1
`

func (q *Queries) GetIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, getIngredient, id)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listIngredients = `-- name: ListIngredients :many
SELECT id, name, quantity, unit, created_at, updated_at
FROM ingredients
ORDER BY name
`

func (q *Queries) ListIngredients(ctx context.Context) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredients)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Ingredient{}
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Quantity,
			&i.Unit,
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

const listIngredientsByNames = `-- name: ListIngredientsByNames :many
SELECT id, name, quantity, unit, created_at, updated_at
FROM ingredients
WHERE name = ANY($1::text[])
`

func (q *Queries) ListIngredientsByNames(ctx context.Context, names []string) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, listIngredientsByNames, names)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Ingredient{}
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Quantity,
			&i.Unit,
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

const lockIngredients = `-- name: LockIngredients :many
SELECT id, name, quantity, unit, created_at, updated_at
FROM ingredients
WHERE id = ANY($1::uuid[])
ORDER BY id
FOR UPDATE
`

// LockIngredients row-locks the given ingredients in id order so that
// concurrent deductions always acquire locks in the same sequence.
func (q *Queries) LockIngredients(ctx context.Context, ids []uuid.UUID) ([]Ingredient, error) {
	rows, err := q.db.Query(ctx, lockIngredients, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Ingredient{}
	for rows.Next() {
		var i Ingredient
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Quantity,
			&i.Unit,
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

const updateIngredient = `-- name: UpdateIngredient :one
UPDATE ingredients
SET name = $2, quantity = $3, unit = $4, updated_at = now()
WHERE id = $1
RETURNING id, name, quantity, unit, created_at, updated_at
`

type UpdateIngredientParams struct {
	ID       uuid.UUID      `json:"id"`
	Name     string         `json:"name"`
	Quantity pgtype.Numeric `json:"quantity"`
	Unit     string         `json:"unit"`
}

func (q *Queries) UpdateIngredient(ctx context.Context, arg UpdateIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, updateIngredient, arg.ID, arg.Name, arg.Quantity, arg.Unit)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deductIngredient = `-- name: DeductIngredient :one
UPDATE ingredients
SET quantity = quantity - $2, updated_at = now()
WHERE id = $1
RETURNING id, name, quantity, unit, created_at, updated_at
`

type DeductIngredientParams struct {
	ID     uuid.UUID      `json:"id"`
	Amount pgtype.Numeric `json:"amount"`
}

func (q *Queries) DeductIngredient(ctx context.Context, arg DeductIngredientParams) (Ingredient, error) {
	row := q.db.QueryRow(ctx, deductIngredient, arg.ID, arg.Amount)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const deleteIngredient = `-- name: DeleteIngredient :one
DELETE FROM ingredients
WHERE id = $1
RETURNING id, name, quantity, unit, created_at, updated_at
`

func (q *Queries) DeleteIngredient(ctx context.Context, id uuid.UUID) (Ingredient, error) {
	row := q.db.QueryRow(ctx, deleteIngredient, id)
	var i Ingredient
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Quantity,
		&i.Unit,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}
