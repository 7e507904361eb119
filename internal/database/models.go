package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type OrderGroupStatus string

const (
	OrderGroupStatusPending       OrderGroupStatus = "pending"
	OrderGroupStatusInPreparation OrderGroupStatus = "in_preparation"
	OrderGroupStatusReady         OrderGroupStatus = "ready"
	OrderGroupStatusDelivered     OrderGroupStatus = "delivered"
)

type User struct {
	ID             uuid.UUID `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	Role           string    `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Item struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Price     pgtype.Numeric `json:"price"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type Ingredient struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Quantity  pgtype.Numeric `json:"quantity"`
	Unit      string         `json:"unit"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

type ItemIngredient struct {
	ItemID       uuid.UUID      `json:"item_id"`
	IngredientID uuid.UUID      `json:"ingredient_id"`
	Quantity     pgtype.Numeric `json:"quantity"`
}

type OrderGroup struct {
	ID         uuid.UUID        `json:"id"`
	Status     OrderGroupStatus `json:"status"`
	UserID     pgtype.UUID      `json:"user_id"`
	TotalPrice pgtype.Numeric   `json:"total_price"`
	CreatedAt  time.Time        `json:"created_at"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

type OrderItem struct {
	ID           uuid.UUID      `json:"id"`
	OrderGroupID uuid.UUID      `json:"order_group_id"`
	ItemID       pgtype.UUID    `json:"item_id"`
	Name         string         `json:"name"`
	Quantity     int32          `json:"quantity"`
	UnitPrice    pgtype.Numeric `json:"unit_price"`
	CreatedAt    time.Time      `json:"created_at"`
}
