package models

import (
	"time"

	"github.com/angelmondragon/cropmarket-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Order is the standalone record produced by checkout.
type Order struct {
	ID         string            `gorm:"column:id;type:text;primaryKey"`
	OwnerID    string            `gorm:"column:owner_id;type:text;not null;index"`
	Lines      []CartLine        `gorm:"column:lines;type:jsonb;serializer:json"`
	TotalItems int               `gorm:"column:total_items;not null"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric;not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'processing'"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}

// UserOrder is the copy of an order appended to the owner's history.
type UserOrder struct {
	ID         string            `gorm:"column:id;type:text;primaryKey"`
	UserID     string            `gorm:"column:user_id;type:text;not null;index"`
	OrderID    string            `gorm:"column:order_id;type:text;not null"`
	Lines      []CartLine        `gorm:"column:lines;type:jsonb;serializer:json"`
	TotalItems int               `gorm:"column:total_items;not null"`
	TotalPrice decimal.Decimal   `gorm:"column:total_price;type:numeric;not null"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null"`
	CreatedAt  time.Time         `gorm:"column:created_at"`
}
