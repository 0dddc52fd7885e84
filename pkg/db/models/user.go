package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartLine is the persisted shape of one cart line inside JSON columns.
type CartLine struct {
	ID       string          `json:"id"`
	ItemName string          `json:"itemName"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// User is the per-user document holding the mirrored cart.
type User struct {
	ID        string     `gorm:"column:id;type:text;primaryKey"`
	Cart      []CartLine `gorm:"column:cart;type:jsonb;serializer:json"`
	HasCart   bool       `gorm:"column:has_cart;not null;default:false"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
