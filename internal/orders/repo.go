package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/pkg/db"
	"github.com/angelmondragon/cropmarket-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/cropmarket-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	return &repository{db: conn}
}

// CreateOrder inserts the order. Re-inserting an id that already exists is
// treated as a retry of the same checkout and succeeds.
func (r *repository) CreateOrder(ctx context.Context, order cart.OrderRecord) (string, error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if order.OwnerID == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order owner is required")
	}
	if err := r.db.WithContext(ctx).Create(ToModel(order)).Error; err != nil {
		if db.IsUniqueViolation(err, "") {
			return order.ID, nil
		}
		return "", fmt.Errorf("insert order: %w", err)
	}
	return order.ID, nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*cart.OrderRecord, error) {
	var row models.Order
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if err != nil {
		return nil, err
	}
	order := FromModel(row)
	return &order, nil
}
