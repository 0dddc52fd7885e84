package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/internal/orders"
	"github.com/angelmondragon/cropmarket-backend/pkg/db"
	"github.com/angelmondragon/cropmarket-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository is the SQL-backed user document store. The cart lives in a JSON
// column on users; order history lives in user_orders.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ cart.UserStore = (*Repository)(nil)

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{db: conn, now: time.Now}
}

// ReadUserRecord loads the user row and its order history.
func (r *Repository) ReadUserRecord(ctx context.Context, userID string) (*cart.UserRecord, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, cart.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read user %s: %w", userID, err)
	}

	history, err := r.listOrders(ctx, userID)
	if err != nil {
		return nil, err
	}

	record := &cart.UserRecord{
		ID:      user.ID,
		HasCart: user.HasCart,
		Orders:  history,
	}
	if user.HasCart {
		record.Cart = cart.NormalizeLines(orders.LinesFromModel(user.Cart))
	}
	return record, nil
}

// WriteUserCart creates the user row on first write and overwrites the cart
// afterwards.
func (r *Repository) WriteUserCart(ctx context.Context, userID string, lines []cart.Line) error {
	row := models.User{
		ID:        userID,
		Cart:      orders.LinesToModel(lines),
		HasCart:   true,
		UpdatedAt: r.now().UTC(),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"cart", "has_cart", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		return fmt.Errorf("write cart for %s: %w", userID, err)
	}
	return nil
}

// DeleteUserCart removes the cart field. A missing user is not an error.
func (r *Repository) DeleteUserCart(ctx context.Context, userID string) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Updates(map[string]any{
			"cart":       nil,
			"has_cart":   false,
			"updated_at": r.now().UTC(),
		}).Error
	if err != nil {
		return fmt.Errorf("delete cart for %s: %w", userID, err)
	}
	return nil
}

// AppendUserOrder adds the order to the user's history, creating the user
// row if it does not exist yet.
func (r *Repository) AppendUserOrder(ctx context.Context, userID string, order cart.OrderRecord) error {
	return db.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		user := models.User{ID: userID, UpdatedAt: r.now().UTC()}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&user).Error; err != nil {
			return fmt.Errorf("ensure user %s: %w", userID, err)
		}
		if err := tx.Create(orders.UserOrderToModel(uuid.NewString(), userID, order)).Error; err != nil {
			return fmt.Errorf("append order %s for %s: %w", order.ID, userID, err)
		}
		return nil
	})
}

func (r *Repository) listOrders(ctx context.Context, userID string) ([]cart.OrderRecord, error) {
	var rows []models.UserOrder
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", userID, err)
	}
	out := make([]cart.OrderRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, orders.UserOrderFromModel(row))
	}
	return out, nil
}
