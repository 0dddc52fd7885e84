package orders

import (
	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/pkg/db/models"
)

// LinesToModel converts cart lines into their persisted JSON shape.
func LinesToModel(lines []cart.Line) []models.CartLine {
	out := make([]models.CartLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, models.CartLine{
			ID:       l.ID,
			ItemName: l.Name,
			Price:    l.UnitPrice,
			Quantity: l.Quantity,
		})
	}
	return out
}

// LinesFromModel converts persisted lines back into cart lines.
func LinesFromModel(lines []models.CartLine) []cart.Line {
	out := make([]cart.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, cart.Line{
			ID:        l.ID,
			Name:      l.ItemName,
			UnitPrice: l.Price,
			Quantity:  l.Quantity,
		})
	}
	return out
}

// ToModel maps an order record to its orders table row.
func ToModel(order cart.OrderRecord) *models.Order {
	return &models.Order{
		ID:         order.ID,
		OwnerID:    order.OwnerID,
		Lines:      LinesToModel(order.Lines),
		TotalItems: order.TotalItems,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
}

// FromModel maps an orders table row to an order record.
func FromModel(m models.Order) cart.OrderRecord {
	return cart.OrderRecord{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		Lines:      LinesFromModel(m.Lines),
		TotalItems: m.TotalItems,
		TotalPrice: m.TotalPrice,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// UserOrderToModel maps an order record to a user_orders history row.
func UserOrderToModel(rowID, userID string, order cart.OrderRecord) *models.UserOrder {
	return &models.UserOrder{
		ID:         rowID,
		UserID:     userID,
		OrderID:    order.ID,
		Lines:      LinesToModel(order.Lines),
		TotalItems: order.TotalItems,
		TotalPrice: order.TotalPrice,
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
}

// UserOrderFromModel maps a user_orders history row to an order record.
func UserOrderFromModel(m models.UserOrder) cart.OrderRecord {
	return cart.OrderRecord{
		ID:         m.OrderID,
		OwnerID:    m.UserID,
		Lines:      LinesFromModel(m.Lines),
		TotalItems: m.TotalItems,
		TotalPrice: m.TotalPrice,
		Status:     m.Status,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}
