package firestoredocs

import (
	"fmt"
	"math"
	"time"

	"github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Field names match the documents the mobile app writes.
const (
	fieldCart       = "cart"
	fieldOrders     = "orders"
	fieldID         = "id"
	fieldItemName   = "itemName"
	fieldPrice      = "price"
	fieldQuantity   = "quantity"
	fieldOrderID    = "orderId"
	fieldUserID     = "userId"
	fieldItems      = "items"
	fieldTotalItems = "totalItems"
	fieldTotalPrice = "totalPrice"
	fieldStatus     = "status"
	fieldCreatedAt  = "createdAt"
)

func linesToDocs(lines []cart.Line) []any {
	out := make([]any, 0, len(lines))
	for _, l := range lines {
		out = append(out, map[string]any{
			fieldID:       l.ID,
			fieldItemName: l.Name,
			fieldPrice:    l.UnitPrice.InexactFloat64(),
			fieldQuantity: int64(l.Quantity),
		})
	}
	return out
}

func linesFromDocs(raw any) ([]cart.Line, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("cart field has type %T, want array", raw)
	}
	out := make([]cart.Line, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("cart[%d] has type %T, want map", i, item)
		}
		price, err := decodeDecimal(m[fieldPrice])
		if err != nil {
			return nil, fmt.Errorf("cart[%d].price: %w", i, err)
		}
		qty, err := decodeInt(m[fieldQuantity])
		if err != nil {
			return nil, fmt.Errorf("cart[%d].quantity: %w", i, err)
		}
		out = append(out, cart.Line{
			ID:        asString(m[fieldID]),
			Name:      asString(m[fieldItemName]),
			UnitPrice: price,
			Quantity:  qty,
		})
	}
	return cart.NormalizeLines(out), nil
}

// orderToDoc is the history entry stored on the user document. The orders
// collection copy adds userId.
func orderToDoc(order cart.OrderRecord) map[string]any {
	return map[string]any{
		fieldOrderID:    order.ID,
		fieldItems:      linesToDocs(order.Lines),
		fieldTotalItems: int64(order.TotalItems),
		fieldTotalPrice: order.TotalPrice.InexactFloat64(),
		fieldStatus:     string(order.Status),
		fieldCreatedAt:  order.CreatedAt.UTC(),
	}
}

func orderFromDoc(m map[string]any, ownerID string) (cart.OrderRecord, error) {
	lines, err := linesFromDocs(m[fieldItems])
	if err != nil {
		return cart.OrderRecord{}, err
	}
	totalItems, err := decodeInt(m[fieldTotalItems])
	if err != nil {
		return cart.OrderRecord{}, fmt.Errorf("totalItems: %w", err)
	}
	totalPrice, err := decodeDecimal(m[fieldTotalPrice])
	if err != nil {
		return cart.OrderRecord{}, fmt.Errorf("totalPrice: %w", err)
	}
	if owner := asString(m[fieldUserID]); owner != "" {
		ownerID = owner
	}
	status := enums.OrderStatus(asString(m[fieldStatus]))
	if status == "" {
		status = enums.OrderStatusProcessing
	}
	var createdAt time.Time
	if ts, ok := m[fieldCreatedAt].(time.Time); ok {
		createdAt = ts.UTC()
	}
	return cart.OrderRecord{
		ID:         asString(m[fieldOrderID]),
		OwnerID:    ownerID,
		Lines:      lines,
		TotalItems: totalItems,
		TotalPrice: totalPrice,
		Status:     status,
		CreatedAt:  createdAt,
	}, nil
}

func ordersFromDocs(raw any, ownerID string) ([]cart.OrderRecord, error) {
	if raw == nil {
		return nil, nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("orders field has type %T, want array", raw)
	}
	out := make([]cart.OrderRecord, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("orders[%d] has type %T, want map", i, item)
		}
		order, err := orderFromDoc(m, ownerID)
		if err != nil {
			return nil, fmt.Errorf("orders[%d]: %w", i, err)
		}
		out = append(out, order)
	}
	return out, nil
}

// Older clients stored prices as strings.
func decodeDecimal(v any) (decimal.Decimal, error) {
	switch n := v.(type) {
	case nil:
		return decimal.Zero, nil
	case float64:
		return decimal.NewFromFloat(n), nil
	case int64:
		return decimal.NewFromInt(n), nil
	case string:
		return decimal.NewFromString(n)
	default:
		return decimal.Zero, fmt.Errorf("unsupported number type %T", v)
	}
}

func decodeInt(v any) (int, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return 0, fmt.Errorf("non-integral value %v", n)
		}
		return int(n), nil
	default:
		return 0, fmt.Errorf("unsupported integer type %T", v)
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
