package cart

import (
	"time"

	"github.com/angelmondragon/cropmarket-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// CartItemsKey is the local cache key holding the serialized cart.
const CartItemsKey = "cartItems"

// Line is one distinct product in the cart.
type Line struct {
	ID        string          `json:"id"`
	Name      string          `json:"itemName"`
	UnitPrice decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Subtotal is unit price times quantity, unrounded.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineInput is the add-to-cart request.
type LineInput struct {
	ID        string
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Totals are derived from the lines on demand and never stored.
type Totals struct {
	TotalItems int             `json:"total_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

// DisplayPrice rounds the total to two decimals for presentation.
func (t Totals) DisplayPrice() string {
	return t.TotalPrice.StringFixed(2)
}

// OrderRecord is the immutable snapshot written at checkout.
type OrderRecord struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"owner_id"`
	Lines      []Line            `json:"lines"`
	TotalItems int               `json:"total_items"`
	TotalPrice decimal.Decimal   `json:"total_price"`
	Status     enums.OrderStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// UserRecord is the remote per-user document. HasCart distinguishes a
// missing cart field from an empty one.
type UserRecord struct {
	ID      string
	Cart    []Line
	HasCart bool
	Orders  []OrderRecord
}

// CheckoutResult carries the created order and the totals it was built from.
// Order is nil when no order could be written.
type CheckoutResult struct {
	Order  *OrderRecord
	Totals Totals
}

// LoadSource names the reconciliation rule that produced the loaded cart.
type LoadSource string

const (
	LoadSourceRemote LoadSource = "remote"
	LoadSourceLocal  LoadSource = "local"
	LoadSourceEmpty  LoadSource = "empty"
)

// ComputeTotals sums quantities and line subtotals.
func ComputeTotals(lines []Line) Totals {
	totals := Totals{TotalPrice: decimal.Zero}
	for _, line := range lines {
		totals.TotalItems += line.Quantity
		totals.TotalPrice = totals.TotalPrice.Add(line.Subtotal())
	}
	return totals
}

// CloneLines returns a copy that shares no backing array with lines.
func CloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}

func cloneOrder(order OrderRecord) OrderRecord {
	order.Lines = CloneLines(order.Lines)
	return order
}

func newOrderRecord(id, ownerID string, lines []Line, createdAt time.Time) OrderRecord {
	totals := ComputeTotals(lines)
	return OrderRecord{
		ID:         id,
		OwnerID:    ownerID,
		Lines:      CloneLines(lines),
		TotalItems: totals.TotalItems,
		TotalPrice: totals.TotalPrice,
		Status:     enums.OrderStatusProcessing,
		CreatedAt:  createdAt,
	}
}
