package cart

import (
	"time"

	cartsvc "github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/angelmondragon/cropmarket-backend/pkg/enums"
)

type LineView struct {
	ID       string `json:"id"`
	ItemName string `json:"itemName"`
	Price    string `json:"price"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

type CartView struct {
	Items      []LineView `json:"items"`
	TotalItems int        `json:"total_items"`
	TotalPrice string     `json:"total_price"`
	UserID     string     `json:"user_id,omitempty"`
	Source     string     `json:"source"`
}

type OrderView struct {
	ID         string            `json:"id"`
	OwnerID    string            `json:"owner_id"`
	Items      []LineView        `json:"items"`
	TotalItems int               `json:"total_items"`
	TotalPrice string            `json:"total_price"`
	Status     enums.OrderStatus `json:"status"`
	CreatedAt  time.Time         `json:"created_at"`
}

// TotalsView is what an anonymous checkout still reports.
type TotalsView struct {
	TotalItems int    `json:"total_items"`
	TotalPrice string `json:"total_price"`
}

type CheckoutView struct {
	Order      OrderView `json:"order"`
	TotalItems int       `json:"total_items"`
	TotalPrice string    `json:"total_price"`
}

func newLineViews(lines []cartsvc.Line) []LineView {
	out := make([]LineView, 0, len(lines))
	for _, l := range lines {
		out = append(out, LineView{
			ID:       l.ID,
			ItemName: l.Name,
			Price:    l.UnitPrice.String(),
			Quantity: l.Quantity,
			Subtotal: l.Subtotal().String(),
		})
	}
	return out
}

func newCartView(store *cartsvc.Store) CartView {
	lines := store.Snapshot()
	totals := cartsvc.ComputeTotals(lines)
	return CartView{
		Items:      newLineViews(lines),
		TotalItems: totals.TotalItems,
		TotalPrice: totals.DisplayPrice(),
		UserID:     store.UserID(),
		Source:     string(store.Source()),
	}
}

// NewOrderView is shared with the orders controller.
func NewOrderView(order cartsvc.OrderRecord) OrderView {
	return OrderView{
		ID:         order.ID,
		OwnerID:    order.OwnerID,
		Items:      newLineViews(order.Lines),
		TotalItems: order.TotalItems,
		TotalPrice: order.TotalPrice.StringFixed(2),
		Status:     order.Status,
		CreatedAt:  order.CreatedAt,
	}
}

func newCheckoutView(res *cartsvc.CheckoutResult) CheckoutView {
	view := CheckoutView{
		TotalItems: res.Totals.TotalItems,
		TotalPrice: res.Totals.DisplayPrice(),
	}
	if res.Order != nil {
		view.Order = NewOrderView(*res.Order)
	}
	return view
}

func newTotalsView(totals cartsvc.Totals) TotalsView {
	return TotalsView{TotalItems: totals.TotalItems, TotalPrice: totals.DisplayPrice()}
}
