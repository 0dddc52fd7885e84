package cart

import (
	"github.com/angelmondragon/cropmarket-backend/api/validators"
	cartsvc "github.com/angelmondragon/cropmarket-backend/internal/cart"
	"github.com/shopspring/decimal"
)

const maxItemNameLength = 200

// AddItemRequest mirrors the line shape the app stores: price accepts a JSON
// number or a decimal string.
type AddItemRequest struct {
	ID       string          `json:"id" validate:"required,notblank,max=128"`
	ItemName string          `json:"itemName" validate:"max=200"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity" validate:"gte=1"`
}

func (r AddItemRequest) toInput() cartsvc.LineInput {
	return cartsvc.LineInput{
		ID:        validators.SanitizeString(r.ID, 0),
		Name:      validators.SanitizeString(r.ItemName, maxItemNameLength),
		UnitPrice: r.Price,
		Quantity:  r.Quantity,
	}
}
