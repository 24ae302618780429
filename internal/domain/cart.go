package domain

import "github.com/shopspring/decimal"

// ProductRef is a read-only copy of a catalog product taken when it was added to a cart.
type ProductRef struct {
	ID     string          `json:"id"`
	NameEN string          `json:"name_en"`
	NameAR string          `json:"name_ar,omitempty"`
	Brand  string          `json:"brand,omitempty"`
	Price  decimal.Decimal `json:"price"`
	Images []string        `json:"images,omitempty"`
	Stock  int             `json:"stock"`
}

type CartLine struct {
	Product  ProductRef `json:"product"`
	Quantity int        `json:"quantity"`
	Notes    string     `json:"notes,omitempty"`
}

// Subtotal is price times quantity at the captured price.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}
