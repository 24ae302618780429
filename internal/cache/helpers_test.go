package cache

import (
	"github.com/shopspring/decimal"

	"techstore/internal/domain"
)

func productRef() domain.ProductRef {
	return domain.ProductRef{ID: "p1", NameEN: "Keyboard", Price: decimal.NewFromInt(45), Stock: 3}
}
