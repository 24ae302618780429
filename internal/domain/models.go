package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID        string `db:"id" json:"id"`
	NameEN    string `db:"name_en" json:"name_en"`
	NameAR    string `db:"name_ar" json:"name_ar"`
	Slug      string `db:"slug" json:"slug"`
	CreatedAt string `db:"created_at" json:"created_at"`
}

type Product struct {
	ID             string          `db:"id" json:"id"`
	CategoryID     string          `db:"category_id" json:"category_id"`
	CategoryNameEN string          `db:"category_name_en" json:"category_name_en,omitempty"`
	CategoryNameAR string          `db:"category_name_ar" json:"category_name_ar,omitempty"`
	NameEN         string          `db:"name_en" json:"name_en"`
	NameAR         string          `db:"name_ar" json:"name_ar"`
	Brand          string          `db:"brand" json:"brand"`
	DescriptionEN  string          `db:"description_en" json:"description_en"`
	DescriptionAR  string          `db:"description_ar" json:"description_ar"`
	Price          decimal.Decimal `db:"price" json:"price"`
	ImagesJSON     string          `db:"images_json" json:"-"`
	Images         []string        `db:"-" json:"images"`
	Stock          int             `db:"stock" json:"stock"`
	Active         bool            `db:"active" json:"active"`
	CreatedAt      string          `db:"created_at" json:"created_at"`
	UpdatedAt      string          `db:"updated_at" json:"updated_at,omitempty"`
}

// DecodeImages fills Images from the stored JSON column.
func (p *Product) DecodeImages() {
	p.Images = []string{}
	if p.ImagesJSON == "" {
		return
	}
	_ = json.Unmarshal([]byte(p.ImagesJSON), &p.Images)
}

// Ref is the snapshot of a product a cart line keeps.
func (p Product) Ref() ProductRef {
	images := make([]string, len(p.Images))
	copy(images, p.Images)
	return ProductRef{
		ID:     p.ID,
		NameEN: p.NameEN,
		NameAR: p.NameAR,
		Brand:  p.Brand,
		Price:  p.Price,
		Images: images,
		Stock:  p.Stock,
	}
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}
