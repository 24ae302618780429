package repos

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/jmoiron/sqlx"

	"techstore/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

const productCols = `
    p.id, p.category_id, COALESCE(c.name_en,'') AS category_name_en, COALESCE(c.name_ar,'') AS category_name_ar,
    p.name_en, p.name_ar, p.brand, p.description_en, p.description_ar, p.price, p.images_json,
    p.stock, p.active, p.created_at, COALESCE(p.updated_at,'') AS updated_at
  FROM products p
  LEFT JOIN categories c ON c.id = p.category_id`

type ProductFilter struct {
	CategoryID string
	Q          string
	// IncludeInactive is for the admin listing.
	IncludeInactive bool
	Limit, Offset   int
}

// List returns products newest first. Q matches either name or the brand, case-insensitively.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, error) {
	where := `1 = 1`
	args := []any{}
	if !f.IncludeInactive {
		where += ` AND p.active = 1`
	}
	if f.CategoryID != "" {
		where += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if q := strings.ToLower(strings.TrimSpace(f.Q)); q != "" {
		like := "%" + q + "%"
		where += ` AND (LOWER(p.name_en) LIKE ? OR p.name_ar LIKE ? OR LOWER(p.brand) LIKE ?)`
		args = append(args, like, like, like)
	}
	if f.Limit <= 0 {
		f.Limit = 50
	}
	args = append(args, f.Limit, f.Offset)

	var out []domain.Product
	err := r.db.SelectContext(ctx, &out, `SELECT`+productCols+`
  WHERE `+where+`
  ORDER BY p.created_at DESC, p.rowid DESC
  LIMIT ? OFFSET ?`, args...)
	for i := range out {
		out[i].DecodeImages()
	}
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, id string) (domain.Product, error) {
	var p domain.Product
	if err := r.db.GetContext(ctx, &p, `SELECT`+productCols+` WHERE p.id = ?`, id); err != nil {
		return domain.Product{}, notFound(err)
	}
	p.DecodeImages()
	return p, nil
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return err
	}
	p.CreatedAt = now()
	_, err = r.db.ExecContext(ctx, `
	  INSERT INTO products
	    (id, category_id, name_en, name_ar, brand, description_en, description_ar, price, images_json, stock, active, created_at)
	  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.CategoryID, p.NameEN, p.NameAR, p.Brand, p.DescriptionEN, p.DescriptionAR,
		p.Price, images, p.Stock, p.Active, p.CreatedAt)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	images, err := encodeImages(p.Images)
	if err != nil {
		return err
	}
	p.UpdatedAt = now()
	return affected(r.db.ExecContext(ctx, `
	  UPDATE products SET
	    category_id = ?, name_en = ?, name_ar = ?, brand = ?, description_en = ?, description_ar = ?,
	    price = ?, images_json = ?, stock = ?, active = ?, updated_at = ?
	  WHERE id = ?
	`, p.CategoryID, p.NameEN, p.NameAR, p.Brand, p.DescriptionEN, p.DescriptionAR,
		p.Price, images, p.Stock, p.Active, p.UpdatedAt, p.ID))
}

func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id))
}

func (r *ProductRepo) SetActive(ctx context.Context, id string, active bool) error {
	return affected(r.db.ExecContext(ctx, `UPDATE products SET active = ?, updated_at = ? WHERE id = ?`, active, now(), id))
}

// AppendImage adds url to the product's image list.
func (r *ProductRepo) AppendImage(ctx context.Context, id, url string) ([]string, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	if err := tx.GetContext(ctx, &raw, `SELECT images_json FROM products WHERE id = ?`, id); err != nil {
		return nil, notFound(err)
	}
	p := domain.Product{ImagesJSON: raw}
	p.DecodeImages()
	p.Images = append(p.Images, url)
	images, err := encodeImages(p.Images)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx, `UPDATE products SET images_json = ?, updated_at = ? WHERE id = ?`, images, now(), id); err != nil {
		return nil, err
	}
	return p.Images, tx.Commit()
}

func (r *ProductRepo) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM products WHERE category_id = ?`, categoryID)
	return n, err
}

func encodeImages(images []string) (string, error) {
	if images == nil {
		images = []string{}
	}
	b, err := json.Marshal(images)
	return string(b), err
}
