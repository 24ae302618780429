package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"techstore/internal/domain"
)

type CategoryRepo struct{ db *sqlx.DB }

func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	var out []domain.Category
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, name_en, name_ar, slug, created_at
	  FROM categories
	  ORDER BY name_en ASC`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (domain.Category, error) {
	var c domain.Category
	err := r.db.GetContext(ctx, &c, `SELECT id, name_en, name_ar, slug, created_at FROM categories WHERE id = ?`, id)
	return c, notFound(err)
}

func (r *CategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	c.CreatedAt = now()
	_, err := r.db.ExecContext(ctx, `
	  INSERT INTO categories(id, name_en, name_ar, slug, created_at) VALUES (?, ?, ?, ?, ?)
	`, c.ID, c.NameEN, c.NameAR, c.Slug, c.CreatedAt)
	return err
}

func (r *CategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	return affected(r.db.ExecContext(ctx, `
	  UPDATE categories SET name_en = ?, name_ar = ?, slug = ? WHERE id = ?
	`, c.NameEN, c.NameAR, c.Slug, c.ID))
}

// Delete fails with a foreign key error while products still reference the category.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return affected(r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id))
}
