package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"techstore/internal/domain"
	"techstore/internal/media"
	"techstore/internal/repos"
	"techstore/internal/validate"
)

type CatalogService struct {
	Cats  *repos.CategoryRepo
	Prods *repos.ProductRepo
	// Images is nil when uploads are not configured.
	Images media.Uploader
}

func NewCatalogService(cats *repos.CategoryRepo, prods *repos.ProductRepo, images media.Uploader) *CatalogService {
	return &CatalogService{Cats: cats, Prods: prods, Images: images}
}

type ProductQuery struct {
	CategoryID string
	Q          string
	Page       int
	PageSize   int
	// Admin includes inactive products.
	Admin bool
}

type ProductInput struct {
	CategoryID    string          `json:"category_id"`
	NameEN        string          `json:"name_en"`
	NameAR        string          `json:"name_ar"`
	Brand         string          `json:"brand"`
	DescriptionEN string          `json:"description_en"`
	DescriptionAR string          `json:"description_ar"`
	Price         decimal.Decimal `json:"price"`
	Stock         int             `json:"stock"`
	Active        *bool           `json:"active"`
	Images        []string        `json:"images"`
}

type CategoryInput struct {
	NameEN string `json:"name_en"`
	NameAR string `json:"name_ar"`
	Slug   string `json:"slug"`
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) ([]domain.Product, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize <= 0 || q.PageSize > 100 {
		q.PageSize = 12
	}
	return s.Prods.List(ctx, repos.ProductFilter{
		CategoryID:      q.CategoryID,
		Q:               q.Q,
		IncludeInactive: q.Admin,
		Limit:           q.PageSize,
		Offset:          (q.Page - 1) * q.PageSize,
	})
}

// GetProduct hides inactive products from the storefront.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if !p.Active {
		return domain.Product{}, ErrNotFound
	}
	return p, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, in ProductInput) (domain.Product, error) {
	p := domain.Product{ID: uuid.NewString(), Active: true}
	if err := s.apply(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Create(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, p.ID)
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id string, in ProductInput) (domain.Product, error) {
	p, err := s.Prods.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}
	if err := s.apply(ctx, &p, in); err != nil {
		return domain.Product{}, err
	}
	if err := s.Prods.Update(ctx, &p); err != nil {
		return domain.Product{}, err
	}
	return s.Prods.Get(ctx, id)
}

func (s *CatalogService) apply(ctx context.Context, p *domain.Product, in ProductInput) error {
	nameEN, ok := validate.Text(in.NameEN, 120)
	if !ok || nameEN == "" {
		return invalid("name_en")
	}
	nameAR, ok := validate.Text(in.NameAR, 120)
	if !ok || nameAR == "" {
		return invalid("name_ar")
	}
	brand, ok := validate.Text(in.Brand, 60)
	if !ok {
		return invalid("brand")
	}
	descEN, ok := validate.Text(in.DescriptionEN, 2000)
	if !ok {
		return invalid("description_en")
	}
	descAR, ok := validate.Text(in.DescriptionAR, 2000)
	if !ok {
		return invalid("description_ar")
	}
	if in.Price.IsNegative() {
		return invalid("price")
	}
	if in.Stock < 0 {
		return invalid("stock")
	}
	if _, err := s.Cats.Get(ctx, in.CategoryID); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			return invalid("category_id")
		}
		return err
	}

	p.CategoryID = in.CategoryID
	p.NameEN, p.NameAR, p.Brand = nameEN, nameAR, brand
	p.DescriptionEN, p.DescriptionAR = descEN, descAR
	p.Price = in.Price
	p.Stock = in.Stock
	if in.Active != nil {
		p.Active = *in.Active
	}
	if in.Images != nil {
		p.Images = in.Images
	}
	return nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	return s.Prods.Delete(ctx, id)
}

func (s *CatalogService) SetActive(ctx context.Context, id string, active bool) error {
	return s.Prods.SetActive(ctx, id, active)
}

// UploadImage stores data with the image host and appends the URL to the product.
func (s *CatalogService) UploadImage(ctx context.Context, id, filename string, data []byte) ([]string, error) {
	if s.Images == nil {
		return nil, media.ErrDisabled
	}
	if _, err := s.Prods.Get(ctx, id); err != nil {
		return nil, err
	}
	url, err := s.Images.Upload(ctx, "products/"+id, filename, data)
	if err != nil {
		return nil, err
	}
	return s.Prods.AppendImage(ctx, id, url)
}

func (s *CatalogService) CreateCategory(ctx context.Context, in CategoryInput) (domain.Category, error) {
	c := domain.Category{ID: uuid.NewString()}
	if err := applyCategory(&c, in); err != nil {
		return domain.Category{}, err
	}
	if err := s.Cats.Create(ctx, &c); err != nil {
		return domain.Category{}, fmt.Errorf("create category: %w", err)
	}
	return c, nil
}

func (s *CatalogService) UpdateCategory(ctx context.Context, id string, in CategoryInput) (domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		return domain.Category{}, err
	}
	if err := applyCategory(&c, in); err != nil {
		return domain.Category{}, err
	}
	if err := s.Cats.Update(ctx, &c); err != nil {
		return domain.Category{}, err
	}
	return c, nil
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	n, err := s.Prods.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.Cats.Delete(ctx, id)
}

func applyCategory(c *domain.Category, in CategoryInput) error {
	nameEN, ok := validate.Text(in.NameEN, 80)
	if !ok || nameEN == "" {
		return invalid("name_en")
	}
	nameAR, ok := validate.Text(in.NameAR, 80)
	if !ok || nameAR == "" {
		return invalid("name_ar")
	}
	slug, ok := validate.Slug(in.Slug)
	if !ok {
		return invalid("slug")
	}
	c.NameEN, c.NameAR, c.Slug = nameEN, nameAR, slug
	return nil
}
