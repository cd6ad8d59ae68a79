package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type ProductCache interface {
	Get(ctx context.Context, slug string) (*models.Product, error)
	Set(ctx context.Context, p *models.Product) error
	Invalidate(ctx context.Context, slugs ...string) error
}

type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

// CatalogService serves products and categories. Cache, Index and Events
// are optional.
type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  ProductCache
	Index  ProductIndex
	Events events.Publisher
}

type ProductPage struct {
	Items []models.Product `json:"data"`
	Meta  util.Meta        `json:"meta"`
}

func (s *CatalogService) ListProducts(ctx context.Context, categorySlug string, page, size int) (*ProductPage, error) {
	offset, limit := util.Calculate(page, size)

	var categoryID *uuid.UUID
	if categorySlug != "" {
		cat, err := s.Repo.GetCategoryBySlug(ctx, categorySlug)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("category %q: %w", categorySlug, ErrNotFound)
			}
			return nil, err
		}
		categoryID = &cat.ID
	}

	total, items, err := s.Repo.GetActiveProducts(ctx, categoryID, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

// GetProductBySlug reads through the cache when one is configured.
func (s *CatalogService) GetProductBySlug(ctx context.Context, slug string) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "catalog.get_by_slug")

	if s.Cache != nil {
		p, err := s.Cache.Get(ctx, slug)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			l.Warn("cache_get_error", "slug", slug, "error", err)
		}
	}

	p, err := s.Repo.GetActiveProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %q: %w", slug, ErrNotFound)
		}
		return nil, err
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, p); err != nil {
			l.Warn("cache_set_error", "slug", slug, "error", err)
		}
	}
	return p, nil
}

// SearchProducts queries the search index and falls back to SQL matching
// when no index is configured or the index is unavailable.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, page, size int) (*ProductPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("empty query: %w", ErrValidation)
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "query", q, "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Items: items, Meta: util.NewMeta(page, offset, limit, total)}, nil
}

func (s *CatalogService) AdminListProducts(ctx context.Context) ([]repo.ProductWithCategory, error) {
	return s.Repo.GetProductsWithCategory(ctx)
}

// AdminGetProduct loads a product for editing, inactive ones included.
func (s *CatalogService) AdminGetProduct(ctx context.Context, id Identity, productID uuid.UUID) (*repo.ProductWithCategory, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	prod, err := s.Repo.GetProductWithCategory(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return nil, err
	}
	return prod, nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, id Identity, req transport.CreateProductRequest) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" || req.Price == nil {
		return nil, fmt.Errorf("title, description and price are required: %w", ErrValidation)
	}
	if req.Price.IsNegative() {
		return nil, fmt.Errorf("price must not be negative: %w", ErrValidation)
	}

	prod := &models.Product{
		Title:       title,
		Description: description,
		Price:       req.Price.Round(2),
		IsActive:    true,
		ImageURL:    req.ImageURL,
		CategoryID:  req.CategoryID,
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return nil, fmt.Errorf("stock must not be negative: %w", ErrValidation)
		}
		prod.Stock = *req.Stock
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}

	slugSource := title
	if strings.TrimSpace(req.Slug) != "" {
		slugSource = req.Slug
	}
	prod.Slug = Slugify(slugSource)
	if prod.Slug == "" {
		return nil, fmt.Errorf("slug is empty: %w", ErrValidation)
	}

	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		if err := checkCategory(ctx, tx, prod.CategoryID); err != nil {
			return err
		}
		if err := checkProductSlug(ctx, tx, prod.Slug, uuid.Nil); err != nil {
			return err
		}
		return tx.CreateProduct(ctx, prod)
	})
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, fmt.Errorf("slug %q already exists: %w", prod.Slug, ErrConflict)
		}
		return nil, err
	}

	s.afterProductWrite(ctx, events.ProductCreated, prod)
	return prod, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, id Identity, productID uuid.UUID, req transport.UpdateProductRequest) (*models.Product, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}

	var (
		prod    *models.Product
		oldSlug string
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		var err error
		prod, err = tx.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %s: %w", productID, ErrNotFound)
			}
			return err
		}
		oldSlug = prod.Slug

		if err := applyProductUpdate(prod, req); err != nil {
			return err
		}
		if err := checkCategory(ctx, tx, prod.CategoryID); err != nil {
			return err
		}
		if prod.Slug != oldSlug {
			if err := checkProductSlug(ctx, tx, prod.Slug, prod.ID); err != nil {
				return err
			}
		}
		return tx.SaveProduct(ctx, prod)
	})
	if err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, fmt.Errorf("slug already exists: %w", ErrConflict)
		}
		return nil, err
	}

	s.invalidate(ctx, oldSlug, prod.Slug)
	s.afterProductWrite(ctx, events.ProductUpdated, prod)
	return prod, nil
}

func applyProductUpdate(prod *models.Product, req transport.UpdateProductRequest) error {
	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		if t == "" {
			return fmt.Errorf("title must not be empty: %w", ErrValidation)
		}
		prod.Title = t
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" {
			return fmt.Errorf("description must not be empty: %w", ErrValidation)
		}
		prod.Description = d
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return fmt.Errorf("price must not be negative: %w", ErrValidation)
		}
		prod.Price = req.Price.Round(2)
	}
	if req.Stock != nil {
		if *req.Stock < 0 {
			return fmt.Errorf("stock must not be negative: %w", ErrValidation)
		}
		prod.Stock = *req.Stock
	}
	if req.IsActive != nil {
		prod.IsActive = *req.IsActive
	}
	if req.ImageURL.Set {
		if v := req.ImageURL.Value; v == nil || *v == "" {
			prod.ImageURL = nil
		} else {
			prod.ImageURL = v
		}
	}
	if req.CategoryID.Set {
		if v := req.CategoryID.Value; v == nil || *v == uuid.Nil {
			prod.CategoryID = nil
		} else {
			prod.CategoryID = v
		}
	}
	if req.Slug != nil {
		slug := Slugify(*req.Slug)
		if slug == "" {
			return fmt.Errorf("slug is empty: %w", ErrValidation)
		}
		prod.Slug = slug
	}
	return nil
}

// DeleteProduct soft-deletes the product. Existing cart lines stay and are
// rejected at checkout.
func (s *CatalogService) DeleteProduct(ctx context.Context, id Identity, productID uuid.UUID) error {
	if err := requireAdmin(id); err != nil {
		return err
	}

	prod, err := s.Repo.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("product %s: %w", productID, ErrNotFound)
		}
		return err
	}

	s.invalidate(ctx, prod.Slug)
	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, productID); err != nil {
			logging.FromContext(ctx).Warn("search_index_delete_error", "product_id", productID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProduct, productID.String(), events.ProductEvent{
		Type:      events.ProductDeleted,
		ProductID: productID,
		Slug:      prod.Slug,
		At:        time.Now().UTC(),
	})
	return nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.GetCategories(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, id Identity, req transport.CreateCategoryRequest) (*models.Category, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("name is required: %w", ErrValidation)
	}
	slug := Slugify(name)
	if strings.TrimSpace(req.Slug) != "" {
		slug = Slugify(req.Slug)
	}
	if slug == "" {
		return nil, fmt.Errorf("slug is empty: %w", ErrValidation)
	}

	taken, err := s.Repo.CategorySlugTaken(ctx, slug)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("category slug %q already exists: %w", slug, ErrConflict)
	}

	cat := &models.Category{Name: name, Slug: slug}
	if err := s.Repo.CreateCategory(ctx, cat); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, fmt.Errorf("category slug %q already exists: %w", slug, ErrConflict)
		}
		return nil, err
	}
	return cat, nil
}

// RefreshProducts brings the cache and the search index in line with the
// stored rows after their stock changed outside the catalog.
func (s *CatalogService) RefreshProducts(ctx context.Context, ids ...uuid.UUID) {
	prods, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		logging.FromContext(ctx).Warn("product_refresh_error", "product_ids", ids, "error", err)
		return
	}
	slugs := make([]string, 0, len(prods))
	for _, p := range prods {
		slugs = append(slugs, p.Slug)
	}
	s.invalidate(ctx, slugs...)

	if s.Index == nil {
		return
	}
	for i := range prods {
		p := &prods[i]
		if p.DeletedAt.Valid {
			continue
		}
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
		}
	}
}

func (s *CatalogService) invalidate(ctx context.Context, slugs ...string) {
	if s.Cache == nil || len(slugs) == 0 {
		return
	}
	if err := s.Cache.Invalidate(ctx, slugs...); err != nil {
		logging.FromContext(ctx).Warn("cache_invalidate_error", "slugs", slugs, "error", err)
	}
}

func (s *CatalogService) afterProductWrite(ctx context.Context, typ string, prod *models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, prod); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", prod.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProduct, prod.ID.String(), events.ProductEvent{
		Type:      typ,
		ProductID: prod.ID,
		Title:     prod.Title,
		Slug:      prod.Slug,
		At:        time.Now().UTC(),
	})
}

func checkCategory(ctx context.Context, tx *repo.GormRepo, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := tx.GetCategory(ctx, *categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("unknown category %s: %w", categoryID, ErrValidation)
		}
		return err
	}
	return nil
}

func checkProductSlug(ctx context.Context, tx *repo.GormRepo, slug string, exclude uuid.UUID) error {
	taken, err := tx.ProductSlugTaken(ctx, slug, exclude)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("slug %q already exists: %w", slug, ErrConflict)
	}
	return nil
}
