package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/transport"
)

func price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestCreateProduct_DerivesSlugAndDefaults(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	p, err := env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{
		Title:       "  Blue Tea Pot! ",
		Description: "Holds tea",
		Price:       price("19.999"),
	})
	require.NoError(t, err)
	assert.Equal(t, "blue-tea-pot", p.Slug)
	assert.Equal(t, "Blue Tea Pot!", p.Title)
	assert.Equal(t, 0, p.Stock)
	assert.True(t, p.IsActive)
	assert.Equal(t, "20.00", p.Price.StringFixed(2))

	msgs := env.Events.Topic(events.TopicProduct)
	require.Len(t, msgs, 1)
	assert.Equal(t, events.ProductCreated, msgs[0].Event.(events.ProductEvent).Type)

	_, err = env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{
		Title:       "Blue tea pot",
		Description: "Another",
		Price:       price("1"),
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestCreateProduct_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	neg := -1
	unknown := uuid.New()

	cases := map[string]transport.CreateProductRequest{
		"missing title":    {Description: "d", Price: price("1")},
		"missing price":    {Title: "t", Description: "d"},
		"negative price":   {Title: "t", Description: "d", Price: price("-1")},
		"negative stock":   {Title: "t", Description: "d", Price: price("1"), Stock: &neg},
		"unsluggable":      {Title: "!!!", Description: "d", Price: price("1")},
		"unknown category": {Title: "t", Description: "d", Price: price("1"), CategoryID: &unknown},
	}
	for name, req := range cases {
		_, err := env.Catalog.CreateProduct(ctx, env.Admin, req)
		assert.ErrorIs(t, err, ErrValidation, name)
	}

	user := env.newUser(t)
	_, err := env.Catalog.CreateProduct(ctx, user, transport.CreateProductRequest{Title: "t", Description: "d", Price: price("1")})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = env.Catalog.CreateProduct(ctx, Identity{}, transport.CreateProductRequest{Title: "t", Description: "d", Price: price("1")})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestUpdateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a, err := env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{Title: "Alpha", Description: "d", Price: price("1")})
	require.NoError(t, err)
	_, err = env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{Title: "Beta", Description: "d", Price: price("1")})
	require.NoError(t, err)

	_, err = env.Catalog.GetProductBySlug(ctx, "alpha")
	require.NoError(t, err)
	require.True(t, env.Cache.has("alpha"))

	stock := 9
	newTitle := "Alpha Two"
	updated, err := env.Catalog.UpdateProduct(ctx, env.Admin, a.ID, transport.UpdateProductRequest{Title: &newTitle, Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, "Alpha Two", updated.Title)
	assert.Equal(t, "alpha", updated.Slug)
	assert.Equal(t, 9, updated.Stock)
	assert.False(t, env.Cache.has("alpha"))

	taken := "beta"
	_, err = env.Catalog.UpdateProduct(ctx, env.Admin, a.ID, transport.UpdateProductRequest{Slug: &taken})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = env.Catalog.UpdateProduct(ctx, env.Admin, uuid.New(), transport.UpdateProductRequest{Stock: &stock})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.Catalog.UpdateProduct(ctx, env.Admin, a.ID, transport.UpdateProductRequest{Price: price("-2")})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateProduct_OptionalFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	cat, err := env.Catalog.CreateCategory(ctx, env.Admin, transport.CreateCategoryRequest{Name: "Lamps"})
	require.NoError(t, err)
	img := "https://img.example.com/lamp.png"
	p, err := env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{
		Title: "Desk Lamp", Description: "d", Price: price("10"), ImageURL: &img, CategoryID: &cat.ID,
	})
	require.NoError(t, err)

	newTitle := "Desk Lamp XL"
	kept, err := env.Catalog.UpdateProduct(ctx, env.Admin, p.ID, transport.UpdateProductRequest{Title: &newTitle})
	require.NoError(t, err)
	require.NotNil(t, kept.ImageURL)
	require.NotNil(t, kept.CategoryID)
	assert.Equal(t, img, *kept.ImageURL)
	assert.Equal(t, cat.ID, *kept.CategoryID)

	cleared, err := env.Catalog.UpdateProduct(ctx, env.Admin, p.ID, transport.UpdateProductRequest{
		ImageURL:   transport.Null[string](),
		CategoryID: transport.Null[uuid.UUID](),
	})
	require.NoError(t, err)
	assert.Nil(t, cleared.ImageURL)
	assert.Nil(t, cleared.CategoryID)

	stored, err := env.Repo.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ImageURL)
	assert.Nil(t, stored.CategoryID)

	_, err = env.Catalog.UpdateProduct(ctx, env.Admin, p.ID, transport.UpdateProductRequest{CategoryID: transport.Some(uuid.New())})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteProduct_SoftDeletes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	idx := &stubIndex{}
	env.Catalog.Index = idx
	p := env.seedProduct(t, "Doomed", "1.00", 1)

	require.NoError(t, env.Catalog.DeleteProduct(ctx, env.Admin, p.ID))
	assert.ErrorIs(t, env.Catalog.DeleteProduct(ctx, env.Admin, p.ID), ErrNotFound)
	assert.Equal(t, []uuid.UUID{p.ID}, idx.deleted)

	_, err := env.Catalog.GetProductBySlug(ctx, p.Slug)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := env.Catalog.AdminListProducts(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	kept, err := env.Repo.GetProductsByIDs(ctx, []uuid.UUID{p.ID})
	require.NoError(t, err)
	require.Len(t, kept, 1)
	assert.True(t, kept[0].DeletedAt.Valid)
}

func TestListProducts_ByCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cat, err := env.Catalog.CreateCategory(ctx, env.Admin, transport.CreateCategoryRequest{Name: "Kitchen Ware"})
	require.NoError(t, err)
	assert.Equal(t, "kitchen-ware", cat.Slug)

	for i := 0; i < 3; i++ {
		_, err := env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{
			Title: "Pan " + string(rune('A'+i)), Description: "d", Price: price("5"), CategoryID: &cat.ID,
		})
		require.NoError(t, err)
	}
	hidden := false
	_, err = env.Catalog.CreateProduct(ctx, env.Admin, transport.CreateProductRequest{
		Title: "Hidden Pan", Description: "d", Price: price("5"), CategoryID: &cat.ID, IsActive: &hidden,
	})
	require.NoError(t, err)
	env.seedProduct(t, "Elsewhere", "1.00", 1)

	page, err := env.Catalog.ListProducts(ctx, "kitchen-ware", 1, 2)
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.EqualValues(t, 3, page.Meta.Total)
	assert.True(t, page.Meta.HasNext)

	page, err = env.Catalog.ListProducts(ctx, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 4, page.Meta.Total)

	_, err = env.Catalog.ListProducts(ctx, "nope", 1, 20)
	assert.ErrorIs(t, err, ErrNotFound)

	all, err := env.Catalog.AdminListProducts(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestCategories(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.Catalog.CreateCategory(ctx, env.Admin, transport.CreateCategoryRequest{Name: "Garden", Slug: "outdoor"})
	require.NoError(t, err)
	_, err = env.Catalog.CreateCategory(ctx, env.Admin, transport.CreateCategoryRequest{Name: "Outdoor"})
	assert.ErrorIs(t, err, ErrConflict)
	_, err = env.Catalog.CreateCategory(ctx, env.Admin, transport.CreateCategoryRequest{Name: " "})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = env.Catalog.CreateCategory(ctx, env.newUser(t), transport.CreateCategoryRequest{Name: "X"})
	assert.ErrorIs(t, err, ErrForbidden)

	cats, err := env.Catalog.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, "outdoor", cats[0].Slug)
}

func TestGetProductBySlug_ReadsThroughCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	p := env.seedProduct(t, "Cup", "2.00", 1)

	first, err := env.Catalog.GetProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, p.ID, first.ID)
	assert.True(t, env.Cache.has(p.Slug))

	require.NoError(t, env.Repo.DB.Model(&models.Product{}).Where("id = ?", p.ID).Update("title", "Changed").Error)
	second, err := env.Catalog.GetProductBySlug(ctx, p.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Cup", second.Title)
}

func TestSearchProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.seedProduct(t, "Green Teapot", "1.00", 1)
	env.seedProduct(t, "Fork", "1.00", 1)

	_, err := env.Catalog.SearchProducts(ctx, "  ", 1, 10)
	assert.ErrorIs(t, err, ErrValidation)

	page, err := env.Catalog.SearchProducts(ctx, "teapot", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Green Teapot", page.Items[0].Title)

	env.Catalog.Index = &stubIndex{total: 42, items: []models.Product{{Title: "From index"}}}
	page, err = env.Catalog.SearchProducts(ctx, "teapot", 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 42, page.Meta.Total)
	assert.Equal(t, "From index", page.Items[0].Title)

	env.Catalog.Index = &stubIndex{err: assert.AnError}
	page, err = env.Catalog.SearchProducts(ctx, "teapot", 1, 10)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Green Teapot", page.Items[0].Title)
}
