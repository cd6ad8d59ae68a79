package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/cache"
	"github.com/Skotchmaster/storefront/internal/db"
	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type testEnv struct {
	Repo     *repo.GormRepo
	Events   *events.Recorder
	Cache    *memCache
	Catalog  *CatalogService
	Cart     *CartService
	Checkout *CheckoutService
	Orders   *OrderService
	Users    *UserService
	Admin    Identity
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb, err := db.Open(context.Background(), db.DriverSQLite, ":memory:")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	t.Cleanup(func() { _ = db.Close(gdb) })

	return newEnvForRepo(&repo.GormRepo{DB: gdb})
}

func newEnvForRepo(r *repo.GormRepo) *testEnv {
	rec := &events.Recorder{}
	mc := newMemCache()
	catalog := &CatalogService{Repo: r, Cache: mc, Events: rec}
	return &testEnv{
		Repo:     r,
		Events:   rec,
		Cache:    mc,
		Catalog:  catalog,
		Cart:     &CartService{Repo: r, Events: rec},
		Checkout: &CheckoutService{Repo: r, Catalog: catalog, Events: rec},
		Orders:   &OrderService{Repo: r, Catalog: catalog, Events: rec},
		Users:    &UserService{Repo: r},
		Admin:    Identity{UserID: uuid.New(), Role: models.RoleAdmin},
	}
}

func (env *testEnv) newUser(t *testing.T) Identity {
	t.Helper()
	u := &models.User{Email: uuid.NewString() + "@example.com", Name: "Shopper", PasswordHash: "x", Role: models.RoleUser}
	require.NoError(t, env.Repo.CreateUser(context.Background(), u))
	return Identity{UserID: u.ID, Role: u.Role}
}

func (env *testEnv) seedProduct(t *testing.T, title, price string, stock int) *models.Product {
	t.Helper()
	p := &models.Product{
		Title:       title,
		Slug:        Slugify(title) + "-" + uuid.NewString()[:8],
		Description: title,
		Price:       decimal.RequireFromString(price),
		Stock:       stock,
		IsActive:    true,
	}
	require.NoError(t, env.Repo.CreateProduct(context.Background(), p))
	return p
}

func (env *testEnv) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	prods, err := env.Repo.GetProductsByIDs(context.Background(), []uuid.UUID{id})
	require.NoError(t, err)
	require.Len(t, prods, 1)
	return prods[0].Stock
}

type memCache struct {
	mu          sync.Mutex
	items       map[string]models.Product
	invalidated []string
	gets        int
}

func newMemCache() *memCache {
	return &memCache{items: map[string]models.Product{}}
}

func (c *memCache) Get(_ context.Context, slug string) (*models.Product, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	p, ok := c.items[slug]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return &p, nil
}

func (c *memCache) Set(_ context.Context, p *models.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[p.Slug] = *p
	return nil
}

func (c *memCache) Invalidate(_ context.Context, slugs ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range slugs {
		delete(c.items, s)
		c.invalidated = append(c.invalidated, s)
	}
	return nil
}

func (c *memCache) has(slug string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[slug]
	return ok
}

type stubIndex struct {
	err     error
	total   int64
	items   []models.Product
	indexed []uuid.UUID
	stocks  map[uuid.UUID]int
	deleted []uuid.UUID
}

func (s *stubIndex) IndexProduct(_ context.Context, p *models.Product) error {
	s.indexed = append(s.indexed, p.ID)
	if s.stocks == nil {
		s.stocks = map[uuid.UUID]int{}
	}
	s.stocks[p.ID] = p.Stock
	return s.err
}

func (s *stubIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return s.err
}

func (s *stubIndex) Search(context.Context, string, int, int) (int64, []models.Product, error) {
	if s.err != nil {
		return 0, nil, s.err
	}
	return s.total, s.items, nil
}
