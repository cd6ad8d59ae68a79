package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CartLineView struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ProductID uuid.UUID       `json:"product_id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
	Stock     int             `json:"stock"`
	Available bool            `json:"available"`
}

type CartView struct {
	Items    []CartLineView  `json:"items"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// GetCart returns the caller's cart. Lines whose product is gone or
// inactive are listed as unavailable and left out of the subtotal.
func (s *CartService) GetCart(ctx context.Context, id Identity) (*CartView, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	lines, err := s.Repo.GetCartLines(ctx, id.UserID)
	if err != nil {
		return nil, err
	}

	view := &CartView{Items: make([]CartLineView, 0, len(lines)), Subtotal: decimal.Zero}
	for _, l := range lines {
		v := CartLineView{
			ItemID:    l.Item.ID,
			ProductID: l.Item.ProductID,
			Quantity:  l.Item.Quantity,
			Price:     decimal.Zero,
			LineTotal: decimal.Zero,
		}
		if p := l.Product; p != nil {
			v.Title = p.Title
			v.Slug = p.Slug
			v.Price = p.Price
			v.Stock = p.Stock
			v.Available = p.IsActive && !p.DeletedAt.Valid
		}
		if v.Available {
			v.LineTotal = v.Price.Mul(decimal.NewFromInt(int64(v.Quantity)))
			view.Subtotal = view.Subtotal.Add(v.LineTotal)
		}
		view.Items = append(view.Items, v)
	}
	return view, nil
}

// AddToCart adds quantity units of the product, incrementing an existing
// line for the same product.
func (s *CartService) AddToCart(ctx context.Context, id Identity, productID uuid.UUID, quantity int) (*models.CartItem, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	if productID == uuid.Nil {
		return nil, fmt.Errorf("product id is required: %w", ErrValidation)
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	item := &models.CartItem{UserID: id.UserID, ProductID: productID, Quantity: quantity}
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		prod, err := tx.GetProduct(ctx, productID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("product %s: %w", productID, ErrNotFound)
			}
			return err
		}
		if !prod.IsActive {
			return fmt.Errorf("product %s is not for sale: %w", productID, ErrNotFound)
		}
		if prod.Stock < quantity {
			return &StockError{ProductID: prod.ID, Title: prod.Title, Requested: quantity, Available: prod.Stock}
		}
		return tx.AddToCart(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, id.UserID.String(), events.CartEvent{
		Type:      events.CartItemAdded,
		UserID:    id.UserID,
		ItemID:    item.ID,
		ProductID: productID,
		Quantity:  quantity,
		At:        time.Now().UTC(),
	})
	return item, nil
}

// UpdateQuantity sets the line to exactly quantity units. A quantity of zero
// or less removes the line; removed reports whether that happened.
func (s *CartService) UpdateQuantity(ctx context.Context, id Identity, itemID uuid.UUID, quantity int) (removed bool, err error) {
	if err := requireUser(id); err != nil {
		return false, err
	}
	if quantity <= 0 {
		return true, s.RemoveItem(ctx, id, itemID)
	}

	if err := s.Repo.SetCartItemQuantity(ctx, id.UserID, itemID, quantity); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return false, err
	}

	publish(ctx, s.Events, events.TopicCart, id.UserID.String(), events.CartEvent{
		Type:     events.CartItemUpdated,
		UserID:   id.UserID,
		ItemID:   itemID,
		Quantity: quantity,
		At:       time.Now().UTC(),
	})
	return false, nil
}

func (s *CartService) RemoveItem(ctx context.Context, id Identity, itemID uuid.UUID) error {
	if err := requireUser(id); err != nil {
		return err
	}
	if err := s.Repo.DeleteCartItem(ctx, id.UserID, itemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("cart item %s: %w", itemID, ErrNotFound)
		}
		return err
	}

	publish(ctx, s.Events, events.TopicCart, id.UserID.String(), events.CartEvent{
		Type:   events.CartItemRemoved,
		UserID: id.UserID,
		ItemID: itemID,
		At:     time.Now().UTC(),
	})
	return nil
}

func (s *CartService) ClearCart(ctx context.Context, id Identity) error {
	if err := requireUser(id); err != nil {
		return err
	}
	if err := s.Repo.ClearCart(ctx, id.UserID); err != nil {
		return err
	}

	publish(ctx, s.Events, events.TopicCart, id.UserID.String(), events.CartEvent{
		Type:   events.CartCleared,
		UserID: id.UserID,
		At:     time.Now().UTC(),
	})
	return nil
}
