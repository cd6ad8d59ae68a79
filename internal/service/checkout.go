package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CheckoutService struct {
	Repo    *repo.GormRepo
	Catalog *CatalogService
	Events  events.Publisher
}

// Checkout turns the caller's cart into a PENDING order. Order creation,
// stock decrements and cart removal commit together or not at all.
func (s *CheckoutService) Checkout(ctx context.Context, id Identity) (*repo.OrderWithItems, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", id.UserID)

	var result repo.OrderWithItems
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		lines, err := tx.GetCartLines(ctx, id.UserID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return ErrEmptyCart
		}

		total := decimal.Zero
		items := make([]models.OrderItem, 0, len(lines))
		for _, line := range lines {
			qty := line.Item.Quantity
			p := line.Product
			switch {
			case p == nil:
				return &StockError{ProductID: line.Item.ProductID, Requested: qty}
			case p.DeletedAt.Valid || !p.IsActive:
				return &StockError{ProductID: p.ID, Title: p.Title, Requested: qty}
			case p.Stock < qty:
				return &StockError{ProductID: p.ID, Title: p.Title, Requested: qty, Available: p.Stock}
			}

			item := models.OrderItem{
				ProductID: p.ID,
				Title:     p.Title,
				Price:     p.Price,
				Quantity:  qty,
			}
			total = total.Add(item.LineTotal())
			items = append(items, item)
		}

		order := models.Order{
			UserID: id.UserID,
			Total:  total,
			Status: models.OrderStatusPending,
		}
		if err := tx.CreateOrder(ctx, &order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.CreateOrderItems(ctx, items); err != nil {
			return fmt.Errorf("create order items: %w", err)
		}

		// lines arrive sorted by product id, so concurrent checkouts lock
		// product rows in the same order
		for _, it := range items {
			ok, err := tx.DecrementStock(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if !ok {
				se := &StockError{ProductID: it.ProductID, Title: it.Title, Requested: it.Quantity}
				if p, err := tx.GetProduct(ctx, it.ProductID); err == nil {
					se.Available = p.Stock
				}
				return se
			}
		}

		if err := tx.ClearCart(ctx, id.UserID); err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		result = repo.OrderWithItems{Order: order, Items: items}
		return nil
	})
	if err != nil {
		var se *StockError
		switch {
		case errors.As(err, &se):
			l.Info("checkout_rejected", "reason", "insufficient stock", "product_id", se.ProductID, "requested", se.Requested, "available", se.Available)
			return nil, err
		case errors.Is(err, ErrEmptyCart):
			return nil, err
		}
		return nil, fmt.Errorf("checkout: %w", err)
	}

	l.Info("order_created", "order_id", result.ID, "total", result.Total.StringFixed(2), "items", len(result.Items))

	lines := make([]events.OrderLine, len(result.Items))
	sold := make([]uuid.UUID, len(result.Items))
	for i, it := range result.Items {
		lines[i] = events.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity, Price: it.Price}
		sold[i] = it.ProductID
	}
	if s.Catalog != nil {
		s.Catalog.RefreshProducts(ctx, sold...)
	}
	publish(ctx, s.Events, events.TopicOrder, result.ID.String(), events.OrderEvent{
		Type:    events.OrderCreated,
		OrderID: result.ID,
		UserID:  id.UserID,
		Status:  string(result.Status),
		Total:   result.Total,
		Items:   lines,
		At:      time.Now().UTC(),
	})
	return &result, nil
}
