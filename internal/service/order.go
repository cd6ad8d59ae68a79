package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type OrderService struct {
	Repo    *repo.GormRepo
	Catalog *CatalogService
	Events  events.Publisher
}

var orderTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending: {models.OrderStatusPaid, models.OrderStatusCanceled},
	models.OrderStatusPaid:    {models.OrderStatusShipped, models.OrderStatusCanceled},
}

func CanTransition(from, to models.OrderStatus) bool {
	for _, s := range orderTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ListOrders returns the caller's orders, newest first.
func (s *OrderService) ListOrders(ctx context.Context, id Identity) ([]repo.OrderWithItems, error) {
	if err := requireUser(id); err != nil {
		return nil, err
	}
	return s.Repo.ListOrders(ctx, id.UserID)
}

func (s *OrderService) AdminListOrders(ctx context.Context, id Identity) ([]repo.AdminOrder, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.Repo.ListAllOrders(ctx)
}

func (s *OrderService) Dashboard(ctx context.Context, id Identity) (*repo.DashboardStats, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.Repo.DashboardStats(ctx)
}

// UpdateStatus moves an order along PENDING -> PAID -> SHIPPED, or cancels a
// PENDING or PAID order. Canceling puts the ordered units back in stock.
func (s *OrderService) UpdateStatus(ctx context.Context, id Identity, orderID uuid.UUID, to models.OrderStatus) (*repo.OrderWithItems, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", to, ErrValidation)
	}

	var (
		result    repo.OrderWithItems
		restocked []uuid.UUID
	)
	err := s.Repo.Transaction(ctx, func(tx *repo.GormRepo) error {
		order, err := tx.GetOrder(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %s: %w", orderID, ErrNotFound)
			}
			return err
		}
		from := order.Status
		if !CanTransition(from, to) {
			return fmt.Errorf("order %s cannot go from %s to %s: %w", orderID, from, to, ErrConflict)
		}

		moved, err := tx.UpdateOrderStatus(ctx, orderID, from, to)
		if err != nil {
			return err
		}
		if !moved {
			return fmt.Errorf("order %s changed concurrently: %w", orderID, ErrConflict)
		}

		items, err := tx.GetOrderItems(ctx, orderID)
		if err != nil {
			return err
		}
		restocked = restocked[:0]
		if to == models.OrderStatusCanceled {
			for _, it := range items {
				if err := tx.IncrementStock(ctx, it.ProductID, it.Quantity); err != nil {
					return fmt.Errorf("restock: %w", err)
				}
				restocked = append(restocked, it.ProductID)
			}
		}

		order.Status = to
		result = repo.OrderWithItems{Order: *order, Items: items}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Catalog != nil && len(restocked) > 0 {
		s.Catalog.RefreshProducts(ctx, restocked...)
	}
	publish(ctx, s.Events, events.TopicOrder, orderID.String(), events.OrderEvent{
		Type:    events.OrderStatusChanged,
		OrderID: orderID,
		UserID:  result.UserID,
		Status:  string(to),
		Total:   result.Total,
		At:      time.Now().UTC(),
	})
	return &result, nil
}
