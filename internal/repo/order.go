package repo

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
)

type OrderWithItems struct {
	models.Order
	Items []models.OrderItem `json:"items"`
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type AdminOrder struct {
	OrderWithItems
	User *UserSummary `json:"user"`
}

type DashboardStats struct {
	Products int64           `json:"products"`
	Orders   int64           `json:"orders"`
	Users    int64           `json:"users"`
	Revenue  decimal.Decimal `json:"revenue"`
}

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Create(order).Error
}

func (r *GormRepo) CreateOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&items).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error) {
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// ListOrders returns the user's orders newest first with their items.
func (r *GormRepo) ListOrders(ctx context.Context, userID uuid.UUID) ([]OrderWithItems, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return r.attachItems(ctx, orders)
}

func (r *GormRepo) ListAllOrders(ctx context.Context) ([]AdminOrder, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	withItems, err := r.attachItems(ctx, orders)
	if err != nil {
		return nil, err
	}

	userIDs := make([]uuid.UUID, 0, len(orders))
	for _, o := range orders {
		userIDs = append(userIDs, o.UserID)
	}
	var users []UserSummary
	if len(userIDs) > 0 {
		if err := r.DB.WithContext(ctx).Model(&models.User{}).
			Select("id", "name", "email").
			Where("id IN ?", userIDs).
			Find(&users).Error; err != nil {
			return nil, err
		}
	}
	byID := make(map[uuid.UUID]UserSummary, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]AdminOrder, len(withItems))
	for i, o := range withItems {
		out[i] = AdminOrder{OrderWithItems: o}
		if u, ok := byID[o.UserID]; ok {
			out[i].User = &u
		}
	}
	return out, nil
}

func (r *GormRepo) attachItems(ctx context.Context, orders []models.Order) ([]OrderWithItems, error) {
	out := make([]OrderWithItems, len(orders))
	if len(orders) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	var items []models.OrderItem
	if err := r.DB.WithContext(ctx).Where("order_id IN ?", ids).Order("product_id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	byOrder := make(map[uuid.UUID][]models.OrderItem, len(orders))
	for _, it := range items {
		byOrder[it.OrderID] = append(byOrder[it.OrderID], it)
	}

	for i, o := range orders {
		out[i] = OrderWithItems{Order: o, Items: byOrder[o.ID]}
		if out[i].Items == nil {
			out[i].Items = []models.OrderItem{}
		}
	}
	return out, nil
}

// UpdateOrderStatus moves the order from one status to another. It reports
// false when the order is no longer in the from status.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DashboardStats(ctx context.Context) (*DashboardStats, error) {
	var s DashboardStats
	db := r.DB.WithContext(ctx)

	if err := db.Model(&models.Product{}).Count(&s.Products).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.Order{}).Count(&s.Orders).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&models.User{}).Count(&s.Users).Error; err != nil {
		return nil, err
	}

	var revenue decimal.NullDecimal
	if err := db.Model(&models.Order{}).
		Select("SUM(total)").
		Where("status = ?", models.OrderStatusPaid).
		Row().Scan(&revenue); err != nil {
		return nil, err
	}
	s.Revenue = decimal.Zero
	if revenue.Valid {
		s.Revenue = revenue.Decimal
	}
	return &s, nil
}
