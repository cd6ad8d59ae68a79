package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type OrderStatus string

const (
	OrderStatusPending  OrderStatus = "PENDING"
	OrderStatusPaid     OrderStatus = "PAID"
	OrderStatusShipped  OrderStatus = "SHIPPED"
	OrderStatusCanceled OrderStatus = "CANCELED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped, OrderStatusCanceled:
		return true
	}
	return false
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"  json:"email"`
	Name         string    `gorm:"not null"              json:"name"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	Role         string    `gorm:"not null;default:user" json:"role"`
	CreatedAt    time.Time `gorm:"autoCreateTime"        json:"created_at"`
}

type Category struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"not null"             json:"name"`
	Slug      string    `gorm:"uniqueIndex;not null" json:"slug"`
	CreatedAt time.Time `gorm:"autoCreateTime"       json:"created_at"`
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"                json:"id"`
	Title       string          `gorm:"not null"                            json:"title"`
	Slug        string          `gorm:"uniqueIndex;not null"                json:"slug"`
	Description string          `gorm:"not null"                            json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null"         json:"price"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0" json:"stock"`
	IsActive    bool            `gorm:"not null"                            json:"is_active"`
	ImageURL    *string         `gorm:"size:512"                            json:"image_url,omitempty"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"                     json:"category_id,omitempty"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"                      json:"created_at"`
	UpdatedAt   time.Time       `gorm:"autoUpdateTime"                      json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index"                               json:"-"`
}

type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                            json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"user_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;check:quantity > 0"                     json:"quantity"`
	CreatedAt time.Time `gorm:"autoCreateTime"                                  json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type Order struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	UserID    uuid.UUID       `gorm:"type:uuid;index;not null"    json:"user_id"`
	Total     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Status    OrderStatus     `gorm:"type:varchar(16);not null"   json:"status"`
	CreatedAt time.Time       `gorm:"autoCreateTime;index"        json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime"              json:"updated_at"`
}

// OrderItem is the snapshot of a cart line taken at checkout.
type OrderItem struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null"          json:"product_id"`
	Title     string          `gorm:"not null"                    json:"title"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Quantity  int             `gorm:"not null;check:quantity > 0" json:"quantity"`
}

func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (c *Category) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// All lists every persisted model, in migration order.
func All() []any {
	return []any{&User{}, &Category{}, &Product{}, &CartItem{}, &Order{}, &OrderItem{}}
}
