package transport

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Title       string           `json:"title"       validate:"required,max=200"`
	Description string           `json:"description" validate:"required"`
	Price       *decimal.Decimal `json:"price"       validate:"required"`
	Stock       *int             `json:"stock"       validate:"omitempty,gte=0"`
	IsActive    *bool            `json:"is_active"`
	Slug        string           `json:"slug"        validate:"omitempty,max=200"`
	ImageURL    *string          `json:"image_url"   validate:"omitempty,url"`
	CategoryID  *uuid.UUID       `json:"category_id"`
}

// UpdateProductRequest changes only the fields that are present. ImageURL and
// CategoryID are cleared by an explicit null (or by "" and the nil uuid).
type UpdateProductRequest struct {
	Title       *string             `json:"title"       validate:"omitempty,min=1,max=200"`
	Description *string             `json:"description" validate:"omitempty,min=1"`
	Price       *decimal.Decimal    `json:"price"`
	Stock       *int                `json:"stock"       validate:"omitempty,gte=0"`
	IsActive    *bool               `json:"is_active"`
	Slug        *string             `json:"slug"        validate:"omitempty,max=200"`
	ImageURL    Nullable[string]    `json:"image_url"   validate:"omitempty,url"`
	CategoryID  Nullable[uuid.UUID] `json:"category_id"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" validate:"required,max=100"`
	Slug string `json:"slug" validate:"omitempty,max=100"`
}

type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Name     string `json:"name"     validate:"required,max=100"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=PENDING PAID SHIPPED CANCELED"`
}

// AddToCartForm.Quantity defaults to 1 when the field is absent.
type AddToCartForm struct {
	ProductID string `form:"product_id" validate:"required,uuid"`
	Quantity  string `form:"quantity"   validate:"omitempty,number"`
}

type UpdateCartForm struct {
	ItemID   string `form:"item_id"  validate:"required,uuid"`
	Quantity string `form:"quantity" validate:"required"`
}

type RemoveCartForm struct {
	ItemID string `form:"item_id" validate:"required,uuid"`
}

// FormResult is the body every cart form action answers with.
type FormResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
