package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrValidation        = errors.New("validation")         // 400
	ErrNotFound          = errors.New("not found")          // 404
	ErrInsufficientStock = errors.New("insufficient stock") // 409
	ErrEmptyCart         = errors.New("cart is empty")      // 400
	ErrConflict          = errors.New("conflict")           // 409
	ErrUnauthenticated   = errors.New("unauthenticated")    // 401
	ErrForbidden         = errors.New("forbidden")          // 403
)

// StockError names the product that could not cover the requested quantity.
// It matches ErrInsufficientStock with errors.Is.
type StockError struct {
	ProductID uuid.UUID
	Title     string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	name := e.Title
	if name == "" {
		name = e.ProductID.String()
	}
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", name, e.Requested, e.Available)
}

func (e *StockError) Unwrap() error {
	return ErrInsufficientStock
}
