package service

import (
	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Identity is the caller on whose behalf an operation runs. The zero value
// is an anonymous caller.
type Identity struct {
	UserID uuid.UUID
	Role   string
}

func (i Identity) Authenticated() bool {
	return i.UserID != uuid.Nil
}

func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == models.RoleAdmin
}

func requireUser(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	return nil
}

func requireAdmin(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return ErrForbidden
	}
	return nil
}
