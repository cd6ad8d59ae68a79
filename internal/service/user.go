package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserService struct {
	Repo *repo.GormRepo
}

func (s *UserService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	return s.create(ctx, req, models.RoleUser)
}

func (s *UserService) create(ctx context.Context, req transport.RegisterRequest, role string) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	name := strings.TrimSpace(req.Name)
	if email == "" || name == "" || req.Password == "" {
		return nil, fmt.Errorf("email, name and password are required: %w", ErrValidation)
	}

	taken, err := s.Repo.EmailTaken(ctx, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("email %q already registered: %w", email, ErrConflict)
	}

	pwHash, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{Email: email, Name: name, PasswordHash: pwHash, Role: role}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if repo.IsUniqueViolation(err) {
			return nil, fmt.Errorf("email %q already registered: %w", email, ErrConflict)
		}
		return nil, err
	}
	return user, nil
}

// EnsureAdmin creates an admin account for email unless one exists already.
func (s *UserService) EnsureAdmin(ctx context.Context, email, password string) error {
	l := logging.FromContext(ctx).With("svc", "user.ensure_admin")

	existing, err := s.Repo.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err == nil {
		if existing.Role != models.RoleAdmin {
			l.Warn("admin_seed_skipped", "reason", "email belongs to a non-admin user", "email", existing.Email)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	user, err := s.create(ctx, transport.RegisterRequest{Email: email, Name: "Administrator", Password: password}, models.RoleAdmin)
	if err != nil {
		return err
	}
	l.Info("admin_seeded", "user_id", user.ID, "email", user.Email)
	return nil
}

func (s *UserService) ListUsers(ctx context.Context, id Identity) ([]models.User, error) {
	if err := requireAdmin(id); err != nil {
		return nil, err
	}
	return s.Repo.ListUsers(ctx)
}
