package identity

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/auth"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Service implements registration and login. It is the only component
// that sees credentials; everything downstream works with the resolved
// models.Identity.
type Service struct {
	Users  storage.UserStore
	Tokens *auth.TokenService
}

type RegisterInput struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Phone    string      `json:"phone"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	if in.Name == "" {
		return nil, apperr.Validation("name is required")
	}
	if in.Email == "" && in.Phone == "" {
		return nil, apperr.Validation("email or phone is required")
	}
	role := in.Role
	if role == "" {
		role = models.RoleMotorist
	}
	switch role {
	case models.RoleMotorist, models.RoleProvider, models.RoleAdmin:
	default:
		return nil, apperr.Validation("unknown role")
	}

	if in.Email != "" {
		if existing, err := s.Users.UserByEmail(ctx, in.Email); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, apperr.Conflict("email already registered")
		}
	}
	if in.Phone != "" {
		if existing, err := s.Users.UserByPhone(ctx, in.Phone); err != nil {
			return nil, err
		} else if existing != nil {
			return nil, apperr.Conflict("phone already registered")
		}
	}

	u := &models.User{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Phone:     in.Phone,
		Role:      role,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}
	if err := s.Users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return s.result(u)
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	var (
		u   *models.User
		err error
	)
	switch {
	case in.Email != "":
		u, err = s.Users.UserByEmail(ctx, in.Email)
	case in.Phone != "":
		u, err = s.Users.UserByPhone(ctx, in.Phone)
	default:
		return nil, apperr.Validation("email or phone is required")
	}
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if u.PasswordHash != "" && !auth.CheckPassword(u.PasswordHash, in.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	return s.result(u)
}

// Resolve maps a validated token subject to a live user. Tokens for
// deleted or deactivated users stop working here.
func (s *Service) Resolve(ctx context.Context, id models.Identity) (models.Identity, error) {
	u, err := s.Users.UserByID(ctx, id.ID)
	if err != nil {
		return models.Identity{}, err
	}
	if u == nil || !u.IsActive {
		return models.Identity{}, apperr.Unauthorized("unknown subject")
	}
	return models.Identity{ID: u.ID, Role: u.Role}, nil
}

func (s *Service) result(u *models.User) (*AuthResult, error) {
	tok, err := s.Tokens.Issue(models.Identity{ID: u.ID, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: tok, User: u}, nil
}
