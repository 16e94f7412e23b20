package admin

import (
	"context"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Service aggregates read-side numbers for the admin dashboard.
type Service struct {
	Store storage.Store
}

type Overview struct {
	Users      int     `json:"users"`
	Providers  int     `json:"providers"`
	ActiveJobs int     `json:"active_jobs"`
	Revenue    float64 `json:"revenue"`
}

func (s *Service) Overview(ctx context.Context, caller models.Identity) (*Overview, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("admins only")
	}
	users, err := s.Store.CountUsers(ctx)
	if err != nil {
		return nil, err
	}
	providers, err := s.Store.CountProviders(ctx)
	if err != nil {
		return nil, err
	}
	active, err := s.Store.CountActiveRequests(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := s.Store.SumPayments(ctx)
	if err != nil {
		return nil, err
	}
	return &Overview{Users: users, Providers: providers, ActiveJobs: active, Revenue: revenue}, nil
}

func (s *Service) ListApplications(ctx context.Context, caller models.Identity) ([]*models.ProviderApplication, error) {
	if caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("admins only")
	}
	return s.Store.ListApplications(ctx)
}
