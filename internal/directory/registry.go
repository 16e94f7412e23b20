package directory

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// EventPublisher receives presence updates for downstream consumers
// (the Redis mirror is fed this way). Best-effort only.
type EventPublisher interface {
	PublishPresence(ctx context.Context, p *models.ProviderProfile) error
}

// Registry owns provider onboarding and presence self-reporting. The
// document store is the authority; the event stream and any read
// replicas are updated after the store commit and never block it.
type Registry struct {
	Store  storage.Store
	Events EventPublisher
	Logger *slog.Logger

	// PublishTimeout bounds the best-effort presence publish.
	PublishTimeout time.Duration
}

// SetPresence records a provider's own status/location report. This is
// also the only path from busy back to online: completing a job never
// releases presence automatically.
func (r *Registry) SetPresence(ctx context.Context, caller models.Identity, status models.PresenceStatus, loc *models.Coordinate) error {
	if caller.Role != models.RoleProvider && caller.Role != models.RoleAdmin {
		return apperr.Forbidden("only providers can set presence")
	}
	if !status.Valid() {
		return apperr.Validation("status must be offline, online or busy")
	}
	if err := r.Store.SetPresence(ctx, caller.ID, status, loc); err != nil {
		return err
	}
	r.publish(caller.ID)
	return nil
}

func (r *Registry) publish(userID string) {
	if r.Events == nil {
		return
	}
	timeout := r.PublishTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		p, err := r.Store.ProviderByID(ctx, userID)
		if err != nil || p == nil {
			return
		}
		if err := r.Events.PublishPresence(ctx, p); err != nil && r.Logger != nil {
			r.Logger.Warn("presence publish failed", "provider_id", userID, "error", err)
		}
	}()
}

type ApplyInput struct {
	CompanyName     string   `json:"company_name"`
	ServiceTypes    []string `json:"service_types"`
	LicenseNumber   string   `json:"license_number"`
	InsurancePolicy string   `json:"insurance_policy"`
}

// Apply files a provider onboarding application.
func (r *Registry) Apply(ctx context.Context, caller models.Identity, in ApplyInput) (*models.ProviderApplication, error) {
	if caller.Role != models.RoleProvider && caller.Role != models.RoleAdmin {
		return nil, apperr.Forbidden("only providers can apply")
	}
	a := &models.ProviderApplication{
		ID:              uuid.NewString(),
		UserID:          caller.ID,
		CompanyName:     in.CompanyName,
		ServiceTypes:    in.ServiceTypes,
		LicenseNumber:   in.LicenseNumber,
		InsurancePolicy: in.InsurancePolicy,
		Status:          models.ApplicationPending,
		CreatedAt:       time.Now().UTC(),
	}
	if err := r.Store.CreateApplication(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Decide approves or rejects an application. Approval creates an
// offline provider profile when the applicant has none yet.
func (r *Registry) Decide(ctx context.Context, caller models.Identity, applicationID string, status models.ApplicationStatus) error {
	if caller.Role != models.RoleAdmin {
		return apperr.Forbidden("admins only")
	}
	if status != models.ApplicationApproved && status != models.ApplicationRejected {
		return apperr.Validation("status must be approved or rejected")
	}
	ok, err := r.Store.SetApplicationStatus(ctx, applicationID, status)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("application not found")
	}
	if status != models.ApplicationApproved {
		return nil
	}
	a, err := r.Store.ApplicationByID(ctx, applicationID)
	if err != nil || a == nil {
		return err
	}
	return r.Store.CreateProvider(ctx, &models.ProviderProfile{
		UserID:       a.UserID,
		Status:       models.PresenceOffline,
		ServiceTypes: a.ServiceTypes,
		Rating:       5,
		UpdatedAt:    time.Now().UTC(),
	})
}
