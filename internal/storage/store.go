package storage

import (
	"context"

	"github.com/example/roadside-dispatch/internal/models"
)

// Store is the document-store port shared by all core services. It is
// constructed once at process start and passed in explicitly; there are
// no package-level handles. Implementations must make the conditional
// updates (ClaimProvider, AssignRequest, UpdateRequestStatus) atomic
// with respect to their predicate check. Lookup methods return
// (nil, nil) when no document matches.
type Store interface {
	UserStore
	ProviderStore
	RequestStore
	ApplicationStore
	PaymentStore
	FeedbackStore
	TokenStore
}

type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	CountUsers(ctx context.Context) (int, error)
}

type ProviderStore interface {
	CreateProvider(ctx context.Context, p *models.ProviderProfile) error
	ProviderByID(ctx context.Context, userID string) (*models.ProviderProfile, error)
	ListProviders(ctx context.Context) ([]*models.ProviderProfile, error)
	CountProviders(ctx context.Context) (int, error)

	// SetPresence upserts the presence fields of a provider profile.
	// A nil location leaves any previously recorded coordinate intact.
	SetPresence(ctx context.Context, userID string, status models.PresenceStatus, loc *models.Coordinate) error

	// ClaimProvider flips a provider online -> busy. It returns false
	// without error when the provider was not online anymore, i.e. the
	// caller lost the claim race.
	ClaimProvider(ctx context.Context, userID string) (bool, error)

	IncrementJobsCompleted(ctx context.Context, userID string) error
}

// RequestFilter scopes a request listing. Zero values mean "no filter".
type RequestFilter struct {
	MotoristID string
	ProviderID string
}

type RequestStore interface {
	CreateRequest(ctx context.Context, r *models.ServiceRequest) error
	RequestByID(ctx context.Context, id string) (*models.ServiceRequest, error)

	// AssignRequest sets provider_id and status=assigned on a request
	// that is still pending. Returns false when the request was not
	// pending anymore.
	AssignRequest(ctx context.Context, id, providerID string) (bool, error)

	// UpdateRequestStatus transitions a request from an expected status
	// to a new one. Returns false when the request's current status did
	// not match the expected value (lost update race).
	UpdateRequestStatus(ctx context.Context, id string, from, to models.RequestStatus) (bool, error)

	// ListRequests returns requests matching the filter, newest first.
	ListRequests(ctx context.Context, f RequestFilter) ([]*models.ServiceRequest, error)

	CountActiveRequests(ctx context.Context) (int, error)
}

type ApplicationStore interface {
	CreateApplication(ctx context.Context, a *models.ProviderApplication) error
	ApplicationByID(ctx context.Context, id string) (*models.ProviderApplication, error)
	ListApplications(ctx context.Context) ([]*models.ProviderApplication, error)
	SetApplicationStatus(ctx context.Context, id string, status models.ApplicationStatus) (bool, error)
}

type PaymentStore interface {
	CreatePayment(ctx context.Context, p *models.Payment) error
	SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus, gatewayRef string) (bool, error)
	SumPayments(ctx context.Context) (float64, error)
}

type FeedbackStore interface {
	CreateReview(ctx context.Context, r *models.Review) error
	CreateDispute(ctx context.Context, d *models.Dispute) error
}

type TokenStore interface {
	CreateNotificationToken(ctx context.Context, t *models.NotificationToken) error
	NotificationTokensByUser(ctx context.Context, userID string) ([]string, error)
}
