package matcher

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/observability"
	"github.com/example/roadside-dispatch/internal/storage"
)

// DefaultRadiusKm bounds the candidate search around a pickup point.
const DefaultRadiusKm = 30.0

// avgSpeedKmPerMin and minETAMinutes drive the ETA heuristic:
// max(3, floor(distance / 0.6)) minutes, i.e. ~36 km/h with a floor.
// Deliberately not a routing calculation.
const (
	avgSpeedKmPerMin = 0.6
	minETAMinutes    = 3
)

// Directory is the nearby-query surface the engine needs.
type Directory interface {
	Nearby(ctx context.Context, origin models.Coordinate, serviceType string, radiusKm float64) ([]models.Candidate, error)
}

// Notifier receives best-effort job-offer notifications after an
// assignment commits. Implementations must not block.
type Notifier interface {
	JobOffer(providerID, requestID string, m models.Match)
}

type CreateRequestInput struct {
	ServiceType string            `json:"service_type"`
	Description string            `json:"description"`
	Pickup      models.Coordinate `json:"pickup"`
}

// Service creates service requests and assigns the nearest eligible
// provider. Assignment is race-safe: a provider is chosen only if the
// conditional online->busy claim through the storage port wins; losers
// fall through to the next candidate.
type Service struct {
	Dir       Directory
	Requests  storage.RequestStore
	Providers storage.ProviderStore
	Notify    Notifier
	RadiusKm  float64
	Logger    *slog.Logger
}

func (s *Service) radius() float64 {
	if s.RadiusKm > 0 {
		return s.RadiusKm
	}
	return DefaultRadiusKm
}

// CreateRequest persists a pending request for the caller and tries to
// match it immediately. An empty candidate pool is not an error: the
// request stays pending and the returned match is nil.
func (s *Service) CreateRequest(ctx context.Context, caller models.Identity, in CreateRequestInput) (*models.ServiceRequest, *models.Match, error) {
	if caller.Role != models.RoleMotorist {
		return nil, nil, apperr.Forbidden("only motorists can create requests")
	}
	if in.ServiceType == "" {
		return nil, nil, apperr.Validation("service_type is required")
	}

	now := time.Now().UTC()
	req := &models.ServiceRequest{
		ID:          uuid.NewString(),
		MotoristID:  caller.ID,
		ServiceType: in.ServiceType,
		Description: in.Description,
		Pickup:      in.Pickup,
		Status:      models.RequestPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Requests.CreateRequest(ctx, req); err != nil {
		return nil, nil, err
	}

	match, err := s.match(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	if match != nil {
		req.ProviderID = match.ProviderID
		req.Status = models.RequestAssigned
	}
	return req, match, nil
}

func (s *Service) match(ctx context.Context, req *models.ServiceRequest) (*models.Match, error) {
	cands, err := s.Dir.Nearby(ctx, req.Pickup, req.ServiceType, s.radius())
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		claimed, err := s.Providers.ClaimProvider(ctx, c.ProviderID)
		if err != nil {
			return nil, err
		}
		if !claimed {
			// Lost the race for this provider; try the next one.
			observability.ClaimsLost.Inc()
			continue
		}
		assigned, err := s.Requests.AssignRequest(ctx, req.ID, c.ProviderID)
		if err != nil || !assigned {
			// Keep provider state consistent: the claim must not
			// outlive a failed assignment.
			s.releaseClaim(ctx, c.ProviderID)
			if err != nil {
				return nil, err
			}
			return nil, apperr.Conflict("request was updated concurrently")
		}
		m := &models.Match{ProviderID: c.ProviderID, ETAMinutes: etaMinutes(c.DistanceKm)}
		observability.MatchesTotal.Inc()
		if s.Notify != nil {
			s.Notify.JobOffer(c.ProviderID, req.ID, *m)
		}
		if s.Logger != nil {
			s.Logger.Info("request matched",
				"request_id", req.ID, "provider_id", c.ProviderID,
				"distance_km", c.DistanceKm, "eta_min", m.ETAMinutes)
		}
		return m, nil
	}
	observability.MatchesEmpty.Inc()
	return nil, nil
}

func (s *Service) releaseClaim(ctx context.Context, providerID string) {
	if err := s.Providers.SetPresence(ctx, providerID, models.PresenceOnline, nil); err != nil && s.Logger != nil {
		s.Logger.Error("failed to release provider claim", "provider_id", providerID, "error", err)
	}
}

func etaMinutes(distanceKm float64) int {
	eta := int(math.Floor(distanceKm / avgSpeedKmPerMin))
	if eta < minETAMinutes {
		return minETAMinutes
	}
	return eta
}
