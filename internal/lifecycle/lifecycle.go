package lifecycle

import (
	"context"
	"log/slog"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/observability"
	"github.com/example/roadside-dispatch/internal/storage"
)

// transitions is the allowed-predecessor table for request statuses.
// completed and cancelled are terminal; pending and assigned are only
// ever set by the system, never through SetStatus.
var transitions = map[models.RequestStatus][]models.RequestStatus{
	models.RequestPending:    {models.RequestCancelled},
	models.RequestAssigned:   {models.RequestEnroute, models.RequestCancelled},
	models.RequestEnroute:    {models.RequestInProgress, models.RequestCancelled},
	models.RequestInProgress: {models.RequestCompleted, models.RequestCancelled},
}

// callerSettable are the targets reachable through SetStatus.
var callerSettable = map[models.RequestStatus]bool{
	models.RequestEnroute:    true,
	models.RequestInProgress: true,
	models.RequestCompleted:  true,
	models.RequestCancelled:  true,
}

func allowed(from, to models.RequestStatus) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// Manager owns service-request state transitions. Transitions are
// applied conditionally against the observed predecessor status, so two
// callers racing on the same request cannot both win.
type Manager struct {
	Requests  storage.RequestStore
	Providers storage.ProviderStore
	Logger    *slog.Logger
}

// SetStatus transitions a request on behalf of a caller. Providers may
// only touch requests assigned to them, motorists only their own;
// admins may touch any. Targets outside the transition table fail with
// InvalidTransition, lost update races with Conflict.
func (m *Manager) SetStatus(ctx context.Context, caller models.Identity, requestID string, to models.RequestStatus) (*models.ServiceRequest, error) {
	if !callerSettable[to] {
		return nil, apperr.Validation("status must be one of enroute, in_progress, completed, cancelled")
	}

	req, err := m.Requests.RequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NotFound("request not found")
	}

	switch caller.Role {
	case models.RoleAdmin:
	case models.RoleProvider:
		if req.ProviderID != caller.ID {
			return nil, apperr.Forbidden("not your job")
		}
	case models.RoleMotorist:
		if req.MotoristID != caller.ID {
			return nil, apperr.Forbidden("not your request")
		}
	default:
		return nil, apperr.Forbidden("unknown role")
	}

	if !allowed(req.Status, to) {
		return nil, apperr.InvalidTransition("cannot transition from " + string(req.Status) + " to " + string(to))
	}

	ok, err := m.Requests.UpdateRequestStatus(ctx, requestID, req.Status, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Conflict("request status changed concurrently")
	}
	observability.TransitionsTotal.WithLabelValues(string(to)).Inc()

	if to == models.RequestCompleted && req.ProviderID != "" {
		// Bookkeeping only. The provider stays busy until it reports
		// itself online again; there is no automatic release.
		if err := m.Providers.IncrementJobsCompleted(ctx, req.ProviderID); err != nil && m.Logger != nil {
			m.Logger.Error("failed to bump jobs_completed", "provider_id", req.ProviderID, "error", err)
		}
	}
	if m.Logger != nil {
		m.Logger.Info("request transitioned", "request_id", requestID, "from", req.Status, "to", to, "caller", caller.ID)
	}

	req.Status = to
	return req, nil
}
