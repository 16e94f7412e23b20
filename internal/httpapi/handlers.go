package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/directory"
	"github.com/example/roadside-dispatch/internal/dispatch"
	"github.com/example/roadside-dispatch/internal/feedback"
	"github.com/example/roadside-dispatch/internal/identity"
	"github.com/example/roadside-dispatch/internal/matcher"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/payments"
	"github.com/example/roadside-dispatch/internal/storage"
)

var errMissingToken = apperr.Unauthorized("missing bearer token")

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy to stable status codes. Unknown
// errors become an opaque 500; their details go to the log only.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var status int
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		status = http.StatusUnauthorized
	case apperr.KindForbidden:
		status = http.StatusForbidden
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindInvalidTransition, apperr.KindConflict:
		status = http.StatusConflict
	case apperr.KindValidation:
		status = http.StatusUnprocessableEntity
	default:
		if logger != nil {
			logger.Error("internal error", "error", err)
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	var e *apperr.Error
	msg := "request failed"
	if errors.As(err, &e) {
		msg = e.Message
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.deps.Identity.Register(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in identity.LoginInput
	if !decode(w, r, &in) {
		return
	}
	res, err := s.deps.Identity.Login(r.Context(), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleProviderApply(w http.ResponseWriter, r *http.Request) {
	var in directory.ApplyInput
	if !decode(w, r, &in) {
		return
	}
	app, err := s.deps.Registry.Apply(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"application_id": app.ID, "status": app.Status})
}

type providerStatusRequest struct {
	Status models.PresenceStatus `json:"status"`
	Lat    *float64              `json:"lat"`
	Lng    *float64              `json:"lng"`
}

func (s *Server) handleProviderStatus(w http.ResponseWriter, r *http.Request) {
	var in providerStatusRequest
	if !decode(w, r, &in) {
		return
	}
	var loc *models.Coordinate
	if in.Lat != nil && in.Lng != nil {
		loc = &models.Coordinate{Lat: *in.Lat, Lng: *in.Lng}
	}
	if err := s.deps.Registry.SetPresence(r.Context(), callerFrom(r.Context()), in.Status, loc); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleProvidersNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lng, errLng := strconv.ParseFloat(q.Get("lng"), 64)
	if errLat != nil || errLng != nil {
		writeError(w, s.logger, apperr.Validation("lat and lng are required"))
		return
	}
	radius := matcher.DefaultRadiusKm
	if v := q.Get("radius_km"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed <= 0 {
			writeError(w, s.logger, apperr.Validation("radius_km must be a positive number"))
			return
		}
		radius = parsed
	}
	cands, err := s.deps.Directory.Nearby(r.Context(), models.Coordinate{Lat: lat, Lng: lng}, q.Get("service_type"), radius)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"providers": cands})
}

type createRequestBody struct {
	ServiceType string  `json:"service_type"`
	Description string  `json:"description"`
	PickupLat   float64 `json:"pickup_lat"`
	PickupLng   float64 `json:"pickup_lng"`
}

func (s *Server) handleCreateRequest(w http.ResponseWriter, r *http.Request) {
	var in createRequestBody
	if !decode(w, r, &in) {
		return
	}
	req, match, err := s.deps.Matcher.CreateRequest(r.Context(), callerFrom(r.Context()), matcher.CreateRequestInput{
		ServiceType: in.ServiceType,
		Description: in.Description,
		Pickup:      models.Coordinate{Lat: in.PickupLat, Lng: in.PickupLng},
	})
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"request_id": req.ID, "match": match})
}

func (s *Server) handleListRequests(w http.ResponseWriter, r *http.Request) {
	caller := callerFrom(r.Context())
	var f storage.RequestFilter
	switch caller.Role {
	case models.RoleMotorist:
		f.MotoristID = caller.ID
	case models.RoleProvider:
		f.ProviderID = caller.ID
	}
	items, err := s.deps.Store.ListRequests(r.Context(), f)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleRequestStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.RequestStatus `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	req, err := s.deps.Lifecycle.SetStatus(r.Context(), callerFrom(r.Context()), mux.Vars(r)["id"], in.Status)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": req.Status})
}

func (s *Server) handlePaymentIntent(w http.ResponseWriter, r *http.Request) {
	var in payments.IntentInput
	if !decode(w, r, &in) {
		return
	}
	p, err := s.deps.Payments.CreateIntent(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"intent_id": p.ID, "status": p.Status})
}

func (s *Server) handlePaymentWebhook(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := s.deps.Payments.HandleWebhook(r.Context(), q.Get("intent_id"), q.Get("status")); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleNotificationRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Token    string `json:"token"`
		Platform string `json:"platform"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := s.deps.Notifications.RegisterToken(r.Context(), callerFrom(r.Context()), in.Token, in.Platform); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

func (s *Server) handleNotificationSend(w http.ResponseWriter, r *http.Request) {
	var in dispatch.SendInput
	if !decode(w, r, &in) {
		return
	}
	if err := s.deps.Notifications.Send(r.Context(), callerFrom(r.Context()), in); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]bool{"ok": true})
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var in feedback.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	rev, err := s.deps.Feedback.SubmitReview(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rev)
}

func (s *Server) handleDispute(w http.ResponseWriter, r *http.Request) {
	var in feedback.DisputeInput
	if !decode(w, r, &in) {
		return
	}
	d, err := s.deps.Feedback.RaiseDispute(r.Context(), callerFrom(r.Context()), in)
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleAdminOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := s.deps.Admin.Overview(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ov)
}

func (s *Server) handleAdminApplications(w http.ResponseWriter, r *http.Request) {
	items, err := s.deps.Admin.ListApplications(r.Context(), callerFrom(r.Context()))
	if err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Status models.ApplicationStatus `json:"status"`
	}
	if !decode(w, r, &in) {
		return
	}
	if err := s.deps.Registry.Decide(r.Context(), callerFrom(r.Context()), mux.Vars(r)["id"], in.Status); err != nil {
		writeError(w, s.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

var upgrader = websocket.Upgrader{}

// handleWS attaches a provider app session used for realtime job
// offers. Providers may only open their own session.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	providerID := mux.Vars(r)["provider_id"]
	caller := callerFrom(r.Context())
	if caller.Role != models.RoleAdmin && caller.ID != providerID {
		writeError(w, s.logger, apperr.Forbidden("not your session"))
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.deps.WSReg.Add(providerID, conn)
	conn.SetCloseHandler(func(code int, text string) error {
		s.deps.WSReg.Remove(providerID)
		return nil
	})
}
