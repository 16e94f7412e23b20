package payments

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Gateway authorizes funds with an external processor. Implementations
// are best-effort collaborators: the local Payment record is the source
// of truth and is committed before any gateway call.
type Gateway interface {
	Hold(ctx context.Context, amountCents int64, currency string) (string, error)
}

type Service struct {
	Payments storage.PaymentStore
	Requests storage.RequestStore
	Gateway  Gateway
	Logger   *slog.Logger

	// GatewayTimeout bounds the asynchronous hold call.
	GatewayTimeout time.Duration
}

type IntentInput struct {
	RequestID string  `json:"request_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
}

// CreateIntent records a payment for a service request. The gateway
// hold runs detached after the record is committed, so a slow or dead
// processor can never wedge request handling.
func (s *Service) CreateIntent(ctx context.Context, caller models.Identity, in IntentInput) (*models.Payment, error) {
	if caller.Role != models.RoleMotorist {
		return nil, apperr.Forbidden("only motorists can create payment intents")
	}
	if in.RequestID == "" || in.Amount <= 0 {
		return nil, apperr.Validation("request_id and a positive amount are required")
	}
	if in.Currency == "" {
		in.Currency = "ZAR"
	}
	req, err := s.Requests.RequestByID(ctx, in.RequestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperr.NotFound("request not found")
	}

	now := time.Now().UTC()
	p := &models.Payment{
		ID:         uuid.NewString(),
		RequestID:  in.RequestID,
		MotoristID: caller.ID,
		ProviderID: req.ProviderID,
		Amount:     in.Amount,
		Currency:   in.Currency,
		Status:     models.PaymentInitiated,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.Payments.CreatePayment(ctx, p); err != nil {
		return nil, err
	}
	s.holdAsync(p)
	return p, nil
}

func (s *Service) holdAsync(p *models.Payment) {
	if s.Gateway == nil {
		return
	}
	timeout := s.GatewayTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		ref, err := s.Gateway.Hold(ctx, int64(p.Amount*100), p.Currency)
		if err != nil {
			if s.Logger != nil {
				s.Logger.Warn("gateway hold failed", "payment_id", p.ID, "error", err)
			}
			return
		}
		if _, err := s.Payments.SetPaymentStatus(ctx, p.ID, models.PaymentInitiated, ref); err != nil && s.Logger != nil {
			s.Logger.Error("failed to record gateway reference", "payment_id", p.ID, "error", err)
		}
	}()
}

// HandleWebhook applies a gateway status callback to a payment record.
func (s *Service) HandleWebhook(ctx context.Context, intentID, status string) error {
	if intentID == "" {
		return apperr.Validation("intent_id is required")
	}
	var st models.PaymentStatus
	switch status {
	case "", "succeeded":
		st = models.PaymentSucceeded
	case "failed":
		st = models.PaymentFailed
	default:
		return apperr.Validation("status must be succeeded or failed")
	}
	ok, err := s.Payments.SetPaymentStatus(ctx, intentID, st, "")
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("payment not found")
	}
	return nil
}
