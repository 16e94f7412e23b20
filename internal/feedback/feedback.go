package feedback

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Service records reviews and disputes. These are append-only
// collaborator records with no bearing on matching or lifecycle state.
type Service struct {
	Store storage.FeedbackStore
}

type ReviewInput struct {
	RequestID  string `json:"request_id"`
	ProviderID string `json:"provider_id"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

func (s *Service) SubmitReview(ctx context.Context, caller models.Identity, in ReviewInput) (*models.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	if in.RequestID == "" || in.ProviderID == "" {
		return nil, apperr.Validation("request_id and provider_id are required")
	}
	r := &models.Review{
		ID:         uuid.NewString(),
		RequestID:  in.RequestID,
		MotoristID: caller.ID,
		ProviderID: in.ProviderID,
		Rating:     in.Rating,
		Comment:    in.Comment,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.Store.CreateReview(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

type DisputeInput struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason"`
	Details   string `json:"details"`
}

func (s *Service) RaiseDispute(ctx context.Context, caller models.Identity, in DisputeInput) (*models.Dispute, error) {
	if in.RequestID == "" || in.Reason == "" {
		return nil, apperr.Validation("request_id and reason are required")
	}
	d := &models.Dispute{
		ID:        uuid.NewString(),
		RequestID: in.RequestID,
		RaisedBy:  caller.Role,
		Reason:    in.Reason,
		Details:   in.Details,
		Status:    "open",
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Store.CreateDispute(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}
