package dispatch

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/example/roadside-dispatch/internal/apperr"
	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Service is the notification collaborator surface: token registration
// and the admin/self send operation.
type Service struct {
	Tokens storage.TokenStore
	Outbox *Outbox
}

func (s *Service) RegisterToken(ctx context.Context, caller models.Identity, token, platform string) error {
	if token == "" {
		return apperr.Validation("token is required")
	}
	if platform == "" {
		platform = "web"
	}
	return s.Tokens.CreateNotificationToken(ctx, &models.NotificationToken{
		ID:        uuid.NewString(),
		UserID:    caller.ID,
		Token:     token,
		Platform:  platform,
		CreatedAt: time.Now().UTC(),
	})
}

type SendInput struct {
	UserID string         `json:"user_id"`
	Title  string         `json:"title"`
	Body   string         `json:"body"`
	Data   map[string]any `json:"data"`
}

// Send queues a notification. Admins may target anyone; other callers
// only themselves.
func (s *Service) Send(ctx context.Context, caller models.Identity, in SendInput) error {
	if in.UserID == "" {
		return apperr.Validation("user_id is required")
	}
	if caller.Role != models.RoleAdmin && caller.ID != in.UserID {
		return apperr.Forbidden("not allowed")
	}
	s.Outbox.Notify(in.UserID, in.Title, in.Body, in.Data)
	return nil
}
