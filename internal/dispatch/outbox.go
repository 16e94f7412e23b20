package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/roadside-dispatch/internal/models"
	"github.com/example/roadside-dispatch/internal/observability"
	"github.com/example/roadside-dispatch/internal/storage"
)

// Pusher is the subset of FCMClient the outbox needs; tests stub it.
type Pusher interface {
	Send(tokens []string, title, body string, data map[string]any) error
}

type notification struct {
	userID string
	title  string
	body   string
	data   map[string]any
}

// Outbox decouples notification delivery from core state transitions:
// producers enqueue and return immediately, a single worker drains the
// queue and talks to the outside world. A full queue drops the
// notification rather than block the producer.
type Outbox struct {
	WS     *WSRegistry
	Push   Pusher
	Tokens storage.TokenStore
	Logger *slog.Logger

	queue chan notification
	done  chan struct{}
}

func NewOutbox(ws *WSRegistry, push Pusher, tokens storage.TokenStore, logger *slog.Logger) *Outbox {
	o := &Outbox{
		WS:     ws,
		Push:   push,
		Tokens: tokens,
		Logger: logger,
		queue:  make(chan notification, 256),
		done:   make(chan struct{}),
	}
	go o.run()
	return o
}

// JobOffer notifies a provider it has been assigned a request.
// Implements the matcher's Notifier.
func (o *Outbox) JobOffer(providerID, requestID string, m models.Match) {
	data := map[string]any{
		"request_id": requestID,
		"eta_min":    m.ETAMinutes,
	}
	if o.WS != nil && o.WS.Send(providerID, map[string]any{"type": "job_offer", "data": data}) {
		observability.NotificationsSent.WithLabelValues("ws", "ok").Inc()
		return
	}
	o.Notify(providerID, "New job assigned", "A motorist nearby needs assistance", data)
}

// Notify enqueues a push notification for the user's registered tokens.
func (o *Outbox) Notify(userID, title, body string, data map[string]any) {
	select {
	case o.queue <- notification{userID: userID, title: title, body: body, data: data}:
	default:
		observability.NotificationsSent.WithLabelValues("push", "dropped").Inc()
		if o.Logger != nil {
			o.Logger.Warn("notification queue full, dropping", "user_id", userID)
		}
	}
}

func (o *Outbox) run() {
	for n := range o.queue {
		o.deliver(n)
	}
	close(o.done)
}

func (o *Outbox) deliver(n notification) {
	if o.Push == nil || o.Tokens == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	tokens, err := o.Tokens.NotificationTokensByUser(ctx, n.userID)
	if err != nil || len(tokens) == 0 {
		return
	}
	if err := o.Push.Send(tokens, n.title, n.body, n.data); err != nil {
		observability.NotificationsSent.WithLabelValues("push", "error").Inc()
		if o.Logger != nil {
			o.Logger.Warn("push delivery failed", "user_id", n.userID, "error", err)
		}
		return
	}
	observability.NotificationsSent.WithLabelValues("push", "ok").Inc()
}

// Close drains and stops the worker.
func (o *Outbox) Close() {
	close(o.queue)
	<-o.done
}
