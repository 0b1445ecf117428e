package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/mrintern/server/internal/api/middleware"
	"github.com/mrintern/server/internal/api/problem"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/push"
)

// SubscriptionService stores browser push subscriptions.
type SubscriptionService interface {
	Subscribe(ctx context.Context, userID string, input subscriptions.SubscribeInput) (*subscriptions.Subscription, bool, error)
	Unsubscribe(ctx context.Context, userID, endpoint string) error
	ForUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error)
}

// PushSender delivers notifications to subscriptions.
type PushSender interface {
	Enabled() bool
	PublicKey() string
	SendToAll(ctx context.Context, subs []subscriptions.Subscription, payload push.Payload) push.Result
}

type PushHandler struct {
	subs   SubscriptionService
	sender PushSender
	env    string
}

func NewPushHandler(subs SubscriptionService, sender PushSender, env string) *PushHandler {
	return &PushHandler{subs: subs, sender: sender, env: env}
}

type unsubscribeRequest struct {
	Endpoint string `json:"endpoint"`
}

type testPushRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type testPushResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Sent    int    `json:"sent"`
	Failed  int    `json:"failed"`
	Expired int    `json:"expired"`
}

type vapidKeyResponse struct {
	PublicKey string `json:"publicKey"`
}

// Subscribe registers the browser endpoint for the caller. An endpoint that
// is already known moves to the caller.
func (h *PushHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	var input subscriptions.SubscribeInput
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.Endpoint == "" || input.Keys.Auth == "" || input.Keys.P256dh == "" {
		writeRequired(w, r, "endpoint", "Invalid subscription data", h.env)
		return
	}
	_, created, err := h.subs.Subscribe(r.Context(), middleware.UserID(r), input)
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if created {
		writeJSON(w, http.StatusCreated, success{Success: true, Message: "Subscription saved"})
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true, Message: "Subscription updated"})
}

func (h *PushHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	var input unsubscribeRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.Endpoint == "" {
		writeRequired(w, r, "endpoint", "Endpoint required", h.env)
		return
	}
	if err := h.subs.Unsubscribe(r.Context(), middleware.UserID(r), input.Endpoint); err != nil {
		writeError(w, r, err, h.env)
		return
	}
	writeJSON(w, http.StatusOK, success{Success: true, Message: "Subscription removed"})
}

// Test sends a notification to every device the caller has subscribed.
func (h *PushHandler) Test(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil || !h.sender.Enabled() {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Push notifications are not configured", push.ErrDisabled, h.env)
		return
	}
	var input testPushRequest
	if err := decodeJSON(r, &input); err != nil {
		writeDecodeError(w, r, err, h.env)
		return
	}
	if input.Title == "" || input.Body == "" {
		writeRequired(w, r, "title", "Title and body are required", h.env)
		return
	}

	subs, err := h.subs.ForUser(r.Context(), middleware.UserID(r))
	if err != nil {
		writeError(w, r, err, h.env)
		return
	}
	if len(subs) == 0 {
		problem.Write(w, r, http.StatusNotFound, problem.TypeNotFound, "No push subscriptions found", subscriptions.ErrNotFound, h.env)
		return
	}

	result := h.sender.SendToAll(r.Context(), subs, push.NewPayload(input.Title, input.Body))
	writeJSON(w, http.StatusOK, testPushResponse{
		Success: true,
		Message: fmt.Sprintf("Push notification sent to %d device(s)", len(subs)),
		Sent:    result.Sent,
		Failed:  result.Failed,
		Expired: result.Expired,
	})
}

// PublicKey exposes the VAPID application server key for PushManager.subscribe.
func (h *PushHandler) PublicKey(w http.ResponseWriter, r *http.Request) {
	if h.sender == nil || !h.sender.Enabled() {
		problem.Write(w, r, http.StatusServiceUnavailable, problem.TypeUnavailable, "Push notifications are not configured", push.ErrDisabled, h.env)
		return
	}
	writeJSON(w, http.StatusOK, vapidKeyResponse{PublicKey: h.sender.PublicKey()})
}
