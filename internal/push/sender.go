// Package push delivers Web Push notifications to browser subscriptions.
package push

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/mrintern/server/internal/config"
	"github.com/mrintern/server/internal/domain/subscriptions"
	"github.com/mrintern/server/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const (
	defaultIcon = "/icon.png"
	defaultURL  = "/internships"
	// maxConcurrentSends bounds parallel requests to push services per fan-out.
	maxConcurrentSends = 8
)

var (
	ErrDisabled = errors.New("push notifications are not configured")
	// ErrGone means the push service no longer knows the subscription.
	ErrGone = errors.New("push subscription expired")
)

// Payload is the JSON body the service worker receives.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Icon  string `json:"icon"`
	URL   string `json:"url"`
}

// NewPayload builds a notification that opens the internship list.
func NewPayload(title, body string) Payload {
	return Payload{Title: title, Body: body, Icon: defaultIcon, URL: defaultURL}
}

// StatusError is returned when the push service rejects a message.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("push service returned %d: %s", e.StatusCode, e.Body)
}

// Pruner removes subscriptions the push service reports as gone.
type Pruner interface {
	Prune(ctx context.Context, endpoint string) error
}

// Result summarizes a fan-out. Failures never stop other deliveries.
type Result struct {
	Sent    int
	Failed  int
	Expired int
	Errors  []error
}

type Sender struct {
	cfg    config.PushConfig
	client webpush.HTTPClient
	pruner Pruner
	logger zerolog.Logger
}

// NewSender returns a sender; pruner may be nil.
func NewSender(cfg config.PushConfig, pruner Pruner, logger zerolog.Logger) *Sender {
	return &Sender{
		cfg:    cfg,
		client: http.DefaultClient,
		pruner: pruner,
		logger: logger.With().Str("component", "push").Logger(),
	}
}

// WithHTTPClient overrides the client used to reach push services.
func (s *Sender) WithHTTPClient(client webpush.HTTPClient) *Sender {
	s.client = client
	return s
}

func (s *Sender) Enabled() bool {
	return s != nil && s.cfg.Enabled()
}

// PublicKey is the VAPID application server key browsers subscribe with.
func (s *Sender) PublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send delivers one encrypted message.
func (s *Sender) Send(ctx context.Context, sub subscriptions.Subscription, payload Payload) error {
	if !s.Enabled() {
		return ErrDisabled
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, body, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			Auth:   sub.Keys.Auth,
			P256dh: sub.Keys.P256dh,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		Subscriber:      strings.TrimPrefix(s.cfg.VAPIDSubject, "mailto:"),
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		TTL:             s.cfg.TTL,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return ErrGone
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	return nil
}

// SendToAll delivers payload to every subscription concurrently. Expired
// subscriptions are pruned; other failures are logged and collected.
func (s *Sender) SendToAll(ctx context.Context, subs []subscriptions.Subscription, payload Payload) Result {
	var (
		mu     sync.Mutex
		result Result
	)
	if !s.Enabled() {
		return result
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentSends)
	for _, sub := range subs {
		g.Go(func() error {
			err := s.Send(gctx, sub, payload)
			switch {
			case err == nil:
				metrics.PushNotificationsTotal.WithLabelValues("sent").Inc()
			case errors.Is(err, ErrGone):
				metrics.PushNotificationsTotal.WithLabelValues("expired").Inc()
				s.prune(gctx, sub)
			default:
				metrics.PushNotificationsTotal.WithLabelValues("failed").Inc()
				s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Str("user_id", sub.UserID).Msg("push delivery failed")
			}

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				result.Sent++
			case errors.Is(err, ErrGone):
				result.Expired++
			default:
				result.Failed++
				result.Errors = append(result.Errors, err)
			}
			// never abort siblings
			return nil
		})
	}
	_ = g.Wait()
	return result
}

func (s *Sender) prune(ctx context.Context, sub subscriptions.Subscription) {
	if s.pruner == nil {
		return
	}
	if err := s.pruner.Prune(ctx, sub.Endpoint); err != nil {
		s.logger.Warn().Err(err).Str("subscription_id", sub.ID).Msg("failed to prune expired subscription")
		return
	}
	s.logger.Info().Str("subscription_id", sub.ID).Msg("pruned expired push subscription")
}

// GenerateVAPIDKeys returns a new base64url encoded key pair.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	privateKey, publicKey, err = webpush.GenerateVAPIDKeys()
	return publicKey, privateKey, err
}
