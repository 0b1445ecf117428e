package postgres

import (
	"context"
	"fmt"

	"github.com/mrintern/server/internal/domain/subscriptions"
)

var _ subscriptions.Repository = (*SubscriptionRepository)(nil)

type SubscriptionRepository struct {
	conn
}

// Upsert moves an endpoint to the latest user who registered it; browsers
// reuse endpoints across logins.
func (r *SubscriptionRepository) Upsert(ctx context.Context, userID, endpoint string, keys subscriptions.Keys) (*subscriptions.Subscription, bool, error) {
	var (
		s        subscriptions.Subscription
		inserted bool
	)
	err := r.queryer().QueryRow(ctx, `
INSERT INTO push_subscriptions (user_id, endpoint, auth, p256dh)
VALUES ($1, $2, $3, $4)
ON CONFLICT (endpoint) DO UPDATE
   SET user_id = EXCLUDED.user_id, auth = EXCLUDED.auth, p256dh = EXCLUDED.p256dh
RETURNING id, user_id, endpoint, auth, p256dh, created_at, (xmax = 0)
`, userID, endpoint, keys.Auth, keys.P256dh).Scan(
		&s.ID, &s.UserID, &s.Endpoint, &s.Keys.Auth, &s.Keys.P256dh, &s.CreatedAt, &inserted,
	)
	if err != nil {
		return nil, false, fmt.Errorf("upsert push subscription: %w", err)
	}
	return &s, inserted, nil
}

func (r *SubscriptionRepository) DeleteForUser(ctx context.Context, userID, endpoint string) error {
	tag, err := r.queryer().Exec(ctx, `DELETE FROM push_subscriptions WHERE user_id = $1 AND endpoint = $2`, userID, endpoint)
	if err != nil {
		return fmt.Errorf("delete push subscription: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return subscriptions.ErrNotFound
	}
	return nil
}

func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID string) ([]subscriptions.Subscription, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT id, user_id, endpoint, auth, p256dh, created_at
  FROM push_subscriptions
 WHERE user_id = $1
 ORDER BY created_at
`, userID)
	if err != nil {
		return nil, fmt.Errorf("list push subscriptions: %w", err)
	}
	defer rows.Close()

	out := make([]subscriptions.Subscription, 0)
	for rows.Next() {
		var s subscriptions.Subscription
		if err := rows.Scan(&s.ID, &s.UserID, &s.Endpoint, &s.Keys.Auth, &s.Keys.P256dh, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan push subscription: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByEndpoint is idempotent; pruning an unknown endpoint is not an error.
func (r *SubscriptionRepository) DeleteByEndpoint(ctx context.Context, endpoint string) error {
	if _, err := r.queryer().Exec(ctx, `DELETE FROM push_subscriptions WHERE endpoint = $1`, endpoint); err != nil {
		return fmt.Errorf("prune push subscription: %w", err)
	}
	return nil
}
