package subscriptions

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("subscription not found")

type Keys struct {
	Auth   string `json:"auth" validate:"required"`
	P256dh string `json:"p256dh" validate:"required"`
}

// Subscription is a browser push endpoint registered by a user.
type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Endpoint  string    `json:"endpoint"`
	Keys      Keys      `json:"keys"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repository interface {
	// Upsert assigns the endpoint to userID, creating it when unseen. It
	// reports whether a new row was created.
	Upsert(ctx context.Context, userID, endpoint string, keys Keys) (*Subscription, bool, error)
	DeleteForUser(ctx context.Context, userID, endpoint string) error
	ListByUser(ctx context.Context, userID string) ([]Subscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}
