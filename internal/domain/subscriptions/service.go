package subscriptions

import (
	"context"
	"strings"

	"github.com/mrintern/server/internal/validation"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type SubscribeInput struct {
	Endpoint string `json:"endpoint" validate:"required,max=2048"`
	Keys     Keys   `json:"keys"`
}

func (s *Service) Subscribe(ctx context.Context, userID string, input SubscribeInput) (*Subscription, bool, error) {
	input.Endpoint = strings.TrimSpace(input.Endpoint)
	if err := validation.Struct(input); err != nil {
		return nil, false, err
	}
	if err := validation.ValidateURL(input.Endpoint, "endpoint"); err != nil {
		return nil, false, err
	}
	return s.repo.Upsert(ctx, userID, input.Endpoint, input.Keys)
}

func (s *Service) Unsubscribe(ctx context.Context, userID, endpoint string) error {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return validation.FieldError{Field: "endpoint", Message: "is required"}
	}
	return s.repo.DeleteForUser(ctx, userID, endpoint)
}

func (s *Service) ForUser(ctx context.Context, userID string) ([]Subscription, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Prune removes an endpoint the push service reported as gone.
func (s *Service) Prune(ctx context.Context, endpoint string) error {
	return s.repo.DeleteByEndpoint(ctx, endpoint)
}
