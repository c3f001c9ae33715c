package pushtoken

import (
	"context"

	"seedorders/internal/domain"
)

type Service interface {
	Register(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error)
	ListAll(ctx context.Context) ([]domain.PushToken, error)
	ListByUser(ctx context.Context, userID string) ([]domain.PushToken, error)
}

type Repository interface {
	Upsert(ctx context.Context, token *domain.PushToken) error
	FindAll(ctx context.Context) ([]domain.PushToken, error)
	FindByUserID(ctx context.Context, userID string) ([]domain.PushToken, error)
}
