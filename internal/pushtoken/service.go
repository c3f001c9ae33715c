package pushtoken

import (
	"context"
	"strings"

	"seedorders/internal/domain"
	apperrors "seedorders/internal/errors"
)

type pushTokenService struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &pushTokenService{repo: repo}
}

// Register stores the token for userID. A token already owned by someone else
// moves to userID.
func (s *pushTokenService) Register(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error) {
	var details []apperrors.ValidationDetail
	if strings.TrimSpace(userID) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "userId", Message: "userId is required"})
	}
	if strings.TrimSpace(token) == "" {
		details = append(details, apperrors.ValidationDetail{Field: "token", Message: "token is required"})
	}
	if len(details) > 0 {
		return nil, apperrors.NewValidationError("validation failed", details...)
	}

	pt := &domain.PushToken{
		UserID:     userID,
		Token:      token,
		DeviceInfo: deviceInfo,
	}
	if err := s.repo.Upsert(ctx, pt); err != nil {
		return nil, err
	}

	return pt, nil
}

func (s *pushTokenService) ListAll(ctx context.Context) ([]domain.PushToken, error) {
	return s.repo.FindAll(ctx)
}

func (s *pushTokenService) ListByUser(ctx context.Context, userID string) ([]domain.PushToken, error) {
	if userID == "" {
		return nil, apperrors.NewValidationError("userId is required", apperrors.ValidationDetail{
			Field:   "userId",
			Message: "userId is required",
		})
	}
	return s.repo.FindByUserID(ctx, userID)
}
