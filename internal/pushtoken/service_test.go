package pushtoken

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seedorders/internal/domain"
	apperrors "seedorders/internal/errors"
)

type mockRepository struct {
	UpsertFunc       func(ctx context.Context, token *domain.PushToken) error
	FindAllFunc      func(ctx context.Context) ([]domain.PushToken, error)
	FindByUserIDFunc func(ctx context.Context, userID string) ([]domain.PushToken, error)
}

func (m *mockRepository) Upsert(ctx context.Context, token *domain.PushToken) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, token)
	}
	return nil
}

func (m *mockRepository) FindAll(ctx context.Context) ([]domain.PushToken, error) {
	if m.FindAllFunc != nil {
		return m.FindAllFunc(ctx)
	}
	return nil, nil
}

func (m *mockRepository) FindByUserID(ctx context.Context, userID string) ([]domain.PushToken, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, userID)
	}
	return nil, nil
}

func TestService_Register_Success(t *testing.T) {
	var stored *domain.PushToken
	svc := NewService(&mockRepository{
		UpsertFunc: func(ctx context.Context, token *domain.PushToken) error {
			stored = token
			return nil
		},
	})

	pt, err := svc.Register(context.Background(), "user-1", "ExponentPushToken[abc]", "iPhone")
	require.NoError(t, err)
	assert.Equal(t, stored, pt)
	assert.Equal(t, "user-1", pt.UserID)
	assert.Equal(t, "ExponentPushToken[abc]", pt.Token)
	assert.Equal(t, "iPhone", pt.DeviceInfo)
}

func TestService_Register_Validation(t *testing.T) {
	called := false
	svc := NewService(&mockRepository{
		UpsertFunc: func(ctx context.Context, token *domain.PushToken) error {
			called = true
			return nil
		},
	})

	_, err := svc.Register(context.Background(), "", " ", "")
	require.Error(t, err)

	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	assert.Len(t, ve.Details, 2)
	assert.False(t, called)
}

func TestService_Register_RepositoryError(t *testing.T) {
	svc := NewService(&mockRepository{
		UpsertFunc: func(ctx context.Context, token *domain.PushToken) error {
			return errors.New("connection refused")
		},
	})

	_, err := svc.Register(context.Background(), "user-1", "tok", "")
	assert.EqualError(t, err, "connection refused")
}

func TestService_ListByUser_RequiresUser(t *testing.T) {
	svc := NewService(&mockRepository{})

	_, err := svc.ListByUser(context.Background(), "")
	_, ok := apperrors.IsValidationError(err)
	assert.True(t, ok)
}

func TestService_ListAll(t *testing.T) {
	svc := NewService(&mockRepository{
		FindAllFunc: func(ctx context.Context) ([]domain.PushToken, error) {
			return []domain.PushToken{{Token: "a"}, {Token: "b"}}, nil
		},
	})

	tokens, err := svc.ListAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, domain.TokenValues(tokens))
}
