package pushtoken

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	"seedorders/internal/middleware"
)

type mockService struct {
	RegisterFunc   func(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error)
	ListAllFunc    func(ctx context.Context) ([]domain.PushToken, error)
	ListByUserFunc func(ctx context.Context, userID string) ([]domain.PushToken, error)
}

func (m *mockService) Register(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error) {
	return m.RegisterFunc(ctx, userID, token, deviceInfo)
}

func (m *mockService) ListAll(ctx context.Context) ([]domain.PushToken, error) {
	return m.ListAllFunc(ctx)
}

func (m *mockService) ListByUser(ctx context.Context, userID string) ([]domain.PushToken, error) {
	return m.ListByUserFunc(ctx, userID)
}

func newTestController(svc Service) *Controller {
	return NewController(svc, zap.NewNop())
}

func asUser(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

func TestController_HandleRegister_Success(t *testing.T) {
	svc := &mockService{
		RegisterFunc: func(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error) {
			assert.Equal(t, "user-1", userID)
			assert.Equal(t, "ExponentPushToken[abc]", token)
			assert.Equal(t, "Pixel 8", deviceInfo)
			return &domain.PushToken{UserID: userID, Token: token, DeviceInfo: deviceInfo}, nil
		},
	}
	body := `{"token":"ExponentPushToken[abc]","deviceInfo":"Pixel 8"}`
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/push-tokens", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()

	newTestController(svc).HandleRegister(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp dto.PushToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ExponentPushToken[abc]", resp.Token)
	assert.Equal(t, "user-1", resp.UserID)
}

func TestController_HandleRegister_RequiresUser(t *testing.T) {
	req := httptest.NewRequest(http.MethodPut, "/api/v1/push-tokens", strings.NewReader(`{"token":"x"}`))
	rec := httptest.NewRecorder()

	newTestController(&mockService{}).HandleRegister(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestController_HandleRegister_InvalidBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{`},
		{name: "missing token", body: `{"deviceInfo":"Pixel"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/push-tokens", strings.NewReader(tt.body)), "user-1")
			rec := httptest.NewRecorder()

			newTestController(&mockService{}).HandleRegister(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
		})
	}
}

func TestController_HandleRegister_ServiceError(t *testing.T) {
	svc := &mockService{
		RegisterFunc: func(ctx context.Context, userID, token, deviceInfo string) (*domain.PushToken, error) {
			return nil, errors.New("db down")
		},
	}
	req := asUser(httptest.NewRequest(http.MethodPut, "/api/v1/push-tokens", strings.NewReader(`{"token":"x"}`)), "user-1")
	rec := httptest.NewRecorder()

	newTestController(svc).HandleRegister(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "db down")
}

func TestController_HandleList(t *testing.T) {
	var asked string
	svc := &mockService{
		ListByUserFunc: func(ctx context.Context, userID string) ([]domain.PushToken, error) {
			asked = userID
			return []domain.PushToken{{UserID: userID, Token: "t1"}}, nil
		},
	}
	ctrl := newTestController(svc)

	rec := httptest.NewRecorder()
	ctrl.HandleList(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/push-tokens?userId=creator", nil), "viewer"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "creator", asked)

	rec = httptest.NewRecorder()
	ctrl.HandleList(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/v1/push-tokens", nil), "viewer"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "viewer", asked)

	var resp []dto.PushToken
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, "t1", resp[0].Token)
}
