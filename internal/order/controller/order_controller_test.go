package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/middleware"
	"seedorders/internal/order/usecase"
)

const testOrderID = "7f1c2a9e-3b1d-4c55-9a8e-2f6a3c1b0d42"

type mockCreateUseCase struct {
	CreateOrderFunc func(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error)
}

func (m *mockCreateUseCase) CreateOrder(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error) {
	return m.CreateOrderFunc(ctx, createdBy, req)
}

type mockManageUseCase struct {
	ListOrdersFunc   func(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	GetOrderFunc     func(ctx context.Context, id string) (*domain.Order, error)
	StatsFunc        func(ctx context.Context) (domain.OrderStats, error)
	UpdateStatusFunc func(ctx context.Context, id string, status domain.OrderStatus) error
	MarkViewedFunc   func(ctx context.Context, id string, viewerID string) error
	DeleteOrderFunc  func(ctx context.Context, id string) error
	DeleteOrdersFunc func(ctx context.Context, ids []string) (int, error)
	PrintOrderFunc   func(ctx context.Context, id string) (string, error)
}

func (m *mockManageUseCase) ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	return m.ListOrdersFunc(ctx, status)
}

func (m *mockManageUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return m.GetOrderFunc(ctx, id)
}

func (m *mockManageUseCase) Stats(ctx context.Context) (domain.OrderStats, error) {
	return m.StatsFunc(ctx)
}

func (m *mockManageUseCase) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return m.UpdateStatusFunc(ctx, id, status)
}

func (m *mockManageUseCase) MarkViewed(ctx context.Context, id string, viewerID string) error {
	return m.MarkViewedFunc(ctx, id, viewerID)
}

func (m *mockManageUseCase) DeleteOrder(ctx context.Context, id string) error {
	return m.DeleteOrderFunc(ctx, id)
}

func (m *mockManageUseCase) DeleteOrders(ctx context.Context, ids []string) (int, error) {
	return m.DeleteOrdersFunc(ctx, ids)
}

func (m *mockManageUseCase) PrintOrder(ctx context.Context, id string) (string, error) {
	return m.PrintOrderFunc(ctx, id)
}

func newTestRouter(create CreateOrderUseCase, manage ManageOrdersUseCase) http.Handler {
	ctrl := NewOrderController(create, manage, zap.NewNop())
	r := chi.NewRouter()
	r.Route("/api/v1/orders", ctrl.Routes)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body, userID string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleCreate_Success(t *testing.T) {
	create := &mockCreateUseCase{CreateOrderFunc: func(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error) {
		assert.Equal(t, "user-1", createdBy)
		assert.Equal(t, "Soybeans", req.SeedType)
		require.Len(t, req.Items, 2)
		return &usecase.CreateOrderResult{
			Order:        domain.Order{ID: testOrderID, Operation: req.Operation, Status: domain.OrderStatusPending},
			Notification: usecase.NotificationSent,
		}, nil
	}}
	body := `{"operation":"Smith","account_description":"North","seed_type":"Soybeans","items":[{"variety":"V1","seed_treatment":"T1"},{"variety":"V2","seed_treatment":"T2"}]}`

	rec := do(t, newTestRouter(create, &mockManageUseCase{}), http.MethodPost, "/api/v1/orders", body, "user-1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.TraceID)
	assert.Equal(t, testOrderID, resp.Order.ID)
	assert.Equal(t, "sent", resp.Notification)
	assert.Empty(t, resp.NotificationError)
}

func TestHandleCreate_NotificationFailedStillCreated(t *testing.T) {
	create := &mockCreateUseCase{CreateOrderFunc: func(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error) {
		return &usecase.CreateOrderResult{
			Order:             domain.Order{ID: testOrderID},
			Notification:      usecase.NotificationFailed,
			NotificationError: errors.New("gateway down"),
		}, nil
	}}

	rec := do(t, newTestRouter(create, &mockManageUseCase{}), http.MethodPost, "/api/v1/orders", `{}`, "user-1")

	assert.Equal(t, http.StatusCreated, rec.Code)
	var resp dto.CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Notification)
	assert.Equal(t, "gateway down", resp.NotificationError)
}

func TestHandleCreate_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "anonymous caller", body: `{}`, wantStatus: http.StatusUnauthorized, wantCode: "UNAUTHORIZED"},
		{name: "malformed json", body: `{"operation":`, userID: "u", wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR"},
		{
			name: "validation", body: `{}`, userID: "u",
			err:        apperrors.NewValidationError("Please fill in operation, account description, and seed type", apperrors.ValidationDetail{Field: "operation", Message: "operation is required"}),
			wantStatus: http.StatusBadRequest, wantCode: "VALIDATION_ERROR",
		},
		{name: "store failure", body: `{}`, userID: "u", err: errors.New("creating order: timeout"), wantStatus: http.StatusInternalServerError, wantCode: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			create := &mockCreateUseCase{CreateOrderFunc: func(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error) {
				return nil, tt.err
			}}

			rec := do(t, newTestRouter(create, &mockManageUseCase{}), http.MethodPost, "/api/v1/orders", tt.body, tt.userID)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantCode)
		})
	}
}

func TestHandleList(t *testing.T) {
	var gotStatus *domain.OrderStatus
	manage := &mockManageUseCase{ListOrdersFunc: func(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
		gotStatus = status
		return []domain.Order{
			{ID: "b", Status: domain.OrderStatusCompleted, Items: []domain.OrderItem{{ID: "i1", Variety: "V1"}}},
			{ID: "a", Status: domain.OrderStatusCompleted},
		}, nil
	}}
	h := newTestRouter(&mockCreateUseCase{}, manage)

	rec := do(t, h, http.MethodGet, "/api/v1/orders?status=completed", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, gotStatus)
	assert.Equal(t, domain.OrderStatusCompleted, *gotStatus)

	var resp []dto.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "b", resp[0].ID)
	assert.Len(t, resp[0].OrderItems, 1)

	do(t, h, http.MethodGet, "/api/v1/orders", "", "")
	assert.Nil(t, gotStatus)
}

func TestHandleStats(t *testing.T) {
	manage := &mockManageUseCase{StatsFunc: func(ctx context.Context) (domain.OrderStats, error) {
		return domain.OrderStats{Pending: 1, InProgress: 2, Completed: 3, Total: 6}, nil
	}}

	rec := do(t, newTestRouter(&mockCreateUseCase{}, manage), http.MethodGet, "/api/v1/orders/stats", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"pending":1,"in_progress":2,"completed":3,"total":6}`, rec.Body.String())
}

func TestHandleGet(t *testing.T) {
	manage := &mockManageUseCase{GetOrderFunc: func(ctx context.Context, id string) (*domain.Order, error) {
		if id != testOrderID {
			return nil, apperrors.NewNotFoundError("order with id " + id + " not found")
		}
		return &domain.Order{ID: id, Operation: "Smith"}, nil
	}}
	h := newTestRouter(&mockCreateUseCase{}, manage)

	rec := do(t, h, http.MethodGet, "/api/v1/orders/"+testOrderID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"operation":"Smith"`)

	rec = do(t, h, http.MethodGet, "/api/v1/orders/00000000-0000-0000-0000-000000000000", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/orders/not-a-uuid", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleUpdateStatus(t *testing.T) {
	var got domain.OrderStatus
	manage := &mockManageUseCase{UpdateStatusFunc: func(ctx context.Context, id string, status domain.OrderStatus) error {
		got = status
		return nil
	}}
	h := newTestRouter(&mockCreateUseCase{}, manage)

	rec := do(t, h, http.MethodPatch, "/api/v1/orders/"+testOrderID+"/status", `{"status":"in_progress"}`, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, domain.OrderStatusInProgress, got)

	rec = do(t, h, http.MethodPatch, "/api/v1/orders/"+testOrderID+"/status", `{"status":"shipped"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "oneof")
}

func TestHandleMarkViewed(t *testing.T) {
	var viewer string
	manage := &mockManageUseCase{MarkViewedFunc: func(ctx context.Context, id string, viewerID string) error {
		viewer = viewerID
		return nil
	}}
	h := newTestRouter(&mockCreateUseCase{}, manage)

	rec := do(t, h, http.MethodPatch, "/api/v1/orders/"+testOrderID+"/view", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodPatch, "/api/v1/orders/"+testOrderID+"/view", "", "staff-1")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "staff-1", viewer)
}

func TestHandleMarkViewed_AlreadyNotified(t *testing.T) {
	manage := &mockManageUseCase{MarkViewedFunc: func(ctx context.Context, id string, viewerID string) error {
		return apperrors.NewConflictError("order " + id + " creator already notified")
	}}

	rec := do(t, newTestRouter(&mockCreateUseCase{}, manage), http.MethodPatch, "/api/v1/orders/"+testOrderID+"/view", "", "staff-2")

	assert.Equal(t, http.StatusConflict, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "CONFLICT", resp.Error)
	assert.Contains(t, resp.Message, "already notified")
}

func TestHandleList_StoreFailure(t *testing.T) {
	manage := &mockManageUseCase{ListOrdersFunc: func(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
		return nil, apperrors.NewInternalError("failed to list orders", errors.New("dial tcp: connection refused"))
	}}

	rec := do(t, newTestRouter(&mockCreateUseCase{}, manage), http.MethodGet, "/api/v1/orders", "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INTERNAL_ERROR", resp.Error)
	assert.Equal(t, "failed to list orders", resp.Message)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	assert.NotEmpty(t, resp.TraceID)
}

func TestHandleDelete(t *testing.T) {
	manage := &mockManageUseCase{DeleteOrderFunc: func(ctx context.Context, id string) error {
		return errors.New("connection lost")
	}}

	rec := do(t, newTestRouter(&mockCreateUseCase{}, manage), http.MethodDelete, "/api/v1/orders/"+testOrderID, "", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection lost")
}

func TestHandleBulkDelete(t *testing.T) {
	var got []string
	manage := &mockManageUseCase{DeleteOrdersFunc: func(ctx context.Context, ids []string) (int, error) {
		got = ids
		return len(ids), nil
	}}
	h := newTestRouter(&mockCreateUseCase{}, manage)
	other := "0b6f4a3e-8d2c-4e1f-a5b7-9c0d1e2f3a4b"

	rec := do(t, h, http.MethodPost, "/api/v1/orders/delete", `{"ids":["`+testOrderID+`","`+other+`"]}`, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":2}`, rec.Body.String())
	assert.Equal(t, []string{testOrderID, other}, got)

	rec = do(t, h, http.MethodPost, "/api/v1/orders/delete", `{"ids":[]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/orders/delete", `{"ids":["nope"]}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandlePrint(t *testing.T) {
	manage := &mockManageUseCase{PrintOrderFunc: func(ctx context.Context, id string) (string, error) {
		return "<html>order</html>", nil
	}}

	rec := do(t, newTestRouter(&mockCreateUseCase{}, manage), http.MethodGet, "/api/v1/orders/"+testOrderID+"/print", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<html>order</html>", rec.Body.String())
}
