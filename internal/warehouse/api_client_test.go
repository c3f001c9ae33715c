package warehouse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/realtime"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func newTestAPIClient(t *testing.T, routes func(r chi.Router)) *APIClient {
	t.Helper()
	r := chi.NewRouter()
	routes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return NewAPIClient(srv.URL+"/", "anon-key", "user-token", srv.Client())
}

func TestAPIClient_ListOrdersSendsCredentials(t *testing.T) {
	created := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Get("/api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "anon-key", r.Header.Get("apikey"))
			assert.Equal(t, "Bearer user-token", r.Header.Get("Authorization"))
			writeJSON(w, http.StatusOK, []dto.Order{{
				ID:        "o1",
				Operation: "North Farm",
				Status:    "in_progress",
				CreatedAt: created,
				OrderItems: []dto.OrderItem{
					{ID: "i1", OrderID: "o1", Variety: "P1197", Quantity: 3},
				},
			}})
		})
	})

	orders, err := client.ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.OrderStatusInProgress, orders[0].Status)
	assert.True(t, created.Equal(orders[0].CreatedAt))
	require.Len(t, orders[0].Items, 1)
	assert.Equal(t, 3, orders[0].Items[0].Quantity)
}

func TestAPIClient_GetOrderNotFound(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Get("/api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "NOT_FOUND", Message: "order not found"})
		})
	})

	_, err := client.GetOrder(context.Background(), "missing")
	nfe, ok := apperrors.IsNotFoundError(err)
	require.True(t, ok)
	assert.Equal(t, "order not found", nfe.Message)
}

func TestAPIClient_UpdateStatusValidationError(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Patch("/api/v1/orders/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"error":   "VALIDATION_ERROR",
				"message": "validation failed",
				"details": []apperrors.ValidationDetail{{Field: "Status", Message: "failed on the 'oneof' rule"}},
			})
		})
	})

	err := client.UpdateStatus(context.Background(), "o1", domain.OrderStatus("bogus"))
	ve, ok := apperrors.IsValidationError(err)
	require.True(t, ok)
	require.Len(t, ve.Details, 1)
	assert.Equal(t, "Status", ve.Details[0].Field)
}

func TestAPIClient_MarkViewedAndDelete(t *testing.T) {
	var calls []string
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Patch("/api/v1/orders/{id}/view", func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "view "+chi.URLParam(r, "id"))
			w.WriteHeader(http.StatusNoContent)
		})
		r.Delete("/api/v1/orders/{id}", func(w http.ResponseWriter, r *http.Request) {
			calls = append(calls, "delete "+chi.URLParam(r, "id"))
			w.WriteHeader(http.StatusNoContent)
		})
		r.Post("/api/v1/orders/delete", func(w http.ResponseWriter, r *http.Request) {
			var req dto.DeleteOrdersRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			calls = append(calls, "bulk")
			writeJSON(w, http.StatusOK, dto.DeleteOrdersResponse{Deleted: len(req.IDs)})
		})
	})

	ctx := context.Background()
	require.NoError(t, client.MarkViewed(ctx, "o1"))
	require.NoError(t, client.DeleteOrder(ctx, "o2"))
	deleted, err := client.DeleteOrders(ctx, []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 3, deleted)
	assert.Equal(t, []string{"view o1", "delete o2", "bulk"}, calls)
}

func TestAPIClient_MarkViewedAlreadyNotified(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Patch("/api/v1/orders/{id}/view", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusConflict, dto.ErrorResponse{Error: "CONFLICT", Message: "order o1 creator already notified"})
		})
	})

	err := client.MarkViewed(context.Background(), "o1")
	ce, ok := apperrors.IsConflictError(err)
	require.True(t, ok)
	assert.Equal(t, "order o1 creator already notified", ce.Message)
}

func TestAPIClient_UserTokens(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Get("/api/v1/push-tokens", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "sales-user", r.URL.Query().Get("userId"))
			writeJSON(w, http.StatusOK, []dto.PushToken{
				{UserID: "sales-user", Token: "ExponentPushToken[a]"},
				{UserID: "sales-user", Token: "ExponentPushToken[b]"},
			})
		})
	})

	tokens, err := client.UserTokens(context.Background(), "sales-user")
	require.NoError(t, err)
	assert.Equal(t, []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, tokens)
}

func TestAPIClient_NotifyTokens(t *testing.T) {
	var got dto.OrderNotificationRequest
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Post("/functions/v1/send-order-notification", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": map[string]any{"data": []any{}}})
		})
	})

	err := client.NotifyTokens(context.Background(), []string{"tok"}, "Order Viewed", "body", map[string]any{"orderId": "o1"})
	require.NoError(t, err)

	assert.Nil(t, got.Order)
	assert.Equal(t, []string{"tok"}, got.Tokens)
	assert.Equal(t, "Order Viewed", got.Title)
	assert.Equal(t, "o1", got.Data["orderId"])
}

func TestAPIClient_FunctionError(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Post("/functions/v1/send-reminder-notification", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusInternalServerError, dto.FunctionErrorResponse{Error: "gateway unreachable"})
		})
	})

	_, err := client.SendReminders(context.Background())
	assert.ErrorContains(t, err, "gateway unreachable")
}

func TestAPIClient_PrintOrder(t *testing.T) {
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Get("/api/v1/orders/{id}/print", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte("<html>order</html>"))
		})
	})

	page, err := client.PrintOrder(context.Background(), "o1")
	require.NoError(t, err)
	assert.Equal(t, "<html>order</html>", page)
}

func TestAPIClient_SubscribeReceivesChanges(t *testing.T) {
	hub := realtime.NewHub(8, zap.NewNop())
	client := newTestAPIClient(t, func(r chi.Router) {
		r.Handle("/realtime/v1/orders", realtime.NewHandler(hub, zap.NewNop()))
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub, err := client.Subscribe(ctx)
	require.NoError(t, err)
	defer sub.Close()

	require.Eventually(t, func() bool { return hub.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)
	hub.Publish(domain.ChangeEvent{Type: domain.ChangeUpdate, Table: "orders", New: &domain.Order{ID: "o9"}})

	select {
	case ev := <-sub.Events():
		assert.Equal(t, domain.ChangeUpdate, ev.Type)
		assert.Equal(t, "o9", ev.OrderID())
	case <-ctx.Done():
		t.Fatal("timed out waiting for change event")
	}
}
