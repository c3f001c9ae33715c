package warehouse

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/realtime"
)

// APIClient talks to the seed order server over REST, the notification
// functions and the realtime WebSocket. It is the Backend, Notifier and Feed
// of a remote dashboard.
type APIClient struct {
	baseURL     string
	apiKey      string
	accessToken string
	client      *http.Client
}

// NewAPIClient returns a client for the server at baseURL. accessToken may be
// empty for calls that need no user identity.
func NewAPIClient(baseURL, apiKey, accessToken string, client *http.Client) *APIClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &APIClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		accessToken: accessToken,
		client:      client,
	}
}

func (c *APIClient) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []dto.Order
	if err := c.call(ctx, http.MethodGet, "/api/v1/orders", nil, &orders); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = o.ToDomain()
	}
	return out, nil
}

func (c *APIClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order dto.Order
	if err := c.call(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(id), nil, &order); err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}

	out := order.ToDomain()
	return &out, nil
}

func (c *APIClient) Stats(ctx context.Context) (dto.OrderStats, error) {
	var stats dto.OrderStats
	if err := c.call(ctx, http.MethodGet, "/api/v1/orders/stats", nil, &stats); err != nil {
		return dto.OrderStats{}, fmt.Errorf("getting order stats: %w", err)
	}
	return stats, nil
}

func (c *APIClient) CreateOrder(ctx context.Context, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	var resp dto.CreateOrderResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/orders", req, &resp); err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	return &resp, nil
}

func (c *APIClient) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	body := dto.UpdateStatusRequest{Status: string(status)}
	if err := c.call(ctx, http.MethodPatch, "/api/v1/orders/"+url.PathEscape(id)+"/status", body, nil); err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return nil
}

func (c *APIClient) MarkViewed(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodPatch, "/api/v1/orders/"+url.PathEscape(id)+"/view", nil, nil); err != nil {
		return fmt.Errorf("marking order viewed: %w", err)
	}
	return nil
}

func (c *APIClient) DeleteOrder(ctx context.Context, id string) error {
	if err := c.call(ctx, http.MethodDelete, "/api/v1/orders/"+url.PathEscape(id), nil, nil); err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	return nil
}

func (c *APIClient) DeleteOrders(ctx context.Context, ids []string) (int, error) {
	var resp dto.DeleteOrdersResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/orders/delete", dto.DeleteOrdersRequest{IDs: ids}, &resp); err != nil {
		return 0, fmt.Errorf("deleting orders: %w", err)
	}
	return resp.Deleted, nil
}

// PrintOrder returns the printable HTML page of an order.
func (c *APIClient) PrintOrder(ctx context.Context, id string) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/v1/orders/"+url.PathEscape(id)+"/print", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("printing order: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading print page: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("printing order: %w", apiError(resp.StatusCode, raw))
	}
	return string(raw), nil
}

func (c *APIClient) RegisterPushToken(ctx context.Context, token, deviceInfo string) (*dto.PushToken, error) {
	var out dto.PushToken
	body := dto.RegisterPushTokenRequest{Token: token, DeviceInfo: deviceInfo}
	if err := c.call(ctx, http.MethodPut, "/api/v1/push-tokens", body, &out); err != nil {
		return nil, fmt.Errorf("registering push token: %w", err)
	}
	return &out, nil
}

// UserTokens returns the device tokens registered by userID.
func (c *APIClient) UserTokens(ctx context.Context, userID string) ([]string, error) {
	var tokens []dto.PushToken
	path := "/api/v1/push-tokens?userId=" + url.QueryEscape(userID)
	if err := c.call(ctx, http.MethodGet, path, nil, &tokens); err != nil {
		return nil, fmt.Errorf("listing push tokens: %w", err)
	}

	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Token
	}
	return out, nil
}

// NotifyTokens sends a custom message through the order notification
// function.
func (c *APIClient) NotifyTokens(ctx context.Context, tokens []string, title, body string, data map[string]any) error {
	req := dto.OrderNotificationRequest{Tokens: tokens, Title: title, Body: body, Data: data}
	if _, err := c.function(ctx, "send-order-notification", req); err != nil {
		return fmt.Errorf("sending notification: %w", err)
	}
	return nil
}

// SendReminders triggers the stale-order reminder and returns the function's
// response body.
func (c *APIClient) SendReminders(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.function(ctx, "send-reminder-notification", nil)
	if err != nil {
		return nil, fmt.Errorf("sending reminders: %w", err)
	}
	return raw, nil
}

// Subscribe opens the orders change feed.
func (c *APIClient) Subscribe(ctx context.Context) (Subscription, error) {
	endpoint := c.baseURL + "/realtime/v1/orders"
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		endpoint = "wss://" + strings.TrimPrefix(endpoint, "https://")
	case strings.HasPrefix(endpoint, "http://"):
		endpoint = "ws://" + strings.TrimPrefix(endpoint, "http://")
	}

	sub, err := realtime.Dial(ctx, endpoint, c.headers())
	if err != nil {
		return nil, err
	}
	return sub, nil
}

func (c *APIClient) function(ctx context.Context, name string, body any) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/functions/v1/"+name, body)
	if err != nil {
		return nil, err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var fe dto.FunctionErrorResponse
		if json.Unmarshal(raw, &fe) == nil && fe.Error != "" {
			return nil, fmt.Errorf("%s: %s", name, fe.Error)
		}
		return nil, apiError(resp.StatusCode, raw)
	}
	return raw, nil
}

func (c *APIClient) call(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *APIClient) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header = c.headers()
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *APIClient) headers() http.Header {
	h := http.Header{}
	h.Set("apikey", c.apiKey)
	if c.accessToken != "" {
		h.Set("Authorization", "Bearer "+c.accessToken)
	}
	return h
}

type errorBody struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

// apiError maps an error response onto the typed errors of the server.
func apiError(status int, raw []byte) error {
	var body errorBody
	_ = json.Unmarshal(raw, &body)

	message := body.Message
	if message == "" {
		message = strings.TrimSpace(string(raw))
	}
	if message == "" {
		message = http.StatusText(status)
	}

	switch status {
	case http.StatusBadRequest:
		return apperrors.NewValidationError(message, body.Details...)
	case http.StatusNotFound:
		return apperrors.NewNotFoundError(message)
	case http.StatusUnauthorized:
		return apperrors.NewUnauthorizedError(message)
	case http.StatusConflict:
		return apperrors.NewConflictError(message)
	}
	return fmt.Errorf("unexpected status %d: %s", status, message)
}
