package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
)

const (
	MessageNoTokens      = "No push tokens registered"
	MessageNoStaleOrders = "No unviewed orders needing reminders"

	orderCreatedTitle = "New Order Created"
	reminderTitle     = "⏰ Reminder: Unviewed Order"
	defaultSound      = "default"
)

type Gateway interface {
	Send(ctx context.Context, messages []PushMessage) (json.RawMessage, error)
}

type TokenLister interface {
	ListAll(ctx context.Context) ([]domain.PushToken, error)
}

type ReminderStore interface {
	FindStaleUnviewed(ctx context.Context, createdBefore time.Time) ([]domain.Order, error)
	MarkNotified(ctx context.Context, ids []string) error
}

// Outcome describes what a dispatch did. Message is set when nothing was
// sent; otherwise Result holds the gateway response.
type Outcome struct {
	Message   string
	Result    json.RawMessage
	Sent      int
	Reminders int
}

type Dispatcher struct {
	tokens     TokenLister
	orders     ReminderStore
	gateway    Gateway
	staleAfter time.Duration
	now        func() time.Time
	logger     *zap.Logger
}

func NewDispatcher(tokens TokenLister, orders ReminderStore, gateway Gateway, staleAfter time.Duration, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{
		tokens:     tokens,
		orders:     orders,
		gateway:    gateway,
		staleAfter: staleAfter,
		now:        time.Now,
		logger:     logger,
	}
}

// DispatchOrderCreated broadcasts a new-order message to every registered
// device.
func (d *Dispatcher) DispatchOrderCreated(ctx context.Context, order dto.OrderSummary) (*Outcome, error) {
	tokens, err := d.tokens.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return &Outcome{Message: MessageNoTokens}, nil
	}

	messages := make([]PushMessage, 0, len(tokens))
	for _, token := range domain.TokenValues(tokens) {
		messages = append(messages, PushMessage{
			To:    token,
			Sound: defaultSound,
			Title: orderCreatedTitle,
			Body:  order.Operation + " - " + order.AccountDescription,
			Data:  map[string]any{"order": order},
		})
	}

	return d.send(ctx, "order_created", messages)
}

// DispatchToTokens sends one custom message to each of the given tokens.
func (d *Dispatcher) DispatchToTokens(ctx context.Context, tokens []string, title, body string, data map[string]any) (*Outcome, error) {
	if len(tokens) == 0 {
		return &Outcome{Message: MessageNoTokens}, nil
	}

	messages := make([]PushMessage, 0, len(tokens))
	for _, token := range tokens {
		messages = append(messages, PushMessage{
			To:    token,
			Sound: defaultSound,
			Title: title,
			Body:  body,
			Data:  data,
		})
	}

	return d.send(ctx, "targeted", messages)
}

// DispatchReminders sends one message per (stale order, token) pair, then
// marks every stale order notified whether or not the gateway call
// succeeded. A failed mark is logged and does not fail the dispatch.
func (d *Dispatcher) DispatchReminders(ctx context.Context) (*Outcome, error) {
	now := d.now()

	stale, err := d.orders.FindStaleUnviewed(ctx, now.Add(-d.staleAfter))
	if err != nil {
		return nil, fmt.Errorf("fetching unviewed orders: %w", err)
	}
	if len(stale) == 0 {
		return &Outcome{Message: MessageNoStaleOrders}, nil
	}

	tokens, err := d.tokens.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching push tokens: %w", err)
	}
	if len(tokens) == 0 {
		return &Outcome{Message: MessageNoTokens}, nil
	}

	values := domain.TokenValues(tokens)
	messages := make([]PushMessage, 0, len(stale)*len(values))
	ids := make([]string, 0, len(stale))
	for _, order := range stale {
		ids = append(ids, order.ID)
		minutes := int(now.Sub(order.CreatedAt) / time.Minute)
		body := fmt.Sprintf("%s - %s (%d min ago)", order.Operation, order.AccountDescription, minutes)
		data := map[string]any{"order": dto.OrderFromDomain(order), "type": "reminder"}

		for _, token := range values {
			messages = append(messages, PushMessage{
				To:       token,
				Sound:    defaultSound,
				Title:    reminderTitle,
				Body:     body,
				Data:     data,
				Priority: "high",
			})
		}
	}

	outcome, sendErr := d.send(ctx, "reminder", messages)

	if err := d.orders.MarkNotified(ctx, ids); err != nil {
		d.logger.Error("failed to mark reminded orders", zap.Strings("orderIds", ids), zap.Error(err))
	}

	if sendErr != nil {
		return nil, sendErr
	}

	outcome.Reminders = len(stale)
	return outcome, nil
}

func (d *Dispatcher) send(ctx context.Context, kind string, messages []PushMessage) (*Outcome, error) {
	result, err := d.gateway.Send(ctx, messages)
	if err != nil {
		d.logger.Error("push dispatch failed",
			zap.String("kind", kind),
			zap.Int("messages", len(messages)),
			zap.Error(err),
		)
		return nil, err
	}

	d.logger.Info("push batch sent",
		zap.String("kind", kind),
		zap.Int("messages", len(messages)),
	)

	return &Outcome{Result: result, Sent: len(messages)}, nil
}

// ErrEmptyNotificationRequest is returned when a request names neither an
// order nor a target token list.
var ErrEmptyNotificationRequest = errors.New("request must contain an order or a list of tokens")

// Dispatch routes a decoded order-notification request to the broadcast or
// the targeted variant.
func (d *Dispatcher) Dispatch(ctx context.Context, req dto.OrderNotificationRequest) (*Outcome, error) {
	switch {
	case req.Tokens != nil:
		return d.DispatchToTokens(ctx, req.Tokens, req.Title, req.Body, req.Data)
	case req.Order != nil:
		return d.DispatchOrderCreated(ctx, *req.Order)
	default:
		return nil, ErrEmptyNotificationRequest
	}
}
