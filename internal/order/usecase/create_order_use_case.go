package usecase

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/notification"
)

// OrderWriter persists the order row. PublishCreated announces it to live
// subscribers and is called once the items have been written or given up on.
type OrderWriter interface {
	Insert(ctx context.Context, order *domain.Order) error
	PublishCreated(order domain.Order)
}

type OrderItemWriter interface {
	InsertBatch(ctx context.Context, items []domain.OrderItem) error
}

type OrderCreatedNotifier interface {
	DispatchOrderCreated(ctx context.Context, order dto.OrderSummary) (*notification.Outcome, error)
}

type NotificationStatus string

const (
	NotificationSent   NotificationStatus = "sent"
	NotificationFailed NotificationStatus = "failed"
)

// CreateOrderResult reports the persisted order and whether the new-order
// broadcast went out. A failed broadcast never undoes the order.
type CreateOrderResult struct {
	Order             domain.Order
	Notification      NotificationStatus
	NotificationError error
}

type CreateOrderUseCase struct {
	orderRepo     OrderWriter
	orderItemRepo OrderItemWriter
	notifier      OrderCreatedNotifier
	logger        *zap.Logger
}

func NewCreateOrderUseCase(
	orderRepo OrderWriter,
	orderItemRepo OrderItemWriter,
	notifier OrderCreatedNotifier,
	logger *zap.Logger,
) *CreateOrderUseCase {
	return &CreateOrderUseCase{
		orderRepo:     orderRepo,
		orderItemRepo: orderItemRepo,
		notifier:      notifier,
		logger:        logger,
	}
}

func (uc *CreateOrderUseCase) CreateOrder(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*CreateOrderResult, error) {
	if err := ValidateCreateOrder(req); err != nil {
		return nil, err
	}

	soybeans := domain.IsSoybeans(req.SeedType)
	order := &domain.Order{
		Operation:          req.Operation,
		AccountDescription: req.AccountDescription,
		SeedType:           req.SeedType,
		Variety:            req.Items[0].Variety,
		Notes:              req.Notes,
		Status:             domain.OrderStatusPending,
		CreatedBy:          createdBy,
	}
	if soybeans {
		order.SeedTreatment = treatment(req.Items[0].SeedTreatment)
	}

	logger := uc.logger.With(zap.String("operation", req.Operation), zap.Int("itemCount", len(req.Items)))

	if err := uc.orderRepo.Insert(ctx, order); err != nil {
		logger.Error("order insert failed", zap.Error(err))
		return nil, fmt.Errorf("creating order: %w", err)
	}

	items := make([]domain.OrderItem, len(req.Items))
	for i, it := range req.Items {
		quantity := it.Quantity
		if quantity < 1 {
			quantity = 1
		}
		items[i] = domain.OrderItem{
			OrderID:  order.ID,
			Variety:  it.Variety,
			Quantity: quantity,
		}
		if soybeans {
			items[i].SeedTreatment = treatment(it.SeedTreatment)
		}
	}

	if err := uc.orderItemRepo.InsertBatch(ctx, items); err != nil {
		// the order row stays; there is no compensating delete
		logger.Error("order items insert failed, order left without items",
			zap.String("orderId", order.ID),
			zap.Error(err),
		)
		uc.orderRepo.PublishCreated(*order)
		return nil, fmt.Errorf("creating order items: %w", err)
	}
	order.Items = items
	uc.orderRepo.PublishCreated(*order)

	result := &CreateOrderResult{Order: *order, Notification: NotificationSent}

	_, err := uc.notifier.DispatchOrderCreated(ctx, dto.OrderSummary{
		Operation:          order.Operation,
		AccountDescription: order.AccountDescription,
		SeedType:           order.SeedType,
		Variety:            order.Variety,
	})
	if err != nil {
		logger.Warn("order created but notification failed", zap.String("orderId", order.ID), zap.Error(err))
		result.Notification = NotificationFailed
		result.NotificationError = err
	}

	logger.Info("order created", zap.String("orderId", order.ID), zap.String("notification", string(result.Notification)))
	return result, nil
}

// ValidateCreateOrder checks the intake form before anything is written.
func ValidateCreateOrder(req dto.CreateOrderRequest) error {
	var details []apperrors.ValidationDetail
	required := func(field, value string) {
		if strings.TrimSpace(value) == "" {
			details = append(details, apperrors.ValidationDetail{Field: field, Message: field + " is required"})
		}
	}

	required("operation", req.Operation)
	required("account_description", req.AccountDescription)
	required("seed_type", req.SeedType)
	if len(details) > 0 {
		return apperrors.NewValidationError("Please fill in operation, account description, and seed type", details...)
	}

	if len(req.Items) == 0 {
		return apperrors.NewValidationError("At least one item is required", apperrors.ValidationDetail{
			Field:   "items",
			Message: "items must not be empty",
		})
	}

	for i, it := range req.Items {
		required(fmt.Sprintf("items[%d].variety", i), it.Variety)
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("Please fill in all variety fields", details...)
	}

	if domain.IsSoybeans(req.SeedType) {
		for i, it := range req.Items {
			required(fmt.Sprintf("items[%d].seed_treatment", i), it.SeedTreatment)
		}
		if len(details) > 0 {
			return apperrors.NewValidationError("Please fill in all seed treatment fields for soybeans", details...)
		}
	}

	return nil
}

func treatment(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
