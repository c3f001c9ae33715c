package usecase

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"seedorders/internal/domain"
	apperrors "seedorders/internal/errors"
)

type OrderRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	MarkViewed(ctx context.Context, id string, viewerID string) error
	Delete(ctx context.Context, id string) error
	DeleteMany(ctx context.Context, ids []string) (int64, error)
}

type OrderPrinter interface {
	RenderString(order domain.Order) (string, error)
}

// ManageOrdersUseCase backs the warehouse dashboard: reads, status edits,
// view tracking, deletes and printing.
type ManageOrdersUseCase struct {
	orderRepo OrderRepository
	printer   OrderPrinter
	logger    *zap.Logger
}

func NewManageOrdersUseCase(orderRepo OrderRepository, printer OrderPrinter, logger *zap.Logger) *ManageOrdersUseCase {
	return &ManageOrdersUseCase{
		orderRepo: orderRepo,
		printer:   printer,
		logger:    logger,
	}
}

func (uc *ManageOrdersUseCase) ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error) {
	if status != nil && !status.Valid() {
		return nil, invalidStatus(*status)
	}
	orders, err := uc.orderRepo.List(ctx, status)
	if err != nil {
		return nil, storeError("failed to list orders", err)
	}
	return orders, nil
}

func (uc *ManageOrdersUseCase) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to load order", err)
	}
	return order, nil
}

func (uc *ManageOrdersUseCase) Stats(ctx context.Context) (domain.OrderStats, error) {
	orders, err := uc.orderRepo.List(ctx, nil)
	if err != nil {
		return domain.OrderStats{}, storeError("failed to count orders", err)
	}
	return domain.CountByStatus(orders), nil
}

// UpdateStatus moves an order to any status; there is no transition graph.
func (uc *ManageOrdersUseCase) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	if !status.Valid() {
		return invalidStatus(status)
	}

	if err := uc.orderRepo.UpdateStatus(ctx, id, status); err != nil {
		return storeError("failed to update order status", err)
	}

	uc.logger.Info("order status updated", zap.String("orderId", id), zap.String("status", string(status)))
	return nil
}

func (uc *ManageOrdersUseCase) MarkViewed(ctx context.Context, id string, viewerID string) error {
	if viewerID == "" {
		return apperrors.NewValidationError("viewer is required", apperrors.ValidationDetail{
			Field:   "viewed_by",
			Message: "a signed-in user is required to mark an order viewed",
		})
	}
	if err := uc.orderRepo.MarkViewed(ctx, id, viewerID); err != nil {
		return storeError("failed to mark order viewed", err)
	}
	return nil
}

func (uc *ManageOrdersUseCase) DeleteOrder(ctx context.Context, id string) error {
	if err := uc.orderRepo.Delete(ctx, id); err != nil {
		return storeError("failed to delete order", err)
	}

	uc.logger.Info("order deleted", zap.String("orderId", id))
	return nil
}

// DeleteOrders removes all ids in a single call and reports how many rows
// went away.
func (uc *ManageOrdersUseCase) DeleteOrders(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, apperrors.NewValidationError("no orders selected", apperrors.ValidationDetail{
			Field:   "ids",
			Message: "ids must not be empty",
		})
	}

	deleted, err := uc.orderRepo.DeleteMany(ctx, ids)
	if err != nil {
		return 0, storeError("failed to delete orders", err)
	}

	uc.logger.Info("orders deleted", zap.Int("requested", len(ids)), zap.Int64("deleted", deleted))
	return int(deleted), nil
}

func (uc *ManageOrdersUseCase) PrintOrder(ctx context.Context, id string) (string, error) {
	order, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return "", storeError("failed to load order", err)
	}

	sheet, err := uc.printer.RenderString(*order)
	if err != nil {
		return "", apperrors.NewInternalError("failed to render order sheet", err)
	}
	return sheet, nil
}

func invalidStatus(status domain.OrderStatus) error {
	msg := fmt.Sprintf("status must be one of pending, in_progress, completed (got %q)", string(status))
	return apperrors.NewValidationError("invalid status", apperrors.ValidationDetail{
		Field:   "status",
		Message: msg,
	})
}

// storeError passes typed errors through and wraps any other repository
// failure as an InternalError.
func storeError(message string, err error) error {
	if _, ok := apperrors.IsNotFoundError(err); ok {
		return err
	}
	if _, ok := apperrors.IsConflictError(err); ok {
		return err
	}
	if _, ok := apperrors.IsValidationError(err); ok {
		return err
	}
	return apperrors.NewInternalError(message, err)
}
