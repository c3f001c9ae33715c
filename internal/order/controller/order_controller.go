package controller

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/middleware"
	"seedorders/internal/order/usecase"
)

type CreateOrderUseCase interface {
	CreateOrder(ctx context.Context, createdBy string, req dto.CreateOrderRequest) (*usecase.CreateOrderResult, error)
}

type ManageOrdersUseCase interface {
	ListOrders(ctx context.Context, status *domain.OrderStatus) ([]domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	Stats(ctx context.Context) (domain.OrderStats, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) error
	MarkViewed(ctx context.Context, id string, viewerID string) error
	DeleteOrder(ctx context.Context, id string) error
	DeleteOrders(ctx context.Context, ids []string) (int, error)
	PrintOrder(ctx context.Context, id string) (string, error)
}

type OrderController struct {
	create   CreateOrderUseCase
	manage   ManageOrdersUseCase
	validate *validator.Validate
	logger   *zap.Logger
}

func NewOrderController(create CreateOrderUseCase, manage ManageOrdersUseCase, logger *zap.Logger) *OrderController {
	return &OrderController{
		create:   create,
		manage:   manage,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// Routes mounts the order endpoints on r.
func (c *OrderController) Routes(r chi.Router) {
	r.Get("/", c.HandleList)
	r.With(middleware.RequireUser).Post("/", c.HandleCreate)
	r.Get("/stats", c.HandleStats)
	r.Post("/delete", c.HandleBulkDelete)
	r.Route("/{orderId}", func(r chi.Router) {
		r.Get("/", c.HandleGet)
		r.Delete("/", c.HandleDelete)
		r.Patch("/status", c.HandleUpdateStatus)
		r.With(middleware.RequireUser).Patch("/view", c.HandleMarkViewed)
		r.Get("/print", c.HandlePrint)
	})
}

func (c *OrderController) HandleCreate(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.CreateOrderRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	userID, _ := middleware.UserIDFromContext(r.Context())
	result, err := c.create.CreateOrder(r.Context(), userID, req)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	resp := dto.CreateOrderResponse{
		TraceID:      traceID,
		Order:        dto.OrderFromDomain(result.Order),
		Notification: string(result.Notification),
	}
	if result.NotificationError != nil {
		resp.NotificationError = result.NotificationError.Error()
	}

	c.writeJSON(w, http.StatusCreated, resp)
}

func (c *OrderController) HandleList(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var status *domain.OrderStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := domain.OrderStatus(raw)
		status = &s
	}

	orders, err := c.manage.ListOrders(r.Context(), status)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrdersFromDomain(orders))
}

func (c *OrderController) HandleStats(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()

	stats, err := c.manage.Stats(r.Context())
	if err != nil {
		c.handleUseCaseError(w, traceID, err, c.logger.With(zap.String("traceId", traceID)))
		return
	}

	c.writeJSON(w, http.StatusOK, dto.StatsFromDomain(stats))
}

func (c *OrderController) HandleGet(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	order, err := c.manage.GetOrder(r.Context(), id)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.OrderFromDomain(*order))
}

func (c *OrderController) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	var req dto.UpdateStatusRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	if err := c.manage.UpdateStatus(r.Context(), id, domain.OrderStatus(req.Status)); err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) HandleMarkViewed(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	viewerID, _ := middleware.UserIDFromContext(r.Context())
	if err := c.manage.MarkViewed(r.Context(), id, viewerID); err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) HandleDelete(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	if err := c.manage.DeleteOrder(r.Context(), id); err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (c *OrderController) HandleBulkDelete(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	var req dto.DeleteOrdersRequest
	if !c.decode(w, r, traceID, &req, logger) {
		return
	}

	deleted, err := c.manage.DeleteOrders(r.Context(), req.IDs)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	c.writeJSON(w, http.StatusOK, dto.DeleteOrdersResponse{Deleted: deleted})
}

func (c *OrderController) HandlePrint(w http.ResponseWriter, r *http.Request) {
	traceID := uuid.New().String()
	logger := c.logger.With(zap.String("traceId", traceID))

	id, ok := c.orderID(w, r, traceID)
	if !ok {
		return
	}

	page, err := c.manage.PrintOrder(r.Context(), id)
	if err != nil {
		c.handleUseCaseError(w, traceID, err, logger)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(page)); err != nil {
		logger.Error("failed to write print page", zap.Error(err))
	}
}

func (c *OrderController) orderID(w http.ResponseWriter, r *http.Request, traceID string) (string, bool) {
	id := chi.URLParam(r, "orderId")
	if err := uuid.Validate(id); err != nil {
		c.writeValidationError(w, traceID, "invalid orderId", apperrors.ValidationDetail{
			Field:   "orderId",
			Message: "orderId must be a UUID",
		})
		return "", false
	}
	return id, true
}

// decode reads the JSON body into dst and runs struct validation, writing a
// 400 and returning false on failure.
func (c *OrderController) decode(w http.ResponseWriter, r *http.Request, traceID string, dst any, logger *zap.Logger) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Warn("invalid JSON body", zap.Error(err))
		c.writeValidationError(w, traceID, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return false
	}

	if err := c.validate.Struct(dst); err != nil {
		var details []apperrors.ValidationDetail
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				details = append(details, apperrors.ValidationDetail{
					Field:   fe.Field(),
					Message: "failed on the '" + fe.Tag() + "' rule",
				})
			}
		}
		c.writeValidationError(w, traceID, "validation failed", details...)
		return false
	}

	return true
}

func (c *OrderController) handleUseCaseError(w http.ResponseWriter, traceID string, err error, logger *zap.Logger) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, traceID, ve.Message, ve.Details...)
		return
	}

	if _, ok := apperrors.IsNotFoundError(err); ok {
		c.writeJSON(w, http.StatusNotFound, dto.ErrorResponse{
			TraceID: traceID,
			Error:   "NOT_FOUND",
			Message: err.Error(),
		})
		return
	}

	if _, ok := apperrors.IsConflictError(err); ok {
		c.writeJSON(w, http.StatusConflict, dto.ErrorResponse{
			TraceID: traceID,
			Error:   "CONFLICT",
			Message: err.Error(),
		})
		return
	}

	if ie, ok := apperrors.IsInternalError(err); ok {
		logger.Error(ie.Message, zap.Error(ie.Cause))
		c.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
			TraceID: traceID,
			Error:   "INTERNAL_ERROR",
			Message: ie.Message,
		})
		return
	}

	logger.Error("unexpected error", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
		TraceID: traceID,
		Error:   "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	})
}

type validationErrorResponse struct {
	TraceID string                       `json:"traceId"`
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *OrderController) writeValidationError(w http.ResponseWriter, traceID string, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		TraceID: traceID,
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *OrderController) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
