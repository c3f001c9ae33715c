package pushtoken

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"seedorders/internal/domain"
	"seedorders/internal/dto"
	apperrors "seedorders/internal/errors"
	"seedorders/internal/middleware"
)

type Controller struct {
	service  Service
	validate *validator.Validate
	logger   *zap.Logger
}

func NewController(service Service, logger *zap.Logger) *Controller {
	return &Controller{
		service:  service,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger,
	}
}

// HandleRegister upserts the caller's device token.
func (c *Controller) HandleRegister(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		c.writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{
			Error:   "UNAUTHORIZED",
			Message: "user access token required",
		})
		return
	}

	var req dto.RegisterPushTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeValidationError(w, "invalid JSON body", apperrors.ValidationDetail{
			Field:   "body",
			Message: "request body must be valid JSON",
		})
		return
	}

	if err := c.validate.Struct(req); err != nil {
		c.writeValidationError(w, "validation failed", validationDetails(err)...)
		return
	}

	token, err := c.service.Register(r.Context(), userID, req.Token, req.DeviceInfo)
	if err != nil {
		c.handleError(w, err)
		return
	}

	c.writeJSON(w, http.StatusOK, toDTO(*token))
}

// HandleList returns the tokens of the user named by ?userId=, defaulting to
// the caller.
func (c *Controller) HandleList(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		userID, _ = middleware.UserIDFromContext(r.Context())
	}

	tokens, err := c.service.ListByUser(r.Context(), userID)
	if err != nil {
		c.handleError(w, err)
		return
	}

	resp := make([]dto.PushToken, 0, len(tokens))
	for _, t := range tokens {
		resp = append(resp, toDTO(t))
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) handleError(w http.ResponseWriter, err error) {
	if ve, ok := apperrors.IsValidationError(err); ok {
		c.writeValidationError(w, ve.Message, ve.Details...)
		return
	}

	c.logger.Error("push token request failed", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{
		Error:   "INTERNAL_ERROR",
		Message: "an unexpected error occurred",
	})
}

func validationDetails(err error) []apperrors.ValidationDetail {
	var details []apperrors.ValidationDetail
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			details = append(details, apperrors.ValidationDetail{
				Field:   fe.Field(),
				Message: "failed on the '" + fe.Tag() + "' rule",
			})
		}
		return details
	}
	return []apperrors.ValidationDetail{{Field: "body", Message: err.Error()}}
}

func toDTO(t domain.PushToken) dto.PushToken {
	return dto.PushToken{
		UserID:     t.UserID,
		Token:      t.Token,
		DeviceInfo: t.DeviceInfo,
		UpdatedAt:  t.UpdatedAt,
	}
}

type validationErrorResponse struct {
	Error   string                       `json:"error"`
	Message string                       `json:"message"`
	Details []apperrors.ValidationDetail `json:"details"`
}

func (c *Controller) writeValidationError(w http.ResponseWriter, message string, details ...apperrors.ValidationDetail) {
	c.writeJSON(w, http.StatusBadRequest, validationErrorResponse{
		Error:   "VALIDATION_ERROR",
		Message: message,
		Details: details,
	})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
