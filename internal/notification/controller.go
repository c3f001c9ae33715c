package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"seedorders/internal/dto"
)

type Service interface {
	Dispatch(ctx context.Context, req dto.OrderNotificationRequest) (*Outcome, error)
	DispatchReminders(ctx context.Context) (*Outcome, error)
}

// Controller serves the notification functions. Errors are reported as 500
// with the raw message so callers see what went wrong.
type Controller struct {
	service Service
	logger  *zap.Logger
}

func NewController(service Service, logger *zap.Logger) *Controller {
	return &Controller{
		service: service,
		logger:  logger,
	}
}

// CORS returns the permissive cross-origin policy the functions are served
// with.
func CORS() func(http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:       []string{"*"},
		AllowedMethods:       []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:       []string{"Content-Type", "Authorization", "X-Client-Info", "Apikey"},
		OptionsSuccessStatus: http.StatusOK,
	}).Handler
}

// HandlePreflight answers OPTIONS requests that are not CORS preflights.
func HandlePreflight(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Client-Info, Apikey")
	w.WriteHeader(http.StatusOK)
}

func (c *Controller) HandleOrderNotification(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		c.writeError(w, "decoding notification request", err)
		return
	}

	outcome, err := c.service.Dispatch(r.Context(), req)
	if err != nil {
		c.writeError(w, "order notification", err)
		return
	}

	c.writeOutcome(w, outcome, false)
}

func (c *Controller) HandleReminder(w http.ResponseWriter, r *http.Request) {
	outcome, err := c.service.DispatchReminders(r.Context())
	if err != nil {
		c.writeError(w, "reminder notification", err)
		return
	}

	c.writeOutcome(w, outcome, true)
}

func (c *Controller) writeOutcome(w http.ResponseWriter, outcome *Outcome, reminder bool) {
	if outcome.Message != "" {
		c.writeJSON(w, http.StatusOK, dto.MessageResponse{Message: outcome.Message})
		return
	}

	resp := dto.DispatchResponse{
		Success: true,
		Result:  outcome.Result,
	}
	if reminder {
		sent := outcome.Reminders
		resp.RemindersSent = &sent
	}

	c.writeJSON(w, http.StatusOK, resp)
}

func (c *Controller) writeError(w http.ResponseWriter, op string, err error) {
	c.logger.Error(op+" failed", zap.Error(err))
	c.writeJSON(w, http.StatusInternalServerError, dto.FunctionErrorResponse{Error: err.Error()})
}

func (c *Controller) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		c.logger.Error("failed to encode response", zap.Error(err))
	}
}
