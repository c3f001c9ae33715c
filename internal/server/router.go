package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"seedorders/internal/middleware"
	"seedorders/internal/notification"
	ordercontroller "seedorders/internal/order/controller"
	"seedorders/internal/pushtoken"
)

type RouterDeps struct {
	Auth          *middleware.Authenticator
	Orders        *ordercontroller.OrderController
	PushTokens    *pushtoken.Controller
	Notifications *notification.Controller
	Realtime      http.Handler
	Logger        *zap.Logger
}

func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.APIKey)

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/orders", deps.Orders.Routes)
			r.Route("/push-tokens", func(r chi.Router) {
				r.Get("/", deps.PushTokens.HandleList)
				r.With(middleware.RequireUser).Put("/", deps.PushTokens.HandleRegister)
			})
		})

		r.Handle("/realtime/v1/orders", deps.Realtime)
	})

	r.Route("/functions/v1", func(r chi.Router) {
		r.Use(notification.CORS())
		r.Options("/*", notification.HandlePreflight)

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.APIKey)
			r.Post("/send-order-notification", deps.Notifications.HandleOrderNotification)
			r.With(middleware.RequireService).Post("/send-reminder-notification", deps.Notifications.HandleReminder)
		})
	})

	return r
}
