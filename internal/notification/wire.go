package notification

import (
	"go.uber.org/zap"

	"seedorders/internal/config"
)

type Module struct {
	Controller *Controller
	Dispatcher *Dispatcher
}

func NewModule(tokens TokenLister, orders ReminderStore, cfg *config.Config, logger *zap.Logger) *Module {
	gateway := NewExpoGateway(cfg.Push.GatewayURL, cfg.Push.Timeout)
	dispatcher := NewDispatcher(tokens, orders, gateway, cfg.Notification.ReminderStaleAfter, logger)
	return &Module{
		Controller: NewController(dispatcher, logger),
		Dispatcher: dispatcher,
	}
}
