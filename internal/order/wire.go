package order

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"seedorders/internal/order/controller"
	orderrepo "seedorders/internal/order/repository"
	"seedorders/internal/order/service"
	"seedorders/internal/order/usecase"
)

// NewModule wires the order endpoints. The order repository is built by the
// caller because the notification dispatcher reads from it too.
func NewModule(db *sql.DB, orderRepo *orderrepo.MySQLOrderRepository, notifier usecase.OrderCreatedNotifier, logger *zap.Logger) (*controller.OrderController, error) {
	orderItemRepo := orderrepo.NewMySQLOrderItemRepository(db)

	printer, err := service.NewPrintService(nil)
	if err != nil {
		return nil, fmt.Errorf("building print service: %w", err)
	}

	createUC := usecase.NewCreateOrderUseCase(orderRepo, orderItemRepo, notifier, logger)
	manageUC := usecase.NewManageOrdersUseCase(orderRepo, printer, logger)

	return controller.NewOrderController(createUC, manageUC, logger), nil
}
