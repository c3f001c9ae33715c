package pushtoken

import (
	"database/sql"

	"go.uber.org/zap"

	"seedorders/internal/pushtoken/repository"
)

type Module struct {
	Controller *Controller
	Service    Service
}

func NewModule(db *sql.DB, logger *zap.Logger) *Module {
	repo := repository.NewMySQLPushTokenRepository(db)
	svc := NewService(repo)
	return &Module{
		Controller: NewController(svc, logger),
		Service:    svc,
	}
}
