package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Traslados-api/internal/application/transfer"
	"github.com/jhoicas/Traslados-api/internal/domain/entity"
)

// RouterDeps dependencias para registrar rutas.
type RouterDeps struct {
	TransferUC *transfer.TransferUseCase
	JWTSecret  string
	Logger     zerolog.Logger
}

// Router registra las rutas bajo /api. Todas requieren JWT; las que mueven stock además
// requieren rol admin o bodeguero.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	h := NewTransferHandler(deps.TransferUC, deps.Logger)
	operators := RequireRole(entity.RoleAdmin, entity.RoleBodeguero)

	transfers := protected.Group("/transfers")
	transfers.Get("/", h.List)
	transfers.Get("/statistics", h.Statistics)
	transfers.Get("/:id", h.Get)
	transfers.Post("/", operators, h.Create)
	transfers.Post("/:id/approve", operators, h.Approve)
	transfers.Post("/:id/receive", operators, h.Receive)
	transfers.Post("/:id/cancel", operators, h.Cancel)
}
