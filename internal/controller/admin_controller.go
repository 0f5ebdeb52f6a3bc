package controller

import (
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/serverutils"
	"star-booking-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAdminController interface {
	RegisterRoutes(r fiber.Router)
	RunReconciliation(ctx *fiber.Ctx) error
	ReleaseExpiredLocks(ctx *fiber.Ctx) error
}

type adminController struct {
	reconciler service.IReconciliationService
	payments   service.IPaymentService
	middleware fiber.Handler
}

func NewAdminController(reconciler service.IReconciliationService, payments service.IPaymentService, jwtSecret string) IAdminController {
	return &adminController{
		reconciler: reconciler,
		payments:   payments,
		middleware: serverutils.NewJwtMiddleware(jwtSecret),
	}
}

func (c *adminController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/admin/v1")
	h.Use(c.middleware, serverutils.RequireRole(entity.UserRoleAdmin))
	h.Post("/reconciliation/run", c.RunReconciliation)
	h.Post("/payment-locks/release", c.ReleaseExpiredLocks)
}

// RunReconciliation triggers one pass outside the cron schedule.
func (c *adminController) RunReconciliation(ctx *fiber.Ctx) error {
	res, err := c.reconciler.RunOnce(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Reconciliation finished", res))
}

func (c *adminController) ReleaseExpiredLocks(ctx *fiber.Ctx) error {
	res, err := c.payments.ReleaseExpiredLocks(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Expired payment locks released", res))
}
