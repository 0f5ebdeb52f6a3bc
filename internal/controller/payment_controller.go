package controller

import (
	"star-booking-be/internal/dto"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/logger"
	"star-booking-be/internal/pkg/serverutils"
	"star-booking-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IPaymentController interface {
	RegisterRoutes(r fiber.Router)
	Webhook(ctx *fiber.Ctx) error
}

type paymentController struct {
	service service.IPaymentService
	log     logger.ILogger
}

func NewPaymentController(service service.IPaymentService, log logger.ILogger) IPaymentController {
	return &paymentController{service: service, log: log}
}

// RegisterRoutes exposes the gateway callback. It is authenticated by the
// notification signature, not by a bearer token.
func (c *paymentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/payment/v1")
	h.Post("/midtrans/notification", c.Webhook)
}

func (c *paymentController) Webhook(ctx *fiber.Ctx) error {
	var req dto.MidtransWebhookRequest
	if err := ctx.BodyParser(&req); err != nil {
		c.log.Warn("WEBHOOK", "Body parsing failed", map[string]interface{}{"error": err.Error()})
		return apperror.BadRequest("invalid notification body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	sigPreview := req.SignatureKey
	if len(sigPreview) > 8 {
		sigPreview = sigPreview[:8] + "..."
	}
	c.log.Info("WEBHOOK", "Notification received", map[string]interface{}{
		"order_id":  req.OrderId,
		"status":    req.TransactionStatus,
		"signature": sigPreview,
	})

	// A 5xx makes the gateway retry the notification.
	if err := c.service.HandleNotification(ctx.UserContext(), &req); err != nil {
		c.log.Error("WEBHOOK", "Notification handling failed", map[string]interface{}{
			"order_id": req.OrderId,
			"error":    err.Error(),
		})
		return err
	}

	return ctx.SendStatus(fiber.StatusOK)
}
