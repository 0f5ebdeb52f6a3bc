package controller

import (
	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/serverutils"
	"star-booking-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IAppointmentController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Approve(ctx *fiber.Ctx) error
	Reject(ctx *fiber.Ctx) error
	Cancel(ctx *fiber.Ctx) error
	Reschedule(ctx *fiber.Ctx) error
	Complete(ctx *fiber.Ctx) error
}

type appointmentController struct {
	service    service.IAppointmentService
	middleware fiber.Handler
}

func NewAppointmentController(service service.IAppointmentService, jwtSecret string) IAppointmentController {
	return &appointmentController{
		service:    service,
		middleware: serverutils.NewJwtMiddleware(jwtSecret),
	}
}

func (c *appointmentController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/appointment/v1")
	h.Use(c.middleware)
	h.Post("", serverutils.RequireRole(entity.UserRoleFan), c.Create)
	h.Get("", c.List)
	h.Get(":id", c.Show)
	h.Patch(":id/approve", serverutils.RequireRole(entity.UserRoleStar, entity.UserRoleAdmin), c.Approve)
	h.Patch(":id/reject", serverutils.RequireRole(entity.UserRoleStar, entity.UserRoleAdmin), c.Reject)
	h.Patch(":id/cancel", c.Cancel)
	h.Post(":id/reschedule", c.Reschedule)
	h.Post(":id/complete", c.Complete)
}

func paramUUID(ctx *fiber.Ctx, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params(name))
	if err != nil {
		return uuid.Nil, apperror.BadRequest("invalid " + name)
	}
	return id, nil
}

func (c *appointmentController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateAppointmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Create(ctx.UserContext(), serverutils.ActorFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(serverutils.SuccessResponse("Appointment booked", res))
}

func (c *appointmentController) List(ctx *fiber.Ctx) error {
	var req dto.ListAppointmentsRequest
	if err := ctx.QueryParser(&req); err != nil {
		return apperror.BadRequest("invalid query parameters")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.List(ctx.UserContext(), serverutils.ActorFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get appointments", res))
}

func (c *appointmentController) Show(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Get(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get appointment", res))
}

func (c *appointmentController) Approve(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Approve(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Appointment approved", res))
}

func (c *appointmentController) Reject(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Reject(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Appointment rejected", res))
}

func (c *appointmentController) Cancel(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	res, err := c.service.Cancel(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Appointment cancelled", res))
}

func (c *appointmentController) Reschedule(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.RescheduleAppointmentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Reschedule(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Appointment rescheduled", res))
}

// Complete records call seconds reported by either participant.
func (c *appointmentController) Complete(ctx *fiber.Ctx) error {
	id, err := paramUUID(ctx, "id")
	if err != nil {
		return err
	}
	var req dto.AddDurationRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.AddDuration(ctx.UserContext(), serverutils.ActorFromCtx(ctx), id, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Call duration recorded", res))
}
