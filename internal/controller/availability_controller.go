package controller

import (
	"star-booking-be/internal/dto"
	"star-booking-be/internal/entity"
	"star-booking-be/internal/pkg/apperror"
	"star-booking-be/internal/pkg/serverutils"
	"star-booking-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IAvailabilityController interface {
	RegisterRoutes(r fiber.Router)
	Upsert(ctx *fiber.Ctx) error
	SwitchMode(ctx *fiber.Ctx) error
	DeleteSlot(ctx *fiber.Ctx) error
	DeleteSlotById(ctx *fiber.Ctx) error
	GetByStar(ctx *fiber.Ctx) error
}

type availabilityController struct {
	service    service.IAvailabilityService
	middleware fiber.Handler
}

func NewAvailabilityController(service service.IAvailabilityService, jwtSecret string) IAvailabilityController {
	return &availabilityController{
		service:    service,
		middleware: serverutils.NewJwtMiddleware(jwtSecret),
	}
}

func (c *availabilityController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/availability/v1")
	h.Use(c.middleware)

	starOnly := serverutils.RequireRole(entity.UserRoleStar)
	h.Put("", starOnly, c.Upsert)
	h.Put("mode", starOnly, c.SwitchMode)
	h.Delete("slot", starOnly, c.DeleteSlot)
	h.Delete("slot/:slotId", starOnly, c.DeleteSlotById)
	h.Get(":starId", c.GetByStar)
}

func (c *availabilityController) Upsert(ctx *fiber.Ctx) error {
	var req dto.UpsertAvailabilityRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.Upsert(ctx.UserContext(), serverutils.ActorFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Availability saved", res))
}

func (c *availabilityController) SwitchMode(ctx *fiber.Ctx) error {
	var req dto.SwitchModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.SwitchMode(ctx.UserContext(), serverutils.ActorFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Availability mode switched", res))
}

func (c *availabilityController) DeleteSlot(ctx *fiber.Ctx) error {
	var req dto.DeleteSlotRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.BadRequest("invalid request body")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.DeleteSlot(ctx.UserContext(), serverutils.ActorFromCtx(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Time slot deleted", res))
}

func (c *availabilityController) DeleteSlotById(ctx *fiber.Ctx) error {
	slotId, err := paramUUID(ctx, "slotId")
	if err != nil {
		return err
	}
	res, err := c.service.DeleteSlotById(ctx.UserContext(), serverutils.ActorFromCtx(ctx), slotId)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Time slot deleted", res))
}

func (c *availabilityController) GetByStar(ctx *fiber.Ctx) error {
	starId, err := paramUUID(ctx, "starId")
	if err != nil {
		return err
	}
	res, err := c.service.GetAvailability(ctx.UserContext(), starId, ctx.Query("from"))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success get availability", res))
}
